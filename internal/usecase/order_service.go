package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/domain"
)

// OrderService turns a validated order intent into a venue order. It fetches
// a fresh market context per order, applies leverage-adjusted sizing, and
// branches between market entries and reduce-only closes by signal kind.
// Order attempts are serialized per symbol so concurrent webhooks for the
// same instrument cannot race on the leverage update.
type OrderService struct {
	market          domain.MarketData
	exchange        domain.Exchange
	premiumBps      float64
	defaultLeverage int
	logger          *zap.Logger

	mu       sync.Mutex
	symLocks map[string]*sync.Mutex
}

func NewOrderService(market domain.MarketData, exchange domain.Exchange, premiumBps float64, defaultLeverage int, logger *zap.Logger) *OrderService {
	return &OrderService{
		market:          market,
		exchange:        exchange,
		premiumBps:      premiumBps,
		defaultLeverage: defaultLeverage,
		logger:          logger,
		symLocks:        make(map[string]*sync.Mutex),
	}
}

func (s *OrderService) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.symLocks[symbol]
	if !ok {
		l = &sync.Mutex{}
		s.symLocks[symbol] = l
	}
	return l
}

// PlaceOrder executes one order request. Quantity is the margin-denominated
// amount from the alert; the contract size sent to the venue is quantity
// times leverage, quantized to the symbol's size decimals.
func (s *OrderService) PlaceOrder(ctx context.Context, req *domain.OrderRequest) (*domain.OrderOutcome, error) {
	if req.Symbol == "" {
		return nil, domain.NewValidationError("symbol is required")
	}
	if req.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive, got %v", req.Quantity)
	}

	lock := s.symbolLock(req.Symbol)
	lock.Lock()
	defer lock.Unlock()

	mc, err := s.market.Context(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	leverage := req.Leverage
	if leverage == 0 {
		leverage = s.defaultLeverage
	}
	if leverage < 1 || leverage > mc.MaxLeverage {
		return nil, domain.NewValidationError(
			"leverage %d outside allowed range [1, %d] for %s", leverage, mc.MaxLeverage, req.Symbol)
	}

	if err := s.exchange.UpdateLeverage(ctx, req.Symbol, leverage); err != nil {
		// The venue clamps leverage itself; a failed update narrows sizing
		// but does not endanger the order.
		s.logger.Warn("Failed to update leverage",
			zap.String("symbol", req.Symbol),
			zap.Int("leverage", leverage),
			zap.Error(err),
		)
	}

	size, err := domain.QuantizeSize(req.Quantity*float64(leverage), mc.SzDecimals)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Placing order",
		zap.String("request_id", req.RequestID),
		zap.String("symbol", req.Symbol),
		zap.String("signal", string(req.Signal)),
		zap.String("side", string(req.Side)),
		zap.Float64("size", size),
		zap.Int("leverage", leverage),
	)

	var out *domain.OrderOutcome
	switch req.Signal {
	case domain.SignalCloseLong:
		out, err = s.exchange.ClosePosition(ctx, req.Symbol, domain.PositionLong, size, s.premiumBps)
	case domain.SignalCloseShort:
		out, err = s.exchange.ClosePosition(ctx, req.Symbol, domain.PositionShort, size, s.premiumBps)
	default:
		out, err = s.exchange.MarketOrder(ctx, req.Symbol, req.Side, size, s.premiumBps, false)
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domain.NewAPIError("no response from exchange for %s", req.RequestID)
	}
	return out, nil
}
