package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/domain"
)

// AlertResult is what the webhook handler renders back to TradingView.
type AlertResult struct {
	Status      string  `json:"status"` // success, no_action
	RequestID   string  `json:"request_id"`
	Signal      string  `json:"signal"`
	Symbol      string  `json:"symbol"`
	OrderStatus string  `json:"order_status,omitempty"`
	OrderID     int64   `json:"order_id,omitempty"`
	AvgPrice    float64 `json:"avg_price,omitempty"`
	TotalSize   float64 `json:"total_size,omitempty"`
	ExecutionMs float64 `json:"execution_ms"`
}

// AlertService is the webhook pipeline: classify the position transition,
// build the order intent, execute with retries, and record everything in the
// audit trail. Notifications go out on a separate goroutine so a slow
// Telegram API can never delay the webhook response.
type AlertService struct {
	orders     *OrderService
	retrier    *Retrier
	audit      domain.AuditRepository
	notifier   domain.Notifier
	subaccount string
	logger     *zap.Logger
	timeNow    func() time.Time // for testing
}

func NewAlertService(orders *OrderService, retrier *Retrier, audit domain.AuditRepository, notifier domain.Notifier, subaccount string, logger *zap.Logger) *AlertService {
	return &AlertService{
		orders:     orders,
		retrier:    retrier,
		audit:      audit,
		notifier:   notifier,
		subaccount: subaccount,
		logger:     logger,
		timeNow:    time.Now,
	}
}

// HandleAlert processes one TradingView alert end to end. A NO_ACTION
// classification is a success with nothing to do, not an error.
func (s *AlertService) HandleAlert(ctx context.Context, requestID string, alert *domain.Alert) (*AlertResult, error) {
	started := s.timeNow()
	symbol := alert.Symbol()

	prev, ok := domain.ParsePositionState(alert.Market.PreviousPosition)
	if !ok {
		s.logger.Warn("Unknown previous position, treating as flat",
			zap.String("request_id", requestID),
			zap.String("previous_position", alert.Market.PreviousPosition),
		)
	}
	current, ok := domain.ParsePositionState(alert.Market.Position)
	if !ok {
		s.logger.Warn("Unknown position, treating as flat",
			zap.String("request_id", requestID),
			zap.String("position", alert.Market.Position),
		)
	}
	action, _ := domain.ParseOrderAction(alert.Order.Action)

	signal := domain.Classify(prev, current, action)
	s.logger.Info("Classified alert",
		zap.String("request_id", requestID),
		zap.String("symbol", symbol),
		zap.String("previous", string(prev)),
		zap.String("current", string(current)),
		zap.String("action", string(action)),
		zap.String("signal", string(signal)),
	)

	if signal == domain.SignalNoAction {
		return &AlertResult{
			Status:      "no_action",
			RequestID:   requestID,
			Signal:      string(signal),
			Symbol:      symbol,
			ExecutionMs: s.elapsedMs(started),
		}, nil
	}

	side, _ := domain.SignalSide(signal)
	leverage, err := parseLeverage(alert.General.Leverage)
	if err != nil {
		return nil, err
	}

	req := &domain.OrderRequest{
		RequestID:  requestID,
		Symbol:     symbol,
		Side:       side,
		Signal:     signal,
		Quantity:   alert.Order.Contracts.Float64(),
		Price:      alert.Order.Price.Float64(),
		Leverage:   leverage,
		Subaccount: s.subaccount,
	}

	out, err := s.retrier.Run(ctx, "place order", func() (*domain.OrderOutcome, error) {
		return s.orders.PlaceOrder(ctx, req)
	}, func(attempt int, attemptErr error) {
		s.recordFailure(ctx, requestID, attempt, attemptErr)
	})

	elapsed := s.elapsedMs(started)
	if err != nil {
		s.recordOrder(ctx, req, nil, "FAILED", elapsed)
		return nil, err
	}

	s.recordOrder(ctx, req, out, strings.ToUpper(string(out.Status)), elapsed)
	s.notify(req, out, elapsed)

	return &AlertResult{
		Status:      "success",
		RequestID:   requestID,
		Signal:      string(signal),
		Symbol:      symbol,
		OrderStatus: string(out.Status),
		OrderID:     out.OrderID,
		AvgPrice:    out.AvgPrice,
		TotalSize:   out.TotalSize,
		ExecutionMs: elapsed,
	}, nil
}

func (s *AlertService) elapsedMs(started time.Time) float64 {
	return float64(s.timeNow().Sub(started)) / float64(time.Millisecond)
}

func (s *AlertService) recordOrder(ctx context.Context, req *domain.OrderRequest, out *domain.OrderOutcome, status string, elapsed float64) {
	rec := &domain.OrderRecord{
		RequestID:   req.RequestID,
		Timestamp:   s.timeNow().UTC(),
		Symbol:      req.Symbol,
		Side:        string(req.Side),
		Signal:      string(req.Signal),
		Quantity:    req.Quantity,
		Price:       req.Price,
		Leverage:    req.Leverage,
		Subaccount:  req.Subaccount,
		Status:      status,
		ExecutionMs: elapsed,
	}
	if out != nil {
		rec.OrderID = strconv.FormatInt(out.OrderID, 10)
		rec.AvgPrice = out.AvgPrice
		rec.TotalSize = out.TotalSize
		rec.ResponseJSON = out.Raw
	}
	if _, err := s.audit.LogOrder(ctx, rec); err != nil {
		// Audit problems must not fail an order that already went through.
		s.logger.Error("Failed to record order", zap.String("request_id", req.RequestID), zap.Error(err))
	}
}

func (s *AlertService) recordFailure(ctx context.Context, requestID string, attempt int, attemptErr error) {
	rec := &domain.FailureRecord{
		RequestID:    requestID,
		Timestamp:    s.timeNow().UTC(),
		ErrorType:    domain.ErrorKind(attemptErr),
		ErrorMessage: attemptErr.Error(),
		Attempt:      attempt,
		RetryCount:   attempt - 1, // retries that preceded this attempt
	}
	if _, err := s.audit.LogFailure(ctx, rec); err != nil {
		s.logger.Error("Failed to record failure", zap.String("request_id", requestID), zap.Error(err))
	}
}

func (s *AlertService) notify(req *domain.OrderRequest, out *domain.OrderOutcome, elapsed float64) {
	if s.notifier == nil {
		return
	}
	text := formatOrderMessage(req, out, elapsed)
	go s.notifier.Send(text)
}

// formatOrderMessage renders the Telegram summary for an executed order.
func formatOrderMessage(req *domain.OrderRequest, out *domain.OrderOutcome, elapsed float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s %s\n", req.Signal, req.Symbol)
	fmt.Fprintf(&b, "Side: %s, Qty: %v", req.Side, req.Quantity)
	if req.Leverage > 0 {
		fmt.Fprintf(&b, ", Lev: %dx", req.Leverage)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Status: %s, OID: %d\n", out.Status, out.OrderID)
	if out.Status == domain.StatusFilled {
		fmt.Fprintf(&b, "Filled %v @ %v\n", out.TotalSize, out.AvgPrice)
	}
	fmt.Fprintf(&b, "Took %.0f ms", elapsed)
	return b.String()
}

// parseLeverage turns the alert's free-form leverage string into an integer.
// Empty means "use the configured default"; anything else must parse.
func parseLeverage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, domain.NewValidationError("leverage %q is not a whole number", raw)
		}
		v = int(f)
	}
	if v < 1 {
		return 0, domain.NewValidationError("leverage must be at least 1, got %d", v)
	}
	return v, nil
}
