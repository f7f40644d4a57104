package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/domain"
)

const (
	// On an IOC close that fails to cross, retry once with the premium
	// tripled (floor 50 bps) after a fixed pause. Single-level only: more
	// retries on a stale close signal just compound slippage.
	closeRetryPause      = 2 * time.Second
	closeRetryPremiumMin = 50.0
	closeRetryFactor     = 3.0

	// Substring the venue uses when an IOC order cannot cross the book.
	iocRejectReason = "could not immediately match"
)

// Client submits signed order actions to the Hyperliquid /exchange endpoint
// and interprets the responses. Market data lookups go through the embedded
// DataClient and are always fresh.
type Client struct {
	exchangeURL       string
	client            *http.Client
	signer            *signer
	data              *DataClient
	vaultAddress      string
	defaultPremiumBps float64
	logger            *zap.Logger

	sleep func(time.Duration)
	nonce func() uint64
}

func NewClient(baseURL, privateKey, vaultAddress string, mainnet bool, defaultPremiumBps float64, data *DataClient, logger *zap.Logger) (*Client, error) {
	sg, err := newSigner(privateKey, mainnet)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePremium(defaultPremiumBps); err != nil {
		return nil, err
	}
	c := &Client{
		exchangeURL:       strings.TrimRight(baseURL, "/") + "/exchange",
		client:            &http.Client{Timeout: 10 * time.Second},
		signer:            sg,
		data:              data,
		vaultAddress:      vaultAddress,
		defaultPremiumBps: defaultPremiumBps,
		logger:            logger,
		sleep:             time.Sleep,
		nonce:             func() uint64 { return uint64(time.Now().UnixMilli()) },
	}
	logger.Debug("Execution client initialized",
		zap.String("wallet", sg.address().Hex()),
		zap.String("vault", vaultAddress),
	)
	return c, nil
}

// submit signs an action and POSTs it. Transport failures classify as
// NetworkError, HTTP or venue-level rejections as APIError. The raw body is
// returned for the audit trail.
func (c *Client) submit(ctx context.Context, action any) ([]byte, error) {
	nonce := c.nonce()
	sig, err := c.signer.signAction(action, c.vaultAddress, nonce)
	if err != nil {
		return nil, domain.NewAPIError("sign action: %v", err)
	}

	body, err := json.Marshal(exchangeRequest{
		Action:       action,
		Nonce:        nonce,
		Signature:    sig,
		VaultAddress: c.vaultAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.exchangeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: "post /exchange", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Op: "read /exchange response", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, domain.NewAPIError("exchange status %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Status   string          `json:"status"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &domain.ResponseParseError{Raw: string(respBody), Err: err}
	}
	if envelope.Status != "ok" {
		return nil, domain.NewAPIError("exchange rejected action: %s", string(envelope.Response))
	}
	return respBody, nil
}

// parseOrderOutcome scans the per-order status list. The first item carrying
// a resting key wins, then the first filled; a bare error string becomes the
// failure reason; anything else is unrecoverable.
func parseOrderOutcome(raw []byte) (*domain.OrderOutcome, error) {
	var resp exchangeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.ResponseParseError{Raw: string(raw), Err: err}
	}
	statuses := resp.Response.Data.Statuses

	for _, st := range statuses {
		if st.Resting != nil {
			return &domain.OrderOutcome{
				Status:  domain.StatusResting,
				OrderID: st.Resting.Oid,
				Raw:     string(raw),
			}, nil
		}
		if st.Filled != nil {
			avg, _ := strconv.ParseFloat(st.Filled.AvgPx, 64)
			total, _ := strconv.ParseFloat(st.Filled.TotalSz, 64)
			return &domain.OrderOutcome{
				Status:    domain.StatusFilled,
				OrderID:   st.Filled.Oid,
				AvgPrice:  avg,
				TotalSize: total,
				Raw:       string(raw),
			}, nil
		}
	}
	if len(statuses) > 0 && statuses[0].Error != "" {
		return nil, domain.NewAPIError("order rejected: %s", statuses[0].Error)
	}
	return nil, &domain.ResponseParseError{
		Raw: string(raw),
		Err: fmt.Errorf("no resting or filled status found"),
	}
}

// LimitOrder places a limit order at a price quantized toward the aggressive
// side for the given time-in-force.
func (c *Client) LimitOrder(ctx context.Context, symbol string, side domain.Side, size, price float64, tif domain.TimeInForce, reduceOnly bool) (*domain.OrderOutcome, error) {
	idx, meta, _, err := c.data.assetIndex(ctx, symbol)
	if err != nil {
		return nil, err
	}
	normPrice, err := domain.QuantizePrice(price, meta.SzDecimals, side)
	if err != nil {
		return nil, err
	}
	normSize, err := domain.QuantizeSize(size, meta.SzDecimals)
	if err != nil {
		return nil, err
	}
	return c.placeOrder(ctx, idx, side, normSize, normPrice, tif, reduceOnly)
}

// MarketOrder places a market-like IOC order priced off the live impact price
// plus the premium, so it crosses the book even in volatile conditions.
func (c *Client) MarketOrder(ctx context.Context, symbol string, side domain.Side, size, premiumBps float64, reduceOnly bool) (*domain.OrderOutcome, error) {
	if premiumBps == 0 {
		premiumBps = c.defaultPremiumBps
	}
	idx, meta, assetCtx, err := c.data.assetIndex(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(assetCtx.ImpactPxs) < 2 {
		return nil, &domain.ResponseParseError{
			Raw: fmt.Sprintf("%v", assetCtx.ImpactPxs),
			Err: fmt.Errorf("impactPxs for %s needs buy and sell entries", symbol),
		}
	}
	impactBuy, err := parsePx(symbol, "impactPxs[0]", assetCtx.ImpactPxs[0])
	if err != nil {
		return nil, err
	}
	impactSell, err := parsePx(symbol, "impactPxs[1]", assetCtx.ImpactPxs[1])
	if err != nil {
		return nil, err
	}

	aggressive := domain.AggressivePrice(side, impactBuy, impactSell, premiumBps)
	normPrice, err := domain.QuantizePrice(aggressive, meta.SzDecimals, side)
	if err != nil {
		return nil, err
	}
	normSize, err := domain.QuantizeSize(size, meta.SzDecimals)
	if err != nil {
		return nil, err
	}
	return c.placeOrder(ctx, idx, side, normSize, normPrice, domain.TifIoc, reduceOnly)
}

// ClosePosition flattens exposure with a reduce-only IOC order on the
// opposite side. If the venue reports the order could not immediately match,
// it retries exactly once with the premium escalated.
func (c *Client) ClosePosition(ctx context.Context, symbol string, position domain.PositionState, size, premiumBps float64) (*domain.OrderOutcome, error) {
	if premiumBps == 0 {
		premiumBps = c.defaultPremiumBps
	}
	side, ok := position.Opposite().OrderSide()
	if !ok {
		return nil, domain.NewValidationError("cannot close a %s position", position)
	}

	premium := premiumBps
	for attempt := 0; ; attempt++ {
		out, err := c.MarketOrder(ctx, symbol, side, size, premium, true)
		if attempt == 0 && isIOCRejection(err) {
			escalated := premium * closeRetryFactor
			if escalated < closeRetryPremiumMin {
				escalated = closeRetryPremiumMin
			}
			c.logger.Info("IOC close failed to cross, retrying with escalated premium",
				zap.String("symbol", symbol),
				zap.Float64("premium_bps", premium),
				zap.Float64("retry_premium_bps", escalated),
			)
			c.sleep(closeRetryPause)
			premium = escalated
			continue
		}
		return out, err
	}
}

// CancelOrReverse cancels a resting order or flattens a filled one. Any other
// status is a contract violation by the caller.
func (c *Client) CancelOrReverse(ctx context.Context, symbol string, oid int64, status domain.OrderStatus, position domain.PositionState, filledSize float64) (*domain.OrderOutcome, error) {
	switch status {
	case domain.StatusResting:
		c.logger.Info("Cancelling resting order", zap.Int64("oid", oid), zap.String("symbol", symbol))
		idx, _, _, err := c.data.assetIndex(ctx, symbol)
		if err != nil {
			return nil, err
		}
		raw, err := c.submit(ctx, cancelAction{
			Type:    "cancel",
			Cancels: []cancelWire{{Asset: idx, Oid: oid}},
		})
		if err != nil {
			return nil, err
		}
		return &domain.OrderOutcome{Status: domain.StatusUnknown, OrderID: oid, Raw: string(raw)}, nil

	case domain.StatusFilled:
		c.logger.Info("Reversing filled position",
			zap.String("position", string(position)),
			zap.Float64("size", filledSize),
			zap.String("symbol", symbol),
		)
		return c.ClosePosition(ctx, symbol, position, filledSize, 0)

	default:
		return nil, fmt.Errorf("cannot handle order status %q", status)
	}
}

// UpdateLeverage sets cross leverage for the symbol. Callers treat failure as
// non-fatal: the venue enforces its own bound regardless.
func (c *Client) UpdateLeverage(ctx context.Context, symbol string, leverage int) error {
	idx, _, _, err := c.data.assetIndex(ctx, symbol)
	if err != nil {
		return err
	}
	_, err = c.submit(ctx, updateLeverageAction{
		Type:     "updateLeverage",
		Asset:    idx,
		IsCross:  true,
		Leverage: leverage,
	})
	return err
}

func (c *Client) placeOrder(ctx context.Context, asset int, side domain.Side, size, price float64, tif domain.TimeInForce, reduceOnly bool) (*domain.OrderOutcome, error) {
	action := orderAction{
		Type: "order",
		Orders: []orderWire{{
			Asset:      asset,
			IsBuy:      side == domain.SideBuy,
			Price:      formatWireFloat(price),
			Size:       formatWireFloat(size),
			ReduceOnly: reduceOnly,
			Type:       orderTypeWire{Limit: limitWire{Tif: string(tif)}},
		}},
		Grouping: "na",
	}
	raw, err := c.submit(ctx, action)
	if err != nil {
		return nil, err
	}
	return parseOrderOutcome(raw)
}

func isIOCRejection(err error) bool {
	return err != nil && domain.IsAPI(err) && strings.Contains(err.Error(), iocRejectReason)
}

// formatWireFloat renders a float the way the venue expects: shortest decimal
// form, no exponent, no trailing zeros.
func formatWireFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
