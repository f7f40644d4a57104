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

// DataClient is a REST-first market data client for the Hyperliquid /info
// endpoint. It never caches: every call hits the venue so leverage caps, tick
// sizes and impact prices are as fresh as the order that follows them.
type DataClient struct {
	infoURL        string
	accountAddress string
	client         *http.Client
	logger         *zap.Logger
}

func NewDataClient(baseURL, accountAddress string, logger *zap.Logger) *DataClient {
	return &DataClient{
		infoURL:        strings.TrimRight(baseURL, "/") + "/info",
		accountAddress: accountAddress,
		client:         &http.Client{Timeout: 10 * time.Second},
		logger:         logger,
	}
}

func (d *DataClient) post(ctx context.Context, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal info request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.infoURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: "post /info", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Op: "read /info response", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, domain.NewAPIError("info status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// metaAndCtxs fetches the asset universe and the matching per-asset contexts.
// The two arrays are index-aligned.
func (d *DataClient) metaAndCtxs(ctx context.Context) ([]assetMetaWire, []assetCtxWire, error) {
	raw, err := d.post(ctx, infoRequest{Type: "metaAndAssetCtxs"})
	if err != nil {
		return nil, nil, err
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) < 2 {
		return nil, nil, &domain.ResponseParseError{Raw: string(raw), Err: fmt.Errorf("metaAndAssetCtxs shape: %v", err)}
	}
	var meta struct {
		Universe []assetMetaWire `json:"universe"`
	}
	if err := json.Unmarshal(parts[0], &meta); err != nil {
		return nil, nil, &domain.ResponseParseError{Raw: string(raw), Err: fmt.Errorf("universe: %w", err)}
	}
	var ctxs []assetCtxWire
	if err := json.Unmarshal(parts[1], &ctxs); err != nil {
		return nil, nil, &domain.ResponseParseError{Raw: string(raw), Err: fmt.Errorf("asset ctxs: %w", err)}
	}
	return meta.Universe, ctxs, nil
}

// assetIndex resolves a symbol to its index in the universe, which doubles as
// the asset id on order actions.
func (d *DataClient) assetIndex(ctx context.Context, symbol string) (int, *assetMetaWire, *assetCtxWire, error) {
	universe, ctxs, err := d.metaAndCtxs(ctx)
	if err != nil {
		return 0, nil, nil, err
	}
	for i := range universe {
		if universe[i].Name == symbol {
			if i >= len(ctxs) {
				return 0, nil, nil, domain.NewAPIError("no asset context for %s", symbol)
			}
			return i, &universe[i], &ctxs[i], nil
		}
	}
	return 0, nil, nil, domain.NewValidationError("symbol %q not found in universe", symbol)
}

// Context returns the live market snapshot used for sizing and pricing.
func (d *DataClient) Context(ctx context.Context, symbol string) (*domain.MarketContext, error) {
	_, meta, assetCtx, err := d.assetIndex(ctx, symbol)
	if err != nil {
		return nil, err
	}

	mc := &domain.MarketContext{
		Symbol:      symbol,
		MaxLeverage: meta.MaxLeverage,
		SzDecimals:  meta.SzDecimals,
	}
	if mc.MidPrice, err = parsePx(symbol, "midPx", assetCtx.MidPx); err != nil {
		return nil, err
	}
	if mc.MarkPrice, err = parsePx(symbol, "markPx", assetCtx.MarkPx); err != nil {
		return nil, err
	}
	if mc.OraclePrice, err = parsePx(symbol, "oraclePx", assetCtx.OraclePx); err != nil {
		return nil, err
	}
	mc.Funding, _ = strconv.ParseFloat(assetCtx.Funding, 64)

	if len(assetCtx.ImpactPxs) < 2 {
		return nil, &domain.ResponseParseError{
			Raw: fmt.Sprintf("%v", assetCtx.ImpactPxs),
			Err: fmt.Errorf("impactPxs for %s needs buy and sell entries", symbol),
		}
	}
	if mc.ImpactBuyPrice, err = parsePx(symbol, "impactPxs[0]", assetCtx.ImpactPxs[0]); err != nil {
		return nil, err
	}
	if mc.ImpactSellPrice, err = parsePx(symbol, "impactPxs[1]", assetCtx.ImpactPxs[1]); err != nil {
		return nil, err
	}

	if d.accountAddress != "" {
		balance, err := d.AvailableBalance(ctx, d.accountAddress)
		if err != nil {
			// Balance is informational for the audit trail; do not block the
			// order on it.
			d.logger.Warn("Failed to fetch available balance", zap.Error(err))
		} else {
			mc.AvailableBalance = balance
		}
	}
	return mc, nil
}

// AllMids returns mid prices for every non-index symbol.
func (d *DataClient) AllMids(ctx context.Context) (map[string]float64, error) {
	raw, err := d.post(ctx, infoRequest{Type: "allMids"})
	if err != nil {
		return nil, err
	}
	var wire map[string]string
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &domain.ResponseParseError{Raw: string(raw), Err: err}
	}
	mids := make(map[string]float64, len(wire))
	for symbol, px := range wire {
		if strings.HasPrefix(symbol, "@") {
			continue
		}
		if v, err := strconv.ParseFloat(px, 64); err == nil {
			mids[symbol] = v
		}
	}
	return mids, nil
}

// AvailableBalance returns the withdrawable balance for an address, falling
// back to the configured account address.
func (d *DataClient) AvailableBalance(ctx context.Context, address string) (float64, error) {
	addr := address
	if addr == "" {
		addr = d.accountAddress
	}
	if addr == "" {
		return 0, domain.NewValidationError("account address required for balance lookup")
	}

	raw, err := d.post(ctx, infoRequest{Type: "clearinghouseState", User: addr})
	if err != nil {
		return 0, err
	}
	var state clearinghouseStateWire
	if err := json.Unmarshal(raw, &state); err != nil {
		return 0, &domain.ResponseParseError{Raw: string(raw), Err: err}
	}
	if state.Withdrawable == "" {
		return 0, &domain.ResponseParseError{
			Raw: string(raw),
			Err: fmt.Errorf("missing withdrawable field for %s", addr),
		}
	}
	v, err := strconv.ParseFloat(state.Withdrawable, 64)
	if err != nil {
		return 0, &domain.ResponseParseError{Raw: string(raw), Err: err}
	}
	return v, nil
}

func parsePx(symbol, field, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v <= 0 {
		return 0, &domain.ResponseParseError{
			Raw: value,
			Err: fmt.Errorf("%s %s: %v", symbol, field, err),
		}
	}
	return v, nil
}
