package domain

import "math"

// Premium bounds in basis points for market-like IOC orders.
const (
	MinPremiumBps = 1.0
	MaxPremiumBps = 500.0
)

// floatSlack absorbs binary float noise when scaling a price by a power of
// ten, so that an already tick-aligned price quantizes to itself.
const floatSlack = 1e-9

// ValidatePremium checks an operator-supplied premium against the allowed
// range.
func ValidatePremium(bps float64) error {
	if bps < MinPremiumBps || bps > MaxPremiumBps {
		return NewValidationError("premium %.2f bps outside [%.0f, %.0f]", bps, MinPremiumBps, MaxPremiumBps)
	}
	return nil
}

// AggressivePrice computes an IOC-crossing price from the side-appropriate
// impact price plus a premium. The result is intentionally worse than mid so
// the order fills immediately even in volatile conditions: buys pay above the
// buy impact price, sells undercut the sell impact price.
func AggressivePrice(side Side, impactBuy, impactSell, premiumBps float64) float64 {
	factor := premiumBps / 10_000.0
	if side == SideBuy {
		return impactBuy * (1.0 + factor)
	}
	return impactSell * (1.0 - factor)
}

// QuantizePrice rounds price to the symbol tick (10^-szDecimals) toward the
// aggressive side: ceiling for buys, floor for sells. Rounding must never make
// the order less aggressive than the computed price. A non-positive price is a
// validation error, caught before any exchange call.
func QuantizePrice(price float64, szDecimals int, side Side) (float64, error) {
	if price <= 0 {
		return 0, NewValidationError("invalid price: %v", price)
	}
	scale := math.Pow(10, float64(szDecimals))
	scaled := price * scale
	var ticks float64
	if side == SideBuy {
		ticks = math.Ceil(scaled - floatSlack)
	} else {
		ticks = math.Floor(scaled + floatSlack)
	}
	return ticks / scale, nil
}

// QuantizeSize rounds a size to the symbol's size decimals. A size that
// rounds to zero or below is a validation failure, not a silent no-op.
func QuantizeSize(size float64, szDecimals int) (float64, error) {
	scale := math.Pow(10, float64(szDecimals))
	rounded := math.Round(size*scale) / scale
	if rounded <= 0 {
		return 0, NewValidationError("size %v rounds to zero at %d decimals", size, szDecimals)
	}
	return rounded, nil
}
