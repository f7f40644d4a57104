package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypertd/hyperhook/internal/domain"
)

func TestValidatePremium(t *testing.T) {
	assert.NoError(t, domain.ValidatePremium(1))
	assert.NoError(t, domain.ValidatePremium(5))
	assert.NoError(t, domain.ValidatePremium(500))
	assert.Error(t, domain.ValidatePremium(0.5))
	assert.Error(t, domain.ValidatePremium(501))
	assert.True(t, domain.IsValidation(domain.ValidatePremium(0)))
}

func TestAggressivePrice_Bounds(t *testing.T) {
	const impactBuy, impactSell = 2500.0, 2498.0

	// A buy must never price below its impact reference, a sell never above,
	// for any premium in the allowed range.
	for bps := 1.0; bps <= 500.0; bps += 7.0 {
		buy := domain.AggressivePrice(domain.SideBuy, impactBuy, impactSell, bps)
		sell := domain.AggressivePrice(domain.SideSell, impactBuy, impactSell, bps)
		require.GreaterOrEqual(t, buy, impactBuy, "premium %v", bps)
		require.LessOrEqual(t, sell, impactSell, "premium %v", bps)
	}

	assert.InDelta(t, 2501.25, domain.AggressivePrice(domain.SideBuy, impactBuy, impactSell, 5), 1e-9)
	assert.InDelta(t, 2496.751, domain.AggressivePrice(domain.SideSell, impactBuy, impactSell, 5), 1e-9)
}

func TestQuantizePrice_RoundsTowardAggressiveSide(t *testing.T) {
	// Buys round up to the next tick.
	p, err := domain.QuantizePrice(1.23456, 3, domain.SideBuy)
	require.NoError(t, err)
	assert.InDelta(t, 1.235, p, 1e-12)

	// Sells round down.
	p, err = domain.QuantizePrice(1.23456, 3, domain.SideSell)
	require.NoError(t, err)
	assert.InDelta(t, 1.234, p, 1e-12)
}

func TestQuantizePrice_AlignedPriceIsNoOp(t *testing.T) {
	for _, price := range []float64{1.23, 0.001, 43250.5, 7.0} {
		for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
			got, err := domain.QuantizePrice(price, 3, side)
			require.NoError(t, err)
			assert.InDelta(t, price, got, 1e-12, "price %v side %s", price, side)
		}
	}
}

func TestQuantizePrice_RejectsNonPositive(t *testing.T) {
	_, err := domain.QuantizePrice(0, 3, domain.SideBuy)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = domain.QuantizePrice(-10, 2, domain.SideSell)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestQuantizeSize(t *testing.T) {
	s, err := domain.QuantizeSize(0.12345, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.123, s, 1e-12)

	// Rounding to zero is a validation failure, never a silent no-op.
	_, err = domain.QuantizeSize(0.0001, 3)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = domain.QuantizeSize(-1, 3)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
