package pricing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicy() Policy {
	return NewPolicy(100, 10, 0.15)
}

func TestQuote_TotalIsExactSum_RandomCarts(t *testing.T) {
	p := defaultPolicy()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		n := 1 + rng.Intn(5)
		lines := make([]Line, 0, n)
		for j := 0; j < n; j++ {
			lines = append(lines, Line{
				UnitPriceCents: int64(1 + rng.Intn(50000)), // up to $500.00
				Qty:            1 + rng.Intn(10),
			})
		}

		q := p.Quote(lines)
		assert.Equal(t, q.ItemsPriceCents+q.ShippingPriceCents+q.TaxPriceCents, q.TotalPriceCents,
			"total must equal items+shipping+tax, cart=%v", lines)
		assert.GreaterOrEqual(t, q.TaxPriceCents, int64(0))
	}
}

func TestQuote_ForgedPriceScenario(t *testing.T) {
	// $89.99 x 2 => items 179.98, free shipping (over 100), tax 15% = 27.00 (179.98*0.15=26.997 -> 27.00)
	p := defaultPolicy()
	q := p.Quote([]Line{{UnitPriceCents: 8999, Qty: 2}})

	require.Equal(t, 179.98, q.ItemsPrice())
	require.Equal(t, 0.0, q.ShippingPrice())
	require.Equal(t, 27.00, q.TaxPrice())
	require.Equal(t, 206.98, q.TotalPrice())
}

func TestQuote_FlatShippingBelowThreshold(t *testing.T) {
	p := defaultPolicy()
	q := p.Quote([]Line{{UnitPriceCents: 2500, Qty: 2}}) // $50.00

	assert.Equal(t, int64(5000), q.ItemsPriceCents)
	assert.Equal(t, int64(1000), q.ShippingPriceCents)
	assert.Equal(t, int64(750), q.TaxPriceCents)
	assert.Equal(t, int64(6750), q.TotalPriceCents)
}

func TestQuote_ThresholdIsExclusive(t *testing.T) {
	// exactly at the threshold still pays shipping
	p := defaultPolicy()
	q := p.Quote([]Line{{UnitPriceCents: 10000, Qty: 1}})
	assert.Equal(t, int64(1000), q.ShippingPriceCents)

	q = p.Quote([]Line{{UnitPriceCents: 10001, Qty: 1}})
	assert.Equal(t, int64(0), q.ShippingPriceCents)
}

func TestQuote_TaxRoundsHalfUp(t *testing.T) {
	p := NewPolicy(1000, 10, 0.15)
	// $0.10 * 0.15 = 1.5 cents -> rounds up to 2
	q := p.Quote([]Line{{UnitPriceCents: 10, Qty: 1}})
	assert.Equal(t, int64(2), q.TaxPriceCents)
}

func TestCents_RoundTrips(t *testing.T) {
	assert.Equal(t, int64(8999), Cents(89.99))
	assert.Equal(t, int64(100), Cents(0.999))
	assert.Equal(t, 89.99, Dollars(8999))
}
