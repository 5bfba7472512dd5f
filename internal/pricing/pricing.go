// Package pricing computes order totals from trusted line items. All money
// math runs in integer cents so that totalPrice always equals
// itemsPrice + shippingPrice + taxPrice exactly after rounding.
package pricing

import "math"

// Policy carries the pricing constants for a deployment.
type Policy struct {
	freeShippingThresholdCents int64
	shippingFlatFeeCents       int64
	taxRate                    float64
}

// NewPolicy builds a Policy from dollar-denominated configuration values.
func NewPolicy(freeShippingThreshold, shippingFlatFee, taxRate float64) Policy {
	return Policy{
		freeShippingThresholdCents: Cents(freeShippingThreshold),
		shippingFlatFeeCents:       Cents(shippingFlatFee),
		taxRate:                    taxRate,
	}
}

// Line is one trusted (unit price, quantity) pairing.
type Line struct {
	UnitPriceCents int64
	Qty            int
}

// Quote is the fully computed price breakdown for an order.
type Quote struct {
	ItemsPriceCents    int64
	ShippingPriceCents int64
	TaxPriceCents      int64
	TotalPriceCents    int64
}

// ItemsPrice returns the items subtotal in dollars.
func (q Quote) ItemsPrice() float64 { return Dollars(q.ItemsPriceCents) }

// ShippingPrice returns the shipping charge in dollars.
func (q Quote) ShippingPrice() float64 { return Dollars(q.ShippingPriceCents) }

// TaxPrice returns the tax in dollars.
func (q Quote) TaxPrice() float64 { return Dollars(q.TaxPriceCents) }

// TotalPrice returns the order total in dollars.
func (q Quote) TotalPrice() float64 { return Dollars(q.TotalPriceCents) }

// Quote prices the given lines: items subtotal, flat-fee shipping waived above
// the free-shipping threshold, tax at the configured rate rounded half-up to
// the cent, and the exact sum as total.
func (p Policy) Quote(lines []Line) Quote {
	var items int64
	for _, l := range lines {
		items += l.UnitPriceCents * int64(l.Qty)
	}

	shipping := p.shippingFlatFeeCents
	if items > p.freeShippingThresholdCents {
		shipping = 0
	}

	tax := roundHalfUp(float64(items) * p.taxRate)

	return Quote{
		ItemsPriceCents:    items,
		ShippingPriceCents: shipping,
		TaxPriceCents:      tax,
		TotalPriceCents:    items + shipping + tax,
	}
}

// Cents converts a dollar amount to integer cents, rounding half-up.
func Cents(dollars float64) int64 {
	return roundHalfUp(dollars * 100)
}

// Dollars converts integer cents back to a dollar amount.
func Dollars(cents int64) float64 {
	return float64(cents) / 100
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
