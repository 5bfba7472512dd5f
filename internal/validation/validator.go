package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// reject carts whose lines are individually valid but collectively
	// request a non-positive number of units (belt and braces; dive/min=1
	// already covers single lines)
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	total := 0
	for _, it := range req.Items {
		total += it.Qty
	}
	if total < 1 {
		sl.ReportError(req.Items, "order_items", "Items", "cart_not_empty", "")
	}
}
