package validation

// CartItem is a single client-supplied order line. Price is what the client
// claims it pays per unit; it is bound for logging/diffing only and the
// engine never uses it.
type CartItem struct {
	ProductID string  `json:"product_id" validate:"required"`
	Qty       int     `json:"qty" validate:"required,min=1"`
	Price     float64 `json:"price" validate:"omitempty,gte=0"`
}

// ShippingAddress is the delivery destination for an order.
type ShippingAddress struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	Items           []CartItem      `json:"order_items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   string          `json:"payment_method" validate:"required"`
}

// PayOrderRequest is the payload for PUT /orders/:id/pay, mirroring the
// gateway capture callback.
type PayOrderRequest struct {
	TransactionID string `json:"id" validate:"required"`
	Status        string `json:"status" validate:"required"`
	UpdateTime    string `json:"update_time"`
	PayerEmail    string `json:"payer_email"`
}

// CreateReviewRequest is the payload for POST /products/:id/reviews.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// UpsertProductRequest is the admin payload for creating or updating a product.
type UpsertProductRequest struct {
	Name         string  `json:"name" validate:"required"`
	Team         string  `json:"team" validate:"required"`
	Player       string  `json:"player" validate:"required"`
	JerseyNumber string  `json:"jersey_number"`
	Image        string  `json:"image"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" validate:"gte=0"`
	Stock        int     `json:"stock" validate:"gte=0"`
	IsFeatured   bool    `json:"is_featured"`
}
