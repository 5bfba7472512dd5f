package orders

import "time"

// Fulfillment statuses
const (
	FulfillmentPending    = "PENDING"
	FulfillmentProcessing = "PROCESSING"
	FulfillmentCompleted  = "COMPLETED"
	FulfillmentFailed     = "FAILED"
)

// LineItem is one trusted order line. Price is the catalog price at order
// time; it is never taken from the client and never changes afterwards.
type LineItem struct {
	ProductID string  `dynamodbav:"product_id" json:"product_id"`
	Name      string  `dynamodbav:"name" json:"name"`
	Image     string  `dynamodbav:"image,omitempty" json:"image,omitempty"`
	Qty       int     `dynamodbav:"qty" json:"qty"`
	Price     float64 `dynamodbav:"price" json:"price"`
}

// ShippingAddress is the destination captured at order time.
type ShippingAddress struct {
	Address    string `dynamodbav:"address" json:"address"`
	City       string `dynamodbav:"city" json:"city"`
	PostalCode string `dynamodbav:"postal_code" json:"postal_code"`
	Country    string `dynamodbav:"country" json:"country"`
}

// PaymentResult is the snapshot recorded when an order is marked paid.
type PaymentResult struct {
	TransactionID string `dynamodbav:"transaction_id" json:"transaction_id"`
	Status        string `dynamodbav:"status" json:"status"`
	UpdateTime    string `dynamodbav:"update_time,omitempty" json:"update_time,omitempty"`
	PayerEmail    string `dynamodbav:"payer_email,omitempty" json:"payer_email,omitempty"`
}

// Order represents the item stored in the orders DynamoDB table. Created once
// at submission time; later mutations only flip payment/delivery flags and
// the fulfillment status. Line items and prices are immutable.
type Order struct {
	OrderID         string          `dynamodbav:"order_id" json:"order_id"` // PK
	UserID          string          `dynamodbav:"user_id" json:"user_id"`
	UserName        string          `dynamodbav:"user_name,omitempty" json:"user_name,omitempty"`
	Items           []LineItem      `dynamodbav:"items" json:"items"`
	ShippingAddress ShippingAddress `dynamodbav:"shipping_address" json:"shipping_address"`
	PaymentMethod   string          `dynamodbav:"payment_method" json:"payment_method"`

	ItemsPrice    float64 `dynamodbav:"items_price" json:"items_price"`
	TaxPrice      float64 `dynamodbav:"tax_price" json:"tax_price"`
	ShippingPrice float64 `dynamodbav:"shipping_price" json:"shipping_price"`
	TotalPrice    float64 `dynamodbav:"total_price" json:"total_price"`

	IsPaid        bool           `dynamodbav:"is_paid" json:"is_paid"`
	PaidAt        *time.Time     `dynamodbav:"paid_at,omitempty" json:"paid_at,omitempty"`
	PaymentResult *PaymentResult `dynamodbav:"payment_result,omitempty" json:"payment_result,omitempty"`

	IsDelivered bool       `dynamodbav:"is_delivered" json:"is_delivered"`
	DeliveredAt *time.Time `dynamodbav:"delivered_at,omitempty" json:"delivered_at,omitempty"`

	Fulfillment string `dynamodbav:"fulfillment" json:"fulfillment"` // PENDING | PROCESSING | COMPLETED | FAILED

	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
	Attempts  int       `dynamodbav:"attempts,omitempty" json:"attempts,omitempty"`
}
