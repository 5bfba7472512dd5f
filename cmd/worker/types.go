package main

// fulfillmentMessage is the payload consumed from the orders queue. It matches
// awsx.OrderPlacedEvent on the wire.
type fulfillmentMessage struct {
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}
