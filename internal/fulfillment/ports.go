package fulfillment

import (
	"context"

	"github.com/hoopthreads/storefront/internal/catalog"
	"github.com/hoopthreads/storefront/internal/orders"
)

// Catalog is the slice of the catalog store the engine depends on.
type Catalog interface {
	Get(ctx context.Context, productID string) (*catalog.Product, error)
	BatchGet(ctx context.Context, productIDs []string) ([]catalog.Product, error)
	DecrementStock(ctx context.Context, productID string, qty int) error
	RestoreStock(ctx context.Context, productID string, qty int) error
	AppendReview(ctx context.Context, productID string, review catalog.Review, newRating float64, newNumReviews int) error
}

// OrderRepo is the slice of the orders store the engine depends on.
type OrderRepo interface {
	Create(ctx context.Context, order orders.Order) (*orders.Order, error)
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*orders.Order, error)
	MarkPaid(ctx context.Context, orderID string, result orders.PaymentResult) (*orders.Order, error)
	MarkDelivered(ctx context.Context, orderID string) (*orders.Order, error)
}
