package fulfillment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hoopthreads/storefront/internal/catalog"
	"github.com/hoopthreads/storefront/internal/orders"
	"github.com/hoopthreads/storefront/internal/payments"
)

// fakeCatalog is an in-memory Catalog with the same conditional-decrement
// semantics as the DynamoDB store: check and subtract under one lock.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]catalog.Product

	failDecrement map[string]error // per-product forced decrement failure
	restoreCalls  int
}

func newFakeCatalog(products ...catalog.Product) *fakeCatalog {
	m := map[string]catalog.Product{}
	for _, p := range products {
		m[p.ProductID] = p
	}
	return &fakeCatalog{products: m, failDecrement: map[string]error{}}
}

func (f *fakeCatalog) Get(ctx context.Context, id string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (f *fakeCatalog) BatchGet(ctx context.Context, ids []string) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []catalog.Product
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) DecrementStock(ctx context.Context, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failDecrement[id]; ok {
		return err
	}
	p, ok := f.products[id]
	if !ok || p.Stock < qty {
		return catalog.ErrInsufficientStock
	}
	p.Stock -= qty
	f.products[id] = p
	return nil
}

func (f *fakeCatalog) RestoreStock(ctx context.Context, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restoreCalls++
	p, ok := f.products[id]
	if !ok {
		return errors.New("product not found")
	}
	p.Stock += qty
	f.products[id] = p
	return nil
}

func (f *fakeCatalog) AppendReview(ctx context.Context, id string, review catalog.Review, newRating float64, newNumReviews int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return errors.New("product not found")
	}
	for _, uid := range p.ReviewerIDs {
		if uid == review.UserID {
			return catalog.ErrDuplicateReview
		}
	}
	p.Reviews = append(p.Reviews, review)
	p.ReviewerIDs = append(p.ReviewerIDs, review.UserID)
	p.Rating = newRating
	p.NumReviews = newNumReviews
	f.products[id] = p
	return nil
}

func (f *fakeCatalog) stock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

// fakeOrderRepo is an in-memory OrderRepo mirroring the conditional flag
// updates of the DynamoDB store.
type fakeOrderRepo struct {
	mu         sync.Mutex
	orders     map[string]orders.Order
	failCreate error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]orders.Order{}}
}

func (f *fakeOrderRepo) Create(ctx context.Context, o orders.Order) (*orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	if _, exists := f.orders[o.OrderID]; exists {
		return nil, errors.New("order id collision")
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	f.orders[o.OrderID] = o
	cp := o
	return &cp, nil
}

func (f *fakeOrderRepo) Get(ctx context.Context, id string) (*orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := o
	return &cp, nil
}

func (f *fakeOrderRepo) FindByTransactionID(ctx context.Context, txnID string) (*orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentResult != nil && o.PaymentResult.TransactionID == txnID {
			cp := o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, id string, result orders.PaymentResult) (*orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	if o.IsPaid {
		return nil, orders.ErrAlreadyPaid
	}
	now := time.Now()
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &result
	o.UpdatedAt = now
	f.orders[id] = o
	cp := o
	return &cp, nil
}

func (f *fakeOrderRepo) MarkDelivered(ctx context.Context, id string) (*orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	if o.IsDelivered {
		return nil, orders.ErrAlreadyDelivered
	}
	now := time.Now()
	o.IsDelivered = true
	o.DeliveredAt = &now
	o.UpdatedAt = now
	f.orders[id] = o
	cp := o
	return &cp, nil
}

func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// fakeVerifier approves or rejects every transaction.
type fakeVerifier struct {
	err        error
	payerEmail string
}

func (f *fakeVerifier) Verify(ctx context.Context, txnID string, expected float64) (payments.Verification, error) {
	if f.err != nil {
		return payments.Verification{}, f.err
	}
	return payments.Verification{
		TransactionID: txnID,
		Verified:      true,
		Amount:        expected,
		PayerEmail:    f.payerEmail,
	}, nil
}
