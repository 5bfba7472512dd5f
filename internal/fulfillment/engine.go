// Package fulfillment holds the order pricing and fulfillment engine: it
// converts an untrusted cart into a priced, stock-consistent, persisted order.
package fulfillment

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hoopthreads/storefront/internal/apperr"
	"github.com/hoopthreads/storefront/internal/catalog"
	"github.com/hoopthreads/storefront/internal/orders"
	"github.com/hoopthreads/storefront/internal/payments"
	"github.com/hoopthreads/storefront/internal/pricing"
)

// CartLine is one client-supplied cart entry. Price is whatever the client
// claims and is never used for pricing.
type CartLine struct {
	ProductID string
	Qty       int
	Price     float64
}

// User identifies the requesting customer.
type User struct {
	ID   string
	Name string
}

// PaymentInfo is the gateway callback payload passed to MarkPaid.
type PaymentInfo struct {
	TransactionID string
	Status        string
	UpdateTime    string
	PayerEmail    string
}

// Engine implements order placement, payment/delivery transitions and reviews
// on top of the catalog and order stores.
type Engine struct {
	catalog  Catalog
	orders   OrderRepo
	verifier payments.Verifier
	policy   pricing.Policy
	log      *logrus.Logger
	nowFunc  func() time.Time
}

// NewEngine wires an Engine. verifier may be nil only in deployments where
// payment verification happens upstream.
func NewEngine(cat Catalog, repo OrderRepo, verifier payments.Verifier, policy pricing.Policy, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		catalog:  cat,
		orders:   repo,
		verifier: verifier,
		policy:   policy,
		log:      log,
		nowFunc:  time.Now,
	}
}

// PlaceOrder re-derives authoritative prices from the catalog, atomically
// decrements stock for every line, computes the totals and persists the order.
//
// Stock is committed per product through conditional decrements; if any
// decrement or the order write fails, every prior decrement is restored, so
// a failed submission never leaves stock partially consumed.
func (e *Engine) PlaceOrder(ctx context.Context, cart []CartLine, addr orders.ShippingAddress, paymentMethod string, user User) (*orders.Order, error) {
	if len(cart) == 0 {
		return nil, apperr.NewValidation("no order items")
	}
	for _, line := range cart {
		if line.ProductID == "" {
			return nil, apperr.NewValidation("order item missing product id")
		}
		if line.Qty < 1 {
			return nil, apperr.NewValidation("order item quantity must be at least 1")
		}
	}

	// One batch read for the distinct product set.
	ids := make([]string, 0, len(cart))
	for _, line := range cart {
		ids = append(ids, line.ProductID)
	}
	found, err := e.catalog.BatchGet(ctx, ids)
	if err != nil {
		return nil, apperr.NewPersistence("load products", err)
	}
	byID := make(map[string]catalog.Product, len(found))
	for _, p := range found {
		byID[p.ProductID] = p
	}

	// Total requested units per product; a cart may repeat a product id.
	requested := map[string]int{}
	for _, line := range cart {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, &apperr.NotFoundError{Kind: "product", ID: line.ProductID}
		}
		requested[p.ProductID] += line.Qty
	}

	// Validate stock for ALL products before committing anything.
	for id, qty := range requested {
		p := byID[id]
		if p.Stock < qty {
			return nil, &apperr.InsufficientStockError{
				ProductName: p.Name,
				Available:   p.Stock,
				Requested:   qty,
			}
		}
	}

	// Commit decrements in a stable order. Each decrement is conditional on
	// remaining stock, so a concurrent order racing past the validation above
	// fails here instead of overselling.
	committed := make([]string, 0, len(requested))
	sorted := make([]string, 0, len(requested))
	for id := range requested {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	for _, id := range sorted {
		qty := requested[id]
		if err := e.catalog.DecrementStock(ctx, id, qty); err != nil {
			e.rollback(ctx, committed, requested)
			if errors.Is(err, catalog.ErrInsufficientStock) {
				p := byID[id]
				available := p.Stock
				if fresh, gerr := e.catalog.Get(ctx, id); gerr == nil && fresh != nil {
					available = fresh.Stock
				}
				return nil, &apperr.InsufficientStockError{
					ProductName: p.Name,
					Available:   available,
					Requested:   qty,
				}
			}
			return nil, apperr.NewPersistence("decrement stock", err)
		}
		committed = append(committed, id)
	}

	// Trusted line items: price comes from the catalog snapshot, never the cart.
	items := make([]orders.LineItem, 0, len(cart))
	lines := make([]pricing.Line, 0, len(cart))
	for _, line := range cart {
		p := byID[line.ProductID]
		items = append(items, orders.LineItem{
			ProductID: p.ProductID,
			Name:      p.Name,
			Image:     p.Image,
			Qty:       line.Qty,
			Price:     p.Price,
		})
		lines = append(lines, pricing.Line{
			UnitPriceCents: pricing.Cents(p.Price),
			Qty:            line.Qty,
		})
	}

	quote := e.policy.Quote(lines)

	order := orders.Order{
		OrderID:         uuid.NewString(),
		UserID:          user.ID,
		UserName:        user.Name,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		ItemsPrice:      quote.ItemsPrice(),
		TaxPrice:        quote.TaxPrice(),
		ShippingPrice:   quote.ShippingPrice(),
		TotalPrice:      quote.TotalPrice(),
		Fulfillment:     orders.FulfillmentPending,
	}

	created, err := e.orders.Create(ctx, order)
	if err != nil {
		e.rollback(ctx, committed, requested)
		return nil, apperr.NewPersistence("create order", err)
	}
	return created, nil
}

// rollback restores the decrements already committed in this request. A failed
// restore is logged for reconciliation; there is nothing else to do mid-request.
func (e *Engine) rollback(ctx context.Context, committed []string, requested map[string]int) {
	for _, id := range committed {
		if err := e.catalog.RestoreStock(ctx, id, requested[id]); err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"product_id": id,
				"qty":        requested[id],
			}).Error("failed to restore stock after aborted order")
		}
	}
}

// MarkPaid verifies the captured payment with the gateway and flips the
// order's paid flag. Repeated calls are no-ops: the stored order is returned
// unchanged and paid_at never regresses.
func (e *Engine) MarkPaid(ctx context.Context, orderID string, payment PaymentInfo) (*orders.Order, error) {
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, apperr.NewPersistence("load order", err)
	}
	if order == nil {
		return nil, &apperr.NotFoundError{Kind: "order", ID: orderID}
	}
	if order.IsPaid {
		return order, nil
	}

	// one capture pays for one order; a transaction id already recorded on a
	// different order cannot be replayed here
	if payment.TransactionID != "" {
		used, err := e.orders.FindByTransactionID(ctx, payment.TransactionID)
		if err != nil {
			return nil, apperr.NewPersistence("check transaction reuse", err)
		}
		if used != nil && used.OrderID != orderID {
			return nil, payments.ErrTransactionReused
		}
	}

	result := orders.PaymentResult{
		TransactionID: payment.TransactionID,
		Status:        payment.Status,
		UpdateTime:    payment.UpdateTime,
		PayerEmail:    payment.PayerEmail,
	}

	if e.verifier != nil {
		v, err := e.verifier.Verify(ctx, payment.TransactionID, order.TotalPrice)
		if err != nil {
			return nil, err
		}
		if v.PayerEmail != "" {
			result.PayerEmail = v.PayerEmail
		}
	}

	updated, err := e.orders.MarkPaid(ctx, orderID, result)
	if err != nil {
		if errors.Is(err, orders.ErrAlreadyPaid) {
			// lost the race to another callback; fetch the committed state
			current, gerr := e.orders.Get(ctx, orderID)
			if gerr != nil || current == nil {
				return nil, apperr.NewPersistence("load order after paid race", gerr)
			}
			return current, nil
		}
		return nil, apperr.NewPersistence("mark paid", err)
	}
	return updated, nil
}

// MarkDelivered flips the delivered flag. Same idempotent policy as MarkPaid.
func (e *Engine) MarkDelivered(ctx context.Context, orderID string) (*orders.Order, error) {
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, apperr.NewPersistence("load order", err)
	}
	if order == nil {
		return nil, &apperr.NotFoundError{Kind: "order", ID: orderID}
	}
	if order.IsDelivered {
		return order, nil
	}

	updated, err := e.orders.MarkDelivered(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrAlreadyDelivered) {
			current, gerr := e.orders.Get(ctx, orderID)
			if gerr != nil || current == nil {
				return nil, apperr.NewPersistence("load order after delivered race", gerr)
			}
			return current, nil
		}
		return nil, apperr.NewPersistence("mark delivered", err)
	}
	return updated, nil
}

// AddReview appends a review for the product and recomputes the aggregate
// rating as the arithmetic mean. A second review by the same user fails with
// DuplicateReviewError and leaves rating and num_reviews unchanged.
func (e *Engine) AddReview(ctx context.Context, productID string, rating int, comment string, user User) error {
	if rating < 1 || rating > 5 {
		return apperr.NewValidation("rating must be between 1 and 5")
	}
	if comment == "" {
		return apperr.NewValidation("comment is required")
	}

	p, err := e.catalog.Get(ctx, productID)
	if err != nil {
		return apperr.NewPersistence("load product", err)
	}
	if p == nil {
		return &apperr.NotFoundError{Kind: "product", ID: productID}
	}
	for _, id := range p.ReviewerIDs {
		if id == user.ID {
			return &apperr.DuplicateReviewError{ProductID: productID, UserID: user.ID}
		}
	}

	sum := rating
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	count := len(p.Reviews) + 1
	mean := float64(sum) / float64(count)

	review := catalog.Review{
		ReviewID:  uuid.NewString(),
		UserID:    user.ID,
		UserName:  user.Name,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: e.nowFunc(),
	}

	if err := e.catalog.AppendReview(ctx, productID, review, mean, count); err != nil {
		if errors.Is(err, catalog.ErrDuplicateReview) {
			return &apperr.DuplicateReviewError{ProductID: productID, UserID: user.ID}
		}
		return apperr.NewPersistence("append review", err)
	}
	return nil
}
