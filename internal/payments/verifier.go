// Package payments defines the external payment-verification collaborator
// consulted before an order is marked paid.
package payments

import (
	"context"
	"errors"
)

// ErrNotVerified indicates the gateway does not report the transaction as
// completed.
var ErrNotVerified = errors.New("payment not verified")

// ErrAmountMismatch indicates the captured amount differs from the order total.
var ErrAmountMismatch = errors.New("incorrect amount paid")

// ErrTransactionReused indicates the transaction id was already applied to
// another order.
var ErrTransactionReused = errors.New("transaction has been used before")

// Verification is the gateway's view of a captured transaction.
type Verification struct {
	TransactionID string
	Verified      bool
	Amount        float64
	PayerEmail    string
}

// Verifier checks a captured payment against the gateway before MarkPaid
// commits. Implementations must confirm the transaction is completed, the
// amount matches expectedAmount, and the transaction id is fresh.
type Verifier interface {
	Verify(ctx context.Context, transactionID string, expectedAmount float64) (Verification, error)
}
