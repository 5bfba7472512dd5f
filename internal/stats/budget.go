// Package stats proxies the third-party sports-statistics API behind a
// call budget and a DynamoDB response cache. The upstream plan allows a fixed
// number of calls per calendar month, so every request passes through the
// Budget first.
package stats

import (
	"errors"
	"sync"
	"time"
)

// ErrBudgetExhausted indicates the monthly call allowance is used up.
var ErrBudgetExhausted = errors.New("stats api call budget exhausted")

// Budget is a monthly call allowance. It rolls over automatically when the
// calendar month changes and can be reset explicitly.
type Budget struct {
	mu      sync.Mutex
	limit   int
	used    int
	year    int
	month   time.Month
	nowFunc func() time.Time
}

// NewBudget returns a Budget allowing limit calls per calendar month.
func NewBudget(limit int) *Budget {
	b := &Budget{limit: limit, nowFunc: time.Now}
	now := b.nowFunc()
	b.year, b.month = now.Year(), now.Month()
	return b
}

// Allow consumes one call from the budget. Returns ErrBudgetExhausted when
// nothing is left this month.
func (b *Budget) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	if b.used >= b.limit {
		return ErrBudgetExhausted
	}
	b.used++
	return nil
}

// Remaining reports the calls left this month.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.limit - b.used
}

// Reset clears the usage counter for the current month.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.nowFunc()
	b.year, b.month = now.Year(), now.Month()
	b.used = 0
}

// rollover zeroes usage when the calendar month has changed. Callers hold mu.
func (b *Budget) rollover() {
	now := b.nowFunc()
	if now.Year() != b.year || now.Month() != b.month {
		b.year, b.month = now.Year(), now.Month()
		b.used = 0
	}
}
