package scan

import (
	"errors"
	"sync"
)

// ErrBudgetExhausted stops a batch early; remaining tickers are deferred
// to the next firing, never retried in-pass.
var ErrBudgetExhausted = errors.New("call budget exhausted")

// CallBudget is a hard cap on external collaborator calls for one scan
// invocation. One unit is one evidence gather for one ticker.
type CallBudget struct {
	mu    sync.Mutex
	total int
	used  int
}

// NewCallBudget creates a budget of n units.
func NewCallBudget(n int) *CallBudget {
	return &CallBudget{total: n}
}

// Spend consumes one unit. Returns ErrBudgetExhausted when nothing is
// left; the unit is not consumed in that case.
func (b *CallBudget) Spend() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used >= b.total {
		return ErrBudgetExhausted
	}
	b.used++
	return nil
}

// Used returns the number of units consumed.
func (b *CallBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns the number of units left.
func (b *CallBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total - b.used
}
