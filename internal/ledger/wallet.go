package ledger

import (
	"context"
	"sync"
)

// Wallet is the session's view of the player balance in minor units.
// Apply rejects a delta that would take the balance below zero.
type Wallet interface {
	Balance(ctx context.Context) (int64, error)
	Apply(ctx context.Context, delta int64, reason string) (int64, error)
}

type Entry struct {
	Delta   int64  `json:"delta"`
	Reason  string `json:"reason"`
	Balance int64  `json:"balance_after"`
}

type MemoryWallet struct {
	mu      sync.Mutex
	balance int64
	entries []Entry
}

func NewMemoryWallet(balance int64) *MemoryWallet {
	return &MemoryWallet{balance: balance}
}

func (w *MemoryWallet) Balance(context.Context) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance, nil
}

func (w *MemoryWallet) Apply(_ context.Context, delta int64, reason string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next := w.balance + delta
	if next < 0 {
		return w.balance, ErrInsufficientBalance
	}
	w.balance = next
	w.entries = append(w.entries, Entry{Delta: delta, Reason: reason, Balance: next})
	return next, nil
}

// Entries returns every applied delta in order.
func (w *MemoryWallet) Entries() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out
}
