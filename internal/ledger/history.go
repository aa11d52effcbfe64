package ledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fair-casino/internal/outcome"
)

// BetRecord is written once, after authoritative settlement.
type BetRecord struct {
	ID         string          `json:"id"`
	PlayerID   string          `json:"player_id"`
	Game       outcome.Game    `json:"game"`
	Stake      int64           `json:"stake"`
	Payout     int64           `json:"payout"`
	Multiplier float64         `json:"multiplier"`
	Result     outcome.Kind    `json:"result"`
	RawOutcome json.RawMessage `json:"outcome"`
	SeedPairID string          `json:"seed_pair_id"`
	ClientSeed string          `json:"client_seed"`
	Nonce      int64           `json:"nonce"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Profit is payout minus stake.
func (r BetRecord) Profit() int64 { return r.Payout - r.Stake }

type History interface {
	AppendBet(ctx context.Context, rec BetRecord) error
}

// MemoryHistory keeps the most recent records of a session.
type MemoryHistory struct {
	mu      sync.Mutex
	max     int
	records []BetRecord
}

func NewMemoryHistory(max int) *MemoryHistory {
	if max <= 0 {
		max = 500
	}
	return &MemoryHistory{max: max}
}

func (h *MemoryHistory) AppendBet(_ context.Context, rec BetRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	if len(h.records) > h.max {
		h.records = h.records[len(h.records)-h.max:]
	}
	return nil
}

// Recent returns up to n records, newest first.
func (h *MemoryHistory) Recent(n int) []BetRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.records) {
		n = len(h.records)
	}
	out := make([]BetRecord, 0, n)
	for i := len(h.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.records[i])
	}
	return out
}
