package testutil

import (
	"context"
	"strconv"
	"sync"
	"time"

	"fair-casino/internal/fairness"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
	"fair-casino/internal/store"
)

// MemoryHouse is an in-process stand-in for the Postgres store and the
// House settler. Settle recomputes every bet from the stored seed pair and
// answers a repeated nonce with the stored result.
type MemoryHouse struct {
	*fairness.MemoryRepository

	mu       sync.Mutex
	players  map[string]store.Player
	balances map[string]int64
	bets     []store.BetRow
	seq      int64
}

func NewMemoryHouse() *MemoryHouse {
	return &MemoryHouse{
		MemoryRepository: fairness.NewMemoryRepository(),
		players:          map[string]store.Player{},
		balances:         map[string]int64{},
	}
}

// AddPlayer registers a player under apiKey with an opening balance.
func (h *MemoryHouse) AddPlayer(id, apiKey string, balance int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.players[store.HashAPIKey(apiKey)] = store.Player{ID: id, Name: id, Status: "active", CreatedAt: time.Now().UTC()}
	h.balances[id] = balance
}

func (h *MemoryHouse) GetPlayerByAPIKey(_ context.Context, apiKey string) (*store.Player, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[store.HashAPIKey(apiKey)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (h *MemoryHouse) GetAccountBalance(_ context.Context, playerID string) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bal, ok := h.balances[playerID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return bal, nil
}

func (h *MemoryHouse) Credit(_ context.Context, playerID string, amount int64, _, _, _ string) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.balances[playerID]; !ok {
		return 0, store.ErrNotFound
	}
	if amount <= 0 {
		return 0, store.ErrInvalidAmount
	}
	h.balances[playerID] += amount
	return h.balances[playerID], nil
}

func (h *MemoryHouse) ListBets(_ context.Context, f store.BetFilter, limit, offset int) ([]store.BetRow, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []store.BetRow{}
	for i := len(h.bets) - 1; i >= 0; i-- {
		b := h.bets[i]
		if b.PlayerID != f.PlayerID ||
			(f.Game != "" && b.Game != f.Game) ||
			(f.SeedPairID != "" && b.SeedPairID != f.SeedPairID) {
			continue
		}
		out = append(out, b)
	}
	if offset >= len(out) {
		return []store.BetRow{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *MemoryHouse) GetBet(_ context.Context, id string) (store.BetRow, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, b := range h.bets {
		if b.ID == id {
			return b, nil
		}
	}
	return store.BetRow{}, store.ErrNotFound
}

func (h *MemoryHouse) Settle(ctx context.Context, req ledger.BetRequest) (ledger.Settlement, error) {
	pair, err := h.GetSeedPair(ctx, req.SeedPairID)
	if err != nil {
		return ledger.Settlement{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, b := range h.bets {
		if b.SeedPairID == req.SeedPairID && b.Nonce == req.Nonce {
			bal := h.balances[b.PlayerID]
			return ledger.Settlement{BetID: b.ID, Payout: b.Payout, Multiplier: b.Multiplier, Result: b.Result, RawOutcome: b.RawOutcome, ConfirmedBalance: &bal}, nil
		}
	}
	res, err := outcome.Evaluate(fairness.NewStream(pair.ServerSeed, req.ClientSeed, req.Nonce), req.Request)
	if err != nil {
		return ledger.Settlement{}, err
	}
	if h.balances[req.PlayerID] < req.Stake {
		return ledger.Settlement{}, store.ErrInsufficientBalance
	}
	h.balances[req.PlayerID] += res.Payout - req.Stake
	bal := h.balances[req.PlayerID]
	h.seq++
	row := store.BetRow{
		BetRecord: ledger.BetRecord{
			ID:         "bet_" + strconv.FormatInt(h.seq, 10),
			PlayerID:   req.PlayerID,
			Game:       req.Game,
			Stake:      req.Stake,
			Payout:     res.Payout,
			Multiplier: res.Multiplier,
			Result:     res.Kind,
			SeedPairID: req.SeedPairID,
			ClientSeed: req.ClientSeed,
			Nonce:      req.Nonce,
			CreatedAt:  time.Now().UTC(),
		},
		Params:  req.Params,
		Actions: req.Actions,
	}
	h.bets = append(h.bets, row)
	return ledger.Settlement{BetID: row.ID, Payout: res.Payout, Multiplier: res.Multiplier, Result: res.Kind, ConfirmedBalance: &bal}, nil
}
