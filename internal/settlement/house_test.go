package settlement

import (
	"context"
	"errors"
	"testing"

	"fair-casino/internal/fairness"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
	"fair-casino/internal/store"
	"fair-casino/internal/testutil"
)

type houseFixture struct {
	st       *store.Store
	house    *House
	seeds    *fairness.Manager
	playerID string
}

func newHouseFixture(t *testing.T, balance int64) houseFixture {
	t.Helper()
	st, cleanup := testutil.OpenTestStore(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	playerID, err := st.EnsurePlayer(ctx, "house-test", "house-key", balance)
	if err != nil {
		t.Fatalf("ensure player: %v", err)
	}
	m, err := fairness.NewManager(ctx, st, playerID, store.NewID)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return houseFixture{st: st, house: NewHouse(st), seeds: m, playerID: playerID}
}

func (f houseFixture) bet(t *testing.T, stake int64) ledger.BetRequest {
	t.Helper()
	pair := f.seeds.Active()
	nonce, err := f.seeds.NextNonce(context.Background(), pair.ID)
	if err != nil {
		t.Fatalf("next nonce: %v", err)
	}
	return ledger.BetRequest{
		Request:    outcome.Request{Game: outcome.Dice, Stake: stake, Params: outcome.Params{Target: 50, Over: true}},
		PlayerID:   f.playerID,
		SeedPairID: pair.ID,
		ClientSeed: pair.ClientSeed,
		Nonce:      nonce,
	}
}

func TestHouseSettleMatchesLocalEvaluation(t *testing.T) {
	f := newHouseFixture(t, 1000)
	ctx := context.Background()
	req := f.bet(t, 100)

	s, err := f.house.Settle(ctx, req)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	stream, err := f.seeds.Stream(req.SeedPairID, req.Nonce)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	local, err := outcome.Evaluate(stream, req.Request)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if s.Payout != local.Payout || s.Result != local.Kind {
		t.Fatalf("house %+v disagrees with local %+v", s, local)
	}
	want := 1000 - 100 + local.Payout
	if s.ConfirmedBalance == nil || *s.ConfirmedBalance != want {
		t.Fatalf("expected confirmed balance %d, got %v", want, s.ConfirmedBalance)
	}
	got, err := f.st.GetAccountBalance(ctx, f.playerID)
	if err != nil || got != want {
		t.Fatalf("stored balance: expected %d, got %d %v", want, got, err)
	}
}

func TestHouseRetryReturnsStoredResult(t *testing.T) {
	f := newHouseFixture(t, 1000)
	ctx := context.Background()
	req := f.bet(t, 100)

	first, err := f.house.Settle(ctx, req)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	again, err := f.house.Settle(ctx, req)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if again.BetID != first.BetID || again.Payout != first.Payout || *again.ConfirmedBalance != *first.ConfirmedBalance {
		t.Fatalf("retry booked again: first %+v, again %+v", first, again)
	}
	entries, err := f.st.ListLedgerEntries(ctx, f.playerID, 50, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	stakes := 0
	for _, e := range entries {
		if e.Type == "bet_stake" {
			stakes++
		}
	}
	if stakes != 1 {
		t.Fatalf("expected one stake entry, got %d", stakes)
	}
}

func TestHouseRejectsUnissuedNonce(t *testing.T) {
	f := newHouseFixture(t, 1000)
	req := f.bet(t, 100)
	req.Nonce++

	if _, err := f.house.Settle(context.Background(), req); !errors.Is(err, ErrNonceNotIssued) {
		t.Fatalf("expected nonce_not_issued, got %v", err)
	}
}

func TestHouseRejectsForeignPairAndStaleClientSeed(t *testing.T) {
	f := newHouseFixture(t, 1000)
	ctx := context.Background()

	req := f.bet(t, 100)
	req.PlayerID = "someone-else"
	if _, err := f.house.Settle(ctx, req); !errors.Is(err, ErrPlayerMismatch) {
		t.Fatalf("expected player mismatch, got %v", err)
	}

	req = f.bet(t, 100)
	req.ClientSeed = "not-the-current-seed"
	if _, err := f.house.Settle(ctx, req); !errors.Is(err, ErrClientSeedMismatch) {
		t.Fatalf("expected client seed mismatch, got %v", err)
	}
}

func TestHouseRejectsStakeAboveBalance(t *testing.T) {
	f := newHouseFixture(t, 50)
	ctx := context.Background()

	if _, err := f.house.Settle(ctx, f.bet(t, 100)); !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	got, err := f.st.GetAccountBalance(ctx, f.playerID)
	if err != nil || got != 50 {
		t.Fatalf("failed settle must not move money, got %d %v", got, err)
	}
}

func TestLedgerAgainstHouseConservesBalance(t *testing.T) {
	f := newHouseFixture(t, 1000)
	ctx := context.Background()
	w := ledger.NewMemoryWallet(1000)
	l := ledger.New(ledger.Options{
		PlayerID: f.playerID,
		Seeds:    f.seeds,
		Wallet:   w,
		Settler:  f.house,
		NewID:    store.NewID,
	})
	defer l.Close()

	for i := 0; i < 10; i++ {
		_, err := l.Place(ctx, ledger.BetRequest{
			Request: outcome.Request{Game: outcome.Coinflip, Stake: 10, Params: outcome.Params{Side: outcome.Heads}},
		})
		if err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
	}
	local, _ := w.Balance(ctx)
	stored, err := f.st.GetAccountBalance(ctx, f.playerID)
	if err != nil || local != stored {
		t.Fatalf("local %d and stored %d balances diverged (%v)", local, stored, err)
	}
}
