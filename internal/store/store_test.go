package store

import (
	"errors"
	"testing"
	"time"

	"fair-casino/internal/fairness"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
)

func TestStoreBootstrapPing(t *testing.T) {
	st, ctx := openStore(t)
	if err := st.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrations should be re-runnable: %v", err)
	}
}

func TestPlayersAndAccounts(t *testing.T) {
	st, ctx := openStore(t)
	id := mustCreatePlayer(t, st, ctx, "alice", 1234)

	again, err := st.EnsurePlayer(ctx, "alice", "key-alice", 99)
	if err != nil || again != id {
		t.Fatalf("ensure should return the existing player, got %q %v", again, err)
	}
	p, err := st.GetPlayerByAPIKey(ctx, "key-alice")
	if err != nil || p.ID != id {
		t.Fatalf("lookup by key: %+v %v", p, err)
	}
	if _, err := st.GetPlayerByAPIKey(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	bal, err := st.Debit(ctx, id, 234, "bet_stake", "bet", "b1")
	if err != nil || bal != 1000 {
		t.Fatalf("debit: %d %v", bal, err)
	}
	if _, err := st.Debit(ctx, id, 1001, "bet_stake", "bet", "b2"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	bal, err = st.Credit(ctx, id, 50, "topup", "admin", "t1")
	if err != nil || bal != 1050 {
		t.Fatalf("credit: %d %v", bal, err)
	}
	entries, err := st.ListLedgerEntries(ctx, id, 10, 0)
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d %v", len(entries), err)
	}
}

func TestSeedPairsBackTheManager(t *testing.T) {
	st, ctx := openStore(t)
	playerID := mustCreatePlayer(t, st, ctx, "bob", 100)

	m, err := fairness.NewManager(ctx, st, playerID, NewID)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	first := m.Active()
	for want := int64(0); want < 3; want++ {
		n, err := m.NextNonce(ctx, first.ID)
		if err != nil || n != want {
			t.Fatalf("nonce: expected %d, got %d %v", want, n, err)
		}
	}
	if _, err := m.SetClientSeed(ctx, "lucky"); err != nil {
		t.Fatalf("client seed: %v", err)
	}
	rot, err := m.Commit(ctx)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if rot.Retired == nil || rot.Retired.ServerSeed == "" {
		t.Fatalf("retired pair should be revealed: %+v", rot)
	}
	if _, err := st.IncrementNonce(ctx, first.ID); !errors.Is(err, fairness.ErrSeedRetired) {
		t.Fatalf("retired pair must not hand out nonces, got %v", err)
	}
	stored, err := st.GetSeedPair(ctx, first.ID)
	if err != nil {
		t.Fatalf("get pair: %v", err)
	}
	if stored.Active || stored.Nonce != 3 || stored.ClientSeed != "lucky" || stored.RevealedAt == nil {
		t.Fatalf("unexpected stored pair %+v", stored)
	}
	if !fairness.VerifyCommitment(stored.ServerSeed, first.ServerSeedHash) {
		t.Fatalf("revealed seed does not match its commitment")
	}

	reloaded, err := fairness.NewManager(ctx, st, playerID, NewID)
	if err != nil {
		t.Fatalf("reload manager: %v", err)
	}
	if reloaded.Active().ID != rot.Active.ID {
		t.Fatalf("reload should pick up the active pair")
	}
}

func TestInsertBetIsIdempotentPerNonce(t *testing.T) {
	st, ctx := openStore(t)
	playerID := mustCreatePlayer(t, st, ctx, "carol", 100)
	m, err := fairness.NewManager(ctx, st, playerID, NewID)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	pair := m.Active()
	row := BetRow{
		BetRecord: ledger.BetRecord{
			ID:         NewID(),
			PlayerID:   playerID,
			Game:       outcome.Coinflip,
			Stake:      10,
			Payout:     19,
			Multiplier: 1.98,
			Result:     outcome.Win,
			RawOutcome: []byte(`{"landed":"heads","picked":"heads"}`),
			SeedPairID: pair.ID,
			ClientSeed: pair.ClientSeed,
			Nonce:      0,
			CreatedAt:  time.Now().UTC(),
		},
		Params: outcome.Params{Side: outcome.Heads},
	}
	inserted, err := st.InsertBet(ctx, row)
	if err != nil || !inserted {
		t.Fatalf("insert: %v %v", inserted, err)
	}
	dup := row
	dup.ID = NewID()
	inserted, err = st.InsertBet(ctx, dup)
	if err != nil || inserted {
		t.Fatalf("duplicate nonce should be ignored: %v %v", inserted, err)
	}

	got, err := st.GetBetByNonce(ctx, pair.ID, 0)
	if err != nil {
		t.Fatalf("get by nonce: %v", err)
	}
	if got.ID != row.ID || got.Params.Side != outcome.Heads || got.Actions == nil {
		t.Fatalf("unexpected stored bet %+v", got)
	}
	list, err := st.ListBets(ctx, BetFilter{PlayerID: playerID, Game: outcome.Coinflip}, 10, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %d %v", len(list), err)
	}
	if _, err := st.GetBetByNonce(ctx, pair.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
