// Package settlement holds the authoritative side of a bet: the House that
// recomputes and books it in Postgres, and a Client for engines that reach
// a House over HTTP.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fair-casino/internal/fairness"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
	"fair-casino/internal/store"

	"github.com/rs/zerolog/log"
)

var (
	ErrPlayerMismatch     = errors.New("seed_pair_player_mismatch")
	ErrNonceNotIssued     = errors.New("nonce_not_issued")
	ErrClientSeedMismatch = errors.New("client_seed_mismatch")
	ErrDuplicateBet       = errors.New("duplicate_bet")
)

// House settles bets against its own copy of the seed pair. A repeated
// (seed pair, nonce) returns the stored settlement without booking again.
type House struct {
	st  *store.Store
	now func() time.Time
}

func NewHouse(st *store.Store) *House {
	return &House{st: st, now: time.Now}
}

func (h *House) Settle(ctx context.Context, req ledger.BetRequest) (ledger.Settlement, error) {
	var out ledger.Settlement
	err := h.st.InTx(ctx, func(q *store.Queries) error {
		// The row lock serializes settlements of one pair.
		pair, err := q.GetSeedPairForUpdate(ctx, req.SeedPairID)
		if err != nil {
			return err
		}
		if pair.PlayerID != req.PlayerID {
			return ErrPlayerMismatch
		}
		if req.Nonce < 0 || req.Nonce >= pair.Nonce {
			return ErrNonceNotIssued
		}

		prev, err := q.GetBetByNonce(ctx, pair.ID, req.Nonce)
		if err == nil {
			bal, err := q.GetAccountBalance(ctx, req.PlayerID)
			if err != nil {
				return err
			}
			out = fromRecord(prev.BetRecord, bal)
			log.Info().Str("bet_id", prev.ID).Int64("nonce", req.Nonce).Msg("settle_replayed")
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if req.ClientSeed != pair.ClientSeed {
			return ErrClientSeedMismatch
		}

		res, err := outcome.Evaluate(fairness.NewStream(pair.ServerSeed, req.ClientSeed, req.Nonce), req.Request)
		if err != nil {
			return err
		}
		betID := store.NewID()
		bal, err := q.Adjust(ctx, req.PlayerID, -req.Stake, "bet_stake", "bet", betID)
		if err != nil {
			return err
		}
		if res.Payout > 0 {
			if bal, err = q.Adjust(ctx, req.PlayerID, res.Payout, "bet_payout", "bet", betID); err != nil {
				return err
			}
		}
		raw, err := json.Marshal(res.Outcome)
		if err != nil {
			return err
		}
		rec := ledger.BetRecord{
			ID:         betID,
			PlayerID:   req.PlayerID,
			Game:       req.Game,
			Stake:      req.Stake,
			Payout:     res.Payout,
			Multiplier: res.Multiplier,
			Result:     res.Kind,
			RawOutcome: raw,
			SeedPairID: pair.ID,
			ClientSeed: req.ClientSeed,
			Nonce:      req.Nonce,
			CreatedAt:  h.now().UTC(),
		}
		inserted, err := q.InsertBet(ctx, store.BetRow{BetRecord: rec, Params: req.Params, Actions: req.Actions})
		if err != nil {
			return err
		}
		if !inserted {
			return ErrDuplicateBet
		}
		out = fromRecord(rec, bal)
		return nil
	})
	if err != nil {
		return ledger.Settlement{}, err
	}
	return out, nil
}

func fromRecord(rec ledger.BetRecord, balance int64) ledger.Settlement {
	return ledger.Settlement{
		BetID:            rec.ID,
		Payout:           rec.Payout,
		Multiplier:       rec.Multiplier,
		Result:           rec.Result,
		RawOutcome:       rec.RawOutcome,
		ConfirmedBalance: &balance,
	}
}
