package store

import (
	"context"
	"encoding/json"
	"errors"

	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"

	"github.com/jackc/pgx/v5"
)

// BetRow is a settled bet together with the inputs needed to replay it.
type BetRow struct {
	ledger.BetRecord
	Params  outcome.Params   `json:"params"`
	Actions []outcome.Action `json:"actions"`
}

const betColumns = `id, player_id, game, stake, payout, multiplier, result, outcome, params, actions, seed_pair_id, client_seed, nonce, created_at`

func scanBet(row pgx.Row) (BetRow, error) {
	var (
		b                    BetRow
		game, result         string
		params, actions, raw []byte
	)
	err := row.Scan(&b.ID, &b.PlayerID, &game, &b.Stake, &b.Payout, &b.Multiplier, &result,
		&raw, &params, &actions, &b.SeedPairID, &b.ClientSeed, &b.Nonce, &b.CreatedAt)
	if err != nil {
		return BetRow{}, mapNotFound(err)
	}
	b.Game = outcome.Game(game)
	b.Result = outcome.Kind(result)
	b.RawOutcome = json.RawMessage(raw)
	if err := json.Unmarshal(params, &b.Params); err != nil {
		return BetRow{}, err
	}
	if err := json.Unmarshal(actions, &b.Actions); err != nil {
		return BetRow{}, err
	}
	return b, nil
}

// InsertBet writes a settled bet once. It reports false when a bet for the
// same seed pair and nonce already exists.
func (q *Queries) InsertBet(ctx context.Context, b BetRow) (bool, error) {
	params, err := json.Marshal(b.Params)
	if err != nil {
		return false, err
	}
	actions := b.Actions
	if actions == nil {
		actions = []outcome.Action{}
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return false, err
	}
	raw := []byte(b.RawOutcome)
	if len(raw) == 0 {
		raw = []byte("null")
	}
	tag, err := q.db.Exec(ctx,
		`INSERT INTO bets (`+betColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (seed_pair_id, nonce) DO NOTHING`,
		b.ID, b.PlayerID, string(b.Game), b.Stake, b.Payout, b.Multiplier, string(b.Result),
		raw, params, actionsJSON, b.SeedPairID, b.ClientSeed, b.Nonce, b.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (q *Queries) GetBetByNonce(ctx context.Context, seedPairID string, nonce int64) (BetRow, error) {
	return scanBet(q.db.QueryRow(ctx,
		`SELECT `+betColumns+` FROM bets WHERE seed_pair_id = $1 AND nonce = $2`, seedPairID, nonce))
}

func (q *Queries) GetBet(ctx context.Context, id string) (BetRow, error) {
	return scanBet(q.db.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id))
}

type BetFilter struct {
	PlayerID   string
	Game       outcome.Game
	SeedPairID string
}

// ListBets returns a player's bets newest first.
func (q *Queries) ListBets(ctx context.Context, f BetFilter, limit, offset int) ([]BetRow, error) {
	if f.PlayerID == "" {
		return nil, errors.New("player id required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+betColumns+` FROM bets
		 WHERE player_id = $1
		   AND ($2::text = '' OR game = $2::text)
		   AND ($3::text = '' OR seed_pair_id = $3::text)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $4 OFFSET $5`,
		f.PlayerID, string(f.Game), f.SeedPairID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BetRow{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
