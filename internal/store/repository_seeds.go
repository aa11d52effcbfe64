package store

import (
	"context"
	"errors"

	"fair-casino/internal/fairness"

	"github.com/jackc/pgx/v5"
)

const seedPairColumns = `id, player_id, server_seed, server_seed_hash, client_seed, nonce, active, created_at, revealed_at`

func scanSeedPair(row pgx.Row) (fairness.SeedPair, error) {
	var p fairness.SeedPair
	err := row.Scan(&p.ID, &p.PlayerID, &p.ServerSeed, &p.ServerSeedHash, &p.ClientSeed, &p.Nonce, &p.Active, &p.CreatedAt, &p.RevealedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fairness.SeedPair{}, fairness.ErrNotFound
	}
	return p, err
}

func (q *Queries) ActiveSeedPair(ctx context.Context, playerID string) (fairness.SeedPair, error) {
	return scanSeedPair(q.db.QueryRow(ctx,
		`SELECT `+seedPairColumns+` FROM seed_pairs WHERE player_id = $1 AND active`, playerID))
}

func (q *Queries) GetSeedPair(ctx context.Context, id string) (fairness.SeedPair, error) {
	return scanSeedPair(q.db.QueryRow(ctx,
		`SELECT `+seedPairColumns+` FROM seed_pairs WHERE id = $1`, id))
}

// GetSeedPairForUpdate locks the pair for the rest of the transaction.
func (q *Queries) GetSeedPairForUpdate(ctx context.Context, id string) (fairness.SeedPair, error) {
	return scanSeedPair(q.db.QueryRow(ctx,
		`SELECT `+seedPairColumns+` FROM seed_pairs WHERE id = $1 FOR UPDATE`, id))
}

// RotateSeedPair retires retireID, when set, and inserts next in one
// transaction so a player never has two active pairs.
func (s *Store) RotateSeedPair(ctx context.Context, retireID string, next fairness.SeedPair) error {
	return s.InTx(ctx, func(q *Queries) error {
		if retireID != "" {
			tag, err := q.db.Exec(ctx,
				`UPDATE seed_pairs SET active = false, revealed_at = now() WHERE id = $1 AND active`, retireID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fairness.ErrSeedRetired
			}
		}
		_, err := q.db.Exec(ctx,
			`INSERT INTO seed_pairs (id, player_id, server_seed, server_seed_hash, client_seed, nonce, active, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, true, $7)`,
			next.ID, next.PlayerID, next.ServerSeed, next.ServerSeedHash, next.ClientSeed, next.Nonce, next.CreatedAt)
		return err
	})
}

func (q *Queries) UpdateClientSeed(ctx context.Context, id, clientSeed string) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE seed_pairs SET client_seed = $1 WHERE id = $2 AND active`, clientSeed, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fairness.ErrSeedRetired
	}
	return nil
}

// IncrementNonce returns the nonce to use and stores its successor.
func (q *Queries) IncrementNonce(ctx context.Context, id string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`UPDATE seed_pairs SET nonce = nonce + 1 WHERE id = $1 AND active RETURNING nonce - 1`, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := q.GetSeedPair(ctx, id); getErr != nil {
			return 0, getErr
		}
		return 0, fairness.ErrSeedRetired
	}
	return n, err
}
