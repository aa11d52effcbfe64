package store

import (
	"context"
	"errors"
)

var (
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

func (q *Queries) GetAccountBalance(ctx context.Context, playerID string) (int64, error) {
	var bal int64
	err := q.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE player_id = $1`, playerID).Scan(&bal)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return bal, nil
}

func (q *Queries) EnsureAccount(ctx context.Context, playerID string, initial int64) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO accounts (player_id, balance) VALUES ($1, $2) ON CONFLICT (player_id) DO NOTHING`,
		playerID, initial)
	return err
}

// Adjust locks the account row, applies a signed delta and writes the
// matching ledger entry. It must run inside a transaction to be atomic.
func (q *Queries) Adjust(ctx context.Context, playerID string, delta int64, entryType, refType, refID string) (int64, error) {
	var bal int64
	err := q.db.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE player_id = $1 FOR UPDATE`, playerID).Scan(&bal)
	if err != nil {
		return 0, mapNotFound(err)
	}
	newBal := bal + delta
	if newBal < 0 {
		return 0, ErrInsufficientBalance
	}
	if _, err := q.db.Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE player_id = $2`,
		newBal, playerID); err != nil {
		return 0, err
	}
	if _, err := q.db.Exec(ctx,
		`INSERT INTO ledger_entries (id, player_id, type, amount, balance_after, ref_type, ref_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		NewID(), playerID, entryType, delta, newBal, refType, refID); err != nil {
		return 0, err
	}
	return newBal, nil
}

func (s *Store) Debit(ctx context.Context, playerID string, amount int64, entryType, refType, refID string) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	var bal int64
	err := s.InTx(ctx, func(q *Queries) error {
		var err error
		bal, err = q.Adjust(ctx, playerID, -amount, entryType, refType, refID)
		return err
	})
	return bal, err
}

func (s *Store) Credit(ctx context.Context, playerID string, amount int64, entryType, refType, refID string) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	var bal int64
	err := s.InTx(ctx, func(q *Queries) error {
		var err error
		bal, err = q.Adjust(ctx, playerID, amount, entryType, refType, refID)
		return err
	})
	return bal, err
}

func (q *Queries) ListLedgerEntries(ctx context.Context, playerID string, limit, offset int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(ctx,
		`SELECT id, player_id, type, amount, balance_after, ref_type, ref_id, created_at
		 FROM ledger_entries WHERE player_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		playerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Type, &e.Amount, &e.BalanceAfter, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
