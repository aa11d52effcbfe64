package store

import "context"

func (q *Queries) CreatePlayer(ctx context.Context, name, apiKey string) (string, error) {
	id := NewID()
	_, err := q.db.Exec(ctx,
		`INSERT INTO players (id, name, api_key_hash) VALUES ($1, $2, $3)`,
		id, name, HashAPIKey(apiKey))
	return id, err
}

func (q *Queries) GetPlayerByAPIKey(ctx context.Context, apiKey string) (*Player, error) {
	var p Player
	err := q.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, status, created_at FROM players WHERE api_key_hash = $1`,
		HashAPIKey(apiKey)).Scan(&p.ID, &p.Name, &p.APIKeyHash, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (q *Queries) GetPlayer(ctx context.Context, id string) (*Player, error) {
	var p Player
	err := q.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, status, created_at FROM players WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.APIKeyHash, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

// EnsurePlayer creates the player for apiKey with an opening balance unless
// it already exists, and returns its id.
func (s *Store) EnsurePlayer(ctx context.Context, name, apiKey string, initial int64) (string, error) {
	if p, err := s.GetPlayerByAPIKey(ctx, apiKey); err == nil {
		return p.ID, nil
	} else if err != ErrNotFound {
		return "", err
	}
	var id string
	err := s.InTx(ctx, func(q *Queries) error {
		var err error
		id, err = q.CreatePlayer(ctx, name, apiKey)
		if err != nil {
			return err
		}
		return q.EnsureAccount(ctx, id, initial)
	})
	return id, err
}
