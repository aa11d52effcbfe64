package fairness

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps seed pairs in process. It backs tests and
// single-node setups without Postgres.
type MemoryRepository struct {
	mu    sync.Mutex
	pairs map[string]SeedPair
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{pairs: map[string]SeedPair{}}
}

func (r *MemoryRepository) ActiveSeedPair(_ context.Context, playerID string) (SeedPair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs {
		if p.PlayerID == playerID && p.Active {
			return p, nil
		}
	}
	return SeedPair{}, ErrNotFound
}

func (r *MemoryRepository) GetSeedPair(_ context.Context, id string) (SeedPair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pairs[id]
	if !ok {
		return SeedPair{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) RotateSeedPair(_ context.Context, retireID string, next SeedPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if retireID != "" {
		old, ok := r.pairs[retireID]
		if !ok {
			return ErrNotFound
		}
		now := time.Now().UTC()
		old.Active = false
		old.RevealedAt = &now
		r.pairs[retireID] = old
	}
	r.pairs[next.ID] = next
	return nil
}

func (r *MemoryRepository) UpdateClientSeed(_ context.Context, id, clientSeed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pairs[id]
	if !ok {
		return ErrNotFound
	}
	if !p.Active {
		return ErrSeedRetired
	}
	p.ClientSeed = clientSeed
	r.pairs[id] = p
	return nil
}

func (r *MemoryRepository) IncrementNonce(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pairs[id]
	if !ok {
		return 0, ErrNotFound
	}
	if !p.Active {
		return 0, ErrSeedRetired
	}
	n := p.Nonce
	p.Nonce++
	r.pairs[id] = p
	return n, nil
}
