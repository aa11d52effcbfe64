package fairness

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Repository persists seed pairs. IncrementNonce must be atomic: it returns
// the nonce before the increment and fails with ErrSeedRetired once the pair
// is no longer active.
type Repository interface {
	ActiveSeedPair(ctx context.Context, playerID string) (SeedPair, error)
	GetSeedPair(ctx context.Context, id string) (SeedPair, error)
	RotateSeedPair(ctx context.Context, retireID string, next SeedPair) error
	UpdateClientSeed(ctx context.Context, id, clientSeed string) error
	IncrementNonce(ctx context.Context, id string) (int64, error)
}

// Rotation is the outcome of Commit: the freshly committed pair and, when a
// pair was active before, that pair with its server seed revealed.
type Rotation struct {
	Active  PublicPair  `json:"active"`
	Retired *PublicPair `json:"retired,omitempty"`
}

// Manager is the seed state of a single player session.
type Manager struct {
	repo     Repository
	playerID string
	newID    func() string
	now      func() time.Time

	mu       sync.Mutex
	active   SeedPair
	inFlight bool
}

// NewManager loads the player's active pair, committing a first one when the
// player has none yet.
func NewManager(ctx context.Context, repo Repository, playerID string, newID func() string) (*Manager, error) {
	m := &Manager{repo: repo, playerID: playerID, newID: newID, now: time.Now}
	pair, err := repo.ActiveSeedPair(ctx, playerID)
	if err == nil {
		m.active = pair
		return m, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	clientSeed, err := NewClientSeed()
	if err != nil {
		return nil, err
	}
	next, err := m.newPair(clientSeed)
	if err != nil {
		return nil, err
	}
	if err := repo.RotateSeedPair(ctx, "", next); err != nil {
		return nil, err
	}
	m.active = next
	return m, nil
}

func (m *Manager) newPair(clientSeed string) (SeedPair, error) {
	serverSeed, err := NewServerSeed()
	if err != nil {
		return SeedPair{}, err
	}
	return SeedPair{
		ID:             m.newID(),
		PlayerID:       m.playerID,
		ServerSeed:     serverSeed,
		ServerSeedHash: HashServerSeed(serverSeed),
		ClientSeed:     clientSeed,
		Nonce:          0,
		Active:         true,
		CreatedAt:      m.now().UTC(),
	}, nil
}

// Active returns the public view of the current pair.
func (m *Manager) Active() PublicPair {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Public()
}

// Commit retires the active pair and commits a new server seed. The client
// seed carries over and the nonce restarts at 0.
func (m *Manager) Commit(ctx context.Context) (Rotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return Rotation{}, ErrBetInFlight
	}
	next, err := m.newPair(m.active.ClientSeed)
	if err != nil {
		return Rotation{}, err
	}
	if err := m.repo.RotateSeedPair(ctx, m.active.ID, next); err != nil {
		return Rotation{}, err
	}
	retired := m.active
	retired.Active = false
	revealedAt := next.CreatedAt
	retired.RevealedAt = &revealedAt
	m.active = next

	log.Info().
		Str("player_id", m.playerID).
		Str("retired_pair_id", retired.ID).
		Str("active_pair_id", next.ID).
		Int64("retired_nonce", retired.Nonce).
		Msg("seed pair rotated")

	pub := retired.Public()
	return Rotation{Active: next.Public(), Retired: &pub}, nil
}

// Reveal returns a retired pair with its server seed.
func (m *Manager) Reveal(ctx context.Context, pairID string) (PublicPair, error) {
	m.mu.Lock()
	activeID := m.active.ID
	m.mu.Unlock()
	if pairID == activeID {
		return PublicPair{}, ErrSeedActive
	}
	pair, err := m.repo.GetSeedPair(ctx, pairID)
	if err != nil {
		return PublicPair{}, err
	}
	if pair.PlayerID != m.playerID {
		return PublicPair{}, ErrNotFound
	}
	if pair.Active {
		return PublicPair{}, ErrSeedActive
	}
	return pair.Public(), nil
}

func (m *Manager) SetClientSeed(ctx context.Context, value string) (PublicPair, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return PublicPair{}, ErrEmptyClientSeed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return PublicPair{}, ErrBetInFlight
	}
	if err := m.repo.UpdateClientSeed(ctx, m.active.ID, value); err != nil {
		return PublicPair{}, err
	}
	m.active.ClientSeed = value
	return m.active.Public(), nil
}

// NextNonce hands out the current nonce of pairID and persists the
// increment before returning, so a nonce survives restarts unused at most.
func (m *Manager) NextNonce(ctx context.Context, pairID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pairID != m.active.ID {
		return 0, ErrSeedRetired
	}
	n, err := m.repo.IncrementNonce(ctx, pairID)
	if err != nil {
		return 0, err
	}
	m.active.Nonce = n + 1
	return n, nil
}

// Stream opens the uniform stream for a nonce of the active pair.
func (m *Manager) Stream(pairID string, nonce int64) (*Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pairID != m.active.ID {
		return nil, ErrSeedRetired
	}
	return NewStream(m.active.ServerSeed, m.active.ClientSeed, nonce), nil
}

// Hold marks a bet as in flight; seed rotation and client seed changes are
// refused until Release.
func (m *Manager) Hold() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return ErrBetInFlight
	}
	m.inFlight = true
	return nil
}

func (m *Manager) Release() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}
