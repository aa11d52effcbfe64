// Package fairness owns the committed/revealed randomness source of a player
// session: server seed commitments, client seeds, nonces and the HMAC stream
// every game draws its uniforms from.
package fairness

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	ErrBetInFlight     = errors.New("bet_in_flight")
	ErrEmptyClientSeed = errors.New("empty_client_seed")
	ErrSeedActive      = errors.New("seed_pair_active")
	ErrSeedRetired     = errors.New("seed_pair_retired")
	ErrNotFound        = errors.New("seed_pair_not_found")
)

const serverSeedBytes = 32

// SeedPair is the persisted state of one commitment. ServerSeed must never
// leave the process while Active is true; use Public for anything outbound.
type SeedPair struct {
	ID             string
	PlayerID       string
	ServerSeed     string
	ServerSeedHash string
	ClientSeed     string
	Nonce          int64
	Active         bool
	CreatedAt      time.Time
	RevealedAt     *time.Time
}

// PublicPair is what a player may see. ServerSeed is only filled once the
// pair is retired.
type PublicPair struct {
	ID             string     `json:"id"`
	ServerSeedHash string     `json:"server_seed_hash"`
	ServerSeed     string     `json:"server_seed,omitempty"`
	ClientSeed     string     `json:"client_seed"`
	Nonce          int64      `json:"nonce"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	RevealedAt     *time.Time `json:"revealed_at,omitempty"`
}

func (p SeedPair) Public() PublicPair {
	out := PublicPair{
		ID:             p.ID,
		ServerSeedHash: p.ServerSeedHash,
		ClientSeed:     p.ClientSeed,
		Nonce:          p.Nonce,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		RevealedAt:     p.RevealedAt,
	}
	if !p.Active {
		out.ServerSeed = p.ServerSeed
	}
	return out
}

// HashServerSeed is the one-way commitment published before the first bet.
func HashServerSeed(serverSeed string) string {
	h := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(h[:])
}

// VerifyCommitment reports whether a revealed server seed matches the hash
// that was published for it.
func VerifyCommitment(serverSeed, serverSeedHash string) bool {
	got := HashServerSeed(serverSeed)
	return subtle.ConstantTimeCompare([]byte(got), []byte(serverSeedHash)) == 1
}

func NewServerSeed() (string, error) {
	return randomHex(serverSeedBytes)
}

func NewClientSeed() (string, error) {
	return randomHex(16)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return hex.EncodeToString(b), nil
}
