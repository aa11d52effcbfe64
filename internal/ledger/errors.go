package ledger

import (
	"errors"
	"fmt"

	"fair-casino/internal/fairness"
	"fair-casino/internal/outcome"
)

var (
	ErrInvalidStake        = errors.New("invalid_stake")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrBetInFlight         = fairness.ErrBetInFlight
	ErrHalted              = errors.New("fairness_halt")
	ErrNoOpenRound         = errors.New("no_open_round")
	ErrNotInteractive      = errors.New("not_interactive")
	ErrFairness            = errors.New("fairness_mismatch")
	ErrSettlement          = errors.New("settlement_failed")
	ErrClosed              = errors.New("ledger_closed")
)

// FairnessError reports an authoritative settlement that disagrees with the
// local recomputation of the same nonce.
type FairnessError struct {
	SeedPairID   string       `json:"seed_pair_id"`
	Nonce        int64        `json:"nonce"`
	Game         outcome.Game `json:"game"`
	LocalPayout  int64        `json:"local_payout"`
	RemotePayout int64        `json:"remote_payout"`
	LocalResult  outcome.Kind `json:"local_result"`
	RemoteResult outcome.Kind `json:"remote_result"`

	// ConfirmedBalance is the house balance sent with the disputed
	// settlement. It is kept for the operator and never applied.
	ConfirmedBalance *int64 `json:"confirmed_balance,omitempty"`
}

func (e *FairnessError) Error() string {
	return fmt.Sprintf("fairness_mismatch: pair %s nonce %d: local %s/%d remote %s/%d",
		e.SeedPairID, e.Nonce, e.LocalResult, e.LocalPayout, e.RemoteResult, e.RemotePayout)
}

func (e *FairnessError) Unwrap() error { return ErrFairness }

// SettlementError wraps a failed authoritative call. The bet it belongs to
// has been rolled back.
type SettlementError struct {
	Nonce int64
	Err   error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement_failed: nonce %d: %v", e.Nonce, e.Err)
}

func (e *SettlementError) Unwrap() []error { return []error{ErrSettlement, e.Err} }
