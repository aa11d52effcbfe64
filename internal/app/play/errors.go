package play

import (
	"errors"
	"net/http"

	"fair-casino/internal/autobet"
	"fair-casino/internal/fairness"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
	"fair-casino/internal/settlement"
	"fair-casino/internal/store"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
	ErrBetNotFound    = errors.New("bet_not_found")
	ErrClosed         = errors.New("service_closed")
)

// MapError turns a domain error into an HTTP status and a stable code.
func MapError(err error) (int, string) {
	var fe *ledger.FairnessError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &fe):
		return http.StatusConflict, "fairness_mismatch"
	case errors.Is(err, ledger.ErrSettlement):
		return http.StatusBadGateway, "settlement_failed"
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ErrBetNotFound):
		return http.StatusNotFound, "bet_not_found"
	case errors.Is(err, ErrClosed), errors.Is(err, ledger.ErrClosed):
		return http.StatusServiceUnavailable, "service_closed"
	case errors.Is(err, ledger.ErrInvalidStake):
		return http.StatusBadRequest, "invalid_stake"
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, store.ErrInsufficientBalance):
		return http.StatusConflict, "insufficient_balance"
	case errors.Is(err, ledger.ErrBetInFlight):
		return http.StatusConflict, "bet_in_flight"
	case errors.Is(err, ledger.ErrHalted):
		return http.StatusLocked, "fairness_halt"
	case errors.Is(err, ledger.ErrNoOpenRound):
		return http.StatusConflict, "no_open_round"
	case errors.Is(err, ledger.ErrNotInteractive):
		return http.StatusBadRequest, "not_interactive"
	case errors.Is(err, outcome.ErrUnknownGame):
		return http.StatusBadRequest, "unknown_game"
	case errors.Is(err, outcome.ErrInvalidParams):
		return http.StatusBadRequest, "invalid_params"
	case errors.Is(err, outcome.ErrInvalidAction):
		return http.StatusBadRequest, "invalid_action"
	case errors.Is(err, outcome.ErrRoundOver):
		return http.StatusConflict, "round_over"
	case errors.Is(err, outcome.ErrRoundIncomplete):
		return http.StatusConflict, "round_incomplete"
	case errors.Is(err, fairness.ErrEmptyClientSeed):
		return http.StatusBadRequest, "empty_client_seed"
	case errors.Is(err, fairness.ErrSeedActive):
		return http.StatusConflict, "seed_pair_active"
	case errors.Is(err, fairness.ErrSeedRetired):
		return http.StatusConflict, "seed_pair_retired"
	case errors.Is(err, fairness.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, fairness.ErrCommitmentMismatch):
		return http.StatusUnprocessableEntity, "commitment_mismatch"
	case errors.Is(err, autobet.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid_autobet_config"
	case errors.Is(err, autobet.ErrAlreadyRunning):
		return http.StatusConflict, "autobet_running"
	case errors.Is(err, autobet.ErrNotRunning):
		return http.StatusConflict, "autobet_not_running"
	case errors.Is(err, settlement.ErrPlayerMismatch):
		return http.StatusForbidden, "seed_pair_player_mismatch"
	case errors.Is(err, settlement.ErrNonceNotIssued):
		return http.StatusConflict, "nonce_not_issued"
	case errors.Is(err, settlement.ErrClientSeedMismatch):
		return http.StatusConflict, "client_seed_mismatch"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
