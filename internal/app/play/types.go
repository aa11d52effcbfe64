package play

import (
	"time"

	"fair-casino/internal/autobet"
	"fair-casino/internal/fairness"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
	"fair-casino/internal/store"
)

type BetInput struct {
	Game    outcome.Game     `json:"game"`
	Stake   int64            `json:"stake"`
	Params  outcome.Params   `json:"params"`
	Actions []outcome.Action `json:"actions,omitempty"`
}

type AutobetInput struct {
	Game         outcome.Game        `json:"game"`
	Params       outcome.Params      `json:"params"`
	BaseStake    int64               `json:"base_stake"`
	OnWin        autobet.Progression `json:"on_win"`
	OnLoss       autobet.Progression `json:"on_loss"`
	Count        int                 `json:"count"`
	StopOnProfit int64               `json:"stop_on_profit"`
	StopOnLoss   int64               `json:"stop_on_loss"`
	IntervalMS   int                 `json:"interval_ms"`
}

type HistoryResponse struct {
	Items  []store.BetRow `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// VerifyBetResponse pairs a stored bet with its recomputation from the
// revealed seed.
type VerifyBetResponse struct {
	Bet        store.BetRow        `json:"bet"`
	Pair       fairness.PublicPair `json:"seed_pair"`
	Recomputed outcome.Result      `json:"recomputed"`
	Match      bool                `json:"match"`
}

type TopUpResponse struct {
	PlayerID string `json:"player_id"`
	Added    int64  `json:"added"`
	Balance  int64  `json:"balance"`
}

type SessionInfo struct {
	PlayerID string              `json:"player_id"`
	Seeds    fairness.PublicPair `json:"seeds"`
	Ledger   ledger.Snapshot     `json:"ledger"`
	Autobet  autobet.Status      `json:"autobet"`
	Since    time.Time           `json:"since"`
}
