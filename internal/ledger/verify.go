package ledger

import (
	"fair-casino/internal/fairness"
	"fair-casino/internal/outcome"
)

// VerifyRequest is everything a player needs to recompute a settled bet
// once its server seed has been revealed.
type VerifyRequest struct {
	ServerSeed     string          `json:"server_seed"`
	ServerSeedHash string          `json:"server_seed_hash"`
	ClientSeed     string          `json:"client_seed"`
	Nonce          int64           `json:"nonce"`
	Bet            outcome.Request `json:"bet"`
}

// Verify checks the commitment and replays the bet.
func Verify(req VerifyRequest) (outcome.Result, error) {
	stream, err := fairness.Replay(req.ServerSeed, req.ServerSeedHash, req.ClientSeed, req.Nonce)
	if err != nil {
		return outcome.Result{}, err
	}
	return outcome.Evaluate(stream, req.Bet)
}
