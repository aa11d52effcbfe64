package fairness

import "errors"

var ErrCommitmentMismatch = errors.New("commitment_mismatch")

// Replay rebuilds the stream of a settled bet from revealed seed material,
// after checking the server seed against its published hash.
func Replay(serverSeed, serverSeedHash, clientSeed string, nonce int64) (*Stream, error) {
	if !VerifyCommitment(serverSeed, serverSeedHash) {
		return nil, ErrCommitmentMismatch
	}
	return NewStream(serverSeed, clientSeed, nonce), nil
}
