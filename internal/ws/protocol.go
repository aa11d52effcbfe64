package ws

import "fair-casino/internal/ledger"

const ProtocolVersion = "1.0"

// HelloMessage opens every stream. Replayed counts the buffered events
// sent before live ones.
type HelloMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	Replayed        int    `json:"replayed"`
}

type EventMessage struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	Source          string             `json:"source"`
	Event           ledger.StreamEvent `json:"event"`
}

type PingMessage struct {
	Type     string `json:"type"`
	ServerTS int64  `json:"server_ts"`
}
