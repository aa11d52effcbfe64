// Package ws pushes a player's ledger events to a websocket. A reconnecting
// client passes the last event id it saw and gets the gap replayed.
package ws

import (
	"net/http"
	"strconv"
	"time"

	"fair-casino/internal/ledger"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Server struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration

	// OnOpen and OnClose observe connection counts.
	OnOpen  func()
	OnClose func()
}

func NewServer() *Server {
	return &Server{
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		pingInterval: 15 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

// LastEventID reads the resume point from the query or the SSE style header.
func LastEventID(r *http.Request) string {
	if v := r.URL.Query().Get("last_event_id"); v != "" {
		return v
	}
	return r.Header.Get("Last-Event-ID")
}

// Serve upgrades the request and streams buf until either side goes away.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, playerID string, buf *ledger.EventBuffer) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	if s.OnOpen != nil {
		s.OnOpen()
	}
	if s.OnClose != nil {
		defer s.OnClose()
	}

	// Subscribe before the replay so nothing falls in between; live events
	// already replayed are skipped by id.
	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)
	replay := buf.ReplayAfter(LastEventID(r))

	log.Info().Str("player_id", playerID).Int("replay", len(replay)).Msg("event stream opened")

	if err := s.write(conn, HelloMessage{Type: "hello", ProtocolVersion: ProtocolVersion, PlayerID: playerID, Replayed: len(replay)}); err != nil {
		return
	}
	var lastSent int64
	for _, ev := range replay {
		if err := s.write(conn, EventMessage{Type: "event", ProtocolVersion: ProtocolVersion, Source: "replay", Event: ev}); err != nil {
			return
		}
		lastSent = eventSeq(ev)
	}

	closed := make(chan struct{})
	go readLoop(conn, closed)

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			log.Info().Str("player_id", playerID).Msg("event stream closed by client")
			return
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(s.writeTimeout))
				return
			}
			if eventSeq(ev) <= lastSent {
				continue
			}
			if err := s.write(conn, EventMessage{Type: "event", ProtocolVersion: ProtocolVersion, Source: "live", Event: ev}); err != nil {
				return
			}
			lastSent = eventSeq(ev)
		case <-ticker.C:
			if err := s.write(conn, PingMessage{Type: "ping", ServerTS: time.Now().UnixMilli()}); err != nil {
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return conn.WriteJSON(v)
}

// readLoop drains client frames so control messages are processed, and
// reports when the connection ends.
func readLoop(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func eventSeq(ev ledger.StreamEvent) int64 {
	n, _ := strconv.ParseInt(ev.EventID, 10, 64)
	return n
}
