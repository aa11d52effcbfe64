package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"fair-casino/internal/app/play"
	"fair-casino/internal/ledger"

	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type AdminHandlers struct {
	db    Pinger
	play  *play.Service
	house ledger.Settler
}

func NewAdminHandlers(db Pinger, svc *play.Service, house ledger.Settler) *AdminHandlers {
	return &AdminHandlers{db: db, play: svc, house: house}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Topup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PlayerID string `json:"player_id"`
			Amount   int64  `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		resp, err := h.play.TopUp(r.Context(), body.PlayerID, body.Amount)
		if err != nil {
			status, code := play.MapError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, resp)
	}
}

// Settle is the House endpoint remote engines post their bets to.
func (h *AdminHandlers) Settle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ledger.BetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if req.PlayerID == "" || req.SeedPairID == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		s, err := h.house.Settle(r.Context(), req)
		if err != nil {
			status, code := play.MapError(err)
			log.Warn().Err(err).Str("player_id", req.PlayerID).Int64("nonce", req.Nonce).Str("code", code).Msg("remote_settle_failed")
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, s)
	}
}
