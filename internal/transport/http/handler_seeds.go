package httptransport

import (
	"encoding/json"
	"net/http"

	"fair-casino/internal/app/play"

	"github.com/go-chi/chi/v5"
)

type PlayHandlers struct {
	svc *play.Service
}

func NewPlayHandlers(svc *play.Service) *PlayHandlers {
	return &PlayHandlers{svc: svc}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := play.MapError(err)
	WriteHTTPError(w, status, code)
}

// withPlayer resolves the authenticated player or answers 401.
func withPlayer(fn func(w http.ResponseWriter, r *http.Request, playerID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := PlayerFromContext(r.Context())
		if !ok {
			WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		fn(w, r, p.ID)
	}
}

func (h *PlayHandlers) Me() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		info, err := h.svc.Info(r.Context(), playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, info)
	})
}

func (h *PlayHandlers) Seeds() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		pair, err := h.svc.Seeds(r.Context(), playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, pair)
	})
}

func (h *PlayHandlers) RotateSeeds() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		rot, err := h.svc.RotateSeeds(r.Context(), playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, rot)
	})
}

func (h *PlayHandlers) SetClientSeed() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		var body struct {
			ClientSeed string `json:"client_seed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		pair, err := h.svc.SetClientSeed(r.Context(), playerID, body.ClientSeed)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, pair)
	})
}

func (h *PlayHandlers) RevealSeeds() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		pair, err := h.svc.RevealSeeds(r.Context(), playerID, chi.URLParam(r, "pair_id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, pair)
	})
}

func (h *PlayHandlers) Acknowledge() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		cleared, err := h.svc.Acknowledge(r.Context(), playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "cleared": cleared})
	})
}
