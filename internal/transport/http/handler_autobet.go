package httptransport

import (
	"encoding/json"
	"net/http"

	"fair-casino/internal/app/play"
)

func (h *PlayHandlers) StartAutobet() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		var in play.AutobetInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		st, err := h.svc.StartAutobet(r.Context(), playerID, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(st)
	})
}

func (h *PlayHandlers) CancelAutobet() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		st, err := h.svc.CancelAutobet(r.Context(), playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, st)
	})
}

func (h *PlayHandlers) AutobetStatus() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		st, err := h.svc.AutobetStatus(r.Context(), playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, st)
	})
}
