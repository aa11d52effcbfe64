package httptransport

import (
	"encoding/json"
	"net/http"

	"fair-casino/internal/app/play"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
)

func (h *PlayHandlers) PlaceBet() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		var in play.BetInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		rec, err := h.svc.PlaceBet(r.Context(), playerID, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, rec)
	})
}

func (h *PlayHandlers) History() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		limit, offset := ParsePagination(r)
		q := r.URL.Query()
		resp, err := h.svc.History(r.Context(), playerID, outcome.Game(q.Get("game")), q.Get("seed_pair_id"), limit, offset)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, resp)
	})
}

func (h *PlayHandlers) OpenRound() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		var in play.BetInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		up, err := h.svc.OpenRound(r.Context(), playerID, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, up)
	})
}

func (h *PlayHandlers) Act() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		var a outcome.Action
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		up, err := h.svc.Act(r.Context(), playerID, a)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, up)
	})
}

func (h *PlayHandlers) Cashout() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		up, err := h.svc.Cashout(r.Context(), playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, up)
	})
}

// Verify accepts either a bet id of the caller or full seed material.
func (h *PlayHandlers) Verify() http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		var body struct {
			BetID string `json:"bet_id"`
			ledger.VerifyRequest
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.BetID != "" {
			resp, err := h.svc.VerifyBet(r.Context(), playerID, body.BetID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, resp)
			return
		}
		res, err := h.svc.Verify(body.VerifyRequest)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, res)
	})
}
