package httptransport

import (
	"net/http"

	"fair-casino/internal/ws"
)

func (h *PlayHandlers) Stream(srv *ws.Server) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, playerID string) {
		buf, err := h.svc.Events(r.Context(), playerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		metricStreamConnectionsTotal.Inc()
		srv.Serve(w, r, playerID, buf)
	})
}
