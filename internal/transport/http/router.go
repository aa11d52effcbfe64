package httptransport

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"fair-casino/internal/app/play"
	"fair-casino/internal/config"
	"fair-casino/internal/ledger"
	"fair-casino/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the router wires into handlers. MCP is
// optional.
type Deps struct {
	DB      Pinger
	Players PlayerResolver
	Play    *play.Service
	House   ledger.Settler
	MCP     http.Handler
}

func NewRouter(deps Deps, cfg config.ServerConfig) *chi.Mux {
	playHandlers := NewPlayHandlers(deps.Play)
	adminHandlers := NewAdminHandlers(deps.DB, deps.Play, deps.House)
	streams := ws.NewServer()
	streams.OnOpen = metricStreamConnectionsActive.Inc
	streams.OnClose = metricStreamConnectionsActive.Dec

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	r.Handle("/metrics", promhttp.Handler())
	if deps.MCP != nil {
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", deps.MCP)
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", deps.MCP)
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", deps.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		// The stream hijacks the connection, so it stays outside the request logger.
		r.With(PlayerAuthMiddleware(deps.Players)).Get("/stream", playHandlers.Stream(streams))

		r.Group(func(r chi.Router) {
			r.Use(APILogMiddleware())
			r.Use(PlayerAuthMiddleware(deps.Players))
			r.Get("/me", playHandlers.Me())

			r.Get("/seeds", playHandlers.Seeds())
			r.Post("/seeds/rotate", playHandlers.RotateSeeds())
			r.Put("/seeds/client", playHandlers.SetClientSeed())
			r.Get("/seeds/{pair_id}/reveal", playHandlers.RevealSeeds())

			r.Post("/bets", playHandlers.PlaceBet())
			r.Get("/bets", playHandlers.History())
			r.Post("/rounds", playHandlers.OpenRound())
			r.Post("/rounds/actions", playHandlers.Act())
			r.Post("/rounds/cashout", playHandlers.Cashout())
			r.Post("/verify", playHandlers.Verify())

			r.Post("/autobet", playHandlers.StartAutobet())
			r.Delete("/autobet", playHandlers.CancelAutobet())
			r.Get("/autobet", playHandlers.AutobetStatus())

			r.Post("/fairness/ack", playHandlers.Acknowledge())
		})

		r.Group(func(r chi.Router) {
			r.Use(APILogMiddleware())
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Use(BodyCaptureMiddleware(4096))
			r.Post("/settle", adminHandlers.Settle())
			r.Post("/topup", adminHandlers.Topup())
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
