package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fair-casino/internal/app/play"
	"fair-casino/internal/config"
	"fair-casino/internal/ledger"
	"fair-casino/internal/logging"
	"fair-casino/internal/mcpserver"
	"fair-casino/internal/settlement"
	"fair-casino/internal/store"
	httptransport "fair-casino/internal/transport/http"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)
	srvCfg := cfg.Server

	st, err := store.New(srvCfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	ctx := context.Background()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	seedPlayer(st, srvCfg.SeedPlayerName, srvCfg.SeedPlayerKey, srvCfg.InitialBalance)

	house := settlement.NewHouse(st)
	svc := play.NewService(st, newSettler(srvCfg, house), srvCfg)
	mcp := mcpserver.New(st, svc)

	r := httptransport.NewRouter(httptransport.Deps{
		DB:      st,
		Players: st,
		Play:    svc,
		House:   house,
		MCP:     mcp.Handler(),
	}, srvCfg)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              srvCfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		log.Info().Str("addr", srvCfg.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	svc.Close()
	log.Info().Msg("server stopped")
}

// newSettler settles locally unless a remote House is configured.
func newSettler(cfg config.ServerConfig, local ledger.Settler) ledger.Settler {
	if cfg.SettleURL == "" {
		return local
	}
	log.Info().Str("url", cfg.SettleURL).Msg("settling against remote house")
	return settlement.NewClient(cfg.SettleURL, cfg.SettleAPIKey, cfg.SettleTimeout)
}

func seedPlayer(st *store.Store, name, key string, initial int64) {
	if name == "" || key == "" {
		return
	}
	id, err := st.EnsurePlayer(context.Background(), name, key, initial)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("seed player failed")
		return
	}
	log.Info().Str("player_id", id).Str("name", name).Msg("seed player ready")
}
