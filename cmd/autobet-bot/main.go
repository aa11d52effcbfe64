package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fair-casino/internal/autobet"
	"fair-casino/internal/config"
	"fair-casino/internal/outcome"
	"fair-casino/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type autobetRequest struct {
	Game         outcome.Game        `json:"game"`
	Params       outcome.Params      `json:"params"`
	BaseStake    int64               `json:"base_stake"`
	OnWin        autobet.Progression `json:"on_win"`
	OnLoss       autobet.Progression `json:"on_loss"`
	Count        int                 `json:"count"`
	StopOnProfit int64               `json:"stop_on_profit"`
	StopOnLoss   int64               `json:"stop_on_loss"`
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}
	if cfg.APIKey == "" {
		log.Fatal().Msg("API_KEY is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	header := http.Header{"Authorization": []string{"Bearer " + cfg.APIKey}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.WSURL, header)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.WSURL).Msg("stream dial failed")
	}
	defer conn.Close()

	if err := startAutobet(ctx, http.DefaultClient, cfg); err != nil {
		log.Fatal().Err(err).Msg("autobet start failed")
	}
	st, err := watch(ctx, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("stream ended before autobet stopped")
	}
	log.Info().
		Str("reason", string(st.StopReason)).
		Int("bets", st.Bets).
		Int("wins", st.Wins).
		Int64("wagered", st.Wagered).
		Int64("profit", st.Profit).
		Msg("autobet finished")
}

func buildRequest(cfg config.BotConfig) autobetRequest {
	req := autobetRequest{
		Game:         outcome.Game(cfg.Game),
		BaseStake:    cfg.Stake,
		Count:        cfg.Count,
		StopOnProfit: cfg.StopOnProfit,
		StopOnLoss:   cfg.StopOnLoss,
		OnWin:        progression(cfg.OnWinPct),
		OnLoss:       progression(cfg.OnLossPct),
	}
	switch req.Game {
	case outcome.Dice:
		req.Params = outcome.Params{Target: cfg.Target, Over: cfg.Over}
	case outcome.Coinflip:
		req.Params = outcome.Params{Side: outcome.Heads}
	case outcome.Plinko:
		req.Params = outcome.Params{Rows: 16, Risk: outcome.RiskLow}
	}
	return req
}

func progression(pct float64) autobet.Progression {
	if pct == 0 {
		return autobet.Progression{Reset: true}
	}
	return autobet.Progression{Percent: pct}
}

func startAutobet(ctx context.Context, c *http.Client, cfg config.BotConfig) error {
	body, err := json.Marshal(buildRequest(cfg))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.APIURL, "/")+"/api/autobet", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)
	}
	return nil
}

// watch logs each autobet bet and returns the final status.
func watch(ctx context.Context, conn *websocket.Conn) (autobet.Status, error) {
	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()
	for {
		var base struct {
			Type            string          `json:"type"`
			ProtocolVersion string          `json:"protocol_version"`
			Event           json.RawMessage `json:"event"`
		}
		if err := conn.ReadJSON(&base); err != nil {
			return autobet.Status{}, err
		}
		if base.Type == "hello" && base.ProtocolVersion != ws.ProtocolVersion {
			log.Warn().Str("server", base.ProtocolVersion).Str("bot", ws.ProtocolVersion).Msg("protocol version mismatch")
		}
		if base.Type != "event" {
			continue
		}
		var ev struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(base.Event, &ev); err != nil {
			continue
		}
		switch ev.Event {
		case autobet.EventBet:
			var step struct {
				Totals autobet.Status `json:"totals"`
			}
			if json.Unmarshal(ev.Data, &step) == nil {
				log.Info().Int("bets", step.Totals.Bets).Int64("profit", step.Totals.Profit).Int64("next_stake", step.Totals.CurrentStake).Msg("autobet_bet")
			}
		case autobet.EventStopped:
			var st autobet.Status
			if err := json.Unmarshal(ev.Data, &st); err != nil {
				return autobet.Status{}, err
			}
			return st, nil
		}
	}
}
