// Package autobet drives repeated bets through a ledger under a stake
// progression and stop conditions. Bets are strictly sequential and a
// cancel only takes effect between bets.
package autobet

import (
	"context"
	"errors"
	"sync"
	"time"

	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"

	"github.com/rs/zerolog/log"
)

type StopReason string

const (
	StopCancelled    StopReason = "cancelled"
	StopCount        StopReason = "count"
	StopProfit       StopReason = "stop_on_profit"
	StopLoss         StopReason = "stop_on_loss"
	StopInsufficient StopReason = "insufficient_balance"
	StopSettlement   StopReason = "settlement_error"
	StopFairness     StopReason = "fairness_error"
	StopError        StopReason = "error"
)

const (
	EventStarted = "autobet_started"
	EventBet     = "autobet_bet"
	EventStopped = "autobet_stopped"
)

// Placer is the ledger surface the sequencer needs.
type Placer interface {
	Place(ctx context.Context, req ledger.BetRequest) (ledger.BetRecord, error)
	Balance(ctx context.Context) (int64, error)
}

type Status struct {
	Running      bool       `json:"running"`
	Game         string     `json:"game,omitempty"`
	Bets         int        `json:"bets"`
	Wins         int        `json:"wins"`
	Losses       int        `json:"losses"`
	Pushes       int        `json:"pushes"`
	Wagered      int64      `json:"wagered"`
	Profit       int64      `json:"profit"`
	CurrentStake int64      `json:"current_stake"`
	StopReason   StopReason `json:"stop_reason,omitempty"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at,omitempty"`
	StoppedAt    time.Time  `json:"stopped_at,omitempty"`
}

type Sequencer struct {
	placer   Placer
	events   *ledger.EventBuffer
	playerID string

	mu       sync.Mutex
	running  bool
	cancel   chan struct{}
	done     chan struct{}
	status   Status
	canceled bool
}

func New(placer Placer, events *ledger.EventBuffer, playerID string) *Sequencer {
	return &Sequencer{placer: placer, events: events, playerID: playerID}
}

// Start validates cfg and launches the loop. ctx bounds the whole session,
// so it must outlive the request that started it.
func (s *Sequencer) Start(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	bal, err := s.placer.Balance(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(bal); err != nil {
		return err
	}
	s.running = true
	s.canceled = false
	s.cancel = make(chan struct{})
	s.done = make(chan struct{})
	s.status = Status{
		Running:      true,
		Game:         string(cfg.Game),
		CurrentStake: cfg.BaseStake,
		StartedAt:    time.Now().UTC(),
	}
	metricRunsStarted.WithLabelValues(string(cfg.Game)).Inc()
	s.emit(EventStarted, map[string]any{"game": cfg.Game, "base_stake": cfg.BaseStake, "count": cfg.Count})
	log.Info().Str("player_id", s.playerID).Str("game", string(cfg.Game)).Int64("base_stake", cfg.BaseStake).Msg("autobet_started")
	go s.run(ctx, cfg, s.cancel, s.done)
	return nil
}

// Cancel asks the loop to stop after the bet in flight, if any.
func (s *Sequencer) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	if !s.canceled {
		s.canceled = true
		close(s.cancel)
	}
	return nil
}

// Wait blocks until the running loop, if any, has stopped.
func (s *Sequencer) Wait() Status {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	return s.Status()
}

func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Sequencer) emit(event string, data any) {
	if s.events != nil {
		s.events.Append(event, s.playerID, data)
	}
}

func (s *Sequencer) run(ctx context.Context, cfg Config, cancel, done chan struct{}) {
	defer close(done)
	stake := cfg.BaseStake
	var st Status
	s.mu.Lock()
	st = s.status
	s.mu.Unlock()

	reason, runErr := func() (StopReason, error) {
		for {
			if isClosed(cancel) {
				return StopCancelled, nil
			}
			if err := ctx.Err(); err != nil {
				return StopCancelled, err
			}
			bal, err := s.placer.Balance(ctx)
			if err != nil {
				return StopError, err
			}
			if stake > bal {
				return StopInsufficient, nil
			}

			req := ledger.BetRequest{Request: outcome.Request{Game: cfg.Game, Stake: stake, Params: cfg.Params}}
			rec, err := s.placer.Place(ctx, req)
			if err != nil {
				return classify(err), err
			}

			st.Bets++
			st.Wagered += rec.Stake
			st.Profit += rec.Profit()
			switch rec.Result {
			case outcome.Win:
				st.Wins++
				stake = cfg.OnWin.Next(cfg.BaseStake, stake)
			case outcome.Loss:
				st.Losses++
				stake = cfg.OnLoss.Next(cfg.BaseStake, stake)
			default:
				st.Pushes++
			}
			st.CurrentStake = stake
			s.mu.Lock()
			s.status = st
			s.mu.Unlock()
			s.emit(EventBet, map[string]any{"bet": rec, "totals": st})

			if reason, stop := s.stopCheck(ctx, cfg, st, stake, cancel); stop {
				return reason, nil
			}
			if !pace(ctx, cfg.Interval, cancel) {
				return StopCancelled, ctx.Err()
			}
		}
	}()

	st.Running = false
	st.StopReason = reason
	st.StoppedAt = time.Now().UTC()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		st.Error = runErr.Error()
	}
	s.mu.Lock()
	s.status = st
	s.running = false
	s.mu.Unlock()

	metricRunsStopped.WithLabelValues(string(reason)).Inc()
	s.emit(EventStopped, st)
	evt := log.Info()
	if runErr != nil {
		evt = log.Warn().Err(runErr)
	}
	evt.Str("player_id", s.playerID).
		Str("reason", string(reason)).
		Int("bets", st.Bets).
		Int64("profit", st.Profit).
		Msg("autobet_stopped")
}

// stopCheck evaluates the stop conditions in their fixed order.
func (s *Sequencer) stopCheck(ctx context.Context, cfg Config, st Status, next int64, cancel chan struct{}) (StopReason, bool) {
	switch {
	case isClosed(cancel):
		return StopCancelled, true
	case cfg.Count > 0 && st.Bets >= cfg.Count:
		return StopCount, true
	case cfg.StopOnProfit > 0 && st.Profit >= cfg.StopOnProfit:
		return StopProfit, true
	case cfg.StopOnLoss > 0 && -st.Profit >= cfg.StopOnLoss:
		return StopLoss, true
	}
	bal, err := s.placer.Balance(ctx)
	if err == nil && next > bal {
		return StopInsufficient, true
	}
	return "", false
}

func classify(err error) StopReason {
	switch {
	case errors.Is(err, ledger.ErrFairness), errors.Is(err, ledger.ErrHalted):
		return StopFairness
	case errors.Is(err, ledger.ErrSettlement):
		return StopSettlement
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return StopInsufficient
	case errors.Is(err, context.Canceled):
		return StopCancelled
	default:
		return StopError
	}
}

// pace waits out the interval; false means the session was cancelled.
func pace(ctx context.Context, d time.Duration, cancel chan struct{}) bool {
	if d <= 0 {
		select {
		case <-cancel:
			return false
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-cancel:
		return false
	case <-ctx.Done():
		return false
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
