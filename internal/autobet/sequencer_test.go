package autobet

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
)

// scriptedPlacer settles bets in a fixed result order at 2x on a win.
type scriptedPlacer struct {
	mu       sync.Mutex
	balance  int64
	results  []outcome.Kind
	errAt    map[int]error
	stakes   []int64
	gate     chan struct{}
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (p *scriptedPlacer) Balance(context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance, nil
}

func (p *scriptedPlacer) Place(ctx context.Context, req ledger.BetRequest) (ledger.BetRecord, error) {
	if p.inFlight.Add(1) > 1 {
		p.overlap.Store(true)
	}
	defer p.inFlight.Add(-1)
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	i := len(p.stakes)
	if err := p.errAt[i]; err != nil {
		return ledger.BetRecord{}, err
	}
	if req.Stake > p.balance {
		return ledger.BetRecord{}, ledger.ErrInsufficientBalance
	}
	p.stakes = append(p.stakes, req.Stake)
	kind := p.results[i%len(p.results)]
	var payout int64
	switch kind {
	case outcome.Win:
		payout = 2 * req.Stake
	case outcome.Push:
		payout = req.Stake
	}
	p.balance += payout - req.Stake
	return ledger.BetRecord{Game: req.Game, Stake: req.Stake, Payout: payout, Result: kind, Nonce: int64(i)}, nil
}

func (p *scriptedPlacer) placed() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.stakes...)
}

func coinflip(stake int64) Config {
	return Config{Game: outcome.Coinflip, Params: outcome.Params{Side: outcome.Heads}, BaseStake: stake}
}

func run(t *testing.T, p *scriptedPlacer, cfg Config) Status {
	t.Helper()
	s := New(p, ledger.NewEventBuffer(100), "player-1")
	if err := s.Start(context.Background(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	st := s.Wait()
	if p.overlap.Load() {
		t.Fatalf("bets overlapped")
	}
	return st
}

func TestConfigErrorsBeforeStart(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero stake", func(c *Config) { c.BaseStake = 0 }},
		{"stake above balance", func(c *Config) { c.BaseStake = 1001 }},
		{"percent below -100", func(c *Config) { c.OnLoss.Percent = -101 }},
		{"nan percent", func(c *Config) { c.OnWin.Percent = math.NaN() }},
		{"loss step overflows", func(c *Config) { c.OnLoss.Percent = 1e20 }},
		{"win step above balance", func(c *Config) { c.OnWin.Percent = 10000 }},
		{"negative stop", func(c *Config) { c.StopOnLoss = -1 }},
		{"negative count", func(c *Config) { c.Count = -1 }},
		{"unknown game", func(c *Config) { c.Game = "roulette" }},
		{"bad params", func(c *Config) { c.Params.Side = "edge" }},
		{"mines without plan", func(c *Config) { c.Game = outcome.Mines; c.Params.Mines = 3 }},
		{"crash without cashout", func(c *Config) { c.Game = outcome.Crash }},
	}
	for _, tc := range cases {
		p := &scriptedPlacer{balance: 1000, results: []outcome.Kind{outcome.Win}}
		cfg := coinflip(10)
		tc.mut(&cfg)
		s := New(p, nil, "player-1")
		if err := s.Start(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected invalid config, got %v", tc.name, err)
		}
		if s.Status().Running || len(p.placed()) != 0 {
			t.Fatalf("%s: loop must not start", tc.name)
		}
	}
}

func TestStopsAfterCount(t *testing.T) {
	p := &scriptedPlacer{balance: 1000, results: []outcome.Kind{outcome.Win, outcome.Loss}}
	cfg := coinflip(10)
	cfg.Count = 5
	st := run(t, p, cfg)
	if st.StopReason != StopCount || st.Bets != 5 || st.Running {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Wins != 3 || st.Losses != 2 || st.Profit != 10 {
		t.Fatalf("unexpected totals %+v", st)
	}
}

func TestMartingaleProgression(t *testing.T) {
	p := &scriptedPlacer{balance: 1000, results: []outcome.Kind{outcome.Loss, outcome.Loss, outcome.Win, outcome.Push}}
	cfg := coinflip(10)
	cfg.Count = 5
	cfg.OnWin = Progression{Reset: true}
	cfg.OnLoss = Progression{Percent: 100}
	run(t, p, cfg)
	want := []int64{10, 20, 40, 10, 10}
	got := p.placed()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stake sequence: expected %v, got %v", want, got)
		}
	}
}

func TestStopOnLossOvershootsByAtMostOneStake(t *testing.T) {
	p := &scriptedPlacer{balance: 1000, results: []outcome.Kind{outcome.Loss}}
	cfg := coinflip(10)
	cfg.StopOnLoss = 35
	st := run(t, p, cfg)
	if st.StopReason != StopLoss {
		t.Fatalf("expected stop on loss, got %+v", st)
	}
	if loss := -st.Profit; loss < cfg.StopOnLoss || loss > cfg.StopOnLoss+10 {
		t.Fatalf("loss %d outside [%d, %d]", loss, cfg.StopOnLoss, cfg.StopOnLoss+10)
	}
	if st.Bets != 4 {
		t.Fatalf("expected 4 bets, got %d", st.Bets)
	}
}

func TestStopOnProfit(t *testing.T) {
	p := &scriptedPlacer{balance: 1000, results: []outcome.Kind{outcome.Win}}
	cfg := coinflip(10)
	cfg.StopOnProfit = 25
	cfg.StopOnLoss = 5
	st := run(t, p, cfg)
	if st.StopReason != StopProfit || st.Bets != 3 || st.Profit != 30 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestStopsWhenStakeOutgrowsBalance(t *testing.T) {
	p := &scriptedPlacer{balance: 30, results: []outcome.Kind{outcome.Loss}}
	cfg := coinflip(10)
	cfg.OnLoss = Progression{Percent: 100}
	st := run(t, p, cfg)
	if st.StopReason != StopInsufficient || st.Bets != 2 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestSettlementAndFairnessErrorsStop(t *testing.T) {
	cases := []struct {
		err  error
		want StopReason
	}{
		{&ledger.SettlementError{Nonce: 2, Err: errors.New("timeout")}, StopSettlement},
		{&ledger.FairnessError{Nonce: 2}, StopFairness},
		{ledger.ErrHalted, StopFairness},
	}
	for _, tc := range cases {
		p := &scriptedPlacer{balance: 1000, results: []outcome.Kind{outcome.Win}, errAt: map[int]error{2: tc.err}}
		st := run(t, p, coinflip(10))
		if st.StopReason != tc.want || st.Bets != 2 || st.Error == "" {
			t.Fatalf("%v: unexpected status %+v", tc.err, st)
		}
	}
}

func TestCancelNeverInterruptsBetInFlight(t *testing.T) {
	p := &scriptedPlacer{balance: 1000, results: []outcome.Kind{outcome.Win}, gate: make(chan struct{})}
	s := New(p, nil, "player-1")
	if err := s.Start(context.Background(), coinflip(10)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background(), coinflip(10)); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected already running, got %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for p.inFlight.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("bet never started")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	close(p.gate)
	st := s.Wait()
	if st.StopReason != StopCancelled || st.Bets != 1 {
		t.Fatalf("expected the in-flight bet to finish and the loop to stop, got %+v", st)
	}
	if err := s.Cancel(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected not running, got %v", err)
	}
}

func TestCancelDuringPacing(t *testing.T) {
	p := &scriptedPlacer{balance: 1000, results: []outcome.Kind{outcome.Win}}
	cfg := coinflip(10)
	cfg.Interval = time.Hour
	s := New(p, nil, "player-1")
	if err := s.Start(context.Background(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for s.Status().Bets == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first bet never settled")
		}
		time.Sleep(time.Millisecond)
	}
	s.Cancel()
	if st := s.Wait(); st.StopReason != StopCancelled || st.Bets != 1 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestProgressionNext(t *testing.T) {
	cases := []struct {
		p    Progression
		cur  int64
		want int64
	}{
		{Progression{Percent: 50}, 10, 15},
		{Progression{Percent: -50}, 10, 5},
		{Progression{Percent: -100}, 10, 1},
		{Progression{Percent: 0}, 40, 40},
		{Progression{Reset: true, Percent: 300}, 40, 10},
		{Progression{Percent: 33}, 10, 13},
		{Progression{Percent: 1e20}, 10, math.MaxInt64},
		{Progression{Percent: 100}, math.MaxInt64, math.MaxInt64},
	}
	for _, tc := range cases {
		if got := tc.p.Next(10, tc.cur); got != tc.want {
			t.Fatalf("%+v from %d: expected %d, got %d", tc.p, tc.cur, tc.want, got)
		}
	}
}
