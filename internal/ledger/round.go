package ledger

import (
	"context"
	"errors"
	"time"

	"fair-casino/internal/outcome"

	"github.com/rs/zerolog/log"
)

// openRound is the value object the ledger owns while an interactive bet is
// being played. Its action log is what the authority replays.
type openRound struct {
	b       *pending
	round   outcome.Round
	actions []outcome.Action
	clock   *outcome.CrashClock
	stop    context.CancelFunc
	opened  time.Time
}

type RoundView struct {
	Game           outcome.Game     `json:"game"`
	Stake          int64            `json:"stake"`
	SeedPairID     string           `json:"seed_pair_id"`
	Nonce          int64            `json:"nonce"`
	Actions        []outcome.Action `json:"actions"`
	NextMultiplier float64          `json:"next_multiplier"`
	State          any              `json:"state"`
}

func (o *openRound) view() RoundView {
	return RoundView{
		Game:           o.b.req.Game,
		Stake:          o.b.req.Stake,
		SeedPairID:     o.b.req.SeedPairID,
		Nonce:          o.b.req.Nonce,
		Actions:        append([]outcome.Action{}, o.actions...),
		NextMultiplier: o.round.NextMultiplier(),
		State:          o.round.View(),
	}
}

// RoundUpdate is returned by every interactive call. Record is set once the
// round has been settled.
type RoundUpdate struct {
	Round  RoundView    `json:"round"`
	Step   outcome.Step `json:"step"`
	Record *BetRecord   `json:"record,omitempty"`
}

// Open debits the stake and starts an interactive round. A round that is
// over at the deal (a natural, a crash at 1.00) settles immediately.
func (l *Ledger) Open(ctx context.Context, req BetRequest) (RoundUpdate, error) {
	if !req.Game.Interactive() {
		return RoundUpdate{}, ErrNotInteractive
	}
	b, err := l.begin(ctx, req)
	if err != nil {
		return RoundUpdate{}, err
	}
	round, err := outcome.NewRound(b.stream, req.Game, req.Params)
	if err != nil {
		l.rollback(ctx, b, "evaluate_error")
		return RoundUpdate{}, err
	}

	l.mu.Lock()
	o := &openRound{b: b, round: round, opened: l.now()}
	l.round = o
	l.state = StatePlaying
	step := outcome.Step{NextMultiplier: round.NextMultiplier(), Done: round.Done(), Detail: round.View()}
	view := o.view()
	l.events.Append(EventRoundStep, l.playerID, RoundUpdate{Round: view, Step: step})
	if cr, ok := round.(*outcome.CrashRound); ok && !round.Done() {
		l.startCrashClock(o, cr)
	}
	l.mu.Unlock()

	if step.Done {
		rec, err := l.finish(ctx, o)
		if err != nil {
			return RoundUpdate{Round: view, Step: step}, err
		}
		return RoundUpdate{Round: view, Step: step, Record: &rec}, nil
	}
	return RoundUpdate{Round: view, Step: step}, nil
}

// Act applies one decision to the open round. An invalid action leaves the
// round untouched.
func (l *Ledger) Act(ctx context.Context, a outcome.Action) (RoundUpdate, error) {
	l.mu.Lock()
	o := l.round
	if o == nil || l.state != StatePlaying {
		l.mu.Unlock()
		return RoundUpdate{}, ErrNoOpenRound
	}
	if cr, ok := o.round.(*outcome.CrashRound); ok && o.clock != nil {
		// The live value is taken from the clock, never from the caller.
		tick := cr.Tick(o.clock.Elapsed())
		if cr.Done() {
			step := outcome.Step{Multiplier: tick.Multiplier, Done: true, Detail: cr.View()}
			l.mu.Unlock()
			return l.finishUpdate(ctx, o, step)
		}
		if a.Kind == outcome.ActionCashout {
			a.Multiplier = cr.NextMultiplier()
		}
	}
	step, err := o.round.Apply(a)
	if err != nil {
		l.mu.Unlock()
		return RoundUpdate{}, err
	}
	o.actions = append(o.actions, a)
	view := o.view()
	l.events.Append(EventRoundStep, l.playerID, RoundUpdate{Round: view, Step: step})
	done := o.round.Done()
	l.mu.Unlock()

	if done {
		return l.finishUpdate(ctx, o, step)
	}
	return RoundUpdate{Round: view, Step: step}, nil
}

func (l *Ledger) Cashout(ctx context.Context) (RoundUpdate, error) {
	return l.Act(ctx, outcome.Action{Kind: outcome.ActionCashout})
}

// OpenRound returns the view of the round in play, if any.
func (l *Ledger) OpenRound() (RoundView, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.round == nil {
		return RoundView{}, false
	}
	return l.round.view(), true
}

func (l *Ledger) finishUpdate(ctx context.Context, o *openRound, step outcome.Step) (RoundUpdate, error) {
	l.mu.Lock()
	view := o.view()
	l.mu.Unlock()
	rec, err := l.finish(ctx, o)
	if err != nil {
		return RoundUpdate{Round: view, Step: step}, err
	}
	return RoundUpdate{Round: view, Step: step, Record: &rec}, nil
}

// finish hands a completed round to settlement. Only the first caller for a
// round gets through.
func (l *Ledger) finish(ctx context.Context, o *openRound) (BetRecord, error) {
	l.mu.Lock()
	if l.round != o || l.state != StatePlaying || !o.round.Done() {
		l.mu.Unlock()
		return BetRecord{}, ErrNoOpenRound
	}
	l.state = StateAwaiting
	if o.stop != nil {
		o.stop()
	}
	o.b.req.Actions = append([]outcome.Action(nil), o.actions...)
	res := o.round.Result(o.b.req.Stake)
	l.mu.Unlock()
	return l.settle(ctx, o.b, res)
}

// startCrashClock ticks the curve until the round crashes or auto cashes
// out. Called with l.mu held.
func (l *Ledger) startCrashClock(o *openRound, cr *outcome.CrashRound) {
	ctx, cancel := context.WithCancel(context.Background())
	o.clock = outcome.NewCrashClock(l.tickInterval)
	o.stop = cancel
	go func() {
		finishHere := false
		err := o.clock.Run(ctx, func(elapsed time.Duration) bool {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.round != o || cr.Done() {
				return true
			}
			tick := cr.Tick(elapsed)
			l.events.Append(EventCrashTick, l.playerID, tick)
			finishHere = cr.Done()
			return finishHere
		})
		if err != nil || !finishHere {
			return
		}
		sctx, done := context.WithTimeout(context.Background(), l.settleTimeout)
		defer done()
		if _, err := l.finish(sctx, o); err != nil && !errors.Is(err, ErrNoOpenRound) {
			log.Warn().Err(err).Str("player_id", l.playerID).Msg("crash_settle_failed")
		}
	}()
}
