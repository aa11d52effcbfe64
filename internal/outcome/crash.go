package outcome

import (
	"context"
	"fmt"
	"math"
	"time"
)

// CrashPoint maps one uniform to the multiplier at which the round ends.
func CrashPoint(r float64) float64 {
	if r < CrashInstantChance {
		return 1
	}
	p := math.Floor(100*CrashEdgeFloor/(1-r)) / 100
	if p < 1 {
		return 1
	}
	if p > CrashMaxPoint {
		return CrashMaxPoint
	}
	return p
}

// GrowthAt is the live multiplier after elapsed time, floored to hundredths.
func GrowthAt(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 1
	}
	ms := float64(elapsed) / float64(time.Millisecond)
	return math.Floor(100*math.Exp(CrashGrowthPerMS*ms)) / 100
}

// TimeToReach is the earliest elapsed time at which GrowthAt reports m.
func TimeToReach(m float64) time.Duration {
	if m <= 1 {
		return 0
	}
	ms := math.Log(m) / CrashGrowthPerMS
	return time.Duration(math.Ceil(ms * float64(time.Millisecond)))
}

func validateAutoCashout(m float64) error {
	if m == 0 {
		return nil
	}
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 1.01 {
		return fmt.Errorf("%w: auto cashout must be at least 1.01", ErrInvalidParams)
	}
	return nil
}

type CrashOutcome struct {
	CrashPoint  float64 `json:"crash_point"`
	CashedOutAt float64 `json:"cashed_out_at,omitempty"`
	AutoCashout float64 `json:"auto_cashout,omitempty"`
}

type CrashView struct {
	Live        float64 `json:"live"`
	AutoCashout float64 `json:"auto_cashout,omitempty"`
	Crashed     bool    `json:"crashed"`
	CashedOutAt float64 `json:"cashed_out_at,omitempty"`
	CrashPoint  float64 `json:"crash_point,omitempty"`
}

// CrashTick is one observation of the live multiplier.
type CrashTick struct {
	Elapsed    time.Duration `json:"elapsed"`
	Multiplier float64       `json:"multiplier"`
	Crashed    bool          `json:"crashed"`
	CashedOut  bool          `json:"cashed_out"`
}

// CrashRound is a single player's view of one growth-curve round.
type CrashRound struct {
	Point       float64 `json:"point"`
	AutoCashout float64 `json:"auto_cashout,omitempty"`
	Live        float64 `json:"live"`
	CashedOutAt float64 `json:"cashed_out_at,omitempty"`
	Crashed     bool    `json:"crashed"`
}

func NewCrashRound(u Uniforms, p Params) (*CrashRound, error) {
	if err := validateAutoCashout(p.AutoCashout); err != nil {
		return nil, err
	}
	r := &CrashRound{
		Point:       CrashPoint(u.Float()),
		AutoCashout: p.AutoCashout,
		Live:        1,
	}
	// A round that crashes at 1.00 is over before any cashout can land.
	if r.Point <= 1 {
		r.Crashed = true
	}
	return r, nil
}

func (r *CrashRound) Done() bool { return r.Crashed || r.CashedOutAt > 0 }

// NextMultiplier is the live value a cashout would lock in now.
func (r *CrashRound) NextMultiplier() float64 {
	if r.Done() {
		return 0
	}
	return r.Live
}

// Observe advances the round to the live multiplier m. The auto cashout
// fires first when it sits strictly below the crash point.
func (r *CrashRound) Observe(m float64) CrashTick {
	if r.Done() {
		return r.tick(m)
	}
	if m < r.Live {
		m = r.Live
	}
	if r.AutoCashout > 0 && m >= r.AutoCashout && r.AutoCashout < r.Point {
		r.Live = r.AutoCashout
		r.CashedOutAt = r.AutoCashout
		return r.tick(r.Live)
	}
	if m >= r.Point {
		r.Live = r.Point
		r.Crashed = true
		return r.tick(r.Live)
	}
	r.Live = m
	return r.tick(m)
}

func (r *CrashRound) tick(m float64) CrashTick {
	return CrashTick{Multiplier: m, Crashed: r.Crashed, CashedOut: r.CashedOutAt > 0}
}

// Tick observes the curve at an elapsed time since round start.
func (r *CrashRound) Tick(elapsed time.Duration) CrashTick {
	t := r.Observe(GrowthAt(elapsed))
	t.Elapsed = elapsed
	return t
}

func (r *CrashRound) Apply(a Action) (Step, error) {
	if r.Done() {
		return Step{}, ErrRoundOver
	}
	if a.Kind != ActionCashout {
		return Step{}, fmt.Errorf("%w: %s", ErrInvalidAction, a.Kind)
	}
	m := a.Multiplier
	if m == 0 {
		m = r.Live
	}
	if m < 1 || math.IsNaN(m) {
		return Step{}, fmt.Errorf("%w: cashout multiplier %.2f", ErrInvalidAction, m)
	}
	if r.AutoCashout > 0 && r.AutoCashout < r.Point && m >= r.AutoCashout {
		m = r.AutoCashout
	}
	if m >= r.Point {
		r.Live = r.Point
		r.Crashed = true
	} else {
		r.Live = m
		r.CashedOutAt = m
	}
	return Step{Action: a, Multiplier: r.multiplier(), Done: true, Detail: r.View()}, nil
}

// Autoplay runs the curve to the auto cashout or the crash.
func (r *CrashRound) Autoplay(Params) error {
	if r.Done() {
		return nil
	}
	if r.AutoCashout > 0 && r.AutoCashout < r.Point {
		r.Observe(r.AutoCashout)
		return nil
	}
	r.Observe(r.Point)
	return nil
}

func (r *CrashRound) multiplier() float64 {
	if r.Crashed {
		return 0
	}
	return r.CashedOutAt
}

func (r *CrashRound) View() any {
	v := CrashView{Live: r.Live, AutoCashout: r.AutoCashout, Crashed: r.Crashed, CashedOutAt: r.CashedOutAt}
	if r.Done() {
		v.CrashPoint = r.Point
	}
	return v
}

func (r *CrashRound) Result(stake int64) Result {
	detail := CrashOutcome{CrashPoint: r.Point, CashedOutAt: r.CashedOutAt, AutoCashout: r.AutoCashout}
	return settle(stake, r.multiplier(), detail)
}

// CrashClock turns wall time into ticks. The live multiplier is a pure
// function of elapsed time, so Live can be polled and Run subscribes.
type CrashClock struct {
	Start    time.Time
	Interval time.Duration
	Now      func() time.Time
}

func NewCrashClock(interval time.Duration) *CrashClock {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &CrashClock{Start: time.Now(), Interval: interval, Now: time.Now}
}

func (c *CrashClock) Elapsed() time.Duration { return c.Now().Sub(c.Start) }

func (c *CrashClock) Live() float64 { return GrowthAt(c.Elapsed()) }

// Run ticks until the observe callback reports the round is over or ctx
// ends. observe runs on the calling goroutine.
func (c *CrashClock) Run(ctx context.Context, observe func(elapsed time.Duration) (done bool)) error {
	if observe(c.Elapsed()) {
		return nil
	}
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if observe(c.Elapsed()) {
				return nil
			}
		}
	}
}
