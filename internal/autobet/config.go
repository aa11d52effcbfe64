package autobet

import (
	"errors"
	"fmt"
	"math"
	"time"

	"fair-casino/internal/outcome"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidConfig  = errors.New("invalid_autobet_config")
	ErrAlreadyRunning = errors.New("autobet_running")
	ErrNotRunning     = errors.New("autobet_not_running")
)

// Progression moves the stake after a win or a loss: back to the base stake
// when Reset is set, otherwise by Percent of the current stake.
type Progression struct {
	Reset   bool    `json:"reset"`
	Percent float64 `json:"percent"`
}

func (p Progression) validate(name string) error {
	if math.IsNaN(p.Percent) || math.IsInf(p.Percent, 0) {
		return fmt.Errorf("%w: %s percent must be finite", ErrInvalidConfig, name)
	}
	if p.Percent < -100 {
		return fmt.Errorf("%w: %s percent below -100", ErrInvalidConfig, name)
	}
	return nil
}

var maxStake = decimal.NewFromInt(math.MaxInt64)

func (p Progression) step(current int64) decimal.Decimal {
	factor := decimal.NewFromFloat(p.Percent).Div(decimal.NewFromInt(100)).Add(decimal.NewFromInt(1))
	return decimal.NewFromInt(current).Mul(factor).Floor()
}

// Next applies the progression. Stakes never drop below one minor unit and
// saturate at math.MaxInt64.
func (p Progression) Next(base, current int64) int64 {
	if p.Reset {
		return base
	}
	next := p.step(current)
	if next.GreaterThanOrEqual(maxStake) {
		return math.MaxInt64
	}
	if next.LessThan(decimal.NewFromInt(1)) {
		return 1
	}
	return next.IntPart()
}

// checkFirst rejects a progression whose first step from base cannot be
// covered by balance.
func (p Progression) checkFirst(name string, base, balance int64) error {
	if p.Reset {
		return nil
	}
	if next := p.step(base); next.GreaterThan(decimal.NewFromInt(balance)) {
		return fmt.Errorf("%w: %s moves the stake to %s, above balance %d", ErrInvalidConfig, name, next.String(), balance)
	}
	return nil
}

// Config is one autobet session. Count 0 runs until another condition
// stops it; zero thresholds are disabled.
type Config struct {
	Game         outcome.Game   `json:"game"`
	Params       outcome.Params `json:"params"`
	BaseStake    int64          `json:"base_stake"`
	OnWin        Progression    `json:"on_win"`
	OnLoss       Progression    `json:"on_loss"`
	Count        int            `json:"count"`
	StopOnProfit int64          `json:"stop_on_profit"`
	StopOnLoss   int64          `json:"stop_on_loss"`
	Interval     time.Duration  `json:"interval"`
}

// Validate runs every check that can fail before the first bet.
func (c Config) Validate(balance int64) error {
	if c.BaseStake <= 0 {
		return fmt.Errorf("%w: base stake must be positive", ErrInvalidConfig)
	}
	if c.BaseStake > balance {
		return fmt.Errorf("%w: base stake %d exceeds balance %d", ErrInvalidConfig, c.BaseStake, balance)
	}
	if err := c.OnWin.validate("on_win"); err != nil {
		return err
	}
	if err := c.OnLoss.validate("on_loss"); err != nil {
		return err
	}
	if err := c.OnWin.checkFirst("on_win", c.BaseStake, balance); err != nil {
		return err
	}
	if err := c.OnLoss.checkFirst("on_loss", c.BaseStake, balance); err != nil {
		return err
	}
	if c.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrInvalidConfig)
	}
	if c.StopOnProfit < 0 || c.StopOnLoss < 0 {
		return fmt.Errorf("%w: stop thresholds must not be negative", ErrInvalidConfig)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidConfig)
	}
	if !c.Game.Valid() {
		return fmt.Errorf("%w: unsupported game %q", ErrInvalidConfig, c.Game)
	}
	if err := outcome.ValidateParams(c.Game, c.Params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.Game {
	case outcome.Mines, outcome.Tower:
		if len(c.Params.Picks) == 0 {
			return fmt.Errorf("%w: %s needs a pick plan", ErrInvalidConfig, c.Game)
		}
	case outcome.Crash:
		if c.Params.AutoCashout == 0 {
			return fmt.Errorf("%w: crash needs an auto cashout", ErrInvalidConfig)
		}
	}
	return nil
}
