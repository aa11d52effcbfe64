// Package outcome maps a uniform stream and game parameters to a bet result.
// Every calculator is deterministic: the same stream, parameters and action
// log always produce the same Result.
package outcome

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Game string

const (
	Dice      Game = "dice"
	Mines     Game = "mines"
	Crash     Game = "crash"
	Plinko    Game = "plinko"
	Coinflip  Game = "coinflip"
	Blackjack Game = "blackjack"
	Tower     Game = "tower"
)

// Games lists every supported variant in a stable order.
var Games = []Game{Dice, Mines, Crash, Plinko, Coinflip, Blackjack, Tower}

func (g Game) Valid() bool {
	for _, v := range Games {
		if v == g {
			return true
		}
	}
	return false
}

// Interactive games are played through a Round; the others resolve in a
// single draw.
func (g Game) Interactive() bool {
	switch g {
	case Mines, Tower, Blackjack, Crash:
		return true
	default:
		return false
	}
}

type Kind string

const (
	Win  Kind = "win"
	Loss Kind = "loss"
	Push Kind = "push"
)

var (
	ErrUnknownGame     = errors.New("unknown_game")
	ErrInvalidParams   = errors.New("invalid_params")
	ErrInvalidAction   = errors.New("invalid_action")
	ErrRoundOver       = errors.New("round_over")
	ErrRoundIncomplete = errors.New("round_incomplete")
)

// Uniforms is the randomness a calculator consumes. fairness.Stream
// satisfies it.
type Uniforms interface {
	Float() float64
	Intn(n int) int
}

// Params carries the game specific inputs. Only the fields of the chosen
// game are read. Picks and StandOn are the plan an interactive game follows
// when no explicit actions are given, which is how autobet drives them.
type Params struct {
	Target      float64    `json:"target,omitempty"`
	Over        bool       `json:"over,omitempty"`
	Mines       int        `json:"mines,omitempty"`
	Picks       []int      `json:"picks,omitempty"`
	AutoCashout float64    `json:"auto_cashout,omitempty"`
	Rows        int        `json:"rows,omitempty"`
	Risk        Risk       `json:"risk,omitempty"`
	Side        Side       `json:"side,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	StandOn     int        `json:"stand_on,omitempty"`
}

type ActionKind string

const (
	ActionReveal  ActionKind = "reveal"
	ActionCashout ActionKind = "cashout"
	ActionHit     ActionKind = "hit"
	ActionStand   ActionKind = "stand"
)

// Action is one player decision inside an interactive round. Multiplier is
// only used by crash cash-outs and records the live value at the moment of
// the request.
type Action struct {
	Kind       ActionKind `json:"kind"`
	Index      int        `json:"index,omitempty"`
	Multiplier float64    `json:"multiplier,omitempty"`
}

// Request is the pure input of a calculator.
type Request struct {
	Game    Game     `json:"game"`
	Stake   int64    `json:"stake"`
	Params  Params   `json:"params"`
	Actions []Action `json:"actions,omitempty"`
}

// Result is the settled outcome of one bet.
type Result struct {
	Outcome    any     `json:"outcome"`
	Multiplier float64 `json:"multiplier"`
	Payout     int64   `json:"payout"`
	Kind       Kind    `json:"result"`
}

// Step is emitted after every applied action so callers can stream reveals.
type Step struct {
	Action         Action  `json:"action"`
	Multiplier     float64 `json:"multiplier"`
	NextMultiplier float64 `json:"next_multiplier,omitempty"`
	Done           bool    `json:"done"`
	Detail         any     `json:"detail,omitempty"`
}

// Round is the explicit state of an interactive game for the duration of one
// bet. NextMultiplier must not mutate the round.
type Round interface {
	Apply(a Action) (Step, error)
	NextMultiplier() float64
	Done() bool
	Result(stake int64) Result
	// Autoplay finishes the round by following the plan in Params.
	Autoplay(p Params) error
	// View is the state a player may see while the round is open.
	View() any
}

// NewRound starts an interactive round.
func NewRound(u Uniforms, g Game, p Params) (Round, error) {
	switch g {
	case Mines:
		return NewMinesRound(u, p)
	case Tower:
		return NewTowerRound(u, p)
	case Blackjack:
		return NewBlackjackRound(u, p)
	case Crash:
		return NewCrashRound(u, p)
	}
	if g.Valid() {
		return nil, fmt.Errorf("%w: %s is not interactive", ErrInvalidParams, g)
	}
	return nil, ErrUnknownGame
}

// Evaluate resolves a bet. Interactive games replay req.Actions and then
// follow the plan in req.Params until the round is done. Actions left over
// once the round has ended are ignored.
func Evaluate(u Uniforms, req Request) (Result, error) {
	if req.Stake <= 0 {
		return Result{}, fmt.Errorf("%w: stake must be positive", ErrInvalidParams)
	}
	switch req.Game {
	case Dice:
		return EvaluateDice(u, req.Stake, req.Params)
	case Coinflip:
		return EvaluateCoinflip(u, req.Stake, req.Params)
	case Plinko:
		return EvaluatePlinko(u, req.Stake, req.Params)
	}
	round, err := NewRound(u, req.Game, req.Params)
	if err != nil {
		return Result{}, err
	}
	for _, a := range req.Actions {
		if round.Done() {
			break
		}
		if _, err := round.Apply(a); err != nil {
			return Result{}, err
		}
	}
	if !round.Done() {
		if err := round.Autoplay(req.Params); err != nil {
			return Result{}, err
		}
	}
	if !round.Done() {
		return Result{}, ErrRoundIncomplete
	}
	return round.Result(req.Stake), nil
}

// ValidateParams checks parameters without consuming randomness.
func ValidateParams(g Game, p Params) error {
	switch g {
	case Dice:
		_, err := diceWinChance(p)
		return err
	case Coinflip:
		return validateSide(p.Side)
	case Plinko:
		_, err := plinkoTable(p.Risk, p.Rows)
		return err
	case Mines:
		return validateMines(p)
	case Tower:
		return validateTower(p)
	case Blackjack:
		return validateStandOn(p.StandOn)
	case Crash:
		return validateAutoCashout(p.AutoCashout)
	}
	return ErrUnknownGame
}

// ValidatePlan checks a one-shot bet, which is played entirely from its
// params: mines and tower must carry a pick plan.
func ValidatePlan(g Game, p Params) error {
	if err := ValidateParams(g, p); err != nil {
		return err
	}
	if (g == Mines || g == Tower) && len(p.Picks) == 0 {
		return fmt.Errorf("%w: %s needs a pick plan", ErrInvalidParams, g)
	}
	return nil
}

// multiplierScale bounds float noise in products like (25/22)*0.99 before
// they touch money.
const multiplierScale = 8

// Payout is floor(stake * multiplier) in minor units.
func Payout(stake int64, multiplier float64) int64 {
	if multiplier <= 0 || stake <= 0 {
		return 0
	}
	m := decimal.NewFromFloat(multiplier).Round(multiplierScale)
	return decimal.NewFromInt(stake).Mul(m).Floor().IntPart()
}

func settle(stake int64, multiplier float64, detail any) Result {
	payout := Payout(stake, multiplier)
	return Result{
		Outcome:    detail,
		Multiplier: multiplier,
		Payout:     payout,
		Kind:       classify(stake, payout),
	}
}

func classify(stake, payout int64) Kind {
	switch {
	case payout > stake:
		return Win
	case payout == stake:
		return Push
	default:
		return Loss
	}
}
