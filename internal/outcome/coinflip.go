package outcome

import "fmt"

type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

type CoinflipOutcome struct {
	Landed Side `json:"landed"`
	Picked Side `json:"picked"`
}

func validateSide(s Side) error {
	if s != Heads && s != Tails {
		return fmt.Errorf("%w: side must be heads or tails", ErrInvalidParams)
	}
	return nil
}

func EvaluateCoinflip(u Uniforms, stake int64, p Params) (Result, error) {
	if err := validateSide(p.Side); err != nil {
		return Result{}, err
	}
	landed := Tails
	if u.Float() < 0.5 {
		landed = Heads
	}
	multiplier := 0.0
	if landed == p.Side {
		multiplier = CoinflipMultiplier
	}
	return settle(stake, multiplier, CoinflipOutcome{Landed: landed, Picked: p.Side}), nil
}
