package outcome

import (
	"fmt"
	"math"
)

type DiceOutcome struct {
	Roll      float64 `json:"roll"`
	Target    float64 `json:"target"`
	Over      bool    `json:"over"`
	WinChance float64 `json:"win_chance"`
	Won       bool    `json:"won"`
}

// DiceMultiplier is the published payout for a win chance in percent.
func DiceMultiplier(winChance float64) float64 {
	return DiceNumerator / winChance
}

func diceWinChance(p Params) (float64, error) {
	t := math.Round(p.Target*100) / 100
	if math.IsNaN(t) || t <= 0 || t >= 100 {
		return 0, fmt.Errorf("%w: target must be within (0, 100)", ErrInvalidParams)
	}
	w := t
	if p.Over {
		w = math.Round((100-t)*100) / 100
	}
	if w < DiceMinChance || w > DiceMaxChance {
		return 0, fmt.Errorf("%w: win chance %.2f outside [%.2f, %.2f]", ErrInvalidParams, w, DiceMinChance, DiceMaxChance)
	}
	return w, nil
}

// EvaluateDice rolls in hundredths so the comparison with the target is
// exact: over wins on roll >= target, under wins on roll < target.
func EvaluateDice(u Uniforms, stake int64, p Params) (Result, error) {
	w, err := diceWinChance(p)
	if err != nil {
		return Result{}, err
	}
	roll := int64(u.Float() * 10000)
	target := int64(math.Round(p.Target * 100))
	won := roll < target
	if p.Over {
		won = roll >= target
	}
	detail := DiceOutcome{
		Roll:      float64(roll) / 100,
		Target:    float64(target) / 100,
		Over:      p.Over,
		WinChance: w,
		Won:       won,
	}
	multiplier := 0.0
	if won {
		multiplier = DiceMultiplier(w)
	}
	return settle(stake, multiplier, detail), nil
}
