package outcome

import "fmt"

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

const (
	PlinkoMinRows = 8
	PlinkoMaxRows = 16
)

type PlinkoOutcome struct {
	Path   []bool `json:"path"`
	Bucket int    `json:"bucket"`
	Rows   int    `json:"rows"`
	Risk   Risk   `json:"risk"`
}

func plinkoTable(risk Risk, rows int) ([]float64, error) {
	if rows < PlinkoMinRows || rows > PlinkoMaxRows {
		return nil, fmt.Errorf("%w: rows must be within [%d, %d]", ErrInvalidParams, PlinkoMinRows, PlinkoMaxRows)
	}
	byRows, ok := plinkoTables[risk]
	if !ok {
		return nil, fmt.Errorf("%w: unknown risk %q", ErrInvalidParams, risk)
	}
	return byRows[rows], nil
}

// PlinkoMultipliers returns the bucket table for a risk level and row count.
func PlinkoMultipliers(risk Risk, rows int) ([]float64, error) {
	t, err := plinkoTable(risk, rows)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t))
	copy(out, t)
	return out, nil
}

// EvaluatePlinko drops one ball. Each row draws one uniform and u >= 0.5
// bounces right; the bucket is the number of right bounces.
func EvaluatePlinko(u Uniforms, stake int64, p Params) (Result, error) {
	table, err := plinkoTable(p.Risk, p.Rows)
	if err != nil {
		return Result{}, err
	}
	path := make([]bool, p.Rows)
	bucket := 0
	for i := range path {
		if u.Float() >= 0.5 {
			path[i] = true
			bucket++
		}
	}
	detail := PlinkoOutcome{Path: path, Bucket: bucket, Rows: p.Rows, Risk: p.Risk}
	return settle(stake, table[bucket], detail), nil
}
