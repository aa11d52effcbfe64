package outcome

import (
	"errors"
	"math"
	"testing"
)

func safeTile(r *TowerRound, row int) int {
	for i, dragon := range r.Dragons[row] {
		if !dragon {
			return i
		}
	}
	return -1
}

func dragonTile(r *TowerRound, row int) int {
	for i, dragon := range r.Dragons[row] {
		if dragon {
			return i
		}
	}
	return -1
}

func TestTowerRowsHaveExactDragons(t *testing.T) {
	for d, shape := range towerShapes {
		r, err := NewTowerRound(testStream(5), Params{Difficulty: d})
		if err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		for i, row := range r.Dragons {
			n := 0
			for _, dragon := range row {
				if dragon {
					n++
				}
			}
			if n != shape.tiles-shape.safe {
				t.Fatalf("%s row %d: expected %d dragons, got %d", d, i, shape.tiles-shape.safe, n)
			}
		}
	}
}

func TestTowerCompounds(t *testing.T) {
	r, _ := NewTowerRound(testStream(6), Params{Difficulty: Hard})
	for row := 0; row < 3; row++ {
		if _, err := r.Apply(Action{Kind: ActionReveal, Index: safeTile(r, row)}); err != nil {
			t.Fatalf("row %d: %v", row, err)
		}
	}
	if got, want := r.Multiplier(), 8*TowerEdge; !near(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got, want := r.NextMultiplier(), 16*TowerEdge; !near(got, want) {
		t.Fatalf("expected next %v, got %v", want, got)
	}
	r.Apply(Action{Kind: ActionCashout})
	if res := r.Result(100); res.Payout != 784 || res.Kind != Win {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTowerTopRowForcesWin(t *testing.T) {
	r, _ := NewTowerRound(testStream(7), Params{Difficulty: Easy})
	for row := 0; row < TowerRows; row++ {
		r.Apply(Action{Kind: ActionReveal, Index: safeTile(r, row)})
	}
	if !r.Done() {
		t.Fatalf("round should end at the top")
	}
	want := math.Pow(4.0/3.0, TowerRows) * TowerEdge
	if res := r.Result(100); !near(res.Multiplier, want) {
		t.Fatalf("expected %v, got %v", want, res.Multiplier)
	}
}

func TestTowerDragonZeroes(t *testing.T) {
	r, _ := NewTowerRound(testStream(8), Params{Difficulty: Medium})
	r.Apply(Action{Kind: ActionReveal, Index: safeTile(r, 0)})
	r.Apply(Action{Kind: ActionReveal, Index: dragonTile(r, 1)})
	if !r.Done() || r.Multiplier() != 0 {
		t.Fatalf("dragon should end the round at zero")
	}
	if out := r.Result(100).Outcome.(TowerOutcome); out.HitRow != 1 {
		t.Fatalf("expected hit on row 1, got %d", out.HitRow)
	}
}

func TestTowerRejectsUnknownDifficulty(t *testing.T) {
	if _, err := NewTowerRound(testStream(0), Params{Difficulty: "legend"}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected invalid params, got %v", err)
	}
}
