package outcome

import (
	"errors"
	"testing"

	"fair-casino/internal/fairness"
)

func testStream(nonce int64) *fairness.Stream {
	return fairness.NewStream("server-seed", "client-seed", nonce)
}

func safeCells(r *MinesRound) []int {
	var out []int
	for i, mine := range r.Cells {
		if !mine {
			out = append(out, i)
		}
	}
	return out
}

func TestMinesPlacementIsDistinct(t *testing.T) {
	for nonce := int64(0); nonce < 50; nonce++ {
		r, err := NewMinesRound(testStream(nonce), Params{Mines: 7})
		if err != nil {
			t.Fatalf("new round: %v", err)
		}
		if got := len(r.mines()); got != 7 {
			t.Fatalf("nonce %d: expected 7 mines, got %d", nonce, got)
		}
	}
}

func TestMinesMultiplierAfterOneReveal(t *testing.T) {
	r, err := NewMinesRound(testStream(1), Params{Mines: 3})
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	want := 25.0 / 22.0 * MinesEdge
	if got := r.NextMultiplier(); !near(got, want) {
		t.Fatalf("next multiplier: expected %v, got %v", want, got)
	}
	if len(r.Revealed) != 0 {
		t.Fatalf("next multiplier must not reveal")
	}
	step, err := r.Apply(Action{Kind: ActionReveal, Index: safeCells(r)[0]})
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if !near(step.Multiplier, want) || step.Done {
		t.Fatalf("unexpected step %+v", step)
	}
	if _, err := r.Apply(Action{Kind: ActionCashout}); err != nil {
		t.Fatalf("cashout: %v", err)
	}
	res := r.Result(1000)
	if res.Kind != Win || res.Payout != 1125 {
		t.Fatalf("expected win paying 1125, got %s paying %d", res.Kind, res.Payout)
	}
}

func TestMinesLastSafeCellForcesWin(t *testing.T) {
	r, _ := NewMinesRound(testStream(2), Params{Mines: 3})
	for _, c := range safeCells(r) {
		if r.Done() {
			t.Fatalf("round ended early")
		}
		if _, err := r.Apply(Action{Kind: ActionReveal, Index: c}); err != nil {
			t.Fatalf("reveal %d: %v", c, err)
		}
	}
	if !r.Done() {
		t.Fatalf("round should end after last safe cell")
	}
	res := r.Result(100)
	if res.Kind != Win || !near(res.Multiplier, MinesMultiplier(25, 3, 22)) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestMinesSingleGem(t *testing.T) {
	r, _ := NewMinesRound(testStream(3), Params{Mines: 24})
	gems := safeCells(r)
	if len(gems) != 1 {
		t.Fatalf("expected one gem, got %d", len(gems))
	}
	if _, err := r.Apply(Action{Kind: ActionReveal, Index: gems[0]}); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	res := r.Result(100)
	if !near(res.Multiplier, 25*MinesEdge) || res.Payout != 2475 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestMinesHitEndsRound(t *testing.T) {
	r, _ := NewMinesRound(testStream(4), Params{Mines: 5})
	mine := r.mines()[0]
	if _, err := r.Apply(Action{Kind: ActionReveal, Index: mine}); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if !r.Done() {
		t.Fatalf("mine should end the round")
	}
	if res := r.Result(100); res.Kind != Loss || res.Payout != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := r.Apply(Action{Kind: ActionReveal, Index: 0}); !errors.Is(err, ErrRoundOver) {
		t.Fatalf("expected round over, got %v", err)
	}
}

func TestMinesRejectsBadInput(t *testing.T) {
	if _, err := NewMinesRound(testStream(0), Params{Mines: 25}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected invalid params, got %v", err)
	}
	r, _ := NewMinesRound(testStream(0), Params{Mines: 1})
	if _, err := r.Apply(Action{Kind: ActionCashout}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("cashout before reveal: expected invalid action, got %v", err)
	}
	c := safeCells(r)[0]
	r.Apply(Action{Kind: ActionReveal, Index: c})
	if _, err := r.Apply(Action{Kind: ActionReveal, Index: c}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("double reveal: expected invalid action, got %v", err)
	}
}
