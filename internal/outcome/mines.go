package outcome

import (
	"fmt"
	"sort"
)

const MinesGridSize = 25

type MinesOutcome struct {
	Mines    []int `json:"mines"`
	Revealed []int `json:"revealed"`
	HitMine  bool  `json:"hit_mine"`
}

// MinesView hides mine positions until the round is over.
type MinesView struct {
	MineCount      int     `json:"mine_count"`
	Revealed       []int   `json:"revealed"`
	Multiplier     float64 `json:"multiplier"`
	NextMultiplier float64 `json:"next_multiplier"`
}

// MinesRound is the state of one grid-reveal bet.
type MinesRound struct {
	MineCount int    `json:"mine_count"`
	Cells     []bool `json:"cells"`
	Revealed  []int  `json:"revealed"`
	HitMine   bool   `json:"hit_mine"`
	CashedOut bool   `json:"cashed_out"`
}

// MinesMultiplier is the reciprocal survival probability of k safe reveals
// on an n cell grid holding m mines, deflated once by the edge.
func MinesMultiplier(n, m, k int) float64 {
	if k <= 0 {
		return 1
	}
	out := 1.0
	for i := 0; i < k; i++ {
		out *= float64(n-i) / float64(n-m-i)
	}
	return out * MinesEdge
}

func validateMines(p Params) error {
	if p.Mines < 1 || p.Mines > MinesGridSize-1 {
		return fmt.Errorf("%w: mines must be within [1, %d]", ErrInvalidParams, MinesGridSize-1)
	}
	for _, c := range p.Picks {
		if c < 0 || c >= MinesGridSize {
			return fmt.Errorf("%w: pick %d outside grid", ErrInvalidParams, c)
		}
	}
	return nil
}

// placeDistinct draws count distinct indices below n, redrawing collisions.
func placeDistinct(u Uniforms, n, count int) []bool {
	cells := make([]bool, n)
	for placed := 0; placed < count; {
		i := u.Intn(n)
		if cells[i] {
			continue
		}
		cells[i] = true
		placed++
	}
	return cells
}

func NewMinesRound(u Uniforms, p Params) (*MinesRound, error) {
	if err := validateMines(p); err != nil {
		return nil, err
	}
	return &MinesRound{
		MineCount: p.Mines,
		Cells:     placeDistinct(u, MinesGridSize, p.Mines),
		Revealed:  []int{},
	}, nil
}

func (r *MinesRound) safeCells() int { return MinesGridSize - r.MineCount }

func (r *MinesRound) Multiplier() float64 {
	if r.HitMine {
		return 0
	}
	return MinesMultiplier(MinesGridSize, r.MineCount, len(r.Revealed))
}

func (r *MinesRound) NextMultiplier() float64 {
	if r.Done() {
		return 0
	}
	return MinesMultiplier(MinesGridSize, r.MineCount, len(r.Revealed)+1)
}

func (r *MinesRound) Done() bool {
	return r.HitMine || r.CashedOut || len(r.Revealed) == r.safeCells()
}

func (r *MinesRound) revealed(cell int) bool {
	for _, c := range r.Revealed {
		if c == cell {
			return true
		}
	}
	return false
}

func (r *MinesRound) Apply(a Action) (Step, error) {
	if r.Done() {
		return Step{}, ErrRoundOver
	}
	switch a.Kind {
	case ActionReveal:
		if a.Index < 0 || a.Index >= MinesGridSize {
			return Step{}, fmt.Errorf("%w: cell %d outside grid", ErrInvalidAction, a.Index)
		}
		if r.revealed(a.Index) {
			return Step{}, fmt.Errorf("%w: cell %d already revealed", ErrInvalidAction, a.Index)
		}
		if r.Cells[a.Index] {
			r.HitMine = true
		} else {
			r.Revealed = append(r.Revealed, a.Index)
		}
	case ActionCashout:
		if len(r.Revealed) == 0 {
			return Step{}, fmt.Errorf("%w: nothing revealed", ErrInvalidAction)
		}
		r.CashedOut = true
	default:
		return Step{}, fmt.Errorf("%w: %s", ErrInvalidAction, a.Kind)
	}
	return Step{
		Action:         a,
		Multiplier:     r.Multiplier(),
		NextMultiplier: r.NextMultiplier(),
		Done:           r.Done(),
		Detail:         r.View(),
	}, nil
}

// Autoplay reveals the planned picks in order and cashes out.
func (r *MinesRound) Autoplay(p Params) error {
	for _, c := range p.Picks {
		if r.Done() {
			return nil
		}
		if r.revealed(c) {
			continue
		}
		if _, err := r.Apply(Action{Kind: ActionReveal, Index: c}); err != nil {
			return err
		}
	}
	if r.Done() {
		return nil
	}
	_, err := r.Apply(Action{Kind: ActionCashout})
	return err
}

func (r *MinesRound) View() any {
	return MinesView{
		MineCount:      r.MineCount,
		Revealed:       append([]int(nil), r.Revealed...),
		Multiplier:     r.Multiplier(),
		NextMultiplier: r.NextMultiplier(),
	}
}

func (r *MinesRound) mines() []int {
	out := make([]int, 0, r.MineCount)
	for i, m := range r.Cells {
		if m {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

func (r *MinesRound) Result(stake int64) Result {
	detail := MinesOutcome{
		Mines:    r.mines(),
		Revealed: append([]int(nil), r.Revealed...),
		HitMine:  r.HitMine,
	}
	return settle(stake, r.Multiplier(), detail)
}
