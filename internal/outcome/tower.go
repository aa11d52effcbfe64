package outcome

import (
	"fmt"
	"math"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Expert Difficulty = "expert"
	Master Difficulty = "master"
)

const TowerRows = 9

type towerShape struct {
	tiles int
	safe  int
}

var towerShapes = map[Difficulty]towerShape{
	Easy:   {tiles: 4, safe: 3},
	Medium: {tiles: 3, safe: 2},
	Hard:   {tiles: 2, safe: 1},
	Expert: {tiles: 3, safe: 1},
	Master: {tiles: 4, safe: 1},
}

func towerLayout(d Difficulty) (towerShape, error) {
	s, ok := towerShapes[d]
	if !ok {
		return towerShape{}, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidParams, d)
	}
	return s, nil
}

func validateTower(p Params) error {
	s, err := towerLayout(p.Difficulty)
	if err != nil {
		return err
	}
	for _, c := range p.Picks {
		if c < 0 || c >= s.tiles {
			return fmt.Errorf("%w: pick %d outside row", ErrInvalidParams, c)
		}
	}
	return nil
}

// TowerMultiplier compounds tiles/safe per climbed row, then applies the edge.
func TowerMultiplier(d Difficulty, rows int) float64 {
	s, err := towerLayout(d)
	if err != nil || rows <= 0 {
		return 1
	}
	return math.Pow(float64(s.tiles)/float64(s.safe), float64(rows)) * TowerEdge
}

type TowerOutcome struct {
	Dragons [][]bool `json:"dragons"`
	Picks   []int    `json:"picks"`
	HitRow  int      `json:"hit_row"`
}

type TowerView struct {
	Difficulty     Difficulty `json:"difficulty"`
	Tiles          int        `json:"tiles"`
	Row            int        `json:"row"`
	Picks          []int      `json:"picks"`
	Multiplier     float64    `json:"multiplier"`
	NextMultiplier float64    `json:"next_multiplier"`
}

// TowerRound holds all rows up front; Row is the next row to climb.
type TowerRound struct {
	Difficulty Difficulty `json:"difficulty"`
	Dragons    [][]bool   `json:"dragons"`
	Picks      []int      `json:"picks"`
	Lost       bool       `json:"lost"`
	CashedOut  bool       `json:"cashed_out"`
	shape      towerShape
}

func NewTowerRound(u Uniforms, p Params) (*TowerRound, error) {
	shape, err := towerLayout(p.Difficulty)
	if err != nil {
		return nil, err
	}
	for _, c := range p.Picks {
		if c < 0 || c >= shape.tiles {
			return nil, fmt.Errorf("%w: pick %d outside row", ErrInvalidParams, c)
		}
	}
	rows := make([][]bool, TowerRows)
	for i := range rows {
		rows[i] = placeDistinct(u, shape.tiles, shape.tiles-shape.safe)
	}
	return &TowerRound{
		Difficulty: p.Difficulty,
		Dragons:    rows,
		Picks:      []int{},
		shape:      shape,
	}, nil
}

// Row is the index of the next row to climb.
func (r *TowerRound) Row() int {
	if r.Lost {
		return len(r.Picks) - 1
	}
	return len(r.Picks)
}

func (r *TowerRound) climbed() int {
	if r.Lost {
		return 0
	}
	return len(r.Picks)
}

func (r *TowerRound) Multiplier() float64 {
	if r.Lost {
		return 0
	}
	return TowerMultiplier(r.Difficulty, r.climbed())
}

func (r *TowerRound) NextMultiplier() float64 {
	if r.Done() {
		return 0
	}
	return TowerMultiplier(r.Difficulty, r.climbed()+1)
}

func (r *TowerRound) Done() bool {
	return r.Lost || r.CashedOut || len(r.Picks) == TowerRows
}

func (r *TowerRound) Apply(a Action) (Step, error) {
	if r.Done() {
		return Step{}, ErrRoundOver
	}
	switch a.Kind {
	case ActionReveal:
		if a.Index < 0 || a.Index >= r.shape.tiles {
			return Step{}, fmt.Errorf("%w: tile %d outside row", ErrInvalidAction, a.Index)
		}
		row := len(r.Picks)
		r.Picks = append(r.Picks, a.Index)
		if r.Dragons[row][a.Index] {
			r.Lost = true
		}
	case ActionCashout:
		if len(r.Picks) == 0 {
			return Step{}, fmt.Errorf("%w: nothing climbed", ErrInvalidAction)
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

// Autoplay climbs one planned tile per row, then cashes out.
func (r *TowerRound) Autoplay(p Params) error {
	for _, c := range p.Picks {
		if r.Done() {
			return nil
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

func (r *TowerRound) View() any {
	return TowerView{
		Difficulty:     r.Difficulty,
		Tiles:          r.shape.tiles,
		Row:            r.Row(),
		Picks:          append([]int(nil), r.Picks...),
		Multiplier:     r.Multiplier(),
		NextMultiplier: r.NextMultiplier(),
	}
}

func (r *TowerRound) Result(stake int64) Result {
	hit := -1
	if r.Lost {
		hit = len(r.Picks) - 1
	}
	dragons := make([][]bool, len(r.Dragons))
	for i, row := range r.Dragons {
		dragons[i] = append([]bool(nil), row...)
	}
	detail := TowerOutcome{Dragons: dragons, Picks: append([]int(nil), r.Picks...), HitRow: hit}
	return settle(stake, r.Multiplier(), detail)
}
