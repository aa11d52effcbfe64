package outcome

import "fmt"

const (
	DealerStandsOn = 17
	DefaultStandOn = 17
)

type BlackjackOutcome struct {
	Player       []Card `json:"player"`
	Dealer       []Card `json:"dealer"`
	PlayerTotal  int    `json:"player_total"`
	DealerTotal  int    `json:"dealer_total"`
	Natural      bool   `json:"natural"`
	PlayerBusted bool   `json:"player_busted"`
	DealerBusted bool   `json:"dealer_busted"`
}

type BlackjackView struct {
	Player      []Card `json:"player"`
	PlayerTotal int    `json:"player_total"`
	DealerUp    Card   `json:"dealer_up"`
	Dealer      []Card `json:"dealer,omitempty"`
	Done        bool   `json:"done"`
}

// BlackjackRound is one hand against the dealer. Only hit and stand are
// offered.
type BlackjackRound struct {
	Player []Card `json:"player"`
	Dealer []Card `json:"dealer"`
	Stood  bool   `json:"stood"`
	deck   *Deck
}

func validateStandOn(v int) error {
	if v != 0 && (v < 4 || v > 21) {
		return fmt.Errorf("%w: stand_on must be within [4, 21]", ErrInvalidParams)
	}
	return nil
}

func NewBlackjackRound(u Uniforms, p Params) (*BlackjackRound, error) {
	if err := validateStandOn(p.StandOn); err != nil {
		return nil, err
	}
	deck := NewDeck()
	deck.Shuffle(u)
	r := &BlackjackRound{deck: deck}
	r.Player = append(r.Player, deck.Deal())
	r.Dealer = append(r.Dealer, deck.Deal())
	r.Player = append(r.Player, deck.Deal())
	r.Dealer = append(r.Dealer, deck.Deal())
	if IsNatural(r.Player) || IsNatural(r.Dealer) {
		r.Stood = true
	}
	return r, nil
}

func (r *BlackjackRound) Done() bool {
	return r.Stood || HandValue(r.Player) > 21
}

// NextMultiplier is what a winning hand would pay from here.
func (r *BlackjackRound) NextMultiplier() float64 {
	if r.Done() {
		return 0
	}
	return BlackjackWin
}

func (r *BlackjackRound) Apply(a Action) (Step, error) {
	if r.Done() {
		return Step{}, ErrRoundOver
	}
	switch a.Kind {
	case ActionHit:
		r.Player = append(r.Player, r.deck.Deal())
	case ActionStand:
		r.Stood = true
		r.playDealer()
	default:
		return Step{}, fmt.Errorf("%w: %s", ErrInvalidAction, a.Kind)
	}
	step := Step{Action: a, NextMultiplier: r.NextMultiplier(), Done: r.Done(), Detail: r.View()}
	if step.Done {
		step.Multiplier = r.multiplier()
	}
	return step, nil
}

func (r *BlackjackRound) playDealer() {
	for HandValue(r.Dealer) < DealerStandsOn {
		r.Dealer = append(r.Dealer, r.deck.Deal())
	}
}

// Autoplay hits below the planned total and then stands.
func (r *BlackjackRound) Autoplay(p Params) error {
	standOn := p.StandOn
	if standOn == 0 {
		standOn = DefaultStandOn
	}
	for !r.Done() {
		kind := ActionStand
		if HandValue(r.Player) < standOn {
			kind = ActionHit
		}
		if _, err := r.Apply(Action{Kind: kind}); err != nil {
			return err
		}
	}
	return nil
}

func (r *BlackjackRound) multiplier() float64 {
	player, dealer := HandValue(r.Player), HandValue(r.Dealer)
	pNat, dNat := IsNatural(r.Player), IsNatural(r.Dealer)
	switch {
	case pNat && dNat:
		return BlackjackPush
	case pNat:
		return BlackjackNatural
	case dNat:
		return 0
	case player > 21:
		return 0
	case dealer > 21 || player > dealer:
		return BlackjackWin
	case player == dealer:
		return BlackjackPush
	default:
		return 0
	}
}

func (r *BlackjackRound) View() any {
	v := BlackjackView{
		Player:      append([]Card(nil), r.Player...),
		PlayerTotal: HandValue(r.Player),
		DealerUp:    r.Dealer[0],
		Done:        r.Done(),
	}
	if v.Done {
		v.Dealer = append([]Card(nil), r.Dealer...)
	}
	return v
}

func (r *BlackjackRound) Result(stake int64) Result {
	player, dealer := HandValue(r.Player), HandValue(r.Dealer)
	detail := BlackjackOutcome{
		Player:       append([]Card(nil), r.Player...),
		Dealer:       append([]Card(nil), r.Dealer...),
		PlayerTotal:  player,
		DealerTotal:  dealer,
		Natural:      IsNatural(r.Player),
		PlayerBusted: player > 21,
		DealerBusted: dealer > 21,
	}
	return settle(stake, r.multiplier(), detail)
}
