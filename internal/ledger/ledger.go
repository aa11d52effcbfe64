// Package ledger runs the wager state machine of one player session: an
// optimistic debit, a local outcome, an authoritative settlement and then
// reconciliation or an exact rollback.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"fair-casino/internal/fairness"
	"fair-casino/internal/outcome"

	"github.com/rs/zerolog/log"
)

type State string

const (
	StateIdle       State = "idle"
	StatePlacing    State = "placing"
	StatePlaying    State = "playing"
	StateAwaiting   State = "awaiting_settlement"
	StateWon        State = "won"
	StateLost       State = "lost"
	StatePushed     State = "pushed"
	StateReconciled State = "reconciled"
	StateRolledBack State = "rolled_back"
)

// BetRequest is immutable once submitted. SeedPairID, ClientSeed and Nonce
// are filled in by the ledger when the nonce is allocated.
type BetRequest struct {
	outcome.Request
	PlayerID   string `json:"player_id"`
	SeedPairID string `json:"seed_pair_id"`
	ClientSeed string `json:"client_seed"`
	Nonce      int64  `json:"nonce"`
}

// Settlement is the authoritative answer for one nonce. ConfirmedBalance is
// nil when the settler does not track balances.
type Settlement struct {
	BetID            string          `json:"bet_id"`
	Payout           int64           `json:"payout"`
	Multiplier       float64         `json:"multiplier"`
	Result           outcome.Kind    `json:"result"`
	RawOutcome       json.RawMessage `json:"outcome"`
	ConfirmedBalance *int64          `json:"confirmed_balance,omitempty"`
}

// Settler must treat a repeated (seed pair, nonce) as already applied.
type Settler interface {
	Settle(ctx context.Context, req BetRequest) (Settlement, error)
}

// Seeds is the part of the seed manager the ledger drives.
type Seeds interface {
	Active() fairness.PublicPair
	Hold() error
	Release()
	NextNonce(ctx context.Context, pairID string) (int64, error)
	Stream(pairID string, nonce int64) (*fairness.Stream, error)
}

type Options struct {
	PlayerID      string
	Seeds         Seeds
	Wallet        Wallet
	Settler       Settler
	History       History
	Events        *EventBuffer
	NewID         func() string
	SettleTimeout time.Duration
	TickInterval  time.Duration
}

type Ledger struct {
	playerID      string
	seeds         Seeds
	wallet        Wallet
	settler       Settler
	history       History
	events        *EventBuffer
	newID         func() string
	now           func() time.Time
	settleTimeout time.Duration
	tickInterval  time.Duration

	mu     sync.Mutex
	state  State
	halted *FairnessError
	round  *openRound
	last   *BetRecord
	closed bool
}

func New(opts Options) *Ledger {
	if opts.Events == nil {
		opts.Events = NewEventBuffer(500)
	}
	if opts.History == nil {
		opts.History = NewMemoryHistory(500)
	}
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = 5 * time.Second
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	return &Ledger{
		playerID:      opts.PlayerID,
		seeds:         opts.Seeds,
		wallet:        opts.Wallet,
		settler:       opts.Settler,
		history:       opts.History,
		events:        opts.Events,
		newID:         opts.NewID,
		now:           time.Now,
		settleTimeout: opts.SettleTimeout,
		tickInterval:  opts.TickInterval,
		state:         StateIdle,
	}
}

func (l *Ledger) Events() *EventBuffer { return l.events }

func (l *Ledger) Balance(ctx context.Context) (int64, error) { return l.wallet.Balance(ctx) }

// Snapshot is the read model served to the UI.
type Snapshot struct {
	State   State          `json:"state"`
	Balance int64          `json:"balance"`
	Halted  *FairnessError `json:"halted,omitempty"`
	Round   any            `json:"round,omitempty"`
	Last    *BetRecord     `json:"last_bet,omitempty"`
}

func (l *Ledger) Snapshot(ctx context.Context) (Snapshot, error) {
	bal, err := l.wallet.Balance(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Snapshot{State: l.state, Balance: bal, Halted: l.halted, Last: l.last}
	if l.round != nil {
		s.Round = l.round.view()
	}
	return s, nil
}

// Halted reports the unacknowledged fairness failure, if any.
func (l *Ledger) Halted() *FairnessError {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.halted
}

// Acknowledge clears a fairness halt and returns what was cleared.
func (l *Ledger) Acknowledge() *FairnessError {
	l.mu.Lock()
	prev := l.halted
	l.halted = nil
	l.mu.Unlock()
	if prev != nil {
		log.Warn().Str("player_id", l.playerID).Int64("nonce", prev.Nonce).Msg("fairness_halt_acknowledged")
		l.events.Append(EventFairnessAck, l.playerID, prev)
	}
	return prev
}

// Close stops any running crash clock. Further bets fail with ErrClosed.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.round != nil && l.round.stop != nil {
		l.round.stop()
	}
}

// Place runs a one-shot bet. Interactive games are played through their
// plan in req.Params; decisions are only taken on an open round.
func (l *Ledger) Place(ctx context.Context, req BetRequest) (BetRecord, error) {
	if len(req.Actions) > 0 {
		return BetRecord{}, fmt.Errorf("%w: actions are only accepted on an open round", outcome.ErrInvalidParams)
	}
	if err := outcome.ValidatePlan(req.Game, req.Params); err != nil {
		return BetRecord{}, err
	}
	b, err := l.begin(ctx, req)
	if err != nil {
		return BetRecord{}, err
	}
	res, err := outcome.Evaluate(b.stream, b.req.Request)
	if err != nil {
		l.rollback(ctx, b, "evaluate_error")
		return BetRecord{}, err
	}
	return l.settle(ctx, b, res)
}

type pending struct {
	req    BetRequest
	stream *fairness.Stream
}

// begin validates, takes the in-flight slot, debits the stake and allocates
// the nonce.
func (l *Ledger) begin(ctx context.Context, req BetRequest) (*pending, error) {
	if req.Stake <= 0 {
		return nil, ErrInvalidStake
	}
	if err := outcome.ValidateParams(req.Game, req.Params); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.halted != nil {
		return nil, ErrHalted
	}
	if l.state != StateIdle {
		return nil, ErrBetInFlight
	}
	bal, err := l.wallet.Balance(ctx)
	if err != nil {
		return nil, err
	}
	if req.Stake > bal {
		return nil, ErrInsufficientBalance
	}
	if err := l.seeds.Hold(); err != nil {
		return nil, err
	}
	if _, err := l.wallet.Apply(ctx, -req.Stake, "bet_stake"); err != nil {
		l.seeds.Release()
		return nil, err
	}
	l.state = StatePlacing

	pair := l.seeds.Active()
	b := &pending{req: req}
	b.req.PlayerID = l.playerID
	b.req.SeedPairID = pair.ID
	b.req.ClientSeed = pair.ClientSeed
	nonce, err := l.seeds.NextNonce(ctx, pair.ID)
	if err != nil {
		l.rollbackLocked(ctx, b, "nonce_error")
		return nil, err
	}
	b.req.Nonce = nonce
	stream, err := l.seeds.Stream(pair.ID, nonce)
	if err != nil {
		l.rollbackLocked(ctx, b, "stream_error")
		return nil, err
	}
	b.stream = stream
	metricBetsPlaced.WithLabelValues(string(req.Game)).Inc()
	l.events.Append(EventBetPlaced, l.playerID, map[string]any{
		"game":         req.Game,
		"stake":        req.Stake,
		"seed_pair_id": pair.ID,
		"nonce":        nonce,
	})
	return b, nil
}

func (l *Ledger) rollback(ctx context.Context, b *pending, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollbackLocked(ctx, b, reason)
}

// rollbackLocked reverses the optimistic debit exactly and frees the slot.
func (l *Ledger) rollbackLocked(ctx context.Context, b *pending, reason string) {
	if _, err := l.wallet.Apply(ctx, b.req.Stake, "bet_rollback"); err != nil {
		log.Error().Err(err).Str("player_id", l.playerID).Int64("stake", b.req.Stake).Msg("rollback_apply_failed")
	}
	l.state = StateRolledBack
	l.round = nil
	metricBetsRolledBack.WithLabelValues(string(b.req.Game), reason).Inc()
	l.events.Append(EventBetRolledBack, l.playerID, map[string]any{
		"game":   b.req.Game,
		"stake":  b.req.Stake,
		"nonce":  b.req.Nonce,
		"reason": reason,
	})
	l.state = StateIdle
	l.seeds.Release()
}

// settle sends the bet to the authority with the lock released; the
// in-flight state keeps every other bet out meanwhile.
func (l *Ledger) settle(ctx context.Context, b *pending, res outcome.Result) (BetRecord, error) {
	l.mu.Lock()
	l.state = StateAwaiting
	l.mu.Unlock()

	start := l.now()
	sctx, cancel := context.WithTimeout(ctx, l.settleTimeout)
	s, err := l.settler.Settle(sctx, b.req)
	cancel()
	metricSettleSeconds.WithLabelValues(string(b.req.Game)).Observe(time.Since(start).Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Str("player_id", l.playerID).Int64("nonce", b.req.Nonce).Msg("settlement_failed")
		l.rollbackLocked(ctx, b, "settlement_error")
		return BetRecord{}, &SettlementError{Nonce: b.req.Nonce, Err: err}
	}
	if s.Payout != res.Payout || s.Result != res.Kind {
		fe := &FairnessError{
			SeedPairID:   b.req.SeedPairID,
			Nonce:        b.req.Nonce,
			Game:         b.req.Game,
			LocalPayout:  res.Payout,
			RemotePayout: s.Payout,
			LocalResult:  res.Kind,
			RemoteResult: s.Result,
		}
		if s.ConfirmedBalance != nil {
			confirmed := *s.ConfirmedBalance
			fe.ConfirmedBalance = &confirmed
		}
		log.Error().Err(fe).Str("player_id", l.playerID).Msg("fairness_halt")
		metricFairnessHalts.Inc()
		l.rollbackLocked(ctx, b, "fairness_error")
		l.halted = fe
		l.events.Append(EventFairnessHalt, l.playerID, fe)
		return BetRecord{}, fe
	}

	if res.Payout > 0 {
		if _, err := l.wallet.Apply(ctx, res.Payout, "bet_payout"); err != nil {
			log.Error().Err(err).Str("player_id", l.playerID).Int64("payout", res.Payout).Msg("payout_apply_failed")
		}
	}
	l.state = resultState(res.Kind)

	raw, err := json.Marshal(res.Outcome)
	if err != nil {
		raw = s.RawOutcome
	}
	rec := BetRecord{
		ID:         s.BetID,
		PlayerID:   l.playerID,
		Game:       b.req.Game,
		Stake:      b.req.Stake,
		Payout:     res.Payout,
		Multiplier: res.Multiplier,
		Result:     res.Kind,
		RawOutcome: raw,
		SeedPairID: b.req.SeedPairID,
		ClientSeed: b.req.ClientSeed,
		Nonce:      b.req.Nonce,
		CreatedAt:  l.now().UTC(),
	}
	if rec.ID == "" && l.newID != nil {
		rec.ID = l.newID()
	}
	if err := l.history.AppendBet(ctx, rec); err != nil {
		log.Error().Err(err).Str("bet_id", rec.ID).Msg("history_append_failed")
	}
	if s.ConfirmedBalance != nil {
		l.reconcileLocked(ctx, *s.ConfirmedBalance)
	}
	l.state = StateReconciled
	l.last = &rec
	l.round = nil
	metricBetsSettled.WithLabelValues(string(rec.Game), string(rec.Result)).Inc()
	l.events.Append(EventBetSettled, l.playerID, rec)
	l.state = StateIdle
	l.seeds.Release()
	return rec, nil
}

// reconcileLocked moves the local view onto the authoritative balance.
func (l *Ledger) reconcileLocked(ctx context.Context, confirmed int64) {
	local, err := l.wallet.Balance(ctx)
	if err != nil || local == confirmed {
		return
	}
	delta := confirmed - local
	if _, err := l.wallet.Apply(ctx, delta, "reconcile"); err != nil {
		log.Error().Err(err).Int64("delta", delta).Msg("reconcile_apply_failed")
		return
	}
	metricReconcileDrift.Inc()
	log.Warn().
		Str("player_id", l.playerID).
		Int64("local", local).
		Int64("confirmed", confirmed).
		Int64("delta", delta).
		Msg("balance_reconciled")
	l.events.Append(EventReconciled, l.playerID, map[string]int64{"local": local, "confirmed": confirmed, "delta": delta})
}

// Reconcile adopts a balance read from the authority outside of a bet.
func (l *Ledger) Reconcile(ctx context.Context, confirmed int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateIdle {
		return ErrBetInFlight
	}
	l.reconcileLocked(ctx, confirmed)
	return nil
}

func resultState(k outcome.Kind) State {
	switch k {
	case outcome.Win:
		return StateWon
	case outcome.Push:
		return StatePushed
	default:
		return StateLost
	}
}

// IsValidation reports errors that were rejected before any state change.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidStake) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrBetInFlight) ||
		errors.Is(err, ErrHalted) ||
		errors.Is(err, outcome.ErrInvalidParams) ||
		errors.Is(err, outcome.ErrUnknownGame)
}
