// Package play owns the per-player session objects: seed manager, ledger,
// autobet sequencer and bet rate limiter, created on first use.
package play

import (
	"context"
	"errors"
	"sync"
	"time"

	"fair-casino/internal/autobet"
	"fair-casino/internal/config"
	"fair-casino/internal/fairness"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
	"fair-casino/internal/store"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Backend is the persistence the sessions read and write. *store.Store
// satisfies it.
type Backend interface {
	fairness.Repository
	GetAccountBalance(ctx context.Context, playerID string) (int64, error)
	Credit(ctx context.Context, playerID string, amount int64, entryType, refType, refID string) (int64, error)
	ListBets(ctx context.Context, f store.BetFilter, limit, offset int) ([]store.BetRow, error)
	GetBet(ctx context.Context, id string) (store.BetRow, error)
}

type Session struct {
	PlayerID string
	Seeds    *fairness.Manager
	Ledger   *ledger.Ledger
	Autobet  *autobet.Sequencer
	limiter  *rate.Limiter
	since    time.Time
}

type Service struct {
	backend Backend
	settler ledger.Settler
	cfg     config.ServerConfig
	newID   func() string

	// base bounds autobet runs, which outlive the request that starts them.
	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func NewService(backend Backend, settler ledger.Settler, cfg config.ServerConfig) *Service {
	base, cancel := context.WithCancel(context.Background())
	return &Service{
		backend:  backend,
		settler:  settler,
		cfg:      cfg,
		newID:    store.NewID,
		base:     base,
		cancel:   cancel,
		sessions: map[string]*Session{},
	}
}

// Session returns the player's session, building it on first use from the
// stored balance and active seed pair.
func (s *Service) Session(ctx context.Context, playerID string) (*Session, error) {
	if playerID == "" {
		return nil, ErrInvalidRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if sess, ok := s.sessions[playerID]; ok {
		return sess, nil
	}

	seeds, err := fairness.NewManager(ctx, s.backend, playerID, s.newID)
	if err != nil {
		return nil, err
	}
	balance, err := s.backend.GetAccountBalance(ctx, playerID)
	if err != nil {
		return nil, err
	}
	events := ledger.NewEventBuffer(s.cfg.EventBufferSize)
	l := ledger.New(ledger.Options{
		PlayerID:      playerID,
		Seeds:         seeds,
		Wallet:        ledger.NewMemoryWallet(balance),
		Settler:       s.settler,
		Events:        events,
		NewID:         s.newID,
		SettleTimeout: s.cfg.SettleTimeout,
	})
	limit := rate.Inf
	if s.cfg.BetRatePerSec > 0 {
		limit = rate.Limit(s.cfg.BetRatePerSec)
	}
	burst := s.cfg.BetRateBurst
	if burst <= 0 {
		burst = 1
	}
	sess := &Session{
		PlayerID: playerID,
		Seeds:    seeds,
		Ledger:   l,
		Autobet:  autobet.New(l, events, playerID),
		limiter:  rate.NewLimiter(limit, burst),
		since:    time.Now().UTC(),
	}
	s.sessions[playerID] = sess
	log.Info().Str("player_id", playerID).Int64("balance", balance).Str("seed_pair_id", seeds.Active().ID).Msg("session_opened")
	return sess, nil
}

// lookup returns an existing session without building one.
func (s *Service) lookup(playerID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[playerID]
	return sess, ok
}

func (s *Service) Info(ctx context.Context, playerID string) (*SessionInfo, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	snap, err := sess.Ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		PlayerID: playerID,
		Seeds:    sess.Seeds.Active(),
		Ledger:   snap,
		Autobet:  sess.Autobet.Status(),
		Since:    sess.since,
	}, nil
}

func (s *Service) allow(sess *Session) error {
	if !sess.limiter.Allow() {
		return ErrRateLimited
	}
	return nil
}

func (in BetInput) request() ledger.BetRequest {
	return ledger.BetRequest{Request: outcome.Request{
		Game:    in.Game,
		Stake:   in.Stake,
		Params:  in.Params,
		Actions: in.Actions,
	}}
}

func (s *Service) PlaceBet(ctx context.Context, playerID string, in BetInput) (*ledger.BetRecord, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(sess); err != nil {
		return nil, err
	}
	rec, err := sess.Ledger.Place(ctx, in.request())
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) OpenRound(ctx context.Context, playerID string, in BetInput) (*ledger.RoundUpdate, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(sess); err != nil {
		return nil, err
	}
	in.Actions = nil
	up, err := sess.Ledger.Open(ctx, in.request())
	if err != nil {
		return nil, err
	}
	return &up, nil
}

func (s *Service) Act(ctx context.Context, playerID string, a outcome.Action) (*ledger.RoundUpdate, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	up, err := sess.Ledger.Act(ctx, a)
	if err != nil {
		return nil, err
	}
	return &up, nil
}

func (s *Service) Cashout(ctx context.Context, playerID string) (*ledger.RoundUpdate, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	up, err := sess.Ledger.Cashout(ctx)
	if err != nil {
		return nil, err
	}
	return &up, nil
}

func (s *Service) Seeds(ctx context.Context, playerID string) (*fairness.PublicPair, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	pair := sess.Seeds.Active()
	return &pair, nil
}

func (s *Service) RotateSeeds(ctx context.Context, playerID string) (*fairness.Rotation, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	rot, err := sess.Seeds.Commit(ctx)
	if err != nil {
		return nil, err
	}
	return &rot, nil
}

func (s *Service) SetClientSeed(ctx context.Context, playerID, value string) (*fairness.PublicPair, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	pair, err := sess.Seeds.SetClientSeed(ctx, value)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (s *Service) RevealSeeds(ctx context.Context, playerID, pairID string) (*fairness.PublicPair, error) {
	if pairID == "" {
		return nil, ErrInvalidRequest
	}
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	pair, err := sess.Seeds.Reveal(ctx, pairID)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (s *Service) History(ctx context.Context, playerID string, game outcome.Game, pairID string, limit, offset int) (*HistoryResponse, error) {
	if playerID == "" {
		return nil, ErrInvalidRequest
	}
	if game != "" && !game.Valid() {
		return nil, outcome.ErrUnknownGame
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.backend.ListBets(ctx, store.BetFilter{PlayerID: playerID, Game: game, SeedPairID: pairID}, limit, offset)
	if err != nil {
		return nil, err
	}
	return &HistoryResponse{Items: items, Limit: limit, Offset: offset}, nil
}

// Verify recomputes a bet from seed material supplied by the caller.
func (s *Service) Verify(req ledger.VerifyRequest) (*outcome.Result, error) {
	res, err := ledger.Verify(req)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyBet recomputes one of the player's stored bets. Its seed pair must
// have been rotated out first.
func (s *Service) VerifyBet(ctx context.Context, playerID, betID string) (*VerifyBetResponse, error) {
	if betID == "" {
		return nil, ErrInvalidRequest
	}
	bet, err := s.backend.GetBet(ctx, betID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBetNotFound
		}
		return nil, err
	}
	if bet.PlayerID != playerID {
		return nil, ErrBetNotFound
	}
	pair, err := s.RevealSeeds(ctx, playerID, bet.SeedPairID)
	if err != nil {
		return nil, err
	}
	res, err := ledger.Verify(ledger.VerifyRequest{
		ServerSeed:     pair.ServerSeed,
		ServerSeedHash: pair.ServerSeedHash,
		ClientSeed:     bet.ClientSeed,
		Nonce:          bet.Nonce,
		Bet:            outcome.Request{Game: bet.Game, Stake: bet.Stake, Params: bet.Params, Actions: bet.Actions},
	})
	if err != nil {
		return nil, err
	}
	return &VerifyBetResponse{
		Bet:        bet,
		Pair:       *pair,
		Recomputed: res,
		Match:      res.Payout == bet.Payout && res.Kind == bet.Result,
	}, nil
}

func (s *Service) StartAutobet(ctx context.Context, playerID string, in AutobetInput) (*autobet.Status, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	interval := time.Duration(in.IntervalMS) * time.Millisecond
	if interval < s.cfg.AutobetInterval {
		interval = s.cfg.AutobetInterval
	}
	cfg := autobet.Config{
		Game:         in.Game,
		Params:       in.Params,
		BaseStake:    in.BaseStake,
		OnWin:        in.OnWin,
		OnLoss:       in.OnLoss,
		Count:        in.Count,
		StopOnProfit: in.StopOnProfit,
		StopOnLoss:   in.StopOnLoss,
		Interval:     interval,
	}
	if err := sess.Autobet.Start(s.base, cfg); err != nil {
		return nil, err
	}
	st := sess.Autobet.Status()
	return &st, nil
}

func (s *Service) CancelAutobet(ctx context.Context, playerID string) (*autobet.Status, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := sess.Autobet.Cancel(); err != nil {
		return nil, err
	}
	st := sess.Autobet.Status()
	return &st, nil
}

func (s *Service) AutobetStatus(ctx context.Context, playerID string) (*autobet.Status, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	st := sess.Autobet.Status()
	return &st, nil
}

// Acknowledge clears a fairness halt. It returns nil when none was set.
func (s *Service) Acknowledge(ctx context.Context, playerID string) (*ledger.FairnessError, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return sess.Ledger.Acknowledge(), nil
}

// TopUp credits a player in the store and moves an open session onto the
// new balance.
func (s *Service) TopUp(ctx context.Context, playerID string, amount int64) (*TopUpResponse, error) {
	if playerID == "" || amount <= 0 {
		return nil, ErrInvalidRequest
	}
	bal, err := s.backend.Credit(ctx, playerID, amount, "topup", "admin", s.newID())
	if err != nil {
		return nil, err
	}
	if sess, ok := s.lookup(playerID); ok {
		// A bet in flight reconciles against the House balance when it settles.
		if err := sess.Ledger.Reconcile(ctx, bal); err != nil && !errors.Is(err, ledger.ErrBetInFlight) {
			return nil, err
		}
	}
	log.Info().Str("player_id", playerID).Int64("amount", amount).Int64("balance", bal).Msg("topup")
	return &TopUpResponse{PlayerID: playerID, Added: amount, Balance: bal}, nil
}

// Events returns the player's event buffer for the stream endpoint.
func (s *Service) Events(ctx context.Context, playerID string) (*ledger.EventBuffer, error) {
	sess, err := s.Session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return sess.Ledger.Events(), nil
}

// Close cancels autobet runs and stops every session.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	s.cancel()
	for _, sess := range sessions {
		_ = sess.Autobet.Cancel()
		sess.Autobet.Wait()
		sess.Ledger.Close()
		sess.Ledger.Events().Close()
	}
}
