package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fair-casino/internal/app/play"
	"fair-casino/internal/autobet"
	"fair-casino/internal/config"
	"fair-casino/internal/ledger"
	"fair-casino/internal/outcome"
	"fair-casino/internal/testutil"
	"fair-casino/internal/ws"

	"github.com/gorilla/websocket"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type routerFixture struct {
	router http.Handler
	house  *testutil.MemoryHouse
	svc    *play.Service
}

func newRouterFixture(t *testing.T, ping error) routerFixture {
	t.Helper()
	h := testutil.NewMemoryHouse()
	h.AddPlayer("p1", "key-p1", 1000)
	h.AddPlayer("p2", "key-p2", 1000)
	cfg := config.ServerConfig{AdminAPIKey: "admin-key"}
	svc := play.NewService(h, h, cfg)
	t.Cleanup(svc.Close)
	router := NewRouter(Deps{
		DB:      pingerFunc(func(context.Context) error { return ping }),
		Players: h,
		Play:    svc,
		House:   h,
	}, cfg)
	return routerFixture{router: router, house: h, svc: svc}
}

func (f routerFixture) do(t *testing.T, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func diceBody() map[string]any {
	return map[string]any{"game": "dice", "stake": 10, "params": map[string]any{"target": 50.5, "over": true}}
}

func TestHealth(t *testing.T) {
	up := newRouterFixture(t, nil)
	if w := up.do(t, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", w.Code)
	}
	down := newRouterFixture(t, errors.New("db down"))
	if w := down.do(t, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz expected 503, got %d", w.Code)
	}
}

func TestPlayerRoutesNeedAPIKey(t *testing.T) {
	f := newRouterFixture(t, nil)
	for _, key := range []string{"", "wrong-key"} {
		w := f.do(t, http.MethodGet, "/api/seeds", key, nil)
		if w.Code != http.StatusUnauthorized || errorCode(t, w) != "unauthorized" {
			t.Fatalf("key %q: expected 401 unauthorized, got %d %s", key, w.Code, w.Body.String())
		}
	}
}

func TestPlaceBetAndHistory(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/bets", "key-p1", diceBody())
	if w.Code != http.StatusOK {
		t.Fatalf("place expected 200, got %d %s", w.Code, w.Body.String())
	}
	rec := decode[ledger.BetRecord](t, w)
	if rec.ID == "" || rec.Stake != 10 || rec.Nonce != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Payout != 0 && rec.Payout != 20 {
		t.Fatalf("dice 50.5 over pays 20 or nothing, got %d", rec.Payout)
	}

	w = f.do(t, http.MethodGet, "/api/bets?limit=10", "key-p1", nil)
	hist := decode[play.HistoryResponse](t, w)
	if w.Code != http.StatusOK || len(hist.Items) != 1 || hist.Items[0].ID != rec.ID || hist.Limit != 10 {
		t.Fatalf("unexpected history %d %s", w.Code, w.Body.String())
	}
	w = f.do(t, http.MethodGet, "/api/bets", "key-p2", nil)
	if other := decode[play.HistoryResponse](t, w); len(other.Items) != 0 {
		t.Fatalf("history leaked across players: %s", w.Body.String())
	}
}

func TestBetValidationErrors(t *testing.T) {
	f := newRouterFixture(t, nil)
	tests := []struct {
		name string
		body any
		code string
	}{
		{name: "unknown game", body: map[string]any{"game": "roulette", "stake": 10}, code: "unknown_game"},
		{name: "zero stake", body: map[string]any{"game": "coinflip", "stake": 0, "params": map[string]any{"side": "heads"}}, code: "invalid_stake"},
		{name: "bad params", body: map[string]any{"game": "dice", "stake": 10, "params": map[string]any{"target": 150}}, code: "invalid_params"},
		{name: "over balance", body: map[string]any{"game": "coinflip", "stake": 5000, "params": map[string]any{"side": "heads"}}, code: "insufficient_balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/bets", "key-p1", tt.body)
			if got := errorCode(t, w); got != tt.code {
				t.Fatalf("expected %s, got %d %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
	if w := f.do(t, http.MethodGet, "/api/me", "key-p1", nil); decode[play.SessionInfo](t, w).Ledger.Balance != 1000 {
		t.Fatalf("rejected bets must not move the balance: %s", w.Body.String())
	}
}

func TestMinesRoundOverHTTP(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/rounds", "key-p1", map[string]any{"game": "mines", "stake": 10, "params": map[string]any{"mines": 3}})
	if w.Code != http.StatusOK {
		t.Fatalf("open expected 200, got %d %s", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodPost, "/api/bets", "key-p1", diceBody()); errorCode(t, w) != "bet_in_flight" {
		t.Fatalf("a second bet during a round must be refused, got %s", w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/api/rounds/actions", "key-p1", map[string]any{"kind": "reveal", "index": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("reveal expected 200, got %d %s", w.Code, w.Body.String())
	}
	up := decode[ledger.RoundUpdate](t, w)
	if up.Record == nil {
		w = f.do(t, http.MethodPost, "/api/rounds/cashout", "key-p1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("cashout expected 200, got %d %s", w.Code, w.Body.String())
		}
		up = decode[ledger.RoundUpdate](t, w)
	}
	if up.Record == nil || up.Record.Game != "mines" {
		t.Fatalf("round should be settled, got %s", w.Body.String())
	}
	if w := f.do(t, http.MethodPost, "/api/rounds/cashout", "key-p1", nil); errorCode(t, w) != "no_open_round" {
		t.Fatalf("expected no_open_round after settle, got %s", w.Body.String())
	}
}

func TestSeedsRotateRevealAndVerify(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPut, "/api/seeds/client", "key-p1", map[string]string{"client_seed": "   "})
	if errorCode(t, w) != "empty_client_seed" {
		t.Fatalf("blank client seed should be refused, got %s", w.Body.String())
	}
	w = f.do(t, http.MethodPut, "/api/seeds/client", "key-p1", map[string]string{"client_seed": "lucky-7"})
	if w.Code != http.StatusOK {
		t.Fatalf("set client seed: %d %s", w.Code, w.Body.String())
	}
	rec := decode[ledger.BetRecord](t, f.do(t, http.MethodPost, "/api/bets", "key-p1", diceBody()))
	if rec.ClientSeed != "lucky-7" {
		t.Fatalf("bet should use the new client seed, got %+v", rec)
	}

	w = f.do(t, http.MethodGet, "/api/seeds/"+rec.SeedPairID+"/reveal", "key-p1", nil)
	if errorCode(t, w) != "seed_pair_active" {
		t.Fatalf("active pair must stay hidden, got %s", w.Body.String())
	}
	w = f.do(t, http.MethodPost, "/api/seeds/rotate", "key-p1", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"server_seed"`) {
		t.Fatalf("rotate should reveal the retired seed, got %d %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/api/verify", "key-p1", map[string]string{"bet_id": rec.ID})
	resp := decode[play.VerifyBetResponse](t, w)
	if w.Code != http.StatusOK || !resp.Match || resp.Recomputed.Payout != rec.Payout {
		t.Fatalf("stored bet should verify, got %d %s", w.Code, w.Body.String())
	}

	raw := map[string]any{
		"server_seed":      resp.Pair.ServerSeed,
		"server_seed_hash": "not-the-hash",
		"client_seed":      rec.ClientSeed,
		"nonce":            rec.Nonce,
		"bet":              diceBody(),
	}
	if w := f.do(t, http.MethodPost, "/api/verify", "key-p1", raw); errorCode(t, w) != "commitment_mismatch" {
		t.Fatalf("wrong hash should fail verification, got %s", w.Body.String())
	}
}

func TestAutobetRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)

	body := map[string]any{"game": "coinflip", "params": map[string]any{"side": "heads"}, "base_stake": 5, "count": 3}
	w := f.do(t, http.MethodPost, "/api/autobet", "key-p1", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("start expected 202, got %d %s", w.Code, w.Body.String())
	}
	sess, err := f.svc.Session(context.Background(), "p1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	sess.Autobet.Wait()

	st := decode[autobet.Status](t, f.do(t, http.MethodGet, "/api/autobet", "key-p1", nil))
	if st.Running || st.Bets != 3 || st.StopReason != autobet.StopCount {
		t.Fatalf("unexpected status %+v", st)
	}
	if w := f.do(t, http.MethodDelete, "/api/autobet", "key-p1", nil); errorCode(t, w) != "autobet_not_running" {
		t.Fatalf("expected autobet_not_running, got %s", w.Body.String())
	}
	bad := map[string]any{"game": "mines", "params": map[string]any{"mines": 3}, "base_stake": 5}
	if w := f.do(t, http.MethodPost, "/api/autobet", "key-p1", bad); errorCode(t, w) != "invalid_autobet_config" {
		t.Fatalf("mines without picks should be refused, got %s", w.Body.String())
	}
}

func TestAdminRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)

	if w := f.do(t, http.MethodPost, "/api/topup", "key-p1", map[string]any{"player_id": "p1", "amount": 10}); w.Code != http.StatusUnauthorized {
		t.Fatalf("player key must not reach admin routes, got %d", w.Code)
	}
	w := f.do(t, http.MethodPost, "/api/topup", "admin-key", map[string]any{"player_id": "p1", "amount": 500})
	if w.Code != http.StatusOK {
		t.Fatalf("topup expected 200, got %d %s", w.Code, w.Body.String())
	}
	if resp := decode[play.TopUpResponse](t, w); resp.Balance != 1500 {
		t.Fatalf("expected balance 1500, got %+v", resp)
	}

	w = f.do(t, http.MethodPost, "/api/settle", "admin-key", map[string]any{"game": "dice", "stake": 10})
	if errorCode(t, w) != "invalid_request" {
		t.Fatalf("settle without pair should be refused, got %s", w.Body.String())
	}
	w = f.do(t, http.MethodPost, "/api/settle", "admin-key", map[string]any{"game": "dice", "stake": 10, "player_id": "p1", "seed_pair_id": "missing"})
	if errorCode(t, w) != "not_found" {
		t.Fatalf("settle on unknown pair should be not_found, got %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.do(t, http.MethodPost, "/api/bets", "key-p1", diceBody())
	w := f.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "casino_bets_placed_total") {
		t.Fatalf("metrics should expose bet counters, got %d", w.Code)
	}
}

func TestStreamOverWebsocket(t *testing.T) {
	f := newRouterFixture(t, nil)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	header := http.Header{"Authorization": []string{"Bearer key-p1"}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/stream", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello ws.HelloMessage
	if err := conn.ReadJSON(&hello); err != nil || hello.PlayerID != "p1" {
		t.Fatalf("read hello: %+v %v", hello, err)
	}
	if _, err := f.svc.PlaceBet(context.Background(), "p1", play.BetInput{Game: "coinflip", Stake: 5, Params: outcome.Params{Side: outcome.Heads}}); err != nil {
		t.Fatalf("place: %v", err)
	}
	seen := map[string]bool{}
	for !seen[ledger.EventBetSettled] {
		var msg ws.EventMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read event: %v (seen %v)", err, seen)
		}
		seen[msg.Event.Event] = true
	}
	if !seen[ledger.EventBetPlaced] {
		t.Fatalf("expected bet_placed before bet_settled, seen %v", seen)
	}
}
