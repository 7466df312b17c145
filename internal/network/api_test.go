package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/furcoin-clicker/internal/engine"
	"github.com/MRamiBalles/furcoin-clicker/internal/events"
	"github.com/MRamiBalles/furcoin-clicker/internal/infra/storage"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/metrics"
)

func newTestServer(t *testing.T) (http.Handler, *engine.Engine, *Hub) {
	t.Helper()
	log := logger.NewDiscardLogger()
	m := metrics.New()

	eng := engine.NewEngine(storage.NewMemoryStore(), events.NewEventLog(0), log, engine.WithMetrics(m))
	eng.Bootstrap(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(eng, log, m, HubOptions{MaxMessagesPerSecond: 1000})
	go hub.Run(ctx)

	return NewAPI(eng, hub, log, m).Router(), eng, hub
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: invalid JSON %q", method, path, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestRegisterAndTap(t *testing.T) {
	h, eng, _ := newTestServer(t)

	rec, body := do(t, h, http.MethodPost, "/api/register", `{"username":"alice"}`)
	if rec.Code != http.StatusOK || body["ok"] != true {
		t.Fatalf("register: %d %v", rec.Code, body)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/tap", `{"cost":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("tap: %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodPost, "/api/tap", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("tap without body: %d", rec.Code)
	}

	if got := eng.State().Balance; got != 4 {
		t.Errorf("Balance = %v, want 4", got)
	}

	rec, body = do(t, h, http.MethodPost, "/api/register", `{"username":"bob"}`)
	if rec.Code != http.StatusConflict || body["ok"] != false {
		t.Errorf("second register: %d %v", rec.Code, body)
	}
}

func TestValidationErrorsMapTo4xx(t *testing.T) {
	h, _, _ := newTestServer(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/api/register", `{"username":"  "}`, http.StatusBadRequest},
		{http.MethodPost, "/api/register", `not json`, http.StatusBadRequest},
		{http.MethodPost, "/api/tap", `{"cost":1}`, http.StatusConflict}, // not registered
		{http.MethodPost, "/api/upgrades/gpu_rig/buy", "", http.StatusConflict},
		{http.MethodGet, "/api/events?since=-1", "", http.StatusBadRequest},
	}
	for _, c := range cases {
		rec, body := do(t, h, c.method, c.path, c.body)
		if rec.Code != c.want {
			t.Errorf("%s %s: status %d, want %d (%v)", c.method, c.path, rec.Code, c.want, body)
		}
		if c.want != http.StatusOK && body["ok"] != false {
			t.Errorf("%s %s: missing ok=false", c.method, c.path)
		}
	}

	do(t, h, http.MethodPost, "/api/register", `{"username":"alice"}`)

	rec, _ := do(t, h, http.MethodPost, "/api/upgrades/warp_drive/buy", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown upgrade: %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodPost, "/api/skins/btc/equip", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("locked skin: %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodPost, "/api/tap", `{"cost":5000}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("tap beyond energy: %d", rec.Code)
	}
}

func TestReadEndpoints(t *testing.T) {
	h, _, _ := newTestServer(t)
	do(t, h, http.MethodPost, "/api/register", `{"username":"alice"}`)

	rec, body := do(t, h, http.MethodGet, "/api/leaderboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: %d", rec.Code)
	}
	if entries, _ := body["entries"].([]interface{}); len(entries) != 11 {
		t.Errorf("Expected 11 entries, got %d", len(entries))
	}
	if body["player_rank"] != float64(11) {
		t.Errorf("player_rank = %v, want 11", body["player_rank"])
	}

	_, body = do(t, h, http.MethodGet, "/api/catalog", "")
	if ups, _ := body["upgrades"].([]interface{}); len(ups) != 10 {
		t.Errorf("Expected 10 upgrades, got %d", len(ups))
	}

	_, body = do(t, h, http.MethodGet, "/api/state", "")
	if body["level_name"] != "Hamster" {
		t.Errorf("level_name = %v", body["level_name"])
	}

	_, body = do(t, h, http.MethodGet, "/api/events?since=0&type=USER_REGISTERED", "")
	if body["total_events"] != float64(1) {
		t.Errorf("Expected one USER_REGISTERED event, got %v", body["total_events"])
	}

	rec, _ = do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health: %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/metrics/prometheus", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "clicker_") {
		t.Errorf("prometheus: %d %q", rec.Code, rec.Body.String())
	}
}

func TestSkinPurchaseAndReset(t *testing.T) {
	h, eng, _ := newTestServer(t)
	do(t, h, http.MethodPost, "/api/register", `{"username":"alice"}`)

	rec, _ := do(t, h, http.MethodPost, "/api/skins/ton/buy", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("unaffordable skin: %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: %d", rec.Code)
	}
	if eng.State().IsRegistered() {
		t.Error("Reset kept the username")
	}
}

func readMessage(t *testing.T, conn *websocket.Conn, wantType string) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed waiting for %s: %v", wantType, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %q", data)
		}
		if msg.Type == wantType {
			return msg
		}
	}
}

func TestWebSocketActions(t *testing.T) {
	h, eng, _ := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	readMessage(t, conn, MessageState)

	conn.WriteJSON(map[string]interface{}{"type": "REGISTER", "payload": map[string]string{"username": "alice"}})
	msg := readMessage(t, conn, MessageActionResult)
	if res, _ := msg.Payload.(map[string]interface{}); res["ok"] != true {
		t.Fatalf("REGISTER result: %v", msg.Payload)
	}

	conn.WriteJSON(map[string]interface{}{"type": "TAP", "payload": map[string]float64{"cost": 2}})
	msg = readMessage(t, conn, MessageActionResult)
	if res, _ := msg.Payload.(map[string]interface{}); res["ok"] != true {
		t.Fatalf("TAP result: %v", msg.Payload)
	}

	conn.WriteJSON(map[string]interface{}{"type": "EQUIP_SKIN", "payload": map[string]string{"id": "eth"}})
	msg = readMessage(t, conn, MessageActionResult)
	if res, _ := msg.Payload.(map[string]interface{}); res["ok"] != false || res["error"] != engine.ErrSkinLocked.Error() {
		t.Errorf("EQUIP_SKIN result: %v", msg.Payload)
	}

	if eng.State().Balance != 2 {
		t.Errorf("Balance = %v, want 2", eng.State().Balance)
	}
}

func TestStatePusherBroadcastsEvents(t *testing.T) {
	h, eng, hub := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.StartStatePusher(ctx, 10*time.Millisecond)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	readMessage(t, conn, MessageState)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Let the pusher catch up with the log before the event we wait for.
	time.Sleep(30 * time.Millisecond)

	if err := eng.RegisterUser("alice"); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	msg := readMessage(t, conn, MessageEvent)
	if ev, _ := msg.Payload.(map[string]interface{}); ev["type"] != string(events.EventTypeUserRegistered) {
		t.Errorf("Unexpected event payload: %v", msg.Payload)
	}
}

func TestClientRateLimit(t *testing.T) {
	hub := &Hub{opts: HubOptions{MaxMessagesPerSecond: 3}}
	c := &Client{hub: hub}
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := c.allow(now); err != nil {
			t.Fatalf("action %d limited early", i)
		}
	}
	if err := c.allow(now.Add(500 * time.Millisecond)); err != errRateLimited {
		t.Errorf("Expected rate limit, got %v", err)
	}
	if err := c.allow(now.Add(1100 * time.Millisecond)); err != nil {
		t.Errorf("Window did not reset: %v", err)
	}
}
