package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"github.com/R3E-Network/jobhunter/internal/security"
)

type staticTokens map[string]security.Principal

func (s staticTokens) ParseAccess(token string) (security.Principal, error) {
	p, ok := s[token]
	if !ok {
		return security.Principal{}, errors.New("unknown token")
	}
	return p, nil
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(staticTokens{"good": {UserID: 7, Email: "a@b.io"}}, []string{"*"}, nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func waitSessions(t *testing.T, hub *Hub, userID int64, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Sessions(userID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("sessions = %d, want %d", hub.Sessions(userID), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestHubRejectsMissingOrBadToken(t *testing.T) {
	_, srv := startHub(t)

	if _, resp, err := dial(t, srv, ""); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}
	if _, resp, err := dial(t, srv, "forged"); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %v", err)
	}
}

func TestHubPingPongAndDelivery(t *testing.T) {
	hub, srv := startHub(t)
	conn, _, err := dial(t, srv, "good")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitSessions(t, hub, 7, 1)

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if f := readFrame(t, conn); f.Type != "pong" {
		t.Fatalf("expected pong, got %+v", f)
	}

	if n := hub.Deliver(7, []byte(`{"message":"hired"}`)); n != 1 {
		t.Fatalf("delivered to %d sessions, want 1", n)
	}
	f := readFrame(t, conn)
	if f.Type != "notification" || f.Destination != "/user/7/queue/notifications" {
		t.Fatalf("unexpected frame %+v", f)
	}
	var payload map[string]string
	if err := json.Unmarshal(f.Payload, &payload); err != nil || payload["message"] != "hired" {
		t.Fatalf("payload = %s (%v)", f.Payload, err)
	}

	if n := hub.Deliver(8, []byte(`{}`)); n != 0 {
		t.Fatalf("delivered to %d sessions of an offline user", n)
	}

	conn.Close()
	waitSessions(t, hub, 7, 0)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173/"})
	req := httptest.NewRequest(http.MethodGet, "http://api.local/ws", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	if !check(req) {
		t.Fatalf("configured origin refused")
	}
	req.Header.Set("Origin", "http://evil.example")
	if check(req) {
		t.Fatalf("foreign origin accepted")
	}

	sameHost := originChecker(nil)
	req.Header.Set("Origin", "http://api.local")
	if !sameHost(req) {
		t.Fatalf("same host refused")
	}
}

type recordingHub struct {
	got chan envelope
}

func (r *recordingHub) Deliver(userID int64, payload []byte) int {
	r.got <- envelope{UserID: userID, Payload: payload}
	return 1
}

func TestRedisBrokerFansOut(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	local := &recordingHub{got: make(chan envelope, 1)}
	broker := NewRedisBroker(client, local, nil)
	ctx := context.Background()
	if err := broker.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer broker.Stop(ctx)

	if err := broker.Publish(ctx, 42, []byte(`{"message":"invited"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case env := <-local.got:
		if env.UserID != 42 || string(env.Payload) != `{"message":"invited"}` {
			t.Fatalf("unexpected delivery %+v", env)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("notification was not delivered")
	}
}

func TestLocalBrokerDelivers(t *testing.T) {
	local := &recordingHub{got: make(chan envelope, 1)}
	if err := NewLocalBroker(local).Publish(context.Background(), 3, []byte(`{}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if env := <-local.got; env.UserID != 3 {
		t.Fatalf("unexpected delivery %+v", env)
	}
}
