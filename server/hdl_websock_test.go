package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/gorilla/websocket"
)

type wsFixture struct {
	hub      *Hub
	sessions *SessionStore
	srv      *httptest.Server
	url      string
}

func newWsFixture(t *testing.T) (*wsFixture, string) {
	t.Helper()
	authn := newTestAuthn(t)
	f := &wsFixture{hub: newHub(2, 64), sessions: NewSessionStore()}
	f.srv = httptest.NewServer(serveWebSocket(f.hub, f.sessions, authn, false))
	f.url = "ws" + strings.TrimPrefix(f.srv.URL, "http")
	t.Cleanup(func() {
		f.srv.Close()
		f.hub.shutdown()
	})
	return f, tokenFor(t, authn, types.Uid(42))
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(f.url+"?token="+url.QueryEscape(token), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWs(t *testing.T, conn *websocket.Conn) *ServerComMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerComMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	return &msg
}

func TestWebsocketRequiresToken(t *testing.T) {
	f, _ := newWsFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err == nil {
		t.Fatal("dial without a token must fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
	resp.Body.Close()

	_, resp, err = websocket.DefaultDialer.Dial(f.url+"?token=bm90LWEtdG9rZW4", nil)
	if err == nil {
		t.Fatal("dial with a bad token must fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
	resp.Body.Close()
}

func TestWebsocketSubscription(t *testing.T) {
	f, token := newWsFixture(t)
	conn := f.dial(t, token)
	feed := types.Uid(700).String()

	if err := conn.WriteJSON(map[string]any{"id": "1", "sub": map[string]string{"feed": feed}}); err != nil {
		t.Fatal(err)
	}
	if ack := readWs(t, conn); ack.Ctrl == nil || ack.Ctrl.Code != http.StatusOK || ack.Ctrl.Id != "1" {
		t.Fatalf("expected subscription ack, got %s", ack.describe())
	}

	f.hub.Emit(feed, EventMessageCreated, &types.Message{ObjHeader: types.ObjHeader{Id: "m1"}, Channel: feed, Content: "hi"})
	ev := readWs(t, conn).Event
	if ev == nil || ev.Kind != EventMessageCreated || ev.Message == nil || ev.Message.Content != "hi" {
		t.Fatalf("unexpected event %+v", ev)
	}

	if err := conn.WriteJSON(map[string]any{"id": "2", "leave": map[string]string{"feed": feed}}); err != nil {
		t.Fatal(err)
	}
	if ack := readWs(t, conn); ack.Ctrl == nil || ack.Ctrl.Code != http.StatusOK || ack.Ctrl.Id != "2" {
		t.Fatalf("expected leave ack, got %s", ack.describe())
	}

	if err := conn.WriteJSON(map[string]any{"id": "3", "leave": map[string]string{"feed": feed}}); err != nil {
		t.Fatal(err)
	}
	if ack := readWs(t, conn); ack.Ctrl == nil || ack.Ctrl.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %s", ack.describe())
	}
}

func TestWebsocketMalformed(t *testing.T) {
	f, token := newWsFixture(t)
	conn := f.dial(t, token)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{oops")); err != nil {
		t.Fatal(err)
	}
	if ack := readWs(t, conn); ack.Ctrl == nil || ack.Ctrl.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %s", ack.describe())
	}

	if err := conn.WriteJSON(map[string]any{"id": "5", "sub": map[string]string{"feed": "general"}}); err != nil {
		t.Fatal(err)
	}
	if ack := readWs(t, conn); ack.Ctrl == nil || ack.Ctrl.Code != http.StatusBadRequest || ack.Ctrl.Id != "5" {
		t.Fatalf("expected 400, got %s", ack.describe())
	}
}

func TestWebsocketShutdown(t *testing.T) {
	f, token := newWsFixture(t)
	conn := f.dial(t, token)

	// The session is registered after the handshake completes.
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.sessions.lock.Lock()
		count := len(f.sessions.sessCache)
		f.sessions.lock.Unlock()
		if count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.sessions.Shutdown()
	if msg := readWs(t, conn); msg.Ctrl == nil || msg.Ctrl.Code != http.StatusResetContent {
		t.Fatalf("expected shutdown notice, got %s", msg.describe())
	}
}
