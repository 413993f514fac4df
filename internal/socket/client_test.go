package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsServer accepts websocket connections and hands them to the test.
type wsServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s := &wsServer{conns: make(chan *websocket.Conn, 8)}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func testConfig() Config {
	return Config{
		ReconnectDelay:    10 * time.Millisecond,
		ReconnectAttempts: 5,
	}
}

func TestClient_ConnectFiresConnectEvent(t *testing.T) {
	s := newWSServer(t)
	c := NewClient(s.url(), nil, testConfig())

	connected := make(chan struct{}, 1)
	c.On(EventConnect, func(json.RawMessage) { connected <- struct{}{} })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	select {
	case <-connected:
	default:
		t.Fatal("connect event should fire before Connect returns")
	}
	if !c.Connected() {
		t.Error("expected Connected() = true")
	}
}

func TestClient_EmitReachesServer(t *testing.T) {
	s := newWSServer(t)
	c := NewClient(s.url(), nil, testConfig())
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	conn := s.accept(t)
	defer conn.Close()

	if err := c.Emit("tether:register-device", map[string]string{"deviceId": "d1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Event != "tether:register-device" {
		t.Errorf("event: got %q", f.Event)
	}
	var payload map[string]string
	if err := json.Unmarshal(f.Data, &payload); err != nil || payload["deviceId"] != "d1" {
		t.Errorf("payload: %s (%v)", f.Data, err)
	}
}

func TestClient_InboundEventDispatch(t *testing.T) {
	s := newWSServer(t)
	c := NewClient(s.url(), nil, testConfig())

	got := make(chan json.RawMessage, 1)
	off := c.On("tether-request", func(data json.RawMessage) { got <- data })
	defer off()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	conn := s.accept(t)
	defer conn.Close()

	frame, _ := json.Marshal(Frame{Event: "tether-request", Data: json.RawMessage(`{"requestId":"r1"}`)})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case data := <-got:
		if !strings.Contains(string(data), "r1") {
			t.Errorf("data: %s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never fired")
	}
}

func TestClient_UnsubscribeStopsDelivery(t *testing.T) {
	s := newWSServer(t)
	c := NewClient(s.url(), nil, testConfig())

	got := make(chan struct{}, 4)
	off := c.On("ev", func(json.RawMessage) { got <- struct{}{} })
	off()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	conn := s.accept(t)
	defer conn.Close()

	frame, _ := json.Marshal(Frame{Event: "ev"})
	conn.WriteMessage(websocket.TextMessage, frame)

	select {
	case <-got:
		t.Fatal("unsubscribed handler fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClient_ReconnectsAndRefiresConnect(t *testing.T) {
	s := newWSServer(t)
	c := NewClient(s.url(), nil, testConfig())

	connects := make(chan struct{}, 4)
	disconnects := make(chan struct{}, 4)
	c.On(EventConnect, func(json.RawMessage) { connects <- struct{}{} })
	c.On(EventDisconnect, func(json.RawMessage) { disconnects <- struct{}{} })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	<-connects

	// Server drops the connection; the client must redial on its own.
	conn1 := s.accept(t)
	conn1.Close()

	select {
	case <-disconnects:
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnect event")
	}
	select {
	case <-connects:
	case <-time.After(2 * time.Second):
		t.Fatal("no reconnect")
	}

	conn2 := s.accept(t)
	defer conn2.Close()

	if !c.Connected() {
		t.Error("expected Connected() after reconnect")
	}
	if err := c.Emit("ping", nil); err != nil {
		t.Errorf("emit after reconnect: %v", err)
	}
}

func TestClient_EmitWhileDisconnected(t *testing.T) {
	s := newWSServer(t)
	c := NewClient(s.url(), nil, testConfig())
	if err := c.Emit("ev", nil); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	_ = s
}

func TestManager_IdempotentConnect(t *testing.T) {
	s := newWSServer(t)
	m := NewManager(s.url(), nil, testConfig())

	c1, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	c2, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if c1 != c2 {
		t.Error("second Connect should return the existing live client")
	}
	if m.Current() != c1 {
		t.Error("Current should return the live client")
	}

	m.Disconnect()
	if m.Current() != nil {
		t.Error("Current should be nil after Disconnect")
	}

	c3, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if c3 == c1 {
		t.Error("Connect after Disconnect should dial a fresh client")
	}
	m.Disconnect()
}

func TestDedupe(t *testing.T) {
	d := NewDedupe(time.Minute, 4)
	if d.Seen("photo:p1") {
		t.Error("first sighting should not be a duplicate")
	}
	if !d.Seen("photo:p1") {
		t.Error("second sighting should be a duplicate")
	}
	if d.Seen("photo:p2") {
		t.Error("different key should not be a duplicate")
	}
}
