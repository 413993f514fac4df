package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// maxMessageSize caps inbound websocket messages (512KB).
const maxMessageSize = 512 * 1024

// ErrNotConnected is returned by Emit while the channel is down. Callers that
// need delivery-after-reconnect must replay from their own state (the
// registration manager does exactly that).
var ErrNotConnected = errors.New("socket: not connected")

// Config tunes the websocket client. Zero values pick defaults matching the
// production service.
type Config struct {
	ReconnectDelay    time.Duration // pacing between redial attempts (default 1s)
	ReconnectAttempts int           // redials before giving up (default 5)
	HandshakeTimeout  time.Duration // default 10s
	PingInterval      time.Duration // default 30s
	ReadTimeout       time.Duration // default 60s
	WriteTimeout      time.Duration // default 10s
}

func (c Config) withDefaults() Config {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = time.Second
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = 5
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}

// Client is a websocket implementation of Channel. All inbound events are
// dispatched sequentially from a single goroutine, so handlers never run
// concurrently with each other.
type Client struct {
	id      string
	url     string
	tokens  TokenSource
	cfg     Config
	limiter *rate.Limiter // paces reconnect dials

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	handlers  map[string]map[int]Handler
	nextSub   int
}

// NewClient creates a disconnected client for url. Call Connect to dial.
func NewClient(url string, tokens TokenSource, cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		id:       uuid.NewString(),
		url:      url,
		tokens:   tokens,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.ReconnectDelay), 1),
		handlers: make(map[string]map[int]Handler),
	}
}

// Connect dials the server and starts the read loop. The synthetic "connect"
// event fires before Connect returns.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("socket: client closed")
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	slog.Info("socket: connected", "client", c.id, "url", c.url)
	c.dispatch(EventConnect, nil)
	go c.run(conn)
	return nil
}

// Close tears the connection down for good. The client cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.connected = false
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteTimeout))
		return conn.Close()
	}
	return nil
}

// Closed reports whether the client was closed or gave up reconnecting.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Emit sends a named event as a single text frame.
func (c *Client) Emit(event string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("socket: encode %s: %w", event, err)
		}
		data = b
	}
	buf, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, buf)
}

// On subscribes h to a named event. The returned func removes exactly this
// subscription; calling it more than once is harmless.
func (c *Client) On(event string, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]Handler)
	}
	c.handlers[event][id] = h
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], id)
	}
}

// dispatch invokes subscribers in registration order, without holding the
// lock so handlers may Emit or resubscribe.
func (c *Client) dispatch(event string, data json.RawMessage) {
	c.mu.Lock()
	subs := c.handlers[event]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ordered := make([]Handler, len(ids))
	for i, id := range ids {
		ordered[i] = subs[id]
	}
	c.mu.Unlock()

	for _, h := range ordered {
		h(data)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	header := http.Header{}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}
	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, fmt.Errorf("socket: dial %s: %w", c.url, err)
	}
	return conn, nil
}

// run owns the connection lifecycle: read until failure, then reconnect and
// resume, until closed or attempts are exhausted.
func (c *Client) run(conn *websocket.Conn) {
	for {
		done := make(chan struct{})
		go c.pingLoop(conn, done)
		c.readLoop(conn)
		close(done)

		c.mu.Lock()
		c.connected = false
		c.conn = nil
		closed := c.closed
		c.mu.Unlock()
		conn.Close()

		c.dispatch(EventDisconnect, nil)
		if closed {
			return
		}

		slog.Warn("socket: disconnected, reconnecting", "client", c.id)
		next := c.reconnect()
		if next == nil {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return
		}
		conn = next
		c.dispatch(EventConnect, nil)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("socket: read error", "client", c.id, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
			slog.Debug("socket: ignoring malformed frame", "client", c.id, "error", err)
			continue
		}
		c.dispatch(f.Event, f.Data)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// reconnect redials with rate-limited pacing. Returns nil after exhausting
// the attempt budget.
func (c *Client) reconnect() *websocket.Conn {
	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return nil
		}
		if c.Closed() {
			return nil
		}
		conn, err := c.dial(context.Background())
		if err != nil {
			slog.Warn("socket: reconnect failed", "client", c.id, "attempt", attempt, "error", err)
			continue
		}
		c.mu.Lock()
		c.conn = conn
		c.connected = true
		c.mu.Unlock()
		slog.Info("socket: reconnected", "client", c.id, "attempt", attempt)
		return conn
	}
	slog.Error("socket: reconnect attempts exhausted", "client", c.id, "attempts", c.cfg.ReconnectAttempts)
	return nil
}
