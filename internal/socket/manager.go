package socket

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager owns the process-wide channel handle: connect-on-demand,
// idempotent reuse of a live connection, disconnect-on-demand. Concurrent
// Connect calls share a single dial.
type Manager struct {
	url    string
	tokens TokenSource
	cfg    Config

	group  singleflight.Group
	mu     sync.Mutex
	client *Client
}

func NewManager(url string, tokens TokenSource, cfg Config) *Manager {
	return &Manager{url: url, tokens: tokens, cfg: cfg}
}

// Connect returns the live channel, dialing lazily. A client that was closed
// or gave up reconnecting is replaced by a fresh dial.
func (m *Manager) Connect(ctx context.Context) (*Client, error) {
	if c := m.Current(); c != nil && !c.Closed() {
		return c, nil
	}

	v, err, _ := m.group.Do("connect", func() (any, error) {
		if c := m.Current(); c != nil && !c.Closed() {
			return c, nil
		}
		c := NewClient(m.url, m.tokens, m.cfg)
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
		m.swap(c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

// Current returns the existing client without dialing; nil when none exists.
func (m *Manager) Current() *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

// Disconnect tears down the current client, if any.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	c := m.client
	m.client = nil
	m.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

func (m *Manager) swap(c *Client) {
	m.mu.Lock()
	old := m.client
	m.client = c
	m.mu.Unlock()
	if old != nil && old != c {
		old.Close()
	}
}
