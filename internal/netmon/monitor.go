// Package netmon tracks network reachability for the offline-aware request
// client. The monitor answers a single question: is the network believed to
// be available right now?
package netmon

import (
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor reports current network availability.
type Monitor interface {
	Available() bool
}

// Static always reports a fixed availability. Used when probing is disabled,
// defaulting to "available" so requests are attempted normally.
type Static bool

func (s Static) Available() bool { return bool(s) }

// Prober dials a TCP target periodically and caches the result. It starts
// optimistic (available) until the first probe completes.
type Prober struct {
	addr     string
	interval time.Duration
	timeout  time.Duration

	available atomic.Bool

	mu       sync.Mutex
	stopChan chan struct{}
}

// NewProber creates a prober for addr (host:port). Call Start to begin
// probing.
func NewProber(addr string, interval time.Duration) *Prober {
	p := &Prober{
		addr:     addr,
		interval: interval,
		timeout:  5 * time.Second,
	}
	p.available.Store(true)
	return p
}

func (p *Prober) Available() bool {
	return p.available.Load()
}

// Start begins the probe loop. Calling Start twice is a no-op.
func (p *Prober) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopChan != nil {
		return
	}
	p.stopChan = make(chan struct{})
	go p.probeLoop(p.stopChan)
}

// Stop halts the probe loop.
func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopChan != nil {
		close(p.stopChan)
		p.stopChan = nil
	}
}

func (p *Prober) probeLoop(stop chan struct{}) {
	p.probe()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.probe()
		}
	}
}

func (p *Prober) probe() {
	conn, err := net.DialTimeout("tcp", p.addr, p.timeout)
	up := err == nil
	if conn != nil {
		conn.Close()
	}
	if p.available.Swap(up) != up {
		if up {
			slog.Info("netmon: network available", "target", p.addr)
		} else {
			slog.Warn("netmon: network unavailable", "target", p.addr, "error", err)
		}
	}
}
