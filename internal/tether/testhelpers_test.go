package tether

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/nextlevelbuilder/tetherlink/internal/socket"
)

// fakeChannel is an in-process Channel for exercising registration and
// session logic without a websocket.
type fakeChannel struct {
	mu        sync.Mutex
	connected bool
	emits     []emittedEvent
	handlers  map[string]map[int]socket.Handler
	nextID    int
}

type emittedEvent struct {
	event string
	data  json.RawMessage
}

func newFakeChannel(connected bool) *fakeChannel {
	return &fakeChannel{
		connected: connected,
		handlers:  make(map[string]map[int]socket.Handler),
	}
}

func (f *fakeChannel) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, emittedEvent{event: event, data: data})
	return nil
}

func (f *fakeChannel) On(event string, h socket.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	if f.handlers[event] == nil {
		f.handlers[event] = make(map[int]socket.Handler)
	}
	f.handlers[event][id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers[event], id)
	}
}

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeChannel) setConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

// fire delivers an event to subscribers the way the socket client does:
// handlers run without the channel lock held.
func (f *fakeChannel) fire(t *testing.T, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("fire %s: %v", event, err)
	}
	f.mu.Lock()
	hs := make([]socket.Handler, 0, len(f.handlers[event]))
	for _, h := range f.handlers[event] {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

// fireRaw delivers a raw (possibly malformed) payload.
func (f *fakeChannel) fireRaw(event string, data json.RawMessage) {
	f.mu.Lock()
	hs := make([]socket.Handler, 0, len(f.handlers[event]))
	for _, h := range f.handlers[event] {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

func (f *fakeChannel) emitted(event string) []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emittedEvent
	for _, e := range f.emits {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeChannel) handlerCount(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers[event])
}

// fakeKV is a map-backed store.KV.
type fakeKV struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{entries: make(map[string]string)}
}

func (k *fakeKV) Get(key string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.entries[key]
	return v, ok
}

func (k *fakeKV) Set(key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries[key] = value
	return nil
}

func (k *fakeKV) Delete(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, key)
	return nil
}

// brokenKV simulates unreadable, unwritable storage.
type brokenKV struct{}

func (brokenKV) Get(string) (string, bool) { return "", false }
func (brokenKV) Set(string, string) error  { return errBroken }
func (brokenKV) Delete(string) error       { return errBroken }

var errBroken = &brokenStorageError{}

type brokenStorageError struct{}

func (*brokenStorageError) Error() string { return "storage broken" }
