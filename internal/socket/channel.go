// Package socket provides the realtime channel used for device registration
// and pairing events: a websocket connection carrying named JSON events, with
// transparent reconnect and an idempotent process-wide connection manager.
package socket

import "encoding/json"

// Handler receives the raw JSON payload of a named event.
type Handler func(data json.RawMessage)

// TokenSource resolves the bearer credential attached to the connect
// handshake. An empty token connects unauthenticated.
type TokenSource interface {
	Token() string
}

// Channel is a bidirectional named-event connection.
type Channel interface {
	// Emit sends a named event. Fails when the channel is not connected.
	Emit(event string, payload any) error
	// On subscribes to a named event and returns the unsubscribe func.
	On(event string, h Handler) (off func())
	// Connected reports whether the underlying connection is live.
	Connected() bool
}

// Frame is the wire format: one JSON object per websocket text message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Synthetic lifecycle events delivered to subscribers alongside server
// events. Payloads are empty.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)
