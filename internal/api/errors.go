package api

import (
	"fmt"
	"time"
)

// Error is a non-2xx HTTP response. Payload carries the parsed JSON error
// body when the server sent one, so callers can branch on server-specified
// fields without another round-trip.
type Error struct {
	Status  int
	Message string
	Payload map[string]any // parsed JSON body, nil for non-JSON responses
	Raw     string         // raw body for non-JSON responses
}

func (e *Error) Error() string {
	return fmt.Sprintf("request failed: %d %s", e.Status, e.Message)
}

// Retryable reports whether the failure is worth retrying: server errors,
// request timeout at the server, and rate limiting. Other 4xx are terminal.
func (e *Error) Retryable() bool {
	return e.Status >= 500 || e.Status == 408 || e.Status == 429
}

// OfflineError means no network attempt was made (or connectivity never
// returned while waiting during retry).
type OfflineError struct{}

func (*OfflineError) Error() string { return "no network connection available" }

// TimeoutError means the request was aborted after the timeout elapsed.
// Distinct from a transport-level network failure.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.Path, e.Timeout)
}

func newError(status int, payload map[string]any, raw string) *Error {
	msg := "Request failed"
	if payload != nil {
		if m, ok := payload["message"].(string); ok && m != "" {
			msg = m
		} else if m, ok := payload["error"].(string); ok && m != "" {
			msg = m
		}
	} else if raw != "" {
		msg = raw
	}
	return &Error{Status: status, Message: msg, Payload: payload, Raw: raw}
}
