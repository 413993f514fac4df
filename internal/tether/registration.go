package tether

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/nextlevelbuilder/tetherlink/internal/socket"
)

// registrationDebounce drops registration attempts landing within this
// window of the previous one. Rapid UI re-renders must not flood the channel.
const registrationDebounce = 2000 * time.Millisecond

// Channel is the slice of the realtime connection this package needs.
// *socket.Client satisfies it.
type Channel interface {
	Emit(event string, payload any) error
	On(event string, h socket.Handler) (off func())
	Connected() bool
}

// Registrar announces this device's presence on the pairing channel exactly
// once per logical registration intent, replaying the last payload after
// every reconnect. The channel may reconnect silently; without replay the
// server would never re-learn a device whose registration entry it lost.
type Registrar struct {
	ch       Channel
	identity *Identity
	clock    clock.Clock

	mu            sync.Mutex
	lastAttempt   time.Time
	inFlight      bool
	registeredID  string
	lastPayload   *RegistrationPayload
	offConnect    func()
	offDisconnect func()
}

func NewRegistrar(ch Channel, identity *Identity) *Registrar {
	return &Registrar{ch: ch, identity: identity, clock: clock.New()}
}

// RegisterDevice resolves the device identity and announces it for userID.
// The call is a no-op when the same device is already registered on a live
// connection, when another registration is in flight, or when one happened
// within the debounce window. If the channel is down, the payload is stored
// and emitted once "connect" fires.
func (r *Registrar) RegisterDevice(userID, deviceName string) error {
	deviceID := r.identity.DeviceID()
	deviceType := r.identity.DeviceType()
	if deviceName == "" {
		deviceName = DefaultDeviceName(deviceType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registeredID == deviceID && r.ch.Connected() {
		return nil
	}
	if !shouldEmit(r.clock.Now(), r.lastAttempt, r.inFlight) {
		return nil
	}

	payload := &RegistrationPayload{
		UserID:     userID,
		DeviceID:   deviceID,
		DeviceType: deviceType,
		DeviceName: deviceName,
	}
	r.lastPayload = payload

	// Exactly one reconnect handler: replace, never stack.
	if r.offConnect != nil {
		r.offConnect()
	}
	r.offConnect = r.ch.On(socket.EventConnect, func(json.RawMessage) { r.replay() })

	if r.offDisconnect != nil {
		r.offDisconnect()
	}
	r.offDisconnect = r.ch.On(socket.EventDisconnect, func(json.RawMessage) {
		r.mu.Lock()
		r.registeredID = ""
		r.mu.Unlock()
	})

	if !r.ch.Connected() {
		// Stored for replay; emission happens when connect fires.
		return nil
	}

	r.emitLocked(payload)
	return nil
}

// Stop removes the installed channel handlers. The stored payload survives
// so a later RegisterDevice reuses debounce state consistently.
func (r *Registrar) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offConnect != nil {
		r.offConnect()
		r.offConnect = nil
	}
	if r.offDisconnect != nil {
		r.offDisconnect()
		r.offDisconnect = nil
	}
}

// replay re-emits the last known payload after a reconnect, still subject to
// the debounce and in-flight guards.
func (r *Registrar) replay() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastPayload == nil {
		return
	}
	if !shouldEmit(r.clock.Now(), r.lastAttempt, r.inFlight) {
		return
	}
	r.emitLocked(r.lastPayload)
}

// emitLocked performs the actual emission. Caller holds r.mu, so the
// check-then-set of the guard fields is atomic within one synchronous step.
func (r *Registrar) emitLocked(payload *RegistrationPayload) {
	r.inFlight = true
	if err := r.ch.Emit(EventRegisterDevice, payload); err != nil {
		slog.Warn("registrar: emit failed", "deviceId", payload.DeviceID, "error", err)
	} else {
		slog.Info("registrar: device registered",
			"deviceId", payload.DeviceID,
			"deviceType", payload.DeviceType,
		)
	}
	r.lastAttempt = r.clock.Now()
	r.registeredID = payload.DeviceID
	r.inFlight = false
}

// shouldEmit is the pure debounce/reentrancy decision: no emission while one
// is in flight or within the debounce window of the last attempt.
func shouldEmit(now, lastAttempt time.Time, inFlight bool) bool {
	if inFlight {
		return false
	}
	return now.Sub(lastAttempt) >= registrationDebounce
}
