package tether

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nextlevelbuilder/tetherlink/internal/socket"
)

// Session folds pairing events into a consistent local view. The server is
// the source of truth: all fields here are ephemeral and rebuilt from events
// each app session. Events may arrive independently and out of order, so the
// pieces of state are tracked separately rather than as one strict automaton.
type Session struct {
	ch       Channel
	identity *Identity
	api      *API
	dedupe   *socket.Dedupe

	mu              sync.Mutex
	pending         *Request
	status          *ConnectionStatus
	lastPhoto       *PhotoReceived
	lastProgress    *UploadProgress
	incomingSession string
}

func NewSession(ch Channel, identity *Identity, api *API) *Session {
	return &Session{
		ch:       ch,
		identity: identity,
		api:      api,
		dedupe:   socket.NewDedupe(20*time.Minute, 512),
	}
}

// Subscribe installs all pairing event handlers and returns one composite
// unsubscribe. Safe to call again after identity or registration inputs
// change, provided the previous unsubscribe ran.
func (s *Session) Subscribe() (off func()) {
	offs := []func(){
		s.ch.On(EventRequest, s.onRequest),
		s.ch.On(EventAccepted, s.onAccepted),
		s.ch.On(EventRejected, s.onRejected),
		s.ch.On(EventDisconnected, s.onDisconnected),
		s.ch.On(EventConnectionStatus, s.onConnectionStatus),
		s.ch.On(EventPhotoReceived, s.onPhotoReceived),
		s.ch.On(EventUploadProgress, s.onUploadProgress),
		s.ch.On(EventFindMyPhone, s.onFindMyPhone),
		s.ch.On(EventOpenSmartCrop, s.onOpenSmartCrop),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// CheckStatus fetches the server-side pairing status and replaces the local
// view. When the server reports an active form session, the channel joins it
// so a device reconnecting mid-flow regains continuity.
func (s *Session) CheckStatus(ctx context.Context) error {
	deviceID := s.identity.DeviceID()
	resp, err := s.api.Status(ctx, deviceID)
	if err != nil {
		return err
	}
	if !resp.Success {
		return nil
	}

	status := resp.ConnectionStatus
	s.mu.Lock()
	s.status = &status
	if resp.FormSessionID != "" {
		s.incomingSession = resp.FormSessionID
	}
	s.mu.Unlock()

	if resp.FormSessionID != "" {
		if err := s.ch.Emit(EventJoinFormSession, JoinFormSession{FormSessionID: resp.FormSessionID}); err != nil {
			slog.Warn("session: join form session failed", "formSessionId", resp.FormSessionID, "error", err)
		}
	}
	return nil
}

// PendingRequest returns the tracked inbound pairing offer, if any.
func (s *Session) PendingRequest() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	req := *s.pending
	return &req
}

// Status returns the last known connection status, if any.
func (s *Session) Status() *ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return nil
	}
	st := *s.status
	return &st
}

// LastPhoto returns the most recently received photo notification.
func (s *Session) LastPhoto() *PhotoReceived {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastPhoto == nil {
		return nil
	}
	p := *s.lastPhoto
	return &p
}

// LastProgress returns the most recent photo upload progress report.
func (s *Session) LastProgress() *UploadProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastProgress == nil {
		return nil
	}
	p := *s.lastProgress
	return &p
}

// IncomingFormSession returns the form session id pushed by the paired
// device, or "".
func (s *Session) IncomingFormSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incomingSession
}

// --- Event handlers. Malformed events are ignored, never propagated. ---

func (s *Session) onRequest(data json.RawMessage) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil || req.RequestID == "" {
		slog.Debug("session: ignoring malformed tether-request", "error", err)
		return
	}
	s.mu.Lock()
	s.pending = &req
	s.mu.Unlock()
	slog.Info("session: pairing request received", "requestId", req.RequestID, "from", req.FromDevice.DeviceID)
}

func (s *Session) onAccepted(data json.RawMessage) {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

func (s *Session) onRejected(data json.RawMessage) {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

func (s *Session) onDisconnected(data json.RawMessage) {
	s.mu.Lock()
	s.status = nil
	s.mu.Unlock()
	slog.Info("session: pairing disconnected")
}

func (s *Session) onConnectionStatus(data json.RawMessage) {
	var status ConnectionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		slog.Debug("session: ignoring malformed connection-status", "error", err)
		return
	}
	s.mu.Lock()
	s.status = &status
	s.mu.Unlock()
}

func (s *Session) onPhotoReceived(data json.RawMessage) {
	var photo PhotoReceived
	if err := json.Unmarshal(data, &photo); err != nil || photo.PhotoID == "" {
		slog.Debug("session: ignoring malformed photo-received", "error", err)
		return
	}
	// The server replays undelivered photos after reconnect.
	if s.dedupe.Seen("photo:" + photo.PhotoID) {
		return
	}
	s.mu.Lock()
	s.lastPhoto = &photo
	s.mu.Unlock()
	slog.Info("session: photo received", "photoId", photo.PhotoID, "field", photo.FieldName)
}

func (s *Session) onUploadProgress(data json.RawMessage) {
	var progress UploadProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return
	}
	s.mu.Lock()
	s.lastProgress = &progress
	s.mu.Unlock()
}

// onFindMyPhone answers only on phone-role devices with a known id; pc
// devices stay silent.
func (s *Session) onFindMyPhone(data json.RawMessage) {
	var find FindMyPhone
	if err := json.Unmarshal(data, &find); err != nil || find.FromDeviceID == "" {
		return
	}
	if s.identity.DeviceType() != DevicePhone {
		return
	}
	deviceID := s.identity.DeviceID()
	if deviceID == "" {
		return
	}
	reply := PhoneFound{
		FromDeviceID:    find.FromDeviceID,
		PhoneDeviceID:   deviceID,
		PhoneDeviceName: DefaultDeviceName(DevicePhone),
	}
	if err := s.ch.Emit(EventPhoneFound, reply); err != nil {
		slog.Warn("session: phone-found emit failed", "error", err)
	}
}

func (s *Session) onOpenSmartCrop(data json.RawMessage) {
	var open OpenSmartCrop
	if err := json.Unmarshal(data, &open); err != nil || open.FormSessionID == "" {
		return
	}
	s.mu.Lock()
	s.incomingSession = open.FormSessionID
	s.mu.Unlock()
	slog.Info("session: smart crop requested", "formSessionId", open.FormSessionID)
}
