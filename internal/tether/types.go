// Package tether implements the device-pairing session layer: stable device
// identity, debounced idempotent registration with reconnect replay, the
// pairing event fold, and the REST gateway for pairing operations.
package tether

// DeviceType is the pairing role of an installation.
type DeviceType string

const (
	DevicePC    DeviceType = "pc"
	DevicePhone DeviceType = "phone"
)

// Wire event names. These are the server contract and must not change.
const (
	EventRegisterDevice   = "tether:register-device"
	EventRequest          = "tether-request"
	EventAccepted         = "tether-accepted"
	EventRejected         = "tether-rejected"
	EventDisconnected     = "tether-disconnected"
	EventConnectionStatus = "connection-status"
	EventPhotoReceived    = "photo-received"
	EventUploadProgress   = "photo-upload-progress"
	EventFindMyPhone      = "tether:find-my-phone"
	EventPhoneFound       = "tether:phone-found"
	EventOpenSmartCrop    = "tether:open-smart-crop"
	EventJoinFormSession  = "tether:join-form-session"
)

// DeviceInfo identifies one side of a pairing.
type DeviceInfo struct {
	DeviceID   string     `json:"deviceId"`
	DeviceName string     `json:"deviceName"`
	DeviceType DeviceType `json:"deviceType,omitempty"`
}

// RegistrationPayload announces this device to the pairing channel.
type RegistrationPayload struct {
	UserID     string     `json:"userId"`
	DeviceID   string     `json:"deviceId"`
	DeviceType DeviceType `json:"deviceType"`
	DeviceName string     `json:"deviceName"`
}

// Request is an inbound pairing offer.
type Request struct {
	RequestID     string     `json:"requestId"`
	FromDevice    DeviceInfo `json:"fromDevice"`
	ToDeviceID    string     `json:"toDeviceId"`
	FormSessionID string     `json:"formSessionId,omitempty"`
}

// ConnectionStatus is the server's view of the current pairing.
type ConnectionStatus struct {
	IsConnected    bool        `json:"isConnected"`
	ConnectionID   string      `json:"connectionId,omitempty"`
	OtherDevice    *DeviceInfo `json:"otherDevice,omitempty"`
	ConnectedAt    string      `json:"connectedAt,omitempty"`
	PhotosUploaded int         `json:"photosUploaded,omitempty"`
}

// Accepted is the payload of a tether-accepted event.
type Accepted struct {
	ConnectionID string     `json:"connectionId"`
	PCDevice     DeviceInfo `json:"pcDevice"`
	PhoneDevice  DeviceInfo `json:"phoneDevice"`
}

// Rejected is the payload of a tether-rejected event.
type Rejected struct {
	RequestID string `json:"requestId"`
}

// Disconnected is the payload of a tether-disconnected event.
type Disconnected struct {
	ConnectionID string `json:"connectionId"`
}

// PhotoReceived notifies that the paired device transferred a photo.
// FieldName is "front_image" or "back_image".
type PhotoReceived struct {
	FormSessionID string `json:"formSessionId"`
	PhotoID       string `json:"photoId"`
	ImageURL      string `json:"imageUrl"`
	FieldName     string `json:"fieldName"`
}

// UploadProgress reports transfer progress for an in-flight photo.
type UploadProgress struct {
	FormSessionID string  `json:"formSessionId"`
	PhotoID       string  `json:"photoId"`
	Progress      float64 `json:"progress"`
	FieldName     string  `json:"fieldName"`
}

// FindMyPhone asks phone-role devices to identify themselves.
type FindMyPhone struct {
	FromDeviceID string `json:"fromDeviceId"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// PhoneFound is the reply to a find-my-phone broadcast.
type PhoneFound struct {
	FromDeviceID    string `json:"fromDeviceId"`
	PhoneDeviceID   string `json:"phoneDeviceId"`
	PhoneDeviceName string `json:"phoneDeviceName,omitempty"`
}

// OpenSmartCrop tells the paired device to open a crop flow for a form
// session.
type OpenSmartCrop struct {
	FormSessionID string `json:"formSessionId"`
	FromDeviceID  string `json:"fromDeviceId"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// JoinFormSession subscribes this connection to a form session's events.
type JoinFormSession struct {
	FormSessionID string `json:"formSessionId"`
}
