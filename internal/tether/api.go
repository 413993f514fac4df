package tether

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nextlevelbuilder/tetherlink/internal/api"
)

// Endpoint paths (server contract).
const (
	pathInitiate      = "/api/tether/initiate"
	pathAccept        = "/api/tether/accept"
	pathReject        = "/api/tether/reject"
	pathDisconnect    = "/api/tether/disconnect"
	pathStatus        = "/api/tether/status"
	pathUploadPhoto   = "/api/tether/upload-photo"
	pathPendingPhotos = "/api/tether/pending-photos"
	pathActiveDevices = "/api/tether/active-devices"
	pathFindMyPhone   = "/api/tether/find-my-phone"
)

const (
	// statusTimeout bounds the quick read endpoints.
	statusTimeout = 15 * time.Second
	// uploadTimeout allows slow photo transfers over mobile links.
	uploadTimeout = 60 * time.Second
)

// API is the request gateway for pairing operations: path and payload
// shaping over the resilient client, nothing more.
type API struct {
	client *api.Client
}

func NewAPI(client *api.Client) *API {
	return &API{client: client}
}

// InitiateRequest starts a pairing toward another device.
type InitiateRequest struct {
	DeviceType    DeviceType `json:"deviceType"`
	DeviceID      string     `json:"deviceId"`
	DeviceName    string     `json:"deviceName,omitempty"`
	ToDeviceID    string     `json:"toDeviceId"`
	FormSessionID string     `json:"formSessionId,omitempty"`
	FormType      string     `json:"formType,omitempty"` // e.g. "add-car", "edit-car"
}

// StatusResponse is the status endpoint's payload. FormSessionID, when
// present, lets a reconnecting device rejoin an in-progress form session.
type StatusResponse struct {
	Success bool `json:"success"`
	ConnectionStatus
	FormSessionID string `json:"formSessionId,omitempty"`
}

func (a *API) Initiate(ctx context.Context, req InitiateRequest) error {
	_, err := a.client.DoWithRetry(ctx, pathInitiate, api.Options{
		Method: http.MethodPost,
		Body:   req,
	})
	return err
}

func (a *API) Accept(ctx context.Context, requestID string) error {
	_, err := a.client.DoWithRetry(ctx, pathAccept, api.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"requestId": requestID},
	})
	return err
}

func (a *API) Reject(ctx context.Context, requestID string) error {
	_, err := a.client.DoWithRetry(ctx, pathReject, api.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"requestId": requestID},
	})
	return err
}

func (a *API) Disconnect(ctx context.Context, connectionID string) error {
	_, err := a.client.DoWithRetry(ctx, pathDisconnect, api.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"connectionId": connectionID},
	})
	return err
}

func (a *API) Status(ctx context.Context, deviceID string) (*StatusResponse, error) {
	q := url.Values{"deviceId": {deviceID}}
	resp, err := a.client.DoWithRetry(ctx, pathStatus+"?"+q.Encode(), api.Options{
		Timeout: statusTimeout,
	})
	if err != nil {
		return nil, err
	}
	var out StatusResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadPhoto transfers one captured image for a form session. fieldName is
// "front_image" or "back_image".
func (a *API) UploadPhoto(ctx context.Context, formSessionID, fieldName, fileName string, image io.Reader) error {
	body, err := api.NewMultipart(map[string]string{
		"formSessionId": formSessionID,
		"fieldName":     fieldName,
	}, "image", fileName, image)
	if err != nil {
		return err
	}
	_, err = a.client.DoWithRetry(ctx, pathUploadPhoto, api.Options{
		Method:  http.MethodPost,
		Body:    body,
		Timeout: uploadTimeout,
	})
	return err
}

func (a *API) PendingPhotos(ctx context.Context, formSessionID string) ([]PhotoReceived, error) {
	q := url.Values{"formSessionId": {formSessionID}}
	resp, err := a.client.DoWithRetry(ctx, pathPendingPhotos+"?"+q.Encode(), api.Options{
		Timeout: statusTimeout,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Photos []PhotoReceived `json:"photos"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out.Photos, nil
}

// ActiveDevices lists registered devices, optionally filtered by role
// (empty deviceType = all).
func (a *API) ActiveDevices(ctx context.Context, deviceType DeviceType) ([]DeviceInfo, error) {
	path := pathActiveDevices
	if deviceType != "" {
		q := url.Values{"deviceType": {string(deviceType)}}
		path += "?" + q.Encode()
	}
	resp, err := a.client.DoWithRetry(ctx, path, api.Options{})
	if err != nil {
		return nil, err
	}
	var out struct {
		Devices []DeviceInfo `json:"devices"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

// FindMyPhone triggers the server-side broadcast asking paired phones to
// identify themselves.
func (a *API) FindMyPhone(ctx context.Context, deviceID string) error {
	_, err := a.client.DoWithRetry(ctx, pathFindMyPhone, api.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"deviceId": deviceID},
	})
	return err
}
