package tether

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/nextlevelbuilder/tetherlink/internal/store"
)

const (
	deviceIDKey   = "tether_device_id"
	deviceTypeKey = "tether_device_type"

	// phoneMaxDimension is the largest smaller-screen-dimension (logical
	// units) still classified as a phone on mobile platforms.
	phoneMaxDimension = 900
)

// ScreenInfo describes the physical display, used for role detection.
// Mobile marks handheld platforms; desktops always resolve to pc.
type ScreenInfo struct {
	Width  float64
	Height float64
	Mobile bool
}

// Identity resolves and persists this installation's pairing identity.
// Storage failures degrade to regeneration-per-call rather than surfacing.
type Identity struct {
	kv     store.KV
	screen ScreenInfo
	clock  clock.Clock
}

func NewIdentity(kv store.KV, screen ScreenInfo) *Identity {
	return &Identity{kv: kv, screen: screen, clock: clock.New()}
}

// DeviceID returns the persisted device id, generating and persisting a new
// one on first use. Never fails: if persistence is broken the id is simply
// regenerated on the next call.
func (i *Identity) DeviceID() string {
	if id, ok := i.kv.Get(deviceIDKey); ok && id != "" {
		return id
	}
	id := i.newID()
	if err := i.kv.Set(deviceIDKey, id); err != nil {
		slog.Warn("identity: failed to persist device id", "error", err)
	}
	return id
}

// newID builds a time-prefixed id with a random suffix; collisions are
// negligible.
func (i *Identity) newID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%d-%s", i.clock.Now().UnixMilli(), suffix)
}

// DeviceType returns the forced override when set, otherwise the screen-size
// heuristic: on mobile platforms the smaller dimension at or below 900
// logical units means phone; desktops are always pc.
func (i *Identity) DeviceType() DeviceType {
	if forced, ok := i.kv.Get(deviceTypeKey); ok {
		if t := DeviceType(forced); t == DevicePC || t == DevicePhone {
			return t
		}
	}
	if !i.screen.Mobile {
		return DevicePC
	}
	minDim := i.screen.Width
	if i.screen.Height < minDim {
		minDim = i.screen.Height
	}
	if minDim <= phoneMaxDimension {
		return DevicePhone
	}
	return DevicePC
}

// SetForcedDeviceType persists a role override that wins over the heuristic.
func (i *Identity) SetForcedDeviceType(t DeviceType) error {
	if t != DevicePC && t != DevicePhone {
		return fmt.Errorf("invalid device type %q", t)
	}
	return i.kv.Set(deviceTypeKey, string(t))
}

// ClearForcedDeviceType removes the override, restoring the heuristic.
func (i *Identity) ClearForcedDeviceType() error {
	return i.kv.Delete(deviceTypeKey)
}

// DefaultDeviceName is the display name used when the caller does not
// provide one.
func DefaultDeviceName(t DeviceType) string {
	if t == DevicePC {
		return "PC"
	}
	return "Phone"
}
