package tether

import (
	"strings"
	"testing"
)

func TestDeviceID_GeneratedOnceAndPersisted(t *testing.T) {
	kv := newFakeKV()
	id := NewIdentity(kv, ScreenInfo{})

	first := id.DeviceID()
	if first == "" {
		t.Fatal("expected non-empty device id")
	}
	if !strings.Contains(first, "-") {
		t.Errorf("expected time-prefixed id, got %q", first)
	}
	if second := id.DeviceID(); second != first {
		t.Errorf("id changed between calls: %q then %q", first, second)
	}

	// A fresh resolver over the same storage sees the same id.
	other := NewIdentity(kv, ScreenInfo{})
	if got := other.DeviceID(); got != first {
		t.Errorf("persisted id not reused: %q vs %q", got, first)
	}
}

func TestDeviceID_BrokenStorageNeverFails(t *testing.T) {
	id := NewIdentity(brokenKV{}, ScreenInfo{})

	first := id.DeviceID()
	second := id.DeviceID()
	if first == "" || second == "" {
		t.Fatal("device id must be generated even when storage is broken")
	}
	// Regeneration per call is the accepted degradation.
	if first == second {
		t.Error("expected fresh id per call with broken storage")
	}
}

func TestDeviceType_Heuristic(t *testing.T) {
	tests := []struct {
		name   string
		screen ScreenInfo
		want   DeviceType
	}{
		{"mobile small portrait", ScreenInfo{Width: 390, Height: 844, Mobile: true}, DevicePhone},
		{"mobile at boundary", ScreenInfo{Width: 900, Height: 1600, Mobile: true}, DevicePhone},
		{"mobile just above boundary", ScreenInfo{Width: 901, Height: 1600, Mobile: true}, DevicePC},
		{"mobile landscape tablet", ScreenInfo{Width: 1366, Height: 1024, Mobile: true}, DevicePC},
		{"mobile landscape phone", ScreenInfo{Width: 844, Height: 390, Mobile: true}, DevicePhone},
		{"desktop small window", ScreenInfo{Width: 400, Height: 300, Mobile: false}, DevicePC},
		{"desktop large", ScreenInfo{Width: 2560, Height: 1440, Mobile: false}, DevicePC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewIdentity(newFakeKV(), tt.screen)
			if got := id.DeviceType(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceType_ForcedOverrideWins(t *testing.T) {
	kv := newFakeKV()
	id := NewIdentity(kv, ScreenInfo{Width: 390, Height: 844, Mobile: true})

	if got := id.DeviceType(); got != DevicePhone {
		t.Fatalf("precondition: heuristic should say phone, got %q", got)
	}

	if err := id.SetForcedDeviceType(DevicePC); err != nil {
		t.Fatalf("set forced: %v", err)
	}
	if got := id.DeviceType(); got != DevicePC {
		t.Errorf("forced pc ignored, got %q", got)
	}

	if err := id.ClearForcedDeviceType(); err != nil {
		t.Fatalf("clear forced: %v", err)
	}
	if got := id.DeviceType(); got != DevicePhone {
		t.Errorf("heuristic not restored after clear, got %q", got)
	}
}

func TestSetForcedDeviceType_RejectsUnknownRole(t *testing.T) {
	id := NewIdentity(newFakeKV(), ScreenInfo{})
	if err := id.SetForcedDeviceType("tablet"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestDeviceType_IgnoresCorruptOverride(t *testing.T) {
	kv := newFakeKV()
	kv.Set(deviceTypeKey, "garbage")
	id := NewIdentity(kv, ScreenInfo{Width: 390, Height: 844, Mobile: true})
	if got := id.DeviceType(); got != DevicePhone {
		t.Errorf("corrupt override should fall back to heuristic, got %q", got)
	}
}

func TestDefaultDeviceName(t *testing.T) {
	if got := DefaultDeviceName(DevicePC); got != "PC" {
		t.Errorf("pc: got %q", got)
	}
	if got := DefaultDeviceName(DevicePhone); got != "Phone" {
		t.Errorf("phone: got %q", got)
	}
}
