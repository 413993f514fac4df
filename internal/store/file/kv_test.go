package file

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKVStore_SetGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "kv.json")
	s := NewKVStore(path)

	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected missing key")
	}

	if err := s.Set("device_id", "170000-abc123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok := s.Get("device_id")
	if !ok || v != "170000-abc123" {
		t.Errorf("got %q ok=%v, want 170000-abc123", v, ok)
	}

	if err := s.Delete("device_id"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get("device_id"); ok {
		t.Error("expected key gone after delete")
	}

	// Deleting an absent key is a no-op.
	if err := s.Delete("device_id"); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}

func TestKVStore_ReloadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")

	s1 := NewKVStore(path)
	if err := s1.Set("a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s1.Set("b", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}

	s2 := NewKVStore(path)
	if v, ok := s2.Get("a"); !ok || v != "1" {
		t.Errorf("a: got %q ok=%v", v, ok)
	}
	if v, ok := s2.Get("b"); !ok || v != "2" {
		t.Errorf("b: got %q ok=%v", v, ok)
	}
}

func TestKVStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewKVStore(path)
	if _, ok := s.Get("anything"); ok {
		t.Error("corrupt store should read as empty")
	}
	if err := s.Set("k", "v"); err != nil {
		t.Errorf("set after corrupt load: %v", err)
	}
}
