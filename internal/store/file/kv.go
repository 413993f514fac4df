// Package file provides the JSON-file-backed implementation of store.KV.
package file

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// KVStore persists key-value pairs as a single pretty-printed JSON file
// (e.g., ~/.tetherlink/data/device.json). Reads come from an in-memory map
// loaded once at construction; every write rewrites the file.
type KVStore struct {
	path    string
	mu      sync.Mutex
	entries map[string]string
}

// NewKVStore opens (or lazily creates) the store at path. A missing or
// unreadable file starts the store empty rather than failing.
func NewKVStore(path string) *KVStore {
	s := &KVStore{
		path:    path,
		entries: make(map[string]string),
	}
	s.load()
	return s
}

func (s *KVStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

func (s *KVStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return s.save()
}

func (s *KVStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.save()
}

func (s *KVStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return // file doesn't exist yet
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		slog.Warn("kv: corrupt store file, starting empty", "path", s.path, "error", err)
		s.entries = make(map[string]string)
	}
}

// save must be called with s.mu held.
func (s *KVStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		slog.Error("kv: failed to create dir", "path", dir, "error", err)
		return err
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		slog.Error("kv: failed to marshal store", "error", err)
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		slog.Error("kv: failed to write store", "path", s.path, "error", err)
		return err
	}
	return nil
}
