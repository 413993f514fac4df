// Package store defines the key-value persistence contract used for device
// identity, role overrides, and token fallback storage.
package store

// KV is a small persistent key-value store. Implementations must be safe for
// concurrent use. Read failures are reported as "not found" so that callers
// can degrade to defaults instead of propagating storage errors.
type KV interface {
	// Get returns the stored value, or ok=false when absent or unreadable.
	Get(key string) (value string, ok bool)
	// Set stores a value, overwriting any previous one.
	Set(key, value string) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
}
