package socket

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Dedupe suppresses events redelivered by the server after reconnect replay.
// Keys expire after the TTL; capacity evicts oldest first.
type Dedupe struct {
	cache *expirable.LRU[string, struct{}]
}

// NewDedupe creates a dedupe window. ttl=20min and size=512 suit event-id
// sized keys.
func NewDedupe(ttl time.Duration, size int) *Dedupe {
	return &Dedupe{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Seen records key and reports whether it was already present within the TTL.
func (d *Dedupe) Seen(key string) bool {
	if _, ok := d.cache.Get(key); ok {
		return true
	}
	d.cache.Add(key, struct{}{})
	return false
}
