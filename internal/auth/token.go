// Package auth stores the bearer credential attached to outbound requests.
// The token lives in the OS keyring when one is available, with a plain
// key-value fallback so headless environments still work. Storage failures
// are absorbed: auth flows must never break because persistence did.
package auth

import (
	"log/slog"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/nextlevelbuilder/tetherlink/internal/store"
)

const (
	keyringService = "tetherlink"
	keyringUser    = "auth-token"
	fallbackKey    = "auth_token"
)

// TokenStore resolves and persists the bearer token.
type TokenStore struct {
	kv store.KV
}

func NewTokenStore(kv store.KV) *TokenStore {
	return &TokenStore{kv: kv}
}

// Token returns the stored bearer token, or "" when none is set. Keyring and
// fallback read errors both read as "no token".
func (t *TokenStore) Token() string {
	if v, err := keyring.Get(keyringService, keyringUser); err == nil {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if v, ok := t.kv.Get(fallbackKey); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// SetToken stores the token, or clears it when empty.
func (t *TokenStore) SetToken(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		t.Clear()
		return
	}
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("auth: keyring unavailable, using file fallback", "error", err)
		if err := t.kv.Set(fallbackKey, token); err != nil {
			slog.Warn("auth: failed to persist token", "error", err)
		}
		return
	}
	// Token now lives in the keyring; drop any stale fallback copy.
	if err := t.kv.Delete(fallbackKey); err != nil {
		slog.Warn("auth: failed to clear token fallback", "error", err)
	}
}

// Clear removes the token from both backends.
func (t *TokenStore) Clear() {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && err != keyring.ErrNotFound {
		slog.Warn("auth: keyring delete failed", "error", err)
	}
	if err := t.kv.Delete(fallbackKey); err != nil {
		slog.Warn("auth: failed to clear token fallback", "error", err)
	}
}
