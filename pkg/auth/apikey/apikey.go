// Package apikey votes on bearer tokens against a static key table. Keys
// are SHA-256 hashed at construction and matched in constant time, so the
// authenticator never holds or leaks plaintext keys.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/modgate/modgate/pkg/auth"
)

// KeyEntry pairs a hashed key with the identity it grants.
type KeyEntry struct {
	KeyHash  [32]byte
	Identity auth.Identity
}

// RawKeyEntry is a plaintext key as it arrives from configuration.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

// Authenticator matches bearer tokens against the configured key table.
type Authenticator struct {
	keys []KeyEntry
}

// New hashes every configured key. The plaintext is dropped here.
func New(entries []RawKeyEntry) *Authenticator {
	a := &Authenticator{}
	for _, e := range entries {
		a.keys = append(a.keys, KeyEntry{
			KeyHash:  sha256.Sum256([]byte(e.Key)),
			Identity: e.Identity,
		})
	}
	return a
}

// Authenticate votes Yes for a known key, No for an unknown or empty
// bearer token, and abstains when the request carries no bearer token at
// all.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	tokenHash := sha256.Sum256([]byte(token))

	for _, entry := range a.keys {
		if subtle.ConstantTimeCompare(tokenHash[:], entry.KeyHash[:]) == 1 {
			// Hand out a copy so callers cannot mutate the table.
			id := entry.Identity
			return auth.AuthResult{Decision: auth.Yes, Identity: &id}
		}
	}

	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
