// Package noop provides a pass-through authenticator for deployments
// that do not require authentication.
package noop

import (
	"context"
	"net/http"

	"github.com/modgate/modgate/pkg/auth"
)

// Authenticator always approves requests with an anonymous identity.
type Authenticator struct{}

// New creates a no-op authenticator.
func New() *Authenticator {
	return &Authenticator{}
}

// Authenticate always returns Yes with an anonymous identity.
func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: "anonymous"},
	}
}
