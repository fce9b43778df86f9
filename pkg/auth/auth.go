package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthDecision is one authenticator's vote on a request.
type AuthDecision int

const (
	// Yes accepts the credentials. The chain stops and the attached
	// identity travels with the request.
	Yes AuthDecision = iota

	// No rejects the credentials. Voters answer No only for credentials
	// of their own kind that fail to verify.
	No

	// Abstain passes the request to the next voter. Credentials of a
	// kind a voter does not recognize get an Abstain, not a No.
	Abstain
)

// AuthResult is a vote together with its supporting detail.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity // set on Yes
	Err      error     // set on No
}

// Identity describes the caller a voter has verified.
type Identity struct {
	// Subject identifies the caller. Middleware rejects an accepted
	// request whose identity carries an empty subject.
	Subject string

	// Scopes lists granted authorization scopes.
	Scopes []string

	// Metadata holds verifier-specific attributes. The "tenant_id" key
	// scopes binding storage per tenant.
	Metadata map[string]string
}

// TenantID returns the tenant attribute, or "" when the identity carries
// none.
func (id *Identity) TenantID() string {
	if id == nil || id.Metadata == nil {
		return ""
	}
	return id.Metadata["tenant_id"]
}

// Authenticator votes on one request's credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
)

// AuthChain runs voters in order and settles on the first Yes or No.
type AuthChain struct {
	Authenticators []Authenticator

	// DefaultDecision settles a request every voter abstained on.
	// Yes admits it as anonymous; No turns it away.
	DefaultDecision AuthDecision
}

// Authenticate evaluates the chain left to right.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}

	if c.DefaultDecision == Yes {
		return AuthResult{
			Decision: Yes,
			Identity: &Identity{Subject: "anonymous"},
		}
	}

	return AuthResult{
		Decision: No,
		Err:      ErrUnauthenticated,
	}
}
