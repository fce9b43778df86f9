package jwt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/modgate/modgate/pkg/auth"
)

const testSecret = "test-signing-secret"

func mintToken(t *testing.T, secret string, claims jwtlib.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func requestWithAuth(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/modules", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}

func TestAuthenticateValidToken(t *testing.T) {
	a := New(Config{Secret: testSecret})

	token := mintToken(t, testSecret, jwtlib.MapClaims{
		"sub":       "alice",
		"tenant_id": "acme",
		"scope":     "modules:read modules:call",
	})

	result := a.Authenticate(context.Background(), requestWithAuth("Bearer "+token))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %v, want Yes (err: %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want alice", result.Identity.Subject)
	}
	if result.Identity.TenantID() != "acme" {
		t.Errorf("TenantID = %q, want acme", result.Identity.TenantID())
	}
	if len(result.Identity.Scopes) != 2 || result.Identity.Scopes[0] != "modules:read" {
		t.Errorf("Scopes = %v, want [modules:read modules:call]", result.Identity.Scopes)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	a := New(Config{Secret: testSecret, Issuer: "modgate", Audience: "api"})

	goodClaims := func() jwtlib.MapClaims {
		return jwtlib.MapClaims{
			"sub": "alice",
			"iss": "modgate",
			"aud": "api",
		}
	}

	wrongIssuer := goodClaims()
	wrongIssuer["iss"] = "someone-else"

	wrongAudience := goodClaims()
	wrongAudience["aud"] = "other-api"

	noSubject := goodClaims()
	delete(noSubject, "sub")

	expired := goodClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name   string
		secret string
		claims jwtlib.MapClaims
	}{
		{"wrong secret", "other-secret", goodClaims()},
		{"wrong issuer", testSecret, wrongIssuer},
		{"wrong audience", testSecret, wrongAudience},
		{"missing subject", testSecret, noSubject},
		{"expired", testSecret, expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := mintToken(t, tt.secret, tt.claims)
			result := a.Authenticate(context.Background(), requestWithAuth("Bearer "+token))
			if result.Decision != auth.No {
				t.Errorf("Decision = %v, want No", result.Decision)
			}
			if result.Err == nil {
				t.Error("Err = nil, want error")
			}
		})
	}
}

func TestAuthenticateValidWithIssuerAudience(t *testing.T) {
	a := New(Config{Secret: testSecret, Issuer: "modgate", Audience: "api"})

	token := mintToken(t, testSecret, jwtlib.MapClaims{
		"sub": "alice",
		"iss": "modgate",
		"aud": "api",
	})

	result := a.Authenticate(context.Background(), requestWithAuth("Bearer "+token))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %v, want Yes (err: %v)", result.Decision, result.Err)
	}
}

func TestAuthenticateAbstains(t *testing.T) {
	a := New(Config{Secret: testSecret})

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"opaque bearer token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Authenticate(context.Background(), requestWithAuth(tt.header))
			if result.Decision != auth.Abstain {
				t.Errorf("Decision = %v, want Abstain", result.Decision)
			}
		})
	}
}

func TestCustomClaims(t *testing.T) {
	a := New(Config{
		Secret:      testSecret,
		UserClaim:   "preferred_username",
		TenantClaim: "org",
		ScopesClaim: "permissions",
	})

	token := mintToken(t, testSecret, jwtlib.MapClaims{
		"preferred_username": "bob",
		"org":                "globex",
		"permissions":        []string{"admin", "modules:call"},
	})

	result := a.Authenticate(context.Background(), requestWithAuth("Bearer "+token))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %v, want Yes (err: %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "bob" {
		t.Errorf("Subject = %q, want bob", result.Identity.Subject)
	}
	if result.Identity.TenantID() != "globex" {
		t.Errorf("TenantID = %q, want globex", result.Identity.TenantID())
	}
	if len(result.Identity.Scopes) != 2 || result.Identity.Scopes[0] != "admin" {
		t.Errorf("Scopes = %v, want [admin modules:call]", result.Identity.Scopes)
	}
}

func TestRejectsNonHMACAlgorithm(t *testing.T) {
	a := New(Config{Secret: testSecret})

	// alg=none tokens must never validate.
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	result := a.Authenticate(context.Background(), requestWithAuth("Bearer "+signed))
	if result.Decision != auth.No {
		t.Errorf("Decision = %v, want No", result.Decision)
	}
}
