// Package auth provides authentication support for HTTP requests against
// the Databus and its storage backends.
package auth

import "net/http"

// APIKeyHeader is the request header carrying the Databus API key.
const APIKeyHeader = "X-API-KEY"

// Authenticator defines the interface for applying authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

// APIKeyAuth authenticates with a Databus API key in the X-API-KEY header.
type APIKeyAuth struct {
	Key string
}

// BearerAuth authenticates with a vault bearer token.
type BearerAuth struct {
	Token string
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	// NoAuthType represents anonymous access.
	NoAuthType Type = "none"
	// APIKeyAuthType represents Databus API key authentication.
	APIKeyAuthType Type = "api-key"
	// BearerAuthType represents Bearer token authentication.
	BearerAuthType Type = "bearer"
)

// Apply leaves the request untouched.
func (NoAuth) Apply(*http.Request) error { return nil }

// Type returns the authentication type (NoAuthType).
func (NoAuth) Type() Type { return NoAuthType }

// Apply adds the X-API-KEY header to the HTTP request.
func (a APIKeyAuth) Apply(req *http.Request) error {
	req.Header.Set(APIKeyHeader, a.Key)
	return nil
}

// Type returns the authentication type (APIKeyAuthType).
func (a APIKeyAuth) Type() Type { return APIKeyAuthType }

// Apply adds a Bearer token to the Authorization header of the HTTP request.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns the authentication type (BearerAuthType).
func (b BearerAuth) Type() Type { return BearerAuthType }
