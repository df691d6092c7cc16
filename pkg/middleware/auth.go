package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Suhaibinator/SServ/pkg/common"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned by the authentication middleware when a request
// carries no valid credentials. The router renders it as a 401.
var ErrUnauthorized = common.NewHTTPError(http.StatusUnauthorized, "Unauthorized")

// AuthProvider defines an interface for authentication providers.
// Different authentication mechanisms can implement this interface
// to be used with the AuthenticationWithProvider middleware.
type AuthProvider interface {
	// Authenticate returns true if the request carries valid credentials.
	Authenticate(r *http.Request) bool
}

// BasicAuthProvider provides HTTP Basic Authentication.
// It validates username and password credentials against a predefined map.
type BasicAuthProvider struct {
	Credentials map[string]string // username -> password
}

// Authenticate authenticates a request using HTTP Basic Authentication.
func (p *BasicAuthProvider) Authenticate(r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}

	expectedPassword, exists := p.Credentials[username]
	if !exists {
		return false
	}

	return password == expectedPassword
}

// BearerTokenProvider provides Bearer Token Authentication.
// It can validate tokens against a predefined map or using a custom validator function.
type BearerTokenProvider struct {
	ValidTokens map[string]bool         // token -> valid
	Validator   func(token string) bool // optional token validator
}

// Authenticate authenticates a request using Bearer Token Authentication.
// The validator takes precedence over the ValidTokens map when both are set.
func (p *BearerTokenProvider) Authenticate(r *http.Request) bool {
	token, ok := bearerToken(r)
	if !ok {
		return false
	}

	if p.Validator != nil {
		return p.Validator(token)
	}

	return p.ValidTokens[token]
}

// APIKeyProvider provides API Key Authentication.
// It can validate API keys provided in a header or query parameter.
type APIKeyProvider struct {
	ValidKeys map[string]bool // key -> valid
	Header    string          // header name (e.g., "X-API-Key")
	Query     string          // query parameter name (e.g., "api_key")
}

// Authenticate checks the configured header first, then the query parameter.
func (p *APIKeyProvider) Authenticate(r *http.Request) bool {
	if p.Header != "" {
		key := r.Header.Get(p.Header)
		if key != "" && p.ValidKeys[key] {
			return true
		}
	}

	if p.Query != "" {
		key := r.URL.Query().Get(p.Query)
		if key != "" && p.ValidKeys[key] {
			return true
		}
	}

	return false
}

// AuthenticationWithProvider is a middleware that rejects requests the provider
// does not authenticate. Rejected requests fail the pipeline with ErrUnauthorized.
func AuthenticationWithProvider(provider AuthProvider, logger *zap.Logger) Middleware {
	return func(w http.ResponseWriter, r *http.Request) error {
		if !provider.Authenticate(r) {
			logger.Warn("Authentication failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			return ErrUnauthorized
		}
		return nil
	}
}

// NewBasicAuthMiddleware creates a middleware that uses HTTP Basic Authentication.
func NewBasicAuthMiddleware(credentials map[string]string, logger *zap.Logger) Middleware {
	return AuthenticationWithProvider(&BasicAuthProvider{Credentials: credentials}, logger)
}

// NewBearerTokenMiddleware creates a middleware that uses Bearer Token Authentication.
func NewBearerTokenMiddleware(validTokens map[string]bool, logger *zap.Logger) Middleware {
	return AuthenticationWithProvider(&BearerTokenProvider{ValidTokens: validTokens}, logger)
}

// NewAPIKeyMiddleware creates a middleware that uses API Key Authentication.
func NewAPIKeyMiddleware(validKeys map[string]bool, header, query string, logger *zap.Logger) Middleware {
	return AuthenticationWithProvider(&APIKeyProvider{
		ValidKeys: validKeys,
		Header:    header,
		Query:     query,
	}, logger)
}

type userKey struct{}

// AuthenticationWithUser is a middleware that resolves the caller with authFunc
// and stores the result in the request scope for GetUser.
// An error from authFunc fails the request with ErrUnauthorized.
func AuthenticationWithUser[T any](authFunc func(*http.Request) (*T, error)) Middleware {
	return func(w http.ResponseWriter, r *http.Request) error {
		user, err := authFunc(r)
		if err != nil || user == nil {
			return ErrUnauthorized
		}
		common.Set(r, userKey{}, user)
		return nil
	}
}

// NewBearerTokenWithUserMiddleware resolves a user from the bearer token.
func NewBearerTokenWithUserMiddleware[T any](getUserFunc func(token string) (*T, error)) Middleware {
	return AuthenticationWithUser(func(r *http.Request) (*T, error) {
		token, ok := bearerToken(r)
		if !ok {
			return nil, errors.New("no bearer token")
		}
		return getUserFunc(token)
	})
}

// GetUser returns the user stored by AuthenticationWithUser, or nil.
func GetUser[T any](r *http.Request) *T {
	v, _ := common.Get(r, userKey{})
	user, _ := v.(*T)
	return user
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
