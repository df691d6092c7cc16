package common

import (
	"context"
	"net/http"
	"sync"
)

// scope holds request-scoped values. Middleware share the same *http.Request for
// the whole pipeline, so values are stored here instead of in a derived request.
type scope struct {
	mu     sync.RWMutex
	values map[any]any
}

type scopeKey struct{}

// WithScope returns r with an empty value scope attached.
// If r already carries a scope, r is returned unchanged.
func WithScope(r *http.Request) *http.Request {
	if _, ok := r.Context().Value(scopeKey{}).(*scope); ok {
		return r
	}
	ctx := context.WithValue(r.Context(), scopeKey{}, &scope{values: make(map[any]any)})
	return r.WithContext(ctx)
}

// Set stores a value in the request scope.
// It reports false when r has no scope attached.
func Set(r *http.Request, key, value any) bool {
	s, ok := r.Context().Value(scopeKey{}).(*scope)
	if !ok {
		return false
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return true
}

// Get retrieves a value from the request scope.
func Get(r *http.Request, key any) (any, bool) {
	s, ok := r.Context().Value(scopeKey{}).(*scope)
	if !ok {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString is Get for string values. It returns "" when the key is missing.
func GetString(r *http.Request, key any) string {
	v, _ := Get(r, key)
	s, _ := v.(string)
	return s
}
