package common

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. They are returned at registration time, never while
// serving requests, and are wrapped in a *ConfigError.
var (
	ErrMissingRoute       = errors.New("missing route handler")
	ErrDuplicateRoute     = errors.New("duplicate route")
	ErrInvalidPath        = errors.New("invalid route path")
	ErrInvalidMethod      = errors.New("invalid http method")
	ErrNilMiddleware      = errors.New("middleware cannot be nil")
	ErrRegistrationClosed = errors.New("registration is closed while serving")
	ErrNilErrorHandler    = errors.New("error handler cannot be nil")
	ErrInvalidPort        = errors.New("invalid port")
)

// ConfigError describes a registration or setup mistake.
type ConfigError struct {
	Op     string // Registration operation (e.g. "handle", "use", "listen")
	Method string // HTTP method, when relevant
	Path   string // Route path, when relevant
	Err    error  // One of the Err* sentinels, possibly wrapped
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Method != "" || e.Path != "" {
		fmt.Fprintf(&b, " %s %q", e.Method, e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying sentinel.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// HTTPError represents an HTTP error with a status code and message.
// When returned from a middleware or handler, the router uses the status code
// and message to build the error response instead of the default 500.
type HTTPError struct {
	StatusCode int    // HTTP status code (e.g., 400, 404, 500)
	Message    string // Error message to be sent in the response body
}

// Error implements the error interface.
// It returns a string representation of the HTTP error in the format "status: message".
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the specified status code and message.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}
