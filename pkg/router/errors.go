package router

import (
	"errors"

	"github.com/Suhaibinator/SServ/pkg/common"
)

// Re-exported so that router users do not need to import common.
type (
	// ConfigError describes a registration mistake.
	ConfigError = common.ConfigError

	// HTTPError lets middleware and handlers choose the error status code.
	HTTPError = common.HTTPError
)

// Registration errors, matched with errors.Is.
var (
	ErrMissingRoute       = common.ErrMissingRoute
	ErrDuplicateRoute     = common.ErrDuplicateRoute
	ErrInvalidPath        = common.ErrInvalidPath
	ErrInvalidMethod      = common.ErrInvalidMethod
	ErrNilMiddleware      = common.ErrNilMiddleware
	ErrRegistrationClosed = common.ErrRegistrationClosed
)

// ErrResponseSent is returned by Response.Send once a response has been written.
var ErrResponseSent = errors.New("response already sent")

// NewHTTPError creates a new HTTPError with the specified status code and message.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return common.NewHTTPError(statusCode, message)
}

// DefaultErrorFormatter renders err as "Error: <message>\n".
// For an *HTTPError the message is its Message field.
func DefaultErrorFormatter(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return "Error: " + httpErr.Message + "\n"
	}
	return "Error: " + err.Error() + "\n"
}
