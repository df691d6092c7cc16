// Package middleware provides a collection of pipeline middleware for the SServ framework.
// Every middleware here has the common.Middleware shape: it runs before route
// dispatch and fails the request by returning an error.
package middleware

import (
	"net/http"
	"strings"

	"github.com/Suhaibinator/SServ/pkg/common"
	"go.uber.org/zap"
)

// Use the Middleware type from the common package
type Middleware = common.Middleware

// Logging is a middleware that logs every request entering the pipeline.
// The response status is not known yet at this point; the router logs it once
// the request is finalized.
func Logging(logger *zap.Logger) Middleware {
	return func(w http.ResponseWriter, r *http.Request) error {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		}
		if ip := ClientIP(r); ip != "" {
			fields = append(fields, zap.String("client_ip", ip))
		}
		if traceID := GetTraceID(r); traceID != "" {
			fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
		}

		logger.Info("Request", fields...)
		return nil
	}
}

// MaxBodySize is a middleware that limits the size of the request body.
// Reads past the limit fail with *http.MaxBytesError.
func MaxBodySize(maxSize int64) Middleware {
	return func(w http.ResponseWriter, r *http.Request) error {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		return nil
	}
}

// CORS is a middleware that adds CORS headers to the response.
// Preflight requests are not answered here; register an OPTIONS route for them.
func CORS(origins []string, methods []string, headers []string) Middleware {
	return func(w http.ResponseWriter, r *http.Request) error {
		if len(origins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", strings.Join(origins, ", "))
		}
		if len(methods) > 0 {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
		}
		if len(headers) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
		}
		return nil
	}
}

// Headers is a middleware that sets fixed response headers.
func Headers(headers map[string]string) Middleware {
	return func(w http.ResponseWriter, r *http.Request) error {
		for key, value := range headers {
			w.Header().Set(key, value)
		}
		return nil
	}
}
