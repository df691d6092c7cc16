// Package server binds an http.Handler to a TCP port and manages its lifecycle.
// When the handler is a *router.Router, registration is closed while the server
// listens and in-flight requests are drained on Close.
package server

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultPort is used when Listen is given an empty port.
	DefaultPort = 8080

	// DefaultReadTimeout is the default timeout for reading the request.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the default timeout for writing the response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the default timeout for idle connections.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultMaxHeaderBytes is the default maximum size of request headers.
	DefaultMaxHeaderBytes = 1 << 20 // 1 MB
)

// Config configures a Server. Zero values take the defaults above.
type Config struct {
	Logger         *zap.Logger            // Logger for lifecycle events; a production logger when nil
	Host           string                 // Interface to bind; all interfaces when empty
	ReadTimeout    time.Duration          // Maximum duration for reading the entire request
	WriteTimeout   time.Duration          // Maximum duration before timing out writes of the response
	IdleTimeout    time.Duration          // Maximum time to wait for the next request on keep-alive connections
	MaxHeaderBytes int                    // Maximum size of request headers
	FatalHook      zapcore.CheckWriteHook // Replaces the logger's fatal behaviour for unhandled transport errors
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			// Fallback to a no-op logger if production logger creation fails
			logger = zap.NewNop()
		}
		c.Logger = logger
	}
	if c.FatalHook != nil {
		c.Logger = c.Logger.WithOptions(zap.WithFatalHook(c.FatalHook))
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	return c
}
