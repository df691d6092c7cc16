// Package router provides the request pipeline of the SServ framework: an ordered
// middleware chain, an exact-match route table and the dispatcher tying them together.
package router

import (
	"net/http"
	"time"

	"github.com/Suhaibinator/SServ/pkg/codec"
	"github.com/Suhaibinator/SServ/pkg/common"
	"github.com/Suhaibinator/SServ/pkg/metrics"
	"github.com/Suhaibinator/SServ/pkg/middleware"
	"go.uber.org/zap"
)

// Handler handles a request that matched a route.
// It answers through res; a returned error becomes a 500 response unless
// something was already sent.
type Handler func(r *http.Request, res *Response) error

// RouterConfig defines the global configuration for the router.
// It includes settings for logging, timeouts, metrics, and middleware.
type RouterConfig struct {
	Logger            *zap.Logger          // Logger for all router operations
	GlobalTimeout     time.Duration        // Deadline placed on every request context; 0 disables it
	GlobalMaxBodySize int64                // Maximum request body size in bytes; 0 disables the limit
	IPConfig          *middleware.IPConfig // Configuration for client IP extraction
	EnableTraceID     bool                 // Assign trace IDs and include them in log entries
	Metrics           metrics.Collector    // Receives one observation per request; defaults to a no-op collector
	Codec             codec.Encoder        // Encoder used by Response.Send; defaults to JSON
	ErrorFormatter    func(error) string   // Builds the "error" field of error responses; defaults to DefaultErrorFormatter
	Middlewares       []common.Middleware  // Global middlewares, in execution order
	Routes            []RouteConfig        // Routes registered by NewRouter
}

// RouteConfig defines a route registered through RouterConfig.
type RouteConfig struct {
	Path    string   // Route path, matched exactly
	Methods []string // HTTP methods the route responds to
	Handler Handler  // Handler function
}

// RouteInfo describes a registered route entry.
type RouteInfo struct {
	Method string
	Path   string
}

// slowRequestThreshold is the duration above which finished requests are logged at Warn level.
const slowRequestThreshold = 1 * time.Second
