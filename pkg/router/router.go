package router

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Suhaibinator/SServ/pkg/codec"
	"github.com/Suhaibinator/SServ/pkg/common"
	"github.com/Suhaibinator/SServ/pkg/metrics"
	"github.com/Suhaibinator/SServ/pkg/middleware"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Router is the main router struct that implements http.Handler.
// It runs every request through the middleware chain and then dispatches it
// to the handler registered for its method and path.
type Router struct {
	config      RouterConfig
	logger      *zap.Logger
	metrics     metrics.Collector
	encoder     codec.Encoder
	formatError func(error) string

	regMu   sync.RWMutex // guards table and chain during registration
	table   *table
	chain   common.MiddlewareChain
	prelude common.MiddlewareChain // router-owned middleware run before the chain

	frozen     atomic.Bool
	wg         sync.WaitGroup
	shutdown   bool
	shutdownMu sync.RWMutex
	writerPool sync.Pool // Pool for reusing statusWriter objects
}

// NewRouter creates a new Router with the given configuration.
// It sets up logging and registers config.Middlewares and config.Routes,
// failing on the first invalid entry.
func NewRouter(config RouterConfig) (*Router, error) {
	// Set up the logger
	logger := config.Logger
	if logger == nil {
		// Create a default logger if none is provided
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			// Fallback to a no-op logger if we can't create a production logger
			logger = zap.NewNop()
		}
	}

	collector := config.Metrics
	if collector == nil {
		collector = metrics.NoopCollector{}
	}

	encoder := config.Codec
	if encoder == nil {
		encoder = codec.NewJSONCodec()
	}

	formatter := config.ErrorFormatter
	if formatter == nil {
		formatter = DefaultErrorFormatter
	}

	r := &Router{
		config:      config,
		logger:      logger,
		metrics:     collector,
		encoder:     encoder,
		formatError: formatter,
		table:       newTable(),
		writerPool: sync.Pool{
			New: func() any {
				return &statusWriter{}
			},
		},
	}

	// Client IP and trace ID are resolved first so every user middleware can read them
	r.prelude = common.NewMiddlewareChain(middleware.ClientIPMiddleware(config.IPConfig))
	if config.EnableTraceID {
		r.prelude = r.prelude.Append(middleware.TraceMiddleware())
	}
	if config.GlobalMaxBodySize > 0 {
		r.prelude = r.prelude.Append(middleware.MaxBodySize(config.GlobalMaxBodySize))
	}

	if err := r.Use(config.Middlewares...); err != nil {
		return nil, err
	}

	for _, route := range config.Routes {
		if len(route.Methods) == 0 {
			return nil, &ConfigError{Op: "handle", Path: route.Path, Err: ErrInvalidMethod}
		}
		for _, method := range route.Methods {
			if err := r.Handle(method, route.Path, route.Handler); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

// MustNewRouter is like NewRouter but panics on a configuration error.
func MustNewRouter(config RouterConfig) *Router {
	r, err := NewRouter(config)
	if err != nil {
		panic(err)
	}
	return r
}

// Logger returns the router's logger.
func (r *Router) Logger() *zap.Logger {
	return r.logger
}

// Use appends middleware to the chain. They run in the order added, after
// every middleware registered earlier.
func (r *Router) Use(mws ...common.Middleware) error {
	if r.frozen.Load() {
		return &ConfigError{Op: "use", Err: ErrRegistrationClosed}
	}
	for _, mw := range mws {
		if mw == nil {
			return &ConfigError{Op: "use", Err: ErrNilMiddleware}
		}
	}

	r.regMu.Lock()
	r.chain = r.chain.Append(mws...)
	r.regMu.Unlock()
	return nil
}

// Handle registers handler for method and path.
// The path is matched exactly; an empty path is registered as "/".
func (r *Router) Handle(method, path string, handler Handler) error {
	if r.frozen.Load() {
		return &ConfigError{Op: "handle", Method: method, Path: path, Err: ErrRegistrationClosed}
	}
	if handler == nil {
		return &ConfigError{Op: "handle", Method: method, Path: path, Err: ErrMissingRoute}
	}
	if path == "" {
		path = "/"
	}

	m, ok := normalizeMethod(method)
	if !ok {
		return &ConfigError{Op: "handle", Method: method, Path: path, Err: ErrInvalidMethod}
	}

	r.regMu.Lock()
	defer r.regMu.Unlock()
	if err := r.table.insert(m, path, r.routeHandle(handler)); err != nil {
		return &ConfigError{Op: "handle", Method: m, Path: path, Err: err}
	}

	r.logger.Debug("Route registered",
		zap.String("method", m),
		zap.String("path", path),
	)
	return nil
}

// Get registers a GET route.
func (r *Router) Get(path string, handler Handler) error {
	return r.Handle(http.MethodGet, path, handler)
}

// Post registers a POST route.
func (r *Router) Post(path string, handler Handler) error {
	return r.Handle(http.MethodPost, path, handler)
}

// Put registers a PUT route.
func (r *Router) Put(path string, handler Handler) error {
	return r.Handle(http.MethodPut, path, handler)
}

// Patch registers a PATCH route.
func (r *Router) Patch(path string, handler Handler) error {
	return r.Handle(http.MethodPatch, path, handler)
}

// Delete registers a DELETE route.
func (r *Router) Delete(path string, handler Handler) error {
	return r.Handle(http.MethodDelete, path, handler)
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []RouteInfo {
	r.regMu.RLock()
	defer r.regMu.RUnlock()
	return append([]RouteInfo(nil), r.table.routes...)
}

// Freeze closes registration. Use and Handle fail with ErrRegistrationClosed
// until Shutdown completes. It also clears a previous shutdown so the router
// serves requests again.
func (r *Router) Freeze() {
	r.frozen.Store(true)

	r.shutdownMu.Lock()
	r.shutdown = false
	r.shutdownMu.Unlock()
}

// Shutdown gracefully shuts down the router.
// It stops accepting new requests and waits for existing requests to complete.
// If the context is canceled before all requests complete, it returns the context's error.
// Registration is re-opened once all requests have completed.
func (r *Router) Shutdown(ctx context.Context) error {
	// Mark the router as shutting down
	r.shutdownMu.Lock()
	r.shutdown = true
	r.shutdownMu.Unlock()

	// Create a channel to signal when all requests are done
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	// Wait for all requests to finish or for the context to be canceled
	select {
	case <-done:
		r.frozen.Store(false)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// routeHandle adapts a Handler to the route table.
func (r *Router) routeHandle(handler Handler) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		res := newResponse(w, r.encoder)
		err := r.callHandler(handler, req, res)
		if err == nil {
			return
		}
		if res.Sent() {
			r.logger.Error("Handler error after response was sent", r.requestFields(req, zap.Error(err))...)
			return
		}
		r.writeError(w, req, err)
	}
}

// normalizeMethod upper-cases method and checks that it is an HTTP token.
func normalizeMethod(method string) (string, bool) {
	if method == "" {
		return "", false
	}
	for i := 0; i < len(method); i++ {
		if !isTokenChar(method[i]) {
			return "", false
		}
	}
	return strings.ToUpper(method), true
}

// isTokenChar reports whether c is a tchar as defined by RFC 9110.
func isTokenChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}
