package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Suhaibinator/SServ/pkg/codec"
	"github.com/Suhaibinator/SServ/pkg/common"
	"github.com/Suhaibinator/SServ/pkg/metrics"
	"github.com/Suhaibinator/SServ/pkg/middleware"
	"go.uber.org/zap"
)

// ServeHTTP implements the http.Handler interface.
// It runs the middleware chain, then the handler registered for the request's
// method and path, and answers with an error or Not Found response when either
// is missing or fails.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.shutdownMu.RLock()
	if r.shutdown {
		r.shutdownMu.RUnlock()
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	r.wg.Add(1)
	r.shutdownMu.RUnlock()
	defer r.wg.Done()

	start := time.Now()
	r.metrics.RequestStarted()

	// Get a statusWriter from the pool
	sw := r.writerPool.Get().(*statusWriter)
	sw.reset(w)

	req = common.WithScope(req)
	if r.config.GlobalTimeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), r.config.GlobalTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	route := r.dispatch(sw, req)
	r.observe(sw, req, route, time.Since(start))

	// Reset fields that might hold references to prevent memory leaks
	sw.ResponseWriter = nil
	r.writerPool.Put(sw)
}

// dispatch runs the pipeline for one request and returns the route label used for metrics.
func (r *Router) dispatch(sw *statusWriter, req *http.Request) string {
	if err := r.prelude.Run(sw, req); err != nil {
		r.writeError(sw, req, err)
		return metrics.UnmatchedRoute
	}

	r.regMu.RLock()
	chain := r.chain
	r.regMu.RUnlock()

	if err := chain.Run(sw, req); err != nil {
		r.writeError(sw, req, err)
		return metrics.UnmatchedRoute
	}

	r.regMu.RLock()
	handle, ok := r.table.lookup(req.Method, req.URL.Path)
	r.regMu.RUnlock()

	if !ok {
		r.notFound(sw)
		return metrics.UnmatchedRoute
	}

	handle(sw, req, nil)
	return req.URL.Path
}

// callHandler invokes handler and turns a panic into an error.
func (r *Router) callHandler(handler Handler, req *http.Request, res *Response) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			r.logger.Error("Panic recovered", r.requestFields(req,
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)...)
			err = &common.PanicError{Value: rec}
		}
	}()
	return handler(req, res)
}

// writeError logs err and answers with a JSON error body, unless a response
// has already been written. The status is taken from an *HTTPError, 408 for
// an expired deadline, and 500 otherwise.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := http.StatusInternalServerError
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.StatusCode
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
	}

	fields := r.requestFields(req, zap.Error(err), zap.Int("status", status))
	var pipelineErr *common.PipelineError
	if errors.As(err, &pipelineErr) {
		fields = append(fields, zap.Int("middleware", pipelineErr.Index))
	}
	if status >= http.StatusInternalServerError {
		r.logger.Error("Request failed", fields...)
	} else {
		r.logger.Warn("Request rejected", fields...)
	}

	if ww, ok := w.(writtenReporter); ok && ww.Written() {
		return
	}

	body, encErr := errorCodec.Encode(errorBody{Error: r.formatError(err)})
	if encErr != nil {
		// errorBody only holds a string
		body = []byte(`{"error":"Internal Server Error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writtenReporter is implemented by writers that track whether a status line went out.
type writtenReporter interface {
	Written() bool
}

// errorCodec encodes error bodies, which are JSON whatever the configured codec.
var errorCodec = codec.NewJSONCodec()

type errorBody struct {
	Error string `json:"error"`
}

// notFound answers an unrouted request. No Content-Type is set explicitly.
func (r *Router) notFound(sw *statusWriter) {
	sw.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(sw, "Not Found\n")
}

// observe logs the finished request and reports it to the metrics collector.
func (r *Router) observe(sw *statusWriter, req *http.Request, route string, duration time.Duration) {
	fields := r.requestFields(req,
		zap.Int("status", sw.statusCode),
		zap.Duration("duration", duration),
		zap.Int64("bytes", sw.bytesWritten),
	)

	// Use Debug level for metrics to avoid log spam
	r.logger.Debug("Request metrics", fields...)

	// Log slow requests at Warn level
	if duration > slowRequestThreshold {
		r.logger.Warn("Slow request", fields...)
	}

	if sw.statusCode >= http.StatusInternalServerError {
		r.logger.Error("Server error", fields...)
	} else if sw.statusCode >= http.StatusBadRequest {
		r.logger.Warn("Client error", fields...)
	}

	r.metrics.RequestFinished(metrics.Observation{
		Method:   req.Method,
		Route:    route,
		Status:   sw.statusCode,
		Duration: duration,
		Bytes:    sw.bytesWritten,
	})
}

// requestFields builds the common log fields for req, with the trace ID first when enabled.
func (r *Router) requestFields(req *http.Request, extra ...zap.Field) []zap.Field {
	fields := make([]zap.Field, 0, len(extra)+3)
	if r.config.EnableTraceID {
		if traceID := middleware.GetTraceID(req); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
	}
	fields = append(fields,
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)
	return append(fields, extra...)
}
