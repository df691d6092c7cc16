package middleware

import (
	"context"
	"net/http"

	"github.com/Suhaibinator/SServ/pkg/common"
	"github.com/google/uuid"
)

// TraceIDHeader is the header used to propagate and echo trace IDs.
const TraceIDHeader = "X-Trace-ID"

type traceIDKey struct{}

// TraceMiddleware creates a middleware that assigns a trace ID to each request.
// An ID placed with AddTraceIDToRequest wins, then a valid UUID in the incoming
// X-Trace-ID header; otherwise a new one is generated. The ID is stored in the
// request scope and echoed in the response.
func TraceMiddleware() Middleware {
	return func(w http.ResponseWriter, r *http.Request) error {
		traceID := GetTraceIDFromContext(r.Context())
		if traceID == "" {
			traceID = r.Header.Get(TraceIDHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}
		}

		common.Set(r, traceIDKey{}, traceID)
		w.Header().Set(TraceIDHeader, traceID)
		return nil
	}
}

// GetTraceID extracts the trace ID from the request.
// Returns an empty string if no trace ID is found.
func GetTraceID(r *http.Request) string {
	if traceID := common.GetString(r, traceIDKey{}); traceID != "" {
		return traceID
	}
	return GetTraceIDFromContext(r.Context())
}

// GetTraceIDFromContext extracts a trace ID placed with AddTraceIDToRequest.
func GetTraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// AddTraceIDToRequest returns a copy of r carrying the given trace ID in its context.
// It is meant for callers that assign trace IDs before the request reaches the router.
func AddTraceIDToRequest(r *http.Request, traceID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), traceIDKey{}, traceID))
}
