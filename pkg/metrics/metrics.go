// Package metrics provides request metrics collection for the SServ router.
// The router reports every dispatched request to a Collector; the default
// collector discards everything.
package metrics

import (
	"time"
)

// Observation describes one finished request.
type Observation struct {
	Method   string        // HTTP method of the request
	Route    string        // Matched route path, or UnmatchedRoute
	Status   int           // Status code written to the client
	Duration time.Duration // Time spent in the pipeline
	Bytes    int64         // Response body bytes written
}

// UnmatchedRoute is the route label used for requests that matched no route entry.
// Raw request paths are never used as labels, which keeps label cardinality bounded.
const UnmatchedRoute = "unmatched"

// Collector receives request lifecycle events from the router.
// Implementations must be safe for concurrent use.
type Collector interface {
	// RequestStarted is called when a request enters the pipeline.
	RequestStarted()

	// RequestFinished is called once the response has been finalized.
	RequestFinished(o Observation)
}

// NoopCollector is a Collector that records nothing.
type NoopCollector struct{}

// RequestStarted does nothing.
func (NoopCollector) RequestStarted() {}

// RequestFinished does nothing.
func (NoopCollector) RequestFinished(Observation) {}
