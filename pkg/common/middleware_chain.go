package common

import (
	"fmt"
	"net/http"
)

// MiddlewareChain represents an ordered chain of middleware.
// Insertion order is execution order.
type MiddlewareChain []Middleware

// NewMiddlewareChain creates a new middleware chain
func NewMiddlewareChain(middlewares ...Middleware) MiddlewareChain {
	return middlewares
}

// Append adds middleware to the end of the chain
func (c MiddlewareChain) Append(middlewares ...Middleware) MiddlewareChain {
	return append(c, middlewares...)
}

// Run executes the chain against a single request.
// Middleware run one at a time in order; each is waited for before the next starts.
// The first failure stops the chain and is returned as a *PipelineError.
// A request whose context is already done is not handed to further middleware.
func (c MiddlewareChain) Run(w http.ResponseWriter, r *http.Request) error {
	for i, m := range c {
		if err := r.Context().Err(); err != nil {
			return &PipelineError{Index: i, Err: err}
		}
		if err := call(m, w, r); err != nil {
			return &PipelineError{Index: i, Err: err}
		}
	}
	return nil
}

// call invokes a single middleware and turns a panic into an error.
func call(m Middleware, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			// net/http aborts the connection on this sentinel
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = &PanicError{Value: rec}
		}
	}()
	return m(w, r)
}

// PipelineError is the failure recorded for a request during the middleware phase.
type PipelineError struct {
	Index int   // Position of the failing middleware in the chain
	Err   error // Error returned (or panic recovered) by that middleware
}

// Error returns the message of the underlying error.
func (e *PipelineError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking middleware or handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the recovered value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
