// Package common provides shared types and utilities used across the SServ framework.
package common

import (
	"net/http"
	"sync"
)

// Middleware runs before route dispatch. It may inspect or modify the request
// and the response writer. Returning a non-nil error stops the chain: no later
// middleware and no route handler run for that request.
type Middleware func(w http.ResponseWriter, r *http.Request) error

// Next is the continuation handed to a ContinuationMiddleware.
// Calling it with a non-nil error fails the request.
type Next func(err error)

// ContinuationMiddleware is the callback flavour of Middleware. The chain advances
// once the function returns, whether or not next was called.
type ContinuationMiddleware func(w http.ResponseWriter, r *http.Request, next Next)

// FromContinuation adapts a ContinuationMiddleware to a Middleware.
// next is single-use: the first call wins, and calls made after the middleware
// has returned are ignored.
func FromContinuation(m ContinuationMiddleware) Middleware {
	return func(w http.ResponseWriter, r *http.Request) error {
		var (
			mu     sync.Mutex
			called bool
			done   bool
			result error
		)

		m(w, r, func(err error) {
			mu.Lock()
			defer mu.Unlock()
			if called || done {
				return
			}
			called = true
			result = err
		})

		mu.Lock()
		defer mu.Unlock()
		done = true
		return result
	}
}
