package router

import (
	"fmt"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// table maps (method, path) to a route handle.
// Only static paths are accepted, so the httprouter tree behaves as an exact-match table.
type table struct {
	tree   *httprouter.Router
	routes []RouteInfo
}

func newTable() *table {
	hr := httprouter.New()
	hr.RedirectTrailingSlash = false
	hr.RedirectFixedPath = false
	hr.HandleMethodNotAllowed = false
	hr.HandleOPTIONS = false
	return &table{tree: hr}
}

// insert registers handle under (method, path).
// It returns one of the registration sentinels; the caller adds context.
func (t *table) insert(method, path string, handle httprouter.Handle) (err error) {
	if handle == nil {
		return ErrMissingRoute
	}
	if !strings.HasPrefix(path, "/") || strings.ContainsAny(path, ":*") {
		return ErrInvalidPath
	}
	if h, _, _ := t.tree.Lookup(method, path); h != nil {
		return ErrDuplicateRoute
	}

	// httprouter reports tree conflicts by panicking
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPath, rec)
		}
	}()
	t.tree.Handle(method, path, handle)
	t.routes = append(t.routes, RouteInfo{Method: method, Path: path})
	return nil
}

// lookup returns the handle registered under exactly (method, path).
func (t *table) lookup(method, path string) (httprouter.Handle, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	h, _, _ := t.tree.Lookup(method, path)
	return h, h != nil
}
