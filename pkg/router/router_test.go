package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Suhaibinator/SServ/pkg/common"
	"go.uber.org/zap"
)

// newTestRouter creates a router with a no-op logger unless one is configured
func newTestRouter(t *testing.T, config RouterConfig) *Router {
	t.Helper()
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	r, err := NewRouter(config)
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	return r
}

// sendData returns a handler answering 200 with {"data": data}
func sendData(data string) Handler {
	return func(r *http.Request, res *Response) error {
		return res.Send(http.StatusOK, map[string]string{"data": data})
	}
}

// serve runs a single request through the router
func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

// TestRegisteredRouteDispatch tests that each (method, path) reaches exactly its handler
func TestRegisteredRouteDispatch(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	for _, reg := range []struct {
		fn   func(string, Handler) error
		path string
		data string
	}{
		{r.Get, "/items", "get"},
		{r.Post, "/items", "post"},
		{r.Put, "/items", "put"},
		{r.Patch, "/items", "patch"},
		{r.Delete, "/items", "delete"},
		{r.Get, "/other", "other"},
	} {
		if err := reg.fn(reg.path, sendData(reg.data)); err != nil {
			t.Fatalf("Failed to register %s: %v", reg.path, err)
		}
	}

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/items", `{"data":"get"}`},
		{http.MethodPost, "/items", `{"data":"post"}`},
		{http.MethodPut, "/items", `{"data":"put"}`},
		{http.MethodPatch, "/items", `{"data":"patch"}`},
		{http.MethodDelete, "/items", `{"data":"delete"}`},
		{http.MethodGet, "/other", `{"data":"other"}`},
	}
	for _, tt := range tests {
		rr := serve(r, tt.method, tt.path)
		if rr.Code != http.StatusOK {
			t.Errorf("%s %s: expected status 200, got %d", tt.method, tt.path, rr.Code)
		}
		if rr.Body.String() != tt.body {
			t.Errorf("%s %s: expected body %s, got %s", tt.method, tt.path, tt.body, rr.Body.String())
		}
	}
}

// TestDuplicateRoute tests that a duplicate registration fails and keeps the first handler
func TestDuplicateRoute(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	if err := r.Get("/dup", sendData("first")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err := r.Get("/dup", sendData("second"))
	if !errors.Is(err, ErrDuplicateRoute) {
		t.Fatalf("Expected ErrDuplicateRoute, got %v", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
	if cfgErr.Method != http.MethodGet || cfgErr.Path != "/dup" {
		t.Errorf("Unexpected ConfigError fields: %+v", cfgErr)
	}

	if body := serve(r, http.MethodGet, "/dup").Body.String(); body != `{"data":"first"}` {
		t.Errorf("Expected first handler to be kept, got %s", body)
	}

	// Same path with another method is a separate entry
	if err := r.Post("/dup", sendData("post")); err != nil {
		t.Errorf("Expected POST on the same path to succeed, got %v", err)
	}
}

// TestEmptyPathIsRoot tests that an empty path registers "/"
func TestEmptyPathIsRoot(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	if err := r.Get("", sendData("root")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if body := serve(r, http.MethodGet, "/").Body.String(); body != `{"data":"root"}` {
		t.Errorf("Expected root handler, got %s", body)
	}
	if err := r.Get("/", sendData("again")); !errors.Is(err, ErrDuplicateRoute) {
		t.Errorf("Expected \"\" and \"/\" to be the same route, got %v", err)
	}

	// Empty path without a handler is a missing route
	if err := r.Post("", nil); !errors.Is(err, ErrMissingRoute) {
		t.Errorf("Expected ErrMissingRoute, got %v", err)
	}
}

// TestRegistrationErrors tests validation of registration arguments
func TestRegistrationErrors(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	tests := []struct {
		name   string
		method string
		path   string
		h      Handler
		want   error
	}{
		{"nil handler", http.MethodGet, "/x", nil, ErrMissingRoute},
		{"relative path", http.MethodGet, "x", sendData("x"), ErrInvalidPath},
		{"path parameter", http.MethodGet, "/users/:id", sendData("x"), ErrInvalidPath},
		{"wildcard", http.MethodGet, "/files/*path", sendData("x"), ErrInvalidPath},
		{"empty method", "", "/x", sendData("x"), ErrInvalidMethod},
		{"method with space", "GE T", "/x", sendData("x"), ErrInvalidMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Handle(tt.method, tt.path, tt.h); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if len(r.Routes()) != 0 {
		t.Errorf("Expected no routes after failed registrations, got %v", r.Routes())
	}
}

// TestMethodNormalization tests that methods are upper-cased and custom tokens are allowed
func TestMethodNormalization(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	if err := r.Handle("get", "/lower", sendData("lower")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := r.Handle("PURGE", "/cache", sendData("purge")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if body := serve(r, http.MethodGet, "/lower").Body.String(); body != `{"data":"lower"}` {
		t.Errorf("Expected lower handler, got %s", body)
	}
	if body := serve(r, "PURGE", "/cache").Body.String(); body != `{"data":"purge"}` {
		t.Errorf("Expected purge handler, got %s", body)
	}

	routes := r.Routes()
	if len(routes) != 2 || routes[0] != (RouteInfo{Method: "GET", Path: "/lower"}) || routes[1] != (RouteInfo{Method: "PURGE", Path: "/cache"}) {
		t.Errorf("Unexpected routes %v", routes)
	}
}

// TestUseNilMiddleware tests that nil middleware is rejected
func TestUseNilMiddleware(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	if err := r.Use(nil); !errors.Is(err, ErrNilMiddleware) {
		t.Errorf("Expected ErrNilMiddleware, got %v", err)
	}

	_, err := NewRouter(RouterConfig{Logger: zap.NewNop(), Middlewares: []common.Middleware{nil}})
	if !errors.Is(err, ErrNilMiddleware) {
		t.Errorf("Expected ErrNilMiddleware from NewRouter, got %v", err)
	}
}

// TestNewRouterWithRoutes tests routes supplied through RouterConfig
func TestNewRouterWithRoutes(t *testing.T) {
	r := newTestRouter(t, RouterConfig{
		Routes: []RouteConfig{
			{Path: "/hello", Methods: []string{http.MethodGet, http.MethodHead}, Handler: sendData("hello")},
		},
	})

	if body := serve(r, http.MethodGet, "/hello").Body.String(); body != `{"data":"hello"}` {
		t.Errorf("Expected hello handler, got %s", body)
	}
	if len(r.Routes()) != 2 {
		t.Errorf("Expected 2 route entries, got %d", len(r.Routes()))
	}

	_, err := NewRouter(RouterConfig{
		Logger: zap.NewNop(),
		Routes: []RouteConfig{
			{Path: "/a", Methods: []string{http.MethodGet}, Handler: sendData("a")},
			{Path: "/a", Methods: []string{http.MethodGet}, Handler: sendData("b")},
		},
	})
	if !errors.Is(err, ErrDuplicateRoute) {
		t.Errorf("Expected ErrDuplicateRoute, got %v", err)
	}

	_, err = NewRouter(RouterConfig{
		Logger: zap.NewNop(),
		Routes: []RouteConfig{{Path: "/a", Handler: sendData("a")}},
	})
	if !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("Expected ErrInvalidMethod for a route without methods, got %v", err)
	}
}

// TestMustNewRouter tests that MustNewRouter panics on configuration errors
func TestMustNewRouter(t *testing.T) {
	if r := MustNewRouter(RouterConfig{Logger: zap.NewNop()}); r == nil {
		t.Fatal("Expected a router")
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected MustNewRouter to panic")
		}
	}()
	MustNewRouter(RouterConfig{
		Logger: zap.NewNop(),
		Routes: []RouteConfig{{Path: "bad", Methods: []string{http.MethodGet}, Handler: sendData("x")}},
	})
}

// TestNewRouterDefaultLogger tests that a logger is created when none is configured
func TestNewRouterDefaultLogger(t *testing.T) {
	r, err := NewRouter(RouterConfig{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if r.Logger() == nil {
		t.Error("Expected a default logger")
	}
}

// TestFreeze tests that registration is closed while frozen and re-opened by Shutdown
func TestFreeze(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})
	if err := r.Get("/", sendData("root")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	r.Freeze()

	if err := r.Get("/late", sendData("late")); !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("Expected ErrRegistrationClosed, got %v", err)
	}
	if err := r.Use(func(w http.ResponseWriter, r *http.Request) error { return nil }); !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("Expected ErrRegistrationClosed from Use, got %v", err)
	}

	// Frozen routers still serve
	if rr := serve(r, http.MethodGet, "/"); rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := r.Get("/late", sendData("late")); err != nil {
		t.Errorf("Expected registration to re-open after Shutdown, got %v", err)
	}

	// Freezing again resumes serving
	r.Freeze()
	if rr := serve(r, http.MethodGet, "/late"); rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 after Freeze, got %d", rr.Code)
	}
}

// TestDefaultErrorFormatter tests the error body format
func TestDefaultErrorFormatter(t *testing.T) {
	if got := DefaultErrorFormatter(errors.New("nope")); got != "Error: nope\n" {
		t.Errorf("Expected %q, got %q", "Error: nope\n", got)
	}
	if got := DefaultErrorFormatter(NewHTTPError(http.StatusForbidden, "forbidden")); got != "Error: forbidden\n" {
		t.Errorf("Expected %q, got %q", "Error: forbidden\n", got)
	}
}
