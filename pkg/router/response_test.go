package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Suhaibinator/SServ/pkg/codec"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}

// TestResponseSend tests the default JSON response
func TestResponseSend(t *testing.T) {
	rr := httptest.NewRecorder()
	res := newResponse(rr, codec.NewJSONCodec())

	if res.Raw() != rr {
		t.Error("Expected Raw to return the underlying writer")
	}
	if res.Sent() {
		t.Error("Expected a fresh response not to be sent")
	}

	if err := res.Send(http.StatusCreated, map[string]any{"id": 1, "tags": []string{"<a>"}}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected application/json, got %q", rr.Header().Get("Content-Type"))
	}
	if rr.Body.String() != `{"id":1,"tags":["<a>"]}` {
		t.Errorf("Unexpected body %s", rr.Body.String())
	}
	if !res.Sent() {
		t.Error("Expected response to be marked sent")
	}
}

// TestResponseSendTwice tests that the second Send fails and leaves the first body intact
func TestResponseSendTwice(t *testing.T) {
	rr := httptest.NewRecorder()
	res := newResponse(rr, codec.NewJSONCodec())

	if err := res.Send(http.StatusOK, "first"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := res.Send(http.StatusTeapot, "second"); !errors.Is(err, ErrResponseSent) {
		t.Errorf("Expected ErrResponseSent, got %v", err)
	}
	if rr.Code != http.StatusOK || rr.Body.String() != `"first"` {
		t.Errorf("Expected first response intact, got %d %s", rr.Code, rr.Body.String())
	}
}

// TestResponseSendHeaders tests that explicit headers replace the default
func TestResponseSendHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	res := newResponse(rr, codec.NewJSONCodec())

	err := res.Send(http.StatusOK, "x", http.Header{"X-Custom": {"a", "b"}}, http.Header{"Cache-Control": {"no-store"}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "" {
		t.Errorf("Expected no default Content-Type, got %q", ct)
	}
	if got := rr.Header().Values("X-Custom"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Unexpected X-Custom %v", got)
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Expected Cache-Control no-store, got %q", rr.Header().Get("Cache-Control"))
	}

	rr = httptest.NewRecorder()
	res = newResponse(rr, codec.NewJSONCodec())
	_ = res.Send(http.StatusOK, "x", http.Header{"Content-Type": {"application/problem+json"}})
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Expected application/problem+json, got %q", ct)
	}
}

// TestResponseSendEncodeError tests that nothing is written when encoding fails
func TestResponseSendEncodeError(t *testing.T) {
	rr := httptest.NewRecorder()
	res := newResponse(rr, codec.NewJSONCodec())

	if err := res.Send(http.StatusOK, make(chan int)); err == nil {
		t.Fatal("Expected an encoding error")
	}
	if res.Sent() {
		t.Error("Expected response not to be marked sent")
	}
	if rr.Body.Len() != 0 || len(rr.Header()) != 0 {
		t.Errorf("Expected nothing written, got headers %v body %q", rr.Header(), rr.Body.String())
	}

	// A later Send still works
	if err := res.Send(http.StatusOK, "ok"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

// TestResponseSentThroughRaw tests that writes through Raw count as sent
func TestResponseSentThroughRaw(t *testing.T) {
	sw := &statusWriter{}
	sw.reset(httptest.NewRecorder())
	res := newResponse(sw, codec.NewJSONCodec())

	_, _ = res.Raw().Write([]byte("raw"))
	if !res.Sent() {
		t.Error("Expected raw write to mark the response sent")
	}
	if err := res.Send(http.StatusOK, "x"); !errors.Is(err, ErrResponseSent) {
		t.Errorf("Expected ErrResponseSent, got %v", err)
	}
}

// TestResponseSendProto tests that proto messages go through protojson
func TestResponseSendProto(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})
	_ = r.Get("/proto", func(req *http.Request, res *Response) error {
		return res.Send(http.StatusOK, wrapperspb.String("hi"))
	})

	rr := serve(r, http.MethodGet, "/proto")
	if rr.Code != http.StatusOK || rr.Body.String() != `"hi"` {
		t.Errorf("Unexpected proto response %d %s", rr.Code, rr.Body.String())
	}
}

// TestStatusWriter tests status and byte accounting
func TestStatusWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{}
	sw.reset(rr)

	if sw.Written() || sw.statusCode != http.StatusOK {
		t.Fatal("Expected a reset writer")
	}

	sw.WriteHeader(http.StatusAccepted)
	sw.WriteHeader(http.StatusTeapot)
	_, _ = sw.Write([]byte("hello"))
	sw.Flush()

	if sw.statusCode != http.StatusAccepted {
		t.Errorf("Expected first status to be kept, got %d", sw.statusCode)
	}
	if sw.bytesWritten != 5 {
		t.Errorf("Expected 5 bytes, got %d", sw.bytesWritten)
	}
	if sw.Unwrap() != rr {
		t.Error("Expected Unwrap to return the underlying writer")
	}
	if !rr.Flushed {
		t.Error("Expected Flush to reach the recorder")
	}
}
