package router

import (
	"net/http"

	"github.com/Suhaibinator/SServ/pkg/codec"
)

// Response is the response side handed to a route handler.
// It is created once per dispatched request and must not be retained.
type Response struct {
	w       http.ResponseWriter
	encoder codec.Encoder
	sent    bool
}

func newResponse(w http.ResponseWriter, encoder codec.Encoder) *Response {
	return &Response{w: w, encoder: encoder}
}

// Raw returns the underlying response writer.
func (res *Response) Raw() http.ResponseWriter {
	return res.w
}

// Sent reports whether a response has been written, through Send or Raw.
func (res *Response) Sent() bool {
	if res.sent {
		return true
	}
	if sw, ok := res.w.(*statusWriter); ok {
		return sw.Written()
	}
	return false
}

// Send encodes payload and writes it with the given status.
// Without a headers argument the encoder's Content-Type is set; otherwise exactly
// the given headers are written. Encoding failures are returned before anything
// is written, and once a response is out Send returns ErrResponseSent.
func (res *Response) Send(status int, payload any, headers ...http.Header) error {
	if res.Sent() {
		return ErrResponseSent
	}

	body, err := res.encoder.Encode(payload)
	if err != nil {
		return err
	}

	h := res.w.Header()
	if len(headers) == 0 {
		h.Set("Content-Type", res.encoder.ContentType())
	}
	for _, extra := range headers {
		for key, values := range extra {
			h.Del(key)
			for _, v := range values {
				h.Add(key, v)
			}
		}
	}

	res.sent = true
	res.w.WriteHeader(status)
	_, err = res.w.Write(body)
	return err
}
