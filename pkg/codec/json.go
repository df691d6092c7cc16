// Package codec provides encoding and decoding functionality for response and request bodies.
package codec

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// Encoder serializes response payloads.
type Encoder interface {
	// ContentType returns the media type written alongside encoded bodies.
	ContentType() string

	// Encode serializes v to its wire representation.
	Encode(v any) ([]byte, error)
}

// Decoder deserializes request bodies.
type Decoder interface {
	// Decode reads the request body into v.
	Decode(r *http.Request, v any) error
}

// JSONCodec is a codec that uses JSON for marshaling and unmarshaling.
// Values implementing proto.Message are handled with protojson so that
// generated types render with their canonical JSON field names.
type JSONCodec struct {
	// EscapeHTML escapes <, > and & inside JSON strings when true.
	EscapeHTML bool
}

// NewJSONCodec creates a new JSONCodec instance.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// ContentType returns "application/json".
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Encode marshals v to JSON without a trailing newline.
func (c *JSONCodec) Encode(v any) ([]byte, error) {
	if m, ok := asProto(v); ok {
		return marshalProto(m)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(c.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// json.Encoder always terminates the value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode reads the entire request body and unmarshals it into v.
func (c *JSONCodec) Decode(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer r.Body.Close()

	if m, ok := asProto(v); ok {
		return unmarshalProto(body, m)
	}
	return json.Unmarshal(body, v)
}
