package router

import (
	"net/http"
)

// statusWriter is a wrapper around http.ResponseWriter that captures the status
// code and the number of bytes written. Instances are pooled by the router.
type statusWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (sw *statusWriter) reset(w http.ResponseWriter) {
	sw.ResponseWriter = w
	sw.statusCode = http.StatusOK
	sw.bytesWritten = 0
	sw.wroteHeader = false
}

// WriteHeader records the first status code and passes it on.
func (sw *statusWriter) WriteHeader(statusCode int) {
	if !sw.wroteHeader {
		sw.statusCode = statusCode
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the number of bytes written and calls the underlying ResponseWriter.Write.
func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	n, err := sw.ResponseWriter.Write(b)
	sw.bytesWritten += int64(n)
	return n, err
}

// Flush calls the underlying ResponseWriter.Flush if it implements http.Flusher.
func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		sw.wroteHeader = true
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Written reports whether the status line has been sent.
func (sw *statusWriter) Written() bool {
	return sw.wroteHeader
}
