package internal

import (
	"bufio"
	"net"
	"net/http"
	"sync/atomic"
)

// ResponseWriter records the status and body size of a response.
// One ResponseWriter is shared by every middleware layer of a request, so
// the request logger and the error handler see what the handler wrote.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	size    int64
	written atomic.Bool
}

// NewResponseWriter wraps w. The status reads 200 until a header is written.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader sends the status line. Later calls are ignored.
func (w *ResponseWriter) WriteHeader(code int) {
	if !w.written.CompareAndSwap(false, true) {
		return
	}
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Status returns the status code sent, or 200 when nothing was sent yet.
func (w *ResponseWriter) Status() int { return w.status }

// Size returns the number of body bytes written.
func (w *ResponseWriter) Size() int64 { return w.size }

// Written reports whether the status line has been sent.
func (w *ResponseWriter) Written() bool { return w.written.Load() }

func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the socket server take over the connection.
func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	w.written.Store(true)
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap is used by http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
