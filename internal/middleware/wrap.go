package middleware

import "net/http"

// ResponseRecorder wraps ResponseWriter, captures the status code and runs a hook right
// before the first header write so cookies can still be added.
type ResponseRecorder struct {
	http.ResponseWriter
	status      int
	wrote       bool
	beforeWrite func(http.ResponseWriter)
}

// NewResponseRecorder wraps w.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
}

// SetBeforeWrite registers fn to run once, before headers are flushed.
func (rw *ResponseRecorder) SetBeforeWrite(fn func(http.ResponseWriter)) { rw.beforeWrite = fn }

func (rw *ResponseRecorder) flushHook() {
	if rw.wrote {
		return
	}
	rw.wrote = true
	if rw.beforeWrite != nil {
		rw.beforeWrite(rw.ResponseWriter)
	}
}

// WriteHeader implements http.ResponseWriter.
func (rw *ResponseRecorder) WriteHeader(statusCode int) {
	rw.flushHook()
	rw.status = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write implements http.ResponseWriter.
func (rw *ResponseRecorder) Write(b []byte) (int, error) {
	rw.flushHook()
	return rw.ResponseWriter.Write(b)
}

// Flush forwards to the wrapped writer when it supports streaming.
func (rw *ResponseRecorder) Flush() {
	rw.flushHook()
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rw *ResponseRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Status returns the written status code.
func (rw *ResponseRecorder) Status() int { return rw.status }

// Wrote reports whether anything was written.
func (rw *ResponseRecorder) Wrote() bool { return rw.wrote }
