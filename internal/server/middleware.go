package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/desertthunder/tabx/internal/shared"
)

const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.bytes += n
	return n, err
}

// RequestID reuses an incoming X-Request-ID or generates one, echoes it on the response and stores it in the
// request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = shared.GenerateID()
			}

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
		})
	}
}

// Logging attaches a request-scoped logger to the context and logs one line per request.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			reqLogger := shared.WithLogger(logger, "request_id", requestID(r.Context()))
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r.WithContext(log.WithContext(r.Context(), reqLogger)))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			level := log.InfoLevel
			if rec.status >= http.StatusInternalServerError {
				level = log.ErrorLevel
			}
			reqLogger.Log(level, "request", "method", r.Method, "path", r.URL.Path, "status", rec.status,
				"bytes", rec.bytes, "took", time.Since(started))
		})
	}
}

// Recover turns a panic in a handler into a 500 JSON response.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("handler panic", "request_id", requestID(r.Context()), "panic", v)
					writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
