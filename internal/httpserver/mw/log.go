package mw

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/tenancy/internal/logger"
)

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	// Ensure status is set if handler wrote body without calling WriteHeader.
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

type serviceKey struct{}

// serviceSlot is filled downstream once the owning service is resolved, so
// the access log written upstream can name it.
type serviceSlot struct{ name string }

// Annotate records the service that handled r for the access log.
func Annotate(r *http.Request, service string) {
	if slot, ok := r.Context().Value(serviceKey{}).(*serviceSlot); ok {
		slot.name = service
	}
}

func withServiceSlot(ctx context.Context) (context.Context, *serviceSlot) {
	slot := &serviceSlot{}
	return context.WithValue(ctx, serviceKey{}, slot), slot
}

// Log returns a middleware that logs one line per HTTP request using the provided logger.
func Log(loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}
			ctx, slot := withServiceSlot(r.Context())

			next.ServeHTTP(ww, r.WithContext(ctx))

			reqID := middleware.GetReqID(r.Context())
			loggerClient.Info("http_request",
				logger.String("method", r.Method),
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path),
				logger.String("service", slot.name),
				logger.Int("status", ww.status),
				logger.Int("bytes", ww.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("user_agent", r.UserAgent()),
				logger.String("request_id", reqID),
			)
		})
	}
}
