package api

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// bufferedResponse collects the handler's output so nothing touches the
// real ResponseWriter until the handler is known to have finished in
// time. A handler that outlives its deadline keeps writing here, never
// to the connection.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	b.status = status
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	for key, values := range b.header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

// TimeoutMiddleware adds a request timeout so a slow provider or gateway
// call cannot pin a webhook worker indefinitely. The handler runs
// against a buffer, only the winner of handler-vs-deadline writes to
// the connection.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			buf := newBufferedResponse()
			done := make(chan struct{})
			go func() {
				next.ServeHTTP(buf, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
				buf.flushTo(w)
			case <-ctx.Done():
				zap.S().Warnw("request timeout",
					"path", r.URL.Path,
					"method", r.Method,
					"timeout", timeout)
				w.WriteHeader(http.StatusRequestTimeout)
				_, _ = w.Write([]byte(`{"error": "request timeout"}`))
			}
		})
	}
}
