// Package trace logs each request's outcome and keeps simple counters.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/log"
)

type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
	// LastDurationMicros is the duration of the most recent request.
	LastDurationMicros int64
}

type Middleware struct {
	extractIP func(*http.Request) string
	total     atomic.Int64
	errors    atomic.Int64
	last      atomic.Int64
}

func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{extractIP: extractIP}
}

// Handler must run inside chi's RequestID and log.Middleware so that the
// completion line carries the request id.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		m.total.Add(1)
		m.last.Store(elapsed.Microseconds())
		if status >= 500 {
			m.errors.Add(1)
		}

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		log.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), clientIP)
	})
}

func (m *Middleware) Metrics() Metrics {
	return Metrics{
		TotalRequests:      m.total.Load(),
		ServerErrors:       m.errors.Load(),
		LastDurationMicros: m.last.Load(),
	}
}
