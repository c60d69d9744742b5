package server

import (
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/teemow/gmailweb/internal/logging"
)

// statusRecorder captures the response status code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogMiddleware logs every request with a generated request ID and
// records request metrics.
func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s.metrics.HTTPRequest(r.Method, routeLabel(r.URL.Path), rec.status, duration)

		s.logger.Info("request",
			logging.RequestID(requestID),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			logging.KeyDuration, duration.String(),
			logging.KeyRemoteAddr, clientIP(r),
		)
	})
}

// recoveryMiddleware turns panics into a generic server error. Stack traces
// go to the log only; the response carries no detail in production.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					"panic", rec,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				detail := "An unexpected error occurred."
				if !s.cfg.IsProduction() {
					detail = "An unexpected error occurred. Check the server log for the stack trace."
				}
				s.renderError(w, http.StatusInternalServerError, "Server error", detail)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies a per-IP token bucket to the whole surface.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(clientIP(r)) {
			s.metrics.RateLimited()
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the remote IP without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// routeLabel collapses parameterized paths to keep metric cardinality low.
func routeLabel(path string) string {
	if len(path) > len("/api/emails/") && path[:len("/api/emails/")] == "/api/emails/" {
		return "/api/emails/{id}"
	}
	return path
}

// ipRateLimiter keeps one token bucket per client IP. Idle entries are
// swept periodically so the map does not grow with every visitor.
type ipRateLimiter struct {
	limiters map[string]*ipLimiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ticker   *time.Ticker
	done     chan bool
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(r float64, burst int) *ipRateLimiter {
	if r <= 0 {
		r = 10
	}
	if burst <= 0 {
		burst = 20
	}

	l := &ipRateLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		rate:     rate.Limit(r),
		burst:    burst,
		ticker:   time.NewTicker(5 * time.Minute),
		done:     make(chan bool),
	}
	go l.cleanup()
	return l
}

// Allow reports whether a request from the given IP may proceed.
func (l *ipRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()

	return entry.limiter.Allow()
}

func (l *ipRateLimiter) cleanup() {
	for {
		select {
		case <-l.ticker.C:
			l.sweepIdle(time.Now().Add(-15 * time.Minute))
		case <-l.done:
			return
		}
	}
}

// sweepIdle removes buckets not seen since the cutoff and returns how many
// remain.
func (l *ipRateLimiter) sweepIdle(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
	return len(l.limiters)
}

// Stop stops the cleanup goroutine.
func (l *ipRateLimiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
	if l.done != nil {
		close(l.done)
	}
}
