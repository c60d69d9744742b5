package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultMetricsReadTimeout is the default read timeout for the metrics server.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout is the default write timeout for the metrics server.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultMetricsIdleTimeout is the default idle timeout for the metrics server.
	DefaultMetricsIdleTimeout = 60 * time.Second
)

// errDisabledMetrics is returned when the server is started without collectors.
var errDisabledMetrics = errors.New("metrics collectors are required for the metrics server")

// Metrics holds the Prometheus collectors for the web application.
// A nil *Metrics is valid and records nothing, so tests can run without
// a registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	authFlowsStarted  prometheus.Counter
	authFlowsComplete prometheus.Counter
	authFlowsFailed   *prometheus.CounterVec
	mailOperations    *prometheus.CounterVec
	rateLimited       prometheus.Counter
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gmailweb_http_requests_total",
			Help: "HTTP requests processed, partitioned by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gmailweb_http_request_duration_seconds",
			Help:    "HTTP request latency, partitioned by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFlowsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gmailweb_auth_flows_started_total",
			Help: "Authorization flows initiated.",
		}),
		authFlowsComplete: factory.NewCounter(prometheus.CounterOpts{
			Name: "gmailweb_auth_flows_completed_total",
			Help: "Authorization flows completed successfully.",
		}),
		authFlowsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gmailweb_auth_flows_failed_total",
			Help: "Authorization flows that failed, partitioned by reason.",
		}, []string{"reason"}),
		mailOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gmailweb_mail_operations_total",
			Help: "Gmail API operations, partitioned by operation and status.",
		}, []string{"operation", "status"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "gmailweb_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter.",
		}),
	}
}

// HTTPRequest records one handled request.
func (m *Metrics) HTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// AuthFlowStarted records an initiated authorization flow.
func (m *Metrics) AuthFlowStarted() {
	if m == nil {
		return
	}
	m.authFlowsStarted.Inc()
}

// AuthFlowCompleted records a completed authorization flow.
func (m *Metrics) AuthFlowCompleted() {
	if m == nil {
		return
	}
	m.authFlowsComplete.Inc()
}

// AuthFlowFailed records a failed authorization flow with its reason.
func (m *Metrics) AuthFlowFailed(reason string) {
	if m == nil {
		return
	}
	m.authFlowsFailed.WithLabelValues(reason).Inc()
}

// MailOperation records a Gmail API operation outcome.
func (m *Metrics) MailOperation(operation, status string) {
	if m == nil {
		return
	}
	m.mailOperations.WithLabelValues(operation, status).Inc()
}

// RateLimited records a rate-limited request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// MetricsServer serves Prometheus metrics on a dedicated port.
// This isolates metrics from the main application traffic,
// preventing unauthorized access to operational metrics.
type MetricsServer struct {
	httpServer *http.Server
	metrics    *Metrics
	addr       string
}

// NewMetricsServer creates a new metrics server exposing the given
// collectors on /metrics.
func NewMetricsServer(addr string, metrics *Metrics) *MetricsServer {
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	return &MetricsServer{
		metrics: metrics,
		addr:    addr,
	}
}

// Start starts the metrics server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *MetricsServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal starts the metrics server and closes ready once the
// listener is bound, so callers can confirm startup before proceeding.
func (s *MetricsServer) StartWithReadySignal(ready chan struct{}) error {
	if s.metrics == nil {
		return errDisabledMetrics
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	// Add a basic health check for the metrics server itself
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	slog.Info("starting metrics server", "addr", s.addr)
	if ready != nil {
		close(ready)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("shutting down metrics server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the metrics server.
func (s *MetricsServer) Addr() string {
	return s.addr
}
