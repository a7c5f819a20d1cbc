// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediagate"

var (
	tokenVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "token", Name: "verifications_total", Help: "Bearer token verifications by token kind and outcome"},
		[]string{"kind", "reason"},
	)
	tokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "token", Name: "issued_total", Help: "Tokens issued by type"},
		[]string{"type"},
	)
	signedURLsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "signedurl", Name: "issued_total", Help: "Signed resource URLs issued by trust domain"},
		[]string{"domain"},
	)
	signedURLChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "signedurl", Name: "checks_total", Help: "Signed resource URL verifications by trust domain and result"},
		[]string{"domain", "result"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "http", Name: "requests_total", Help: "HTTP requests by route and status"},
		[]string{"method", "route", "code"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds", Help: "HTTP request duration", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
)

func init() {
	// Another binary in the same process may already own the runtime collectors.
	_ = prometheus.Register(collectors.NewGoCollector())
	_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prometheus.MustRegister(tokenVerifications, tokensIssued, signedURLsIssued, signedURLChecks, httpRequests, httpDuration)
}

// ObserveAuth records one bearer verification. kind is "access", "refresh"
// or "federated"; reason is a jwtx.Reason label.
func ObserveAuth(kind, reason string) {
	tokenVerifications.WithLabelValues(kind, reason).Inc()
}

func IncTokenIssued(tokenType string) { tokensIssued.WithLabelValues(tokenType).Inc() }

func IncSignedURL(domain string) { signedURLsIssued.WithLabelValues(domain).Inc() }

// ObserveSignedURLCheck counts a signed URL verification. result is "ok",
// "expired" or "invalid".
func ObserveSignedURLCheck(domain, result string) {
	signedURLChecks.WithLabelValues(domain, result).Inc()
}

// ObserveRequest matches slogx.RequestObserver. The route label is the
// ServeMux pattern so path parameters do not explode cardinality.
func ObserveRequest(r *http.Request, status int, elapsed time.Duration) {
	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
