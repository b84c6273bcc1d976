// Package metrics exposes Prometheus counters for authentication outcomes
// and HTTP responses.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthRecorder is what the service layer reports to.
type AuthRecorder interface {
	ObserveAuthOperation(operation, outcome string, duration time.Duration)
}

// StatusRecorder is what the HTTP middleware reports to.
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

type Collector struct {
	authOutcomes *prometheus.CounterVec
	authLatency  *prometheus.HistogramVec
	httpStatus   *prometheus.CounterVec
}

// NewCollector creates the collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Authentication operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		authLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_operation_duration_seconds",
			Help:    "Authentication operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(c.authOutcomes, c.authLatency, c.httpStatus)
	return c
}

func (c *Collector) ObserveAuthOperation(operation, outcome string, duration time.Duration) {
	c.authOutcomes.WithLabelValues(operation, outcome).Inc()
	c.authLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) ObserveAuthOperation(string, string, time.Duration) {}
func (Nop) RecordHTTPStatus(int)                               {}

var (
	_ AuthRecorder   = (*Collector)(nil)
	_ StatusRecorder = (*Collector)(nil)
	_ AuthRecorder   = Nop{}
	_ StatusRecorder = Nop{}
)
