// Package metrics provides Prometheus metrics for billing runs and the HTTP API.
package metrics

import (
	"time"

	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "callbill"

// Collector holds all Prometheus metrics for callbill.
type Collector struct {
	// Billing metrics
	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	CallsRated   prometheus.Counter
	FreeCalls    prometheus.Counter
	LastRunTotal *prometheus.GaugeVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewWithRegistry creates a collector registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of billing runs by outcome",
			},
			[]string{"status"},
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Billing run duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
		),
		CallsRated: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_rated_total",
				Help:      "Total number of calls rated",
			},
		),
		FreeCalls: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "free_calls_total",
				Help:      "Total number of calls billed at zero as top-caller calls",
			},
		),
		LastRunTotal: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_total",
				Help:      "Total of the most recent successful run",
			},
			[]string{"tariff", "currency"},
		),
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveRun records the outcome of a billing run.
func (c *Collector) ObserveRun(summary *model.BillingSummary, elapsed time.Duration, err error) {
	c.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		c.RunsTotal.WithLabelValues("error").Inc()
		return
	}
	c.RunsTotal.WithLabelValues("ok").Inc()
	if summary == nil {
		return
	}
	c.CallsRated.Add(float64(summary.CallCount))
	c.FreeCalls.Add(float64(summary.TopCallerCalls))
	c.LastRunTotal.WithLabelValues(summary.Tariff, summary.Currency).Set(summary.TotalMonthSum)
}

// ObserveRequest records a handled HTTP request.
func (c *Collector) ObserveRequest(method, route, status string, elapsed time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, status).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// StatusClass maps an HTTP status code to its class label, e.g. 404 -> "4xx".
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
