package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Probe outcome labels.
const (
	OutcomeSeeds   = "seeds"
	OutcomeEmpty   = "empty"
	OutcomeFailure = "failure"
)

var (
	Registry = prometheus.NewRegistry()

	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seedprobe",
			Name:      "probes_total",
			Help:      "Total number of probe attempts by outcome.",
		},
		[]string{"outcome"},
	)

	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seedprobe",
			Name:      "probe_duration_seconds",
			Help:      "Latency of probe attempts.",
			// Covers 1ms .. ~4s, the spread of a single HTTP round trip.
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
		},
		[]string{"outcome"},
	)

	activeProbers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "seedprobe",
			Name:      "active_probers",
			Help:      "Number of probers currently running.",
		},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "seedprobe",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(probesTotal, probeDuration, activeProbers, uptime)
}

// MetricsHandler exposes /metrics. Mount it with mux.Handle("/metrics", telemetry.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveProbe records one finished probe attempt.
func ObserveProbe(outcome string, d time.Duration) {
	probesTotal.WithLabelValues(outcome).Inc()
	probeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ProberStarted and ProberStopped track the running-prober gauge.
func ProberStarted() { activeProbers.Inc() }

func ProberStopped() { activeProbers.Dec() }
