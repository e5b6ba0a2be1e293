// Package metrics exposes prometheus instrumentation for the forecast
// workflow over a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation outcomes recorded per attempt.
const (
	OutcomeWithFile    = "with_file"
	OutcomeWithoutFile = "without_file"
	OutcomeFailed      = "failed"
)

// Recorder holds the workflow metrics. It owns a private registry so the
// metrics endpoint serves only skycast series.
type Recorder struct {
	registry  *prometheus.Registry
	attempts  *prometheus.CounterVec
	duration  prometheus.Histogram
	downloads prometheus.Counter
}

// NewRecorder creates and registers the workflow metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skycast_forecast_attempts_total",
			Help: "Forecast generation attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skycast_forecast_duration_seconds",
			Help:    "End-to-end duration of forecast generation.",
			Buckets: prometheus.DefBuckets,
		}),
		downloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skycast_file_downloads_total",
			Help: "Report file downloads served.",
		}),
	}
	r.registry.MustRegister(r.attempts, r.duration, r.downloads)
	return r
}

// Registry returns the private registry for the metrics endpoint.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveGeneration records one generation attempt.
func (r *Recorder) ObserveGeneration(outcome string, elapsed time.Duration) {
	r.attempts.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// ObserveDownload records one served file download.
func (r *Recorder) ObserveDownload() { r.downloads.Inc() }
