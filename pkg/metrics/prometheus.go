package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	predictions  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	authResults  *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
}

var (
	once     sync.Once
	instance *Recorder
)

// New creates the Prometheus metrics recorder. Collectors register with
// the default registry, so the recorder is a process-wide singleton.
func New() *Recorder {
	once.Do(func() {
		instance = &Recorder{
			predictions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "trendcast_predictions_total",
					Help: "Total number of predictions served",
				},
				[]string{"instrument", "outcome", "source"},
			),
			fallbacks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "trendcast_fallback_total",
					Help: "Total number of synthetic fallback series generated",
				},
				[]string{"instrument"},
			),
			errorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "trendcast_errors_total",
					Help: "Total number of pipeline errors by stage",
				},
				[]string{"stage"},
			),
			authResults: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "trendcast_auth_total",
					Help: "Authentication attempts by result",
				},
				[]string{"result"},
			),
			stageLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "trendcast_stage_duration_seconds",
					Help:    "Duration of pipeline stages in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"stage"},
			),
		}
	})
	return instance
}

// RecordPrediction records a served prediction.
func (r *Recorder) RecordPrediction(instrument, outcome, source string) {
	r.predictions.WithLabelValues(instrument, outcome, source).Inc()
}

// RecordFallback records a synthetic fallback series generation.
func (r *Recorder) RecordFallback(instrument string) {
	r.fallbacks.WithLabelValues(instrument).Inc()
}

// RecordError records a pipeline error for a stage.
func (r *Recorder) RecordError(stage string) {
	r.errorsTotal.WithLabelValues(stage).Inc()
}

// RecordAuth records an authentication attempt result.
func (r *Recorder) RecordAuth(result string) {
	r.authResults.WithLabelValues(result).Inc()
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}
