package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analysesTotal  *prometheus.CounterVec
	biasScores     *prometheus.GaugeVec
	tradesIngested *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trademirror_analyses_total",
				Help: "Total number of behavior analyses performed",
			},
			[]string{"kind"},
		),
		biasScores: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trademirror_bias_score",
				Help: "Last computed bias score per bias type",
			},
			[]string{"bias"},
		),
		tradesIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trademirror_trades_ingested_total",
				Help: "Total number of trades ingested per backend",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trademirror_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trademirror_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis records a completed analysis of the given kind.
func (r *Recorder) RecordAnalysis(kind string) {
	r.analysesTotal.WithLabelValues(kind).Inc()
}

// RecordBiasScore records the last computed score for a bias type.
func (r *Recorder) RecordBiasScore(bias string, score float64) {
	r.biasScores.WithLabelValues(bias).Set(score)
}

// RecordTradesIngested records trades written to a backend.
func (r *Recorder) RecordTradesIngested(backend string, n int) {
	r.tradesIngested.WithLabelValues(backend).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
