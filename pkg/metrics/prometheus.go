package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes pipeline counters via Prometheus.
type Recorder struct {
	analysesTotal *prometheus.CounterVec
	rowsCleaned   *prometheus.CounterVec
	rowsRemoved   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	qualityScore  *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmood_analyses_total",
				Help: "Total number of symbol analyses performed",
			},
			[]string{"symbol", "status"},
		),
		rowsCleaned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmood_rows_cleaned_total",
				Help: "Total number of rows accepted after cleaning",
			},
			[]string{"symbol"},
		),
		rowsRemoved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmood_rows_removed_total",
				Help: "Total number of rows dropped during cleaning",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmood_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		qualityScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockmood_quality_score",
				Help: "Last data quality score for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockmood_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordAnalysis records one finished symbol analysis.
func (r *Recorder) RecordAnalysis(symbol, status string) {
	r.analysesTotal.WithLabelValues(symbol, status).Inc()
}

// RecordRowsCleaned records how many rows survived and how many were dropped.
func (r *Recorder) RecordRowsCleaned(symbol string, kept, removed int) {
	r.rowsCleaned.WithLabelValues(symbol).Add(float64(kept))
	r.rowsRemoved.WithLabelValues(symbol).Add(float64(removed))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordQualityScore records the latest quality score for a symbol.
func (r *Recorder) RecordQualityScore(symbol string, score float64) {
	r.qualityScore.WithLabelValues(symbol).Set(score)
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	r.latency.WithLabelValues(stage).Observe(seconds)
}
