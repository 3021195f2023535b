package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis Prometheus metrics.
var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed document analyses by verdict",
		},
		[]string{"risk_level", "decay_detected"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Single document analysis duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	EmbeddingFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_fallbacks_total",
			Help:      "Vectors computed lexically because the provider was unavailable",
		},
		[]string{"reason"},
	)

	BatchItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Batch analysis items by outcome",
		},
		[]string{"status"},
	)
)

var analysisMetricsRegistered bool

// RegisterAnalysisMetrics registers Prometheus analysis metrics. Must be called once from main.
func RegisterAnalysisMetrics() {
	if analysisMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnalysesTotal, AnalysisDuration, EmbeddingFallbacksTotal, BatchItemsTotal)
	analysisMetricsRegistered = true
}

// ObserveAnalysis records one completed analysis.
func ObserveAnalysis(riskLevel string, decayDetected bool, elapsed time.Duration) {
	AnalysesTotal.WithLabelValues(riskLevel, strconv.FormatBool(decayDetected)).Inc()
	AnalysisDuration.Observe(elapsed.Seconds())
}
