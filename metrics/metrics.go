// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TranslationsTotal counts provider translation calls by outcome.
	TranslationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "langpont",
		Name:      "translations_total",
		Help:      "Translation calls by kind and outcome.",
	}, []string{"kind", "status"})

	// TranslationDuration observes per-call wall time.
	TranslationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "langpont",
		Name:      "translation_duration_seconds",
		Help:      "Translation call duration.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 180},
	}, []string{"kind"})

	// AnalysesTotal counts analysis runs by engine and status.
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "langpont",
		Name:      "analyses_total",
		Help:      "Meta-analysis runs by engine and status.",
	}, []string{"engine", "status"})

	// RecommendationsTotal counts extracted recommendations.
	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "langpont",
		Name:      "recommendations_total",
		Help:      "Extracted recommendations by choice and method.",
	}, []string{"choice", "method"})

	// QuestionsTotal counts interactive questions by intent.
	QuestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "langpont",
		Name:      "questions_total",
		Help:      "Interactive questions by classified intent.",
	}, []string{"intent"})

	// CacheFallbacksTotal counts writes that landed in the local tier.
	CacheFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "langpont",
		Name:      "cache_fallbacks_total",
		Help:      "State cache writes degraded to the local tier.",
	})
)

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
