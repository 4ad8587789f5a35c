// Package metrics exposes Prometheus collectors for the assessment service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mind-engage/neurocare/internal/scoring"
)

// PrometheusMetrics implements assessment.Metrics.
type PrometheusMetrics struct {
	gatherer     prometheus.Gatherer
	submissions  *prometheus.CounterVec
	scores       *prometheus.HistogramVec
	catalogReads *prometheus.HistogramVec
}

// NewPrometheusMetrics registers its collectors on a fresh registry so
// several instances (tests, multiple servers) never collide.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &PrometheusMetrics{
		gatherer: reg,
		submissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neurocare_submissions_total",
				Help: "Submissions handled, by record variant and outcome.",
			},
			[]string{"variant", "outcome"},
		),
		scores: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "neurocare_condition_score_percent",
				Help:    "Distribution of reported condition match percentages.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"condition"},
		),
		catalogReads: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "neurocare_catalog_read_duration_seconds",
				Help:    "Latency of full catalog reads.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}
}

func (pm *PrometheusMetrics) ObserveSubmission(variant, outcome string) {
	pm.submissions.WithLabelValues(variant, outcome).Inc()
}

func (pm *PrometheusMetrics) ObserveScores(r scoring.Result) {
	for _, s := range r {
		pm.scores.WithLabelValues(s.Condition).Observe(s.Percentage)
	}
}

func (pm *PrometheusMetrics) ObserveCatalogRead(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	pm.catalogReads.WithLabelValues(status).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (pm *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.gatherer, promhttp.HandlerOpts{})
}
