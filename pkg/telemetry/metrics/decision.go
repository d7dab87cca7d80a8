package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
)

// DecisionMetrics tracks pipeline runs and their outcomes.
//
// Metrics:
//   - evaluations_total: pipeline runs by outcome
//   - evaluation_duration_seconds: pipeline run duration
//   - dispositions_total: completed decisions by disposition
//   - risk_bands_total: completed decisions by effective band
//   - overrides_total: completed decisions by override kind
//   - risk_score: distribution of raw risk totals
//   - alternatives_selected_total: accepted alternatives used in a decision
type DecisionMetrics struct {
	evaluationsTotal     *prometheus.CounterVec
	evaluationDuration   *prometheus.HistogramVec
	dispositionsTotal    *prometheus.CounterVec
	bandsTotal           *prometheus.CounterVec
	overridesTotal       *prometheus.CounterVec
	riskScore            prometheus.Histogram
	alternativesSelected *prometheus.CounterVec
}

// NewDecisionMetrics creates and registers decision metrics.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of intake evaluations by outcome",
			},
			[]string{"outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of intake evaluations in seconds, including the audit write",
				Buckets:   cfg.EvaluationDurationBuckets,
			},
			[]string{"outcome"},
		),

		dispositionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispositions_total",
				Help:      "Total number of recommended dispositions",
			},
			[]string{"disposition"},
		),

		bandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "risk_bands_total",
				Help:      "Total number of decisions by effective risk band",
			},
			[]string{"band"},
		),

		overridesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "overrides_total",
				Help:      "Total number of decisions by override kind",
			},
			[]string{"kind"},
		),

		riskScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "risk_score",
				Help:      "Distribution of raw risk score totals",
				// Upper bounds of the five bands
				Buckets: []float64{5, 10, 15, 20, 25},
			},
		),

		alternativesSelected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "alternatives_selected_total",
				Help:      "Total number of decisions using each alternative to detention",
			},
			[]string{"alternative"},
		),
	}

	registry.MustRegister(
		dm.evaluationsTotal,
		dm.evaluationDuration,
		dm.dispositionsTotal,
		dm.bandsTotal,
		dm.overridesTotal,
		dm.riskScore,
		dm.alternativesSelected,
	)

	return dm
}

// RecordEvaluation records one pipeline run.
func (dm *DecisionMetrics) RecordEvaluation(outcome string, duration time.Duration) {
	dm.evaluationsTotal.WithLabelValues(outcome).Inc()
	dm.evaluationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordDecision records a completed decision.
func (dm *DecisionMetrics) RecordDecision(disposition, band, overrideKind string, total int) {
	dm.dispositionsTotal.WithLabelValues(disposition).Inc()
	dm.bandsTotal.WithLabelValues(band).Inc()
	dm.overridesTotal.WithLabelValues(overrideKind).Inc()
	dm.riskScore.Observe(float64(total))
}

// RecordAlternative records the alternative used for a decision.
func (dm *DecisionMetrics) RecordAlternative(alternative string) {
	dm.alternativesSelected.WithLabelValues(alternative).Inc()
}
