package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
)

// EligibilityMetrics tracks per-program eligibility results.
//
// Metrics:
//   - program_evaluations_total: program results by eligibility
//   - program_approvals_required_total: eligible results needing supervisor sign-off
type EligibilityMetrics struct {
	evaluationsTotal *prometheus.CounterVec
	approvalsTotal   *prometheus.CounterVec
}

// NewEligibilityMetrics creates and registers eligibility metrics.
func NewEligibilityMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EligibilityMetrics {
	em := &EligibilityMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "program_evaluations_total",
				Help:      "Total number of program eligibility results",
			},
			[]string{"program", "eligible"},
		),

		approvalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "program_approvals_required_total",
				Help:      "Total number of eligible results requiring supervisor approval",
			},
			[]string{"program"},
		),
	}

	registry.MustRegister(em.evaluationsTotal, em.approvalsTotal)

	return em
}

// RecordResult records one program result.
func (em *EligibilityMetrics) RecordResult(program string, eligible, requiresApproval bool) {
	em.evaluationsTotal.WithLabelValues(program, boolLabel(eligible)).Inc()
	if eligible && requiresApproval {
		em.approvalsTotal.WithLabelValues(program).Inc()
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
