package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
)

// AuditMetrics tracks audit trail writes and archive runs.
//
// Metrics:
//   - audit_writes_total: append attempts by entry kind and status
//   - audit_archive_runs_total: archive passes by status
//   - audit_archived_entries_total: entries copied to archive files
type AuditMetrics struct {
	writesTotal      *prometheus.CounterVec
	archiveRunsTotal *prometheus.CounterVec
	archivedEntries  prometheus.Counter
}

// NewAuditMetrics creates and registers audit metrics.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_writes_total",
				Help:      "Total number of audit trail append attempts",
			},
			[]string{"kind", "status"},
		),

		archiveRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_archive_runs_total",
				Help:      "Total number of audit archive runs",
			},
			[]string{"status"},
		),

		archivedEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_archived_entries_total",
				Help:      "Total number of audit entries copied to archive files",
			},
		),
	}

	registry.MustRegister(am.writesTotal, am.archiveRunsTotal, am.archivedEntries)

	return am
}

// RecordWrite records one append attempt.
func (am *AuditMetrics) RecordWrite(kind string, err error) {
	am.writesTotal.WithLabelValues(kind, statusLabel(err)).Inc()
}

// RecordArchive records one archive run.
func (am *AuditMetrics) RecordArchive(entries int, err error) {
	am.archiveRunsTotal.WithLabelValues(statusLabel(err)).Inc()
	if entries > 0 {
		am.archivedEntries.Add(float64(entries))
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
