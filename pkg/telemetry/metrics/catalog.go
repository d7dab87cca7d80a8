package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
)

// CatalogMetrics tracks program catalog loads.
//
// Metrics:
//   - catalog_loads_total: load and reload attempts by status
//   - catalog_info: 1 for the active catalog version, 0 for replaced ones
//   - catalog_programs: programs in the active catalog
//   - catalog_alternatives: alternatives in the active catalog
type CatalogMetrics struct {
	loadsTotal   *prometheus.CounterVec
	info         *prometheus.GaugeVec
	programs     prometheus.Gauge
	alternatives prometheus.Gauge

	mu     sync.Mutex
	active string
}

// NewCatalogMetrics creates and registers catalog metrics.
func NewCatalogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CatalogMetrics {
	cm := &CatalogMetrics{
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "catalog_loads_total",
				Help:      "Total number of program catalog load attempts",
			},
			[]string{"status"},
		),

		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "catalog_info",
				Help:      "Active program catalog version (1=active, 0=replaced)",
			},
			[]string{"version"},
		),

		programs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "catalog_programs",
				Help:      "Number of programs in the active catalog",
			},
		),

		alternatives: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "catalog_alternatives",
				Help:      "Number of alternatives to detention in the active catalog",
			},
		),
	}

	registry.MustRegister(cm.loadsTotal, cm.info, cm.programs, cm.alternatives)

	return cm
}

// RecordLoad records a load attempt. A failed load leaves the gauges on
// the previous catalog, which stays active.
func (cm *CatalogMetrics) RecordLoad(version string, programs, alternatives int, err error) {
	cm.loadsTotal.WithLabelValues(statusLabel(err)).Inc()
	if err != nil {
		return
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.active != "" && cm.active != version {
		cm.info.WithLabelValues(cm.active).Set(0)
	}
	cm.active = version
	cm.info.WithLabelValues(version).Set(1)
	cm.programs.Set(float64(programs))
	cm.alternatives.Set(float64(alternatives))
}
