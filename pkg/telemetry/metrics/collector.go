package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
)

// OtherLabel replaces label values once the cardinality limit is reached.
const OtherLabel = "other"

// DefaultMaxCardinality bounds the number of distinct program and
// alternative labels tracked per collector.
const DefaultMaxCardinality = 1000

// Collector owns every Prometheus metric exported by the intake engine and
// offers one method per recorded event. All methods are no-ops when metrics
// are disabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	decisionMetrics    *DecisionMetrics
	eligibilityMetrics *EligibilityMetrics
	auditMetrics       *AuditMetrics
	catalogMetrics     *CatalogMetrics
	httpMetrics        *HTTPMetrics

	// Program names come from operator-edited catalogs
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registering on registry. A nil registry
// gets a fresh one.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "intake",
//		Subsystem: "engine",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.EvaluationDurationBuckets) == 0 {
		cfg.EvaluationDurationBuckets = config.DefaultEvaluationDurationBuckets
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		decisionMetrics:    NewDecisionMetrics(cfg, registry),
		eligibilityMetrics: NewEligibilityMetrics(cfg, registry),
		auditMetrics:       NewAuditMetrics(cfg, registry),
		catalogMetrics:     NewCatalogMetrics(cfg, registry),
		httpMetrics:        NewHTTPMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxCardinality),
	}
}

// RecordEvaluation records one pipeline run. Outcome is "decided" for a
// completed decision, otherwise the error kind written to the audit trail.
func (c *Collector) RecordEvaluation(outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.RecordEvaluation(outcome, duration)
}

// RecordDecision records the outcome of a completed decision.
//
// Parameters:
//   - disposition: final disposition kind
//   - band: effective risk band
//   - overrideKind: none, mandatory_detain, mandatory_release or discretionary
//   - total: raw risk score total
func (c *Collector) RecordDecision(disposition, band, overrideKind string, total int) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.RecordDecision(disposition, band, overrideKind, total)
}

// RecordAlternativeSelected records the alternative used for a
// non-detention recommendation.
func (c *Collector) RecordAlternativeSelected(alternative string) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.RecordAlternative(c.limit("alternative", alternative))
}

// RecordEligibility records one program's eligibility result.
func (c *Collector) RecordEligibility(program string, eligible, requiresApproval bool) {
	if !c.config.Enabled {
		return
	}
	c.eligibilityMetrics.RecordResult(c.limit("program", program), eligible, requiresApproval)
}

// RecordAuditWrite records an attempted audit append for an entry kind.
func (c *Collector) RecordAuditWrite(kind string, err error) {
	if !c.config.Enabled {
		return
	}
	c.auditMetrics.RecordWrite(kind, err)
}

// RecordArchiveRun records one archive pass and the entries it copied.
func (c *Collector) RecordArchiveRun(entries int, err error) {
	if !c.config.Enabled {
		return
	}
	c.auditMetrics.RecordArchive(entries, err)
}

// RecordCatalogLoad records a catalog load or reload attempt. On success
// the version info gauge moves to the new version.
func (c *Collector) RecordCatalogLoad(version string, programs, alternatives int, err error) {
	if !c.config.Enabled {
		return
	}
	c.catalogMetrics.RecordLoad(version, programs, alternatives, err)
}

// RecordHTTPRequest records a served API request. Route is the chi route
// pattern, never the raw path.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordRequest(route, method, status, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) limit(metric, value string) string {
	if c.cardinalityLimiter.Allow(metric + ":" + value) {
		return value
	}
	return OtherLabel
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
