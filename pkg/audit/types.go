package audit

import (
	"context"
	"io"
	"time"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

// EntryKind classifies an audit entry.
type EntryKind string

const (
	// KindDecision records a completed evaluation.
	KindDecision EntryKind = "decision"
	// KindError records an evaluation that failed before a decision was made.
	KindError EntryKind = "error"
	// KindCorrection records a reviewer's correction of an earlier entry.
	KindCorrection EntryKind = "correction"
	// KindReview records an officer approving a decision or asking for
	// more information before acting on it.
	KindReview EntryKind = "review"
)

// Valid reports whether k is a known entry kind.
func (k EntryKind) Valid() bool {
	switch k {
	case KindDecision, KindError, KindCorrection, KindReview:
		return true
	}
	return false
}

// Entry is one immutable record in a case's audit trail. The trail assigns
// ID, Sequence, Timestamp, PrevHash and ContentHash when it is recorded.
type Entry struct {
	// Identity
	ID       string    `json:"id"`
	CaseID   string    `json:"case_id"`
	Sequence int64     `json:"sequence"`
	Kind     EntryKind `json:"kind"`

	// Timestamp is the UTC time the entry was recorded. It strictly
	// increases within a case.
	Timestamp time.Time `json:"timestamp"`

	SnapshotID     string `json:"snapshot_id,omitempty"`
	Assessor       string `json:"assessor,omitempty"`
	CatalogVersion string `json:"catalog_version,omitempty"`

	// Snapshot is the sealed snapshot an evaluation scored. SnapshotHash
	// is assigned by the trail from its facts; see HashSnapshot.
	Snapshot     *intake.CaseSnapshot `json:"snapshot,omitempty"`
	SnapshotHash string               `json:"snapshot_hash,omitempty"`

	// Decision content
	Score             *risk.Score            `json:"score,omitempty"`
	Override          *override.Decision     `json:"override,omitempty"`
	Eligibility       []eligibility.Result   `json:"eligibility,omitempty"`
	Disposition       *detention.Disposition `json:"disposition,omitempty"`
	ProtectiveFactors []string               `json:"protective_factors,omitempty"`

	// Error is set on error entries.
	Error *ErrorDetail `json:"error,omitempty"`

	// Supersedes is the id of the entry this one corrects.
	Supersedes string `json:"supersedes,omitempty"`
	Notes      string `json:"notes,omitempty"`

	// ReviewOf is the decision entry a review rules on. Approved is false
	// when the officer asked for more information.
	ReviewOf string `json:"review_of,omitempty"`
	Approved *bool  `json:"approved,omitempty"`

	// Hash chain
	PrevHash    string `json:"prev_hash,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

// ErrorDetail describes why an evaluation failed.
type ErrorDetail struct {
	// Kind is configuration, invalid_override_request,
	// incomplete_alternatives_review, invalid_snapshot or internal.
	Kind         string   `json:"kind"`
	Message      string   `json:"message"`
	Program      string   `json:"program,omitempty"`
	Alternative  string   `json:"alternative,omitempty"`
	Predicate    string   `json:"predicate,omitempty"`
	Field        string   `json:"field,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`

	// Fields and Programs list every missing fact and the programs that
	// need them when a snapshot falls short of the whole catalog.
	Fields   []string `json:"fields,omitempty"`
	Programs []string `json:"programs,omitempty"`
}

// DispositionKind returns the disposition kind, or "" when the entry has none.
func (e *Entry) DispositionKind() string {
	if e.Disposition == nil {
		return ""
	}
	return string(e.Disposition.Kind)
}

// Band returns the effective risk band, or "" when the entry has none.
func (e *Entry) Band() string {
	switch {
	case e.Disposition != nil:
		return string(e.Disposition.Band)
	case e.Score != nil:
		return string(e.Score.Band)
	}
	return ""
}

// RiskTotal returns the risk total and whether the entry carries a score.
func (e *Entry) RiskTotal() (int, bool) {
	if e.Score == nil {
		return 0, false
	}
	return e.Score.Total, true
}

// Query defines filter parameters for querying audit entries.
type Query struct {
	CaseID      string    `json:"case_id,omitempty"`
	Kind        EntryKind `json:"kind,omitempty"`
	Assessor    string    `json:"assessor,omitempty"`
	Disposition string    `json:"disposition,omitempty"`
	Band        string    `json:"band,omitempty"`

	// Time range, both inclusive.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "asc" (default, insertion order) or "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Storage is an append-only audit entry store with no update or delete
// operation. Implementations must be safe for concurrent use.
type Storage interface {
	// Append persists a fully populated entry. It fails with ErrConflict
	// when the case already has an entry at the same sequence.
	Append(ctx context.Context, entry *Entry) error

	// Read returns every entry for a case in sequence order.
	Read(ctx context.Context, caseID string) ([]*Entry, error)

	// Last returns the most recent entry for a case, or nil if none.
	Last(ctx context.Context, caseID string) (*Entry, error)

	// Get returns the entry with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Entry, error)

	// Query returns entries matching the filters.
	Query(ctx context.Context, query *Query) ([]*Entry, error)

	// QueryStream streams matching entries. Both channels are closed when
	// the query completes; at most one error is sent.
	QueryStream(ctx context.Context, query *Query) (<-chan *Entry, <-chan error, error)

	// Count returns the number of matching entries.
	Count(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Exporter writes audit entries in a specific format.
type Exporter interface {
	Export(ctx context.Context, entries []*Entry, w io.Writer) error
}
