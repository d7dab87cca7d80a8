package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Trail is the only writer of audit entries. Writes for the same case are
// serialized and receive strictly increasing sequence numbers and
// timestamps; writes for different cases proceed in parallel. Reads go
// straight to storage without taking the case lock.
type Trail struct {
	storage Storage
	clock   func() time.Time
	logger  *slog.Logger

	cases sync.Map // map[caseID]*caseState
}

// caseState caches the tail of one case's chain and the facts hash of
// every snapshot id the case has decided on.
type caseState struct {
	mu       sync.Mutex
	loaded   bool
	sequence int64
	last     time.Time
	lastHash string

	snapshots map[string]snapshotRef
}

type snapshotRef struct {
	hash    string
	entryID string
}

// remember notes the snapshot a decision entry scored. The first decision
// for a snapshot id fixes its facts.
func (st *caseState) remember(e *Entry) {
	if e.Kind != KindDecision || e.SnapshotID == "" || e.SnapshotHash == "" {
		return
	}
	if _, ok := st.snapshots[e.SnapshotID]; !ok {
		st.snapshots[e.SnapshotID] = snapshotRef{hash: e.SnapshotHash, entryID: e.ID}
	}
}

// Option configures a Trail.
type Option func(*Trail)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(t *Trail) { t.clock = clock }
}

// WithLogger sets the trail's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) { t.logger = logger }
}

// NewTrail creates an audit trail over storage.
func NewTrail(storage Storage, opts ...Option) *Trail {
	t := &Trail{
		storage: storage,
		clock:   time.Now,
		logger:  slog.Default().With("component", "audit.trail"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Storage returns the underlying storage backend.
func (t *Trail) Storage() Storage {
	return t.storage
}

// Record appends an entry to its case's trail and returns the new entry id.
// The trail assigns ID, Sequence, Timestamp, PrevHash and ContentHash on
// the passed entry, and SnapshotHash when it carries a snapshot. The entry
// must not be modified afterwards.
//
// A decision whose snapshot id was already decided with different facts is
// rejected with a *SnapshotConflictError.
func (t *Trail) Record(ctx context.Context, entry *Entry) (string, error) {
	if entry == nil {
		return "", NewRecordError("", errors.New("entry is required"))
	}
	if entry.CaseID == "" {
		return "", NewRecordError("", errors.New("case id is required"))
	}
	if !entry.Kind.Valid() {
		return "", NewRecordError(entry.CaseID, fmt.Errorf("unknown entry kind %q", entry.Kind))
	}
	if entry.Kind == KindCorrection && entry.Supersedes == "" {
		return "", NewRecordError(entry.CaseID, errors.New("correction must reference the superseded entry"))
	}
	if entry.Kind == KindReview && (entry.ReviewOf == "" || entry.Approved == nil) {
		return "", NewRecordError(entry.CaseID, errors.New("review must reference a decision and record approval"))
	}
	if entry.Snapshot != nil {
		if entry.SnapshotID == "" {
			entry.SnapshotID = entry.Snapshot.ID
		}
		hash, err := HashSnapshot(entry.Snapshot)
		if err != nil {
			return "", NewRecordError(entry.CaseID, fmt.Errorf("snapshot hash: %w", err))
		}
		entry.SnapshotHash = hash
	}

	st := t.state(entry.CaseID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := t.load(ctx, entry.CaseID, st); err != nil {
		return "", err
	}

	if entry.Supersedes != "" {
		prior, err := t.storage.Get(ctx, entry.Supersedes)
		if err != nil {
			return "", NewRecordError(entry.CaseID, fmt.Errorf("superseded entry %s: %w", entry.Supersedes, err))
		}
		if prior.CaseID != entry.CaseID {
			return "", NewRecordError(entry.CaseID, fmt.Errorf("superseded entry %s belongs to case %s", entry.Supersedes, prior.CaseID))
		}
	}

	if entry.ReviewOf != "" {
		decision, err := t.storage.Get(ctx, entry.ReviewOf)
		if err != nil {
			return "", NewRecordError(entry.CaseID, fmt.Errorf("reviewed entry %s: %w", entry.ReviewOf, err))
		}
		if decision.CaseID != entry.CaseID || decision.Kind != KindDecision {
			return "", NewRecordError(entry.CaseID, fmt.Errorf("entry %s is not a decision of case %s", entry.ReviewOf, entry.CaseID))
		}
	}

	if entry.Kind == KindDecision && entry.SnapshotHash != "" {
		if ref, ok := st.snapshots[entry.SnapshotID]; ok && ref.hash != entry.SnapshotHash {
			return "", &SnapshotConflictError{CaseID: entry.CaseID, SnapshotID: entry.SnapshotID, EntryID: ref.entryID}
		}
	}

	// Microsecond precision survives every backend; ties and clock steps
	// backwards are pushed just past the previous entry.
	ts := t.clock().UTC().Truncate(time.Microsecond)
	if !st.last.IsZero() && !ts.After(st.last) {
		ts = st.last.Add(time.Microsecond)
	}

	entry.ID = uuid.New().String()
	entry.Sequence = st.sequence + 1
	entry.Timestamp = ts
	entry.PrevHash = st.lastHash
	entry.ContentHash = ""

	hash, err := HashEntry(entry)
	if err != nil {
		return "", NewRecordError(entry.CaseID, err)
	}
	entry.ContentHash = hash

	if err := t.storage.Append(ctx, entry); err != nil {
		// Another process may have written to this case; reload on next use.
		st.loaded = false
		return "", err
	}

	st.sequence = entry.Sequence
	st.last = entry.Timestamp
	st.lastHash = entry.ContentHash
	st.remember(entry)

	t.logger.Debug("audit entry recorded",
		"case_id", entry.CaseID,
		"entry_id", entry.ID,
		"sequence", entry.Sequence,
		"kind", entry.Kind,
	)
	return entry.ID, nil
}

// Correct appends a correction entry that supersedes an earlier entry of
// the same case.
func (t *Trail) Correct(ctx context.Context, caseID, supersedes, reviewer, notes string) (*Entry, error) {
	if notes == "" {
		return nil, NewRecordError(caseID, errors.New("correction notes are required"))
	}
	entry := &Entry{
		CaseID:     caseID,
		Kind:       KindCorrection,
		Assessor:   reviewer,
		Supersedes: supersedes,
		Notes:      notes,
	}
	if _, err := t.Record(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Review appends an officer's ruling on a decision entry. A request for
// more information (approved false) must say what is needed in notes.
func (t *Trail) Review(ctx context.Context, caseID, decisionID, reviewer string, approved bool, notes string) (*Entry, error) {
	if reviewer == "" {
		return nil, NewRecordError(caseID, errors.New("reviewer is required"))
	}
	if !approved && notes == "" {
		return nil, NewRecordError(caseID, errors.New("notes are required when requesting more information"))
	}
	entry := &Entry{
		CaseID:   caseID,
		Kind:     KindReview,
		Assessor: reviewer,
		ReviewOf: decisionID,
		Approved: &approved,
		Notes:    notes,
	}
	if _, err := t.Record(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Read returns every entry for a case in insertion order.
func (t *Trail) Read(ctx context.Context, caseID string) ([]*Entry, error) {
	return t.storage.Read(ctx, caseID)
}

// Verify checks the ordering and hash chain of a case's entries.
func (t *Trail) Verify(ctx context.Context, caseID string) error {
	entries, err := t.storage.Read(ctx, caseID)
	if err != nil {
		return err
	}
	return VerifyChain(caseID, entries)
}

func (t *Trail) state(caseID string) *caseState {
	if st, ok := t.cases.Load(caseID); ok {
		return st.(*caseState)
	}
	st, _ := t.cases.LoadOrStore(caseID, &caseState{})
	return st.(*caseState)
}

// load initializes the case state from the stored chain. Caller holds st.mu.
func (t *Trail) load(ctx context.Context, caseID string, st *caseState) error {
	if st.loaded {
		return nil
	}
	entries, err := t.storage.Read(ctx, caseID)
	if err != nil {
		return err
	}
	st.sequence, st.last, st.lastHash = 0, time.Time{}, ""
	st.snapshots = make(map[string]snapshotRef)
	for _, e := range entries {
		st.remember(e)
	}
	if n := len(entries); n > 0 {
		last := entries[n-1]
		st.sequence = last.Sequence
		st.last = last.Timestamp
		st.lastHash = last.ContentHash
	}
	st.loaded = true
	return nil
}
