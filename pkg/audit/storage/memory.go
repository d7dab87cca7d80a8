package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
)

// memoryRecord is one stored entry. The payload is the canonical JSON
// encoding; readers always receive a freshly decoded copy. The meta field
// holds the indexed columns for filtering and is never handed out.
type memoryRecord struct {
	meta    audit.Entry
	payload []byte
}

// memoryCase holds one case's entries. The slice behind the pointer only
// grows: writers append past the published length and then publish a new
// header, so readers see a consistent prefix without locking.
type memoryCase struct {
	entries atomic.Pointer[[]*memoryRecord]
}

// MemoryStorage implements audit.Storage in process memory.
// Reads are lock-free; appends are serialized by a single writer lock.
type MemoryStorage struct {
	mu     sync.Mutex // serializes writers
	all    atomic.Pointer[[]*memoryRecord]
	cases  sync.Map // map[caseID]*memoryCase
	ids    sync.Map // map[entryID]*memoryRecord
	closed atomic.Bool
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	s := &MemoryStorage{}
	empty := make([]*memoryRecord, 0, 64)
	s.all.Store(&empty)
	return s
}

// Append persists an entry. The case's next sequence must be exactly one
// past the last stored entry.
func (s *MemoryStorage) Append(ctx context.Context, entry *audit.Entry) error {
	if s.closed.Load() {
		return audit.NewStorageError("memory", "append", audit.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return audit.NewStorageError("memory", "append", err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return audit.NewStorageError("memory", "append", err)
	}
	rec := &memoryRecord{payload: payload}
	if err := json.Unmarshal(payload, &rec.meta); err != nil {
		return audit.NewStorageError("memory", "append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids.Load(entry.ID); exists {
		return audit.NewStorageError("memory", "append", fmt.Errorf("%w: duplicate id %s", audit.ErrConflict, entry.ID))
	}

	c := s.caseFor(entry.CaseID)
	entries := *c.entries.Load()
	if want := int64(len(entries)) + 1; entry.Sequence != want {
		return audit.NewStorageError("memory", "append",
			fmt.Errorf("%w: case %s expects sequence %d, got %d", audit.ErrConflict, entry.CaseID, want, entry.Sequence))
	}

	entries = append(entries, rec)
	c.entries.Store(&entries)

	all := append(*s.all.Load(), rec)
	s.all.Store(&all)

	s.ids.Store(entry.ID, rec)
	return nil
}

// Read returns every entry for a case in sequence order.
func (s *MemoryStorage) Read(ctx context.Context, caseID string) ([]*audit.Entry, error) {
	if s.closed.Load() {
		return nil, audit.NewStorageError("memory", "read", audit.ErrClosed)
	}
	v, ok := s.cases.Load(caseID)
	if !ok {
		return []*audit.Entry{}, nil
	}
	records := *v.(*memoryCase).entries.Load()

	results := make([]*audit.Entry, 0, len(records))
	for _, rec := range records {
		e, err := rec.decode()
		if err != nil {
			return nil, audit.NewStorageError("memory", "read", err)
		}
		results = append(results, e)
	}
	return results, nil
}

// Last returns the most recent entry for a case, or nil if none.
func (s *MemoryStorage) Last(ctx context.Context, caseID string) (*audit.Entry, error) {
	if s.closed.Load() {
		return nil, audit.NewStorageError("memory", "last", audit.ErrClosed)
	}
	v, ok := s.cases.Load(caseID)
	if !ok {
		return nil, nil
	}
	records := *v.(*memoryCase).entries.Load()
	if len(records) == 0 {
		return nil, nil
	}
	e, err := records[len(records)-1].decode()
	if err != nil {
		return nil, audit.NewStorageError("memory", "last", err)
	}
	return e, nil
}

// Get returns the entry with the given id.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*audit.Entry, error) {
	if s.closed.Load() {
		return nil, audit.NewStorageError("memory", "get", audit.ErrClosed)
	}
	v, ok := s.ids.Load(id)
	if !ok {
		return nil, audit.ErrNotFound
	}
	e, err := v.(*memoryRecord).decode()
	if err != nil {
		return nil, audit.NewStorageError("memory", "get", err)
	}
	return e, nil
}

// Query retrieves entries matching the query filters. A nil query matches
// every entry.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Entry, error) {
	if s.closed.Load() {
		return nil, audit.NewStorageError("memory", "query", audit.ErrClosed)
	}
	if query == nil {
		query = &audit.Query{}
	}

	matched := s.filter(query)

	start := query.Offset
	if start > len(matched) {
		return []*audit.Entry{}, nil
	}
	end := len(matched)
	if query.Limit > 0 && start+query.Limit < end {
		end = start + query.Limit
	}

	results := make([]*audit.Entry, 0, end-start)
	for _, rec := range matched[start:end] {
		e, err := rec.decode()
		if err != nil {
			return nil, audit.NewStorageError("memory", "query", err)
		}
		results = append(results, e)
	}
	return results, nil
}

// QueryStream returns a channel of entries for memory-efficient streaming.
// The channels will be closed when the query completes or errors.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *audit.Query) (<-chan *audit.Entry, <-chan error, error) {
	if s.closed.Load() {
		return nil, nil, audit.NewStorageError("memory", "query_stream", audit.ErrClosed)
	}
	if query == nil {
		query = &audit.Query{}
	}

	entriesCh := make(chan *audit.Entry, 100) // Buffer 100 entries
	errCh := make(chan error, 1)

	matched := s.filter(query)

	go func() {
		defer close(entriesCh)
		defer close(errCh)

		sent := 0
		for i, rec := range matched {
			if i < query.Offset {
				continue
			}
			if query.Limit > 0 && sent >= query.Limit {
				return
			}

			e, err := rec.decode()
			if err != nil {
				errCh <- audit.NewStorageError("memory", "query_stream", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case entriesCh <- e:
				sent++
			}
		}
	}()

	return entriesCh, errCh, nil
}

// Count returns the number of entries matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	if s.closed.Load() {
		return 0, audit.NewStorageError("memory", "count", audit.ErrClosed)
	}
	return int64(len(s.filter(query))), nil
}

// Close marks the storage closed. Stored entries stay readable by
// callers that already hold them.
func (s *MemoryStorage) Close() error {
	s.closed.Store(true)
	return nil
}

// Size returns the number of stored entries (for testing).
func (s *MemoryStorage) Size() int {
	return len(*s.all.Load())
}

func (s *MemoryStorage) caseFor(caseID string) *memoryCase {
	if v, ok := s.cases.Load(caseID); ok {
		return v.(*memoryCase)
	}
	c := &memoryCase{}
	empty := make([]*memoryRecord, 0, 8)
	c.entries.Store(&empty)
	v, _ := s.cases.LoadOrStore(caseID, c)
	return v.(*memoryCase)
}

// filter returns matching records in insertion order, reversed for "desc".
func (s *MemoryStorage) filter(query *audit.Query) []*memoryRecord {
	var source []*memoryRecord
	if query != nil && query.CaseID != "" {
		v, ok := s.cases.Load(query.CaseID)
		if !ok {
			return nil
		}
		source = *v.(*memoryCase).entries.Load()
	} else {
		source = *s.all.Load()
	}

	var matched []*memoryRecord
	for _, rec := range source {
		if query.Matches(&rec.meta) {
			matched = append(matched, rec)
		}
	}

	if query != nil && query.SortOrder == "desc" {
		slices.Reverse(matched)
	}
	return matched
}

func (r *memoryRecord) decode() (*audit.Entry, error) {
	var e audit.Entry
	if err := json.Unmarshal(r.payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
