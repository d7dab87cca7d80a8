package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/disposition"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// newEntry builds a stored-form entry at the given case position.
func newEntry(caseID string, seq int64, kind disposition.Kind, band risk.Band) *audit.Entry {
	score := &risk.Score{Total: 3, Band: band}
	return &audit.Entry{
		ID:        fmt.Sprintf("%s-%d", caseID, seq),
		CaseID:    caseID,
		Sequence:  seq,
		Kind:      audit.KindDecision,
		Timestamp: baseTime.Add(time.Duration(seq) * time.Minute),
		Assessor:  "officer-" + caseID,
		Score:     score,
		Disposition: &detention.Disposition{
			Kind: kind,
			Band: band,
		},
	}
}

type backend struct {
	name string
	open func(t *testing.T) audit.Storage
}

func backends() []backend {
	sqlBackend := func(driver string) func(t *testing.T) audit.Storage {
		return func(t *testing.T) audit.Storage {
			t.Helper()
			s, err := NewSQLStorage(&SQLConfig{
				Driver:       driver,
				Path:         filepath.Join(t.TempDir(), "audit.db"),
				MaxOpenConns: 5,
				MaxIdleConns: 2,
				WALMode:      true,
				BusyTimeout:  5 * time.Second,
			})
			if err != nil {
				t.Fatalf("NewSQLStorage(%s) failed: %v", driver, err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		}
	}
	return []backend{
		{name: "memory", open: func(t *testing.T) audit.Storage { return NewMemoryStorage() }},
		{name: DriverSQLite3, open: sqlBackend(DriverSQLite3)},
		{name: DriverSQLite, open: sqlBackend(DriverSQLite)},
	}
}

func TestStorage_AppendAndRead(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()

			for seq := int64(1); seq <= 3; seq++ {
				if err := s.Append(ctx, newEntry("case-1", seq, disposition.Release, risk.BandLow)); err != nil {
					t.Fatalf("Append(%d) failed: %v", seq, err)
				}
			}
			if err := s.Append(ctx, newEntry("case-2", 1, disposition.DetentionRecommended, risk.BandHigh)); err != nil {
				t.Fatalf("Append(case-2) failed: %v", err)
			}

			entries, err := s.Read(ctx, "case-1")
			if err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			if len(entries) != 3 {
				t.Fatalf("Read() returned %d entries, want 3", len(entries))
			}
			for i, e := range entries {
				if e.Sequence != int64(i+1) {
					t.Errorf("entries[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
				}
				if !e.Timestamp.Equal(baseTime.Add(time.Duration(i+1) * time.Minute)) {
					t.Errorf("entries[%d].Timestamp = %v", i, e.Timestamp)
				}
			}

			last, err := s.Last(ctx, "case-1")
			if err != nil {
				t.Fatalf("Last() failed: %v", err)
			}
			if last == nil || last.Sequence != 3 {
				t.Fatalf("Last() = %+v, want sequence 3", last)
			}

			none, err := s.Last(ctx, "unknown")
			if err != nil || none != nil {
				t.Errorf("Last(unknown) = %v, %v; want nil, nil", none, err)
			}

			empty, err := s.Read(ctx, "unknown")
			if err != nil || len(empty) != 0 {
				t.Errorf("Read(unknown) = %d entries, %v", len(empty), err)
			}
		})
	}
}

func TestStorage_AppendConflict(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()

			if err := s.Append(ctx, newEntry("case-1", 1, disposition.Release, risk.BandLow)); err != nil {
				t.Fatalf("Append() failed: %v", err)
			}

			dup := newEntry("case-1", 1, disposition.Release, risk.BandLow)
			dup.ID = "other-id"
			if err := s.Append(ctx, dup); !errors.Is(err, audit.ErrConflict) {
				t.Errorf("duplicate sequence: error = %v, want ErrConflict", err)
			}

			gap := newEntry("case-1", 5, disposition.Release, risk.BandLow)
			if err := s.Append(ctx, gap); !errors.Is(err, audit.ErrConflict) {
				t.Errorf("sequence gap: error = %v, want ErrConflict", err)
			}

			sameID := newEntry("case-1", 2, disposition.Release, risk.BandLow)
			sameID.ID = "case-1-1"
			if err := s.Append(ctx, sameID); !errors.Is(err, audit.ErrConflict) {
				t.Errorf("duplicate id: error = %v, want ErrConflict", err)
			}

			entries, _ := s.Read(ctx, "case-1")
			if len(entries) != 1 {
				t.Errorf("rejected appends changed the trail: %d entries", len(entries))
			}
		})
	}
}

func TestStorage_Get(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()

			if err := s.Append(ctx, newEntry("case-1", 1, disposition.Release, risk.BandLow)); err != nil {
				t.Fatalf("Append() failed: %v", err)
			}

			got, err := s.Get(ctx, "case-1-1")
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if got.DispositionKind() != string(disposition.Release) {
				t.Errorf("DispositionKind() = %q", got.DispositionKind())
			}

			if _, err := s.Get(ctx, "missing"); !errors.Is(err, audit.ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStorage_ReturnedEntriesAreCopies(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()

			e := newEntry("case-1", 1, disposition.Release, risk.BandLow)
			if err := s.Append(ctx, e); err != nil {
				t.Fatalf("Append() failed: %v", err)
			}
			e.Assessor = "mutated after append"

			first, _ := s.Get(ctx, "case-1-1")
			first.Score.Total = 99

			second, _ := s.Get(ctx, "case-1-1")
			if second.Assessor != "officer-case-1" {
				t.Errorf("Assessor = %q, stored entry was mutated", second.Assessor)
			}
			if second.Score.Total != 3 {
				t.Errorf("Score.Total = %d, stored entry was mutated", second.Score.Total)
			}
		})
	}
}

func TestStorage_QueryFilters(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()

			mustAppend := func(e *audit.Entry) {
				t.Helper()
				if err := s.Append(ctx, e); err != nil {
					t.Fatalf("Append() failed: %v", err)
				}
			}
			mustAppend(newEntry("case-a", 1, disposition.Release, risk.BandLow))
			mustAppend(newEntry("case-a", 2, disposition.ReleaseWithConditions, risk.BandLowModerate))
			mustAppend(newEntry("case-b", 1, disposition.DetentionRecommended, risk.BandHigh))
			mustAppend(newEntry("case-c", 1, disposition.Release, risk.BandLow))

			start := baseTime.Add(2 * time.Minute)
			tests := []struct {
				name  string
				query audit.Query
				want  int
			}{
				{"all", audit.Query{}, 4},
				{"by case", audit.Query{CaseID: "case-a"}, 2},
				{"by disposition", audit.Query{Disposition: string(disposition.Release)}, 2},
				{"by band", audit.Query{Band: string(risk.BandHigh)}, 1},
				{"by assessor", audit.Query{Assessor: "officer-case-b"}, 1},
				{"by kind", audit.Query{Kind: audit.KindCorrection}, 0},
				{"from time", audit.Query{StartTime: &start}, 1},
				{"limit", audit.Query{Limit: 3}, 3},
				{"offset", audit.Query{Offset: 3}, 1},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					q := tt.query
					results, err := s.Query(ctx, &q)
					if err != nil {
						t.Fatalf("Query() failed: %v", err)
					}
					if len(results) != tt.want {
						t.Errorf("Query() returned %d entries, want %d", len(results), tt.want)
					}

					count, err := s.Count(ctx, &audit.Query{
						CaseID:      q.CaseID,
						Kind:        q.Kind,
						Assessor:    q.Assessor,
						Disposition: q.Disposition,
						Band:        q.Band,
						StartTime:   q.StartTime,
					})
					if err != nil {
						t.Fatalf("Count() failed: %v", err)
					}
					if q.Limit == 0 && q.Offset == 0 && count != int64(tt.want) {
						t.Errorf("Count() = %d, want %d", count, tt.want)
					}
				})
			}
		})
	}
}

func TestStorage_QuerySortOrder(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()

			for seq := int64(1); seq <= 3; seq++ {
				if err := s.Append(ctx, newEntry("case-1", seq, disposition.Release, risk.BandLow)); err != nil {
					t.Fatalf("Append() failed: %v", err)
				}
			}

			asc, err := s.Query(ctx, &audit.Query{SortOrder: "asc"})
			if err != nil {
				t.Fatalf("Query(asc) failed: %v", err)
			}
			desc, err := s.Query(ctx, &audit.Query{SortOrder: "desc"})
			if err != nil {
				t.Fatalf("Query(desc) failed: %v", err)
			}
			if len(asc) != 3 || len(desc) != 3 {
				t.Fatalf("got %d asc and %d desc entries", len(asc), len(desc))
			}
			if asc[0].Sequence != 1 || desc[0].Sequence != 3 {
				t.Errorf("asc[0]=%d desc[0]=%d, want 1 and 3", asc[0].Sequence, desc[0].Sequence)
			}
		})
	}
}

func TestStorage_NilQueryMatchesAll(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()
			for seq := int64(1); seq <= 2; seq++ {
				if err := s.Append(ctx, newEntry("case-nil", seq, disposition.Release, risk.BandLow)); err != nil {
					t.Fatal(err)
				}
			}

			got, err := s.Query(ctx, nil)
			if err != nil {
				t.Fatalf("Query(nil) error = %v", err)
			}
			if len(got) != 2 {
				t.Errorf("Query(nil) returned %d entries, want 2", len(got))
			}

			n, err := s.Count(ctx, nil)
			if err != nil || n != 2 {
				t.Errorf("Count(nil) = %d, %v; want 2", n, err)
			}

			entries, errs, err := s.QueryStream(ctx, nil)
			if err != nil {
				t.Fatalf("QueryStream(nil) error = %v", err)
			}
			streamed := 0
			for range entries {
				streamed++
			}
			if err := <-errs; err != nil {
				t.Errorf("QueryStream(nil) stream error = %v", err)
			}
			if streamed != 2 {
				t.Errorf("QueryStream(nil) sent %d entries, want 2", streamed)
			}
		})
	}
}

func TestStorage_QueryStream(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()

			for seq := int64(1); seq <= 150; seq++ {
				if err := s.Append(ctx, newEntry("case-1", seq, disposition.Release, risk.BandLow)); err != nil {
					t.Fatalf("Append() failed: %v", err)
				}
			}

			entriesCh, errCh, err := s.QueryStream(ctx, &audit.Query{CaseID: "case-1"})
			if err != nil {
				t.Fatalf("QueryStream() failed: %v", err)
			}

			var got int64
			for e := range entriesCh {
				got++
				if e.Sequence != got {
					t.Fatalf("stream out of order: got sequence %d at position %d", e.Sequence, got)
				}
			}
			if err := <-errCh; err != nil {
				t.Fatalf("stream error: %v", err)
			}
			if got != 150 {
				t.Errorf("streamed %d entries, want 150", got)
			}
		})
	}
}

func TestStorage_QueryStreamCancel(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)

			for seq := int64(1); seq <= 300; seq++ {
				if err := s.Append(context.Background(), newEntry("case-1", seq, disposition.Release, risk.BandLow)); err != nil {
					t.Fatalf("Append() failed: %v", err)
				}
			}

			ctx, cancel := context.WithCancel(context.Background())
			entriesCh, errCh, err := s.QueryStream(ctx, &audit.Query{})
			if err != nil {
				t.Fatalf("QueryStream() failed: %v", err)
			}

			<-entriesCh
			cancel()
			for range entriesCh {
			}
			if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("stream error = %v, want nil or context.Canceled", err)
			}
		})
	}
}

func TestMemoryStorage_ConcurrentReadsSeePrefix(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for seq := int64(1); seq <= 500; seq++ {
			if err := s.Append(ctx, newEntry("case-1", seq, disposition.Release, risk.BandLow)); err != nil {
				t.Errorf("Append() failed: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				entries, err := s.Read(ctx, "case-1")
				if err != nil {
					t.Errorf("Read() failed: %v", err)
					return
				}
				for k, e := range entries {
					if e.Sequence != int64(k+1) {
						t.Errorf("Read() saw sequence %d at index %d", e.Sequence, k)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
	if s.Size() != 500 {
		t.Errorf("Size() = %d, want 500", s.Size())
	}
}

func TestMemoryStorage_Closed(t *testing.T) {
	s := NewMemoryStorage()
	s.Close()

	err := s.Append(context.Background(), newEntry("case-1", 1, disposition.Release, risk.BandLow))
	if !errors.Is(err, audit.ErrClosed) {
		t.Errorf("Append() after Close error = %v, want ErrClosed", err)
	}
	if _, err := s.Read(context.Background(), "case-1"); !errors.Is(err, audit.ErrClosed) {
		t.Errorf("Read() after Close error = %v, want ErrClosed", err)
	}
}

func TestSQLStorage_RejectsUpdateAndDelete(t *testing.T) {
	for _, driver := range []string{DriverSQLite3, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			s, err := NewSQLStorage(&SQLConfig{
				Driver:      driver,
				Path:        filepath.Join(t.TempDir(), "audit.db"),
				WALMode:     true,
				BusyTimeout: time.Second,
			})
			if err != nil {
				t.Fatalf("NewSQLStorage() failed: %v", err)
			}
			defer s.Close()

			ctx := context.Background()
			if err := s.Append(ctx, newEntry("case-1", 1, disposition.Release, risk.BandLow)); err != nil {
				t.Fatalf("Append() failed: %v", err)
			}

			if _, err := s.db.ExecContext(ctx, "UPDATE audit_entries SET assessor = 'x'"); err == nil {
				t.Error("UPDATE succeeded on append-only table")
			}
			if _, err := s.db.ExecContext(ctx, "DELETE FROM audit_entries"); err == nil {
				t.Error("DELETE succeeded on append-only table")
			}

			entries, err := s.Read(ctx, "case-1")
			if err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			if len(entries) != 1 || entries[0].Assessor != "officer-case-1" {
				t.Errorf("entries changed: %+v", entries)
			}
		})
	}
}

func TestSQLStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	cfg := &SQLConfig{Driver: DriverSQLite3, Path: path, WALMode: true, BusyTimeout: time.Second}

	s, err := NewSQLStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLStorage() failed: %v", err)
	}
	if err := s.Append(context.Background(), newEntry("case-1", 1, disposition.Release, risk.BandLow)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	s.Close()

	reopened, err := NewSQLStorage(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	last, err := reopened.Last(context.Background(), "case-1")
	if err != nil || last == nil || last.Sequence != 1 {
		t.Fatalf("Last() after reopen = %+v, %v", last, err)
	}
}

func TestSQLConfig_DataSourceName(t *testing.T) {
	tests := []struct {
		name    string
		config  SQLConfig
		wantErr bool
	}{
		{"sqlite3", SQLConfig{Driver: DriverSQLite3, Path: "a.db"}, false},
		{"sqlite", SQLConfig{Driver: DriverSQLite, Path: "a.db"}, false},
		{"postgres", SQLConfig{Driver: DriverPostgres, DSN: "postgres://localhost/audit"}, false},
		{"sqlite without path", SQLConfig{Driver: DriverSQLite3}, true},
		{"postgres without dsn", SQLConfig{Driver: DriverPostgres}, true},
		{"unknown driver", SQLConfig{Driver: "mysql", Path: "a.db"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.config.dataSourceName()
			if (err != nil) != tt.wantErr {
				t.Errorf("dataSourceName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
