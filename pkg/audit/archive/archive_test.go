package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/storage"
)

var now = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s audit.Storage, caseID string, ages ...time.Duration) {
	t.Helper()
	for i, age := range ages {
		e := &audit.Entry{
			ID:        fmt.Sprintf("%s-%d", caseID, i+1),
			CaseID:    caseID,
			Sequence:  int64(i + 1),
			Kind:      audit.KindDecision,
			Timestamp: now.Add(-age),
		}
		if err := s.Append(context.Background(), e); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}
}

func newTestArchiver(t *testing.T, s audit.Storage, dir string) *Archiver {
	t.Helper()
	a, err := NewArchiver(s, &Config{AfterDays: 30, Directory: dir, Format: "json"})
	if err != nil {
		t.Fatalf("NewArchiver() failed: %v", err)
	}
	a.clock = func() time.Time { return now }
	return a
}

func TestArchiver_Run(t *testing.T) {
	s := storage.NewMemoryStorage()
	seed(t, s, "case-1", 60*24*time.Hour, 45*24*time.Hour, 2*24*time.Hour)

	dir := t.TempDir()
	a := newTestArchiver(t, s, dir)

	result, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("archived %d entries, want 2", result.Count)
	}

	data, err := os.ReadFile(result.File)
	if err != nil {
		t.Fatalf("archive file missing: %v", err)
	}
	var archived []*audit.Entry
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("archive is not a JSON array: %v", err)
	}
	if len(archived) != 2 || archived[0].ID != "case-1-1" {
		t.Errorf("archived entries = %+v", archived)
	}

	// Archiving never removes entries.
	if s.Size() != 3 {
		t.Errorf("storage size = %d after archive, want 3", s.Size())
	}
}

func TestArchiver_WatermarkPreventsDuplicates(t *testing.T) {
	s := storage.NewMemoryStorage()
	seed(t, s, "case-1", 60*24*time.Hour)

	dir := t.TempDir()
	a := newTestArchiver(t, s, dir)

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}

	second, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}
	if second.Count != 0 || second.File != "" {
		t.Errorf("second run archived %d entries into %q, want nothing", second.Count, second.File)
	}

	// A new aged entry for another case is picked up by the next run.
	seed(t, s, "case-2", 40*24*time.Hour)
	a.clock = func() time.Time { return now.Add(time.Hour) }
	third, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("third Run() failed: %v", err)
	}
	if third.Count != 1 {
		t.Errorf("third run archived %d entries, want 1", third.Count)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "audit-archive-*.json"))
	if len(files) != 2 {
		t.Errorf("found %d archive files, want 2", len(files))
	}
}

func TestArchiver_Disabled(t *testing.T) {
	s := storage.NewMemoryStorage()
	seed(t, s, "case-1", 60*24*time.Hour)

	dir := filepath.Join(t.TempDir(), "archives")
	a, err := NewArchiver(s, &Config{AfterDays: 0, Directory: dir})
	if err != nil {
		t.Fatalf("NewArchiver() failed: %v", err)
	}

	result, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("disabled archiver archived %d entries", result.Count)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("disabled archiver created its directory")
	}
}

func TestArchiver_CSVFormat(t *testing.T) {
	s := storage.NewMemoryStorage()
	seed(t, s, "case-1", 60*24*time.Hour)

	a, err := NewArchiver(s, &Config{AfterDays: 30, Directory: t.TempDir(), Format: "csv"})
	if err != nil {
		t.Fatalf("NewArchiver() failed: %v", err)
	}
	a.clock = func() time.Time { return now }

	result, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if filepath.Ext(result.File) != ".csv" {
		t.Errorf("archive file = %q, want .csv", result.File)
	}
}

func TestNewArchiver_InvalidFormat(t *testing.T) {
	if _, err := NewArchiver(storage.NewMemoryStorage(), &Config{AfterDays: 1, Format: "pdf"}); err == nil {
		t.Error("NewArchiver() accepted an unknown format")
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{"valid daily schedule", "0 3 * * *", true, false},
		{"valid hourly schedule", "0 * * * *", true, false},
		{"empty schedule - no error, not running", "", false, false},
		{"invalid schedule", "invalid cron", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewArchiver(storage.NewMemoryStorage(), &Config{
				AfterDays: 30,
				Schedule:  tt.schedule,
				Directory: t.TempDir(),
			})
			if err != nil {
				t.Fatalf("NewArchiver() failed: %v", err)
			}

			scheduler := NewScheduler(a)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err = scheduler.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", scheduler.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning && scheduler.NextRun() == nil {
				t.Error("NextRun() = nil for a running scheduler")
			}

			scheduler.Stop()
			if scheduler.IsRunning() {
				t.Error("scheduler still running after Stop()")
			}
		})
	}
}

func TestScheduler_OnRun(t *testing.T) {
	a, err := NewArchiver(storage.NewMemoryStorage(), &Config{AfterDays: 1, Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("NewArchiver() failed: %v", err)
	}
	scheduler := NewScheduler(a)

	var calls int
	var got *Result
	scheduler.OnRun(func(result *Result, err error) {
		calls++
		got = result
		if err != nil {
			t.Errorf("run error = %v", err)
		}
	})

	scheduler.runArchive(context.Background())
	if calls != 1 {
		t.Fatalf("hook calls = %d, want 1", calls)
	}
	if got == nil || got.Count != 0 {
		t.Errorf("result = %+v, want empty run", got)
	}
}
