package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/export"
)

// watermarkFile stores the timestamp of the newest archived entry.
const watermarkFile = ".watermark"

// Config contains configuration for the audit archiver.
type Config struct {
	// AfterDays archives entries older than this many days.
	// 0 disables archiving.
	AfterDays int

	// Schedule is a cron expression for scheduled runs.
	// Example: "0 3 * * *" (daily at 3 AM)
	Schedule string

	// Directory receives the archive files.
	Directory string

	// Format is json, csv or xlsx.
	Format string
}

// DefaultConfig returns the default archive configuration.
func DefaultConfig() *Config {
	return &Config{
		AfterDays: 30,
		Schedule:  "0 3 * * *",
		Directory: "data/archives/",
		Format:    "json",
	}
}

// Result describes one archive run.
type Result struct {
	File      string    `json:"file,omitempty"`
	Count     int       `json:"count"`
	Watermark time.Time `json:"watermark"`
}

// Archiver copies aged audit entries into timestamped files. It never
// removes entries from storage; a watermark file in the directory keeps
// successive runs from archiving the same entry twice.
type Archiver struct {
	storage  audit.Storage
	config   *Config
	exporter audit.Exporter
	clock    func() time.Time
	logger   *slog.Logger
}

// NewArchiver creates a new archiver.
func NewArchiver(storage audit.Storage, config *Config) (*Archiver, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Format == "" {
		config.Format = "json"
	}
	exporter, err := export.New(config.Format, false)
	if err != nil {
		return nil, audit.NewArchiveError(config.Directory, err)
	}
	return &Archiver{
		storage:  storage,
		config:   config,
		exporter: exporter,
		clock:    time.Now,
		logger:   slog.Default().With("component", "audit.archive"),
	}, nil
}

// Config returns the archiver configuration.
func (a *Archiver) Config() *Config {
	return a.config
}

// Run archives every entry recorded after the watermark and before the
// age cutoff. It writes nothing when there is nothing new to archive.
func (a *Archiver) Run(ctx context.Context) (*Result, error) {
	if a.config.AfterDays <= 0 {
		a.logger.Debug("archiving disabled (after_days = 0)")
		return &Result{}, nil
	}

	if err := os.MkdirAll(a.config.Directory, 0o755); err != nil {
		return nil, audit.NewArchiveError(a.config.Directory, err)
	}

	watermark, err := a.readWatermark()
	if err != nil {
		return nil, audit.NewArchiveError(a.config.Directory, err)
	}

	now := a.clock().UTC()
	cutoff := now.Add(-time.Duration(a.config.AfterDays) * 24 * time.Hour)
	if !watermark.IsZero() && !cutoff.After(watermark) {
		return &Result{Watermark: watermark}, nil
	}

	q := &audit.Query{EndTime: &cutoff, SortOrder: "asc"}
	if !watermark.IsZero() {
		start := watermark.Add(time.Nanosecond)
		q.StartTime = &start
	}

	entries, err := a.storage.Query(ctx, q)
	if err != nil {
		return nil, audit.NewArchiveError(a.config.Directory, err)
	}
	if len(entries) == 0 {
		a.logger.Debug("no audit entries to archive", "cutoff", cutoff)
		return &Result{Watermark: watermark}, nil
	}

	name := fmt.Sprintf("audit-archive-%s%s", now.Format("20060102T150405Z"), export.Extension(a.config.Format))
	path := filepath.Join(a.config.Directory, name)
	if err := a.writeFile(ctx, path, entries); err != nil {
		return nil, audit.NewArchiveError(a.config.Directory, err)
	}

	newest := watermark
	for _, e := range entries {
		if e.Timestamp.After(newest) {
			newest = e.Timestamp
		}
	}
	if err := a.writeWatermark(newest); err != nil {
		return nil, audit.NewArchiveError(a.config.Directory, err)
	}

	a.logger.Info("audit entries archived",
		"file", path,
		"count", len(entries),
		"watermark", newest,
	)

	return &Result{File: path, Count: len(entries), Watermark: newest}, nil
}

// writeFile exports entries to a temporary file and renames it into place.
func (a *Archiver) writeFile(ctx context.Context, path string, entries []*audit.Entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".archive-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := a.exporter.Export(ctx, entries, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (a *Archiver) readWatermark() (time.Time, error) {
	data, err := os.ReadFile(filepath.Join(a.config.Directory, watermarkFile))
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt watermark: %w", err)
	}
	return ts, nil
}

func (a *Archiver) writeWatermark(ts time.Time) error {
	path := filepath.Join(a.config.Directory, watermarkFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(ts.UTC().Format(time.RFC3339Nano)+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
