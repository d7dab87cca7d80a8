package catalog

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// ReloadEvent reports the outcome of one load or reload.
type ReloadEvent struct {
	Version         string
	PreviousVersion string
	Programs        int
	Alternatives    int
	Duration        time.Duration
	Err             error
}

// ManagerConfig configures a catalog Manager.
type ManagerConfig struct {
	// Path is the catalog file or directory.
	Path string

	// DebounceInterval is passed to the file watcher.
	DebounceInterval time.Duration
}

// Manager owns the current catalog. Readers get the active snapshot
// through Current without locking; Load and Reload swap in a new one only
// after it validates, so a bad file never replaces a good catalog.
type Manager struct {
	config ManagerConfig
	logger *slog.Logger

	current atomic.Pointer[Catalog]

	loadMu    sync.Mutex // serializes loads
	lastLoad  time.Time
	lastError error

	observersMu sync.RWMutex
	observers   []func(ReloadEvent)

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// NewManager creates a catalog manager. Call Load before Current.
func NewManager(config ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config: config,
		logger: logger.With("component", "catalog.manager"),
	}
}

// OnReload registers an observer called after every load attempt.
func (m *Manager) OnReload(fn func(ReloadEvent)) {
	m.observersMu.Lock()
	defer m.observersMu.Unlock()
	m.observers = append(m.observers, fn)
}

// Load reads the catalog and makes it current.
func (m *Manager) Load() error {
	return m.load("load")
}

// Reload rereads the catalog. On failure the previous catalog stays
// current and the error is returned.
func (m *Manager) Reload() error {
	return m.load("reload")
}

func (m *Manager) load(op string) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	start := time.Now()
	previous := m.current.Load()

	event := ReloadEvent{}
	if previous != nil {
		event.PreviousVersion = previous.Version
	}

	next, err := LoadFile(m.config.Path)
	event.Duration = time.Since(start)

	if err != nil {
		m.lastError = err
		event.Err = err
		if previous != nil {
			m.logger.Error("catalog "+op+" failed, keeping previous catalog",
				"path", m.config.Path,
				"version", previous.Version,
				"error", err,
			)
		} else {
			m.logger.Error("catalog "+op+" failed",
				"path", m.config.Path,
				"error", err,
			)
		}
		m.notify(event)
		return err
	}

	m.current.Store(next)
	m.lastLoad = time.Now()
	m.lastError = nil

	event.Version = next.Version
	event.Programs = len(next.Programs)
	event.Alternatives = len(next.Alternatives)

	m.logger.Info("catalog "+op+"ed",
		"path", m.config.Path,
		"version", next.Version,
		"previous_version", event.PreviousVersion,
		"programs", len(next.Programs),
		"alternatives", len(next.Alternatives),
		"duration_ms", event.Duration.Milliseconds(),
	)

	m.notify(event)
	return nil
}

func (m *Manager) notify(event ReloadEvent) {
	m.observersMu.RLock()
	observers := slices.Clone(m.observers)
	m.observersMu.RUnlock()

	for _, fn := range observers {
		fn(event)
	}
}

// Current returns the active catalog, or nil before the first
// successful load.
func (m *Manager) Current() *Catalog {
	return m.current.Load()
}

// Snapshot returns the active catalog or ErrNotLoaded.
func (m *Manager) Snapshot() (*Catalog, error) {
	c := m.current.Load()
	if c == nil {
		return nil, ErrNotLoaded
	}
	return c, nil
}

// LastLoadTime returns the time of the last successful load.
func (m *Manager) LastLoadTime() time.Time {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	return m.lastLoad
}

// LastLoadError returns the error of the last load attempt, if any.
func (m *Manager) LastLoadError() error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	return m.lastError
}

// Watch reloads the catalog whenever its files change. It blocks until the
// context is cancelled or Close is called. Once it returns, for any reason,
// Watch may be called again.
func (m *Manager) Watch(ctx context.Context) error {
	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchMu.Unlock()
		return errors.New("watch already started")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel
	m.watchDone = make(chan struct{})
	done := m.watchDone
	m.watchMu.Unlock()
	defer close(done)
	defer m.endWatch(cancel)

	wcfg := DefaultFileWatcherConfig()
	wcfg.Path = m.config.Path
	if m.config.DebounceInterval > 0 {
		wcfg.DebounceInterval = m.config.DebounceInterval
	}

	watcher, err := NewFileWatcher(wcfg, m.logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Watch(watchCtx, func() {
			_ = m.Reload()
		})
	}()

	var watchErr error
	select {
	case <-watchCtx.Done():
	case watchErr = <-errCh:
	}

	if err := watcher.Stop(); err != nil {
		m.logger.Error("failed to stop catalog watcher", "error", err)
		if watchErr == nil {
			watchErr = err
		}
	}
	return watchErr
}

// endWatch releases the watch slot taken by Watch.
func (m *Manager) endWatch(cancel context.CancelFunc) {
	cancel()
	m.watchMu.Lock()
	m.watchCancel = nil
	m.watchDone = nil
	m.watchMu.Unlock()
}

// Close stops any active watch.
func (m *Manager) Close() error {
	m.watchMu.Lock()
	cancel, done := m.watchCancel, m.watchDone
	m.watchMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
