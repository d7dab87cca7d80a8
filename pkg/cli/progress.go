package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress of a batch evaluation.
type ProgressReporter interface {
	Start(total int)
	Advance(failed bool)
	Finish()
}

// SimpleProgress renders a single-line text progress bar. It is safe for
// concurrent use.
type SimpleProgress struct {
	mu      sync.Mutex
	total   int
	done    int
	failed  int
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a progress reporter writing to w, or to
// stderr when w is nil.
func NewProgressReporter(w io.Writer) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w}
}

// Start resets the reporter for total cases.
func (p *SimpleProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.failed = 0
	p.started = time.Now()
	p.render()
}

// Advance records one finished case.
func (p *SimpleProgress) Advance(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if failed {
		p.failed++
	}
	p.render()
}

// Finish ends the progress line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.render()
	fmt.Fprintln(p.writer)
}

// Counts returns the finished and failed case counts.
func (p *SimpleProgress) Counts() (done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

func (p *SimpleProgress) render() {
	if p.total == 0 {
		return
	}

	done := min(p.done, p.total)
	barWidth := 30
	filled := barWidth * done / p.total
	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)

	rate := 0.0
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}
	fmt.Fprintf(p.writer, "\rEvaluated [%s] %d/%d (%d failed) %.1f cases/s",
		bar, done, p.total, p.failed, rate)
}
