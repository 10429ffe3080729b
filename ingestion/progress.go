package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how far an ingestion run has progressed.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	done           int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker that writes a status line to writer
// every reportInterval records.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.done = 0
	p.failed = 0
	p.lastReported = 0
}

// Increment marks delta records as processed.
func (p *ProgressTracker) Increment(delta int) {
	p.advance(delta, 0)
}

// Fail marks one record as processed and failed.
func (p *ProgressTracker) Fail() {
	p.advance(1, 1)
}

func (p *ProgressTracker) advance(delta, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.done = min(p.done+delta, p.total)
	p.failed += failed

	if p.done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.done
	}
}

// Finish prints the final status line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	rate := float64(p.done) / time.Since(p.startTime).Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rIngested: %d/%d (%.1f%%), %d failed, %.1f products/s",
		p.done, p.total, percentage, p.failed, rate)
}
