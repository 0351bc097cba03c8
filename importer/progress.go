// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package importer

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const mib = 1 << 20

// ProgressTracker reports how much of the source has been read.
type ProgressTracker struct {
	writer         io.Writer
	total          int64
	current        int64
	reportInterval int64
	lastReported   int64
	startTime      time.Time
	started        bool
	done           bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: size of the source in bytes
// reportInterval: report progress every N bytes
func NewProgressTracker(writer io.Writer, total, reportInterval int64) *ProgressTracker {
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
	p.done = false
	p.current = 0
	p.lastReported = 0
}

// Increment records n more bytes read.
func (p *ProgressTracker) Increment(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.done {
		return
	}

	p.current += int64(n)
	if p.current > p.total {
		p.current = p.total
	}

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish marks the read as complete and prints final progress.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.done {
		return
	}

	p.current = p.total
	p.end()
}

// Stop ends the progress line at the current position. It does nothing
// after Finish, so it can be deferred.
func (p *ProgressTracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.done {
		return
	}

	p.end()
}

// end prints the last report and terminates the line. Must be called with lock held.
func (p *ProgressTracker) end() {
	p.report()
	fmt.Fprintln(p.writer)
	p.done = true
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
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / mib / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rRead: %.1f/%.1f MiB (%.1f%%) - %.1f MiB/s",
		float64(p.current)/mib, float64(p.total)/mib, percentage, rate)
}
