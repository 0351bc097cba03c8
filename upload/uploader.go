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

package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/registry"
	"golang.org/x/time/rate"
)

// Config holds the paging parameters.
type Config struct {
	// PageSize is the number of records per page once the input is large.
	PageSize int
	// MaxWorkers is the number of lanes, and so the bound on concurrent page requests.
	MaxWorkers int
	// RateLimitRPS caps page requests per second across all lanes. 0 disables it.
	RateLimitRPS float64
}

// DefaultConfig returns the default paging parameters.
func DefaultConfig() Config {
	return Config{
		PageSize:   10000,
		MaxWorkers: 8,
	}
}

// Uploader sends records to a RecordSink in concurrent lanes.
type Uploader struct {
	sink    registry.RecordSink
	config  Config
	pool    *ants.Pool
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures an Uploader.
type Option func(*Uploader) error

// WithConfig replaces all paging parameters.
func WithConfig(config Config) Option {
	return func(u *Uploader) error {
		if config.PageSize < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidPageSize, config.PageSize)
		}
		if config.MaxWorkers < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidMaxWorkers, config.MaxWorkers)
		}
		u.config = config
		return nil
	}
}

// WithPageSize sets the page size.
// Default is 10000.
func WithPageSize(size int) Option {
	return func(u *Uploader) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
		}
		u.config.PageSize = size
		return nil
	}
}

// WithMaxWorkers sets the number of lanes.
// Default is 8.
func WithMaxWorkers(workers int) Option {
	return func(u *Uploader) error {
		if workers < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidMaxWorkers, workers)
		}
		u.config.MaxWorkers = workers
		return nil
	}
}

// WithRateLimit caps page requests per second across all lanes.
func WithRateLimit(rps float64) Option {
	return func(u *Uploader) error {
		u.config.RateLimitRPS = rps
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) error {
		if logger == nil {
			logger = slog.Default()
		}
		u.logger = logger
		return nil
	}
}

// NewUploader creates an Uploader. Release must be called when done.
func NewUploader(sink registry.RecordSink, opts ...Option) (*Uploader, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}

	u := &Uploader{
		sink:   sink,
		config: DefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(u); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(u.config.MaxWorkers)
	if err != nil {
		return nil, err
	}
	u.pool = pool

	if u.config.RateLimitRPS > 0 {
		u.limiter = rate.NewLimiter(rate.Limit(u.config.RateLimitRPS), 1)
	}

	return u, nil
}

// Config returns the effective paging parameters.
func (u *Uploader) Config() Config {
	return u.config
}

// Upload sends records to the sink for versionID and returns the merged
// stats of all lanes. On the first page failure no lane starts another page,
// pages already sent by other lanes run to completion under ctx and are
// awaited, and an error wrapping core.ErrUploadFailed is returned. Stats of a
// failed upload are discarded.
func (u *Uploader) Upload(ctx context.Context, versionID string, records []core.NormalizedRecord) (*core.ImportStats, error) {
	stats := core.NewImportStats()
	if len(records) == 0 {
		return stats, nil
	}

	lanes := Partition(len(records), u.config.PageSize, u.config.MaxWorkers)
	u.logger.Info("uploading records", "records", len(records), "lanes", len(lanes), "version", versionID)

	// stop only gates the start of a page; requests themselves run under ctx
	stop, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	laneStats := make([]*core.ImportStats, len(lanes))
	for i, spans := range lanes {
		if len(spans) == 0 {
			continue
		}
		laneStats[i] = core.NewImportStats()

		wg.Add(1)
		err := u.pool.Submit(func() {
			defer wg.Done()
			if err := u.runLane(ctx, stop, i, versionID, records, spans, laneStats[i]); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("%w: submitting lane %d: %w", core.ErrUploadFailed, i, err))
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUploadFailed, err)
	}

	for _, ls := range laneStats {
		stats.Merge(ls)
	}
	return stats, nil
}

// runLane sends the lane's pages in order, stopping before the next page
// once stop is canceled.
func (u *Uploader) runLane(ctx, stop context.Context, lane int, versionID string, records []core.NormalizedRecord, spans []Span, stats *core.ImportStats) error {
	for _, span := range spans {
		if stop.Err() != nil {
			return nil
		}
		if u.limiter != nil {
			if err := u.limiter.Wait(stop); err != nil {
				if stop.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: lane %d: %w", core.ErrUploadFailed, lane, err)
			}
		}

		start := time.Now()
		result, err := u.sink.UploadPage(ctx, versionID, records[span.Start:span.End])
		if err != nil {
			return fmt.Errorf("%w: lane %d, records %d-%d: %w", core.ErrUploadFailed, lane, span.Start, span.End, err)
		}
		stats.AddPage(result)

		u.logger.Info("imported page",
			"lane", lane,
			"records", span.Len(),
			"imported", result.Imported,
			"duplicate", result.Duplicate,
			"seconds", time.Since(start).Round(time.Second).Seconds())
		if result.Failed > 0 {
			u.logger.Debug("page had failed records", "lane", lane, "failed", result.Failed)
		}
	}
	return nil
}

// Release releases the worker pool.
// The uploader should not be used after calling Release.
func (u *Uploader) Release() {
	if u.pool != nil {
		u.pool.Release()
	}
}
