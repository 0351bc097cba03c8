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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/importagent/core"
)

// DefaultChunkSize is the read buffer size used when none is configured.
const DefaultChunkSize = 64*1024 - 1

// LineHandler processes one batch of complete lines. Stream does not read
// the next chunk until it returns.
type LineHandler func(ctx context.Context, batch LineBatch) error

// RecordHandler processes one batch of normalized records.
type RecordHandler func(ctx context.Context, records []core.NormalizedRecord) error

// StreamOptions controls how Stream reads its source.
type StreamOptions struct {
	ChunkSize int       // bytes per read, DefaultChunkSize if < 1
	HasHeader bool      // drop the first line of the stream
	OnChunk   func(int) // called with the size of every chunk read
}

// Stream reads r chunk by chunk and hands complete lines to handle.
// Exactly one batch is in flight: the next Read happens only after handle
// has returned. A read error aborts the stream with ErrStreamInterrupted.
// A handler error is returned unchanged.
func Stream(ctx context.Context, r io.Reader, opts StreamOptions, handle LineHandler) error {
	chunkSize := opts.ChunkSize
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}

	buf := make([]byte, chunkSize)
	reassembler := NewReassembler(opts.HasHeader)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if opts.OnChunk != nil {
				opts.OnChunk(n)
			}
			batch, err := reassembler.Feed(buf[:n])
			if err != nil {
				return err
			}
			if len(batch) > 0 {
				if err := handle(ctx, batch); err != nil {
					return err
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: %w", ErrStreamInterrupted, readErr)
		}
	}

	last, err := reassembler.Finish()
	if err != nil {
		return err
	}
	if len(last) > 0 {
		return handle(ctx, last)
	}
	return nil
}

// Summary reports what one Run consumed and produced.
type Summary struct {
	Chunks  int
	Bytes   int64
	Lines   int
	Records int
}

// Pipeline chains Stream, a RecordNormalizer and a RecordHandler.
type Pipeline struct {
	normalizer RecordNormalizer
	chunkSize  int
	hasHeader  bool
	onChunk    func(int)
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunkSize sets the read buffer size.
// Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		p.chunkSize = size
		return nil
	}
}

// WithHeader sets whether the source starts with a header line.
// Default is true.
func WithHeader(hasHeader bool) Option {
	return func(p *Pipeline) error {
		p.hasHeader = hasHeader
		return nil
	}
}

// WithChunkObserver registers a callback invoked with the size of every chunk read.
func WithChunkObserver(fn func(int)) Option {
	return func(p *Pipeline) error {
		p.onChunk = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(normalizer RecordNormalizer, opts ...Option) (*Pipeline, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}

	p := &Pipeline{
		normalizer: normalizer,
		chunkSize:  DefaultChunkSize,
		hasHeader:  true,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Run streams r through the normalizer into handle. Any error stops the run
// immediately; nothing is read after a failed batch.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, handle RecordHandler) (Summary, error) {
	var summary Summary
	if handle == nil {
		return summary, ErrHandlerRequired
	}

	opts := StreamOptions{
		ChunkSize: p.chunkSize,
		HasHeader: p.hasHeader,
		OnChunk: func(n int) {
			summary.Chunks++
			summary.Bytes += int64(n)
			if p.onChunk != nil {
				p.onChunk(n)
			}
		},
	}

	err := Stream(ctx, r, opts, func(ctx context.Context, batch LineBatch) error {
		summary.Lines += len(batch)
		p.logger.Debug("normalizing batch", "lines", len(batch))

		records, err := p.normalizer.Normalize(batch)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		if err := handle(ctx, records); err != nil {
			return err
		}
		summary.Records += len(records)
		return nil
	})
	return summary, err
}
