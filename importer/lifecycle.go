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
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/ingestion"
	"github.com/poiesic/importagent/registry"
	"github.com/poiesic/importagent/source"
	"github.com/poiesic/importagent/upload"
)

// statusTimeout bounds a status transition issued after the caller's
// context is already done.
const statusTimeout = 30 * time.Second

// AttemptConfig holds the collaborators of one Attempt.
type AttemptConfig struct {
	Registry    registry.VersionRegistry
	Source      source.Source
	Uploader    *upload.Uploader
	Engine      Engine
	DataSetName string

	// ChunkSize is the read buffer size. 0 means ingestion.DefaultChunkSize.
	ChunkSize int
	// NormalizerOptions are passed to the engine's normalizer.
	NormalizerOptions []ingestion.NormalizerOption
	// Progress receives read progress when set.
	Progress io.Writer
	Logger   *slog.Logger
}

// Attempt imports one fingerprint of one source. An Attempt is used once:
// its version goes from pending to active or failed and is never retried.
type Attempt struct {
	cfg    AttemptConfig
	logger *slog.Logger

	started bool
	skipped bool
	size    int64
	version core.DataVersion
	stream  io.ReadCloser
	stats   *core.ImportStats
	summary ingestion.Summary
}

// NewAttempt creates an Attempt.
func NewAttempt(cfg AttemptConfig) (*Attempt, error) {
	if cfg.Registry == nil {
		return nil, ErrRegistryRequired
	}
	if cfg.Source == nil {
		return nil, ErrSourceRequired
	}
	if cfg.Uploader == nil {
		return nil, ErrUploaderRequired
	}
	if cfg.DataSetName == "" {
		return nil, core.ErrEmptyDataSet
	}
	if cfg.Engine.NewNormalizer == nil {
		return nil, ingestion.ErrNormalizerRequired
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = ingestion.DefaultChunkSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Attempt{
		cfg:    cfg,
		logger: logger.With("engine", cfg.Engine.Name, "dataSet", cfg.DataSetName),
		stats:  core.NewImportStats(),
	}, nil
}

// Begin fingerprints the source and looks it up in the registry. When the
// fingerprint is already imported Begin reports skipped and creates nothing.
// Otherwise it opens the source stream and creates a pending version.
func (a *Attempt) Begin(ctx context.Context) (skipped bool, err error) {
	if a.started {
		return false, ErrAttemptStarted
	}
	a.started = true

	fingerprint, meta, err := source.Fingerprint(ctx, a.cfg.Source)
	if err != nil {
		return false, err
	}
	a.size = meta.Size
	a.version = core.DataVersion{
		DataSetName: a.cfg.DataSetName,
		Fields:      slices.Clone(a.cfg.Engine.Fields),
		Fingerprint: fingerprint,
	}

	found, err := a.cfg.Registry.LookupVersion(ctx, fingerprint, a.cfg.DataSetName)
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrVersionLookupFailed, err)
	}
	if found {
		a.skipped = true
		a.logger.Info("version already imported", "fingerprint", fingerprint)
		return true, nil
	}

	stream, err := a.cfg.Source.Open(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: open: %w", core.ErrSourceUnavailable, err)
	}

	id, err := a.cfg.Registry.CreateVersion(ctx, registry.CreateVersionRequest{
		DataSetName: a.version.DataSetName,
		Fields:      a.version.Fields,
		Fingerprint: fingerprint,
	})
	if err != nil {
		stream.Close()
		return false, fmt.Errorf("%w: %w", core.ErrVersionCreateFailed, err)
	}

	version := a.version
	version.ID = id
	version.Status = core.VersionPending
	if err := core.ValidateDataVersion(&version); err != nil {
		stream.Close()
		return false, fmt.Errorf("%w: %w", core.ErrVersionCreateFailed, err)
	}

	a.stream = stream
	a.version = version
	a.logger.Info("created version", "version", id, "fingerprint", fingerprint, "bytes", a.size)
	return false, nil
}

// Ingest streams the source through the engine's normalizer and uploads
// every batch before the next chunk is read. The stream is closed on return.
func (a *Attempt) Ingest(ctx context.Context) error {
	if a.version.Status != core.VersionPending || a.stream == nil {
		return ErrNotPending
	}
	stream := a.stream
	a.stream = nil
	defer stream.Close()

	opts := []ingestion.Option{
		ingestion.WithChunkSize(a.cfg.ChunkSize),
		ingestion.WithHeader(a.cfg.Engine.HasHeader),
		ingestion.WithLogger(a.logger),
	}
	var tracker *ProgressTracker
	if a.cfg.Progress != nil {
		tracker = NewProgressTracker(a.cfg.Progress, a.size, mib)
		tracker.Start()
		defer tracker.Stop()
		opts = append(opts, ingestion.WithChunkObserver(tracker.Increment))
	}

	pipeline, err := ingestion.NewPipeline(a.cfg.Engine.NewNormalizer(a.cfg.NormalizerOptions...), opts...)
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(ctx, stream, func(ctx context.Context, records []core.NormalizedRecord) error {
		stats, err := a.cfg.Uploader.Upload(ctx, a.version.ID, records)
		if err != nil {
			return err
		}
		a.stats.Merge(stats)
		return nil
	})
	a.summary = summary
	if err != nil {
		return err
	}

	if tracker != nil {
		tracker.Finish()
	}
	a.logger.Info("ingested source",
		"version", a.version.ID,
		"lines", summary.Lines,
		"records", summary.Records,
		"imported", a.stats.Imported,
		"duplicate", a.stats.Duplicate,
		"failed", a.stats.Failed)
	return nil
}

// Fail marks the pending version failed after cause aborted the attempt.
// It returns nil once the version is marked. If the transition itself
// fails the returned error wraps cause first and core.ErrVersionUpdateFailed
// second. The transition is sent even when ctx is already done.
func (a *Attempt) Fail(ctx context.Context, cause error) error {
	if err := core.ValidateTransition(a.version.Status, core.VersionFailed); err != nil {
		return fmt.Errorf("%w; %w", cause, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusTimeout)
	defer cancel()

	a.logger.Warn("marking version failed", "version", a.version.ID, "err", cause)
	if err := a.cfg.Registry.SetVersionStatus(ctx, a.version.ID, core.VersionFailed); err != nil {
		return fmt.Errorf("%w; marking version %s failed: %w: %w", cause, a.version.ID, core.ErrVersionUpdateFailed, err)
	}
	a.version.Status = core.VersionFailed
	return nil
}

// Activate marks the pending version active. Its failure is returned
// wrapped in core.ErrVersionUpdateFailed and nothing else is attempted.
func (a *Attempt) Activate(ctx context.Context) error {
	if err := core.ValidateTransition(a.version.Status, core.VersionActive); err != nil {
		return err
	}
	if err := a.cfg.Registry.SetVersionStatus(ctx, a.version.ID, core.VersionActive); err != nil {
		return fmt.Errorf("%w: activating version %s: %w", core.ErrVersionUpdateFailed, a.version.ID, err)
	}
	a.version.Status = core.VersionActive
	a.logger.Info("activated version", "version", a.version.ID)
	return nil
}

// Run executes Begin, Ingest and Activate, calling Fail when Ingest
// returns an error.
func (a *Attempt) Run(ctx context.Context) error {
	skipped, err := a.Begin(ctx)
	if err != nil || skipped {
		return err
	}

	if err := a.Ingest(ctx); err != nil {
		if failErr := a.Fail(ctx, err); failErr != nil {
			return failErr
		}
		return err
	}

	return a.Activate(ctx)
}

// Skipped reports whether Begin found the fingerprint already imported.
func (a *Attempt) Skipped() bool {
	return a.skipped
}

// Version returns the version this attempt works on. Before Begin it is
// zero; after a skip only DataSetName, Fields and Fingerprint are set. Status
// is the last status the attempt moved the version to.
func (a *Attempt) Version() core.DataVersion {
	v := a.version
	v.Fields = slices.Clone(v.Fields)
	return v
}

// Stats returns the stats merged from every uploaded page.
func (a *Attempt) Stats() *core.ImportStats {
	return a.stats
}

// Summary returns what Ingest read.
func (a *Attempt) Summary() ingestion.Summary {
	return a.summary
}
