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
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/ingestion"
	"github.com/poiesic/importagent/registry"
	"github.com/poiesic/importagent/source"
	"github.com/poiesic/importagent/storage"
	"github.com/poiesic/importagent/upload"
)

// Result describes a finished import.
type Result struct {
	RunID       string
	ImportName  string
	DataSetName string
	Outcome     core.Outcome
	Fingerprint core.Fingerprint
	VersionID   string
	Stats       *core.ImportStats
	Summary     ingestion.Summary
	StartedAt   time.Time
	FinishedAt  time.Time

	// Version is the version the import created. Nil when skipped.
	Version *core.DataVersion
}

// Duration returns how long the import took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Importer runs imports by engine name.
type Importer struct {
	registry          registry.VersionRegistry
	sink              registry.RecordSink
	runs              storage.RunRepository
	openSource        SourceFactory
	uploadConfig      upload.Config
	chunkSize         int
	normalizerOptions []ingestion.NormalizerOption
	progress          io.Writer
	logger            *slog.Logger
	now               func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithRunRepository records every import in runs.
func WithRunRepository(runs storage.RunRepository) Option {
	return func(i *Importer) {
		i.runs = runs
	}
}

// WithSourceFactory replaces how sources are built from options.
// Default is OpenSource.
func WithSourceFactory(factory SourceFactory) Option {
	return func(i *Importer) {
		if factory != nil {
			i.openSource = factory
		}
	}
}

// WithUploadConfig sets the paging parameters.
// Default is upload.DefaultConfig().
func WithUploadConfig(config upload.Config) Option {
	return func(i *Importer) {
		i.uploadConfig = config
	}
}

// WithChunkSize sets the read buffer size.
// Default is ingestion.DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(i *Importer) {
		i.chunkSize = size
	}
}

// WithNormalizerOptions passes options to every engine normalizer.
func WithNormalizerOptions(opts ...ingestion.NormalizerOption) Option {
	return func(i *Importer) {
		i.normalizerOptions = opts
	}
}

// WithProgress reports read progress to w.
func WithProgress(w io.Writer) Option {
	return func(i *Importer) {
		i.progress = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewImporter creates an Importer.
func NewImporter(reg registry.VersionRegistry, sink registry.RecordSink, opts ...Option) (*Importer, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}

	i := &Importer{
		registry:     reg,
		sink:         sink,
		openSource:   OpenSource,
		uploadConfig: upload.DefaultConfig(),
		chunkSize:    ingestion.DefaultChunkSize,
		logger:       slog.Default(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// RunImport imports the file described by opts into dataSetName using the
// engine registered as importName. A fingerprint that was already imported
// yields a Result with core.OutcomeSkipped and no version is created.
func (i *Importer) RunImport(ctx context.Context, importName, dataSetName string, opts source.Options) (*Result, error) {
	engine, err := LookupEngine(importName)
	if err != nil {
		return nil, err
	}
	if dataSetName == "" {
		return nil, core.ErrEmptyDataSet
	}

	run := &core.ImportRun{
		ID:          uuid.NewString(),
		ImportName:  importName,
		DataSetName: dataSetName,
		StartedAt:   i.now().UTC(),
	}
	logger := i.logger.With("run", run.ID)
	logger.Info("starting import", "engine", importName, "dataSet", dataSetName, "source", opts.String())

	attempt, err := i.runAttempt(ctx, engine, dataSetName, opts, logger)
	run.FinishedAt = i.now().UTC()

	var version core.DataVersion
	if attempt != nil {
		version = attempt.Version()
		run.Fingerprint = version.Fingerprint
		run.VersionID = version.ID
		run.Stats = *attempt.Stats()
	}
	switch {
	case err != nil:
		run.Outcome = core.OutcomeFailed
		run.Error = err.Error()
	case attempt.Skipped():
		run.Outcome = core.OutcomeSkipped
	default:
		run.Outcome = core.OutcomeImported
	}
	i.record(ctx, run, logger)

	if err != nil {
		logger.Error("import failed", "err", err, "version", run.VersionID, "duration", run.Duration())
		return nil, err
	}

	logger.Info("import finished",
		"outcome", run.Outcome,
		"version", run.VersionID,
		"imported", run.Stats.Imported,
		"duplicate", run.Stats.Duplicate,
		"failed", run.Stats.Failed,
		"duration", run.Duration())

	result := &Result{
		RunID:       run.ID,
		ImportName:  importName,
		DataSetName: dataSetName,
		Outcome:     run.Outcome,
		Fingerprint: run.Fingerprint,
		VersionID:   run.VersionID,
		Stats:       attempt.Stats(),
		Summary:     attempt.Summary(),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}
	if version.ID != "" {
		result.Version = &version
	}
	return result, nil
}

// runAttempt builds and runs one Attempt. The returned Attempt is nil only
// when it could not be built.
func (i *Importer) runAttempt(ctx context.Context, engine Engine, dataSetName string, opts source.Options, logger *slog.Logger) (*Attempt, error) {
	src, err := i.openSource(opts, logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	uploader, err := upload.NewUploader(i.sink, upload.WithConfig(i.uploadConfig), upload.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer uploader.Release()

	attempt, err := NewAttempt(AttemptConfig{
		Registry:          i.registry,
		Source:            src,
		Uploader:          uploader,
		Engine:            engine,
		DataSetName:       dataSetName,
		ChunkSize:         i.chunkSize,
		NormalizerOptions: i.normalizerOptions,
		Progress:          i.progress,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	return attempt, attempt.Run(ctx)
}

// record writes run to the ledger. Ledger failures never change the outcome.
func (i *Importer) record(ctx context.Context, run *core.ImportRun, logger *slog.Logger) {
	if i.runs == nil {
		return
	}
	if err := i.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record import run", "err", err)
	}
}
