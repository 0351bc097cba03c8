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

// Package importagent assembles the import agent from its configuration:
// the run ledger, the registry client, the importer and the scheduler.
package importagent

import (
	"io"
	"log/slog"

	"github.com/poiesic/importagent/api"
	"github.com/poiesic/importagent/config"
	"github.com/poiesic/importagent/importer"
	"github.com/poiesic/importagent/registry"
	"github.com/poiesic/importagent/registry/httpclient"
	"github.com/poiesic/importagent/scheduler"
	"github.com/poiesic/importagent/storage"
	"github.com/poiesic/importagent/storage/badger"
)

// Agent owns the run ledger and the components built on it.
type Agent struct {
	backend   *badger.Backend
	runs      storage.RunRepository
	importer  *importer.Importer
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*agentOptions)

type agentOptions struct {
	logger        *slog.Logger
	progress      io.Writer
	registry      registry.VersionRegistry
	sink          registry.RecordSink
	sourceFactory importer.SourceFactory
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) AgentOption {
	return func(o *agentOptions) {
		o.logger = logger
	}
}

// WithProgress reports read progress of every import to w.
func WithProgress(w io.Writer) AgentOption {
	return func(o *agentOptions) {
		o.progress = w
	}
}

// WithRegistry replaces the HTTP registry client.
func WithRegistry(reg registry.VersionRegistry, sink registry.RecordSink) AgentOption {
	return func(o *agentOptions) {
		o.registry = reg
		o.sink = sink
	}
}

// WithSourceFactory replaces how sources are opened.
func WithSourceFactory(factory importer.SourceFactory) AgentOption {
	return func(o *agentOptions) {
		o.sourceFactory = factory
	}
}

// NewAgent validates cfg and builds the agent. Without WithRegistry the
// registry URLs in cfg are required.
func NewAgent(cfg *config.Config, opts ...AgentOption) (*Agent, error) {
	options := &agentOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg, sink := options.registry, options.sink
	if reg == nil || sink == nil {
		client, err := httpclient.New(cfg.ClientSettings())
		if err != nil {
			return nil, err
		}
		reg, sink = client, client
	}

	backend, err := badger.OpenBackendWithLogger(cfg.Ledger.Path, cfg.Ledger.InMemory, options.logger)
	if err != nil {
		return nil, err
	}

	runs, err := badger.NewRunRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	imp, err := importer.NewImporter(reg, sink,
		importer.WithRunRepository(runs),
		importer.WithUploadConfig(cfg.UploadSettings()),
		importer.WithChunkSize(cfg.Stream.ChunkSize),
		importer.WithProgress(options.progress),
		importer.WithSourceFactory(options.sourceFactory),
		importer.WithLogger(options.logger),
	)
	if err != nil {
		runs.Close()
		backend.Close()
		return nil, err
	}

	sched, err := scheduler.New(imp, cfg.Schedules, scheduler.WithLogger(options.logger))
	if err != nil {
		runs.Close()
		backend.Close()
		return nil, err
	}

	return &Agent{
		backend:   backend,
		runs:      runs,
		importer:  imp,
		scheduler: sched,
		logger:    options.logger,
	}, nil
}

// Close releases the run ledger. Stop the scheduler first.
func (a *Agent) Close() error {
	if err := a.runs.Close(); err != nil {
		a.logger.Error("error closing run repository", "err", err)
		return err
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (a *Agent) Importer() *importer.Importer {
	return a.importer
}

func (a *Agent) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}

func (a *Agent) RunRepository() storage.RunRepository {
	return a.runs
}

func (a *Agent) NewServer(opts ...api.Option) (*api.Server, error) {
	base := []api.Option{api.WithRunRepository(a.runs), api.WithLogger(a.logger)}
	return api.NewServer(a.importer, append(base, opts...)...)
}
