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

// Package scheduler triggers configured imports on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/importagent/importer"
	"github.com/poiesic/importagent/source"
	"github.com/robfig/cron/v3"
)

var (
	// ErrRunnerRequired is returned when a Scheduler has nothing to run imports with.
	ErrRunnerRequired = errors.New("import runner required")

	// ErrInvalidSchedule is returned for a schedule that cannot be registered.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrScheduleIndex is returned by RunJobAtIndex for an index out of range.
	ErrScheduleIndex = errors.New("schedule index out of range")
)

// Runner runs one import. *importer.Importer implements it.
type Runner interface {
	RunImport(ctx context.Context, importName, dataSetName string, opts source.Options) (*importer.Result, error)
}

// Schedule is one recurring import.
type Schedule struct {
	// Source is the engine name.
	Source string `yaml:"source" json:"source"`
	// Schedule is a cron expression with an optional leading seconds field.
	Schedule    string         `yaml:"schedule" json:"schedule"`
	DataSetName string         `yaml:"dataSetName" json:"dataSetName"`
	Config      source.Options `yaml:"config" json:"config"`
}

// Validate checks that the schedule names a known engine, a data set and a
// parsable cron expression.
func (s Schedule) Validate() error {
	if !importer.HasEngine(s.Source) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSchedule, importer.ErrUnknownEngine, s.Source)
	}
	if s.DataSetName == "" {
		return fmt.Errorf("%w: %s: data set name is empty", ErrInvalidSchedule, s.Source)
	}
	if _, err := parser.Parse(s.Schedule); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSchedule, s.Source, err)
	}
	return nil
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs imports on their cron schedules. A job whose previous run
// is still going is skipped.
type Scheduler struct {
	runner    Runner
	schedules []Schedule
	cron      *cron.Cron
	logger    *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler and registers every schedule. Jobs do not fire
// until Start is called.
func New(runner Runner, schedules []Schedule, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, ErrRunnerRequired
	}

	s := &Scheduler{
		runner:    runner,
		schedules: append([]Schedule(nil), schedules...),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	logger := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	for _, schedule := range s.schedules {
		if err := schedule.Validate(); err != nil {
			return nil, err
		}
		if _, err := s.cron.AddFunc(schedule.Schedule, func() { s.runJob(schedule) }); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSchedule, schedule.Source, err)
		}
		s.logger.Info("scheduling import", "source", schedule.Source, "schedule", schedule.Schedule, "dataSet", schedule.DataSetName)
	}

	return s, nil
}

// Start begins firing jobs. Calling Start twice has no effect.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop stops firing jobs and waits for running imports to finish. When ctx
// ends first the running imports are canceled and ctx's error is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
		return ctx.Err()
	}
}

// Schedules returns a copy of the registered schedules.
func (s *Scheduler) Schedules() []Schedule {
	return append([]Schedule(nil), s.schedules...)
}

// RunJobAtIndex runs the schedule at index immediately, with the non-zero
// fields of override applied to its source options.
func (s *Scheduler) RunJobAtIndex(ctx context.Context, index int, override source.Options) (*importer.Result, error) {
	if index < 0 || index >= len(s.schedules) {
		return nil, fmt.Errorf("%w: %d", ErrScheduleIndex, index)
	}
	schedule := s.schedules[index]
	return s.runner.RunImport(ctx, schedule.Source, schedule.DataSetName, schedule.Config.Merge(override))
}

func (s *Scheduler) runJob(schedule Schedule) {
	result, err := s.runner.RunImport(s.ctx, schedule.Source, schedule.DataSetName, schedule.Config)
	if err != nil {
		s.logger.Error("scheduled import failed", "source", schedule.Source, "err", err)
		return
	}
	s.logger.Info("scheduled import finished", "source", schedule.Source, "outcome", result.Outcome)
}

// cronLogger forwards cron's logging to slog. Info is demoted to debug
// since cron logs every wake-up.
type cronLogger struct {
	logger *slog.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}
