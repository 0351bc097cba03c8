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

// Package api exposes the manual import trigger and the run ledger over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/importagent/importer"
	"github.com/poiesic/importagent/source"
	"github.com/poiesic/importagent/storage"
)

// DefaultListLimit is the number of runs GET /imports returns without a limit.
const DefaultListLimit = 20

// ErrRunnerRequired is returned when a Server has nothing to run imports with.
var ErrRunnerRequired = errors.New("import runner required")

// Runner runs one import. *importer.Importer implements it.
type Runner interface {
	RunImport(ctx context.Context, importName, dataSetName string, opts source.Options) (*importer.Result, error)
}

// Server serves the HTTP endpoints.
type Server struct {
	runner Runner
	runs   storage.RunRepository
	logger *slog.Logger
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithRunRepository enables the ledger endpoints.
func WithRunRepository(runs storage.RunRepository) Option {
	return func(s *Server) {
		s.runs = runs
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server.
func NewServer(runner Runner, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, ErrRunnerRequired
	}

	s := &Server{
		runner: runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	s.RegisterHTTP(r)
	s.router = r

	return s, nil
}

// RegisterHTTP adds the endpoints to r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Post("/manual-import", s.handleManualImport)
	r.Get("/imports", s.handleListRuns)
	r.Get("/imports/{id}", s.handleGetRun)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"requestId", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}
