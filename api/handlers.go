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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/importer"
	"github.com/poiesic/importagent/source"
	"github.com/poiesic/importagent/storage"
)

// maxBodyBytes bounds a manual import request body.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleManualImport runs an import right away.
// POST /manual-import {"engine": "anresis", "dataSet": "infect", "config": {...}}
func (s *Server) handleManualImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body!", http.StatusBadRequest)
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		http.Error(w, "Missing request body!", http.StatusBadRequest)
		return
	}

	var fields map[string]json.RawMessage
	if body[0] != '{' || json.Unmarshal(body, &fields) != nil {
		http.Error(w, "Request body must be an object!", http.StatusBadRequest)
		return
	}

	var engine, dataSet string
	if json.Unmarshal(fields["engine"], &engine) != nil || engine == "" {
		http.Error(w, "Missing parameter 'engine' in request body!", http.StatusBadRequest)
		return
	}
	var opts source.Options
	if raw := bytes.TrimSpace(fields["config"]); len(raw) == 0 || raw[0] != '{' || json.Unmarshal(raw, &opts) != nil {
		http.Error(w, "Missing parameter 'config' in request body!", http.StatusBadRequest)
		return
	}
	if json.Unmarshal(fields["dataSet"], &dataSet) != nil || dataSet == "" {
		http.Error(w, "Missing parameter 'dataSet' in request body!", http.StatusBadRequest)
		return
	}
	if !importer.HasEngine(engine) {
		http.Error(w, fmt.Sprintf("Engine %s is not available for execution!", engine), http.StatusBadRequest)
		return
	}

	// The import outlives a dropped connection so its version is never left pending.
	result, err := s.runner.RunImport(context.WithoutCancel(r.Context()), engine, dataSet, opts)
	if err != nil {
		s.logger.Error("manual import failed", "engine", engine, "dataSet", dataSet, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, newResultResponse(result))
}

// handleListRuns lists ledger entries, newest first.
// GET /imports?name=anresis&limit=20
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run ledger not configured", http.StatusServiceUnavailable)
		return
	}

	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), r.URL.Query().Get("name"), limit)
	if err != nil {
		s.logger.Error("failed to list runs", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, newRunResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetRun returns one ledger entry.
// GET /imports/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run ledger not configured", http.StatusServiceUnavailable)
		return
	}

	run, err := s.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to get run", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(run))
}

type errorResponse struct {
	Error string `json:"error"`
}

type statsResponse struct {
	Imported     int                       `json:"imported"`
	Duplicate    int                       `json:"duplicate"`
	Failed       int                       `json:"failed"`
	FailedValues map[string]map[string]int `json:"failedValues,omitempty"`
}

func newStatsResponse(stats *core.ImportStats) statsResponse {
	if stats == nil {
		return statsResponse{}
	}
	return statsResponse{
		Imported:     stats.Imported,
		Duplicate:    stats.Duplicate,
		Failed:       stats.Failed,
		FailedValues: stats.FailedValues,
	}
}

type resultResponse struct {
	RunID       string        `json:"runId"`
	Outcome     core.Outcome  `json:"outcome"`
	Fingerprint string        `json:"fingerprint"`
	VersionID   string        `json:"versionId,omitempty"`
	Records     int           `json:"records"`
	Stats       statsResponse `json:"stats"`
	Seconds     float64       `json:"seconds"`
}

func newResultResponse(r *importer.Result) resultResponse {
	return resultResponse{
		RunID:       r.RunID,
		Outcome:     r.Outcome,
		Fingerprint: r.Fingerprint.String(),
		VersionID:   r.VersionID,
		Records:     r.Summary.Records,
		Stats:       newStatsResponse(r.Stats),
		Seconds:     r.Duration().Seconds(),
	}
}

type runResponse struct {
	ID          string        `json:"id"`
	ImportName  string        `json:"importName"`
	DataSetName string        `json:"dataSetName"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	VersionID   string        `json:"versionId,omitempty"`
	Outcome     core.Outcome  `json:"outcome"`
	Error       string        `json:"error,omitempty"`
	StartedAt   string        `json:"startedAt"`
	FinishedAt  string        `json:"finishedAt"`
	Stats       statsResponse `json:"stats"`
}

func newRunResponse(run *core.ImportRun) runResponse {
	return runResponse{
		ID:          run.ID,
		ImportName:  run.ImportName,
		DataSetName: run.DataSetName,
		Fingerprint: run.Fingerprint.String(),
		VersionID:   run.VersionID,
		Outcome:     run.Outcome,
		Error:       run.Error,
		StartedAt:   run.StartedAt.Format(timeLayout),
		FinishedAt:  run.FinishedAt.Format(timeLayout),
		Stats:       newStatsResponse(&run.Stats),
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
