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

package storage

import (
	"context"

	"github.com/poiesic/importagent/core"
)

// RunRepository stores the import run ledger.
type RunRepository interface {
	// SaveRun validates and stores a run. Saving a run with an existing ID
	// replaces it.
	SaveRun(ctx context.Context, run *core.ImportRun) error

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id string) (*core.ImportRun, error)

	// ListRuns returns up to limit runs, most recently started first.
	// An empty importName lists runs of every import.
	ListRuns(ctx context.Context, importName string, limit int) ([]*core.ImportRun, error)

	// Close releases repository resources. It does not close the backend.
	Close() error
}
