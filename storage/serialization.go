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
	"fmt"

	"github.com/poiesic/importagent/core"
)

// MarshalImportRun serializes an ImportRun to bytes.
func MarshalImportRun(run *core.ImportRun) []byte {
	buf := make([]byte, core.ImportRunMUS.Size(*run))
	core.ImportRunMUS.Marshal(*run, buf)
	return buf
}

// UnmarshalImportRun deserializes an ImportRun from bytes.
func UnmarshalImportRun(data []byte) (*core.ImportRun, error) {
	run, _, err := core.ImportRunMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	// Timestamps are stored as Unix micros and decode in local time.
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return &run, nil
}
