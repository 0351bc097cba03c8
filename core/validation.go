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

package core

import (
	"fmt"
)

// ValidateDataVersion validates a DataVersion returned by a registry.
//
// Validation rules:
//   - ID must not be empty
//   - DataSetName must not be empty
//   - Fingerprint must not be empty
//   - Status must be a known VersionStatus
func ValidateDataVersion(version *DataVersion) error {
	if version == nil {
		return fmt.Errorf("%w: version is nil", ErrInvalidDataVersion)
	}

	if version.ID == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidDataVersion)
	}

	if version.DataSetName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataVersion, ErrEmptyDataSet)
	}

	if version.Fingerprint == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataVersion, ErrEmptyFingerprint)
	}

	if err := ValidateVersionStatus(version.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDataVersion, err)
	}

	return nil
}

// ValidateVersionStatus validates that a VersionStatus has a known value.
func ValidateVersionStatus(status VersionStatus) error {
	switch status {
	case VersionPending, VersionActive, VersionFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVersionStatus, string(status))
	}
}

// ValidateTransition checks a status change against the lifecycle
// pending -> active | failed. Active and failed are terminal.
func ValidateTransition(from, to VersionStatus) error {
	if err := ValidateVersionStatus(to); err != nil {
		return err
	}
	if from == VersionPending && (to == VersionActive || to == VersionFailed) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// ValidateImportRun validates a ledger entry before it is stored.
func ValidateImportRun(run *ImportRun) error {
	if run == nil {
		return fmt.Errorf("%w: run is nil", ErrInvalidImportRun)
	}

	if run.ID == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidImportRun)
	}

	if run.ImportName == "" {
		return fmt.Errorf("%w: import name is empty", ErrInvalidImportRun)
	}

	switch run.Outcome {
	case OutcomeImported, OutcomeSkipped, OutcomeFailed:
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidImportRun, string(run.Outcome))
	}

	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: start time is zero", ErrInvalidImportRun)
	}

	if run.FinishedAt.Before(run.StartedAt) {
		return fmt.Errorf("%w: finished before it started", ErrInvalidImportRun)
	}

	return nil
}
