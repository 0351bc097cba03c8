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

//go:generate go run ../cmd/musgen

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Fingerprint identifies one content version of a remote file.
// It is derived from file metadata only, never from the bytes.
type Fingerprint string

// NewFingerprint hashes "<size>//<mtime epoch millis>" with SHA-256.
// Two files with the same size and modification time share a fingerprint.
func NewFingerprint(size int64, modifiedAt time.Time) Fingerprint {
	sum := sha256.Sum256([]byte(strconv.FormatInt(size, 10) + "//" + strconv.FormatInt(modifiedAt.UnixMilli(), 10)))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// String returns the hex digest.
func (f Fingerprint) String() string {
	return string(f)
}

// VersionStatus is the lifecycle state of a DataVersion.
type VersionStatus string

const (
	// VersionPending is the state of a freshly created version.
	VersionPending VersionStatus = "pending"
	// VersionActive marks a fully uploaded version.
	VersionActive VersionStatus = "active"
	// VersionFailed marks a version whose import was aborted. Terminal.
	VersionFailed VersionStatus = "failed"
)

// DataVersion is the registry's record of one import of one fingerprint.
type DataVersion struct {
	ID          string
	DataSetName string
	Fields      []string
	Fingerprint Fingerprint
	Status      VersionStatus
}

// NormalizedRecord is one sample/antibiotic resistance observation ready for upload.
type NormalizedRecord struct {
	Bacterium      string
	Antibiotic     string
	AgeGroup       string
	Region         string
	HospitalStatus string
	Resistance     string
	SampleDate     time.Time // UTC midnight of the sampling day
	SampleID       string    // idempotency key, see ingestion.Normalizer
}

// FailedRecord describes one value the record sink could not resolve.
type FailedRecord struct {
	Resource        string
	Property        string
	UnresolvedValue string
}

// PageResult is the record sink's answer for one uploaded page.
type PageResult struct {
	Imported      int
	Duplicate     int
	Failed        int
	FailedRecords []FailedRecord
}

// Outcome is the final disposition of one import run.
type Outcome string

const (
	// OutcomeImported means a new version was uploaded and activated.
	OutcomeImported Outcome = "imported"
	// OutcomeSkipped means the fingerprint was already imported.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the attempt aborted.
	OutcomeFailed Outcome = "failed"
)

// ImportRun is the ledger entry written for every import invocation.
type ImportRun struct {
	ID          string
	ImportName  string
	DataSetName string
	Fingerprint Fingerprint
	VersionID   string
	Outcome     Outcome
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Stats       ImportStats
}

// Duration returns how long the run took.
func (r *ImportRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
