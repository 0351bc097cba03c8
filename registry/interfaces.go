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

package registry

import (
	"context"

	"github.com/poiesic/importagent/core"
)

// VersionRegistry manages DataVersions in the downstream storage service.
type VersionRegistry interface {
	// LookupVersion reports whether a version with the given fingerprint
	// exists for dataSet. A definite "not found" is (false, nil); any other
	// failure is an error.
	LookupVersion(ctx context.Context, fingerprint core.Fingerprint, dataSet string) (bool, error)

	// CreateVersion creates a pending version and returns its ID.
	CreateVersion(ctx context.Context, req CreateVersionRequest) (string, error)

	// SetVersionStatus transitions an existing version.
	SetVersionStatus(ctx context.Context, versionID string, status core.VersionStatus) error
}

// RecordSink receives pages of records for a pending version.
// Implementations must be safe for concurrent use; the uploader calls
// UploadPage from several lanes at once.
type RecordSink interface {
	UploadPage(ctx context.Context, versionID string, page []core.NormalizedRecord) (core.PageResult, error)
}

// CreateVersionRequest describes a new pending version.
type CreateVersionRequest struct {
	DataSetName string
	Fields      []string
	Fingerprint core.Fingerprint
}
