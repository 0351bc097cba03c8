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

import "errors"

// Import failure taxonomy. Every error returned by an import attempt wraps
// exactly one of these.
var (
	// ErrSourceUnavailable indicates the remote file could not be stat'ed or opened.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrVersionLookupFailed indicates the registry could not answer whether
	// a fingerprint was already imported.
	ErrVersionLookupFailed = errors.New("version lookup failed")

	// ErrVersionCreateFailed indicates the registry refused to create a pending version.
	ErrVersionCreateFailed = errors.New("version create failed")

	// ErrVersionUpdateFailed indicates a version status transition failed.
	ErrVersionUpdateFailed = errors.New("version status update failed")

	// ErrMalformedInput indicates a line could not be parsed into a record.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUploadFailed indicates a page upload was rejected or could not be sent.
	ErrUploadFailed = errors.New("upload failed")
)

// Domain validation errors
var (
	// ErrInvalidDataVersion indicates a DataVersion failed validation.
	ErrInvalidDataVersion = errors.New("invalid data version")

	// ErrInvalidVersionStatus indicates an unknown VersionStatus value.
	ErrInvalidVersionStatus = errors.New("invalid version status")

	// ErrInvalidImportRun indicates an ImportRun failed validation.
	ErrInvalidImportRun = errors.New("invalid import run")

	// ErrEmptyFingerprint indicates a missing content fingerprint.
	ErrEmptyFingerprint = errors.New("fingerprint cannot be empty")

	// ErrEmptyDataSet indicates a missing data set name.
	ErrEmptyDataSet = errors.New("data set name cannot be empty")

	// ErrIllegalTransition indicates a version status change that the lifecycle forbids.
	ErrIllegalTransition = errors.New("illegal version status transition")
)
