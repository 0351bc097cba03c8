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

package importer

import "errors"

var (
	// ErrUnknownEngine is returned when no engine has the requested name.
	ErrUnknownEngine = errors.New("unknown import engine")

	// ErrRegistryRequired is returned when an Importer or Attempt has no version registry.
	ErrRegistryRequired = errors.New("version registry required")

	// ErrSinkRequired is returned when an Importer has no record sink.
	ErrSinkRequired = errors.New("record sink required")

	// ErrSourceRequired is returned when an Attempt has no source.
	ErrSourceRequired = errors.New("source required")

	// ErrUploaderRequired is returned when an Attempt has no uploader.
	ErrUploaderRequired = errors.New("uploader required")

	// ErrAttemptStarted is returned when Begin is called twice on one Attempt.
	ErrAttemptStarted = errors.New("attempt already started")

	// ErrNotPending is returned when Ingest runs without a pending version.
	ErrNotPending = errors.New("no pending version to ingest")
)
