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

package upload

import "errors"

var (
	// ErrSinkRequired is returned when an Uploader is created without a record sink.
	ErrSinkRequired = errors.New("record sink required")

	// ErrInvalidPageSize is returned for a page size below one.
	ErrInvalidPageSize = errors.New("page size must be positive")

	// ErrInvalidMaxWorkers is returned for a worker count below one.
	ErrInvalidMaxWorkers = errors.New("max workers must be positive")
)
