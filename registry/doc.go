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

// Package registry defines the remote services an import talks to.
//
// A VersionRegistry answers whether a content fingerprint was already
// imported for a data set and owns the DataVersion lifecycle. A RecordSink
// accepts pages of normalized records for a pending version and reports
// per-page counts.
//
// The httpclient subpackage implements both against the storage and import
// HTTP services; the mock subpackage provides test doubles.
package registry
