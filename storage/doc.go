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

// Package storage provides the run ledger abstraction for the import agent.
//
// The ledger records one core.ImportRun per import invocation, whether it
// imported, skipped or failed. It exists for operators; the import pipeline
// never reads it back to decide anything. Whether a fingerprint was already
// imported is always answered by the remote version registry.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.RunRepository interface so that
// callers do not couple to a backend:
//
//	runs, err := badger.NewRunRepository(backend)  // returns storage.RunRepository
//
// The badger subpackage is the only backend. It can run fully in memory,
// which is what the tests use.
package storage
