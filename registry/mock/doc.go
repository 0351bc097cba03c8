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

// Package mock provides test doubles for the registry interfaces.
//
// Both mocks are safe for concurrent use and count every call, so tests can
// assert what an import attempt did and did not do:
//
//	reg := mock.NewMockRegistry()
//	reg.LookupVersionFunc = func(ctx context.Context, f core.Fingerprint, ds string) (bool, error) {
//	    return true, nil
//	}
//	...
//	assert.Zero(t, reg.CreateCalls())
//
// # Default Behavior
//
//   - MockRegistry: reports every fingerprint as not imported, hands out
//     sequential version IDs and accepts every status change
//   - MockSink: reports every record of a page as imported
package mock
