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

package mock

import (
	"context"
	"sync"

	"github.com/poiesic/importagent/core"
)

// MockSink is a test double for registry.RecordSink.
type MockSink struct {
	// UploadPageFunc is called by UploadPage if set.
	UploadPageFunc func(ctx context.Context, versionID string, page []core.NormalizedRecord) (core.PageResult, error)

	mu       sync.Mutex
	calls    int
	records  int
	inFlight int
	maxSeen  int
}

// NewMockSink creates a mock sink that imports everything.
func NewMockSink() *MockSink {
	return &MockSink{}
}

// UploadPage counts the call and delegates to UploadPageFunc if set.
func (m *MockSink) UploadPage(ctx context.Context, versionID string, page []core.NormalizedRecord) (core.PageResult, error) {
	m.mu.Lock()
	m.calls++
	m.records += len(page)
	m.inFlight++
	if m.inFlight > m.maxSeen {
		m.maxSeen = m.inFlight
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.UploadPageFunc != nil {
		return m.UploadPageFunc(ctx, versionID, page)
	}
	return core.PageResult{Imported: len(page)}, nil
}

// CallCount returns the number of UploadPage calls.
func (m *MockSink) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// RecordCount returns the total number of records received.
func (m *MockSink) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records
}

// MaxInFlight returns the highest number of concurrent UploadPage calls observed.
func (m *MockSink) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxSeen
}

// Reset clears all counters.
func (m *MockSink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.records = 0
	m.inFlight = 0
	m.maxSeen = 0
}
