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
	"strconv"
	"sync"

	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/registry"
)

// StatusChange records one SetVersionStatus call.
type StatusChange struct {
	VersionID string
	Status    core.VersionStatus
}

// MockRegistry is a test double for registry.VersionRegistry.
type MockRegistry struct {
	// LookupVersionFunc is called by LookupVersion if set.
	LookupVersionFunc func(ctx context.Context, fingerprint core.Fingerprint, dataSet string) (bool, error)

	// CreateVersionFunc is called by CreateVersion if set.
	CreateVersionFunc func(ctx context.Context, req registry.CreateVersionRequest) (string, error)

	// SetVersionStatusFunc is called by SetVersionStatus if set.
	SetVersionStatusFunc func(ctx context.Context, versionID string, status core.VersionStatus) error

	mu          sync.Mutex
	lookups     int
	creates     []registry.CreateVersionRequest
	transitions []StatusChange
	nextID      int
}

// NewMockRegistry creates a mock registry with default behavior.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{}
}

// LookupVersion reports not found unless LookupVersionFunc says otherwise.
func (m *MockRegistry) LookupVersion(ctx context.Context, fingerprint core.Fingerprint, dataSet string) (bool, error) {
	m.mu.Lock()
	m.lookups++
	m.mu.Unlock()

	if m.LookupVersionFunc != nil {
		return m.LookupVersionFunc(ctx, fingerprint, dataSet)
	}
	return false, nil
}

// CreateVersion returns sequential IDs unless CreateVersionFunc is set.
func (m *MockRegistry) CreateVersion(ctx context.Context, req registry.CreateVersionRequest) (string, error) {
	m.mu.Lock()
	m.creates = append(m.creates, req)
	m.nextID++
	id := strconv.Itoa(m.nextID)
	m.mu.Unlock()

	if m.CreateVersionFunc != nil {
		return m.CreateVersionFunc(ctx, req)
	}
	return id, nil
}

// SetVersionStatus records the transition and succeeds unless SetVersionStatusFunc is set.
func (m *MockRegistry) SetVersionStatus(ctx context.Context, versionID string, status core.VersionStatus) error {
	m.mu.Lock()
	m.transitions = append(m.transitions, StatusChange{VersionID: versionID, Status: status})
	m.mu.Unlock()

	if m.SetVersionStatusFunc != nil {
		return m.SetVersionStatusFunc(ctx, versionID, status)
	}
	return nil
}

// LookupCalls returns the number of LookupVersion calls.
func (m *MockRegistry) LookupCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// CreateCalls returns the number of CreateVersion calls.
func (m *MockRegistry) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creates)
}

// CreateRequests returns a copy of every CreateVersion request.
func (m *MockRegistry) CreateRequests() []registry.CreateVersionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]registry.CreateVersionRequest(nil), m.creates...)
}

// Transitions returns a copy of every SetVersionStatus call in order.
func (m *MockRegistry) Transitions() []StatusChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StatusChange(nil), m.transitions...)
}

// TransitionsTo counts SetVersionStatus calls with the given status.
func (m *MockRegistry) TransitionsTo(status core.VersionStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.transitions {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls.
func (m *MockRegistry) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = 0
	m.creates = nil
	m.transitions = nil
	m.nextID = 0
}
