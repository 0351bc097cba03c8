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

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFingerprint_Consistency(t *testing.T) {
	mtime := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		size  int64
		mtime time.Time
	}{
		{name: "typical export", size: 1 << 30, mtime: mtime},
		{name: "empty file", size: 0, mtime: mtime},
		{name: "zero time", size: 42, mtime: time.UnixMilli(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f1 := NewFingerprint(tt.size, tt.mtime)
			f2 := NewFingerprint(tt.size, tt.mtime)

			if f1 != f2 {
				t.Errorf("NewFingerprint() produced different fingerprints for same metadata: %s vs %s", f1, f2)
			}
			if len(f1) != 64 {
				t.Errorf("NewFingerprint() length = %d, want 64", len(f1))
			}
		})
	}
}

func TestNewFingerprint_Format(t *testing.T) {
	mtime := time.UnixMilli(1700000000123)
	sum := sha256.Sum256([]byte("2048//1700000000123"))

	assert.Equal(t, Fingerprint(hex.EncodeToString(sum[:])), NewFingerprint(2048, mtime))
}

func TestNewFingerprint_Different(t *testing.T) {
	mtime := time.UnixMilli(1700000000000)

	assert.NotEqual(t, NewFingerprint(100, mtime), NewFingerprint(101, mtime))
	assert.NotEqual(t, NewFingerprint(100, mtime), NewFingerprint(100, mtime.Add(time.Millisecond)))
	// Sub-millisecond changes are invisible.
	assert.Equal(t, NewFingerprint(100, mtime), NewFingerprint(100, mtime.Add(time.Microsecond)))
}

func TestImportRun_Duration(t *testing.T) {
	start := time.Now()
	run := ImportRun{StartedAt: start, FinishedAt: start.Add(3 * time.Second)}
	require.Equal(t, 3*time.Second, run.Duration())
}
