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

// ImportStats accumulates upload results. It is not safe for concurrent use;
// each upload lane keeps its own and lanes are merged after they finish.
type ImportStats struct {
	Imported  int
	Duplicate int
	Failed    int
	// FailedValues counts unresolved values keyed by "resource.property", then by value.
	FailedValues map[string]map[string]int
}

// NewImportStats returns empty stats with an initialized histogram.
func NewImportStats() *ImportStats {
	return &ImportStats{FailedValues: make(map[string]map[string]int)}
}

// AddPage folds one page result into the stats.
func (s *ImportStats) AddPage(page PageResult) {
	s.Imported += page.Imported
	s.Duplicate += page.Duplicate
	s.Failed += page.Failed
	for _, fr := range page.FailedRecords {
		s.countFailedValue(fr.Resource+"."+fr.Property, fr.UnresolvedValue, 1)
	}
}

// Merge adds other into s. other is left untouched.
func (s *ImportStats) Merge(other *ImportStats) {
	if other == nil {
		return
	}
	s.Imported += other.Imported
	s.Duplicate += other.Duplicate
	s.Failed += other.Failed
	for key, values := range other.FailedValues {
		for value, n := range values {
			s.countFailedValue(key, value, n)
		}
	}
}

// Total returns the number of records the sink reported on.
func (s *ImportStats) Total() int {
	return s.Imported + s.Duplicate + s.Failed
}

func (s *ImportStats) countFailedValue(key, value string, n int) {
	if s.FailedValues == nil {
		s.FailedValues = make(map[string]map[string]int)
	}
	values, ok := s.FailedValues[key]
	if !ok {
		values = make(map[string]int)
		s.FailedValues[key] = values
	}
	values[value] += n
}
