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

// Span is the half-open record range [Start, End) sent as one page.
type Span struct {
	Start int
	End   int
}

// Len returns the number of records in the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// PageSize returns the page size for a round with remaining records left.
// Large inputs use pageSize; once everything fits into one round the
// remainder is spread evenly across maxWorkers lanes.
func PageSize(remaining, pageSize, maxWorkers int) int {
	if remaining > maxWorkers*pageSize {
		return pageSize
	}
	return (remaining + maxWorkers - 1) / maxWorkers
}

// Partition assigns n records to exactly maxWorkers lanes. Each round cuts
// maxWorkers consecutive slices of PageSize records and gives slice i to
// lane i. Empty slices are not turned into pages, so some lanes may end up
// with fewer pages or none at all. Every record lands in exactly one span.
func Partition(n, pageSize, maxWorkers int) [][]Span {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	lanes := make([][]Span, maxWorkers)
	for offset := 0; offset < n; {
		size := PageSize(n-offset, pageSize, maxWorkers)
		for lane := range maxWorkers {
			start := offset + lane*size
			if start >= n {
				break
			}
			lanes[lane] = append(lanes[lane], Span{Start: start, End: min(start+size, n)})
		}
		offset += maxWorkers * size
	}
	return lanes
}
