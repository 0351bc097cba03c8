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

package ingestion

import (
	"strings"
)

// LineBatch is a run of complete lines, without their terminating newlines.
type LineBatch []string

// ReassemblyState is everything the reassembler carries between chunks.
type ReassemblyState struct {
	// Residual is the trailing text after the last newline seen so far.
	Residual string
	// HeaderPending is true until the first complete line has been dropped.
	HeaderPending bool
}

// NewReassemblyState returns the initial state for a stream. When hasHeader
// is set, the first line of the stream is dropped.
func NewReassemblyState(hasHeader bool) ReassemblyState {
	return ReassemblyState{HeaderPending: hasHeader}
}

// Feed appends chunk to the residual and returns every line completed by it.
// The last, possibly partial, line becomes the new residual. The header is
// dropped once per stream, not once per chunk.
func Feed(state ReassemblyState, chunk []byte) (ReassemblyState, LineBatch) {
	if len(chunk) == 0 {
		return state, nil
	}

	parts := strings.Split(state.Residual+string(chunk), "\n")
	next := ReassemblyState{
		Residual:      parts[len(parts)-1],
		HeaderPending: state.HeaderPending,
	}

	lines := LineBatch(parts[:len(parts)-1])
	if next.HeaderPending && len(lines) > 0 {
		lines = lines[1:]
		next.HeaderPending = false
	}
	if len(lines) == 0 {
		return next, nil
	}
	return next, lines
}

// Finish flushes the residual as the final line. An empty residual yields
// nothing. If the header was never dropped, the residual is the header and is
// dropped as well.
func Finish(state ReassemblyState) LineBatch {
	if state.Residual == "" || state.HeaderPending {
		return nil
	}
	return LineBatch{state.Residual}
}

// Reassembler wraps Feed and Finish for a single stream.
// It is not safe for concurrent use.
type Reassembler struct {
	state    ReassemblyState
	finished bool
}

// NewReassembler creates a Reassembler for one stream.
func NewReassembler(hasHeader bool) *Reassembler {
	return &Reassembler{state: NewReassemblyState(hasHeader)}
}

// Feed consumes one chunk.
func (r *Reassembler) Feed(chunk []byte) (LineBatch, error) {
	if r.finished {
		return nil, ErrReassemblerFinished
	}
	var batch LineBatch
	r.state, batch = Feed(r.state, chunk)
	return batch, nil
}

// Finish ends the stream and returns the last line, if any.
// Calling Feed or Finish afterwards returns ErrReassemblerFinished.
func (r *Reassembler) Finish() (LineBatch, error) {
	if r.finished {
		return nil, ErrReassemblerFinished
	}
	r.finished = true
	batch := Finish(r.state)
	r.state = ReassemblyState{}
	return batch, nil
}

// State returns a copy of the current state.
func (r *Reassembler) State() ReassemblyState {
	return r.state
}
