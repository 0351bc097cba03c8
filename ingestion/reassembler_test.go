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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble feeds chunks through the pure API and concatenates all batches.
func reassemble(hasHeader bool, chunks ...string) []string {
	state := NewReassemblyState(hasHeader)
	var lines []string
	for _, chunk := range chunks {
		var batch LineBatch
		state, batch = Feed(state, []byte(chunk))
		lines = append(lines, batch...)
	}
	return append(lines, Finish(state)...)
}

func TestFeed_SplitHeaderAcrossChunks(t *testing.T) {
	lines := reassemble(true, "head", "er\nA,1\nB,2\n", "C,3")
	assert.Equal(t, []string{"A,1", "B,2", "C,3"}, lines)
}

func TestFeed_EveryTwoWaySplit(t *testing.T) {
	const source = "header\nA,1\nB,2\nC,3"
	want := []string{"A,1", "B,2", "C,3"}

	for i := 0; i <= len(source); i++ {
		got := reassemble(true, source[:i], source[i:])
		require.Equal(t, want, got, "split at %d", i)
	}
}

func TestFeed_EveryThreeWaySplit(t *testing.T) {
	const source = "A,1\nB,22\n\nC,333\n"
	want := []string{"A,1", "B,22", "", "C,333"}

	for i := 0; i <= len(source); i++ {
		for j := i; j <= len(source); j++ {
			got := reassemble(false, source[:i], source[i:j], source[j:])
			require.Equal(t, want, got, "split at %d/%d", i, j)
		}
	}
}

func TestFeed_ByteAtATime(t *testing.T) {
	const source = "h1,h2\nx,1\ny,2\n"
	chunks := make([]string, len(source))
	for i := range source {
		chunks[i] = source[i : i+1]
	}
	assert.Equal(t, []string{"x,1", "y,2"}, reassemble(true, chunks...))
}

func TestFeed_HeaderDroppedOnce(t *testing.T) {
	state := NewReassemblyState(true)

	state, batch := Feed(state, []byte("header\nA\n"))
	assert.Equal(t, LineBatch{"A"}, batch)
	assert.False(t, state.HeaderPending)

	// A later chunk whose first line looks like anything is kept.
	_, batch = Feed(state, []byte("header\nB\n"))
	assert.Equal(t, LineBatch{"header", "B"}, batch)
}

func TestFeed_NoHeader(t *testing.T) {
	assert.Equal(t, []string{"A,1", "B,2"}, reassemble(false, "A,1\nB", ",2"))
}

func TestFeed_NoNewlineKeepsHeaderPending(t *testing.T) {
	state, batch := Feed(NewReassemblyState(true), []byte("partial header"))
	assert.Empty(t, batch)
	assert.True(t, state.HeaderPending)
	assert.Equal(t, "partial header", state.Residual)
}

func TestFeed_EmptyChunk(t *testing.T) {
	start := ReassemblyState{Residual: "abc", HeaderPending: true}
	state, batch := Feed(start, nil)
	assert.Nil(t, batch)
	assert.Equal(t, start, state)
}

func TestFeed_CarriageReturnsArePreserved(t *testing.T) {
	// Line endings other than \n are left for the CSV parser.
	assert.Equal(t, []string{"A,1\r", "B,2\r"}, reassemble(true, "h\r\nA,1\r\nB,2\r\n"))
}

func TestFinish(t *testing.T) {
	tests := []struct {
		name  string
		state ReassemblyState
		want  LineBatch
	}{
		{name: "residual becomes last line", state: ReassemblyState{Residual: "C,3"}, want: LineBatch{"C,3"}},
		{name: "empty residual", state: ReassemblyState{}, want: nil},
		{name: "header only stream", state: ReassemblyState{Residual: "header", HeaderPending: true}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Finish(tt.state))
		})
	}
}

func TestReassembler(t *testing.T) {
	r := NewReassembler(true)

	batch, err := r.Feed([]byte("head"))
	require.NoError(t, err)
	assert.Empty(t, batch)

	batch, err = r.Feed([]byte("er\nA,1\nB,2\n"))
	require.NoError(t, err)
	assert.Equal(t, LineBatch{"A,1", "B,2"}, batch)

	batch, err = r.Feed([]byte("C,3"))
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Equal(t, "C,3", r.State().Residual)

	batch, err = r.Finish()
	require.NoError(t, err)
	assert.Equal(t, LineBatch{"C,3"}, batch)
}

func TestReassembler_UseAfterFinish(t *testing.T) {
	r := NewReassembler(false)
	_, err := r.Finish()
	require.NoError(t, err)

	_, err = r.Feed([]byte("x\n"))
	assert.ErrorIs(t, err, ErrReassemblerFinished)

	_, err = r.Finish()
	assert.ErrorIs(t, err, ErrReassemblerFinished)
}
