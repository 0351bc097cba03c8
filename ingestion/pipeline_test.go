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
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/poiesic/importagent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns one scripted chunk per Read and records whether a
// batch was still being handled when the next Read arrived.
type chunkReader struct {
	chunks   []string
	err      error // returned after the last chunk instead of io.EOF
	reads    int
	handling *bool
	overlap  bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.handling != nil && *r.handling {
		r.overlap = true
	}
	if r.reads >= len(r.chunks) {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.reads])
	r.reads++
	return n, nil
}

// mockNormalizer implements RecordNormalizer for testing.
type mockNormalizer struct {
	NormalizeFunc func(lines LineBatch) ([]core.NormalizedRecord, error)
	calls         int
}

func (m *mockNormalizer) Normalize(lines LineBatch) ([]core.NormalizedRecord, error) {
	m.calls++
	if m.NormalizeFunc != nil {
		return m.NormalizeFunc(lines)
	}
	records := make([]core.NormalizedRecord, len(lines))
	for i, line := range lines {
		records[i] = core.NormalizedRecord{SampleID: line}
	}
	return records, nil
}

func TestStream_ScenarioChunks(t *testing.T) {
	reader := &chunkReader{chunks: []string{"head", "er\nA,1\nB,2\n", "C,3"}}

	var batches []LineBatch
	err := Stream(context.Background(), reader, StreamOptions{HasHeader: true}, func(_ context.Context, batch LineBatch) error {
		batches = append(batches, batch)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []LineBatch{{"A,1", "B,2"}, {"C,3"}}, batches)
}

func TestStream_HeaderOnly(t *testing.T) {
	for _, input := range []string{"header", "header\n", ""} {
		t.Run(strings.TrimSpace(input), func(t *testing.T) {
			calls := 0
			err := Stream(context.Background(), strings.NewReader(input), StreamOptions{HasHeader: true}, func(_ context.Context, batch LineBatch) error {
				calls++
				return nil
			})
			require.NoError(t, err)
			assert.Zero(t, calls, "no data lines")
		})
	}
}

func TestStream_OneBatchInFlight(t *testing.T) {
	handling := false
	reader := &chunkReader{
		chunks:   []string{"a\nb\n", "c\n", "d\ne\n", "f"},
		handling: &handling,
	}

	var lines []string
	err := Stream(context.Background(), reader, StreamOptions{}, func(_ context.Context, batch LineBatch) error {
		handling = true
		defer func() { handling = false }()
		lines = append(lines, batch...)
		return nil
	})
	require.NoError(t, err)

	assert.False(t, reader.overlap, "read issued while a batch was in flight")
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, lines)
}

func TestStream_SmallChunkSize(t *testing.T) {
	var lines []string
	var chunks []int
	err := Stream(context.Background(), strings.NewReader("h\nline one\nline two\n"), StreamOptions{
		ChunkSize: 3,
		HasHeader: true,
		OnChunk:   func(n int) { chunks = append(chunks, n) },
	}, func(_ context.Context, batch LineBatch) error {
		lines = append(lines, batch...)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"line one", "line two"}, lines)
	total := 0
	for _, n := range chunks {
		assert.LessOrEqual(t, n, 3)
		total += n
	}
	assert.Equal(t, len("h\nline one\nline two\n"), total)
}

func TestStream_HandlerErrorStopsReading(t *testing.T) {
	boom := errors.New("sink down")
	reader := &chunkReader{chunks: []string{"a\n", "b\n", "c\n"}}

	err := Stream(context.Background(), reader, StreamOptions{}, func(context.Context, LineBatch) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, reader.reads)
}

func TestStream_ReadErrorInterrupts(t *testing.T) {
	reset := errors.New("connection reset")
	reader := &chunkReader{chunks: []string{"a\nb"}, err: reset}

	var lines []string
	err := Stream(context.Background(), reader, StreamOptions{}, func(_ context.Context, batch LineBatch) error {
		lines = append(lines, batch...)
		return nil
	})

	assert.ErrorIs(t, err, ErrStreamInterrupted)
	assert.ErrorIs(t, err, reset)
	// The residual is never flushed after an interrupted read.
	assert.Equal(t, []string{"a"}, lines)
}

func TestStream_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &chunkReader{chunks: []string{"a\n", "b\n"}}

	err := Stream(ctx, reader, StreamOptions{}, func(context.Context, LineBatch) error {
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, reader.reads)
}

func TestNewPipeline(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrNormalizerRequired)

	_, err = NewPipeline(&mockNormalizer{}, WithChunkSize(0))
	assert.Error(t, err)

	p, err := NewPipeline(&mockNormalizer{}, WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, p.chunkSize)
	assert.True(t, p.hasHeader)
	assert.NotNil(t, p.logger)
}

func TestPipeline_Run(t *testing.T) {
	normalizer := &mockNormalizer{}
	var observed int
	p, err := NewPipeline(normalizer, WithChunkSize(4), WithChunkObserver(func(n int) { observed += n }))
	require.NoError(t, err)

	var got []string
	summary, err := p.Run(context.Background(), strings.NewReader("hdr\nr1\nr2\nr3"), func(_ context.Context, records []core.NormalizedRecord) error {
		for _, r := range records {
			got = append(got, r.SampleID)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"r1", "r2", "r3"}, got)
	assert.Equal(t, 3, summary.Lines)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, int64(len("hdr\nr1\nr2\nr3")), summary.Bytes)
	assert.Equal(t, int(summary.Bytes), observed)
}

func TestPipeline_RunMalformedInput(t *testing.T) {
	normalizer := &mockNormalizer{
		NormalizeFunc: func(LineBatch) ([]core.NormalizedRecord, error) {
			return nil, core.ErrMalformedInput
		},
	}
	p, err := NewPipeline(normalizer, WithHeader(false))
	require.NoError(t, err)

	handled := 0
	_, err = p.Run(context.Background(), strings.NewReader("x\ny\n"), func(context.Context, []core.NormalizedRecord) error {
		handled++
		return nil
	})

	assert.ErrorIs(t, err, core.ErrMalformedInput)
	assert.Zero(t, handled)
}

func TestPipeline_RunRequiresHandler(t *testing.T) {
	p, err := NewPipeline(&mockNormalizer{})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), strings.NewReader(""), nil)
	assert.ErrorIs(t, err, ErrHandlerRequired)
}

func TestPipeline_RunWithCSVNormalizer(t *testing.T) {
	p, err := NewPipeline(NewCSVNormalizer(), WithChunkSize(7))
	require.NoError(t, err)

	input := "sampleID,region,type,origin,age,organism,class,name,res,day\n" +
		"s1,r1,urine,inpatient,0-1,b1,c1,a1,r,01.01.2020\n" +
		"s2,r2,blood,outpatient,65+,b2,c2,a2,s,31.12.2021\n"

	var records []core.NormalizedRecord
	_, err = p.Run(context.Background(), strings.NewReader(input), func(_ context.Context, batch []core.NormalizedRecord) error {
		records = append(records, batch...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b1", records[0].Bacterium)
	assert.Equal(t, "b2", records[1].Bacterium)
}
