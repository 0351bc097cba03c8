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
	"errors"
	"testing"
	"time"

	"github.com/poiesic/importagent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRow = `95409B77F8E10B6437A3D819E6B0AAFB, "Switzerland Nord-East", urine, outpatient, 45-64, "Escherichia coli", "ceph4", "Cefepime", s, 08.12.2017`

func fixedSalt() ([]byte, error) {
	return []byte("salt"), nil
}

func TestCSVNormalizer_Normalize(t *testing.T) {
	n := NewCSVNormalizer()

	records, err := n.Normalize(LineBatch{sampleRow})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Escherichia coli", r.Bacterium)
	assert.Equal(t, "Cefepime", r.Antibiotic)
	assert.Equal(t, "45-64", r.AgeGroup)
	assert.Equal(t, "Switzerland Nord-East", r.Region)
	assert.Equal(t, "outpatient", r.HospitalStatus)
	assert.Equal(t, "s", r.Resistance)
	assert.Equal(t, time.Date(2017, 12, 8, 0, 0, 0, 0, time.UTC), r.SampleDate)
	assert.Len(t, r.SampleID, 32)
}

func TestCSVNormalizer_KeyIsSalted(t *testing.T) {
	n := NewCSVNormalizer()

	first, err := n.Normalize(LineBatch{sampleRow})
	require.NoError(t, err)
	second, err := n.Normalize(LineBatch{sampleRow})
	require.NoError(t, err)

	// Identical rows get distinct keys on every normalization.
	assert.NotEqual(t, first[0].SampleID, second[0].SampleID)
}

func TestCSVNormalizer_KeyWithFixedSalt(t *testing.T) {
	n := NewCSVNormalizer(WithSaltSource(fixedSalt))

	first, err := n.Normalize(LineBatch{sampleRow})
	require.NoError(t, err)
	second, err := n.Normalize(LineBatch{sampleRow})
	require.NoError(t, err)
	assert.Equal(t, first[0].SampleID, second[0].SampleID)

	other, err := n.Normalize(LineBatch{`OTHER, r, t, inpatient, 0-1, b, c, a, r, 08.12.2017`})
	require.NoError(t, err)
	assert.NotEqual(t, first[0].SampleID, other[0].SampleID)
}

func TestCSVNormalizer_SaltError(t *testing.T) {
	boom := errors.New("entropy exhausted")
	n := NewCSVNormalizer(WithSaltSource(func() ([]byte, error) { return nil, boom }))

	_, err := n.Normalize(LineBatch{sampleRow})
	assert.ErrorIs(t, err, boom)
}

func TestCSVNormalizer_MultipleLinesAndBlanks(t *testing.T) {
	n := NewCSVNormalizer(WithSaltSource(fixedSalt))

	records, err := n.Normalize(LineBatch{
		"s1,r1,urine,inpatient,0-1,b1,c1,a1,r,01.01.2020\r",
		"",
		"s2,r2,blood,outpatient,65+,b2,c2,a2,s,31.12.2021,extra",
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "b1", records[0].Bacterium)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), records[0].SampleDate)
	assert.Equal(t, "b2", records[1].Bacterium)
	assert.Equal(t, time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), records[1].SampleDate)
}

func TestCSVNormalizer_Empty(t *testing.T) {
	records, err := NewCSVNormalizer().Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCSVNormalizer_MalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		lines LineBatch
	}{
		{name: "too few columns", lines: LineBatch{"a,b,c"}},
		{name: "bad date", lines: LineBatch{"s,r,t,h,a,b,c,x,r,2017-12-08"}},
		{name: "impossible date", lines: LineBatch{"s,r,t,h,a,b,c,x,r,31.02.2017"}},
		{name: "unbalanced quote", lines: LineBatch{`s,"r,t,h,a,b,c,x,r,08.12.2017`}},
		{name: "second line bad", lines: LineBatch{"s,r,t,h,a,b,c,x,r,08.12.2017", "short,row"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewCSVNormalizer().Normalize(tt.lines)
			assert.ErrorIs(t, err, core.ErrMalformedInput)
			assert.Nil(t, records)
		})
	}
}
