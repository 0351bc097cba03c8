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

package importer

import (
	"testing"

	"github.com/poiesic/importagent/ingestion"
	"github.com/poiesic/importagent/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupEngine(t *testing.T) {
	engine, err := LookupEngine("anresis")
	require.NoError(t, err)

	assert.Equal(t, EngineAnresis, engine.Name)
	assert.True(t, engine.HasHeader)
	assert.Equal(t, []string{
		"ageGroupId", "antibioticId", "bacteriumId", "hospitalStatusId", "regionId", "resistance", "sampleDate",
	}, engine.Fields)

	normalizer := engine.NewNormalizer()
	_, ok := normalizer.(*ingestion.CSVNormalizer)
	assert.True(t, ok, "anresis uses the CSV normalizer")
}

func TestLookupEngine_FieldsAreCopied(t *testing.T) {
	a, err := LookupEngine("anresis")
	require.NoError(t, err)
	a.Fields[0] = "changed"

	b, err := LookupEngine("anresis")
	require.NoError(t, err)
	assert.Equal(t, "ageGroupId", b.Fields[0])
}

func TestLookupEngine_Unknown(t *testing.T) {
	for _, name := range []string{"", "Anresis", "unknown"} {
		_, err := LookupEngine(name)
		assert.ErrorIs(t, err, ErrUnknownEngine, "name %q", name)
	}
}

func TestHasEngine(t *testing.T) {
	for _, name := range Engines() {
		assert.True(t, HasEngine(string(name)))
	}
	assert.False(t, HasEngine("unknown"))
}

func TestOpenSource(t *testing.T) {
	src, err := OpenSource(source.Options{Type: source.TypeLocal, File: "/tmp/export.csv"}, nil)
	require.NoError(t, err)
	assert.NoError(t, src.Close())

	_, err = OpenSource(source.Options{Type: source.TypeLocal}, nil)
	assert.ErrorIs(t, err, source.ErrFileRequired)

	_, err = OpenSource(source.Options{File: "/export.csv"}, nil)
	assert.ErrorIs(t, err, source.ErrHostRequired, "type defaults to sftp")

	_, err = OpenSource(source.Options{Type: "ftp", File: "/export.csv"}, nil)
	assert.ErrorIs(t, err, source.ErrUnknownType)
}
