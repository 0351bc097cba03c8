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
	"fmt"

	"github.com/poiesic/importagent/ingestion"
)

// EngineName identifies an import engine.
type EngineName string

// EngineAnresis imports the ANRESIS resistance export.
const EngineAnresis EngineName = "anresis"

// Engine describes one kind of export: the data set fields announced on
// version creation, whether the file starts with a header line, and how
// its lines are normalized.
type Engine struct {
	Name          EngineName
	Fields        []string
	HasHeader     bool
	NewNormalizer func(opts ...ingestion.NormalizerOption) ingestion.RecordNormalizer
}

// anresisFields are the columns of every record an anresis version holds.
var anresisFields = []string{
	"ageGroupId",
	"antibioticId",
	"bacteriumId",
	"hospitalStatusId",
	"regionId",
	"resistance",
	"sampleDate",
}

// LookupEngine returns the engine registered under name.
func LookupEngine(name string) (Engine, error) {
	switch EngineName(name) {
	case EngineAnresis:
		return Engine{
			Name:      EngineAnresis,
			Fields:    append([]string(nil), anresisFields...),
			HasHeader: true,
			NewNormalizer: func(opts ...ingestion.NormalizerOption) ingestion.RecordNormalizer {
				return ingestion.NewCSVNormalizer(opts...)
			},
		}, nil
	default:
		return Engine{}, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

// HasEngine reports whether an engine is registered under name.
func HasEngine(name string) bool {
	_, err := LookupEngine(name)
	return err == nil
}

// Engines lists the registered engine names.
func Engines() []EngineName {
	return []EngineName{EngineAnresis}
}
