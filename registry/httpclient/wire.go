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

package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/poiesic/importagent/core"
)

type createVersionRequest struct {
	DataSet       string   `json:"dataSet"`
	DataSetFields []string `json:"dataSetFields"`
	SourceHash    string   `json:"sourceHash"`
}

type createVersionResponse struct {
	ID versionID `json:"id"`
}

// versionID accepts both numeric and string ids.
type versionID string

func (v *versionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = versionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("version id is neither string nor number: %s", b)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("version id is not an integer: %s", n)
	}
	*v = versionID(n.String())
	return nil
}

type statusRequest struct {
	Status string `json:"status"`
}

type record struct {
	Bacterium      string `json:"bacterium"`
	Antibiotic     string `json:"antibiotic"`
	AgeGroup       string `json:"ageGroup"`
	Region         string `json:"region"`
	SampleDate     string `json:"sampleDate"`
	Resistance     string `json:"resistance"`
	HospitalStatus string `json:"hospitalStatus"`
	SampleID       string `json:"sampleId"`
}

func toWireRecords(page []core.NormalizedRecord) []record {
	out := make([]record, len(page))
	for i, r := range page {
		out[i] = record{
			Bacterium:      r.Bacterium,
			Antibiotic:     r.Antibiotic,
			AgeGroup:       r.AgeGroup,
			Region:         r.Region,
			SampleDate:     r.SampleDate.UTC().Format(time.RFC3339),
			Resistance:     r.Resistance,
			HospitalStatus: r.HospitalStatus,
			SampleID:       r.SampleID,
		}
	}
	return out
}

type failedRecord struct {
	FailedResource  string `json:"failedResource"`
	FailedProperty  string `json:"failedProperty"`
	UnresolvedValue string `json:"unresolvedValue"`
}

type pageResponse struct {
	ImportedRecordCount  int            `json:"importedRecordCount"`
	DuplicateRecordCount int            `json:"duplicateRecordCount"`
	FailedRecordCount    int            `json:"failedRecordCount"`
	FailedRecords        []failedRecord `json:"failedRecords"`
}

func (p pageResponse) toPageResult() core.PageResult {
	result := core.PageResult{
		Imported:  p.ImportedRecordCount,
		Duplicate: p.DuplicateRecordCount,
		Failed:    p.FailedRecordCount,
	}
	if len(p.FailedRecords) > 0 {
		result.FailedRecords = make([]core.FailedRecord, len(p.FailedRecords))
		for i, fr := range p.FailedRecords {
			result.FailedRecords[i] = core.FailedRecord{
				Resource:        fr.FailedResource,
				Property:        fr.FailedProperty,
				UnresolvedValue: fr.UnresolvedValue,
			}
		}
	}
	return result
}
