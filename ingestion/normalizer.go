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
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/importagent/core"
)

// Column positions in the export. Extra trailing columns are ignored.
const (
	colSampleID = iota
	colRegion
	colSampleType
	colHospitalStatus
	colAgeGroup
	colBacterium
	colAntibioticClass
	colAntibiotic
	colResistance
	colSampleDate

	minColumns
)

// sampleDateLayout is DD.MM.YYYY.
const sampleDateLayout = "02.01.2006"

// saltSize is the number of random bytes mixed into every key.
const saltSize = 8

// RecordNormalizer maps a batch of lines to records. Any malformed line fails
// the whole batch with an error wrapping core.ErrMalformedInput.
type RecordNormalizer interface {
	Normalize(lines LineBatch) ([]core.NormalizedRecord, error)
}

// SaltSource returns fresh salt bytes for one idempotency key.
type SaltSource func() ([]byte, error)

// NormalizerOption configures a CSVNormalizer.
type NormalizerOption func(*CSVNormalizer)

// WithSaltSource replaces the random salt used for idempotency keys.
func WithSaltSource(salt SaltSource) NormalizerOption {
	return func(n *CSVNormalizer) {
		if salt != nil {
			n.salt = salt
		}
	}
}

// CSVNormalizer parses the ten column resistance export.
//
// The SampleID it produces is salted, so the same row normalized twice gets
// two different keys. Deduplication downstream therefore only happens within
// the content of one import version, never across re-runs.
type CSVNormalizer struct {
	salt SaltSource
}

// NewCSVNormalizer creates a normalizer for the resistance export.
func NewCSVNormalizer(opts ...NormalizerOption) *CSVNormalizer {
	n := &CSVNormalizer{salt: randomSalt}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize parses lines as CSV. Blank lines are skipped.
func (n *CSVNormalizer) Normalize(lines LineBatch) ([]core.NormalizedRecord, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	records := make([]core.NormalizedRecord, 0, len(lines))
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
		}

		line, _ := reader.FieldPos(0)
		record, err := n.normalizeRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d of batch: %w", core.ErrMalformedInput, line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (n *CSVNormalizer) normalizeRow(row []string) (core.NormalizedRecord, error) {
	if len(row) < minColumns {
		return core.NormalizedRecord{}, fmt.Errorf("expected %d columns, got %d", minColumns, len(row))
	}

	sampleDate, err := time.ParseInLocation(sampleDateLayout, strings.TrimSpace(row[colSampleDate]), time.UTC)
	if err != nil {
		return core.NormalizedRecord{}, fmt.Errorf("invalid sample date %q: %w", row[colSampleDate], err)
	}

	key, err := n.idempotencyKey(row[colSampleID], row[colBacterium], row[colAntibiotic], sampleDate)
	if err != nil {
		return core.NormalizedRecord{}, err
	}

	return core.NormalizedRecord{
		Bacterium:      row[colBacterium],
		Antibiotic:     row[colAntibiotic],
		AgeGroup:       row[colAgeGroup],
		Region:         row[colRegion],
		HospitalStatus: row[colHospitalStatus],
		Resistance:     row[colResistance],
		SampleDate:     sampleDate,
		SampleID:       key,
	}, nil
}

// idempotencyKey hashes sampleId|bacterium|antibiotic|sampleDate plus salt
// with BLAKE2b-128.
func (n *CSVNormalizer) idempotencyKey(sampleID, bacterium, antibiotic string, sampleDate time.Time) (string, error) {
	salt, err := n.salt()
	if err != nil {
		return "", fmt.Errorf("generating key salt: %w", err)
	}

	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(strings.Join([]string{sampleID, bacterium, antibiotic, sampleDate.Format(time.RFC3339)}, "|")))
	h.Write(salt)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func randomSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}
