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

// Package local reads an export from the local filesystem.
package local

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/importagent/source"
)

// Source is a file on local disk.
type Source struct {
	path string
}

var _ source.Source = (*Source)(nil)

// New creates a Source for path.
func New(path string) (*Source, error) {
	if path == "" {
		return nil, source.ErrFileRequired
	}
	return &Source{path: path}, nil
}

// Stat returns the file's size and modification time.
func (s *Source) Stat(ctx context.Context) (source.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return source.Metadata{}, err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return source.Metadata{}, err
	}
	if info.IsDir() {
		return source.Metadata{}, fmt.Errorf("%s is a directory", s.path)
	}
	return source.Metadata{Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

// Open opens the file for reading.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(s.path)
}

// Close is a no-op.
func (s *Source) Close() error {
	return nil
}
