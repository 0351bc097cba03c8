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
	"log/slog"

	"github.com/poiesic/importagent/source"
	"github.com/poiesic/importagent/source/local"
	sftpsource "github.com/poiesic/importagent/source/sftp"
)

// SourceFactory builds a Source from options.
type SourceFactory func(opts source.Options, logger *slog.Logger) (source.Source, error)

// OpenSource is the default SourceFactory. It applies defaults, validates
// the options and returns a local or SFTP source.
func OpenSource(opts source.Options, logger *slog.Logger) (source.Source, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	switch opts.Type {
	case source.TypeLocal:
		src, err := local.New(opts.File)
		if err != nil {
			return nil, err
		}
		return src, nil
	case source.TypeSFTP:
		src, err := sftpsource.New(opts, sftpsource.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: %q", source.ErrUnknownType, opts.Type)
	}
}
