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

// Package source abstracts the remote file an import reads from.
//
// A Source exposes the file's metadata, used to fingerprint a content
// version, and opens it as a byte stream. Closing the returned reader
// aborts an in-progress transfer.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/importagent/core"
)

// Kinds of sources Options can describe.
const (
	TypeSFTP  = "sftp"
	TypeLocal = "local"
)

var (
	// ErrFileRequired is returned when Options has no file path.
	ErrFileRequired = errors.New("source file path required")

	// ErrHostRequired is returned when a remote source has no host.
	ErrHostRequired = errors.New("source host required")

	// ErrUnknownType is returned for an unsupported source type.
	ErrUnknownType = errors.New("unknown source type")
)

// Metadata is what a source reports about its file.
type Metadata struct {
	Size       int64
	ModifiedAt time.Time
}

// Source is a remote file resource.
type Source interface {
	// Stat returns the current size and modification time of the file.
	Stat(ctx context.Context) (Metadata, error)

	// Open returns an ordered byte stream over the file. Closing it before
	// EOF abandons the transfer.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Close releases connections held by the source.
	Close() error
}

// Options describes where the export lives and how to reach it.
type Options struct {
	Type           string `yaml:"type" json:"type"`
	Host           string `yaml:"host" json:"host"`
	Port           int    `yaml:"port" json:"port"`
	User           string `yaml:"user" json:"user"`
	Password       string `yaml:"password" json:"password"`
	PrivateKey     string `yaml:"privateKey" json:"privateKey"`
	PrivateKeyFile string `yaml:"privateKeyFile" json:"privateKeyFile"`
	KnownHostsFile string `yaml:"knownHostsFile" json:"knownHostsFile"`
	File           string `yaml:"file" json:"file"`
}

// WithDefaults fills in the source type and SSH port.
func (o Options) WithDefaults() Options {
	if o.Type == "" {
		o.Type = TypeSFTP
	}
	if o.Type == TypeSFTP && o.Port == 0 {
		o.Port = 22
	}
	return o
}

// Validate checks that the options describe a reachable file.
func (o Options) Validate() error {
	if o.File == "" {
		return ErrFileRequired
	}
	switch o.Type {
	case TypeLocal:
		return nil
	case TypeSFTP:
		if o.Host == "" {
			return ErrHostRequired
		}
		if o.Port < 1 || o.Port > 65535 {
			return fmt.Errorf("invalid port %d", o.Port)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, o.Type)
	}
}

// Merge returns o with every non-zero field of override applied.
func (o Options) Merge(override Options) Options {
	if override.Type != "" {
		o.Type = override.Type
	}
	if override.Host != "" {
		o.Host = override.Host
	}
	if override.Port != 0 {
		o.Port = override.Port
	}
	if override.User != "" {
		o.User = override.User
	}
	if override.Password != "" {
		o.Password = override.Password
	}
	if override.PrivateKey != "" {
		o.PrivateKey = override.PrivateKey
	}
	if override.PrivateKeyFile != "" {
		o.PrivateKeyFile = override.PrivateKeyFile
	}
	if override.KnownHostsFile != "" {
		o.KnownHostsFile = override.KnownHostsFile
	}
	if override.File != "" {
		o.File = override.File
	}
	return o
}

// String describes the source without credentials.
func (o Options) String() string {
	if o.Type == TypeLocal {
		return "local:" + o.File
	}
	return fmt.Sprintf("%s://%s@%s:%d%s", o.Type, o.User, o.Host, o.Port, o.File)
}

// Fingerprint computes the content fingerprint of the file behind src and
// returns the metadata it was derived from. Failing to read the metadata
// yields core.ErrSourceUnavailable.
func Fingerprint(ctx context.Context, src Source) (core.Fingerprint, Metadata, error) {
	meta, err := src.Stat(ctx)
	if err != nil {
		return "", Metadata{}, fmt.Errorf("%w: stat: %w", core.ErrSourceUnavailable, err)
	}
	return core.NewFingerprint(meta.Size, meta.ModifiedAt), meta, nil
}
