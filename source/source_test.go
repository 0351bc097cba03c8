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

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{Host: "sftp.example.org", File: "/upload/export.csv"}.WithDefaults()
	assert.Equal(t, TypeSFTP, opts.Type)
	assert.Equal(t, 22, opts.Port)

	local := Options{Type: TypeLocal, File: "export.csv"}.WithDefaults()
	assert.Zero(t, local.Port)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "sftp", opts: Options{Type: TypeSFTP, Host: "h", Port: 22, File: "/f"}},
		{name: "local", opts: Options{Type: TypeLocal, File: "f"}},
		{name: "missing file", opts: Options{Type: TypeLocal}, wantErr: ErrFileRequired},
		{name: "missing host", opts: Options{Type: TypeSFTP, Port: 22, File: "/f"}, wantErr: ErrHostRequired},
		{name: "unknown type", opts: Options{Type: "ftp", File: "/f"}, wantErr: ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Error(t, Options{Type: TypeSFTP, Host: "h", Port: 70000, File: "/f"}.Validate())
}

func TestOptions_Merge(t *testing.T) {
	base := Options{Type: TypeSFTP, Host: "prod", Port: 22, User: "infect", Password: "secret", File: "/upload/a.csv"}
	merged := base.Merge(Options{Host: "staging", File: "/upload/b.csv"})

	assert.Equal(t, "staging", merged.Host)
	assert.Equal(t, "/upload/b.csv", merged.File)
	assert.Equal(t, "infect", merged.User)
	assert.Equal(t, "secret", merged.Password)
	assert.Equal(t, 22, merged.Port)
}

func TestOptions_StringHidesSecrets(t *testing.T) {
	opts := Options{Type: TypeSFTP, Host: "h", Port: 22, User: "u", Password: "hunter2", File: "/f"}
	assert.Equal(t, "sftp://u@h:22/f", opts.String())
	assert.NotContains(t, opts.String(), "hunter2")
}
