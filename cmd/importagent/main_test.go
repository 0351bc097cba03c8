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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"importagent"}, args...))
	return stdout.String(), err
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestApp_Commands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"serve", "run", "fingerprint", "history"} {
		assert.NotNil(t, findCommand(t, app, name))
	}
}

func TestRunCommand_Flags(t *testing.T) {
	cmd := findCommand(t, newApp(), "run")

	t.Run("engine defaults to anresis", func(t *testing.T) {
		var engineFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "engine" {
				engineFlag = f
				break
			}
		}
		require.NotNil(t, engineFlag)
		assert.Equal(t, "anresis", engineFlag.Value)
	})

	t.Run("schedule defaults to none", func(t *testing.T) {
		var scheduleFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "schedule" {
				scheduleFlag = f
				break
			}
		}
		require.NotNil(t, scheduleFlag)
		assert.Equal(t, -1, scheduleFlag.Value)
	})

	t.Run("password can come from the environment", func(t *testing.T) {
		var passwordFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "password" {
				passwordFlag = f
				break
			}
		}
		require.NotNil(t, passwordFlag)
		assert.Equal(t, []string{"IMPORT_AGENT_SFTP_PASSWORD"}, passwordFlag.EnvVars)
	})
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	_, err := runApp(t, "--log-level", "loud", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestSetupLogger_InvalidFormat(t *testing.T) {
	_, err := runApp(t, "--log-format", "xml", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestRunCommand_RequiresDataSet(t *testing.T) {
	_, err := runApp(t, "run", "--type", "local", "--file", "/tmp/export.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--data-set")
}

func TestFingerprintCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("header\nrow\n"), 0o644))
	mtime := time.Date(2024, 2, 1, 6, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	out, err := runApp(t, "fingerprint", "--type", "local", "--file", path)
	require.NoError(t, err)

	assert.Contains(t, out, core.NewFingerprint(11, mtime).String())
	assert.Contains(t, out, "11 bytes")
	assert.Contains(t, out, "2024-02-01T06:30:00Z")
}

func TestFingerprintCommand_MissingFile(t *testing.T) {
	_, err := runApp(t, "fingerprint", "--type", "local", "--file", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)
}

func TestHistoryCommand(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "ledger")

	backend, err := badger.OpenBackend(ledger, false)
	require.NoError(t, err)
	runs, err := badger.NewRunRepository(backend)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)
	require.NoError(t, runs.SaveRun(context.Background(), &core.ImportRun{
		ID:          "run-1",
		ImportName:  "anresis",
		DataSetName: "infect",
		VersionID:   "17",
		Outcome:     core.OutcomeImported,
		StartedAt:   start,
		FinishedAt:  start.Add(90 * time.Second),
		Stats:       core.ImportStats{Imported: 8, Duplicate: 1, Failed: 2},
	}))
	require.NoError(t, runs.SaveRun(context.Background(), &core.ImportRun{
		ID:          "run-2",
		ImportName:  "anresis",
		DataSetName: "infect",
		Outcome:     core.OutcomeFailed,
		Error:       "upload failed",
		StartedAt:   start.Add(6 * time.Hour),
		FinishedAt:  start.Add(6*time.Hour + time.Second),
	}))
	require.NoError(t, runs.Close())
	require.NoError(t, backend.Close())

	out, err := runApp(t, "history", "--ledger", ledger)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "OUTCOME")
	assert.Contains(t, string(lines[1]), "failed")
	assert.Contains(t, string(lines[1]), "upload failed")
	assert.Contains(t, string(lines[2]), "imported")
	assert.Contains(t, string(lines[2]), "17")
	assert.Contains(t, string(lines[2]), "1m30s")
}
