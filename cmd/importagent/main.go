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
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/importagent"
	"github.com/poiesic/importagent/config"
	"github.com/poiesic/importagent/importer"
	"github.com/poiesic/importagent/source"
	"github.com/poiesic/importagent/storage/badger"
	"github.com/urfave/cli/v2"
)

// shutdownTimeout bounds how long serve waits for running imports on exit.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "importagent",
		Usage: "Import resistance exports into the sample registry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, json)",
				Value: "text",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the scheduler and the manual import endpoint",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address for the HTTP endpoint (overrides http.listen)",
					},
				},
			},
			{
				Name:   "run",
				Usage:  "Run one import now",
				Action: runCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "engine",
						Aliases: []string{"e"},
						Usage:   "Import engine",
						Value:   string(importer.EngineAnresis),
					},
					&cli.StringFlag{
						Name:  "data-set",
						Usage: "Data set to import into",
					},
					&cli.IntFlag{
						Name:  "schedule",
						Usage: "Run the configured schedule at this index, source flags override its options",
						Value: -1,
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report read progress on stderr",
					},
				}, sourceFlags()...),
			},
			{
				Name:   "fingerprint",
				Usage:  "Print the content fingerprint of a source file",
				Action: fingerprintCommand,
				Flags:  sourceFlags(),
			},
			{
				Name:   "history",
				Usage:  "List recorded import runs",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "ledger",
						Aliases: []string{"d"},
						Usage:   "Path to the run ledger directory (overrides ledger.path)",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Only list runs of this engine",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
				},
			},
		},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "type",
			Usage: "Source type (sftp, local)",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Path of the export file",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "SFTP host",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "SFTP port",
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "SFTP user",
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "SFTP password",
			EnvVars: []string{config.EnvPrefix + "SFTP_PASSWORD"},
		},
		&cli.StringFlag{
			Name:  "private-key-file",
			Usage: "SFTP private key file",
		},
		&cli.StringFlag{
			Name:  "known-hosts",
			Usage: "known_hosts file used to verify the SFTP host",
		},
	}
}

// sourceOptions collects the source flags. Unset flags stay zero so the
// result can be merged over configured options.
func sourceOptions(c *cli.Context) source.Options {
	return source.Options{
		Type:           c.String("type"),
		Host:           c.String("host"),
		Port:           c.Int("port"),
		User:           c.String("user"),
		Password:       c.String("password"),
		PrivateKeyFile: c.String("private-key-file"),
		KnownHostsFile: c.String("known-hosts"),
		File:           c.String("file"),
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if listen := c.String("listen"); listen != "" {
		cfg.HTTP.Listen = listen
	}

	agent, err := importagent.NewAgent(cfg, importagent.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	defer agent.Close()

	handler, err := agent.NewServer()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent.Scheduler().Start()
	slog.Info("import agent started", "listen", cfg.HTTP.Listen, "schedules", len(cfg.Schedules))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			stopScheduler(agent)
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "err", err)
	}
	stopScheduler(agent)
	return nil
}

func stopScheduler(agent *importagent.Agent) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := agent.Scheduler().Stop(ctx); err != nil {
		slog.Warn("running imports canceled", "err", err)
	}
}

func runCommand(c *cli.Context) error {
	index := c.Int("schedule")
	if index < 0 && c.String("data-set") == "" {
		return fmt.Errorf("--data-set is required unless --schedule is given")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	opts := []importagent.AgentOption{importagent.WithLogger(slog.Default())}
	if c.Bool("progress") {
		opts = append(opts, importagent.WithProgress(c.App.ErrWriter))
	}
	agent, err := importagent.NewAgent(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	defer agent.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *importer.Result
	if index >= 0 {
		result, err = agent.Scheduler().RunJobAtIndex(ctx, index, sourceOptions(c))
	} else {
		result, err = agent.Importer().RunImport(ctx, c.String("engine"), c.String("data-set"), sourceOptions(c))
	}
	if err != nil {
		return err
	}

	printResult(c, result)
	return nil
}

func printResult(c *cli.Context, result *importer.Result) {
	w := c.App.Writer
	fmt.Fprintf(w, "Run:         %s\n", result.RunID)
	fmt.Fprintf(w, "Outcome:     %s\n", result.Outcome)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	if result.VersionID != "" {
		fmt.Fprintf(w, "Version:     %s\n", result.VersionID)
	}
	fmt.Fprintf(w, "Records:     %d imported, %d duplicate, %d failed\n",
		result.Stats.Imported, result.Stats.Duplicate, result.Stats.Failed)
	for key, values := range result.Stats.FailedValues {
		for value, count := range values {
			fmt.Fprintf(w, "  unresolved %s %q: %d\n", key, value, count)
		}
	}
	fmt.Fprintf(w, "Duration:    %s\n", result.Duration().Round(time.Millisecond))
}

func fingerprintCommand(c *cli.Context) error {
	opts := sourceOptions(c)
	src, err := importer.OpenSource(opts, slog.Default())
	if err != nil {
		return err
	}
	defer src.Close()

	fp, meta, err := source.Fingerprint(c.Context, src)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.WithDefaults(), err)
	}

	fmt.Fprintf(c.App.Writer, "%s  %d bytes  %s\n", fp, meta.Size, meta.ModifiedAt.UTC().Format(time.RFC3339))
	return nil
}

func historyCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if ledger := c.String("ledger"); ledger != "" {
		cfg.Ledger.Path = ledger
		cfg.Ledger.InMemory = false
	}

	backend, err := badger.OpenBackendWithLogger(cfg.Ledger.Path, cfg.Ledger.InMemory, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer backend.Close()

	runs, err := badger.NewRunRepository(backend)
	if err != nil {
		return err
	}
	defer runs.Close()

	history, err := runs.ListRuns(c.Context, c.String("name"), c.Int("limit"))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tENGINE\tDATA SET\tOUTCOME\tVERSION\tIMPORTED\tDUPLICATE\tFAILED\tDURATION\tERROR")
	for _, run := range history {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.StartedAt.Format(time.RFC3339),
			run.ImportName,
			run.DataSetName,
			run.Outcome,
			dash(run.VersionID),
			run.Stats.Imported,
			run.Stats.Duplicate,
			run.Stats.Failed,
			run.Duration().Round(time.Second),
			dash(run.Error))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// loadConfig loads the configuration named by --config. The configured log
// level applies unless --log-level was given.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	level, format := cfg.LogLevel, cfg.LogFormat
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		format = c.String("log-format")
	}
	if err := installLogger(c, level, format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(c *cli.Context) error {
	return installLogger(c, c.String("log-level"), c.String("log-format"))
}

func installLogger(c *cli.Context, levelStr, format string) error {
	level, err := config.ParseLogLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(c.App.ErrWriter, opts)
	case "text", "":
		handler = slog.NewTextHandler(c.App.ErrWriter, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
