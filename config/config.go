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

// Package config loads the import agent configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/importagent/ingestion"
	"github.com/poiesic/importagent/registry/httpclient"
	"github.com/poiesic/importagent/scheduler"
	"github.com/poiesic/importagent/upload"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IMPORT_AGENT_"

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the full import agent configuration.
type Config struct {
	LogLevel  string               `yaml:"logLevel"`
	LogFormat string               `yaml:"logFormat"`
	Registry  RegistryConfig       `yaml:"registry"`
	Upload    UploadConfig         `yaml:"upload"`
	Stream    StreamConfig         `yaml:"stream"`
	Ledger    LedgerConfig         `yaml:"ledger"`
	HTTP      HTTPConfig           `yaml:"http"`
	Schedules []scheduler.Schedule `yaml:"schedules"`
}

// RegistryConfig locates the storage and import services.
type RegistryConfig struct {
	StorageURL string        `yaml:"storageUrl"`
	ImportURL  string        `yaml:"importUrl"`
	Resource   string        `yaml:"resource"`
	Timeout    time.Duration `yaml:"timeout"`
}

// UploadConfig holds the paging parameters.
type UploadConfig struct {
	PageSize     int     `yaml:"pageSize"`
	MaxWorkers   int     `yaml:"maxWorkers"`
	RateLimitRPS float64 `yaml:"rateLimitRps"`
}

// StreamConfig holds the source read parameters.
type StreamConfig struct {
	ChunkSize int `yaml:"chunkSize"`
}

// LedgerConfig locates the run ledger.
type LedgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"inMemory"`
}

// HTTPConfig configures the manual trigger endpoint.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultConfig returns the defaults every loaded file is applied over.
func DefaultConfig() *Config {
	uploads := upload.DefaultConfig()
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Registry: RegistryConfig{
			Resource: httpclient.DefaultResource,
			Timeout:  httpclient.DefaultTimeout,
		},
		Upload: UploadConfig{
			PageSize:   uploads.PageSize,
			MaxWorkers: uploads.MaxWorkers,
		},
		Stream: StreamConfig{
			ChunkSize: ingestion.DefaultChunkSize,
		},
		Ledger: LedgerConfig{
			Path: "importagent.db",
		},
		HTTP: HTTPConfig{
			Listen: ":8080",
		},
	}
}

// Load reads path, expands ${VAR} references, applies the environment
// overrides and validates the result. An empty path yields the defaults
// with the environment applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from IMPORT_AGENT_* variables.
func (c *Config) applyEnv() {
	c.LogLevel = getEnvStr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvStr("LOG_FORMAT", c.LogFormat)
	c.Registry.StorageURL = getEnvStr("STORAGE_URL", c.Registry.StorageURL)
	c.Registry.ImportURL = getEnvStr("IMPORT_URL", c.Registry.ImportURL)
	c.Registry.Resource = getEnvStr("RESOURCE", c.Registry.Resource)
	c.Registry.Timeout = getEnvDuration("REGISTRY_TIMEOUT", c.Registry.Timeout)
	c.Upload.PageSize = getEnvInt("PAGE_SIZE", c.Upload.PageSize)
	c.Upload.MaxWorkers = getEnvInt("MAX_WORKERS", c.Upload.MaxWorkers)
	c.Upload.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", c.Upload.RateLimitRPS)
	c.Stream.ChunkSize = getEnvInt("CHUNK_SIZE", c.Stream.ChunkSize)
	c.Ledger.Path = getEnvStr("LEDGER_PATH", c.Ledger.Path)
	c.Ledger.InMemory = getEnvBool("LEDGER_IN_MEMORY", c.Ledger.InMemory)
	c.HTTP.Listen = getEnvStr("LISTEN", c.HTTP.Listen)
}

// Validate checks that values are sane. Registry URLs are checked when the
// client is built, since not every command talks to the registry.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logFormat must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.Registry.Timeout < 0 {
		return fmt.Errorf("%w: registry.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Upload.PageSize <= 0 {
		return fmt.Errorf("%w: upload.pageSize must be > 0", ErrInvalidConfig)
	}
	if c.Upload.MaxWorkers <= 0 {
		return fmt.Errorf("%w: upload.maxWorkers must be > 0", ErrInvalidConfig)
	}
	if c.Upload.RateLimitRPS < 0 {
		return fmt.Errorf("%w: upload.rateLimitRps must not be negative", ErrInvalidConfig)
	}
	if c.Stream.ChunkSize <= 0 {
		return fmt.Errorf("%w: stream.chunkSize must be > 0", ErrInvalidConfig)
	}
	if c.Ledger.Path == "" && !c.Ledger.InMemory {
		return fmt.Errorf("%w: ledger.path is required unless ledger.inMemory is set", ErrInvalidConfig)
	}
	for i, s := range c.Schedules {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: schedules[%d]: %w", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

// UploadSettings returns the paging parameters for upload.NewUploader.
func (c *Config) UploadSettings() upload.Config {
	return upload.Config{
		PageSize:     c.Upload.PageSize,
		MaxWorkers:   c.Upload.MaxWorkers,
		RateLimitRPS: c.Upload.RateLimitRPS,
	}
}

// ClientSettings returns the registry client configuration.
func (c *Config) ClientSettings() httpclient.Config {
	return httpclient.Config{
		StorageURL: c.Registry.StorageURL,
		ImportURL:  c.Registry.ImportURL,
		Resource:   c.Registry.Resource,
		Timeout:    c.Registry.Timeout,
	}
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
