// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/internal/logging"
	"github.com/sheetshelf/sheetshelf/internal/xdg"
)

// Config is the merged runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Log      LogConfig      `koanf:"log"`
}

// HTTPConfig configures the JSON API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL         string `koanf:"url"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	Secret string `koanf:"secret"`
	// TokenTTL of zero issues tokens without expiry.
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// CatalogConfig configures the external music catalog. An empty base URL
// disables enrichment.
type CatalogConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	Concurrency int           `koanf:"concurrency"`
}

// LogConfig configures the default logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Default values for configuration keys.
const (
	defaultHTTPAddr           = ":8080"
	defaultMetricsAddr        = "127.0.0.1:9100"
	defaultCatalogTimeout     = 5 * time.Second
	defaultLogFormat          = "json"
	defaultLogLevel           = "info"
	defaultCatalogConcurrency = library.DefaultEnrichConcurrency
)

var defaults = map[string]any{
	"http.addr":             defaultHTTPAddr,
	"metrics.addr":          defaultMetricsAddr,
	"database.url":          "",
	"database.auto_migrate": true,
	"auth.secret":           "",
	"auth.token_ttl":        time.Duration(0),
	"catalog.base_url":      "",
	"catalog.timeout":       defaultCatalogTimeout,
	"catalog.concurrency":   defaultCatalogConcurrency,
	"log.format":            defaultLogFormat,
	"log.level":             defaultLogLevel,
}

// envKeys maps environment variables onto config keys. Later entries win,
// so SHEETSHELF_DATABASE_URL overrides the conventional DATABASE_URL.
var envKeys = []struct {
	name string
	key  string
}{
	{"DATABASE_URL", "database.url"},
	{"SHEETSHELF_DATABASE_URL", "database.url"},
	{"SHEETSHELF_DATABASE_AUTO_MIGRATE", "database.auto_migrate"},
	{"SHEETSHELF_HTTP_ADDR", "http.addr"},
	{"SHEETSHELF_METRICS_ADDR", "metrics.addr"},
	{"SHEETSHELF_AUTH_SECRET", "auth.secret"},
	{"SHEETSHELF_AUTH_TOKEN_TTL", "auth.token_ttl"},
	{"SHEETSHELF_CATALOG_BASE_URL", "catalog.base_url"},
	{"SHEETSHELF_CATALOG_TIMEOUT", "catalog.timeout"},
	{"SHEETSHELF_CATALOG_CONCURRENCY", "catalog.concurrency"},
	{"SHEETSHELF_LOG_FORMAT", "log.format"},
	{"SHEETSHELF_LOG_LEVEL", "log.level"},
}

// flagKeys maps command-line flags onto config keys. Flags not listed here
// are not configuration.
var flagKeys = map[string]string{
	"http-addr":           "http.addr",
	"metrics-addr":        "metrics.addr",
	"database-url":        "database.url",
	"auto-migrate":        "database.auto_migrate",
	"catalog-url":         "catalog.base_url",
	"catalog-timeout":     "catalog.timeout",
	"catalog-concurrency": "catalog.concurrency",
	"log-format":          "log.format",
	"log-level":           "log.level",
}

// loadConfig layers defaults, the YAML file at path, the dotenv file, the
// environment and explicitly set flags, in that order. An empty path falls
// back to $XDG_CONFIG_HOME/sheetshelf/config.yaml when that file exists.
func loadConfig(path, dotenv string, flags *pflag.FlagSet) (*Config, error) {
	if path == "" {
		path = xdg.ExistingConfigFile()
	}

	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if dotenv != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", dotenv).Wrap(err)
		}
	}

	for _, e := range envKeys {
		if value, ok := os.LookupEnv(e.name); ok && value != "" {
			if err := k.Set(e.key, value); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("env", e.name).Wrap(err)
			}
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return &cfg, nil
}

// Validate checks everything the server needs to start.
func (c *Config) Validate() error {
	if err := c.requireDatabase(); err != nil {
		return err
	}
	if c.Auth.Secret == "" {
		return oops.Code("CONFIG_INVALID").With("key", "auth.secret").
			Errorf("auth.secret is required (set SHEETSHELF_AUTH_SECRET)")
	}
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "http.addr").Errorf("http.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").With("key", "log.format").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "log.level").
			Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Catalog.Timeout <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", "catalog.timeout").Errorf("catalog.timeout must be positive")
	}
	if c.Catalog.Concurrency <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", "catalog.concurrency").Errorf("catalog.concurrency must be positive")
	}
	if c.Auth.TokenTTL < 0 {
		return oops.Code("CONFIG_INVALID").With("key", "auth.token_ttl").Errorf("auth.token_ttl must not be negative")
	}
	return nil
}

func (c *Config) requireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("key", "database.url").
			Errorf("database.url is required (set DATABASE_URL)")
	}
	return nil
}

// bindConfigFlags registers the flags listed in flagKeys that apply to a
// command. Their defaults mirror the config defaults.
func bindConfigFlags(flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		switch name {
		case "http-addr":
			flags.String(name, defaultHTTPAddr, "API listen address")
		case "metrics-addr":
			flags.String(name, defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
		case "database-url":
			flags.String(name, "", "PostgreSQL connection URL")
		case "auto-migrate":
			flags.Bool(name, true, "apply pending migrations on startup")
		case "catalog-url":
			flags.String(name, "", "music catalog base URL (empty = no enrichment)")
		case "catalog-timeout":
			flags.Duration(name, defaultCatalogTimeout, "per-lookup catalog timeout")
		case "catalog-concurrency":
			flags.Int(name, defaultCatalogConcurrency, "maximum concurrent catalog lookups per request")
		case "log-format":
			flags.String(name, defaultLogFormat, "log format (json or text)")
		case "log-level":
			flags.String(name, defaultLogLevel, "log level (debug, info, warn, error)")
		}
	}
}
