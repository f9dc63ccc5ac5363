// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package config loads Keygate configuration from an optional YAML file,
// command-line flags, and environment fallbacks. The resulting Config
// value is passed explicitly into every constructor; nothing reads
// ambient global state after startup.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the process configuration.
type Config struct {
	// ListenAddr is the HTTP API listen address.
	ListenAddr string `koanf:"listen_addr"`

	// MetricsAddr is the observability (metrics + health) listen address.
	MetricsAddr string `koanf:"metrics_addr"`

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string `koanf:"database_url"`

	// TokenSecret signs identity tokens. It must stay constant for the
	// process lifetime or previously issued tokens stop verifying.
	TokenSecret string `koanf:"token_secret"`

	// TokenTTL is the identity token validity window.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		ListenAddr:  ":5000",
		MetricsAddr: "127.0.0.1:9100",
		TokenTTL:    time.Hour,
		LogFormat:   "json",
	}
}

// Load builds a Config from defaults, then the YAML file at path (if
// path is non-empty), then any flags set on flags. DATABASE_URL and
// KEYGATE_TOKEN_SECRET environment variables fill in those fields when
// nothing else has.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_READ_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		// Flag names use dashes; config keys use underscores.
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = os.Getenv("KEYGATE_TOKEN_SECRET")
	}

	return cfg, nil
}

// ValidateForServe checks the fields the serve command cannot run
// without.
func (c Config) ValidateForServe() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required (or set DATABASE_URL)")
	}
	if c.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("token_secret is required (or set KEYGATE_TOKEN_SECRET)")
	}
	if c.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("token_ttl must be positive")
	}
	return nil
}
