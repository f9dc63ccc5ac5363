// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/config"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keygate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func serveFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("listen-addr", ":5000", "")
	flags.String("metrics-addr", "127.0.0.1:9100", "")
	flags.String("database-url", "", "")
	flags.String("token-secret", "", "")
	flags.Duration("token-ttl", time.Hour, "")
	flags.String("log-format", "json", "")
	return flags
}

func TestLoad(t *testing.T) {
	t.Run("defaults without file or flags", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("KEYGATE_TOKEN_SECRET", "")

		cfg, err := config.Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, ":5000", cfg.ListenAddr)
		assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
		assert.Equal(t, time.Hour, cfg.TokenTTL)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Empty(t, cfg.DatabaseURL)
		assert.Empty(t, cfg.TokenSecret)
	})

	t.Run("reads YAML file", func(t *testing.T) {
		path := writeConfigFile(t, `
listen_addr: ":8080"
database_url: "postgres://localhost/keygate"
token_secret: "file-secret"
token_ttl: "30m"
log_format: "text"
`)

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.ListenAddr)
		assert.Equal(t, "postgres://localhost/keygate", cfg.DatabaseURL)
		assert.Equal(t, "file-secret", cfg.TokenSecret)
		assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
		assert.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.Error(t, err)
	})

	t.Run("changed flags override the file", func(t *testing.T) {
		path := writeConfigFile(t, `
listen_addr: ":8080"
token_secret: "file-secret"
`)

		flags := serveFlags()
		require.NoError(t, flags.Parse([]string{"--listen-addr", ":9999", "--token-ttl", "15m"}))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.ListenAddr)
		assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
		assert.Equal(t, "file-secret", cfg.TokenSecret)
	})

	t.Run("unchanged flags do not clobber the file", func(t *testing.T) {
		path := writeConfigFile(t, `
listen_addr: ":8080"
`)

		flags := serveFlags()
		require.NoError(t, flags.Parse(nil))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.ListenAddr)
	})

	t.Run("environment fills database URL and token secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env/keygate")
		t.Setenv("KEYGATE_TOKEN_SECRET", "env-secret")

		cfg, err := config.Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://env/keygate", cfg.DatabaseURL)
		assert.Equal(t, "env-secret", cfg.TokenSecret)
	})

	t.Run("file wins over environment", func(t *testing.T) {
		t.Setenv("KEYGATE_TOKEN_SECRET", "env-secret")
		path := writeConfigFile(t, `
token_secret: "file-secret"
`)

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "file-secret", cfg.TokenSecret)
	})
}

func TestConfig_ValidateForServe(t *testing.T) {
	valid := config.Default()
	valid.DatabaseURL = "postgres://localhost/keygate"
	valid.TokenSecret = "secret"

	t.Run("accepts complete config", func(t *testing.T) {
		assert.NoError(t, valid.ValidateForServe())
	})

	t.Run("requires database URL", func(t *testing.T) {
		cfg := valid
		cfg.DatabaseURL = ""
		err := cfg.ValidateForServe()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database_url")
	})

	t.Run("requires token secret", func(t *testing.T) {
		cfg := valid
		cfg.TokenSecret = ""
		err := cfg.ValidateForServe()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token_secret")
	})

	t.Run("requires positive token TTL", func(t *testing.T) {
		cfg := valid
		cfg.TokenTTL = 0
		err := cfg.ValidateForServe()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token_ttl")
	})
}
