// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/auth/postgres"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/logging"
	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/internal/store"
	"github.com/keygate/keygate/internal/web"
)

// shutdownTimeout bounds graceful shutdown of both HTTP servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the identity API server",
		Long: `Start the HTTP API server handling registration, login, and
token-gated protected routes, plus a separate observability listener
for metrics and health probes.`,
		RunE: runServe,
	}

	cmd.Flags().String("listen-addr", "", "HTTP API listen address")
	cmd.Flags().String("metrics-addr", "", "metrics and health listen address")
	cmd.Flags().String("database-url", "", "PostgreSQL connection string")
	cmd.Flags().String("token-secret", "", "identity token signing secret")
	cmd.Flags().Duration("token-ttl", 0, "identity token time-to-live")
	cmd.Flags().String("log-format", "", "log format: json or text")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	logging.SetDefault("keygate", version, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	obs := observability.NewServer(cfg.MetricsAddr, databaseReady(pool))
	obsErrCh, err := obs.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
	}

	tokens, err := auth.NewTokenService([]byte(cfg.TokenSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}

	svc, err := auth.NewService(postgres.NewAccountRepository(pool), auth.NewArgon2idHasher(), tokens)
	if err != nil {
		return err
	}

	api, err := web.NewServer(web.Config{
		Addr:    cfg.ListenAddr,
		Auth:    svc,
		Tokens:  tokens,
		Metrics: obs.Metrics(),
	})
	if err != nil {
		return err
	}

	apiErrCh, err := api.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "start api server").Wrap(err)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err = <-apiErrCh:
	case err = <-obsErrCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if stopErr := api.Stop(shutdownCtx); stopErr != nil && err == nil {
		err = stopErr
	}
	if stopErr := obs.Stop(shutdownCtx); stopErr != nil && err == nil {
		err = stopErr
	}

	return err
}

// databaseReady reports readiness from a quick connectivity check.
func databaseReady(pool *pgxpool.Pool) observability.ReadinessChecker {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	}
}
