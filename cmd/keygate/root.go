// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Keygate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygate",
		Short: "Keygate - identity and access service",
		Long: `Keygate registers accounts, authenticates users against salted
one-way password digests, and grants access to protected resources
via signed, expiring bearer tokens.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
