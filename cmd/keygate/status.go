// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/keygate/keygate/internal/config"
)

// ServiceStatus holds the probe results for a running server.
type ServiceStatus struct {
	Addr  string `json:"addr"`
	Live  bool   `json:"live"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand with all flags configured.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running Keygate server",
		Long:  `Query the liveness and readiness probes of a running Keygate server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().String("metrics-addr", "", "metrics and health listen address")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, statusCfg *statusConfig) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	status := probeStatus(cfg.MetricsAddr)

	if statusCfg.jsonOutput {
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("addr:  %s\n", status.Addr)
	cmd.Printf("live:  %v\n", status.Live)
	cmd.Printf("ready: %v\n", status.Ready)
	if status.Error != "" {
		cmd.Printf("error: %s\n", status.Error)
	}
	return nil
}

// probeStatus queries the liveness and readiness endpoints.
func probeStatus(addr string) ServiceStatus {
	status := ServiceStatus{Addr: addr}
	client := &http.Client{Timeout: 2 * time.Second}

	live, err := probe(client, "http://"+addr+"/healthz/liveness")
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Live = live

	ready, err := probe(client, "http://"+addr+"/healthz/readiness")
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Ready = ready

	return status
}

func probe(client *http.Client, url string) (bool, error) {
	resp, err := client.Get(url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error here
	return resp.StatusCode == http.StatusOK, nil
}
