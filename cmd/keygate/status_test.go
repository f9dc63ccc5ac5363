// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusCmd_Properties(t *testing.T) {
	cmd := NewStatusCmd()

	if cmd.Use != "status" {
		t.Errorf("Use = %q, want %q", cmd.Use, "status")
	}

	if !strings.Contains(cmd.Long, "health") && !strings.Contains(cmd.Long, "liveness") {
		t.Error("Long description should mention health probes")
	}
}

func TestStatusCmd_Flags(t *testing.T) {
	cmd := NewStatusCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	for _, flag := range []string{"--json", "--metrics-addr"} {
		if !strings.Contains(output, flag) {
			t.Errorf("Help missing %q flag", flag)
		}
	}
}

// healthzServer fakes the observability listener with fixed probe results.
func healthzServer(t *testing.T, ready bool) string {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/healthz/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if ready {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return strings.TrimPrefix(server.URL, "http://")
}

func TestStatus_Ready(t *testing.T) {
	addr := healthzServer(t, true)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "live:  true") {
		t.Errorf("Output should report liveness, got: %s", output)
	}
	if !strings.Contains(output, "ready: true") {
		t.Errorf("Output should report readiness, got: %s", output)
	}
}

func TestStatus_NotReady(t *testing.T) {
	addr := healthzServer(t, false)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "ready: false") {
		t.Errorf("Output should report not ready, got: %s", output)
	}
}

func TestStatus_JSONOutput(t *testing.T) {
	addr := healthzServer(t, true)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr, "--json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var status ServiceStatus
	if err := json.Unmarshal(buf.Bytes(), &status); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if status.Addr != addr {
		t.Errorf("Addr = %q, want %q", status.Addr, addr)
	}
	if !status.Live || !status.Ready {
		t.Errorf("expected live and ready, got %+v", status)
	}
}

func TestStatus_Unreachable(t *testing.T) {
	// Port 1 is essentially never listening
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", "127.0.0.1:1"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "live:  false") {
		t.Errorf("Output should report not live, got: %s", output)
	}
	if !strings.Contains(output, "error:") {
		t.Errorf("Output should carry the probe error, got: %s", output)
	}
}
