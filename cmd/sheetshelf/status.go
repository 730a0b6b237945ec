// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const defaultStatusTimeout = 2 * time.Second

// ProbeStatus is the outcome of one health probe.
type ProbeStatus struct {
	Probe      string `json:"probe"`
	OK         bool   `json:"ok"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Body       string `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	timeout    time.Duration
}

var probes = []struct {
	name string
	path string
}{
	{"liveness", "/healthz/liveness"},
	{"readiness", "/healthz/readiness"},
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the health of a running server",
		Long: `Query the liveness and readiness endpoints of a running server's
observability listener. Exits non-zero when the server is not ready.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := loadConfig(configFile, envFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runStatus(cmd, appCfg.Metrics.Addr, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultStatusTimeout, "timeout per probe")
	bindConfigFlags(cmd.Flags(), "metrics-addr")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, metricsAddr string, cfg *statusConfig) error {
	if metricsAddr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "metrics.addr").
			Errorf("metrics.addr is required to query status")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := &http.Client{Timeout: cfg.timeout}
	base := probeBaseURL(metricsAddr)
	statuses := make([]ProbeStatus, 0, len(probes))
	for _, p := range probes {
		statuses = append(statuses, queryProbe(ctx, client, p.name, base+p.path))
	}

	var output string
	if cfg.jsonOutput {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
		}
		output = string(data)
	} else {
		output = formatStatusTable(base, statuses)
	}
	cmd.Println(output)

	for _, s := range statuses {
		if !s.OK {
			return oops.Code("SERVER_NOT_READY").With("probe", s.Probe).Errorf("server is not ready")
		}
	}
	return nil
}

// probeBaseURL turns a listen address into a URL, using localhost when the
// address has no host.
func probeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func queryProbe(ctx context.Context, client *http.Client, name, url string) ProbeStatus {
	status := ProbeStatus{Probe: name}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp, err := client.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	status.HTTPStatus = resp.StatusCode
	status.Body = strings.TrimSpace(string(body))
	status.OK = resp.StatusCode == http.StatusOK
	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(base string, statuses []ProbeStatus) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "SERVER\t%s\n", base)
	_, _ = fmt.Fprintln(w, "PROBE\tSTATUS\tDETAIL")
	_, _ = fmt.Fprintln(w, "-----\t------\t------")
	for _, s := range statuses {
		state := "ok"
		if !s.OK {
			state = "failing"
		}
		detail := s.Body
		if s.Error != "" {
			detail = s.Error
		} else if s.HTTPStatus != 0 {
			detail = fmt.Sprintf("%d %s", s.HTTPStatus, s.Body)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Probe, state, detail)
	}

	_ = w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}
