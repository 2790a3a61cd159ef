package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cstroie/XRayVision-sub000/internal/dashboard"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var urlFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(urlFlag)
			if url == "" {
				cfg, err := cmdCtx.ensureConfig()
				if err != nil {
					return err
				}
				url = statusURL(cfg.Dashboard.Bind)
			}

			snap, err := fetchSnapshot(cmd.Context(), url)
			if err != nil {
				return fmt.Errorf("query daemon status: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			renderStatus(out, snap, colorize)
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "Status endpoint URL (defaults from config)")
	return cmd
}

// statusURL derives a reachable endpoint from the dashboard bind address.
// Wildcard binds are queried over loopback.
func statusURL(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return "http://127.0.0.1:8000/api/status"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api/status"
}

func fetchSnapshot(ctx context.Context, url string) (dashboard.Snapshot, error) {
	var snap dashboard.Snapshot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return snap, err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return snap, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode status: %w", err)
	}
	return snap, nil
}

func renderStatus(out io.Writer, snap dashboard.Snapshot, colorize bool) {
	for _, line := range renderSectionHeader("Pipeline", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Queue depth", statusInfo, strconv.Itoa(snap.QueueDepth), colorize))
	processing := snap.Processing
	kind := statusOK
	if processing == "" {
		processing = "idle"
	} else {
		kind = statusInfo
	}
	fmt.Fprintln(out, renderStatusLine("Processing", kind, processing, colorize))
	fmt.Fprintln(out, renderStatusLine("Succeeded", statusOK, strconv.Itoa(snap.SuccessCount), colorize))
	failKind := statusOK
	if snap.FailureCount > 0 {
		failKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Failed", failKind, strconv.Itoa(snap.FailureCount), colorize))

	if len(snap.History) == 0 {
		return
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(snap.History))
	for _, e := range snap.History {
		rows = append(rows, []string{e.Artifact, e.PatientName, e.PatientID, e.StudyDate, truncate(e.Result, 60)})
	}
	fmt.Fprintln(out, renderTable([]string{"Artifact", "Patient", "ID", "Date", "Result"}, rows))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
