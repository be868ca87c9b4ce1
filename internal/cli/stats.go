// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stats.go - Call statistics from the local telemetry journal.
//
// Command: stats
// Short:   Summarize recorded calls
//
// Flags:
//   --days N      Window in days (default 7)
//   --recent N    Also list the last N calls
//   --prune       Delete records older than the window
//   --json        Output in JSON format
//
// The journal holds timing and outcome only, never prompt or reply text.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/parley-tui/internal/telemetry"
)

// StatsData is the JSON payload of "parley stats --json".
type StatsData struct {
	Days         int            `json:"days"`
	Calls        int            `json:"calls"`
	OK           int            `json:"ok"`
	Failed       int            `json:"failed"`
	SuccessRate  float64        `json:"success_rate"`
	Sessions     int            `json:"sessions"`
	AvgLatencyMs int64          `json:"avg_latency_ms"`
	P50LatencyMs int64          `json:"p50_latency_ms"`
	P95LatencyMs int64          `json:"p95_latency_ms"`
	Failures     map[string]int `json:"failures,omitempty"`
	Pruned       int64          `json:"pruned,omitempty"`
	Recent       []RecentCall   `json:"recent,omitempty"`
}

// RecentCall is one journal row in JSON output.
type RecentCall struct {
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	Started    time.Time `json:"started"`
	DurationMs int64     `json:"duration_ms"`
	OK         bool      `json:"ok"`
	Failure    string    `json:"failure,omitempty"`
}

// HandleStats prints the telemetry summary for the last args.Days days.
func HandleStats(ctx context.Context, env *Env, args Args) error {
	if env.Journal == nil {
		return &CommandError{Command: "stats", Reason: "telemetry is disabled (set telemetry.enabled = true)", Code: ExitConfigError}
	}

	days := args.Days
	if days < 1 {
		days = DefaultStatsDays
	}
	since := time.Now().AddDate(0, 0, -days)

	var pruned int64
	if args.Prune {
		n, err := env.Journal.Prune(ctx, since)
		if err != nil {
			return NewCommandError("stats", "prune", err.Error(), err)
		}
		pruned = n
	}

	summary, err := env.Journal.Summary(ctx, since)
	if err != nil {
		return NewCommandError("stats", "", err.Error(), err)
	}

	var recent []RecentCall
	if args.Recent > 0 {
		records, err := env.Journal.Recent(ctx, args.Recent)
		if err != nil {
			return NewCommandError("stats", "recent", err.Error(), err)
		}
		for _, r := range records {
			recent = append(recent, RecentCall{
				SessionID:  r.SessionID,
				Kind:       string(r.Kind),
				Started:    r.Started,
				DurationMs: r.Duration.Milliseconds(),
				OK:         r.OK,
				Failure:    string(r.Failure),
			})
		}
	}

	if args.JSON {
		return NewJSONResponse("stats", statsData(days, summary, pruned, recent)).Print(env.stdout())
	}

	w := env.stdout()
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Calls in the last %d days", days)))
	if pruned > 0 {
		fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("Pruned %d older records", pruned)))
	}
	fmt.Fprint(w, summary.String())

	if len(summary.Daily) > 0 && !args.Quiet {
		fmt.Fprintln(w)
		peak := 0
		for _, d := range summary.Daily {
			peak = max(peak, d.Calls)
		}
		for _, d := range summary.Daily {
			fmt.Fprintf(w, "  %s  %4d  %s\n", d.Date.Format("2006-01-02"), d.Calls, DimStyle.Render(bar(d.Calls, peak, 30)))
		}
	}

	if len(recent) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Recent calls"))
		for _, r := range recent {
			status := "ok"
			if !r.OK {
				status = r.Failure
			}
			fmt.Fprintf(w, "  %s  %-10s %8s  %s\n", r.Started.Format("2006-01-02 15:04"), r.Kind,
				formatDurationShort(time.Duration(r.DurationMs)*time.Millisecond), status)
		}
	}
	return nil
}

func statsData(days int, s telemetry.Summary, pruned int64, recent []RecentCall) StatsData {
	return StatsData{
		Days:         days,
		Calls:        s.Calls,
		OK:           s.OK,
		Failed:       s.FailureCount(),
		SuccessRate:  s.SuccessRate(),
		Sessions:     s.Sessions,
		AvgLatencyMs: s.AvgLatency.Milliseconds(),
		P50LatencyMs: s.P50Latency.Milliseconds(),
		P95LatencyMs: s.P95Latency.Milliseconds(),
		Failures:     s.Failures,
		Pruned:       pruned,
		Recent:       recent,
	}
}

// bar renders n relative to peak as a bar of at most width cells.
func bar(n, peak, width int) string {
	if n <= 0 || peak <= 0 {
		return ""
	}
	return strings.Repeat("#", max(1, n*width/peak))
}
