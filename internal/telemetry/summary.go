// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Summary aggregates the calls in a time window.
type Summary struct {
	Since    time.Time
	Calls    int
	OK       int
	Failures map[string]int // failure kind -> count
	Sessions int

	// Latency over successful calls.
	AvgLatency time.Duration
	P50Latency time.Duration
	P95Latency time.Duration

	Daily []DailyStats
}

// DailyStats counts calls for one local calendar day.
type DailyStats struct {
	Date  time.Time
	Calls int
	OK    int
}

// FailureCount returns the total number of failed calls.
func (s Summary) FailureCount() int {
	return s.Calls - s.OK
}

// SuccessRate returns OK/Calls in [0,1], or 0 with no calls.
func (s Summary) SuccessRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.OK) / float64(s.Calls)
}

// String renders the summary for terminal output.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Calls:      %d (%d ok, %d failed)\n", s.Calls, s.OK, s.FailureCount())
	fmt.Fprintf(&b, "Sessions:   %d\n", s.Sessions)
	if s.Calls > 0 {
		fmt.Fprintf(&b, "Success:    %.1f%%\n", s.SuccessRate()*100)
	}
	if s.OK > 0 {
		fmt.Fprintf(&b, "Latency:    avg %s, p50 %s, p95 %s\n",
			s.AvgLatency.Round(time.Millisecond), s.P50Latency.Round(time.Millisecond), s.P95Latency.Round(time.Millisecond))
	}
	if len(s.Failures) > 0 {
		kinds := make([]string, 0, len(s.Failures))
		for k := range s.Failures {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		parts := make([]string, 0, len(kinds))
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s=%d", k, s.Failures[k]))
		}
		fmt.Fprintf(&b, "Failures:   %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}

// Summary aggregates calls that started at or after since.
func (j *Journal) Summary(ctx context.Context, since time.Time) (Summary, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return Summary{}, ErrClosed
	}

	sum := Summary{Since: since, Failures: make(map[string]int)}
	rows, err := j.db.QueryContext(ctx,
		`SELECT session_id, started_at, duration_ms, ok, failure FROM calls WHERE started_at >= ? ORDER BY started_at`,
		since.UnixMilli())
	if err != nil {
		return Summary{}, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]struct{})
	days := make(map[string]*DailyStats)
	var latencies []time.Duration
	var total time.Duration

	for rows.Next() {
		var (
			sessionID, failure   string
			startedMs, durMs, ok int64
		)
		if err := rows.Scan(&sessionID, &startedMs, &durMs, &ok, &failure); err != nil {
			return Summary{}, fmt.Errorf("failed to scan call: %w", err)
		}

		sum.Calls++
		sessions[sessionID] = struct{}{}

		started := time.UnixMilli(startedMs)
		key := started.Format("2006-01-02")
		day, found := days[key]
		if !found {
			y, m, d := started.Date()
			day = &DailyStats{Date: time.Date(y, m, d, 0, 0, 0, 0, started.Location())}
			days[key] = day
		}
		day.Calls++

		if ok == 1 {
			sum.OK++
			day.OK++
			lat := time.Duration(durMs) * time.Millisecond
			latencies = append(latencies, lat)
			total += lat
		} else {
			if failure == "" {
				failure = "unknown"
			}
			sum.Failures[failure]++
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	sum.Sessions = len(sessions)
	if len(latencies) > 0 {
		sort.Slice(latencies, func(a, b int) bool { return latencies[a] < latencies[b] })
		sum.AvgLatency = total / time.Duration(len(latencies))
		sum.P50Latency = percentile(latencies, 0.50)
		sum.P95Latency = percentile(latencies, 0.95)
	}

	for _, d := range days {
		sum.Daily = append(sum.Daily, *d)
	}
	sort.Slice(sum.Daily, func(a, b int) bool { return sum.Daily[a].Date.Before(sum.Daily[b].Date) })
	return sum, nil
}

// percentile uses nearest-rank on sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted))+0.999999) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
