package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders entries and their summary as a text timeline.
func FormatTimeline(entries []Entry) string {
	if len(entries) == 0 {
		return "No entries found.\n"
	}

	var b strings.Builder
	for _, e := range entries {
		policy := e.Policy
		if policy == "" {
			policy = "-"
		}
		b.WriteString(fmt.Sprintf("%-10s %-6s %-18s %-28s %s\n",
			formatTimeOnly(e.Timestamp),
			strings.ToUpper(e.Decision),
			truncate(e.Method, 18),
			truncate(e.Target, 28),
			policy))
	}
	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(Summarize(entries)))
	return b.String()
}

// FormatJSON renders entries and their summary as indented JSON.
func FormatJSON(entries []Entry) (string, error) {
	out := struct {
		Entries []Entry `json:"entries"`
		Summary Summary `json:"summary"`
	}{entries, Summarize(entries)}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal audit entries")
	}
	return string(data), nil
}

func formatSummary(s Summary) string {
	line := fmt.Sprintf("%d calls: %d allowed, %d denied, %d errors\n",
		s.Total, s.AllowCount, s.DenyCount, s.ErrorCount)
	if len(s.RejectedBy) == 0 {
		return line
	}
	names := make([]string, 0, len(s.RejectedBy))
	for n := range s.RejectedBy {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", n, s.RejectedBy[n]))
	}
	return line + "rejected by: " + strings.Join(parts, ", ") + "\n"
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
