package policydiff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Policy diff: %s -> %s\n", r.OldPath, r.NewPath)
	if r.OldHash != "" || r.NewHash != "" {
		fmt.Fprintf(&b, "  %s -> %s\n", r.OldHash, r.NewHash)
	}
	if !r.HasChanges {
		b.WriteString("\nNo changes detected.\n")
		return b.String()
	}

	if len(r.PolicyChanges) > 0 {
		b.WriteString("\n  Policies:\n")
		for _, pc := range r.PolicyChanges {
			sign := "+"
			if pc.Type == "removed" {
				sign = "-"
			}
			fmt.Fprintf(&b, "    %s %s  %s\n", sign, pc.Policy, pc.Label)
		}
	}

	current := ""
	for _, c := range r.Changes {
		if c.Policy != current {
			current = c.Policy
			fmt.Fprintf(&b, "\n  ~ %s:\n", c.Policy)
		}
		fmt.Fprintf(&b, "    %-18s %s -> %s", c.Field+":", orDash(c.Old), orDash(c.New))
		if c.Comment != "" {
			fmt.Fprintf(&b, "  (%s)", c.Comment)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal diff result")
	}
	return string(data), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
