package audit

import (
	"strings"
	"testing"
)

func TestReadFiltersAndLimits(t *testing.T) {
	l, path := newTestLog(t)
	for _, d := range []string{"allow", "deny", "allow", "deny", "error"} {
		e := testEntry(d)
		if d == "deny" {
			e.Policy = "max-transfer-1eth"
		}
		l.Record(e)
	}
	l.Close()

	all, err := Read(path, Filter{}, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(all))
	}

	denied, _ := Read(path, Filter{Decision: "deny"}, 0)
	if len(denied) != 2 {
		t.Errorf("expected 2 denied, got %d", len(denied))
	}

	last, _ := Read(path, Filter{}, 2)
	if len(last) != 2 || last[1].Decision != "error" {
		t.Errorf("expected the last two entries, got %+v", last)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read("/nonexistent/audit.jsonl", Filter{}, 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Decision: "allow", Timestamp: "a"},
		{Decision: "deny", Policy: "p1"},
		{Decision: "deny", Policy: "p1"},
		{Decision: "error", Timestamp: "z"},
	}
	s := Summarize(entries)
	if s.Total != 4 || s.AllowCount != 1 || s.DenyCount != 2 || s.ErrorCount != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.RejectedBy["p1"] != 2 {
		t.Errorf("expected p1=2, got %d", s.RejectedBy["p1"])
	}
	if s.FirstTimestamp != "a" || s.LastTimestamp != "z" {
		t.Errorf("unexpected timestamps: %s %s", s.FirstTimestamp, s.LastTimestamp)
	}
}

func TestFormatTimeline(t *testing.T) {
	out := FormatTimeline([]Entry{
		{Timestamp: "2026-01-15T10:30:00.000Z", Method: "swap", Target: "ethereum/mainnet", Decision: "deny", Policy: "swap-max-fee"},
	})
	for _, want := range []string{"10:30:00", "DENY", "swap", "ethereum/mainnet", "swap-max-fee", "rejected by: swap-max-fee=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if FormatTimeline(nil) != "No entries found.\n" {
		t.Error("unexpected empty output")
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON([]Entry{{Decision: "allow"}})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(out, `"allow_count": 1`) {
		t.Errorf("expected summary in JSON:\n%s", out)
	}
}
