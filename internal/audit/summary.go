package audit

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Filter selects entries when reading a log. Empty fields match everything.
type Filter struct {
	Method   string
	Target   string
	Decision string
}

func (f Filter) match(e Entry) bool {
	return (f.Method == "" || f.Method == e.Method) &&
		(f.Target == "" || f.Target == e.Target) &&
		(f.Decision == "" || f.Decision == e.Decision)
}

// Summary holds decision counts for a set of entries.
type Summary struct {
	Total          int            `json:"total"`
	AllowCount     int            `json:"allow_count"`
	DenyCount      int            `json:"deny_count"`
	ErrorCount     int            `json:"error_count"`
	RejectedBy     map[string]int `json:"rejected_by"`
	FirstTimestamp string         `json:"first_timestamp"`
	LastTimestamp  string         `json:"last_timestamp"`
}

// Read returns the entries matching filter, at most the last n when n > 0.
// Malformed lines are skipped.
func Read(path string, filter Filter, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open audit log")
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if !filter.match(entry) {
			continue
		}
		entries = append(entries, entry)
		if n > 0 && len(entries) > n {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read audit log")
	}
	return entries, nil
}

// Summarize counts decisions across entries.
func Summarize(entries []Entry) Summary {
	s := Summary{RejectedBy: map[string]int{}}
	for _, e := range entries {
		s.Total++
		switch e.Decision {
		case "allow":
			s.AllowCount++
		case "deny":
			s.DenyCount++
			if e.Policy != "" {
				s.RejectedBy[e.Policy]++
			}
		case "error":
			s.ErrorCount++
		}
		if s.FirstTimestamp == "" {
			s.FirstTimestamp = e.Timestamp
		}
		s.LastTimestamp = e.Timestamp
	}
	return s
}
