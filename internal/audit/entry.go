package audit

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Entry is one line in the hash-chained JSONL audit log, written for every
// gated call. All fields are plain values so json.Marshal output is
// deterministic and the chain hash is reproducible.
type Entry struct {
	Timestamp  string   `json:"ts"`
	CallID     string   `json:"call_id"`
	Method     string   `json:"method"`
	Scope      string   `json:"scope"`
	Target     string   `json:"target"`
	Decision   string   `json:"decision"`
	Policy     string   `json:"policy,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Evaluated  []string `json:"evaluated"`
	PolicyHash string   `json:"policy_hash"`
	PrevHash   string   `json:"prev_hash"`
}

// Recorder accepts audit entries.
type Recorder interface {
	Record(entry Entry) error
}
