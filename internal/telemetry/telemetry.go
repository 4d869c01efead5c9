// Package telemetry appends one JSON line per answered question to
// .cbg/telemetry.jsonl.
package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Record is one telemetry event.
type Record struct {
	ID            string   `json:"id"`
	Timestamp     string   `json:"ts"`
	Question      string   `json:"question"`
	Terms         []string `json:"terms,omitempty"`
	EvidenceCount int      `json:"evidence_count"`
	Confidence    float64  `json:"confidence"`
	Band          string   `json:"band"`
	NeedsHuman    bool     `json:"needs_human"`
	Mode          string   `json:"mode"`
	Flags         []string `json:"flags,omitempty"`
	DurationMs    int64    `json:"duration_ms"`
}

// Sink appends records to a JSONL file. A nil Sink discards everything.
type Sink struct {
	path string
}

// NewSink returns a sink writing under repoRoot/.cbg, or nil when disabled.
func NewSink(repoRoot string, enabled bool) *Sink {
	if !enabled {
		return nil
	}
	return &Sink{path: filepath.Join(repoRoot, ".cbg", "telemetry.jsonl")}
}

// Append writes one record. Telemetry failures are returned but callers
// treat them as non-fatal.
func (s *Sink) Append(rec Record) error {
	if s == nil {
		return nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}
