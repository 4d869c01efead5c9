package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: HumanFormat, Level: WarnLevel, Output: &buf})

	l.Debug("dropped", nil)
	l.Info("dropped", nil)
	l.Warn("kept", nil)
	l.Error("kept too", nil)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "kept too") {
		t.Errorf("output missing warn/error messages: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: JSONFormat, Level: InfoLevel, Output: &buf})

	l.Info("indexed", map[string]any{"files": 3})

	var e struct {
		Level   string         `json:"level"`
		Message string         `json:"message"`
		Fields  map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if e.Level != "info" || e.Message != "indexed" {
		t.Errorf("entry = %+v", e)
	}
	if e.Fields["files"] != float64(3) {
		t.Errorf("fields[files] = %v, want 3", e.Fields["files"])
	}
}

func TestHumanFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: HumanFormat, Level: DebugLevel, Output: &buf})

	l.Debug("q", map[string]any{"b": 2, "a": 1, "c": 3})

	out := buf.String()
	if !(strings.Index(out, "a=1") < strings.Index(out, "b=2") && strings.Index(out, "b=2") < strings.Index(out, "c=3")) {
		t.Errorf("fields not sorted: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DebugLevel {
		t.Error("debug not recognized")
	}
	if ParseLevel("bogus") != InfoLevel {
		t.Error("unknown level should default to info")
	}
}
