package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New("test")
	l.SetWriter(&buf)
	l.SetLevel(WARN)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WARN should be suppressed: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN and ERROR should pass: %q", out)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("planner")
	l.SetWriter(&buf)

	l.Info("flushed %d moves", 7)
	out := buf.String()
	if !strings.Contains(out, "planner: flushed 7 moves") {
		t.Errorf("unexpected text output: %q", out)
	}
	if !strings.Contains(out, "[INFO ]") {
		t.Errorf("missing level tag: %q", out)
	}
}

func TestFieldsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New("planner")
	l.SetWriter(&buf)

	l.InfoFields("lookahead flush", Fields{"finalized": 3, "pending": 1})
	out := buf.String()
	if !strings.Contains(out, "finalized=3") || !strings.Contains(out, "pending=1") {
		t.Errorf("fields missing from output: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("preview")
	l.SetWriter(&buf)
	l.SetFormat(FormatJSON)

	l.WarnFields("slow client", Fields{"client": "abc"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if entry["level"] != "WARN" || entry["logger"] != "preview" {
		t.Errorf("unexpected entry: %v", entry)
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["client"] != "abc" {
		t.Errorf("fields missing: %v", entry)
	}
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New("root")
	l.SetWriter(&buf)
	l.SetLevel(DEBUG)

	child := l.WithPrefix("child")
	child.Debug("hello")
	if !strings.Contains(buf.String(), "child: hello") {
		t.Errorf("child prefix missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
