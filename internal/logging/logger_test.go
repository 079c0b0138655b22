package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"Debug", slog.LevelDebug},
		{"warn", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)

	logger.Log(context.Background(), LevelTrace, "ant decision", "ant", 3)
	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", out)
	}
	if !strings.Contains(out, "ant=3") {
		t.Errorf("expected ant attribute, got %q", out)
	}
}

func TestNewLogger_Filtering(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantTrace bool
	}{
		{"info", false, false},
		{"debug", true, false},
		{"trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("tick complete")
			if got := strings.Contains(buf.String(), "tick complete"); got != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.wantDebug)
			}

			buf.Reset()
			logger.Log(context.Background(), LevelTrace, "ant decision")
			if got := strings.Contains(buf.String(), "ant decision"); got != tt.wantTrace {
				t.Errorf("trace visible = %v, want %v", got, tt.wantTrace)
			}
		})
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger("info", &buf).Info("run finished", "ticks", 10)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "run finished" || rec["ticks"] != float64(10) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestDiscard(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard logger should not be enabled at any level")
	}
}

func TestNewDecisionLogger_InfoLevelDisabled(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "info")
	if dl != nil {
		t.Fatal("expected nil DecisionLogger at info level")
	}
	dl.Log(map[string]any{"action": "move"})
	dl.Close()

	if _, err := os.Stat(filepath.Join(dir, "decisions.jsonl")); err == nil {
		t.Error("decisions.jsonl should not exist at info level")
	}
}

func TestNewDecisionLogger_DebugAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	dl := NewDecisionLogger(dir, "debug")
	if dl == nil {
		t.Fatal("expected a DecisionLogger at debug level")
	}
	dl.Log(map[string]any{"tick": 1, "action": "move"})
	dl.Log(map[string]any{"tick": 1, "action": "claim"})
	dl.Close()

	path := filepath.Join(dir, "decisions.jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read decisions.jsonl: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if second["action"] != "claim" {
		t.Errorf("action = %v, want claim", second["action"])
	}
	if _, ok := second["time"]; !ok {
		t.Error("expected a time field")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestDecisionWriter_DoesNotMutateCallerMap(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDecisionWriter(&buf)

	event := map[string]any{"action": "stay"}
	dl.Log(event)
	if _, ok := event["time"]; ok {
		t.Error("Log mutated the caller's map")
	}
	if !strings.Contains(buf.String(), `"action":"stay"`) {
		t.Errorf("unexpected output %q", buf.String())
	}

	dl.Close()
	buf.Reset()
	dl.Log(map[string]any{"action": "after-close"})
	if buf.Len() != 0 {
		t.Errorf("Log after Close wrote %q", buf.String())
	}
}
