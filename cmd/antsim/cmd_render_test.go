package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/antsim/internal/visualization"
)

func TestRenderCmd_Text(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, "render", "--seed", "8")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.HasPrefix(out, "tick 0  found ") {
		t.Errorf("unexpected header: %q", strings.SplitN(out, "\n", 2)[0])
	}
	// Food at (1,1) is on the second row from the bottom.
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if got := lines[len(lines)-2][1]; got != 'F' && got != 'a' && got != '@' && got != '*' && (got < '2' || got > '9') {
		t.Errorf("cell (1,1) = %q, want food or an ant on it", got)
	}
}

func TestRenderCmd_JSON(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, "render", "--ticks", "3", "--seed", "8", "--format", "json")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	var view visualization.View
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if view.Tick != 3 || view.Width != 25 || len(view.Ants) != 5 {
		t.Errorf("view = tick %d width %d ants %d", view.Tick, view.Width, len(view.Ants))
	}
}

func TestRenderCmd_HTMLFile(t *testing.T) {
	isolateHome(t)

	outPath := filepath.Join(t.TempDir(), "colony.html")
	out, err := execute(t, "render", "--ticks", "2", "--seed", "8", "--format", "html", "-o", outPath, "--no-open")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out, "Grid written to "+outPath) {
		t.Errorf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read HTML: %v", err)
	}
	html := string(data)
	for _, want := range []string{"<canvas", "Ant Search Model"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestRenderCmd_OutputFile(t *testing.T) {
	isolateHome(t)

	outPath := filepath.Join(t.TempDir(), "grid.txt")
	if _, err := execute(t, "render", "--seed", "8", "-o", outPath); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "tick 0") {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestRenderCmd_UnknownFormat(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "render", "--format", "svg")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}
