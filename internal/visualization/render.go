package visualization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/nvandessel/antsim/internal/model"
)

// Text symbols, strongest first: an ant hides whatever it stands on.
const (
	symBlank     = '.'
	symFood      = 'F'
	symObstacle  = '#'
	symPheromone = '*'
	symAnt       = 'a'
	symFoundAnt  = '@'
	symCrowd     = '+'
)

// RenderText draws s as a character grid with row Height-1 on top, so the
// picture has the same orientation as the canvas. A single seeking ant is
// 'a', a cell holding an ant that found food is '@', and 2-9 ants are
// shown as their count.
func RenderText(s model.Snapshot) string {
	rows := make([][]byte, s.Height)
	for y := range rows {
		rows[y] = bytes.Repeat([]byte{symBlank}, s.Width)
	}

	for _, cv := range Describe(s) {
		rows[cv.Position.Y][cv.Position.X] = symbol(cv.Top())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "tick %d  found %d/%d  pheromone %d\n", s.Tick, s.FoundCount(), len(s.Ants), len(s.Pheromone))
	for y := s.Height - 1; y >= 0; y-- {
		b.Write(rows[y])
		b.WriteByte('\n')
	}
	return b.String()
}

func symbol(p Portrayal) byte {
	switch p.Kind {
	case KindAnt:
		switch {
		case p.Found:
			return symFoundAnt
		case p.Count == 1:
			return symAnt
		case p.Count <= 9:
			return byte('0' + p.Count)
		default:
			return symCrowd
		}
	case KindPheromone:
		return symPheromone
	case KindObstacle:
		return symObstacle
	case KindFood:
		return symFood
	}
	return symBlank
}

// RenderJSON produces the indented JSON form of s.
func RenderJSON(s model.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(NewView(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal view: %w", err)
	}
	return data, nil
}

// PageOptions configures RenderHTML.
type PageOptions struct {
	Title string

	// APIBase is the origin of a live server. Empty renders a static page
	// without playback controls.
	APIBase string

	// FrameInterval is the delay between ticks while playing.
	FrameInterval time.Duration

	// CanvasSize is the canvas edge in pixels. Default: 500.
	CanvasSize int
}

// htmlTemplateData holds data passed to the HTML template.
// StateJSON is pre-sanitized JSON (via json.HTMLEscape) safe for inline <script>.
type htmlTemplateData struct {
	Title      string
	APIBase    string
	Live       bool
	FrameMS    int64
	CanvasSize int
	StateJSON  template.JS
}

var pageTemplate = template.Must(template.ParseFS(templates, "templates/grid.html.tmpl"))

// RenderHTML produces a self-contained HTML page drawing s on a canvas.
func RenderHTML(s model.Snapshot, opts PageOptions) ([]byte, error) {
	stateJSON, err := json.Marshal(NewView(s))
	if err != nil {
		return nil, fmt.Errorf("marshal view: %w", err)
	}

	// json.HTMLEscape converts <, >, & to unicode escapes so the inline
	// script cannot be closed early.
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, stateJSON)

	if opts.Title == "" {
		opts.Title = "Ant Search Model"
	}
	if opts.CanvasSize <= 0 {
		opts.CanvasSize = 500
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 200 * time.Millisecond
	}

	data := htmlTemplateData{
		Title:      opts.Title,
		APIBase:    opts.APIBase,
		Live:       opts.APIBase != "",
		FrameMS:    opts.FrameInterval.Milliseconds(),
		CanvasSize: opts.CanvasSize,
		StateJSON:  template.JS(escaped.String()), // #nosec G203
	}

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "grid.html.tmpl", data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// Render dispatches on format.
func Render(s model.Snapshot, format Format, opts PageOptions) ([]byte, error) {
	switch format {
	case FormatText, "":
		return []byte(RenderText(s)), nil
	case FormatJSON:
		return RenderJSON(s)
	case FormatHTML:
		return RenderHTML(s, opts)
	default:
		return nil, fmt.Errorf("unknown format %q (valid: text, json, html)", format)
	}
}

// Legend lists the text symbols and what they mean.
func Legend() []string {
	return []string{
		string(rune(symAnt)) + " ant",
		string(rune(symFoundAnt)) + " ant that found food",
		"2-9 ants sharing a cell (" + string(rune(symCrowd)) + " for more)",
		string(rune(symPheromone)) + " pheromone",
		string(rune(symFood)) + " food",
		string(rune(symObstacle)) + " obstacle",
	}
}
