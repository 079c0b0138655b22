package visualization

import "embed"

// templates contains the embedded HTML page template.
//
//go:embed templates/*
var templates embed.FS
