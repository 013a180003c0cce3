package stacktrace

import (
	"bytes"
	"strings"
)

const marker = "/internal/"

// Frames extracts the "internal/<pkg>/<file>.go:<line>" locations from a
// debug.Stack dump, dropping runtime and third party frames. When no frame
// belongs to this module the full trace is returned as a single element so
// the panic site is never lost.
func Frames(stack []byte) []string {
	var out []string
	for line := range bytes.Lines(stack) {
		// file lines are tab indented: "\t/abs/path/file.go:42 +0x1d"
		if len(line) == 0 || line[0] != '\t' {
			continue
		}
		loc := strings.TrimSpace(string(line))
		if i := strings.LastIndexByte(loc, ' '); i > 0 {
			loc = loc[:i]
		}
		i := strings.Index(loc, marker)
		if i < 0 || !strings.Contains(loc, ".go:") {
			continue
		}
		out = append(out, loc[i+1:])
	}

	if len(out) == 0 && len(stack) > 0 {
		return []string{string(stack)}
	}
	return out
}
