// Package narration implements the narration engine: it turns a script
// into a single speech asset, choosing a TTS provider and voice, chunking
// long scripts by paragraph, and stitching the chunks back together at a
// consistent loudness.
package narration

import (
	"regexp"
	"strings"
)

// paragraphPattern matches blank-line paragraph boundaries, tolerating
// whitespace on the separating lines.
var paragraphPattern = regexp.MustCompile(`\n[ \t]*\n`)

// SplitParagraphs splits a script on blank-line boundaries and returns the
// trimmed, non-empty paragraphs in their original order.
func SplitParagraphs(text string) []string {
	parts := paragraphPattern.Split(text, -1)

	paragraphs := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	return paragraphs
}
