// Package strings holds small text helpers for terminal output.
package strings

import (
	"strings"
)

// MinCellWidth is the smallest width Cell honours: one character plus "...".
const MinCellWidth = 4

// Cell squeezes s onto one line of at most width runes. Runs of
// whitespace, including newlines, collapse to a single space. Truncated
// values end in "...".
func Cell(s string, width int) string {
	if width < MinCellWidth {
		width = MinCellWidth
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return s
}
