// Package screen provides stateless text utilities for decoding RealWorld
// terminal output: stripping control sequences and pulling labeled numeric
// fields out of raw screen buffers.
package screen

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Strip removes terminal control sequences (cursor movement, colors, erase
// commands) from text, leaving only the characters an operator would see.
// Idempotent on already-clean text.
func Strip(text string) string {
	return ansi.Strip(text)
}

// ExtractLabeledAmount locates the first case-sensitive occurrence of label in
// the cleaned text, skips forward to the first digit after it, and consumes a
// maximal run of digits and '.' characters. It returns ("", false) when the
// label is absent or no digits follow it. Currency symbols, thousands
// separators, and signs are not interpreted.
func ExtractLabeledAmount(text, label string) (string, bool) {
	clean := Strip(text)

	idx := strings.Index(clean, label)
	if idx < 0 {
		return "", false
	}
	idx += len(label)

	for idx < len(clean) && !isDigit(clean[idx]) {
		idx++
	}

	start := idx
	for idx < len(clean) && (isDigit(clean[idx]) || clean[idx] == '.') {
		idx++
	}
	if idx == start {
		return "", false
	}
	return clean[start:idx], true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
