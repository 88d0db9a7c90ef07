// Package segment splits article text into paragraphs.
package segment

import (
	"strings"
	"unicode/utf8"
)

const (
	paragraphDelimiter = "\n\n"
	lineDelimiter      = "\n"
)

// Split splits text into trimmed, non-empty paragraphs in input order.
//
// Text is split on blank lines first. When no blank line is present it falls
// back to splitting on single newlines. Paragraphs are never merged or capped.
func Split(text string) []string {
	pieces := strings.Split(text, paragraphDelimiter)
	if len(pieces) == 1 {
		pieces = strings.Split(text, lineDelimiter)
	}

	paragraphs := make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}

	return paragraphs
}

// Preview summarizes how a text will be segmented.
type Preview struct {
	Paragraphs []string `json:"paragraphs"`
	Characters int      `json:"characters"`
}

// NewPreview segments text and counts its characters.
func NewPreview(text string) Preview {
	return Preview{
		Characters: utf8.RuneCountInString(text),
		Paragraphs: Split(text),
	}
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}

	r := []rune(s)
	return string(r[:n]) + "..."
}
