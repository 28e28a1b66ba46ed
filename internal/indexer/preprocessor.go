package indexer

import (
	"strings"
	"unicode"
)

// Preprocess trims text and collapses every run of whitespace, newlines included,
// into a single space. Zero-width and other control characters are dropped.
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		case unicode.IsControl(r) || r == '\u200b' || r == '\ufeff':
		default:
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
