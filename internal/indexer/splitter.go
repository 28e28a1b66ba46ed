package indexer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitMode selects how text is cut into clauses.
type SplitMode string

const (
	// SplitParagraph cuts on blank lines.
	SplitParagraph SplitMode = "paragraph"
	// SplitSentence cuts paragraphs further after '.', '!' or '?' followed by whitespace.
	SplitSentence SplitMode = "sentence"
	// SplitLine cuts on every newline.
	SplitLine SplitMode = "line"
)

// DefaultMinClauseLength is the shortest clause, in characters, a splitter keeps by default.
const DefaultMinClauseLength = 30

var paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)

// ParseSplitMode maps a configuration value to a SplitMode. Empty selects SplitParagraph.
func ParseSplitMode(s string) (SplitMode, error) {
	switch m := SplitMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SplitParagraph, nil
	case SplitParagraph, SplitSentence, SplitLine:
		return m, nil
	default:
		return "", fmt.Errorf("unknown split mode %q", s)
	}
}

// Splitter turns raw document text into ordered candidate clauses.
type Splitter struct {
	minLength  int
	maxClauses int
	mode       SplitMode
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithMinLength drops clauses shorter than n characters. Negative values are treated as 0.
func WithMinLength(n int) SplitterOption {
	return func(s *Splitter) {
		if n < 0 {
			n = 0
		}
		s.minLength = n
	}
}

// WithMaxClauses keeps at most n clauses from one text; 0 means no limit.
func WithMaxClauses(n int) SplitterOption {
	return func(s *Splitter) {
		if n < 0 {
			n = 0
		}
		s.maxClauses = n
	}
}

// WithMode sets the split mode.
func WithMode(m SplitMode) SplitterOption {
	return func(s *Splitter) {
		if m != "" {
			s.mode = m
		}
	}
}

// NewSplitter returns a paragraph splitter with a 30 character minimum unless overridden.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{minLength: DefaultMinClauseLength, mode: SplitParagraph}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the configured split mode.
func (s *Splitter) Mode() SplitMode { return s.mode }

// Split returns the clauses of text in document order. Each clause is trimmed with inner
// whitespace collapsed. Whitespace-only input yields nil.
func (s *Splitter) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var fragments []string
	switch s.mode {
	case SplitLine:
		fragments = strings.Split(text, "\n")
	case SplitSentence:
		for _, p := range paragraphBreak.Split(text, -1) {
			fragments = append(fragments, splitSentences(p)...)
		}
	default:
		fragments = paragraphBreak.Split(text, -1)
	}

	var clauses []string
	for _, f := range fragments {
		c := Preprocess(f)
		if c == "" || utf8.RuneCountInString(c) < s.minLength {
			continue
		}
		clauses = append(clauses, c)
		if s.maxClauses > 0 && len(clauses) == s.maxClauses {
			break
		}
	}
	return clauses
}

// splitSentences cuts after sentence-ending punctuation that is followed by whitespace.
func splitSentences(p string) []string {
	var out []string
	runes := []rune(p)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if unicode.IsSpace(runes[i+1]) {
				out = append(out, string(runes[start:i+1]))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}
