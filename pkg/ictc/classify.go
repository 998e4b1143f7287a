package ictc

import "strings"

// Marker is the classification of a single source line.
type Marker int

const (
	MarkerSourceLine Marker = iota
	MarkerIfChange
	MarkerThenChangeInline
	MarkerThenChangeBlockStart
	MarkerEndChange
)

func isASCIIPunctuation(ch rune) bool {
	switch {
	case ch >= '!' && ch <= '/',
		ch >= ':' && ch <= '@',
		ch >= '[' && ch <= '`',
		ch >= '{' && ch <= '~':
		return true
	}
	return false
}

func isASCIIWhitespace(ch rune) bool {
	switch ch {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func isCommentRune(ch rune) bool {
	return isASCIIPunctuation(ch) || isASCIIWhitespace(ch)
}

// isCommentPrefix is a best-effort guess at "does this line start with a
// comment opener". Any run of punctuation and whitespace qualifies, which
// accepts "#", "//", "--", "/*", "<!--" and leading indentation uniformly
// without a per-language comment-syntax table.
func isCommentPrefix(s string) bool {
	for _, ch := range s {
		if !isCommentRune(ch) {
			return false
		}
	}
	return true
}

// Classify determines the marker type of a line. The payload is the declared
// target path for MarkerThenChangeInline and empty otherwise.
//
// A keyword match only counts when its prefix looks like a comment opener, and
// (for if-change and inline then-change) when the keyword is separated from any
// following content by whitespace, so that e.g. "if-change-foo" stays a source
// line. Trailing punctuation is stripped from inline target paths to tolerate
// closing delimiters like "*/" and "-->"; a path that genuinely ends in
// punctuation cannot be expressed, which is the accepted cost of not hardcoding
// per-language comment formats.
func Classify(line string) (Marker, string) {
	if pre, post, found := strings.Cut(line, "if-change"); found && isCommentPrefix(pre) {
		trimmed := strings.TrimRightFunc(post, isCommentRune)
		if trimmed == "" || isASCIIWhitespace(rune(trimmed[0])) {
			return MarkerIfChange, ""
		}
	}

	if pre, post, found := strings.Cut(line, "then-change"); found && isCommentPrefix(pre) {
		trimmed := strings.TrimRightFunc(post, isCommentRune)
		if trimmed == "" {
			return MarkerThenChangeBlockStart, ""
		}
		if isASCIIWhitespace(rune(trimmed[0])) {
			return MarkerThenChangeInline, strings.TrimSpace(trimmed)
		}
	}

	if pre, _, found := strings.Cut(line, "end-change"); found && isCommentPrefix(pre) {
		return MarkerEndChange, ""
	}

	return MarkerSourceLine, ""
}
