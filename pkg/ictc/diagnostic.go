package ictc

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// NoLine marks an absent line bound in a Position.
const NoLine = -1

// Position is a location in a file. StartLine and EndLine are 0-indexed and
// inclusive-exclusive; either may be NoLine. Diagnostics should always point at
// the location where we want the user to make a change - if a.sh contains an
// "if-change ... then-change b.sh", a.sh has been changed and b.sh has not,
// the diagnostic points at b.sh.
type Position struct {
	Path      string
	StartLine int
	EndLine   int
}

// NewPosition returns a Position with no line range.
func NewPosition(path string) Position {
	return Position{Path: path, StartLine: NoLine, EndLine: NoLine}
}

// NewLinePosition returns a Position pointing at a single 0-indexed line.
func NewLinePosition(path string, line int) Position {
	return Position{Path: path, StartLine: line, EndLine: NoLine}
}

// NewRangePosition returns a Position covering a 0-indexed inclusive-exclusive
// line range.
func NewRangePosition(path string, r LineRange) Position {
	return Position{Path: path, StartLine: r.Start, EndLine: r.End}
}

// String renders the position with 1-indexed, inclusive display bounds. A range
// that covers a single line collapses to "path:4" rather than "path:4-4", which
// is much more obvious at first glance; c.f. the GH permalink format.
func (p Position) String() string {
	if p.StartLine == NoLine {
		return p.Path
	}
	if p.EndLine == NoLine || p.EndLine == p.StartLine+1 {
		return fmt.Sprintf("%s:%d", p.Path, p.StartLine+1)
	}
	return fmt.Sprintf("%s:%d-%d", p.Path, p.StartLine+1, p.EndLine)
}

type Diagnostic struct {
	Position Position
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s - %s", d.Position, d.Message)
}

func compareDiagnostics(a, b Diagnostic) int {
	return cmp.Or(
		strings.Compare(a.Position.Path, b.Position.Path),
		cmp.Compare(a.Position.StartLine, b.Position.StartLine),
		cmp.Compare(a.Position.EndLine, b.Position.EndLine),
		strings.Compare(a.Message, b.Message),
	)
}

// SortDiagnostics orders diagnostics for output: lexicographic over path, then
// start line (absent first, since NoLine sorts below any real line), then end
// line, with ties broken by message text.
func SortDiagnostics(diagnostics []Diagnostic) {
	slices.SortFunc(diagnostics, compareDiagnostics)
}
