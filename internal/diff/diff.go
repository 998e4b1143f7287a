package diff

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/sxlijin/if-change-then-change/pkg/ictc"
)

// PlaceholderPath stands in for positions that belong to the diff stream
// itself rather than to any file in it.
const PlaceholderPath = "stdin"

type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

// Line is one line of a hunk. TargetLine is the 1-indexed post-diff line
// number; it is 0 for removed lines, which have no position in the post-diff
// file.
type Line struct {
	Kind       LineKind
	TargetLine int
}

type Hunk struct {
	Lines []Line
}

// File is one changed file, keyed by its post-diff path (git "a/"/"b/"
// prefixes stripped).
type File struct {
	Path  string
	Hunks []Hunk
}

// Diff is the parsed change set, keyed by post-diff path. Deleted files are
// not represented: their post-diff path is /dev/null and there is nothing to
// read or correlate against.
type Diff struct {
	files  []*File
	byPath map[string]*File
}

// Files returns the changed files in diff order.
func (d *Diff) Files() []*File {
	return d.files
}

// Lookup returns the changed file for a post-diff path, if present.
func (d *Diff) Lookup(path string) (*File, bool) {
	file, ok := d.byPath[path]
	return file, ok
}

// ContainsPath reports whether a post-diff path is part of the change set.
func (d *Diff) ContainsPath(path string) bool {
	_, ok := d.byPath[path]
	return ok
}

type Options struct {
	// Ignore holds doublestar globs; matching post-diff paths are dropped
	// from the change set before any checking happens.
	Ignore []string
}

// NewDiff reads a complete unified diff from r. Git-style diffs (detected by
// the "diff --git" preamble) have their "a/"/"b/" path prefixes validated and
// stripped; a file pair violating that convention produces a diagnostic and is
// excluded, but does not fail the parse. Only an unreadable stream or an
// unparsable envelope is an error.
func NewDiff(r io.Reader, opts Options) (*Diff, []ictc.Diagnostic, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read diff input: %w", err)
	}
	isGitDiff := bytes.HasPrefix(input, []byte("diff --git"))

	fileDiffs, err := diff.ParseMultiFileDiff(input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	diagnostics := make([]ictc.Diagnostic, 0)
	d := &Diff{byPath: make(map[string]*File, len(fileDiffs))}

	for _, fd := range fileDiffs {
		path, ok := postDiffPath(fd, isGitDiff, &diagnostics)
		if !ok {
			continue
		}
		if ignored(path, opts.Ignore) {
			continue
		}
		file := &File{Path: path, Hunks: toHunks(fd.Hunks)}
		d.files = append(d.files, file)
		d.byPath[path] = file
	}

	return d, diagnostics, nil
}

// postDiffPath validates a file pair and returns the stripped post-diff path.
// In a "diff --git", the only pairs not prefixed with "a/" and "b/" are adds
// (source is /dev/null) and deletes (target is /dev/null).
func postDiffPath(fd *diff.FileDiff, isGitDiff bool, diagnostics *[]ictc.Diagnostic) (string, bool) {
	if !isGitDiff {
		if fd.NewName == "/dev/null" {
			return "", false
		}
		return fd.NewName, true
	}

	sourceValid := strings.HasPrefix(fd.OrigName, "a/") || fd.OrigName == "/dev/null"
	targetValid := strings.HasPrefix(fd.NewName, "b/") || fd.NewName == "/dev/null"
	if !sourceValid || !targetValid {
		*diagnostics = append(*diagnostics, ictc.Diagnostic{
			Position: ictc.NewPosition(PlaceholderPath),
			Message: fmt.Sprintf(
				"invalid git diff: expected a/before.path -> b/after.path, but got '%s' -> '%s'",
				fd.OrigName, fd.NewName,
			),
		})
		return "", false
	}
	if fd.NewName == "/dev/null" {
		return "", false
	}
	return fd.NewName[2:], true
}

// toHunks reconstructs per-line post-diff line numbers from each hunk's start
// line, the way the wire format implies them: context and added lines advance
// the post-diff position, removed lines do not occupy one.
func toHunks(hunks []*diff.Hunk) []Hunk {
	out := make([]Hunk, 0, len(hunks))
	for _, hunk := range hunks {
		lines := make([]Line, 0)
		target := int(hunk.NewStartLine)

		scanner := bufio.NewScanner(bytes.NewReader(hunk.Body))
		for scanner.Scan() {
			line := scanner.Text()
			kind := LineContext
			if len(line) > 0 {
				switch line[0] {
				case '+':
					kind = LineAdded
				case '-':
					kind = LineRemoved
				}
			}
			if kind == LineRemoved {
				lines = append(lines, Line{Kind: kind})
				continue
			}
			lines = append(lines, Line{Kind: kind, TargetLine: target})
			target++
		}
		out = append(out, Hunk{Lines: lines})
	}
	return out
}

func ignored(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}
