package check

import (
	"io"

	"github.com/sxlijin/if-change-then-change/internal/diff"
	"github.com/sxlijin/if-change-then-change/pkg/ictc"
)

// Options configures a single check run.
type Options struct {
	// Reader resolves post-diff paths to file contents.
	Reader FileReader

	// Ignore holds doublestar globs for paths to drop from the change set.
	Ignore []string
}

// Run reads a complete unified diff from input and returns every diagnostic
// the change set produces, sorted for output. Diagnostics are findings, not
// failures; the only errors are an unreadable stream or an unparsable diff
// envelope.
func Run(input io.Reader, opts Options) ([]ictc.Diagnostic, error) {
	d, diagnostics, err := diff.NewDiff(input, diff.Options{Ignore: opts.Ignore})
	if err != nil {
		return nil, err
	}

	idx, indexDiagnostics := NewIndex(d, opts.Reader)
	diagnostics = append(diagnostics, indexDiagnostics...)

	touched := TouchedBlocks(idx, d)
	diagnostics = append(diagnostics, Diagnose(idx, touched, d)...)

	ictc.SortDiagnostics(diagnostics)
	return diagnostics, nil
}
