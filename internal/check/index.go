package check

import (
	"fmt"

	"github.com/sxlijin/if-change-then-change/internal/diff"
	f "github.com/sxlijin/if-change-then-change/pkg/functional"
	"github.com/sxlijin/if-change-then-change/pkg/ictc"
)

// MaxHops bounds annotation discovery. Files named by the diff are always
// parsed; files named only by a then-change in a diffed file are read and
// parsed one hop out, so that their block positions can anchor diagnostics.
// Targets declared inside those hop-1 files are never expanded further.
const MaxHops = 1

// Index holds the parsed annotations for every file the check can see: the
// files in the diff plus the one-hop closure of their then-change targets.
type Index struct {
	files     map[string]*ictc.FileBlocks
	diffPaths f.Set[string]
}

// NewIndex parses every file the diff touches, then resolves each block's
// then-change entries. Entries that survive resolution are real obligations;
// the rest are dropped here so the correlation stage never sees them:
//
//   - a self-reference (target == declaring file) is dropped silently, since a
//     change to the block trivially satisfies it;
//   - a target that cannot be read produces a diagnostic at the declaring line
//     and is dropped;
//   - everything else is kept, parsing the target file on the way if the diff
//     did not already cover it.
func NewIndex(d *diff.Diff, reader FileReader) (*Index, []ictc.Diagnostic) {
	diagnostics := make([]ictc.Diagnostic, 0)
	idx := &Index{
		files:     make(map[string]*ictc.FileBlocks),
		diffPaths: f.NewSet[string](),
	}

	for _, file := range d.Files() {
		idx.diffPaths.Add(file.Path)
		content, err := reader.ReadFile(file.Path)
		if err != nil {
			diagnostics = append(diagnostics, ictc.Diagnostic{
				Position: ictc.NewPosition(diff.PlaceholderPath),
				Message:  fmt.Sprintf("diff references file that does not exist: '%s'", file.Path),
			})
			continue
		}
		blocks, parseDiagnostics := ictc.ParseFile(file.Path, string(content))
		diagnostics = append(diagnostics, parseDiagnostics...)
		idx.files[file.Path] = blocks
	}

	for _, file := range d.Files() {
		blocks, ok := idx.files[file.Path]
		if !ok {
			continue
		}
		for _, block := range blocks.Blocks {
			kept := make([]ictc.ThenChangeTarget, 0, len(block.ThenChange))
			for _, target := range block.ThenChange {
				if idx.resolveTarget(block, target, reader, &diagnostics) {
					kept = append(kept, target)
				}
			}
			block.ThenChange = kept
		}
	}

	return idx, diagnostics
}

func (idx *Index) resolveTarget(block *ictc.Block, target ictc.ThenChangeTarget, reader FileReader, diagnostics *[]ictc.Diagnostic) bool {
	path := target.Key.Path
	if path == block.Key.Path {
		return false
	}
	if idx.diffPaths.Contains(path) {
		return true
	}
	if _, loaded := idx.files[path]; loaded {
		return true
	}

	content, err := reader.ReadFile(path)
	if err != nil {
		*diagnostics = append(*diagnostics, ictc.Diagnostic{
			Position: ictc.NewLinePosition(block.Key.Path, target.Line),
			Message:  fmt.Sprintf("then-change references file that does not exist: '%s'", path),
		})
		return false
	}
	targetBlocks, parseDiagnostics := ictc.ParseFile(path, string(content))
	*diagnostics = append(*diagnostics, parseDiagnostics...)
	idx.files[path] = targetBlocks
	return true
}

// Blocks returns the parsed annotations for a path, if the index has them.
func (idx *Index) Blocks(path string) (*ictc.FileBlocks, bool) {
	blocks, ok := idx.files[path]
	return blocks, ok
}
