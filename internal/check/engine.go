package check

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sxlijin/if-change-then-change/internal/diff"
	"github.com/sxlijin/if-change-then-change/pkg/ictc"
)

// Diagnose walks every touched block's obligations and reports the ones the
// diff does not discharge. An obligation is satisfied when the target file has
// a touched block whose own then-change points back at the source file.
func Diagnose(idx *Index, touched map[string]*ictc.FileBlocks, d *diff.Diff) []ictc.Diagnostic {
	diagnostics := make([]ictc.Diagnostic, 0)
	for _, path := range slices.Sorted(maps.Keys(touched)) {
		for _, block := range touched[path].Blocks {
			for _, target := range block.ThenChange {
				diagnostics = append(diagnostics, diagnoseTarget(idx, touched, d, block, target)...)
			}
		}
	}
	return diagnostics
}

func diagnoseTarget(idx *Index, touched map[string]*ictc.FileBlocks, d *diff.Diff, block *ictc.Block, target ictc.ThenChangeTarget) []ictc.Diagnostic {
	targetPath := target.Key.Path
	if targetBlocks, ok := touched[targetPath]; ok {
		if targetBlocks.CorrespondingBlock(block) != nil {
			return nil
		}
	}

	source := ictc.NewRangePosition(block.Key.Path, block.ContentRange())

	// Anchor the diagnostics at the target's corresponding block when one
	// exists; without one, the best we can point at is the file.
	position := ictc.NewPosition(targetPath)
	haveMatch := false
	if parsed, ok := idx.Blocks(targetPath); ok {
		if match := parsed.CorrespondingBlock(block); match != nil {
			position = ictc.NewRangePosition(targetPath, match.ContentRange())
			haveMatch = true
		}
	}

	out := make([]ictc.Diagnostic, 0, 2)
	if !haveMatch {
		out = append(out, ictc.Diagnostic{
			Position: position,
			Message:  fmt.Sprintf("expected an if-change-then-change in this file that matches %s", source),
		})
	}
	if haveMatch || !d.ContainsPath(targetPath) {
		out = append(out, ictc.Diagnostic{
			Position: position,
			Message:  fmt.Sprintf("expected change here due to change in %s", source),
		})
	}
	return out
}
