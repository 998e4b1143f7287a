package check

import (
	"github.com/sxlijin/if-change-then-change/internal/diff"
	"github.com/sxlijin/if-change-then-change/pkg/ictc"
)

// TouchedBlocks returns, per path, the blocks whose content range intersects
// at least one added or removed line of the diff. Context lines never count as
// touching a block.
func TouchedBlocks(idx *Index, d *diff.Diff) map[string]*ictc.FileBlocks {
	touched := make(map[string]*ictc.FileBlocks)
	for _, file := range d.Files() {
		blocks, ok := idx.Blocks(file.Path)
		if !ok {
			continue
		}
		modified := make([]*ictc.Block, 0)
		for _, block := range blocks.Blocks {
			if blockTouched(block, file) {
				modified = append(modified, block)
			}
		}
		if len(modified) > 0 {
			touched[file.Path] = &ictc.FileBlocks{Blocks: modified}
		}
	}
	return touched
}

// blockTouched walks each hunk tracking whether the current post-diff position
// falls inside the block. Removed lines carry no post-diff line number, so
// they inherit the in-range state of the most recent line that had one: a
// deletion between two in-range lines is a change to the block.
func blockTouched(block *ictc.Block, file *diff.File) bool {
	contentRange := block.ContentRange()
	for _, hunk := range file.Hunks {
		inRange := false
		for _, line := range hunk.Lines {
			if line.TargetLine > 0 {
				// TargetLine is 1-indexed, block ranges are 0-indexed.
				inRange = contentRange.Contains(line.TargetLine - 1)
			}
			if inRange && line.Kind != diff.LineContext {
				return true
			}
		}
	}
	return false
}
