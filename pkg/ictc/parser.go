package ictc

import (
	"bufio"
	"strings"
)

// LineRange is a 0-indexed, inclusive-exclusive span of lines.
type LineRange struct {
	Start int
	End   int
}

func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// BlockKey identifies the file a block belongs to. Keys are NOT required to be
// unique per block: if foo.sh contains "if-change ... then-change bar1.sh" on
// L4-6 and "if-change ... then-change bar2.sh" on L8-10, the block paired with
// bar2.sh is resolved by matching which then-change entry points back at the
// source, not by key uniqueness.
type BlockKey struct {
	Path string
}

// ThenChangeTarget is one declared obligation: the 0-indexed line it was
// declared on and the file it names.
type ThenChangeTarget struct {
	Line int
	Key  BlockKey
}

// Block is one parsed co-change region.
type Block struct {
	Key BlockKey

	// ThenChange holds the obligation targets in file order.
	ThenChange []ThenChangeTarget

	ifChangeLine   int
	thenChangeLine int
	endChangeLine  int
}

// ContentRange is the line span we expect a corresponding diff to touch. It
// deliberately includes the delimiting if-change and then-change lines, so that
// edits to the markers themselves (e.g. wrapping existing code in a new block)
// count as a change to the block.
func (b *Block) ContentRange() LineRange {
	return LineRange{Start: b.ifChangeLine, End: b.endChangeLine + 1}
}

// FileBlocks is the ordered list of blocks parsed from one file.
type FileBlocks struct {
	Blocks []*Block
}

// CorrespondingBlock returns the block whose own then-change list names the
// source block's file, if any. Linear search: a file never has enough blocks
// for an index to pay for itself.
func (fb *FileBlocks) CorrespondingBlock(src *Block) *Block {
	for _, dst := range fb.Blocks {
		for _, target := range dst.ThenChange {
			if target.Key == src.Key {
				return dst
			}
		}
	}
	return nil
}

type parseState int

const (
	stateIdle parseState = iota
	stateOpened
	stateCollecting
)

type parser struct {
	path        string
	state       parseState
	building    *Block
	blocks      []*Block
	diagnostics []Diagnostic
}

func (p *parser) errorAt(line int, message string) {
	p.diagnostics = append(p.diagnostics, Diagnostic{
		Position: NewLinePosition(p.path, line),
		Message:  message,
	})
}

func (p *parser) pushTarget(line int, target string) {
	if strings.TrimSpace(target) == "" {
		p.errorAt(line, "then-change does not reference a valid path")
		return
	}
	p.building.ThenChange = append(p.building.ThenChange, ThenChangeTarget{
		Line: line,
		Key:  BlockKey{Path: target},
	})
}

func (p *parser) emit() {
	p.blocks = append(p.blocks, p.building)
	p.building = nil
	p.state = stateIdle
}

// ParseFile scans content for if-change-then-change blocks.
//
// Lines are classified independently of parser state, so a stray end-change
// gets an actionable message no matter what preceded it, and an error never
// aborts the scan: all malformed constructs in a file are reported in one pass.
// Whatever well-formed blocks were found are returned alongside the
// diagnostics; the caller decides whether the diagnostics disqualify them.
//
// Inside a then-change block we cannot tell a target path from a line of code,
// because block-comment styles ("<!-- ... -->", "/* ... */") mean a target line
// may carry no comment marker of its own. Every line there is taken as a
// target, trimmed of surrounding comment punctuation.
func ParseFile(path string, content string) (*FileBlocks, []Diagnostic) {
	p := &parser{path: path}

	lineno := -1
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r")
		marker, payload := Classify(line)

		switch p.state {
		case stateIdle:
			switch marker {
			case MarkerSourceLine:
			case MarkerIfChange:
				p.building = &Block{Key: BlockKey{Path: path}, ifChangeLine: lineno}
				p.state = stateOpened
			case MarkerThenChangeInline, MarkerThenChangeBlockStart:
				p.errorAt(lineno, "then-change must follow an if-change")
			case MarkerEndChange:
				p.errorAt(lineno, "end-change must follow an if-change and then-change")
			}
		case stateOpened:
			switch marker {
			case MarkerSourceLine:
			case MarkerIfChange:
				p.errorAt(lineno, "if-change may not be nested")
			case MarkerThenChangeInline:
				p.pushTarget(lineno, payload)
				p.building.thenChangeLine = lineno
				p.building.endChangeLine = lineno
				p.emit()
			case MarkerThenChangeBlockStart:
				p.building.thenChangeLine = lineno
				p.state = stateCollecting
			case MarkerEndChange:
				p.errorAt(lineno, "end-change must follow an if-change and then-change")
			}
		case stateCollecting:
			switch marker {
			case MarkerSourceLine:
				p.pushTarget(lineno, strings.TrimFunc(line, isCommentRune))
			case MarkerIfChange, MarkerThenChangeInline, MarkerThenChangeBlockStart:
				p.errorAt(lineno, "end-change must follow an if-change and then-change")
			case MarkerEndChange:
				p.building.endChangeLine = lineno
				p.emit()
			}
		}
	}

	// An unterminated block is reported at the last line and never emitted.
	switch p.state {
	case stateOpened:
		p.errorAt(lineno, "if-change must be closed by a then-change")
	case stateCollecting:
		p.errorAt(lineno, "then-change must be closed by an end-change")
	}

	return &FileBlocks{Blocks: p.blocks}, p.diagnostics
}
