package ictc

import (
	"reflect"
	"testing"
)

func checkBlocks(t *testing.T, got []*Block, want []Block) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(got))
	}
	for i := range want {
		if !reflect.DeepEqual(*got[i], want[i]) {
			t.Errorf("block %d: expected %+v, got %+v", i, want[i], *got[i])
		}
	}
}

func checkInvariants(t *testing.T, blocks []*Block) {
	t.Helper()
	for i, b := range blocks {
		if !(b.ifChangeLine <= b.thenChangeLine && b.thenChangeLine <= b.endChangeLine) {
			t.Errorf("block %d: line order violated: %d, %d, %d", i, b.ifChangeLine, b.thenChangeLine, b.endChangeLine)
		}
		if r := b.ContentRange(); r.End <= r.Start {
			t.Errorf("block %d: empty content range %+v", i, r)
		}
	}
}

func TestParseWellFormed(t *testing.T) {
	blocks, diagnostics := ParseFile("if-change.foo", `0 lorem
# if-change
# if-change-should-not-be-considered
3 ipsum dolor
4 sit
# then-change then-change.foo
6 amet

8 consectetur
# if-change
10 adipiscing
11 elit
# then-change
#   then-change1.foo
#   then-change2.foo
# end-change

# if-change
18 sed
19 do
20 eiusmod
# then-change
#   if-change.foo
#   then-change3.foo
#   then-change4.foo
# end-change
26 tempor
27 incididunt
`)
	if len(diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diagnostics)
	}
	checkInvariants(t, blocks.Blocks)
	checkBlocks(t, blocks.Blocks, []Block{
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 5, Key: BlockKey{Path: "then-change.foo"}}},
			ifChangeLine:   1,
			thenChangeLine: 5,
			endChangeLine:  5,
		},
		{
			Key: BlockKey{Path: "if-change.foo"},
			ThenChange: []ThenChangeTarget{
				{Line: 13, Key: BlockKey{Path: "then-change1.foo"}},
				{Line: 14, Key: BlockKey{Path: "then-change2.foo"}},
			},
			ifChangeLine:   9,
			thenChangeLine: 12,
			endChangeLine:  15,
		},
		{
			Key: BlockKey{Path: "if-change.foo"},
			ThenChange: []ThenChangeTarget{
				// The parser does not strip self-referential entries; the
				// index does that during discovery.
				{Line: 22, Key: BlockKey{Path: "if-change.foo"}},
				{Line: 23, Key: BlockKey{Path: "then-change3.foo"}},
				{Line: 24, Key: BlockKey{Path: "then-change4.foo"}},
			},
			ifChangeLine:   17,
			thenChangeLine: 21,
			endChangeLine:  25,
		},
	})
}

func TestParseIndentationLevels(t *testing.T) {
	blocks, diagnostics := ParseFile("if-change.foo", ` lorem
 # if-change
 ipsum
 dolor
 sit
 # then-change then-change1.foo
 amet

     # if-change
     consectetur
     # then-change then-change2.foo
     adipiscing

     # if-change
     elit
     # then-change
     #   then-change3.foo
     # end-change

     # if-change
     sed
     do
     # then-change
     # then-change4a.foo
     #       then-change4b.foo
     # end-change

         # if-change
     eiusmod
     tempor
     incididunt
     # then-change then-change5.foo
 ut
 labore
`)
	if len(diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diagnostics)
	}
	checkInvariants(t, blocks.Blocks)
	if len(blocks.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(blocks.Blocks))
	}
	wantTargets := map[int][]string{
		0: {"then-change1.foo"},
		1: {"then-change2.foo"},
		2: {"then-change3.foo"},
		3: {"then-change4a.foo", "then-change4b.foo"},
		4: {"then-change5.foo"},
	}
	for i, b := range blocks.Blocks {
		if len(b.ThenChange) != len(wantTargets[i]) {
			t.Errorf("block %d: expected %d targets, got %d", i, len(wantTargets[i]), len(b.ThenChange))
			continue
		}
		for j, target := range b.ThenChange {
			if target.Key.Path != wantTargets[i][j] {
				t.Errorf("block %d target %d: expected %s, got %s", i, j, wantTargets[i][j], target.Key.Path)
			}
		}
	}
}

func TestParseCommentFormatsInline(t *testing.T) {
	blocks, diagnostics := ParseFile("if-change.foo", ` lorem
 # if-change
 ipsum
 dolor
 sit
 # then-change then-change1.foo
 amet

 // if-change
 consectetur
 adipiscing
 elit
 // then-change then-change2.foo

 sed
 -- if-change
 do
 -- then-change then-change3.foo
 eiusmod

 /* if-change */
 tempor
 incididunt
 /* then-change then-change4.foo */

 <!-- if-change -->
 ut
 <!-- then-change then-change5.foo -->
 <!-- if-change-->
 labore
 et
 <!-- then-change then-change6.foo-->

 -- if-change
 dolore
 magna
 aliqua
 // then-change then-change7.foo
`)
	if len(diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diagnostics)
	}
	checkInvariants(t, blocks.Blocks)
	checkBlocks(t, blocks.Blocks, []Block{
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 5, Key: BlockKey{Path: "then-change1.foo"}}},
			ifChangeLine:   1,
			thenChangeLine: 5,
			endChangeLine:  5,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 12, Key: BlockKey{Path: "then-change2.foo"}}},
			ifChangeLine:   8,
			thenChangeLine: 12,
			endChangeLine:  12,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 17, Key: BlockKey{Path: "then-change3.foo"}}},
			ifChangeLine:   15,
			thenChangeLine: 17,
			endChangeLine:  17,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 23, Key: BlockKey{Path: "then-change4.foo"}}},
			ifChangeLine:   20,
			thenChangeLine: 23,
			endChangeLine:  23,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 27, Key: BlockKey{Path: "then-change5.foo"}}},
			ifChangeLine:   25,
			thenChangeLine: 27,
			endChangeLine:  27,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 31, Key: BlockKey{Path: "then-change6.foo"}}},
			ifChangeLine:   28,
			thenChangeLine: 31,
			endChangeLine:  31,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 37, Key: BlockKey{Path: "then-change7.foo"}}},
			ifChangeLine:   33,
			thenChangeLine: 37,
			endChangeLine:  37,
		},
	})
}

func TestParseCommentFormatsBlock(t *testing.T) {
	blocks, diagnostics := ParseFile("if-change.foo", ` # if-change
 lorem
 ipsum
 # then-change
 #   then-change1.foo
 # end-change

 dolor
 // if-change
 sit
 // then-change
 //   then-change2a.foo
 //   then-change2b.foo
 //   then-change2c.foo
 // end-change
 amet

/* if-change */
 consectetur
 adipiscing
 elit
 /* then-change */
 /*   then-change3.foo */
 /* end-change */

 sed
 <!-- if-change -->
 do
 <!-- then-change -->
 <!--   then-change4.foo -->
 <!-- end-change -->

 <!-- if-change -->
 no whitespace required after then-change or the then-change-path
 <!-- then-change-->
 <!--   then-change5.foo-->
 <!-- end-change-->
`)
	if len(diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diagnostics)
	}
	checkInvariants(t, blocks.Blocks)
	checkBlocks(t, blocks.Blocks, []Block{
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 4, Key: BlockKey{Path: "then-change1.foo"}}},
			ifChangeLine:   0,
			thenChangeLine: 3,
			endChangeLine:  5,
		},
		{
			Key: BlockKey{Path: "if-change.foo"},
			ThenChange: []ThenChangeTarget{
				{Line: 11, Key: BlockKey{Path: "then-change2a.foo"}},
				{Line: 12, Key: BlockKey{Path: "then-change2b.foo"}},
				{Line: 13, Key: BlockKey{Path: "then-change2c.foo"}},
			},
			ifChangeLine:   8,
			thenChangeLine: 10,
			endChangeLine:  14,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 22, Key: BlockKey{Path: "then-change3.foo"}}},
			ifChangeLine:   17,
			thenChangeLine: 21,
			endChangeLine:  23,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 29, Key: BlockKey{Path: "then-change4.foo"}}},
			ifChangeLine:   26,
			thenChangeLine: 28,
			endChangeLine:  30,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 35, Key: BlockKey{Path: "then-change5.foo"}}},
			ifChangeLine:   32,
			thenChangeLine: 34,
			endChangeLine:  36,
		},
	})
}

func TestParseMultilineBlockComment(t *testing.T) {
	// The whole then-change clause lives inside one block comment, so the
	// opener and closer lines carry no per-line comment markers.
	blocks, diagnostics := ParseFile("if-change.foo", ` <!-- if-change -->
 tempor
 incididunt
 <!--
        then-change
    then-change6a.foo
            then-change6b.foo
        end-change
 -->

 <!-- if-change -->
 ut
 labore
 et
 <!-- then-change
    then-change7.foo
        end-change -->
`)
	if len(diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diagnostics)
	}
	checkInvariants(t, blocks.Blocks)
	checkBlocks(t, blocks.Blocks, []Block{
		{
			Key: BlockKey{Path: "if-change.foo"},
			ThenChange: []ThenChangeTarget{
				{Line: 5, Key: BlockKey{Path: "then-change6a.foo"}},
				{Line: 6, Key: BlockKey{Path: "then-change6b.foo"}},
			},
			ifChangeLine:   0,
			thenChangeLine: 4,
			endChangeLine:  7,
		},
		{
			Key:            BlockKey{Path: "if-change.foo"},
			ThenChange:     []ThenChangeTarget{{Line: 15, Key: BlockKey{Path: "then-change7.foo"}}},
			ifChangeLine:   10,
			thenChangeLine: 14,
			endChangeLine:  16,
		},
	})
}

func TestParseErrors(t *testing.T) {
	tt := []struct {
		name        string
		content     string
		wantBlocks  int
		wantErrors  []Diagnostic
	}{
		{
			name: "then-change not closed at EOF",
			content: `lorem
# if-change
ipsum
# then-change
#   then-change.foo
amet
`,
			wantBlocks: 0,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 5), Message: "then-change must be closed by an end-change"},
			},
		},
		{
			name: "if-change not closed at EOF",
			content: `lorem
# if-change
ipsum
`,
			wantBlocks: 0,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 2), Message: "if-change must be closed by a then-change"},
			},
		},
		{
			name: "nested if-change",
			content: `lorem
# if-change
ipsum
# if-change
dolor
# then-change then-change.foo
amet
`,
			wantBlocks: 1,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 3), Message: "if-change may not be nested"},
			},
		},
		{
			name: "orphan then-change",
			content: `lorem
# then-change foo.sh
ipsum
`,
			wantBlocks: 0,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 1), Message: "then-change must follow an if-change"},
			},
		},
		{
			name: "orphan then-change block start",
			content: `# then-change
`,
			wantBlocks: 0,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 0), Message: "then-change must follow an if-change"},
			},
		},
		{
			name: "orphan end-change",
			content: `lorem
# end-change
`,
			wantBlocks: 0,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 1), Message: "end-change must follow an if-change and then-change"},
			},
		},
		{
			name: "end-change directly after if-change",
			content: `# if-change
lorem
# end-change
# then-change foo.sh
`,
			wantBlocks: 1,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 2), Message: "end-change must follow an if-change and then-change"},
			},
		},
		{
			name: "empty target in then-change block",
			content: `# if-change
lorem
# then-change
#
#   foo.sh
# end-change
`,
			wantBlocks: 1,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 3), Message: "then-change does not reference a valid path"},
			},
		},
		{
			name: "multiple errors reported in one pass",
			content: `# end-change
lorem
# then-change foo.sh
# if-change
ipsum
# then-change bar.sh
# end-change
`,
			wantBlocks: 1,
			wantErrors: []Diagnostic{
				{Position: NewLinePosition("a.foo", 0), Message: "end-change must follow an if-change and then-change"},
				{Position: NewLinePosition("a.foo", 2), Message: "then-change must follow an if-change"},
				{Position: NewLinePosition("a.foo", 6), Message: "end-change must follow an if-change and then-change"},
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			blocks, diagnostics := ParseFile("a.foo", tc.content)
			if len(blocks.Blocks) != tc.wantBlocks {
				t.Errorf("expected %d blocks, got %d", tc.wantBlocks, len(blocks.Blocks))
			}
			if !reflect.DeepEqual(diagnostics, tc.wantErrors) {
				t.Errorf("expected diagnostics %v, got %v", tc.wantErrors, diagnostics)
			}
		})
	}
}

func TestCorrespondingBlock(t *testing.T) {
	blocks, diagnostics := ParseFile("b.sh", `# if-change
lorem
# then-change other.sh

# if-change
ipsum
# then-change a.sh
`)
	if len(diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diagnostics)
	}

	src := &Block{Key: BlockKey{Path: "a.sh"}}
	match := blocks.CorrespondingBlock(src)
	if match == nil {
		t.Fatal("expected a corresponding block")
	}
	if match.ifChangeLine != 4 {
		t.Errorf("expected the second block to match, got block at line %d", match.ifChangeLine)
	}

	unrelated := &Block{Key: BlockKey{Path: "c.sh"}}
	if blocks.CorrespondingBlock(unrelated) != nil {
		t.Error("expected no corresponding block for an unreferenced file")
	}
}
