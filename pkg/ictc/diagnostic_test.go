package ictc

import (
	"reflect"
	"testing"
)

func TestPositionString(t *testing.T) {
	tt := []struct {
		name     string
		position Position
		expected string
	}{
		{"bare path", NewPosition("a.sh"), "a.sh"},
		{"single line", NewLinePosition("a.sh", 3), "a.sh:4"},
		{"range", NewRangePosition("a.sh", LineRange{Start: 2, End: 5}), "a.sh:3-5"},
		{"range collapsing to one line", NewRangePosition("a.sh", LineRange{Start: 3, End: 4}), "a.sh:4"},
		{"placeholder path", NewPosition("stdin"), "stdin"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.position.String(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Position: NewRangePosition("b.sh", LineRange{Start: 3, End: 5}),
		Message:  "expected change here due to change in a.sh:3-5",
	}
	expected := "b.sh:4-5 - expected change here due to change in a.sh:3-5"
	if got := d.String(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestSortDiagnostics(t *testing.T) {
	diagnostics := []Diagnostic{
		{Position: NewLinePosition("b.sh", 4), Message: "zz"},
		{Position: NewPosition("b.sh"), Message: "aa"},
		{Position: NewLinePosition("a.sh", 9), Message: "mm"},
		{Position: NewLinePosition("b.sh", 4), Message: "aa"},
		{Position: NewPosition("a.sh"), Message: "mm"},
	}
	SortDiagnostics(diagnostics)

	expected := []Diagnostic{
		{Position: NewPosition("a.sh"), Message: "mm"},
		{Position: NewLinePosition("a.sh", 9), Message: "mm"},
		{Position: NewPosition("b.sh"), Message: "aa"},
		{Position: NewLinePosition("b.sh", 4), Message: "aa"},
		{Position: NewLinePosition("b.sh", 4), Message: "zz"},
	}
	if !reflect.DeepEqual(diagnostics, expected) {
		t.Errorf("expected %v, got %v", expected, diagnostics)
	}
}
