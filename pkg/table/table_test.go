package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/cfgview/pkg/blockindex"
	"github.com/l3aro/cfgview/pkg/cfg"
)

var colors = []string{"#96005a", "#2cff96", "#ff0000"}

func buildIndex(t *testing.T, blocks ...cfg.BasicBlock) *blockindex.Index {
	t.Helper()
	idx, err := blockindex.Build(blocks)
	require.NoError(t, err)
	return idx
}

func TestBuild_OneRowPerLine(t *testing.T) {
	idx := buildIndex(t,
		cfg.BasicBlock{ID: "0", PrettyStrings: []string{"a"}, SourceCodeLineNumbers: []int{10, 11}},
		cfg.BasicBlock{ID: "1", PrettyStrings: []string{"b"}, SourceCodeLineNumbers: []int{13}},
	)
	lines := []string{"def f(x):", "    y = x", "", "    return y"}
	tbl := Build(lines, 10, idx, colors)

	require.Len(t, tbl.Rows, len(lines))
	for i, row := range tbl.Rows {
		assert.Equal(t, 10+i, row.LineNumber)
	}
}

func TestBuild_UnownedLineExtendsSpan(t *testing.T) {
	idx := buildIndex(t,
		cfg.BasicBlock{ID: "A", PrettyStrings: []string{"LOAD", "STORE"}, SourceCodeLineNumbers: []int{1, 3}},
	)
	tbl := Build([]string{"x = 1", "# note", "y = 2"}, 1, idx, colors)

	require.NotNil(t, tbl.Rows[0].Bytecode)
	assert.Equal(t, 3, tbl.Rows[0].Bytecode.RowSpan)
	assert.Nil(t, tbl.Rows[1].Bytecode)
	assert.False(t, tbl.Rows[1].EmptyCell)
	assert.Nil(t, tbl.Rows[2].Bytecode)

	// The unowned row keeps the neutral border.
	assert.Equal(t, "#96005a", tbl.Rows[0].Color)
	assert.Equal(t, NeutralColor, tbl.Rows[1].Color)
	assert.Equal(t, "#96005a", tbl.Rows[2].Color)
}

func TestBuild_UnownedLineAddsExactlyOne(t *testing.T) {
	idx := buildIndex(t,
		cfg.BasicBlock{ID: "A", SourceCodeLineNumbers: []int{1, 2}},
		cfg.BasicBlock{ID: "B", SourceCodeLineNumbers: []int{4}},
	)
	without := Build([]string{"a", "b"}, 1, idx, colors)
	with := Build([]string{"a", "b", "c"}, 1, idx, colors)

	assert.Equal(t, without.Rows[0].Bytecode.RowSpan+1, with.Rows[0].Bytecode.RowSpan)
}

func TestBuild_CellTransitions(t *testing.T) {
	idx := buildIndex(t,
		cfg.BasicBlock{ID: "A", SourceCodeLineNumbers: []int{2, 3}},
		cfg.BasicBlock{ID: "B", SourceCodeLineNumbers: []int{4}},
		cfg.BasicBlock{ID: "C", SourceCodeLineNumbers: []int{5}},
	)
	tbl := Build([]string{"l1", "l2", "l3", "l4", "l5", "l6"}, 1, idx, colors)
	rows := tbl.Rows

	// Line 1: no cell open yet.
	assert.True(t, rows[0].EmptyCell)
	assert.Equal(t, NeutralColor, rows[0].Color)

	require.NotNil(t, rows[1].Bytecode)
	assert.Equal(t, cfg.BlockID("A"), rows[1].Bytecode.BlockID)
	assert.Equal(t, 2, rows[1].Bytecode.RowSpan)

	require.NotNil(t, rows[3].Bytecode)
	assert.Equal(t, 1, rows[3].Bytecode.RowSpan)
	assert.Equal(t, "#2cff96", rows[3].Bytecode.Color)

	// Line 6 is unowned and extends C's cell.
	require.NotNil(t, rows[4].Bytecode)
	assert.Equal(t, 2, rows[4].Bytecode.RowSpan)
	assert.Equal(t, "#ff0000", rows[4].Color)
}

func TestBuild_SameBlockAfterGapContinues(t *testing.T) {
	idx := buildIndex(t,
		cfg.BasicBlock{ID: "A", SourceCodeLineNumbers: []int{1, 4}},
	)
	tbl := Build([]string{"a", "", "", "b"}, 1, idx, colors)

	assert.Equal(t, 4, tbl.Rows[0].Bytecode.RowSpan)
	for _, row := range tbl.Rows[1:] {
		assert.Nil(t, row.Bytecode)
	}
}

func TestBuild_LineLabels(t *testing.T) {
	tests := []struct {
		count, first int
		width        int
		label        string
	}{
		{count: 1, first: 1, width: 1, label: "1"},
		{count: 5, first: 1, width: 2, label: "01"},
		{count: 10, first: 100, width: 5, label: "00100"},
		{count: 3, first: 0, width: 2, label: "00"},
	}
	for _, tt := range tests {
		lines := make([]string, tt.count)
		tbl := Build(lines, tt.first, buildIndex(t), colors)
		assert.Equal(t, tt.width, tbl.NumberWidth, "count=%d first=%d", tt.count, tt.first)
		assert.Equal(t, tt.label, tbl.Rows[0].Label)
	}
}

func TestBuild_Dedent(t *testing.T) {
	lines := []string{
		"    def f():",
		"        return 1",
		"  x",
		"",
		"\tz",
	}
	tbl := Build(lines, 1, buildIndex(t), colors)

	assert.Equal(t, 4, tbl.Indent)
	got := make([]string, len(tbl.Rows))
	for i, row := range tbl.Rows {
		got[i] = row.Source
	}
	assert.Equal(t, []string{"def f():", "    return 1", "x", "", "z"}, got)
}

func TestBuild_TrimsLineTerminators(t *testing.T) {
	tbl := Build([]string{"    a = 1\n", "    b = 2\r\n"}, 1, buildIndex(t), colors)

	assert.Equal(t, "a = 1", tbl.Rows[0].Source)
	assert.Equal(t, "b = 2", tbl.Rows[1].Source)
	assert.Equal(t, "b = 2", tbl.Rows[1].HTML)
}

func TestBuild_HTML(t *testing.T) {
	tbl := Build([]string{"if a < b:"}, 1, buildIndex(t), colors)
	assert.Equal(t, "if a &lt; b:", tbl.Rows[0].HTML)

	tbl = Build([]string{"x"}, 1, buildIndex(t), colors,
		WithHighlighter(func(lines []string) []string {
			return []string{"<b>" + lines[0] + "</b>"}
		}),
		WithNeutralColor("#000000"),
	)
	assert.Equal(t, "<b>x</b>", tbl.Rows[0].HTML)
	assert.Equal(t, "#000000", tbl.Rows[0].Color)
}

func TestWriteText(t *testing.T) {
	idx := buildIndex(t,
		cfg.BasicBlock{ID: "7", PrettyStrings: []string{"<b>LOAD_FAST</b> x", "BINARY_ADD", "RETURN_VALUE"}, SourceCodeLineNumbers: []int{1, 2}},
	)
	tbl := Build([]string{"a = x", "return a + 1"}, 1, idx, colors)

	var buf bytes.Buffer
	WriteText(&buf, tbl, false)
	out := buf.String()

	assert.Contains(t, out, "LOAD_FAST x")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "BINARY_ADD")
	assert.Contains(t, out, "RETURN_VALUE")
	assert.Contains(t, out, "return a + 1")

	// LOAD_FAST sits on the first row and the rest on the second.
	var first, second string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "a = x") {
			first = line
		}
		if strings.Contains(line, "return a + 1") {
			second = line
		}
	}
	assert.Contains(t, first, "LOAD_FAST")
	assert.Contains(t, second, "BINARY_ADD")
}

func TestTint(t *testing.T) {
	assert.Equal(t, "\x1b[38;2;255;0;0mX\x1b[0m", tint("X", "#ff0000"))
	assert.Equal(t, "X", tint("X", "nope"))
}
