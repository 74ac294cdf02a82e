package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/cfgview/internal/log"
	"github.com/l3aro/cfgview/pkg/blockindex"
	"github.com/l3aro/cfgview/pkg/cfg"
	"github.com/l3aro/cfgview/pkg/interact"
)

type recordingLogger struct {
	log.Logger
	warnings []string
}

func (r *recordingLogger) Warn(msg string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprint(append([]interface{}{msg}, args...)...))
}

func loadFixture(t *testing.T) *cfg.Function {
	t.Helper()
	fn, err := cfg.Load("../../testdata/loop.json")
	require.NoError(t, err)
	return fn
}

func TestBuild_Fixture(t *testing.T) {
	fn := loadFixture(t)
	v, err := Build(fn, DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, "Function countdown from examples/countdown.py", v.Caption())
	require.Len(t, v.Table.Rows, len(fn.SourceCodeLines))
	assert.Len(t, v.Colors, len(fn.Nodes)+1)

	// Table and diagram agree on each block's color.
	frame := v.Frame()
	for _, n := range frame.Nodes {
		b, ok := v.Index.Block(n.ID)
		require.True(t, ok)
		assert.Equal(t, v.Colors[b.SequentialIndex], n.Color)
	}
	for _, row := range v.Table.Rows {
		if row.Bytecode != nil {
			b, _ := v.Index.Block(row.Bytecode.BlockID)
			assert.Equal(t, v.Colors[b.SequentialIndex], row.Color)
		}
	}

	// The def line opens no cell, the comment on line 6 extends block 4's cell.
	assert.True(t, v.Table.Rows[0].EmptyCell)
	assert.Nil(t, v.Table.Rows[3].Bytecode)
	assert.Equal(t, 2, v.Table.Rows[2].Bytecode.RowSpan)
	assert.Equal(t, 2, v.Table.Rows[4].Bytecode.RowSpan)

	// Python sources are highlighted.
	assert.Contains(t, v.Table.Rows[0].HTML, `<span class="tok-keyword">def</span>`)

	// Entry level sits above the rest.
	assert.Less(t, v.Engine.Node("0").Y, v.Engine.Node("4").Y)
	assert.Less(t, v.Engine.Node("4").Y, v.Engine.Node("12").Y)
	assert.Equal(t, v.Engine.Node("12").Y, v.Engine.Node("30").Y)
	assert.Equal(t, 1, v.Engine.Renders())
}

func TestBuild_HandlesEvents(t *testing.T) {
	v, err := Build(loadFixture(t), DefaultOptions(), nil)
	require.NoError(t, err)

	before := v.Engine.Node("30")
	rendered, err := v.Handle(interact.Event{Type: interact.Drag, Target: interact.Box, ID: "30", DX: 4, DY: 8})
	require.NoError(t, err)
	assert.True(t, rendered)
	assert.Equal(t, before.X+4, v.Engine.Node("30").X)
}

func TestBuild_WarnsAboutUnmappedAndConflicts(t *testing.T) {
	fn := &cfg.Function{
		Name:            "f",
		FileLocation:    "f.txt",
		FirstLine:       1,
		SourceCodeLines: []string{"a", "b"},
		Nodes: []cfg.BasicBlock{
			{ID: "A", PrettyStrings: []string{"x"}, SourceCodeLineNumbers: []int{1}},
			{ID: "B", PrettyStrings: []string{"y"}, SourceCodeLineNumbers: []int{1, 2}},
			{ID: "C", PrettyStrings: []string{"z"}},
		},
		DistToNodes: cfg.DistanceMap{0: {"A"}, 1: {"B", "C"}},
	}
	logger := &recordingLogger{Logger: log.Nop()}

	v, err := Build(fn, DefaultOptions(), logger)
	require.NoError(t, err)
	require.Len(t, logger.warnings, 2)
	assert.Contains(t, logger.warnings[0], "C")
	assert.Contains(t, logger.warnings[1], "line")

	// Later block owns the shared line.
	assert.Equal(t, cfg.BlockID("B"), v.Table.Rows[0].Owner)
	// Unhighlighted files are escaped only.
	assert.Equal(t, "a", v.Table.Rows[0].HTML)

	opts := DefaultOptions()
	opts.StrictLines = true
	_, err = Build(fn, opts, nil)
	assert.ErrorIs(t, err, blockindex.ErrLineConflict)
}

func TestBuild_UnknownIDs(t *testing.T) {
	fn := &cfg.Function{
		Name:            "f",
		SourceCodeLines: []string{"a"},
		FirstLine:       1,
		Nodes:           []cfg.BasicBlock{{ID: "A", SourceCodeLineNumbers: []int{1}}},
		Links:           []cfg.Edge{{Source: "A", Target: "missing"}},
		DistToNodes:     cfg.DistanceMap{0: {"A"}},
	}
	_, err := Build(fn, DefaultOptions(), nil)
	require.ErrorIs(t, err, cfg.ErrUnknownBlock)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestBuild_UnreachableAtPanelCorner(t *testing.T) {
	fn := &cfg.Function{
		Name:            "f",
		SourceCodeLines: []string{"a", "b"},
		FirstLine:       1,
		Nodes: []cfg.BasicBlock{
			{ID: "A", SourceCodeLineNumbers: []int{1}},
			{ID: "dead", SourceCodeLineNumbers: []int{2}},
		},
		DistToNodes: cfg.DistanceMap{0: {"A"}},
	}
	opts := DefaultOptions()
	v, err := Build(fn, opts, nil)
	require.NoError(t, err)

	n := v.Engine.Node("dead")
	assert.Equal(t, opts.PanelWidth, n.X)
	assert.Equal(t, opts.PanelHeight, n.Y)
}
