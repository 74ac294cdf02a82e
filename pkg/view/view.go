// Package view assembles everything shown for one function: the block index,
// the paired table, the drawing surface, the layout engine and the controller.
package view

import (
	"fmt"

	"github.com/l3aro/cfgview/internal/log"
	"github.com/l3aro/cfgview/pkg/blockindex"
	"github.com/l3aro/cfgview/pkg/cfg"
	"github.com/l3aro/cfgview/pkg/colormap"
	"github.com/l3aro/cfgview/pkg/highlight"
	"github.com/l3aro/cfgview/pkg/interact"
	"github.com/l3aro/cfgview/pkg/layout"
	"github.com/l3aro/cfgview/pkg/svg"
	"github.com/l3aro/cfgview/pkg/table"
)

// Options configures Build.
type Options struct {
	Width       float64 // Diagram viewport
	Height      float64
	PanelWidth  float64 // Table panel; unlaid nodes start at this point
	PanelHeight float64

	Layout       layout.Options
	Metrics      svg.Metrics
	Zoom         interact.ZoomOptions
	NeutralColor string
	Highlight    bool
	StrictLines  bool
}

// DefaultOptions returns options for a 1000x800 viewport.
func DefaultOptions() Options {
	return Options{
		Width:        1000,
		Height:       800,
		PanelWidth:   640,
		PanelHeight:  480,
		Layout:       layout.DefaultOptions(),
		Metrics:      svg.DefaultMetrics(),
		Zoom:         interact.DefaultZoom(),
		NeutralColor: table.NeutralColor,
		Highlight:    true,
	}
}

// View is one rendered function. It is owned by a single goroutine.
type View struct {
	Function   *cfg.Function
	Index      *blockindex.Index
	Colors     []string
	Table      *table.Table
	Canvas     *svg.Canvas
	Engine     *layout.Engine
	Controller *interact.Controller
}

// Build validates the payload, builds the table and lays out and renders the
// diagram once.
func Build(fn *cfg.Function, opts Options, logger log.Logger) (*View, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if err := fn.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", fn.Name, err)
	}

	idx, err := blockindex.Build(fn.Nodes, blockindex.WithStrictLines(opts.StrictLines))
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", fn.Name, err)
	}
	for _, id := range idx.Unmapped() {
		logger.Warn("basic block has no source lines; it is drawn but not correlated", "block", id)
	}
	for _, c := range idx.Conflicts() {
		logger.Warn("source line claimed by two blocks; later block wins",
			"line", c.Line, "previous", c.Previous, "owner", c.Owner)
	}

	// One extra shade keeps block colors apart from the neutral row color.
	colors := colormap.Rainbow(idx.Len() + 1)

	tableOpts := []table.Option{table.WithNeutralColor(opts.NeutralColor)}
	if opts.Highlight && highlight.Supported(fn.FileLocation) {
		path := fn.FileLocation
		tableOpts = append(tableOpts, table.WithHighlighter(func(lines []string) []string {
			return highlight.Lines(path, lines)
		}))
	}
	tbl := table.Build(fn.SourceCodeLines, fn.FirstLine, idx, colors, tableOpts...)

	canvas := svg.NewCanvas(opts.Metrics, opts.Width, opts.Height)
	lo := opts.Layout
	lo.Placeholder = layout.Point{X: opts.PanelWidth, Y: opts.PanelHeight}
	engine, err := layout.New(canvas, idx, fn.Links, colors, lo)
	if err != nil {
		return nil, fmt.Errorf("building diagram for %s: %w", fn.Name, err)
	}
	if err := engine.Layout(fn.DistToNodes); err != nil {
		return nil, fmt.Errorf("laying out %s: %w", fn.Name, err)
	}
	engine.Render()

	logger.Debug("view built", "function", fn.Name, "blocks", idx.Len(), "edges", len(fn.Links), "rows", len(tbl.Rows))
	return &View{
		Function:   fn,
		Index:      idx,
		Colors:     colors,
		Table:      tbl,
		Canvas:     canvas,
		Engine:     engine,
		Controller: interact.New(engine, opts.Zoom),
	}, nil
}

// Handle forwards an interaction to the controller.
func (v *View) Handle(ev interact.Event) (bool, error) {
	return v.Controller.Handle(ev)
}

// Frame snapshots the current diagram geometry.
func (v *View) Frame() layout.Frame {
	return v.Engine.Frame()
}

// Caption is the function identity shown above the view.
func (v *View) Caption() string {
	return v.Function.Caption()
}
