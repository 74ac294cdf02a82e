// Package layout places the basic blocks of a CFG on a drawing surface and keeps
// node boxes and edges consistent with node positions.
//
// Positions start from graph distance to the entry block: each distance level
// is a row, and blocks of a level are spread across the viewport. Afterwards the
// engine only moves nodes when they are dragged; Render recomputes the derived
// geometry (boxes from measured labels, edges from boxes) on demand.
package layout

import (
	"fmt"
	"math"

	"github.com/l3aro/cfgview/pkg/blockindex"
	"github.com/l3aro/cfgview/pkg/cfg"
)

// Surface is the drawing surface the engine renders into. A label must be
// inserted before it is measured.
type Surface interface {
	// Viewport returns the current size of the container holding the surface.
	Viewport() (width, height float64)
	// SetViewport changes the container size, as a window resize does.
	SetViewport(width, height float64)
	// SetSize sizes the surface itself.
	SetSize(width, height float64)

	// InsertNode adds a node's label text and its (unplaced) box.
	InsertNode(id string, lines []string, stroke string)
	// MoveLabel positions a label's text anchor.
	MoveLabel(id string, x, y float64)
	// LabelBounds measures the rendered label.
	LabelBounds(id string) Rect
	// PlaceBox writes the geometry of a node's box.
	PlaceBox(id string, r Rect)

	// InsertEdge adds edge number index between two nodes.
	InsertEdge(index int, source, target string)
	// PlaceEdge writes the geometry of an edge.
	PlaceEdge(index int, seg Segment)

	// SetTransform applies a translate+scale to the whole diagram group.
	SetTransform(t Transform)
	// LowerEdges draws edges beneath every other element.
	LowerEdges()
	// RaiseLabels draws labels above every other element.
	RaiseLabels()
}

// Options tunes the layout.
type Options struct {
	Padding     float64 // Box margin around the measured label
	TopMargin   float64 // y of the first distance level
	Spread      float64 // Share of the viewport width a level spreads over
	LevelGap    float64 // Level advance as a multiple of the tallest box
	EdgeSpread  float64 // Sideways offset between parallel edges and self-loop reach
	Placeholder Point   // Position of nodes before (or without) layout
}

// DefaultOptions returns the standard layout parameters.
func DefaultOptions() Options {
	return Options{
		Padding:    15,
		TopMargin:  20,
		Spread:     0.9,
		LevelGap:   2,
		EdgeSpread: 24,
	}
}

type node struct {
	id    cfg.BlockID
	color string
	lines []string
	x, y  float64
	box   Rect
}

type link struct {
	index    int
	source   *node
	target   *node
	ordinal  int // position among edges with the same source and target
	parallel int // number of edges with the same source and target
	seg      Segment
}

// Engine owns node positions and the derived geometry of one diagram. It is
// not safe for concurrent use; one goroutine drives it.
type Engine struct {
	surface   Surface
	opts      Options
	nodes     []*node
	byID      map[cfg.BlockID]*node
	links     []*link
	transform Transform
	width     float64
	height    float64
	renders   int
}

// New inserts every block label, box and edge into the surface. Boxes are
// sized from the measured labels so Layout can use their heights. Edges that
// reference unknown blocks fail with cfg.ErrUnknownBlock.
func New(surface Surface, idx *blockindex.Index, edges []cfg.Edge, colors []string, opts Options) (*Engine, error) {
	e := &Engine{
		surface:   surface,
		opts:      opts,
		byID:      make(map[cfg.BlockID]*node, idx.Len()),
		transform: Identity,
	}

	for _, b := range idx.Blocks() {
		n := &node{
			id:    b.ID,
			lines: b.PrettyStrings,
			x:     opts.Placeholder.X,
			y:     opts.Placeholder.Y,
		}
		if b.SequentialIndex < len(colors) {
			n.color = colors[b.SequentialIndex]
		}
		e.nodes = append(e.nodes, n)
		e.byID[n.id] = n
	}

	type pair struct{ s, t *node }
	counts := make(map[pair]int)
	for i, ed := range edges {
		s, ok := e.byID[ed.Source]
		if !ok {
			return nil, &cfg.UnknownBlockError{ID: ed.Source, Where: fmt.Sprintf("links[%d].source", i)}
		}
		t, ok := e.byID[ed.Target]
		if !ok {
			return nil, &cfg.UnknownBlockError{ID: ed.Target, Where: fmt.Sprintf("links[%d].target", i)}
		}
		p := pair{s, t}
		e.links = append(e.links, &link{index: i, source: s, target: t, ordinal: counts[p]})
		counts[p]++
	}
	for _, l := range e.links {
		l.parallel = counts[pair{l.source, l.target}]
	}

	for _, n := range e.nodes {
		surface.InsertNode(string(n.id), n.lines, n.color)
		surface.MoveLabel(string(n.id), n.x, n.y)
		e.measure(n)
	}
	surface.RaiseLabels()

	for _, l := range e.links {
		surface.InsertEdge(l.index, string(l.source.id), string(l.target.id))
	}
	surface.LowerEdges()
	return e, nil
}

// Layout assigns initial positions level by level. Blocks absent from dist
// keep the placeholder position. Unknown ids fail before anything moves.
func (e *Engine) Layout(dist cfg.DistanceMap) error {
	levels := dist.Levels()
	for _, level := range levels {
		for _, id := range dist[level] {
			if _, ok := e.byID[id]; !ok {
				return &cfg.UnknownBlockError{ID: id, Where: fmt.Sprintf("dist_to_nodes[%d]", level)}
			}
		}
	}

	width, _ := e.surface.Viewport()
	span := math.Ceil(width * e.opts.Spread)
	offset := width - span
	y := e.opts.TopMargin
	for _, level := range levels {
		ids := dist[level]
		delta := span / float64(len(ids))
		tallest := 0.0
		for i, id := range ids {
			n := e.byID[id]
			n.x = offset + float64(i)*delta
			n.y = y
			tallest = math.Max(tallest, n.box.Height)
		}
		y += math.Ceil(e.opts.LevelGap * tallest)
	}
	return nil
}

// Render syncs the surface with the current node positions: surface size,
// label positions, boxes from measured labels, then edges from the boxes.
// Calling it again without state changes produces the same geometry.
func (e *Engine) Render() {
	e.width, e.height = e.surface.Viewport()
	e.surface.SetSize(e.width, e.height)

	for _, n := range e.nodes {
		e.surface.MoveLabel(string(n.id), n.x, n.y)
		e.measure(n)
	}
	for _, l := range e.links {
		l.seg = e.route(l)
		e.surface.PlaceEdge(l.index, l.seg)
	}
	e.surface.LowerEdges()
	e.renders++
}

// Drag moves one node by (dx, dy) and renders. No other node moves.
func (e *Engine) Drag(id cfg.BlockID, dx, dy float64) error {
	n, ok := e.byID[id]
	if !ok {
		return &cfg.UnknownBlockError{ID: id, Where: "drag"}
	}
	n.x += dx
	n.y += dy
	e.Render()
	return nil
}

// Zoom applies a transform to the whole diagram. Positions are untouched and
// nothing is re-rendered.
func (e *Engine) Zoom(t Transform) {
	e.transform = t
	e.surface.SetTransform(t)
}

// Resize changes the viewport and renders. Positions are untouched.
func (e *Engine) Resize(width, height float64) {
	e.surface.SetViewport(width, height)
	e.Render()
}

// Transform returns the current diagram transform.
func (e *Engine) Transform() Transform {
	return e.transform
}

// Renders counts completed Render calls.
func (e *Engine) Renders() int {
	return e.renders
}

func (e *Engine) measure(n *node) {
	n.box = e.surface.LabelBounds(string(n.id)).Grow(e.opts.Padding)
	e.surface.PlaceBox(string(n.id), n.box)
}

// route derives an edge from the current boxes of its endpoints.
func (e *Engine) route(l *link) Segment {
	from := l.source.box.BottomCenter()
	to := l.target.box.TopCenter()
	seg := Segment{X1: from.X, Y1: from.Y, X2: to.X, Y2: to.Y}

	switch {
	case l.source == l.target:
		seg.LoopX = l.source.box.X + l.source.box.Width
		seg.Loop = e.opts.EdgeSpread * float64(l.ordinal+1)
	case l.parallel > 1:
		seg.Bend = (float64(l.ordinal) - float64(l.parallel-1)/2) * e.opts.EdgeSpread
	}
	return seg
}

// NodeFrame is the geometry of one node after the latest render.
type NodeFrame struct {
	ID    cfg.BlockID `json:"id"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Box   Rect        `json:"box"`
	Color string      `json:"color"`
}

// EdgeFrame is the geometry of one edge after the latest render.
type EdgeFrame struct {
	Index   int         `json:"index"`
	Source  cfg.BlockID `json:"source"`
	Target  cfg.BlockID `json:"target"`
	Segment Segment     `json:"segment"`
	Path    string      `json:"path"`
}

// Frame is a snapshot of everything drawn, in insertion order.
type Frame struct {
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Transform Transform   `json:"transform"`
	Nodes     []NodeFrame `json:"nodes"`
	Edges     []EdgeFrame `json:"edges"`
}

// Node returns the current geometry of a node. Unknown ids yield a zero frame.
func (e *Engine) Node(id cfg.BlockID) NodeFrame {
	n, ok := e.byID[id]
	if !ok {
		return NodeFrame{}
	}
	return n.frame()
}

// Has reports whether id names a node of the diagram.
func (e *Engine) Has(id cfg.BlockID) bool {
	_, ok := e.byID[id]
	return ok
}

// Frame snapshots the diagram.
func (e *Engine) Frame() Frame {
	f := Frame{
		Width:     e.width,
		Height:    e.height,
		Transform: e.transform,
		Nodes:     make([]NodeFrame, 0, len(e.nodes)),
		Edges:     make([]EdgeFrame, 0, len(e.links)),
	}
	for _, n := range e.nodes {
		f.Nodes = append(f.Nodes, n.frame())
	}
	for _, l := range e.links {
		f.Edges = append(f.Edges, EdgeFrame{
			Index:   l.index,
			Source:  l.source.id,
			Target:  l.target.id,
			Segment: l.seg,
			Path:    l.seg.Path(),
		})
	}
	return f
}

func (n *node) frame() NodeFrame {
	return NodeFrame{ID: n.id, X: n.x, Y: n.y, Box: n.box, Color: n.color}
}
