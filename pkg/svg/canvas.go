// Package svg is an in-memory SVG drawing surface for the layout engine.
//
// Labels are measured with fixed font metrics: every rune advances by the
// metric's character width scaled by its display width, and lines are stacked
// at a fixed line height. The canvas serialises to a standalone <svg> element.
package svg

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/l3aro/cfgview/pkg/layout"
	"github.com/l3aro/cfgview/pkg/markup"
)

// Metrics describes the monospace font labels are drawn with.
type Metrics struct {
	CharWidth  float64 `json:"char_width" yaml:"char_width"`
	LineHeight float64 `json:"line_height" yaml:"line_height"`
	Ascent     float64 `json:"ascent" yaml:"ascent"`
	Descent    float64 `json:"descent" yaml:"descent"`
}

// DefaultMetrics approximates a 13px monospace font.
func DefaultMetrics() Metrics {
	return Metrics{CharWidth: 8, LineHeight: 22, Ascent: 14, Descent: 4}
}

// TextBounds measures lines of text whose anchor is (x, y). The first
// baseline sits one line height below the anchor.
func (m Metrics) TextBounds(x, y float64, lines []string) layout.Rect {
	widest := 0
	for _, l := range lines {
		widest = max(widest, runewidth.StringWidth(l))
	}
	n := max(len(lines), 1)
	return layout.Rect{
		X:      x,
		Y:      y + m.LineHeight - m.Ascent,
		Width:  float64(widest) * m.CharWidth,
		Height: float64(n-1)*m.LineHeight + m.Ascent + m.Descent,
	}
}

type kind uint8

const (
	kindLabel kind = iota
	kindBox
	kindEdge
)

func (k kind) String() string {
	switch k {
	case kindLabel:
		return "label"
	case kindBox:
		return "box"
	default:
		return "edge"
	}
}

type element struct {
	kind kind
	id   string
	edge int
}

func (el element) String() string {
	if el.kind == kindEdge {
		return fmt.Sprintf("edge:%d", el.edge)
	}
	return el.kind.String() + ":" + el.id
}

type label struct {
	text   []string
	stroke string
	x, y   float64
}

type edge struct {
	source, target string
	seg            layout.Segment
}

// Canvas implements layout.Surface.
type Canvas struct {
	metrics   Metrics
	viewW     float64
	viewH     float64
	width     float64
	height    float64
	transform layout.Transform
	labels    map[string]*label
	boxes     map[string]layout.Rect
	edges     map[int]*edge
	order     []element
}

// NewCanvas creates an empty canvas inside a viewport of the given size.
func NewCanvas(m Metrics, viewW, viewH float64) *Canvas {
	return &Canvas{
		metrics:   m,
		viewW:     viewW,
		viewH:     viewH,
		transform: layout.Identity,
		labels:    make(map[string]*label),
		boxes:     make(map[string]layout.Rect),
		edges:     make(map[int]*edge),
	}
}

func (c *Canvas) Viewport() (float64, float64) {
	return c.viewW, c.viewH
}

func (c *Canvas) SetViewport(w, h float64) {
	c.viewW, c.viewH = w, h
}

func (c *Canvas) SetSize(w, h float64) {
	c.width, c.height = w, h
}

// InsertNode adds a label and its box. Markup in lines is reduced to text.
func (c *Canvas) InsertNode(id string, lines []string, stroke string) {
	c.labels[id] = &label{text: markup.Lines(lines), stroke: stroke}
	c.boxes[id] = layout.Rect{}
	c.order = append(c.order, element{kind: kindBox, id: id}, element{kind: kindLabel, id: id})
}

func (c *Canvas) MoveLabel(id string, x, y float64) {
	l := c.mustLabel(id)
	l.x, l.y = x, y
}

// LabelBounds measures a label. It panics when the label was never inserted.
func (c *Canvas) LabelBounds(id string) layout.Rect {
	l := c.mustLabel(id)
	return c.metrics.TextBounds(l.x, l.y, l.text)
}

func (c *Canvas) PlaceBox(id string, r layout.Rect) {
	c.boxes[id] = r
}

func (c *Canvas) InsertEdge(index int, source, target string) {
	c.edges[index] = &edge{source: source, target: target}
	c.order = append(c.order, element{kind: kindEdge, edge: index})
}

func (c *Canvas) PlaceEdge(index int, seg layout.Segment) {
	if e, ok := c.edges[index]; ok {
		e.seg = seg
	}
}

func (c *Canvas) SetTransform(t layout.Transform) {
	c.transform = t
}

// LowerEdges moves every edge below the other elements, keeping relative order.
func (c *Canvas) LowerEdges() {
	c.order = partition(c.order, func(el element) bool { return el.kind == kindEdge })
}

// RaiseLabels moves every label above the other elements, keeping relative order.
func (c *Canvas) RaiseLabels() {
	c.order = partition(c.order, func(el element) bool { return el.kind != kindLabel })
}

// Order lists elements bottom to top as "kind:id".
func (c *Canvas) Order() []string {
	out := make([]string, len(c.order))
	for i, el := range c.order {
		out[i] = el.String()
	}
	return out
}

// Transform returns the group transform.
func (c *Canvas) Transform() layout.Transform {
	return c.transform
}

// Size returns the surface size set by the last render.
func (c *Canvas) Size() (float64, float64) {
	return c.width, c.height
}

func (c *Canvas) mustLabel(id string) *label {
	l, ok := c.labels[id]
	if !ok {
		panic(fmt.Sprintf("svg: label %q used before insertion", id))
	}
	return l
}

// partition stably moves elements matching first ahead of the rest.
func partition(els []element, first func(element) bool) []element {
	out := make([]element, 0, len(els))
	for _, el := range els {
		if first(el) {
			out = append(out, el)
		}
	}
	for _, el := range els {
		if !first(el) {
			out = append(out, el)
		}
	}
	return out
}

// WriteTo serialises the canvas as an <svg> element.
func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg id="cfg-svg" xmlns="http://www.w3.org/2000/svg" width="%s" height="%s">`+"\n",
		num(c.width), num(c.height))
	sb.WriteString(`<defs><marker id="cfg-arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z"/></marker></defs>` + "\n")
	fmt.Fprintf(&sb, `<g id="cfg-group" transform="%s">`+"\n", c.transform)

	for _, el := range c.order {
		switch el.kind {
		case kindEdge:
			e := c.edges[el.edge]
			fmt.Fprintf(&sb, `<path class="cfg-edge" data-edge="%d" data-source="%s" data-target="%s" d="%s" marker-end="url(#cfg-arrow)"/>`+"\n",
				el.edge, attr(e.source), attr(e.target), e.seg.Path())
		case kindBox:
			r := c.boxes[el.id]
			fmt.Fprintf(&sb, `<rect id="basic-block-bounding-box-%s" class="basic-block-box" data-block="%s" x="%s" y="%s" width="%s" height="%s" stroke="%s"/>`+"\n",
				attr(el.id), attr(el.id), num(r.X), num(r.Y), num(r.Width), num(r.Height), attr(c.labels[el.id].stroke))
		case kindLabel:
			l := c.labels[el.id]
			fmt.Fprintf(&sb, `<text id="basic-block-%s" class="basic-block-label" data-block="%s" x="%s" y="%s">`,
				attr(el.id), attr(el.id), num(l.x), num(l.y))
			for _, line := range l.text {
				fmt.Fprintf(&sb, `<tspan x="%s" dy="%s">%s</tspan>`, num(l.x), num(c.metrics.LineHeight), html.EscapeString(line))
			}
			sb.WriteString("</text>\n")
		}
	}
	sb.WriteString("</g>\n</svg>\n")

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String returns the serialised canvas.
func (c *Canvas) String() string {
	var sb strings.Builder
	_, _ = c.WriteTo(&sb)
	return sb.String()
}

func attr(s string) string {
	return html.EscapeString(s)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
