package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a position on the drawing surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in surface coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Grow returns r extended by pad on every side.
func (r Rect) Grow(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + 2*pad, Height: r.Height + 2*pad}
}

// BottomCenter is where outgoing edges start.
func (r Rect) BottomCenter() Point {
	return Point{X: r.X + math.Ceil(r.Width/2), Y: r.Y + r.Height}
}

// TopCenter is where incoming edges end.
func (r Rect) TopCenter() Point {
	return Point{X: r.X + math.Ceil(r.Width/2), Y: r.Y}
}

// Transform is the translate+scale applied to the whole diagram group.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity leaves the diagram untouched.
var Identity = Transform{K: 1}

// String renders the transform as an SVG transform attribute.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", num(t.X), num(t.Y), num(t.K))
}

// Segment is the drawn shape of one edge. X1/Y1 is the source box's bottom
// center and X2/Y2 the target box's top center. Bend offsets parallel edges
// sideways; Loop is the reach of a self-loop beyond LoopX, the box's right side.
type Segment struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Bend  float64 `json:"bend,omitempty"`
	Loop  float64 `json:"loop,omitempty"`
	LoopX float64 `json:"loop_x,omitempty"`
}

// Path returns the SVG path data for the segment.
func (s Segment) Path() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "M %s %s ", num(s.X1), num(s.Y1))

	switch {
	case s.Loop > 0:
		right := s.LoopX + s.Loop
		fmt.Fprintf(&sb, "C %s %s, %s %s, %s %s",
			num(right), num(s.Y1+s.Loop), num(right), num(s.Y2-s.Loop), num(s.X2), num(s.Y2))
	case s.Bend != 0:
		dx, dy := s.X2-s.X1, s.Y2-s.Y1
		length := math.Hypot(dx, dy)
		if length == 0 {
			fmt.Fprintf(&sb, "L %s %s", num(s.X2), num(s.Y2))
			break
		}
		// A quadratic curve peaks halfway to its control point.
		cx := (s.X1+s.X2)/2 - dy/length*s.Bend*2
		cy := (s.Y1+s.Y2)/2 + dx/length*s.Bend*2
		fmt.Fprintf(&sb, "Q %s %s, %s %s", num(cx), num(cy), num(s.X2), num(s.Y2))
	default:
		fmt.Fprintf(&sb, "L %s %s", num(s.X2), num(s.Y2))
	}
	return sb.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
