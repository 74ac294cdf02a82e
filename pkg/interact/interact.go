// Package interact maps pointer and window events onto a layout engine.
//
// Dragging a node label or a node box moves the same node. Zooming and panning
// only change the diagram transform; resizing re-renders at the new size.
package interact

import (
	"errors"
	"fmt"
	"math"

	"github.com/l3aro/cfgview/pkg/cfg"
	"github.com/l3aro/cfgview/pkg/layout"
)

var (
	// ErrUnknownEvent is returned for event types the controller does not bind.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrBadEvent is returned for events with unusable fields.
	ErrBadEvent = errors.New("malformed event")
)

// Type names a bound gesture.
type Type string

const (
	Drag   Type = "drag"
	Pan    Type = "pan"
	Wheel  Type = "wheel"
	Zoom   Type = "zoom"
	Resize Type = "resize"
)

// Target is the element a drag started on.
type Target string

const (
	Label Target = "label"
	Box   Target = "box"
)

// Event is one interaction. Deltas and pointer positions are in screen pixels.
type Event struct {
	Type      Type              `json:"type"`
	Target    Target            `json:"target,omitempty"`
	ID        cfg.BlockID       `json:"id,omitempty"`
	DX        float64           `json:"dx,omitempty"`
	DY        float64           `json:"dy,omitempty"`
	X         float64           `json:"x,omitempty"`
	Y         float64           `json:"y,omitempty"`
	Delta     float64           `json:"delta,omitempty"`
	Width     float64           `json:"width,omitempty"`
	Height    float64           `json:"height,omitempty"`
	Transform *layout.Transform `json:"transform,omitempty"`
}

// ZoomOptions bounds the zoom scale. A wheel delta d scales by 2^(-d*WheelStep).
type ZoomOptions struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	WheelStep float64 `yaml:"wheel_step"`
}

// DefaultZoom returns the standard zoom bounds.
func DefaultZoom() ZoomOptions {
	return ZoomOptions{Min: 0.1, Max: 8, WheelStep: 0.002}
}

// Controller dispatches events to one engine. Like the engine, it is owned by
// a single goroutine.
type Controller struct {
	engine *layout.Engine
	zoom   ZoomOptions
}

// New binds a controller to an engine.
func New(engine *layout.Engine, zoom ZoomOptions) *Controller {
	return &Controller{engine: engine, zoom: zoom}
}

// Handle applies an event and reports whether it re-rendered the diagram.
func (c *Controller) Handle(ev Event) (rendered bool, err error) {
	switch ev.Type {
	case Drag:
		if err := c.drag(ev); err != nil {
			return false, err
		}
		return true, nil
	case Pan:
		t := c.engine.Transform()
		t.X += ev.DX
		t.Y += ev.DY
		c.engine.Zoom(t)
		return false, nil
	case Wheel:
		c.wheel(ev)
		return false, nil
	case Zoom:
		if ev.Transform == nil || ev.Transform.K <= 0 {
			return false, fmt.Errorf("%w: zoom needs a transform with positive scale", ErrBadEvent)
		}
		t := *ev.Transform
		t.K = c.clamp(t.K)
		c.engine.Zoom(t)
		return false, nil
	case Resize:
		if ev.Width <= 0 || ev.Height <= 0 {
			return false, fmt.Errorf("%w: resize to %vx%v", ErrBadEvent, ev.Width, ev.Height)
		}
		c.engine.Resize(ev.Width, ev.Height)
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

// drag moves the node under either of its elements. Screen deltas are
// converted to diagram units through the current scale.
func (c *Controller) drag(ev Event) error {
	switch ev.Target {
	case Label, Box, "":
	default:
		return fmt.Errorf("%w: drag target %q", ErrBadEvent, ev.Target)
	}
	k := c.engine.Transform().K
	if k == 0 {
		k = 1
	}
	return c.engine.Drag(ev.ID, ev.DX/k, ev.DY/k)
}

// wheel zooms about the pointer so the point under it stays put.
func (c *Controller) wheel(ev Event) {
	t := c.engine.Transform()
	k := c.clamp(t.K * math.Pow(2, -ev.Delta*c.zoom.WheelStep))
	if t.K > 0 {
		ratio := k / t.K
		t.X = ev.X - (ev.X-t.X)*ratio
		t.Y = ev.Y - (ev.Y-t.Y)*ratio
	}
	t.K = k
	c.engine.Zoom(t)
}

func (c *Controller) clamp(k float64) float64 {
	if c.zoom.Min > 0 && k < c.zoom.Min {
		return c.zoom.Min
	}
	if c.zoom.Max > 0 && k > c.zoom.Max {
		return c.zoom.Max
	}
	return k
}
