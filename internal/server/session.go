package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/l3aro/cfgview/internal/log"
	"github.com/l3aro/cfgview/pkg/cfg"
	"github.com/l3aro/cfgview/pkg/interact"
	"github.com/l3aro/cfgview/pkg/svg"
	"github.com/l3aro/cfgview/pkg/view"
)

const helloType interact.Type = "hello"

// Size is a width and height in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ClientMessage is a client to server websocket message: a hello carrying
// the browser's measurements, or an interaction event.
type ClientMessage struct {
	interact.Event
	Viewport *Size        `json:"viewport,omitempty"`
	Panel    *Size        `json:"panel,omitempty"`
	Metrics  *svg.Metrics `json:"metrics,omitempty"`
}

// session owns one websocket and the view behind it. Only run writes to the
// connection.
type session struct {
	conn   *websocket.Conn
	fn     *cfg.Function
	opts   view.Options
	logger log.Logger

	reload    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, fn *cfg.Function, opts view.Options, logger log.Logger) *session {
	return &session{
		conn:   conn,
		fn:     fn,
		opts:   opts,
		logger: logger,
		reload: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *session) notifyReload() {
	select {
	case s.reload <- struct{}{}:
	default:
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *session) run(ctx context.Context) {
	defer s.close()

	_ = s.conn.SetReadDeadline(time.Now().Add(HelloTimeout))
	var hello ClientMessage
	if err := s.conn.ReadJSON(&hello); err != nil {
		s.logger.Debug("session ended before hello", "error", err)
		return
	}
	if hello.Type != helloType {
		s.send(Message{Type: "error", Error: "expected hello, got " + string(hello.Type)})
		return
	}
	_ = s.conn.SetReadDeadline(time.Time{})

	v, err := view.Build(s.fn, s.measured(hello), s.logger)
	if err != nil {
		s.send(Message{Type: "error", Error: err.Error()})
		return
	}
	if !s.sendFrame(v) {
		return
	}

	events := make(chan ClientMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			var m ClientMessage
			if err := s.conn.ReadJSON(&m); err != nil {
				readErr <- err
				return
			}
			select {
			case events <- m:
			case <-s.done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.reload:
			if !s.send(Message{Type: "reload"}) {
				return
			}
		case err := <-readErr:
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("session read failed", "error", err)
			}
			return
		case m := <-events:
			rendered, err := v.Handle(m.Event)
			if err != nil {
				if !s.send(Message{Type: "error", Error: err.Error()}) {
					return
				}
				continue
			}
			s.logger.Debug("event", "type", m.Type, "id", m.ID, "rendered", rendered)
			if !s.sendFrame(v) {
				return
			}
		}
	}
}

// measured applies the browser's measurements over the configured defaults.
func (s *session) measured(hello ClientMessage) view.Options {
	opts := s.opts
	if sz := hello.Viewport; sz != nil && sz.Width > 0 && sz.Height > 0 {
		opts.Width, opts.Height = sz.Width, sz.Height
	}
	if sz := hello.Panel; sz != nil && sz.Width >= 0 && sz.Height >= 0 {
		opts.PanelWidth, opts.PanelHeight = sz.Width, sz.Height
	}
	if m := hello.Metrics; m != nil && m.CharWidth > 0 && m.LineHeight > 0 {
		opts.Metrics = *m
	}
	return opts
}

func (s *session) sendFrame(v *view.View) bool {
	f := v.Frame()
	return s.send(Message{Type: "frame", Frame: &f})
}

func (s *session) send(m Message) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := s.conn.WriteJSON(m); err != nil {
		s.logger.Debug("session write failed", "error", err)
		return false
	}
	return true
}
