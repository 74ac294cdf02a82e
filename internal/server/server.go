// Package server serves one payload as a live, interactive page.
//
// The layout engine runs server side: every websocket session owns its own
// view, built from the viewport and font metrics the browser reports, and
// answers each interaction event with the updated frame geometry.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/l3aro/cfgview/internal/log"
	"github.com/l3aro/cfgview/pkg/cfg"
	"github.com/l3aro/cfgview/pkg/layout"
	"github.com/l3aro/cfgview/pkg/page"
	"github.com/l3aro/cfgview/pkg/view"
)

const (
	// HelloTimeout bounds the wait for a session's hello message.
	HelloTimeout = 10 * time.Second
	// WriteTimeout bounds every websocket write.
	WriteTimeout = 5 * time.Second
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout = 5 * time.Second

	socketPath = "/ws"
)

// Options configures a Server.
type Options struct {
	Addr        string
	PayloadPath string
	Watch       bool
	View        view.Options
}

// Server holds the current payload and the live sessions.
type Server struct {
	opts     Options
	logger   log.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	payload  *cfg.Function
	sessions map[*session]struct{}

	listener  net.Listener
	ready     chan struct{}
	readyOnce sync.Once
}

// New loads the payload and validates that a view can be built from it.
func New(opts Options, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Nop()
	}
	fn, err := cfg.Load(opts.PayloadPath)
	if err != nil {
		return nil, err
	}
	if _, err := view.Build(fn, opts.View, logger); err != nil {
		return nil, err
	}
	return &Server{
		opts:   opts,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16384,
		},
		payload:  fn,
		sessions: make(map[*session]struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Payload returns the current payload. It is shared and must not be mutated.
func (s *Server) Payload() *cfg.Function {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payload
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/", s.handleIndex)
	router.Handler(http.MethodGet, "/payload", cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(http.HandlerFunc(s.handlePayload)))
	router.GET(socketPath, s.handleSocket)
	return router
}

// Run serves until ctx is cancelled. With Watch set, payload changes on disk
// are picked up and every session is told to reload.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		s.readyOnce.Do(func() { close(s.ready) })
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	s.listener = ln
	s.readyOnce.Do(func() { close(s.ready) })

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("serving", "addr", ln.Addr().String(), "payload", s.opts.PayloadPath)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.closeSessions()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if s.opts.Watch {
		g.Go(func() error {
			return s.watch(ctx)
		})
	}

	return g.Wait()
}

// Addr blocks until Run has tried to listen and returns the bound address,
// or nil when listening failed.
func (s *Server) Addr() net.Addr {
	<-s.ready
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	v, err := view.Build(s.Payload(), s.opts.View, s.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Write(w, v, page.Options{Live: true, Socket: socketPath}); err != nil {
		s.logger.Error("writing page", "error", err)
	}
}

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := cfg.Encode(w, s.Payload(), cfg.FormatJSON); err != nil {
		s.logger.Error("writing payload", "error", err)
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	sess := newSession(conn, s.Payload(), s.opts.View, s.logger)
	s.track(sess, true)
	defer s.track(sess, false)
	sess.run(r.Context())
}

func (s *Server) track(sess *session, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.sessions[sess] = struct{}{}
	} else {
		delete(s.sessions, sess)
	}
}

// swap installs a new payload and asks every session to reload.
func (s *Server) swap(fn *cfg.Function) {
	s.mu.Lock()
	s.payload = fn
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.notifyReload()
	}
	s.logger.Info("payload reloaded", "function", fn.Name, "sessions", len(sessions))
}

func (s *Server) closeSessions() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sess := range s.sessions {
		sess.close()
	}
}

// Message is a server to client websocket message.
type Message struct {
	Type  string        `json:"type"` // "frame", "reload" or "error"
	Frame *layout.Frame `json:"frame,omitempty"`
	Error string        `json:"error,omitempty"`
}
