package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/l3aro/cfgview/pkg/cfg"
	"github.com/l3aro/cfgview/pkg/dirty"
	"github.com/l3aro/cfgview/pkg/view"
)

// watch reloads the payload whenever its file's contents change. The
// directory is watched rather than the file so editors that replace the file
// on save are still seen. A payload that fails to load or lay out keeps the
// previous one.
func (s *Server) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	path, err := filepath.Abs(s.opts.PayloadPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	tracker := dirty.New()
	if err := tracker.Seed(path); err != nil {
		s.logger.Warn("hashing payload", "error", err)
	}
	s.logger.Debug("watching payload", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			changed, err := tracker.CheckAndMark(path)
			if err != nil {
				s.logger.Debug("payload not readable yet", "error", err)
				continue
			}
			if !changed {
				continue
			}
			s.reload(path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

func (s *Server) reload(path string) {
	fn, err := cfg.Load(path)
	if err != nil {
		s.logger.Warn("payload reload failed, keeping previous", "error", err)
		return
	}
	if _, err := view.Build(fn, s.opts.View, s.logger); err != nil {
		s.logger.Warn("payload reload failed, keeping previous", "error", err)
		return
	}
	s.swap(fn)
}
