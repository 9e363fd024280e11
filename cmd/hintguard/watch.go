package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the watcher waits for a burst of events to end.
const settle = 150 * time.Millisecond

// watch runs the checks, then re-runs them whenever a checked file or the
// configuration changes, until ctx is done.
func (r *runner) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	watched := make(map[string]bool)
	// Directories are watched so editors that save by rename keep firing.
	watchAll := func() error {
		for _, f := range r.watchedFiles() {
			abs, err := filepath.Abs(f)
			if err != nil {
				return err
			}
			watched[abs] = true
			dir := filepath.Dir(abs)
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
		}
		return nil
	}
	if err := watchAll(); err != nil {
		return err
	}

	if _, err := r.runOnce(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(settle)
	timer.Stop()
	reload := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if r.isConfig(abs) {
				reload = true
			}
			timer.Reset(settle)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.out.line(tagError, "watch: "+err.Error())

		case <-timer.C:
			if reload {
				reload = false
				if err := r.load(); err != nil {
					r.out.line(tagError, err.Error())
					continue
				}
				if err := watchAll(); err != nil {
					r.out.line(tagError, err.Error())
				}
			}
			if _, err := r.runOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *runner) watchedFiles() []string {
	files := r.files()
	if r.configPath != "" {
		files = append(files, r.configPath)
	}
	return files
}

func (r *runner) isConfig(abs string) bool {
	if r.configPath == "" {
		return false
	}
	cfg, err := filepath.Abs(r.configPath)
	return err == nil && cfg == abs
}
