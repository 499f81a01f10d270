package services

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/skema-cli/internal/logger"
)

// Watcher keeps the manifest current while files keep arriving: it
// watches the source roots and re-runs the ingestion traversal when
// something changes. Content-hash dedup makes each rescan idempotent,
// so rescanning the whole root set is correct, just potentially
// wasteful — which is what the rate limiter bounds.
type Watcher struct {
	traversal *Traversal
	roots     []string
	limiter   *rate.Limiter
	debounce  time.Duration
}

// NewWatcher creates a watcher over the given roots. minInterval is
// the floor between two rescans; event bursts inside it coalesce into
// one.
func NewWatcher(traversal *Traversal, roots []string, minInterval time.Duration) *Watcher {
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	return &Watcher{
		traversal: traversal,
		roots:     roots,
		limiter:   rate.NewLimiter(rate.Every(minInterval), 1),
		debounce:  500 * time.Millisecond,
	}
}

// Watch runs an initial ingest, then blocks ingesting on filesystem
// changes until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	if _, err := w.traversal.Ingest(ctx, w.roots); err != nil {
		return fmt.Errorf("initial ingest: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := watchTree(fsw, root); err != nil {
			return err
		}
	}

	// Debounce timer, armed only while events are pending.
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// fsnotify is not recursive: pick up new directories.
			if ev.Op&fsnotify.Create != 0 {
				if err := watchTree(fsw, ev.Name); err != nil {
					logger.Debug("watch %s: %v", ev.Name, err)
				}
			}
			logger.Debug("Change detected: %s", ev.Name)
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
			if _, err := w.traversal.Ingest(ctx, w.roots); err != nil {
				logger.Error("Rescan failed: %v", err)
			}
		}
	}
}

// watchTree registers path and every directory below it. Non-directory
// paths are ignored.
func watchTree(fsw *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil //nolint:nilerr // unreadable subtrees are skipped, not fatal
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
