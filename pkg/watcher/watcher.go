// Package watcher re-triggers analysis when the source tree changes. Legacy
// codebases change rarely, so this is a convenience for tuning rule catalogs
// interactively, not a serving loop.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/migration-analyzer/pkg/logging"
)

// ChangeEvent is a batch of changed source paths
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// SourceWatcher watches a source root for changes to allowlisted files
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	suffixes []string
	events   chan ChangeEvent
}

// New creates a watcher over root. Only files matching the suffix allowlist
// produce events.
func New(root string, suffixes []string) (*SourceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &SourceWatcher{
		watcher:  w,
		root:     root,
		suffixes: suffixes,
		events:   make(chan ChangeEvent, 16),
	}, nil
}

// Start registers every directory under the root and begins batching events.
// fsnotify is not recursive, so each directory is added individually.
func (w *SourceWatcher) Start(ctx context.Context) error {
	count := 0
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, same as the indexer
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name == ".git" || name == ".svn" {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk source root: %w", err)
	}

	logging.Info("watching source root", "path", w.root, "directories", count)
	go w.processEvents(ctx)
	return nil
}

func (w *SourceWatcher) processEvents(ctx context.Context) {
	var pending []string
	flushTimer := time.NewTimer(0)
	if !flushTimer.Stop() {
		<-flushTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			close(w.events)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				close(w.events)
				return
			}
			if !w.relevant(event) {
				continue
			}
			pending = append(pending, event.Name)
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			if len(pending) > 0 {
				w.events <- ChangeEvent{Paths: pending, Timestamp: time.Now()}
				pending = nil
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

func (w *SourceWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := strings.ToLower(filepath.Base(event.Name))
	for _, s := range w.suffixes {
		if strings.HasSuffix(name, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Events returns the channel of batched change events
func (w *SourceWatcher) Events() <-chan ChangeEvent {
	return w.events
}
