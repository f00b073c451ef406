// Package watch reports changes to script modules so the host can reload.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/scripthost/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches a directory tree.
type Watcher struct {
	root     string
	debounce time.Duration
	match    func(path string) bool
	logger   *slog.Logger
}

// Option configures the Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithMatch limits the reported files. By default every file counts.
func WithMatch(match func(path string) bool) Option {
	return func(w *Watcher) {
		w.match = match
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a watcher for root and its subdirectories.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		match:    func(string) bool { return true },
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch emits the last changed path of every burst until ctx is done.
// Bursts that arrive while the previous path is still unread are merged.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.addTree(fw, w.root); err != nil {
		fw.Close()
		return nil, err
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		defer fw.Close()

		timer := time.NewTimer(time.Hour)
		timer.Stop()
		var pending string

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-fw.Events:
				if !ok {
					return
				}
				if evt.Has(fsnotify.Create) {
					// New directories are watched too; errors mean it was a file.
					_ = w.addTree(fw, evt.Name)
				}
				if evt.Has(fsnotify.Chmod) || !w.match(evt.Name) {
					continue
				}
				pending = evt.Name
				timer.Reset(w.debounce)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("Watcher error", "error", err)
			case <-timer.C:
				w.logger.Debug("Script change detected", "path", pending)
				select {
				case ch <- pending:
				default:
				}
			}
		}
	}()
	return ch, nil
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
