// Package watch re-runs analysis when project files change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/scry/internal/scanner"
	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/source"
)

// DefaultDebounce is how long the tree must stay quiet before a batch of
// changes is delivered.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the slash-separated, root-relative paths changed
// since the previous call, sorted.
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher monitors a project tree and reports batches of changed
// analyzable files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	scanner   *scanner.Scanner
	config    *config.Config
	root      string
	debounce  time.Duration
	onChange  ChangeFunc
	logger    *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher starts watching every non-excluded directory under root.
// Changes are delivered to onChange once Run is called.
func NewWatcher(root string, cfg *config.Config, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		scanner:   scanner.NewScanner(cfg, scanner.WithFilter(source.Analyzable)),
		config:    cfg,
		root:      root,
		debounce:  DefaultDebounce,
		onChange:  onChange,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories, skipping excluded ones.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && slices.Contains(w.config.Exclude.Dirs, d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Run delivers debounced change batches until ctx is done.
// onChange runs on the Run goroutine, so batches never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			rel, ok := w.relevant(event)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			clear(pending)
			slices.Sort(batch)
			if w.onChange != nil {
				w.onChange(ctx, batch)
			}
		}
	}
}

// relevant decides whether event touches an analyzable file and returns
// its root-relative path. New directories are watched as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// The file is gone, so only its name can be checked.
		return rel, source.Analyzable(event.Name)
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Debug("cannot watch new directory", "path", event.Name, "error", err)
			}
		}
		return "", false
	}

	ok, err := w.scanner.ScanFile(w.root, event.Name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("cannot inspect changed file", "path", event.Name, "error", err)
		}
		return "", false
	}
	return rel, ok
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
