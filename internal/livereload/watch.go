package livereload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of events from editors and git
const DefaultDebounce = 100 * time.Millisecond

var relevantExt = map[string]bool{
	".md":   true,
	".yaml": true,
	".yml":  true,
	".css":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
}

// IsRelevant reports whether a change to path should trigger a reload
func IsRelevant(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return relevantExt[strings.ToLower(filepath.Ext(path))]
}

// Watcher reports changed content files in batches
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher watches dir and every directory below it
func NewWatcher(dir string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		dir:      dir,
		debounce: debounce,
		logger:   logger.With("component", "watcher"),
		watcher:  fw,
	}
	if err := w.addTree(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers batches of changed paths to onChange until ctx ends. The
// watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer w.watcher.Close()

	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("cannot watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			if !IsRelevant(event.Name) {
				continue
			}

			pending[event.Name] = true
			debounce.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-debounce.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]bool)

			w.logger.Debug("files changed", "paths", paths)
			onChange(paths)
		}
	}
}
