// Package watch reruns a job whenever its file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before a rerun.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reruns Func after writes, creates or renames of File.
type Watcher struct {
	File     string
	Debounce time.Duration // DefaultDebounce when not positive.
	Func     func(ctx context.Context) error
	// Logger receives rerun failures and watcher errors. slog.Default is
	// used when nil.
	Logger *slog.Logger
}

// Run blocks until ctx ends. Reruns happen on the calling goroutine, one
// at a time. A failing rerun is logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}
	abs, err := filepath.Abs(w.File)
	if err != nil {
		return fmt.Errorf("failed to resolve watched path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	// Editors often replace files instead of writing them, the directory
	// sees those events where the file itself would lose its watch.
	dir := filepath.Dir(abs)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	log.Info("Watching for changes", "file", abs)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	name := filepath.Base(abs)
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("Change detected", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			log.Info("Rebuilding", "file", abs)
			if err := w.Func(ctx); err != nil {
				log.Error("Rebuild failed", "error", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error("Watcher error", "error", err)
		}
	}
}
