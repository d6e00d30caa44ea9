// Package watch re-runs an analysis whenever one of its input files changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/prpulse/internal/contract"
)

// RunFunc performs one analysis pass.
type RunFunc func(ctx context.Context) error

// Watch runs fn once, then again after each burst of writes to any of paths
// has been quiet for debounce. It runs until ctx is cancelled.
//
// The parent directories are watched rather than the files so editors that
// save by rename keep triggering events. A failed run is reported and the
// watcher keeps going.
func Watch(ctx context.Context, paths []string, debounce time.Duration, fn RunFunc) error {
	if len(paths) == 0 {
		return fmt.Errorf("watch requires at least one input file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := make(map[string]struct{}, len(paths))
	var dirs []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = struct{}{}
		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "👀 Watching %d input(s) for changes (debounce %v)\n", len(targets), debounce)
	runOnce(ctx, fn)

	var timer *time.Timer
	var timerC <-chan time.Time
	changed := make(map[string]struct{})
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Clean(event.Name)
			if _, ok := targets[name]; !ok {
				continue
			}
			changed[filepath.Base(name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			names := make([]string, 0, len(changed))
			for n := range changed {
				names = append(names, n)
			}
			slices.Sort(names)
			clear(changed)
			_, _ = fmt.Fprintf(os.Stderr, "🔁 Change detected in %s, re-running\n", strings.Join(names, ", "))
			runOnce(ctx, fn)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			contract.LogWarn("Watcher error", err)
		}
	}
}

// runOnce invokes fn and reports a failure without stopping the watch loop.
func runOnce(ctx context.Context, fn RunFunc) {
	if ctx.Err() != nil {
		return
	}
	if err := fn(ctx); err != nil {
		contract.LogWarn("Analysis run failed", err)
	}
}
