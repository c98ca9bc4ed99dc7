package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-homepage/pkg/interfaces"
)

const defaultDebounce = 300 * time.Millisecond

// debouncer collapses bursts of Trigger calls into one call of fn made after
// delay has passed without a new trigger.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	if delay <= 0 {
		delay = defaultDebounce
	}
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels a pending call. Later triggers are ignored.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// watchFilter decides which directories of the site root are watched.
type watchFilter struct {
	root     string
	excludes map[string]struct{}
	output   string
}

func newWatchFilter(root string, excludes []string, outputDir string) watchFilter {
	filter := watchFilter{root: root, excludes: make(map[string]struct{}, len(excludes))}
	for _, name := range excludes {
		name = strings.Trim(filepath.ToSlash(strings.TrimSpace(name)), "/")
		if name != "" {
			filter.excludes[name] = struct{}{}
		}
	}
	if abs, err := filepath.Abs(outputDir); err == nil {
		filter.output = abs
	}
	return filter
}

// skip reports whether the directory at path is left unwatched.
func (f watchFilter) skip(path string) bool {
	if abs, err := filepath.Abs(path); err == nil && f.output != "" && abs == f.output {
		return true
	}
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	if _, ok := f.excludes[rel]; ok {
		return true
	}
	base := filepath.Base(path)
	if _, ok := f.excludes[base]; ok {
		return true
	}
	return strings.HasPrefix(base, ".")
}

// relevant reports whether an event should trigger a rebuild.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~")
}

// watchSite adds every directory under the filter root to an fsnotify
// watcher and calls onChange for relevant events until ctx is done.
func watchSite(ctx context.Context, filter watchFilter, logger interfaces.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	add := func(root string) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("serve.watch.walk_failed", "path", path, "error", err)
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if filter.skip(path) {
				return filepath.SkipDir
			}
			if err := watcher.Add(path); err != nil {
				logger.Warn("serve.watch.add_failed", "path", path, "error", err)
			}
			return nil
		})
	}
	add(filter.root)
	logger.Info("serve.watch.started", "root", filter.root, "directories", len(watcher.WatchList()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !filter.skip(event.Name) {
					add(event.Name)
				}
			}
			logger.Debug("serve.watch.change", "path", event.Name, "op", event.Op.String())
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("serve.watch.error", "error", err)
		}
	}
}
