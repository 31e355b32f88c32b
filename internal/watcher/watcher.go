// Package watcher reports debounced changes to the markdown files of a vault.
package watcher

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/tasktpl/internal/log"
)

// Watcher monitors a directory tree and sends the markdown files that changed
// during each quiet period as one batch.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	maxWait   time.Duration
	onChange  chan []string
	done      chan struct{}
	stopped   chan struct{}
	started   bool
}

// Config holds watcher configuration options.
// MaxWait bounds how long a batch can be held back by continuous writes;
// zero disables the bound.
type Config struct {
	Root        string
	DebounceDur time.Duration
	MaxWait     time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		DebounceDur: 300 * time.Millisecond,
		MaxWait:     time.Second,
	}
}

// New creates a watcher for cfg.Root.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		root:      cfg.Root,
		debounce:  cfg.DebounceDur,
		maxWait:   cfg.MaxWait,
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Start watches every non-hidden directory under the root. The returned
// channel receives sorted, de-duplicated absolute paths.
func (w *Watcher) Start() (<-chan []string, error) {
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return fmt.Errorf("watching directory %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.started = true
	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.fsWatcher.Close()
	if w.started {
		<-w.stopped
	}
	return err
}

func (w *Watcher) loop() {
	defer close(w.stopped)

	var timer *time.Timer
	var first time.Time
	pending := map[string]struct{}{}

	fire := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.watchNewDir(event)
			if !relevant(event) {
				continue
			}
			pending[filepath.Clean(event.Name)] = struct{}{}

			if timer == nil {
				first = time.Now()
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.wait(first))

		case <-fire():
			timer = nil
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = map[string]struct{}{}

			select {
			case w.onChange <- batch:
			case <-w.done:
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatIndex, "watch error", err, "root", w.root)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// wait returns the debounce delay, shortened so a batch opened at first is
// flushed no later than maxWait after it.
func (w *Watcher) wait(first time.Time) time.Duration {
	if w.maxWait <= 0 {
		return w.debounce
	}
	left := w.maxWait - time.Since(first)
	if left < 0 {
		return 0
	}
	return min(left, w.debounce)
}

// watchNewDir adds directories created after Start.
func (w *Watcher) watchNewDir(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) || hidden(filepath.Base(event.Name)) {
		return
	}
	if err := w.fsWatcher.Add(event.Name); err == nil {
		log.Debug(log.CatIndex, "watching new directory", "dir", event.Name)
	}
}

// relevant reports whether event touches a markdown document. Removals and
// renames count so callers can drop the file's blocks.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	return !hidden(base) && strings.EqualFold(filepath.Ext(base), ".md")
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
