// Package watcher reports settled file changes under a directory tree. The
// render bundle uses it to drop its cached template when a new frontend
// build lands.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps fsnotify with recursive directory watches and a settle
// delay: a file is reported once its size and mtime stop changing.
//
// Each watched root's parent is watched too, so a root that is deleted and
// created again (a build script wiping its output directory) is picked up
// again. Events outside the roots are dropped.
type Watcher struct {
	logger *slog.Logger
	opts   Options
	fs     *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingEvent
	known   map[string]struct{}
	roots   map[string]struct{}

	// sendMu guards events and errors against Stop closing them.
	sendMu sync.RWMutex
	closed bool

	events   chan Event
	errors   chan error
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

type pendingEvent struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a watcher. Nothing is watched until Watch is called.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		fs:      fsw,
		pending: make(map[string]*pendingEvent),
		known:   make(map[string]struct{}),
		roots:   make(map[string]struct{}),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds path to the watch set. Directories are watched recursively;
// a file is watched through its parent directory.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	w.mu.Lock()
	w.roots[path] = struct{}{}
	w.mu.Unlock()

	if !info.IsDir() {
		w.remember(path)
		return w.fs.Add(filepath.Dir(path))
	}
	if parent := filepath.Dir(path); parent != path {
		if err := w.fs.Add(parent); err != nil {
			w.logger.Warn("failed to watch parent, root recreation will be missed", "path", parent, "error", err)
		}
	}
	return w.watchDir(path, false)
}

// within reports whether path is a root or lies under one.
func (w *Watcher) within(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// watchDir adds watches for root and every directory below it. Files found
// are remembered, or, when announce is set, reported as they settle: a
// directory that just appeared may already hold files written before its
// watch was in place.
func (w *Watcher) watchDir(root string, announce bool) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}
		if p != root && w.opts.ignored(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if announce {
				w.settle(p)
			} else {
				w.remember(p)
			}
			return nil
		}
		if err := w.fs.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		w.logger.Debug("added watch", "path", p)
		return nil
	})
}

func (w *Watcher) remember(path string) {
	w.mu.Lock()
	w.known[path] = struct{}{}
	w.mu.Unlock()
}

// Start processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.sendErr(err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	if !w.within(path) || w.opts.ignored(path) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.watchDir(path, true); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.mu.Lock()
		if p, ok := w.pending[path]; ok {
			p.timer.Stop()
			delete(w.pending, path)
		}
		delete(w.known, path)
		w.mu.Unlock()
		w.emit(Event{Op: Remove, Path: path})
		return
	}

	if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
		w.settle(path)
	}
}

// settle (re)arms the settle timer for path.
func (w *Watcher) settle(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	w.pending[path] = &pendingEvent{
		size:    info.Size(),
		modTime: info.ModTime(),
		timer:   time.AfterFunc(w.opts.Settle, func() { w.checkSettled(path) }),
	}
}

func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		delete(w.pending, path)
		delete(w.known, path)
		w.mu.Unlock()
		w.emit(Event{Op: Remove, Path: path})
		return
	}
	if err != nil {
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.Settle, func() { w.checkSettled(path) })
		w.mu.Unlock()
		return
	}

	delete(w.pending, path)
	op := Create
	if _, seen := w.known[path]; seen {
		op = Write
	}
	w.known[path] = struct{}{}
	w.mu.Unlock()

	w.emit(Event{Op: op, Path: path, Size: info.Size(), ModTime: info.ModTime()})
}

// emit delivers event unless the watcher is stopping. Settle timers fire on
// their own goroutines, so the send holds sendMu to keep Stop from closing
// the channel underneath it.
func (w *Watcher) emit(event Event) {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.events <- event:
	case <-w.done:
	}
}

func (w *Watcher) sendErr(err error) {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.errors <- err:
	default:
		w.logger.Warn("watcher error dropped", "error", err)
	}
}

// Events returns the channel of settled changes. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of fsnotify errors. It is closed by Stop.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop releases the fsnotify handle and closes the channels. It is safe to
// call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		err = w.fs.Close()
		w.wg.Wait()

		// Senders blocked on a full channel leave through done first.
		w.sendMu.Lock()
		w.closed = true
		close(w.events)
		close(w.errors)
		w.sendMu.Unlock()
	})
	return err
}
