// Package watcher watches the incoming-notes folder with fsnotify and hands debounced batches of
// new or changed notes to a callback.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// BatchFunc receives the absolute paths of notes created or written since the last batch and
// returns the paths it wrote itself. Write events for those paths are dropped for one debounce
// period so a batch does not trigger the next one. Batches never run concurrently.
type BatchFunc func(ctx context.Context, paths []string) []string

// Watcher watches one directory tree and batches note events.
type Watcher struct {
	root       string
	extensions []string
	onBatch    BatchFunc
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]struct{}
	ignored map[string]time.Time // path -> end of ignore window
	timer   *time.Timer
	ctx     context.Context
	started bool
	done    chan struct{}
	stop    sync.Once

	batchMu sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long the folder must stay quiet before a batch is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for root. extensions filter which files count as notes (empty = all).
func New(root string, extensions []string, onBatch BatchFunc, opts ...Option) *Watcher {
	w := &Watcher{
		root:       filepath.Clean(root),
		extensions: extensions,
		onBatch:    onBatch,
		debounce:   defaultDebounce,
		pending:    make(map[string]struct{}),
		ignored:    make(map[string]time.Time),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start creates root if needed, watches it recursively, and runs until ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addTree(fw, w.root); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.ctx = ctx
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting", zap.String("root", w.root), zap.Strings("extensions", w.extensions), zap.Duration("debounce", w.debounce))
	}
	go w.run(ctx, fw)
	return nil
}

func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !inDir(w.root, path) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.handleNewDirectory(fw, path)
			return
		}
		if !ev.Has(fsnotify.Create) && w.ownWrite(path) {
			return
		}
		if matchExtension(path, w.extensions) {
			w.enqueue(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
	}
}

// handleNewDirectory watches a directory moved or created under root and queues its notes.
func (w *Watcher) handleNewDirectory(fw *fsnotify.Watcher, dir string) {
	if err := addTree(fw, dir); err != nil && w.logger != nil {
		w.logger.Debug("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
	}
	w.enqueue(w.scan(dir)...)
}

func (w *Watcher) scan(dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if matchExtension(path, w.extensions) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

// enqueue adds paths to the pending batch and restarts the debounce timer.
func (w *Watcher) enqueue(paths ...string) {
	if len(paths) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	for _, p := range paths {
		w.pending[p] = struct{}{}
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 || !w.started {
		w.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	ctx := w.ctx
	w.mu.Unlock()

	sort.Strings(batch)
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher delivering batch", zap.Int("files", len(batch)))
	}
	if w.onBatch != nil {
		w.ignoreWrites(w.onBatch(ctx, batch))
	}
}

// ignoreWrites drops queued events for paths a batch wrote and ignores further writes to them
// until the debounce period has passed.
func (w *Watcher) ignoreWrites(paths []string) {
	if len(paths) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	until := time.Now().Add(w.debounce)
	for _, p := range paths {
		p = filepath.Clean(p)
		delete(w.pending, p)
		w.ignored[p] = until
	}
	if len(w.pending) == 0 && w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// ownWrite reports whether a write event for path falls inside an ignore window.
func (w *Watcher) ownWrite(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.ignored[path]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(w.ignored, path)
		return false
	}
	return true
}

// SyncExistingFiles queues every note already under root as one batch.
// Call it after Start to link notes that arrived while the watcher was down.
func (w *Watcher) SyncExistingFiles() {
	files := w.scan(w.root)
	if w.logger != nil {
		w.logger.Debug("watcher syncing existing files", zap.String("root", w.root), zap.Int("files", len(files)))
	}
	w.enqueue(files...)
}

// Stop stops the watcher and drops any pending batch.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]struct{})
	_ = w.watcher.Close()
	w.started = false
	w.mu.Unlock()
	w.stop.Do(func() { close(w.done) })
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
