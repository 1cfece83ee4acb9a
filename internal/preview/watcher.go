package preview

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/campus/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// watcher watches a source tree recursively, skipping hidden directories and
// the excluded ones (output tree, configuration directory).
type watcher struct {
	fs      *fsnotify.Watcher
	exclude map[string]struct{}
	logger  *slog.Logger
}

func newWatcher(root string, exclude []string, logger *slog.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{fs: fw, exclude: make(map[string]struct{}, len(exclude)), logger: logger}
	for _, e := range exclude {
		w.exclude[filepath.Clean(e)] = struct{}{}
	}
	w.addRecursive(root)
	return w, nil
}

func (w *watcher) skipDir(path string) bool {
	if _, ok := w.exclude[filepath.Clean(path)]; ok {
		return true
	}
	return strings.HasPrefix(filepath.Base(path), ".")
}

func (w *watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Dir(path), logfields.Error(err))
		}
		return nil
	})
}

// relevant reports whether ev should trigger a rebuild; new directories are
// added to the watch set.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if shouldIgnoreEvent(ev.Name) || w.inExcluded(ev.Name) {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addRecursive(ev.Name)
		}
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

func (w *watcher) inExcluded(path string) bool {
	for dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *watcher) Close() error { return w.fs.Close() }

// shouldIgnoreEvent returns true for hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}

// debouncer coalesces bursts of triggers into one signal on C after delay.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	C     chan struct{}
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, C: make(chan struct{}, 1)}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.Fire)
}

// Fire signals immediately; a pending signal absorbs it.
func (d *debouncer) Fire() {
	select {
	case d.C <- struct{}{}:
	default:
	}
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
