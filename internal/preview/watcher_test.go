package preview

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	assert.True(t, shouldIgnoreEvent("/tmp/.hidden.md"))
	assert.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	assert.True(t, shouldIgnoreEvent("/tmp/foo.swp"))
	assert.True(t, shouldIgnoreEvent("/tmp/index.md~"))
	assert.True(t, shouldIgnoreEvent("/tmp/.DS_Store"))
	assert.False(t, shouldIgnoreEvent("/tmp/index.md"))
}

func TestWatcherSkipsExcludedTrees(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "html")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "week"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "week"), 0o750))

	w, err := newWatcher(root, []string{out}, quiet())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	watched := w.fs.WatchList()
	assert.Contains(t, watched, root)
	assert.Contains(t, watched, filepath.Join(root, "week"))
	assert.NotContains(t, watched, out)
	assert.NotContains(t, watched, filepath.Join(out, "week"))

	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(out, "index.html"), Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: filepath.Join(root, "index.md"), Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(root, "index.md"), Op: fsnotify.Chmod}))
}

func TestDebouncerCoalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.Stop()
	for range 5 {
		d.Trigger()
	}
	select {
	case <-d.C:
	case <-time.After(time.Second):
		t.Fatal("no signal")
	}
	select {
	case <-d.C:
		t.Fatal("burst produced more than one signal")
	case <-time.After(60 * time.Millisecond):
	}
}
