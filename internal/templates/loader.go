package templates

import (
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/campus/internal/errors"
)

const defaultCacheSize = 16

type cachedTemplate struct {
	modTime time.Time
	size    int64
	tpl     *Template
}

// Loader reads template files, caching their content until the file changes.
// The walker asks for the template once per directory and the preview server
// rebuilds many times per process.
type Loader struct {
	cache *lru.Cache[string, cachedTemplate]
}

// NewLoader returns a loader with a small LRU cache.
func NewLoader() *Loader {
	cache, err := lru.New[string, cachedTemplate](defaultCacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Loader{cache: cache}
}

// Load returns the template at path. An empty path yields the embedded default.
func (l *Loader) Load(path string) (*Template, error) {
	if path == "" {
		return Default(), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "template not found").
			Fatal().WithContext("path", path).Build()
	}
	if c, ok := l.cache.Get(abs); ok && c.modTime.Equal(st.ModTime()) && c.size == st.Size() {
		return c.tpl, nil
	}
	data, err := os.ReadFile(filepath.Clean(abs))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read template").
			Fatal().WithContext("path", path).Build()
	}
	tpl := New(filepath.Base(abs), string(data))
	l.cache.Add(abs, cachedTemplate{modTime: st.ModTime(), size: st.Size(), tpl: tpl})
	return tpl, nil
}

// Len reports the number of cached templates.
func (l *Loader) Len() int { return l.cache.Len() }
