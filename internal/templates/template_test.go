package templates

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/campus/internal/errors"
)

func TestRenderSubstitutesEveryOccurrence(t *testing.T) {
	tpl := New("t", "<title>[$TITLE]</title><h1>[$TITLE]</h1>[$NAV]|[$MAIN]|[$COMMON_STYLESHEET]|[$STYLESHEET]|[$OTHER]")
	got := tpl.Render(Page{
		Title:            "Course",
		CommonStylesheet: "../css/all.css",
		Stylesheet:       "../css/1.css",
		Nav:              "<ol></ol>",
		Main:             "<p>x</p>",
	})
	assert.Equal(t, "<title>Course</title><h1>Course</h1><ol></ol>|<p>x</p>|../css/all.css|../css/1.css|[$OTHER]", got)
}

func TestRenderDoesNotRescanInsertedText(t *testing.T) {
	tpl := New("t", "[$MAIN]/[$TITLE]")
	got := tpl.Render(Page{Title: "T", Main: "literal [$TITLE] in content"})
	assert.Equal(t, "literal [$TITLE] in content/T", got)
}

func TestDefaultTemplateDefinesAllTokens(t *testing.T) {
	assert.Empty(t, Default().MissingTokens())
	assert.Equal(t, []string{TokenNav, TokenMain}, New("t", "[$TITLE][$STYLESHEET][$COMMON_STYLESHEET]").MissingTokens())
}

func TestLoaderCachesUntilChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("v1 [$TITLE]"), 0o600))

	l := NewLoader()
	first, err := l.Load(path)
	require.NoError(t, err)
	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, l.Len())

	require.NoError(t, os.WriteFile(path, []byte("version2 [$TITLE]"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	third, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, "version2 T", third.Render(Page{Title: "T"}))
}

func TestLoaderDefaultAndMissing(t *testing.T) {
	l := NewLoader()
	tpl, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "default", tpl.Name)

	_, err = l.Load(filepath.Join(t.TempDir(), "nope.html"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
