package links

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/campus/internal/errors"
)

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "chapter1"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "chapter 2"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o600))
	return dir
}

func TestLinkSetOrderAndRelabel(t *testing.T) {
	s := NewLinkSet("/src")
	s.Add("b", "B")
	s.Add("a", "A")
	s.Add("b", "B2")

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Entry{{Href: "b", Label: "B2"}, {Href: "a", Label: "A"}}, s.Entries())
	label, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", label)

	var nilSet *LinkSet
	assert.Equal(t, 0, nilSet.Len())
	assert.Nil(t, nilSet.Entries())
}

func TestIsExternal(t *testing.T) {
	for _, href := range []string{"https://example.com", "http://x/y", "ftp://host", "mailto:me@example.com", "#top"} {
		assert.True(t, IsExternal(href), href)
	}
	for _, href := range []string{"chapter1", "../b", "notes.pdf", "a/b.png"} {
		assert.False(t, IsExternal(href), href)
	}
}

func TestResolve(t *testing.T) {
	dir := filepath.Join("/src", "a")
	assert.Equal(t, filepath.Join("/src", "b"), Resolve(dir, "../b"))
	assert.Equal(t, filepath.Join(dir, "my file.pdf"), Resolve(dir, "my%20file.pdf"))
	assert.Equal(t, filepath.Join(dir, "page"), Resolve(dir, "page#section"))
	assert.Equal(t, filepath.Join(dir, "a&b"), Resolve(dir, "a&amp;b"))
}

func TestClassifyPartitionsLinks(t *testing.T) {
	dir := fixture(t)
	fragment := `<p><a href="chapter1">Chapter 1</a> ` +
		`<a href="notes.pdf">Notes</a> ` +
		`<a href="https://example.com">Site</a> ` +
		`<a href="missing.png">Missing</a> ` +
		`<a href="chapter%202">Chapter 2</a> ` +
		`<a href="README">Readme</a></p>`

	res := NewClassifier(nil).Classify(dir, fragment)

	assert.Equal(t, []Entry{{Href: "chapter1", Label: "Chapter 1"}, {Href: "chapter%202", Label: "Chapter 2"}}, res.Directories.Entries())
	assert.Equal(t, []Entry{{Href: "notes.pdf", Label: "Notes"}, {Href: "README", Label: "Readme"}}, res.Files.Entries())
	assert.Equal(t, dir, res.Directories.Base)

	kinds := map[Kind]int{}
	for _, l := range res.Links {
		kinds[l.Kind]++
	}
	assert.Equal(t, map[Kind]int{KindDirectory: 2, KindFile: 2, KindExternal: 1, KindBroken: 1}, kinds)
	assert.Len(t, res.Links, 6)

	require.Len(t, res.Warnings, 1)
	assert.True(t, errors.HasCategory(res.Warnings[0], errors.CategoryLink))
	href, _ := errors.AsClassified(res.Warnings[0])
	got, _ := href.Context().GetString("href")
	assert.Equal(t, "missing.png", got)
}

func TestClassifyInjectsMarkers(t *testing.T) {
	dir := fixture(t)
	fragment := `<a href="chapter1">C</a>|<a href="notes.pdf">N</a>|<a href="https://x.org">X</a>|<a href="gone">G</a>`

	res := NewClassifier(RegexScanner{}).Classify(dir, fragment)
	want := `<span class="link-type dir"></span><a href="chapter1">C</a>|` +
		`<span class="link-type file ext-pdf"></span><a href="notes.pdf">N</a>|` +
		`<a href="https://x.org">X</a>|` +
		`<span class="link-type broken"></span><a href="gone">G</a>`
	assert.Equal(t, want, res.HTML)
}

func TestClassifyNoLinks(t *testing.T) {
	res := NewClassifier(nil).Classify(t.TempDir(), "<p>plain</p>")
	assert.Equal(t, "<p>plain</p>", res.HTML)
	assert.Equal(t, 0, res.Directories.Len())
	assert.Equal(t, 0, res.Files.Len())
	assert.Empty(t, res.Links)
}

func TestScannersAgreeOnPlainAnchors(t *testing.T) {
	fragment := "<p>See <a href=\"chapter1\">Chapter &amp; more</a> and <a href=\"my%20file.pdf\">File</a>.</p>\n"
	assert.Equal(t, RegexScanner{}.Scan(fragment), HTMLScanner{}.Scan(fragment))
}

func TestHTMLScannerAcceptsRicherAnchors(t *testing.T) {
	fragment := `<a class="x" href="chapter1" title="t">The <em>first</em> one</a><a name="anchor">no href</a>`

	assert.Empty(t, RegexScanner{}.Scan(fragment))

	got := HTMLScanner{}.Scan(fragment)
	require.Len(t, got, 1)
	assert.Equal(t, "chapter1", got[0].Href)
	assert.Equal(t, "The first one", got[0].Label)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, len(`<a class="x" href="chapter1" title="t">The <em>first</em> one</a>`), got[0].End)
}

func TestNewScanner(t *testing.T) {
	s, err := NewScanner("")
	require.NoError(t, err)
	assert.IsType(t, RegexScanner{}, s)

	s, err = NewScanner("html")
	require.NoError(t, err)
	assert.IsType(t, HTMLScanner{}, s)

	_, err = NewScanner("xml")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}
