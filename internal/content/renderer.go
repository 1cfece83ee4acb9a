// Package content renders per-directory content files to HTML fragments and
// extracts the page title from the rendered output.
package content

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/campus/internal/errors"
)

// DefaultContentFile is the per-directory content file name.
const DefaultContentFile = "index.md"

// Renderer converts a directory's content file to an HTML fragment.
type Renderer struct {
	fileName string
	md       goldmark.Markdown
}

// NewRenderer returns a renderer reading fileName (DefaultContentFile when empty)
// from each directory. Raw HTML in content is emitted verbatim.
func NewRenderer(fileName string) *Renderer {
	if fileName == "" {
		fileName = DefaultContentFile
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	return &Renderer{fileName: fileName, md: md}
}

// FileName returns the content file name looked up in each directory.
func (r *Renderer) FileName() string { return r.fileName }

// Render reads dir's content file and returns the rendered fragment.
//
// A missing or unreadable content file is not fatal: the fragment is empty and
// the returned error is a content-category warning for the caller to report.
func (r *Renderer) Render(dir string) (string, error) {
	path := filepath.Join(dir, r.fileName)
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		msg := "content file is unreadable"
		if os.IsNotExist(err) {
			msg = "directory has no content file"
		}
		return "", errors.ContentWarning(msg).
			WithCause(err).
			WithContext("dir", dir).
			WithContext("path", path).
			Build()
	}
	return r.RenderBytes(data)
}

// RenderBytes renders markdown source to HTML.
func (r *Renderer) RenderBytes(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", errors.ContentWarning("render markdown").WithCause(err).Build()
	}
	return buf.String(), nil
}
