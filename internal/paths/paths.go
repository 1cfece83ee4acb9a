// Package paths translates between the source tree and the mirrored output tree.
//
// All functions take their roots explicitly; nothing here consults the working
// directory or any process-wide setting.
package paths

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/campus/internal/errors"
)

// Stylesheet defaults mirror the layout shipped by `campus init`.
const (
	DefaultStylesheetDir = "css"
	DefaultCommonSheet   = "all.css"
	DefaultFallbackSheet = "default.css"
)

// Rel returns p relative to root, failing with a scope error when p is not root
// or one of its descendants.
func Rel(p, root string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return rel, nil
	}
	b := errors.ScopeError("path is not inside root")
	if err != nil {
		b = errors.WrapError(err, errors.CategoryScope, "path is not inside root").Fatal()
	}
	return "", b.WithContext("path", p).WithContext("root", root).Build()
}

// Translate maps {src}/sub to {dst}/sub.
func Translate(p, src, dst string) (string, error) {
	rel, err := Rel(p, src)
	if err != nil {
		return "", err
	}
	return filepath.Join(dst, rel), nil
}

// Depth returns the number of directory levels between src and p (0 at the root).
func Depth(p, src string) (int, error) {
	rel, err := Rel(p, src)
	if err != nil {
		return 0, err
	}
	if rel == "." {
		return 0, nil
	}
	return len(strings.Split(rel, string(filepath.Separator))), nil
}

// StylesheetOptions names the stylesheet files looked up in the output tree.
type StylesheetOptions struct {
	Dir      string // directory under the output root, e.g. "css"
	Common   string // depth-invariant sheet, e.g. "all.css"
	Fallback string // used when no "<depth>.css" exists
}

// DefaultStylesheetOptions returns the stock stylesheet layout.
func DefaultStylesheetOptions() StylesheetOptions {
	return StylesheetOptions{Dir: DefaultStylesheetDir, Common: DefaultCommonSheet, Fallback: DefaultFallbackSheet}
}

// Stylesheets holds the two output-relative stylesheet hrefs of a page.
type Stylesheets struct {
	Common   string
	Specific string
}

// ResolveStylesheets builds the hrefs for a page at the given depth. The
// depth-specific sheet "<depth>.css" is used when it exists under dst,
// otherwise the fallback sheet is referenced.
func ResolveStylesheets(depth int, dst string, opts StylesheetOptions) Stylesheets {
	if opts.Dir == "" {
		opts = DefaultStylesheetOptions()
	}
	parts := make([]string, 0, depth+1)
	for range depth {
		parts = append(parts, "..")
	}
	parts = append(parts, opts.Dir)
	prefix := path.Join(parts...)

	name := fmt.Sprintf("%d.css", depth)
	if st, err := os.Stat(filepath.Join(dst, opts.Dir, name)); err != nil || !st.Mode().IsRegular() {
		name = opts.Fallback
	}
	return Stylesheets{
		Common:   path.Join(prefix, opts.Common),
		Specific: path.Join(prefix, name),
	}
}
