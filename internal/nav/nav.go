// Package nav renders the navigation menu of a page from its sibling links.
package nav

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/campus/internal/links"
)

// CSS classes of navigation entries.
const (
	ClassParent  = "parent"
	ClassCurrent = "current"
	ClassNormal  = "normal"
)

// Item is one rendered navigation entry.
type Item struct {
	Href    string
	Label   string
	Class   string
	Current bool
}

// Items computes the navigation entries for the page of dir.
//
// siblings are the directory links declared by the content that led to dir,
// relative to siblings.Base (the parent directory when Base is empty). Every
// sibling appears, in order; the first one resolving to dir is marked current.
// A parent entry is prepended when parent is true.
func Items(siblings *links.LinkSet, dir string, parent bool) []Item {
	items := make([]Item, 0, siblings.Len()+1)
	if parent {
		items = append(items, Item{Href: "..", Label: "..&nbsp;&nbsp;", Class: ClassParent})
	}

	base := filepath.Dir(filepath.Clean(dir))
	if siblings != nil && siblings.Base != "" {
		base = siblings.Base
	}
	prefix := ".."
	if rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(base)); err == nil {
		prefix = filepath.ToSlash(rel)
	}

	seenCurrent := false
	for _, e := range siblings.Entries() {
		it := Item{Href: path.Join(prefix, e.Href), Label: e.Label, Class: ClassNormal}
		if strings.HasSuffix(e.Href, "/") {
			it.Href += "/"
		}
		if !seenCurrent && sameLocation(links.Resolve(base, e.Href), dir) {
			it.Class = ClassCurrent
			it.Current = true
			seenCurrent = true
		}
		items = append(items, it)
	}
	return items
}

// Render returns the navigation list markup for dir.
func Render(siblings *links.LinkSet, dir string, parent bool) string {
	var b strings.Builder
	b.WriteString("<ol>\n")
	for _, it := range Items(siblings, dir, parent) {
		b.WriteString(`<li class="`)
		b.WriteString(it.Class)
		b.WriteString(`"><a href="`)
		b.WriteString(it.Href)
		b.WriteString(`">`)
		b.WriteString(it.Label)
		b.WriteString("</a></li>\n")
	}
	b.WriteString("</ol>")
	return b.String()
}

func sameLocation(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}
