package links

import (
	"html"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/campus/internal/errors"
)

// Link is one classified anchor.
type Link struct {
	Href   string
	Label  string
	Kind   Kind
	Target string // resolved filesystem path; empty for external links
}

// Result is the outcome of classifying one fragment.
type Result struct {
	// HTML is the fragment with a kind marker injected before each local anchor.
	HTML        string
	Directories *LinkSet
	Files       *LinkSet
	// Links lists every matched anchor in document order.
	Links []Link
	// Warnings holds one link-category warning per broken link.
	Warnings []error
}

// Classifier resolves anchors found by a Scanner against the filesystem.
type Classifier struct {
	scanner Scanner
}

// NewClassifier returns a classifier using scanner, or RegexScanner when nil.
func NewClassifier(scanner Scanner) *Classifier {
	if scanner == nil {
		scanner = RegexScanner{}
	}
	return &Classifier{scanner: scanner}
}

// NewScanner maps a configured scanner name to an implementation.
func NewScanner(name string) (Scanner, error) {
	switch name {
	case "", "regex":
		return RegexScanner{}, nil
	case "html":
		return HTMLScanner{}, nil
	default:
		return nil, errors.ValidationError("unknown link scanner").WithContext("scanner", name).Build()
	}
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// IsExternal reports whether href must be passed through without touching
// the filesystem: absolute URIs, other schemes (mailto:) and in-page anchors.
func IsExternal(href string) bool {
	return strings.Contains(href, "://") || schemePattern.MatchString(href) || strings.HasPrefix(href, "#")
}

// Resolve maps an href written in dir's content to a filesystem path. Query
// strings and fragments are dropped and percent-escapes decoded.
func Resolve(dir, href string) string {
	p := html.UnescapeString(href)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return filepath.Join(dir, filepath.FromSlash(p))
}

// Classify scans fragment, classifies each anchor relative to dir and returns
// the annotated fragment together with the directory and file sets.
func (c *Classifier) Classify(dir, fragment string) *Result {
	res := &Result{
		Directories: NewLinkSet(dir),
		Files:       NewLinkSet(dir),
	}
	var out strings.Builder
	out.Grow(len(fragment))
	last := 0

	for _, m := range c.scanner.Scan(fragment) {
		link := Link{Href: m.Href, Label: m.Label}
		if IsExternal(m.Href) {
			link.Kind = KindExternal
			res.Links = append(res.Links, link)
			continue
		}

		link.Target = Resolve(dir, m.Href)
		st, err := os.Stat(link.Target)
		switch {
		case err == nil && st.IsDir():
			link.Kind = KindDirectory
			res.Directories.Add(m.Href, m.Label)
		case err == nil && st.Mode().IsRegular():
			link.Kind = KindFile
			res.Files.Add(m.Href, m.Label)
		default:
			link.Kind = KindBroken
			res.Warnings = append(res.Warnings, errors.LinkWarning("link target not found").
				WithContext("dir", dir).
				WithContext("href", m.Href).
				WithContext("path", link.Target).
				Build())
		}
		res.Links = append(res.Links, link)

		out.WriteString(fragment[last:m.Start])
		out.WriteString(Marker(link))
		last = m.Start
	}
	out.WriteString(fragment[last:])
	res.HTML = out.String()
	return res
}

// Marker returns the inline element injected before a local anchor so pages
// can style links by kind. File markers carry the lower-cased extension.
func Marker(l Link) string {
	switch l.Kind {
	case KindDirectory:
		return `<span class="link-type dir"></span>`
	case KindFile:
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(l.Target)), ".")
		if ext == "" {
			return `<span class="link-type file"></span>`
		}
		return `<span class="link-type file ext-` + html.EscapeString(ext) + `"></span>`
	case KindBroken:
		return `<span class="link-type broken"></span>`
	default:
		return ""
	}
}
