package links

import (
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Match is one anchor found in a fragment. Start and End delimit the whole
// anchor element; Href and Label are as written in the markup.
type Match struct {
	Start int
	End   int
	Href  string
	Label string
}

// Scanner finds anchors in an HTML fragment, in document order.
type Scanner interface {
	Scan(fragment string) []Match
}

// anchorPattern matches the anchor shape the markdown renderer emits for
// [label](href).
var anchorPattern = regexp.MustCompile(`<a href="([^"]+)">([^<]+)</a>`)

// Re-escaping matches what the markdown renderer writes, so both scanners
// report identical Href and Label strings for plain anchors.
var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// RegexScanner matches only plain `<a href="...">text</a>` anchors.
type RegexScanner struct{}

func (RegexScanner) Scan(fragment string) []Match {
	idx := anchorPattern.FindAllStringSubmatchIndex(fragment, -1)
	out := make([]Match, 0, len(idx))
	for _, m := range idx {
		out = append(out, Match{
			Start: m[0],
			End:   m[1],
			Href:  fragment[m[2]:m[3]],
			Label: fragment[m[4]:m[5]],
		})
	}
	return out
}

// HTMLScanner tokenizes the fragment and accepts any anchor carrying an href,
// including ones with extra attributes or nested inline markup. The label is
// the anchor's text content.
type HTMLScanner struct{}

func (HTMLScanner) Scan(fragment string) []Match {
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	var (
		out    []Match
		offset int
		open   *Match
		label  strings.Builder
	)
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			// io.EOF or malformed input; either way keep what was found.
			return out
		}
		rawLen := len(z.Raw())
		start := offset
		offset += rawLen

		switch tt {
		case xhtml.StartTagToken:
			tok := z.Token()
			if tok.Data != "a" || open != nil {
				continue
			}
			for _, a := range tok.Attr {
				if a.Key == "href" && a.Val != "" {
					open = &Match{Start: start, Href: attrEscaper.Replace(a.Val)}
					label.Reset()
					break
				}
			}
		case xhtml.TextToken:
			if open != nil {
				label.WriteString(textEscaper.Replace(string(z.Text())))
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if open != nil && string(name) == "a" {
				open.End = offset
				open.Label = label.String()
				out = append(out, *open)
				open = nil
			}
		}
	}
}
