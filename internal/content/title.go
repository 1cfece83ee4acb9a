package content

import (
	"regexp"
	"strings"
)

var h1Pattern = regexp.MustCompile(`(?s)<h1>(.*?)</h1>`)

// ExtractTitle finds the first top-level heading of fragment. When one exists
// its inner markup is returned as the title and every identical heading element is
// removed from the fragment, because the page template renders the title in
// its own header. Otherwise fallback is returned with fragment unchanged.
func ExtractTitle(fragment, fallback string) (title, body string) {
	m := h1Pattern.FindStringSubmatch(fragment)
	if m == nil {
		return fallback, fragment
	}
	return m[1], strings.ReplaceAll(fragment, m[0], "")
}
