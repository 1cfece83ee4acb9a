// Package templates substitutes page values into the base HTML template.
//
// The template language is deliberately tiny: literal tokens of the form
// [$NAME] are replaced by their value. Text inserted for one token is never
// rescanned for other tokens, and tokens the generator does not define are
// left untouched.
package templates

import (
	_ "embed"
	"strings"
)

// Tokens defined by the generator.
const (
	TokenTitle            = "[$TITLE]"
	TokenNav              = "[$NAV]"
	TokenMain             = "[$MAIN]"
	TokenStylesheet       = "[$STYLESHEET]"
	TokenCommonStylesheet = "[$COMMON_STYLESHEET]"
)

// Tokens lists every token the generator computes a value for.
var Tokens = []string{TokenTitle, TokenNav, TokenMain, TokenStylesheet, TokenCommonStylesheet}

// DefaultHTML is the template installed by `campus init`.
//
//go:embed default.html
var DefaultHTML string

// Page is the per-directory render state.
type Page struct {
	Title            string
	CommonStylesheet string
	Stylesheet       string
	Nav              string
	Main             string
}

// Template is a loaded base template.
type Template struct {
	Name string
	text string
}

// New wraps template text.
func New(name, text string) *Template {
	return &Template{Name: name, text: text}
}

// Default returns the embedded default template.
func Default() *Template { return New("default", DefaultHTML) }

// Render substitutes p into the template.
func (t *Template) Render(p Page) string {
	r := strings.NewReplacer(
		TokenCommonStylesheet, p.CommonStylesheet,
		TokenStylesheet, p.Stylesheet,
		TokenNav, p.Nav,
		TokenMain, p.Main,
		TokenTitle, p.Title,
	)
	return r.Replace(t.text)
}

// MissingTokens returns the generator tokens that do not occur in the template.
func (t *Template) MissingTokens() []string {
	var missing []string
	for _, tok := range Tokens {
		if !strings.Contains(t.text, tok) {
			missing = append(missing, tok)
		}
	}
	return missing
}
