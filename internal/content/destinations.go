package content

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// LinkDestinations parses markdown source and returns the destination of every
// inline, reference and auto link in document order. Code spans and code
// blocks are not scanned.
func LinkDestinations(src []byte) []string {
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var out []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			out = append(out, string(node.Destination))
		case *gmast.Image:
			out = append(out, string(node.Destination))
		case *gmast.AutoLink:
			out = append(out, string(node.URL(src)))
		}
		return gmast.WalkContinue, nil
	})
	return out
}
