// Package links discovers hyperlinks in rendered fragments, resolves them
// against the source tree and partitions them into directory and file sets.
package links

// Kind is the classification of a discovered link.
type Kind string

const (
	KindDirectory Kind = "directory"
	KindFile      Kind = "file"
	KindExternal  Kind = "external"
	KindBroken    Kind = "broken"
)

// Entry is one href/label pair of a LinkSet.
type Entry struct {
	Href  string
	Label string
}

// LinkSet is an ordered href -> label mapping. Order is the order in which an
// href was first added; adding an href again replaces its label in place.
//
// Base is the directory whose content declared the links; hrefs are relative
// to it.
type LinkSet struct {
	Base    string
	entries []Entry
	index   map[string]int
}

// NewLinkSet returns an empty set whose hrefs are relative to base.
func NewLinkSet(base string) *LinkSet {
	return &LinkSet{Base: base, index: map[string]int{}}
}

// Add inserts or relabels href.
func (s *LinkSet) Add(href, label string) {
	if s.index == nil {
		s.index = map[string]int{}
	}
	if i, ok := s.index[href]; ok {
		s.entries[i].Label = label
		return
	}
	s.index[href] = len(s.entries)
	s.entries = append(s.entries, Entry{Href: href, Label: label})
}

// Get returns the label stored for href.
func (s *LinkSet) Get(href string) (string, bool) {
	if s == nil {
		return "", false
	}
	i, ok := s.index[href]
	if !ok {
		return "", false
	}
	return s.entries[i].Label, true
}

// Len returns the number of entries; a nil set is empty.
func (s *LinkSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of the entries in insertion order.
func (s *LinkSet) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
