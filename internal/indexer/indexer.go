// Package indexer appends markdown links for files and directories to a
// directory's content file (`campus index` and `campus indexall`).
package indexer

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
)

// Options selects what Index adds.
type Options struct {
	// Glob is matched relative to each visited directory. Empty only ensures
	// the content files exist.
	Glob string
	// Recursive visits non-hidden subdirectories, in sorted order, before the directory itself.
	Recursive bool
	// Create allows a missing content file in the starting directory.
	Create bool
}

// Entry is one appended link.
type Entry struct {
	File  string // content file that received the link
	Label string
	Href  string
}

// Result lists what an Index call changed.
type Result struct {
	Created []string
	Indexed []Entry
}

// Nothing reports whether no link was added.
func (r *Result) Nothing() bool { return len(r.Indexed) == 0 }

// Indexer maintains content files.
type Indexer struct {
	contentFile string
	exclude     map[string]struct{}
	logger      *slog.Logger
}

// New returns an indexer writing contentFile (index.md when empty). Directories
// in exclude (e.g. the output root) are never indexed or visited.
func New(contentFile string, exclude []string, logger *slog.Logger) *Indexer {
	if contentFile == "" {
		contentFile = content.DefaultContentFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Indexer{contentFile: contentFile, exclude: make(map[string]struct{}, len(exclude)), logger: logger}
	for _, e := range exclude {
		if abs, err := filepath.Abs(e); err == nil {
			ix.exclude[abs] = struct{}{}
		}
	}
	return ix
}

// IndexAll indexes every file and directory under dir recursively.
func (ix *Indexer) IndexAll(dir string, create bool) (*Result, error) {
	return ix.Index(dir, Options{Glob: "*", Recursive: true, Create: create})
}

// Index adds links for the entries of dir matching opts.Glob.
func (ix *Indexer) Index(dir string, opts Options) (*Result, error) {
	if !opts.Create {
		if st, err := os.Stat(filepath.Join(dir, ix.contentFile)); err != nil || !st.Mode().IsRegular() {
			return nil, errors.NewError(errors.CategoryNotFound, "no content file in this directory; use --create to create one").
				Fatal().
				UserAction().
				WithContext("dir", dir).
				WithContext("file", ix.contentFile).
				Build()
		}
	}
	if opts.Glob != "" {
		if _, err := path.Match(opts.Glob, ""); err != nil {
			return nil, errors.ValidationError("invalid glob pattern").WithContext("glob", opts.Glob).Build()
		}
	}
	res := &Result{}
	if err := ix.index(dir, opts, res); err != nil {
		return res, err
	}
	return res, nil
}

func (ix *Indexer) index(dir string, opts Options, res *Result) error {
	if opts.Recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read directory").WithContext("dir", dir).Build()
		}
		// ReadDir returns entries sorted by name.
		for _, e := range entries {
			child := filepath.Join(dir, e.Name())
			if !e.IsDir() || hidden(e.Name()) || ix.excluded(child) {
				continue
			}
			if err := ix.index(child, opts, res); err != nil {
				return err
			}
		}
	}

	indexFile := filepath.Join(dir, ix.contentFile)
	created, err := ix.ensure(dir, indexFile)
	if err != nil {
		return err
	}
	if created {
		res.Created = append(res.Created, indexFile)
	}
	if opts.Glob == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(indexFile))
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "read content file").WithContext("path", indexFile).Build()
	}
	known := make(map[string]struct{})
	for _, d := range content.LinkDestinations(data) {
		known[d] = struct{}{}
	}

	matches, err := fs.Glob(os.DirFS(dir), opts.Glob)
	if err != nil {
		return errors.ValidationError("invalid glob pattern").WithContext("glob", opts.Glob).Build()
	}
	sort.Strings(matches)

	var added []Entry
	for _, rel := range matches {
		name := path.Base(rel)
		if name == ix.contentFile || hidden(name) || ix.excluded(filepath.Join(dir, filepath.FromSlash(rel))) {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		if _, ok := known[rel]; ok {
			continue
		}
		added = append(added, Entry{File: indexFile, Label: Label(rel), Href: rel})
		known[rel] = struct{}{}
	}
	if len(added) == 0 {
		return nil
	}
	if err := appendLinks(indexFile, added); err != nil {
		return err
	}
	for _, e := range added {
		ix.logger.Info("Indexed", logfields.Label(e.Label), logfields.Href(e.Href), logfields.Path(indexFile))
	}
	res.Indexed = append(res.Indexed, added...)
	return nil
}

// ensure creates the content file of dir with a heading derived from the
// directory name when it does not exist yet.
func (ix *Indexer) ensure(dir, indexFile string) (bool, error) {
	if _, err := os.Stat(indexFile); err == nil {
		return false, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	heading := "# " + Label(filepath.Base(abs)+"/") + "\n\n"
	if err := os.WriteFile(indexFile, []byte(heading), 0o600); err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "create content file").WithContext("path", indexFile).Build()
	}
	ix.logger.Info("Content file created", logfields.Path(indexFile))
	return true, nil
}

func (ix *Indexer) excluded(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	_, ok := ix.exclude[abs]
	return ok
}

func appendLinks(indexFile string, entries []Entry) error {
	f, err := os.OpenFile(filepath.Clean(indexFile), os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "open content file").WithContext("path", indexFile).Build()
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("\n[")
		b.WriteString(e.Label)
		b.WriteString("](<")
		b.WriteString(e.Href)
		b.WriteString(">)\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return errors.WrapError(err, errors.CategoryFileSystem, "append to content file").WithContext("path", indexFile).Build()
	}
	if err := f.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "close content file").WithContext("path", indexFile).Build()
	}
	return nil
}

// Label derives a link label from a path: the last element without its
// extension, underscores turned into spaces, NFC normalized. A trailing slash
// marks a directory name whose dots are kept.
func Label(p string) string {
	isDir := strings.HasSuffix(p, "/")
	name := path.Base(strings.TrimSuffix(filepath.ToSlash(p), "/"))
	if !isDir {
		if ext := path.Ext(name); ext != "" && ext != name {
			name = strings.TrimSuffix(name, ext)
		}
	}
	return norm.NFC.String(strings.ReplaceAll(name, "_", " "))
}

func hidden(name string) bool { return strings.HasPrefix(name, ".") }
