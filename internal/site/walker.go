package site

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/files"
	"git.home.luguber.info/inful/campus/internal/links"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/nav"
	"git.home.luguber.info/inful/campus/internal/paths"
	"git.home.luguber.info/inful/campus/internal/templates"
)

// DefaultPageFile is the name of the page written into every output directory.
const DefaultPageFile = "index.html"

// Walker generates the output tree for one source root.
type Walker struct {
	src      string
	dst      string
	pageFile string

	renderer   *content.Renderer
	classifier *links.Classifier
	template   *templates.Template
	sheets     paths.StylesheetOptions

	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Walker.
type Option func(*Walker)

// WithRenderer sets the content renderer.
func WithRenderer(r *content.Renderer) Option { return func(w *Walker) { w.renderer = r } }

// WithClassifier sets the link classifier.
func WithClassifier(c *links.Classifier) Option { return func(w *Walker) { w.classifier = c } }

// WithTemplate sets the page template.
func WithTemplate(t *templates.Template) Option { return func(w *Walker) { w.template = t } }

// WithPageFile sets the page file name written into each output directory.
func WithPageFile(name string) Option {
	return func(w *Walker) {
		if name != "" {
			w.pageFile = name
		}
	}
}

// WithStylesheets sets the stylesheet layout looked up under the output root.
func WithStylesheets(opts paths.StylesheetOptions) Option {
	return func(w *Walker) { w.sheets = opts }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Walker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(w *Walker) {
		if r != nil {
			w.recorder = r
		}
	}
}

// NewWalker returns a walker mirroring src into dst.
func NewWalker(src, dst string, opts ...Option) *Walker {
	w := &Walker{
		src:        filepath.Clean(src),
		dst:        filepath.Clean(dst),
		pageFile:   DefaultPageFile,
		renderer:   content.NewRenderer(""),
		classifier: links.NewClassifier(nil),
		template:   templates.Default(),
		sheets:     paths.DefaultStylesheetOptions(),
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Generate runs one full pass starting at dir with the given sibling links and
// fallback title. It is shorthand for NewWalker(src, dst, opts...).Walk.
func Generate(ctx context.Context, dir, src, dst string, siblings *links.LinkSet, title string, opts ...Option) (*Report, error) {
	return NewWalker(src, dst, opts...).Walk(ctx, dir, siblings, title)
}

// run holds the state of one pass.
type run struct {
	ctx    context.Context
	report *Report
	// stack lists the canonical paths of the directories being visited,
	// outermost first; onStack indexes it.
	stack   []string
	onStack map[string]int
}

// visit is the transient state of one directory.
type visit struct {
	dir      string
	rel      string
	siblings *links.LinkSet
	title    string

	fragment string
	result   *links.Result

	out    string
	depth  int
	sheets paths.Stylesheets
	nav    string
	html   string
}

// Walk generates pages for dir and every directory reachable from it through
// directory links. The returned report is never nil; it is partial when err
// is not nil.
func (w *Walker) Walk(ctx context.Context, dir string, siblings *links.LinkSet, title string) (*Report, error) {
	r := &run{ctx: ctx, report: newReport(), onStack: make(map[string]int)}
	if siblings == nil {
		siblings = links.NewLinkSet("")
	}
	err := w.visit(r, filepath.Clean(dir), siblings, title)
	r.report.finish(err)
	w.recorder.ObserveBuildDuration(r.report.Duration())
	return r.report, err
}

func (w *Walker) visit(r *run, dir string, siblings *links.LinkSet, title string) error {
	if err := r.ctx.Err(); err != nil {
		return errors.InternalError("generation canceled").WithCause(err).
			WithContext("dir", dir).
			Build()
	}

	rel, err := paths.Rel(dir, w.src)
	if err != nil {
		return err
	}

	key := canonical(dir)
	if i, ok := r.onStack[key]; ok {
		chain := make([]string, 0, len(r.stack)-i+1)
		for _, p := range r.stack[i:] {
			chain = append(chain, w.display(p))
		}
		chain = append(chain, w.display(key))
		return errors.CycleError("link cycle detected").
			WithContext("dir", rel).
			WithContext("chain", strings.Join(chain, " -> ")).
			Build()
	}
	r.onStack[key] = len(r.stack)
	r.stack = append(r.stack, key)
	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
		delete(r.onStack, key)
	}()

	v := &visit{dir: dir, rel: rel, siblings: siblings, title: title}
	for _, st := range pageStages {
		start := time.Now()
		err := st.Fn(w, r, v)
		w.observe(r, st.Name, time.Since(start))
		if err != nil {
			w.logger.Debug("Stage failed", logfields.Dir(rel), logfields.Stage(string(st.Name)), logfields.Error(err))
			return err
		}
	}

	// Children see the directory links of this page as their siblings.
	children := v.result.Directories
	for _, e := range children.Entries() {
		child := links.Resolve(dir, e.Href)
		w.logger.Debug("Entering directory", logfields.Dir(rel), logfields.Href(e.Href), logfields.Label(e.Label))
		if err := w.visit(r, child, children, e.Label); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) observe(r *run, stage StageName, d time.Duration) {
	r.report.StageDurations[stage] += d
	w.recorder.ObserveStageDuration(string(stage), d)
}

func (w *Walker) warn(r *run, msg string, err error, attrs ...any) {
	r.report.Warnings = append(r.report.Warnings, err)
	w.recorder.IncWarning(string(errors.GetCategory(err)))
	w.logger.Warn(msg, append(attrs, logfields.Error(err))...)
}

func (w *Walker) stageRender(r *run, v *visit) error {
	fragment, err := w.renderer.Render(v.dir)
	if err != nil {
		if errors.GetSeverity(err) != errors.SeverityWarning {
			return err
		}
		r.report.MissingContent = append(r.report.MissingContent, v.rel)
		w.warn(r, "Directory has no usable content file", err, logfields.Dir(v.rel))
	}
	v.fragment = fragment
	return nil
}

func (w *Walker) stageExtractTitle(_ *run, v *visit) error {
	v.title, v.fragment = content.ExtractTitle(v.fragment, v.title)
	return nil
}

func (w *Walker) stageClassifyLinks(r *run, v *visit) error {
	v.result = w.classifier.Classify(v.dir, v.fragment)
	for _, l := range v.result.Links {
		w.recorder.IncLink(string(l.Kind))
		if l.Kind == links.KindBroken {
			r.report.BrokenLinks = append(r.report.BrokenLinks, BrokenLink{Dir: v.rel, Href: l.Href, Target: l.Target})
		}
	}
	for _, warning := range v.result.Warnings {
		w.warn(r, "Link target not found", warning, logfields.Dir(v.rel), logfields.Kind(string(links.KindBroken)))
	}
	return nil
}

func (w *Walker) stageResolvePaths(_ *run, v *visit) error {
	out, err := paths.Translate(v.dir, w.src, w.dst)
	if err != nil {
		return err
	}
	depth, err := paths.Depth(v.dir, w.src)
	if err != nil {
		return err
	}
	v.out = out
	v.depth = depth
	v.sheets = paths.ResolveStylesheets(depth, w.dst, w.sheets)
	return nil
}

func (w *Walker) stageBuildNav(_ *run, v *visit) error {
	v.nav = nav.Render(v.siblings, v.dir, v.dir != w.src)
	return nil
}

func (w *Walker) stageRenderTemplate(_ *run, v *visit) error {
	v.html = w.template.Render(templates.Page{
		Title:            v.title,
		CommonStylesheet: v.sheets.Common,
		Stylesheet:       v.sheets.Specific,
		Nav:              v.nav,
		Main:             v.result.HTML,
	})
	return nil
}

func (w *Walker) stageWritePage(r *run, v *visit) error {
	if err := os.MkdirAll(v.out, 0o750); err != nil {
		return errors.FileSystemError("create output directory").WithCause(err).
			WithContext("path", v.out).
			Build()
	}
	page := filepath.Join(v.out, w.pageFile)
	if err := os.WriteFile(page, []byte(v.html), 0o600); err != nil {
		return errors.FileSystemError("write page").WithCause(err).
			WithContext("path", page).
			Build()
	}
	r.report.Pages = append(r.report.Pages, PageResult{
		Dir:         v.rel,
		Output:      page,
		Title:       v.title,
		Depth:       v.depth,
		Fingerprint: mdfp.CalculateFingerprintFromParts("", v.html),
	})
	w.recorder.IncPages()
	w.logger.Debug("Page written", logfields.Dir(v.rel), logfields.Path(page), logfields.Depth(v.depth))
	return nil
}

func (w *Walker) stageCopyFiles(r *run, v *visit) error {
	for _, e := range v.result.Files.Entries() {
		from := links.Resolve(v.dir, e.Href)
		to, err := paths.Translate(from, w.src, w.dst)
		if err != nil {
			return err
		}
		if err := files.CopyFile(from, to); err != nil {
			w.recorder.IncCopy(false)
			w.warn(r, "Failed to copy referenced file",
				errors.CopyError("copy referenced file").
					WithCause(err).
					WithContext("path", from).
					WithContext("target", to).
					Build(),
				logfields.Dir(v.rel), logfields.Path(from), logfields.Target(to))
			continue
		}
		w.recorder.IncCopy(true)
		r.report.CopiedFiles = append(r.report.CopiedFiles, to)
	}
	return nil
}

// display renders a canonical path relative to the source root when possible.
func (w *Walker) display(p string) string {
	if rel, err := paths.Rel(p, canonical(w.src)); err == nil {
		return filepath.ToSlash(rel)
	}
	return p
}

// canonical resolves symlinks so that two spellings of one directory compare equal.
func canonical(dir string) string {
	p, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return p
}
