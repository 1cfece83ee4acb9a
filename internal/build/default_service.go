package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/files"
	"git.home.luguber.info/inful/campus/internal/history"
	"git.home.luguber.info/inful/campus/internal/links"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/notify"
	"git.home.luguber.info/inful/campus/internal/paths"
	"git.home.luguber.info/inful/campus/internal/site"
	"git.home.luguber.info/inful/campus/internal/templates"
)

// HistoryRecorder persists finished builds.
type HistoryRecorder interface {
	Record(ctx context.Context, b history.Build, pages []history.Page) (history.Build, error)
}

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	logger    *slog.Logger
	recorder  metrics.Recorder
	history   HistoryRecorder
	notifier  notify.Notifier
	templates *templates.Loader
	newID     func() string
}

// NewBuildService creates a DefaultBuildService without history or notifications.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
		notifier:  notify.Noop{},
		templates: templates.NewLoader(),
		newID:     uuid.NewString,
	}
}

// WithLogger sets the logger used for the build and the walker.
func (s *DefaultBuildService) WithLogger(l *slog.Logger) *DefaultBuildService {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory records every finished build in h.
func (s *DefaultBuildService) WithHistory(h HistoryRecorder) *DefaultBuildService {
	s.history = h
	return s
}

// WithNotifier publishes a build event after every build.
func (s *DefaultBuildService) WithNotifier(n notify.Notifier) *DefaultBuildService {
	if n != nil {
		s.notifier = n
	}
	return s
}

// WithIDGenerator overrides build id generation (for testing).
func (s *DefaultBuildService) WithIDGenerator(fn func() string) *DefaultBuildService {
	if fn != nil {
		s.newID = fn
	}
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{BuildID: s.newID(), StartTime: start, Status: BuildStatusFailed}
	log := s.logger.With(logfields.BuildID(result.BuildID))

	fail := func(err error) (*BuildResult, error) {
		s.finish(ctx, log, req, result, err)
		return result, err
	}

	cfg := req.Config
	if cfg == nil {
		return fail(errors.ConfigError("config required").Build())
	}
	result.OutputPath = cfg.OutputDir()
	log.Info("Build started", logfields.Path(cfg.SourceDir()), logfields.Target(result.OutputPath), "reason", req.Reason)

	if err := EnsureInitialized(cfg); err != nil {
		return fail(err)
	}

	stageStart := time.Now()
	if err := PrepareOutput(cfg); err != nil {
		return fail(err)
	}
	s.copyAssets(log, cfg.ConfigPath(), result.OutputPath, cfg.Assets)
	s.recorder.ObserveStageDuration("prepare_output", time.Since(stageStart))

	tpl, err := s.loadTemplate(log, cfg.TemplatePath())
	if err != nil {
		return fail(err)
	}
	scanner, err := links.NewScanner(cfg.Build.Scanner)
	if err != nil {
		return fail(err)
	}

	walker := site.NewWalker(cfg.SourceDir(), result.OutputPath,
		site.WithRenderer(content.NewRenderer(cfg.ContentFile)),
		site.WithClassifier(links.NewClassifier(scanner)),
		site.WithTemplate(tpl),
		site.WithPageFile(cfg.PageFile),
		site.WithStylesheets(paths.DefaultStylesheetOptions()),
		site.WithLogger(log),
		site.WithRecorder(s.recorder),
	)
	report, err := walker.Walk(ctx, cfg.SourceDir(), nil, "")
	result.Report = report
	if err != nil {
		return fail(err)
	}
	s.finish(ctx, log, req, result, nil)
	return result, nil
}

// copyAssets copies style directories from the configuration directory into
// the output root. Missing assets are logged and skipped.
func (s *DefaultBuildService) copyAssets(log *slog.Logger, configDir, out string, assets []string) {
	for _, name := range assets {
		from := filepath.Join(configDir, name)
		st, err := os.Stat(from)
		if err != nil || !st.IsDir() {
			log.Warn("Asset directory missing; skipping", logfields.Path(from))
			continue
		}
		if err := files.CopyTree(from, filepath.Join(out, name)); err != nil {
			log.Warn("Failed to copy asset directory", logfields.Path(from), logfields.Error(err))
		}
	}
}

// loadTemplate loads the configured template, falling back to the built-in
// one when the file does not exist.
func (s *DefaultBuildService) loadTemplate(log *slog.Logger, path string) (*templates.Template, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn("Template not found; using built-in template", logfields.Path(path))
		return templates.Default(), nil
	}
	tpl, err := s.templates.Load(path)
	if err != nil {
		return nil, err
	}
	if missing := tpl.MissingTokens(); len(missing) > 0 {
		log.Warn("Template lacks placeholders", logfields.Path(path), "missing", missing)
	}
	return tpl, nil
}

func (s *DefaultBuildService) finish(ctx context.Context, log *slog.Logger, req BuildRequest, result *BuildResult, err error) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Status = statusFor(result.Report, err)
	s.recorder.IncBuildOutcome(string(result.Status))

	if req.Config != nil && result.Report != nil {
		result.ChangedPages = s.recordHistory(ctx, log, result, err)
		s.publish(ctx, log, req, result, err)
	}

	attrs := []any{logfields.Duration(result.Duration), "status", string(result.Status)}
	if result.Report != nil {
		attrs = append(attrs,
			logfields.Count(len(result.Report.Pages)),
			"copied", len(result.Report.CopiedFiles),
			"broken_links", len(result.Report.BrokenLinks),
			"changed", result.ChangedPages)
	}
	if err != nil {
		log.Error("Build failed", append(attrs, logfields.Error(err))...)
		return
	}
	log.Info("Build completed", attrs...)
}

func statusFor(report *site.Report, err error) BuildStatus {
	switch {
	case err != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)):
		return BuildStatusCancelled
	case err != nil:
		return BuildStatusFailed
	case report != nil && len(report.Warnings) > 0:
		return BuildStatusWarning
	default:
		return BuildStatusSuccess
	}
}

func (s *DefaultBuildService) recordHistory(ctx context.Context, log *slog.Logger, result *BuildResult, buildErr error) int {
	if s.history == nil {
		return 0
	}
	r := result.Report
	b := history.Build{
		ID:          result.BuildID,
		Start:       result.StartTime,
		End:         result.EndTime,
		Outcome:     string(result.Status),
		Pages:       len(r.Pages),
		CopiedFiles: len(r.CopiedFiles),
		BrokenLinks: len(r.BrokenLinks),
		Warnings:    len(r.Warnings),
	}
	if buildErr != nil {
		b.Error = buildErr.Error()
	}
	pages := make([]history.Page, 0, len(r.Pages))
	for _, p := range r.Pages {
		pages = append(pages, history.Page{Dir: filepath.ToSlash(p.Dir), Title: p.Title, Fingerprint: p.Fingerprint})
	}
	stored, err := s.history.Record(ctx, b, pages)
	if err != nil {
		log.Warn("Failed to record build history", logfields.Error(err))
		return 0
	}
	return stored.ChangedPages
}

func (s *DefaultBuildService) publish(ctx context.Context, log *slog.Logger, req BuildRequest, result *BuildResult, buildErr error) {
	r := result.Report
	ev := notify.BuildEvent{
		BuildID:      result.BuildID,
		Source:       req.Config.SourceDir(),
		Output:       result.OutputPath,
		Outcome:      string(result.Status),
		Pages:        len(r.Pages),
		ChangedPages: result.ChangedPages,
		CopiedFiles:  len(r.CopiedFiles),
		BrokenLinks:  len(r.BrokenLinks),
		CopyFailures: r.CopyFailures(),
		DurationMS:   result.Duration.Milliseconds(),
		Timestamp:    result.EndTime,
	}
	if buildErr != nil {
		ev.Error = buildErr.Error()
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		log.Warn("Failed to publish build event", logfields.Error(err))
	}
}
