package publish

import (
	"context"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/campus/internal/build"
	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/git"
	"git.home.luguber.info/inful/campus/internal/logfields"
)

// DefaultMessage is the commit message used when none is given.
const DefaultMessage = "Update site (campus push)"

// Request describes one push.
type Request struct {
	Config  *config.Config
	Message string
	DryRun  bool
}

// Result reports what a push did.
type Result struct {
	SourceCommitted bool
	Build           *build.BuildResult
	Output          Outcome
}

// Service runs the push sequence: commit and push the source, rebuild, then
// publish the output tree.
type Service struct {
	builder build.BuildService
	git     *git.Client
	out     io.Writer
	logger  *slog.Logger
	// newOutput overrides the publisher chosen from the configuration.
	newOutput func(cfg *config.Config, dryRun bool) (Publisher, error)
}

// NewService creates a push service building with builder. Dry-run output is
// written to out.
func NewService(builder build.BuildService, out io.Writer) *Service {
	if out == nil {
		out = io.Discard
	}
	return &Service{builder: builder, out: out, logger: slog.Default()}
}

// WithLogger sets the logger (fluent helper).
func (s *Service) WithLogger(l *slog.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithGitClient replaces the git client (fluent helper).
func (s *Service) WithGitClient(c *git.Client) *Service {
	s.git = c
	return s
}

// WithOutputPublisher replaces the output publisher factory (fluent helper).
func (s *Service) WithOutputPublisher(fn func(cfg *config.Config, dryRun bool) (Publisher, error)) *Service {
	s.newOutput = fn
	return s
}

// Push executes req.
func (s *Service) Push(ctx context.Context, req Request) (*Result, error) {
	cfg := req.Config
	if cfg == nil {
		return nil, errors.ConfigError("config required").Build()
	}
	if err := build.EnsureInitialized(cfg); err != nil {
		return nil, err
	}
	msg := req.Message
	if msg == "" {
		msg = cfg.Publish.Message
	}
	if msg == "" {
		msg = DefaultMessage
	}
	g := s.gitClient(cfg, req.DryRun)

	res := &Result{}
	committed, err := g.CommitAll(cfg.SourceDir(), msg, false)
	if err != nil {
		return res, err
	}
	res.SourceCommitted = committed
	if err := g.Push(ctx, cfg.SourceDir(), cfg.Publish.Remote); err != nil {
		return res, err
	}

	br, err := s.builder.Run(ctx, build.BuildRequest{Config: cfg, Reason: "push"})
	res.Build = br
	if err != nil {
		return res, err
	}

	pub, err := s.outputPublisher(cfg, req.DryRun, g)
	if err != nil {
		return res, err
	}
	outcome, err := pub.Publish(ctx, cfg.OutputDir(), msg)
	res.Output = outcome
	if err != nil {
		return res, err
	}
	s.logger.Info("Push completed",
		logfields.Target(string(cfg.Publish.Target)),
		slog.Bool("source_committed", res.SourceCommitted),
		slog.Bool("output_committed", outcome.Committed),
		slog.Int("uploaded", outcome.Uploaded))
	return res, nil
}

func (s *Service) gitClient(cfg *config.Config, dryRun bool) *git.Client {
	if s.git != nil {
		return s.git.WithDryRun(dryRun)
	}
	return git.NewClient(s.out).WithDryRun(dryRun).WithRetry(cfg.Publish.Retry.Policy())
}

func (s *Service) outputPublisher(cfg *config.Config, dryRun bool, g *git.Client) (Publisher, error) {
	if s.newOutput != nil {
		return s.newOutput(cfg, dryRun)
	}
	if cfg.Publish.Target == config.PublishS3 {
		p, err := NewS3Publisher(cfg.Publish.S3)
		if err != nil {
			return nil, err
		}
		return p.WithDryRun(dryRun, s.out).WithLogger(s.logger), nil
	}
	return NewGitPublisher(g, cfg.Publish.Remote), nil
}
