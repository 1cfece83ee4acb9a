package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/campus/internal/build"
	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/history"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/notify"
)

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "CAMPUS_LOG_LEVEL"

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	Config *config.Config
	// Out receives user-facing messages (stdout by default).
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Dir     string           `short:"C" name:"dir" help:"Campus root directory." default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging."`
	Version kong.VersionFlag `name:"version" help:"Show version and exit."`

	Init     InitCmd     `cmd:"" help:"Initialize the current directory as a campus root."`
	Make     MakeCmd     `cmd:"" help:"Generate the website locally."`
	Push     PushCmd     `cmd:"" help:"Commit and push the sources, generate and publish the website."`
	Index    IndexCmd    `cmd:"" help:"Add files matching GLOB to index.md."`
	Indexall IndexAllCmd `cmd:"" name:"indexall" help:"Index every file and directory recursively."`
	Serve    ServeCmd    `cmd:"" help:"Serve the website locally and rebuild it on change."`
	History  HistoryCmd  `cmd:"" help:"List recent builds."`
}

// AfterApply runs after flag parsing: load the configuration and set up logging once.
func (c *CLI) AfterApply(g *Global) error {
	cfg, err := config.Load(c.Dir)
	if err != nil {
		return err
	}
	g.Config = cfg
	if g.Out == nil {
		g.Out = os.Stdout
	}
	g.Logger = newLogger(os.Stderr, cfg.Logging, c.Verbose)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := lc.Level.SlogLevel()
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = config.NormalizeLogLevel(env).SlogLevel()
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// services bundles the collaborators of a build service so they can be closed.
type services struct {
	builder  *build.DefaultBuildService
	registry *prometheus.Registry
	store    *history.Store
	notifier notify.Notifier
}

// newServices wires the build service from the configuration. History and
// notification failures only disable the feature.
func newServices(ctx context.Context, g *Global) *services {
	cfg, log := g.Config, g.Logger
	s := &services{notifier: notify.Noop{}}
	s.builder = build.NewBuildService().WithLogger(log)

	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.builder.WithRecorder(metrics.NewPrometheusRecorder(s.registry))
	}
	if cfg.History.Enabled && build.EnsureInitialized(cfg) == nil {
		store, err := history.Open(ctx, cfg.HistoryPath())
		if err != nil {
			log.Warn("Build history disabled", logfields.Path(cfg.HistoryPath()), logfields.Error(err))
		} else {
			s.store = store
			s.builder.WithHistory(store)
		}
	}
	n, err := notify.New(cfg.Notify)
	if err != nil {
		log.Warn("Build notifications disabled", logfields.Error(err))
	} else {
		s.notifier = n
		s.builder.WithNotifier(n)
	}
	return s
}

func (s *services) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
	_ = s.notifier.Close()
}
