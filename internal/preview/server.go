package preview

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/campus/internal/build"
	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/metrics"
)

// Status describes the last rebuild, served at /_campus/status.
type Status struct {
	BuildID  string    `json:"build_id,omitempty"`
	Status   string    `json:"status,omitempty"`
	Pages    int       `json:"pages"`
	Error    string    `json:"error,omitempty"`
	Finished time.Time `json:"finished"`
	Builds   int       `json:"builds"`
}

// Server serves the output tree and rebuilds it when the source changes.
type Server struct {
	cfg      *config.Config
	builder  build.BuildService
	hub      *LiveReloadHub
	registry *prometheus.Registry
	logger   *slog.Logger
	debounce time.Duration

	buildMu  sync.Mutex
	statusMu sync.RWMutex
	status   Status
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry exposes reg at /metrics and registers the live reload metrics on it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates a preview server for cfg rebuilding with builder.
func New(cfg *config.Config, builder build.BuildService, opts ...Option) *Server {
	s := &Server{cfg: cfg, builder: builder, logger: slog.Default(), debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(s)
	}
	var reg prometheus.Registerer
	if s.registry != nil {
		reg = s.registry
	}
	s.hub = NewLiveReloadHub(reg)
	return s
}

// Hub returns the live reload hub.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Status returns the last rebuild status.
func (s *Server) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Handler returns the HTTP handler of the preview server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		_, _ = w.Write([]byte(LiveReloadScript))
	})
	mux.HandleFunc("/_campus/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
			s.logger.Debug("status write", logfields.Error(err))
		}
	})
	if s.registry != nil && s.cfg.Metrics.Enabled {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.Handle("/", injectLiveReload(http.FileServer(http.Dir(s.cfg.OutputDir()))))
	return mux
}

// Rebuild runs one build and notifies connected browsers. Concurrent calls are serialized.
func (s *Server) Rebuild(ctx context.Context, reason string) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	res, err := s.builder.Run(ctx, build.BuildRequest{Config: s.cfg, Reason: reason})
	s.statusMu.Lock()
	s.status.Builds++
	s.status.Finished = time.Now()
	s.status.Error = ""
	if res != nil {
		s.status.BuildID = res.BuildID
		s.status.Status = string(res.Status)
		s.status.Pages = 0
		if res.Report != nil {
			s.status.Pages = len(res.Report.Pages)
		}
	}
	if err != nil {
		s.status.Error = err.Error()
	}
	s.statusMu.Unlock()

	if err != nil {
		s.logger.Warn("Rebuild failed", logfields.Error(err))
		s.hub.Broadcast("error:" + strconv.FormatInt(time.Now().UnixNano(), 10))
		return err
	}
	id := strconv.FormatInt(time.Now().UnixNano(), 10)
	if res != nil && res.BuildID != "" {
		id = res.BuildID
	}
	s.hub.Broadcast(id)
	return nil
}

// Run listens on the configured port until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort("", strconv.Itoa(s.cfg.Preview.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "listen").WithContext("addr", addr).Build()
	}
	return s.Serve(ctx, ln)
}

// Serve builds the site, then serves it on ln while watching the source tree.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.Rebuild(ctx, "serve"); err != nil {
		s.logger.Error("Initial build failed", logfields.Error(err))
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 300 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.logger.Info("Preview server listening", slog.String("url", fmt.Sprintf("http://%s", ln.Addr())))

	w, err := newWatcher(s.cfg.SourceDir(), []string{s.cfg.OutputDir(), s.cfg.ConfigPath()}, s.logger)
	if err != nil {
		_ = srv.Close()
		return errors.WrapError(err, errors.CategoryFileSystem, "watch source").Build()
	}
	defer func() { _ = w.Close() }()

	deb := newDebouncer(s.debounce)
	defer deb.Stop()

	sched, err := s.schedule(deb)
	if err != nil {
		_ = srv.Close()
		return err
	}
	if sched != nil {
		defer func() { _ = sched.Shutdown() }()
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-deb.C:
				s.logger.Info("Change detected; rebuilding site")
				_ = s.Rebuild(workerCtx, "watch")
			}
		}
	}()
	stop := func() error {
		stopWorker()
		return s.shutdown(srv, workerDone)
	}

	for {
		select {
		case <-ctx.Done():
			return stop()
		case err, ok := <-serveErr:
			if !ok {
				serveErr = nil
				continue
			}
			_ = stop()
			return errors.WrapError(err, errors.CategoryInternal, "serve").Build()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return stop()
			}
			if w.relevant(ev) {
				s.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
				deb.Trigger()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return stop()
			}
			s.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// schedule registers the periodic rebuild job when configured.
func (s *Server) schedule(deb *debouncer) (gocron.Scheduler, error) {
	interval := s.cfg.Preview.RebuildInterval
	if interval <= 0 {
		return nil, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "create scheduler").Build()
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(deb.Fire),
		gocron.WithName("periodic-rebuild"),
	); err != nil {
		_ = sched.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryInternal, "schedule periodic rebuild").Build()
	}
	sched.Start()
	s.logger.Info("Periodic rebuild scheduled", logfields.Duration(interval))
	return sched, nil
}

func (s *Server) shutdown(srv *http.Server, workerDone <-chan struct{}) error {
	s.logger.Info("Shutting down preview server")
	s.hub.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	<-workerDone
	return nil
}
