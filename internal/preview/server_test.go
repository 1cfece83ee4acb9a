package preview

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/campus/internal/build"
	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/git"
	"git.home.luguber.info/inful/campus/internal/scaffold"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newSite(t *testing.T) *config.Config {
	t.Helper()
	root := filepath.Join(t.TempDir(), "course")
	require.NoError(t, os.Mkdir(root, 0o750))
	cfg := config.Default(root)
	_, err := scaffold.Init(cfg, scaffold.Options{}, git.NewClient(nil), quiet())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("# Course\n\nWelcome.\n"), 0o600))
	return cfg
}

func newServer(cfg *config.Config, reg *prometheus.Registry) *Server {
	builder := build.NewBuildService().WithLogger(quiet())
	return New(cfg, builder, WithLogger(quiet()), WithRegistry(reg), WithDebounce(20*time.Millisecond))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandlerServesSite(t *testing.T) {
	cfg := newSite(t)
	reg := prometheus.NewRegistry()
	s := newServer(cfg, reg)
	require.NoError(t, s.Rebuild(context.Background(), "test"))
	h := s.Handler()

	page := get(t, h, "/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Welcome.")
	assert.Contains(t, page.Body.String(), scriptTag+"</body>")

	css := get(t, h, "/css/all.css")
	require.Equal(t, http.StatusOK, css.Code)
	assert.NotContains(t, css.Body.String(), scriptTag)

	js := get(t, h, "/livereload.js")
	assert.Contains(t, js.Body.String(), "EventSource('/livereload')")

	var st Status
	require.NoError(t, json.Unmarshal(get(t, h, "/_campus/status").Body.Bytes(), &st))
	assert.Equal(t, 1, st.Builds)
	assert.Equal(t, string(build.BuildStatusSuccess), st.Status)
	assert.Equal(t, 1, st.Pages)
	assert.Empty(t, st.Error)

	m := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "campus_livereload_clients")
}

func TestHandlerWithoutMetrics(t *testing.T) {
	cfg := newSite(t)
	cfg.Metrics.Enabled = false
	s := newServer(cfg, prometheus.NewRegistry())
	require.NoError(t, s.Rebuild(context.Background(), "test"))
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/metrics").Code)
}

type failingBuilder struct{}

func (failingBuilder) Run(context.Context, build.BuildRequest) (*build.BuildResult, error) {
	return &build.BuildResult{BuildID: "b1", Status: build.BuildStatusFailed}, stderrors.New("boom")
}

func TestRebuildFailureIsReported(t *testing.T) {
	cfg := newSite(t)
	s := New(cfg, failingBuilder{}, WithLogger(quiet()))
	require.Error(t, s.Rebuild(context.Background(), "test"))

	st := s.Status()
	assert.Equal(t, "boom", st.Error)
	assert.Equal(t, "failed", st.Status)
	assert.Contains(t, s.hub.lastHash, "error:")
}

func TestServeRebuildsOnSourceChange(t *testing.T) {
	cfg := newSite(t)
	s := newServer(cfg, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return s.Status().Builds == 1 }, 5*time.Second, 20*time.Millisecond)
	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Give the watcher time to register before changing the source.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "index.md"), []byte("# Course\n\nUpdated.\n"), 0o600))
	require.Eventually(t, func() bool { return s.Status().Builds >= 2 }, 5*time.Second, 20*time.Millisecond)

	page, err := os.ReadFile(filepath.Join(cfg.OutputDir(), "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "Updated.")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
