package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.IncPages()
	pr.IncPages()
	pr.IncLink("directory")
	pr.IncLink("broken")
	pr.IncCopy(true)
	pr.IncCopy(false)
	pr.IncWarning("link")

	assert.InDelta(t, 2, testutil.ToFloat64(pr.pages), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.links.WithLabelValues("broken")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.copies.WithLabelValues("failed")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncPages()
	pr.IncLink("file")
	pr.IncCopy(true)
	pr.IncWarning("content")
	pr.ObserveStageDuration("render", time.Millisecond)
}

func TestHTTPHandlerServesMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncPages()

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "campus_pages_written_total 1")
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncPages()
	r.IncBuildOutcome(OutcomeFailed)
}
