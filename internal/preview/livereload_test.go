package preview

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readUntil(t *testing.T, r *bufio.Reader, needle string) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := r.ReadString('\n')
		if err != nil {
			return false
		}
		if strings.Contains(line, needle) {
			return true
		}
	}
	return false
}

func connect(t *testing.T, url string) (*bufio.Reader, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return bufio.NewReader(resp.Body), func() { _ = resp.Body.Close(); cancel() }
}

func TestLiveReloadInitialHash(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	defer hub.Shutdown()
	hub.Broadcast("abc123")

	server := httptest.NewServer(hub)
	defer server.Close()

	r, done := connect(t, server.URL)
	defer done()
	assert.True(t, readUntil(t, r, `"hash":"abc123"`))
}

func TestLiveReloadBroadcast(t *testing.T) {
	reg := prometheus.NewRegistry()
	hub := NewLiveReloadHub(reg)
	defer hub.Shutdown()

	server := httptest.NewServer(hub)
	defer server.Close()

	r, done := connect(t, server.URL)
	defer done()
	require.True(t, readUntil(t, r, ": connected"))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("build-2")
	assert.True(t, readUntil(t, r, `"hash":"build-2"`))
	assert.InDelta(t, 1, testutil.ToFloat64(hub.broadcasts), 0)

	// Repeating the last hash sends nothing.
	hub.Broadcast("build-2")
	assert.InDelta(t, 1, testutil.ToFloat64(hub.broadcasts), 0)
}

func TestLiveReloadShutdownRejectsClients(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	hub.Shutdown()
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livereload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
