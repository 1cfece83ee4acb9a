package preview

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LiveReloadHub manages SSE clients for build-hash broadcasts.
type LiveReloadHub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*lrClient
	closed   bool
	lastHash string

	connected  prometheus.Gauge
	broadcasts prometheus.Counter
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub creates a hub. Client and broadcast metrics are registered
// on reg when it is non-nil.
func NewLiveReloadHub(reg prometheus.Registerer) *LiveReloadHub {
	h := &LiveReloadHub{
		clients: map[int]*lrClient{},
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "campus", Name: "livereload_clients", Help: "Connected live reload clients",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "campus", Name: "livereload_broadcasts_total", Help: "Reload notifications sent",
		}),
	}
	if reg != nil {
		reg.MustRegister(h.connected, h.broadcasts)
	}
	return h
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastHash
	h.connected.Set(float64(len(h.clients)))
	h.mu.Unlock()

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("livereload write", "error", err)
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(": connected\n\n") {
		h.removeClient(client.id)
		return
	}
	if current != "" {
		send(event(current))
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			send(": ping\n\n")
		case hash := <-client.ch:
			send(event(hash))
		}
	}
}

func event(hash string) string { return "data: {\"hash\":\"" + hash + "\"}\n\n" }

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		h.connected.Set(float64(len(h.clients)))
	}
}

// Clients returns the number of connected clients.
func (h *LiveReloadHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends hash to all clients; clients whose buffers are full are dropped.
// Repeating the last hash is a no-op.
func (h *LiveReloadHub) Broadcast(hash string) {
	h.mu.Lock()
	if h.closed || hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- hash:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	h.broadcasts.Inc()
	slog.Debug("livereload broadcast", "hash", hash, "clients", len(snapshot), "dropped", dropped)
}

// Shutdown disconnects all clients and prevents future broadcasts.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.connected.Set(0)
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// LiveReloadScript is served at /livereload.js and injected into every page.
const LiveReloadScript = `(() => {
  if (window.__CAMPUS_LR__) return;
  window.__CAMPUS_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let first = true; let current = null;
    es.onmessage = (e) => { try { const p = JSON.parse(e.data); if (first) { current = p.hash; first = false; return; } if (p.hash && p.hash !== current) { location.reload(); } } catch (_) {} };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();`
