// Package ws serves live chart sessions over WebSocket. Each connection owns
// one stage: the browser sends viewport events, the server pushes frames.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/observability"
	"github.com/couchcryptid/climate-story/internal/stage"
)

// Handler upgrades GET /ws/charts/{id} into a session with chart {id}
// mounted. Further charts can be addressed by naming them in events.
type Handler struct {
	registry *chart.Registry
	loader   dataset.Loader
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     []stage.Option
	upgrader websocket.Upgrader
	origins  []string

	base   context.Context
	stop   context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewHandler creates a handler. opts are applied to every session's stage
// after the handler's own logger and metrics.
func NewHandler(reg *chart.Registry, loader dataset.Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...stage.Option) *Handler {
	base, stop := context.WithCancel(context.Background())
	h := &Handler{
		registry: reg,
		loader:   loader,
		logger:   logger,
		metrics:  metrics,
		opts:     append([]stage.Option{stage.WithLogger(logger), stage.WithMetrics(metrics)}, opts...),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		base: base,
		stop: stop,
	}
	h.upgrader.CheckOrigin = h.checkOrigin
	return h
}

// AllowOrigins restricts which browser origins may open sessions. An empty
// list or "*" allows any origin.
func (h *Handler) AllowOrigins(origins ...string) {
	h.origins = origins
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 || slices.Contains(h.origins, "*") {
		return true
	}
	return slices.Contains(h.origins, origin)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.registry.Get(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chart.ErrUnknownChart) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("websocket upgrade failed", "chart", id, "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	newSession(h, conn, id).run(h.base)
}

// Close ends every open session and waits for them to release their charts.
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.stop()
	h.wg.Wait()
}
