package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the chart API, live sessions, and the health, readiness and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures optional routes and middleware.
type Option func(*serverOptions)

type serverOptions struct {
	charts   *ChartAPI
	sessions http.Handler
	origins  []string
}

// WithCharts mounts the chart API under /api/charts.
func WithCharts(api *ChartAPI) Option {
	return func(o *serverOptions) { o.charts = api }
}

// WithSessions mounts a live-session handler at /ws/charts/{id}.
func WithSessions(h http.Handler) Option {
	return func(o *serverOptions) { o.sessions = h }
}

// WithCORS allows cross-origin GETs from the given origins. "*" allows any.
func WithCORS(origins []string) Option {
	return func(o *serverOptions) { o.origins = origins }
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics plus
// whatever routes the options add.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if o.charts != nil {
		o.charts.Register(mux)
	}
	if o.sessions != nil {
		mux.Handle("GET /ws/charts/{id}", o.sessions)
	}

	// CompressHandler passes upgrade requests through untouched, so the
	// websocket route can sit behind it.
	var h http.Handler = handlers.CompressHandler(mux)
	if len(o.origins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(o.origins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		)(h)
	}
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, accessLog(logger))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      h,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// Hijacked websocket connections are not tracked here; close the session
// handler separately.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// accessLog writes one structured line per request instead of the Apache
// format the handlers package defaults to.
func accessLog(logger *slog.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		level := slog.LevelDebug
		if p.StatusCode >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(p.Request.Context(), level, "http request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"duration", time.Since(p.TimeStamp),
		)
	}
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("http handler panic", "error", fmt.Sprint(v...))
}
