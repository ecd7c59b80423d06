package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/climate-story/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-story/internal/adapter/kafka"
	"github.com/couchcryptid/climate-story/internal/adapter/ws"
	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/config"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/observability"
	"github.com/couchcryptid/climate-story/internal/pipeline"
	"github.com/couchcryptid/climate-story/internal/stage"
)

// datasetCacheSize covers every source in the catalogue with room to spare.
const datasetCacheSize = 32

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	reg := chart.Default()
	if err := chart.LoadLayouts(cfg.LayoutFile, reg); err != nil {
		logger.Error("failed to load layouts", "path", cfg.LayoutFile, "error", err)
		os.Exit(1)
	}

	// Datasets come from DATA_BASE_URL when set, otherwise from DATA_DIR.
	var base dataset.Loader = dataset.FileLoader{Dir: cfg.DataDir}
	if cfg.DataBaseURL != "" {
		base = dataset.NewHTTPLoader(cfg.DataBaseURL, cfg.DatasetLoadAttempts, cfg.DatasetLoadTimeout, logger)
		logger.Info("loading datasets over http", "base_url", cfg.DataBaseURL)
	} else {
		logger.Info("loading datasets from disk", "dir", cfg.DataDir)
	}
	loader := dataset.NewCachedLoader(dataset.Instrument(base, metrics), datasetCacheSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var warmup dataset.Warmup
	go warmup.Run(ctx, loader, reg.Sources(), logger)
	ready := readiness{&warmup}

	sessions := ws.NewHandler(reg, loader, logger, metrics,
		stage.WithDebounce(cfg.ResizeDebounce),
		stage.WithFrameInterval(cfg.FrameInterval),
	)
	sessions.AllowOrigins(cfg.CORSOrigins...)

	// Optional Kafka pipeline for remote viewers and prerendering.
	var (
		reader   *kafkaadapter.Reader
		writer   *kafkaadapter.Writer
		renderer *pipeline.SessionRenderer
	)
	pipelineDone := make(chan struct{})
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		renderer = pipeline.NewSessionRenderer(reg, loader, logger, metrics, cfg.ResizeDebounce,
			pipeline.WithIdleTTL(cfg.SessionIdleTTL),
		)
		p := pipeline.New(reader, renderer, writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("kafka pipeline enabled", "event_topic", cfg.KafkaEventTopic, "frame_topic", cfg.KafkaFrameTopic)
	} else {
		close(pipelineDone)
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, logger,
		httpadapter.WithCharts(httpadapter.NewChartAPI(reg, loader, metrics, logger, cfg.SceneCacheSize)),
		httpadapter.WithSessions(sessions),
		httpadapter.WithCORS(cfg.CORSOrigins),
	)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	sessions.Close()

	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before the shutdown deadline")
	}
	if renderer != nil {
		renderer.Close()
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness is ready when every check passes.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
