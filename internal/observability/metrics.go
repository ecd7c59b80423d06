package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_story"

// Metrics holds the Prometheus counters, histograms, and gauges for the chart
// engine and the event pipeline.
type Metrics struct {
	// Rendering.
	ScenesRendered  *prometheus.CounterVec   // labels: chart, mode={animate,redraw,static}
	ScenePrimitives *prometheus.HistogramVec // labels: chart
	GateRisingEdges *prometheus.CounterVec   // labels: chart
	CursorLookups   *prometheus.CounterVec   // labels: chart, result={hit,miss}
	SceneCache      *prometheus.CounterVec   // labels: result={hit,miss}
	ActiveInstances prometheus.Gauge

	// Live websocket sessions.
	LiveSessions prometheus.Gauge

	// Datasets.
	DatasetLoads        *prometheus.CounterVec   // labels: source, outcome={success,error}
	DatasetLoadDuration *prometheus.HistogramVec // labels: source

	// Event pipeline.
	EventsConsumed  prometheus.Counter
	FramesProduced  prometheus.Counter
	EventErrors     prometheus.Counter
	PipelineRunning prometheus.Gauge

	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ScenesRendered,
		m.ScenePrimitives,
		m.GateRisingEdges,
		m.CursorLookups,
		m.SceneCache,
		m.ActiveInstances,
		m.LiveSessions,
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.EventsConsumed,
		m.FramesProduced,
		m.EventErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ScenesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenes_rendered_total",
			Help:      "Scenes rendered by chart and mode.",
		}, []string{"chart", "mode"}),
		ScenePrimitives: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scene_primitives",
			Help:      "Number of primitives in each rendered scene.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 400},
		}, []string{"chart"}),
		GateRisingEdges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_rising_edges_total",
			Help:      "Visibility gate rising edges that triggered an animated draw.",
		}, []string{"chart"}),
		CursorLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cursor_lookups_total",
			Help:      "Cursor resolutions by chart and result.",
		}, []string{"chart", "result"}),
		SceneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_cache_total",
			Help:      "Scene cache lookups by result.",
		}, []string{"result"}),
		ActiveInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_instances",
			Help:      "Chart instances currently mounted.",
		}),
		LiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Open websocket chart sessions.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset loads by source and outcome.",
		}, []string{"source", "outcome"}),
		DatasetLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Dataset load duration in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		EventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Total viewport events read from the event topic.",
		}),
		FramesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_produced_total",
			Help:      "Total frames written to the frame topic.",
		}),
		EventErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_errors_total",
			Help:      "Total viewport events that could not be decoded or dispatched.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of events per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-dispatch-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
