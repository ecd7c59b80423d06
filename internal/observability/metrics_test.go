package observability

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-story/internal/config"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ScenesRendered.WithLabelValues("co2", "animate").Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(a.ScenesRendered.WithLabelValues("co2", "animate")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.ScenesRendered.WithLabelValues("co2", "animate")), 0)
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	m := NewMetrics()
	m.PipelineRunning.Set(1)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PipelineRunning), 0)
	assert.Panics(t, func() { NewMetrics() }, "second registration collides")
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "text"})
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}
