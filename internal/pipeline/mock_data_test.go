package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/pipeline"
	"github.com/couchcryptid/climate-story/internal/stage"
)

func TestSessionRenderer_WithSampleData(t *testing.T) {
	reg := chart.Default()
	loader := dataset.FileLoader{Dir: filepath.Join("..", "..", "data")}
	r := pipeline.NewSessionRenderer(reg, loader, slog.Default(), newTestMetrics(), 0)
	t.Cleanup(r.Close)

	events := readViewportEvents(t)
	// Mount and reveal every chart first so loads settle before the
	// interactions that follow.
	reveal := 3 * len(reg.IDs())
	require.Greater(t, len(events), reveal)

	out, err := r.Transform(context.Background(), events[:reveal])
	require.NoError(t, err)
	frames := decodeFrames(t, out)
	require.Len(t, frames, len(reg.IDs()), "one entrance frame per chart")

	byChart := make(map[string]stage.Frame)
	for _, f := range frames {
		assert.Equal(t, stage.ModeStatic, f.Mode)
		require.NotNil(t, f.Scene, f.ChartID)
		assert.False(t, f.Scene.Empty(), "%s rendered nothing", f.ChartID)
		byChart[f.ChartID] = f
	}
	for _, id := range reg.IDs() {
		assert.Contains(t, byChart, id)
	}

	out, err = r.Transform(context.Background(), events[reveal:])
	require.NoError(t, err)
	frames = decodeFrames(t, out)
	require.Len(t, frames, 4)

	assert.Equal(t, stage.ModeCursor, frames[0].Mode)
	require.NotNil(t, frames[0].Cursor, "pointer inside the plot")
	assert.Nil(t, frames[1].Cursor, "pointer left")

	assert.Equal(t, "contributions", frames[2].ChartID)
	assert.Equal(t, stage.ModeRedraw, frames[2].Mode)
	assert.Equal(t, "co2", frames[3].ChartID)
	assert.InDelta(t, 600, frames[3].Scene.Width, 0)

	assert.Equal(t, 1, r.Sessions(), "other charts keep the session alive")
}

func readViewportEvents(t *testing.T) []domain.ViewportEvent {
	t.Helper()

	path := filepath.Join("..", "..", "data", "mock", "viewport_events.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var events []domain.ViewportEvent
	require.NoError(t, json.Unmarshal(data, &events))
	for _, ev := range events {
		require.NoError(t, ev.Validate())
	}
	return events
}

func decodeFrames(t *testing.T, out []domain.OutputEvent) []stage.Frame {
	t.Helper()
	frames := make([]stage.Frame, len(out))
	for i, msg := range out {
		require.NoError(t, json.Unmarshal(msg.Value, &frames[i]))
	}
	return frames
}
