package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/observability"
	"github.com/couchcryptid/climate-story/internal/pipeline"
	"github.com/couchcryptid/climate-story/internal/stage"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err    error
	events []domain.ViewportEvent
}

func (m *mockTransformer) Transform(_ context.Context, events []domain.ViewportEvent) ([]domain.OutputEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.events = append(m.events, events...)
	out := make([]domain.OutputEvent, len(events))
	for i, ev := range events {
		out[i] = domain.OutputEvent{Key: []byte(ev.Session), Value: []byte(ev.Chart)}
	}
	return out, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.OutputEvent
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = append(m.loaded, events...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, domain.ViewportEvent{Session: "s1", Chart: "co2", Type: domain.EventMount})

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, []byte("co2"), ldr.loaded[0].Value)
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EventsConsumed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FramesProduced), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no events, will block
	tfm := &mockTransformer{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_InvalidEventsSkippedAndCommitted(t *testing.T) {
	var commits atomic.Int64
	commit := func(context.Context) error {
		commits.Add(1)
		return nil
	}
	bad := domain.RawEvent{Value: []byte("not json"), Commit: commit}
	good := makeRawEvent(t, domain.ViewportEvent{Session: "s1", Chart: "co2", Type: domain.EventIntersect, Ratio: 0.5})
	good.Commit = commit

	ext := &mockExtractor{batches: [][]domain.RawEvent{{bad, good}}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, tfm.events, 1)
	assert.Equal(t, domain.EventIntersect, tfm.events[0].Type)
	assert.Equal(t, int64(2), commits.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EventErrors), 0)
}

func TestPipeline_Run_TransformErrorDoesNotCommit(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, domain.ViewportEvent{Session: "s1", Chart: "co2", Type: domain.EventMount})
	raw.Commit = func(context.Context) error {
		committed = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{err: errors.New("stage closed")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.False(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker unavailable")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, p.Run(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond, "loop sleeps instead of spinning")
}

func TestSessionRenderer_Transform(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	r := newRenderer(t)
	events := []domain.ViewportEvent{
		{Session: "page-1", Chart: "globaltemp", Type: domain.EventMount, Width: 800, Height: 400},
		{Session: "page-1", Chart: "globaltemp", Type: domain.EventIntersect, Ratio: 0.1},
	}
	out, err := r.Transform(context.Background(), events)
	require.NoError(t, err)
	assert.Empty(t, out, "below the threshold")

	out, err = r.Transform(context.Background(), []domain.ViewportEvent{
		{Session: "page-1", Chart: "globaltemp", Type: domain.EventIntersect, Ratio: 0.8},
		{Session: "page-1", Chart: "globaltemp", Type: domain.EventPointerMove, X: 420, Y: 130},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, []byte("page-1"), out[0].Key)
	assert.Equal(t, "globaltemp", out[0].Headers["chart"])
	assert.Equal(t, "static", out[0].Headers["mode"])
	assert.Equal(t, "2024-04-26T15:10:00Z", out[0].Headers["rendered_at"])

	var drawn stage.Frame
	require.NoError(t, json.Unmarshal(out[0].Value, &drawn))
	assert.True(t, drawn.Done)
	require.NotNil(t, drawn.Scene)
	assert.InDelta(t, 800, drawn.Scene.Width, 0)

	var cur stage.Frame
	require.NoError(t, json.Unmarshal(out[1].Value, &cur))
	assert.Equal(t, stage.ModeCursor, cur.Mode)
	require.NotNil(t, cur.Cursor)
	assert.Equal(t, 2010, cur.Cursor.Record.Key)
}

func TestSessionRenderer_UnmountStopsSession(t *testing.T) {
	r := newRenderer(t)

	_, err := r.Transform(context.Background(), []domain.ViewportEvent{
		{Session: "a", Chart: "globaltemp", Type: domain.EventMount},
		{Session: "b", Chart: "globaltemp", Type: domain.EventMount},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Sessions())

	out, err := r.Transform(context.Background(), []domain.ViewportEvent{
		{Session: "a", Chart: "globaltemp", Type: domain.EventUnmount},
		{Session: "a", Chart: "globaltemp", Type: domain.EventUnmount},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, r.Sessions())
}

func TestSessionRenderer_StopsIdleSessions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	metrics := newTestMetrics()
	r := pipeline.NewSessionRenderer(chart.Default(), staticData(), slog.Default(), metrics, 0,
		pipeline.WithIdleTTL(time.Minute),
		pipeline.WithClock(clock),
	)
	t.Cleanup(r.Close)
	ctx := context.Background()
	mount := func(session string) domain.ViewportEvent {
		return domain.ViewportEvent{Session: session, Chart: "globaltemp", Type: domain.EventMount, Width: 800, Height: 400}
	}
	resize := func(session string) domain.ViewportEvent {
		return domain.ViewportEvent{Session: session, Chart: "globaltemp", Type: domain.EventResize, Width: 600, Height: 300}
	}

	_, err := r.Transform(ctx, []domain.ViewportEvent{mount("a"), mount("b")})
	require.NoError(t, err)
	require.Equal(t, 2, r.Sessions())

	clock.Advance(30 * time.Second)
	_, err = r.Transform(ctx, []domain.ViewportEvent{resize("b")})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Sessions(), "a has been quiet for 30s")

	clock.Advance(45 * time.Second)
	_, err = r.Transform(ctx, []domain.ViewportEvent{mount("c")})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Sessions(), "a stopped after 75s, b kept after 45s")
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ActiveInstances), 0, "a's chart released")

	// A session in the current batch is kept however long it was quiet.
	clock.Advance(2 * time.Minute)
	_, err = r.Transform(ctx, []domain.ViewportEvent{resize("b")})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Sessions())

	_, err = r.Transform(ctx, []domain.ViewportEvent{resize("b")})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Sessions())
}

func TestSessionRenderer_NoIdleTTLKeepsSessions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := pipeline.NewSessionRenderer(chart.Default(), staticData(), slog.Default(), newTestMetrics(), 0,
		pipeline.WithClock(clock),
	)
	t.Cleanup(r.Close)

	_, err := r.Transform(context.Background(), []domain.ViewportEvent{
		{Session: "a", Chart: "globaltemp", Type: domain.EventMount},
	})
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	_, err = r.Transform(context.Background(), []domain.ViewportEvent{
		{Session: "b", Chart: "globaltemp", Type: domain.EventMount},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Sessions())
}

func TestSessionRenderer_UnknownChartCounted(t *testing.T) {
	metrics := newTestMetrics()
	r := pipeline.NewSessionRenderer(chart.Default(), staticData(), slog.Default(), metrics, 0)
	t.Cleanup(r.Close)

	out, err := r.Transform(context.Background(), []domain.ViewportEvent{
		{Session: "a", Chart: "weather", Type: domain.EventMount},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EventErrors), 0)
}

func TestSerializeFrame(t *testing.T) {
	f := stage.Frame{ChartID: "co2", Seq: 3, Mode: stage.ModeRedraw, Done: true}
	out, err := pipeline.SerializeFrame("page-9", f)
	require.NoError(t, err)
	assert.Equal(t, []byte("page-9"), out.Key)
	assert.Equal(t, "redraw", out.Headers["mode"])
	assert.Contains(t, string(out.Value), `"seq":3`)
}

// --- helpers ---

func staticData() dataset.Static {
	return dataset.Static{"globaltemp": domain.NewSeries("globaltemp", []domain.Record{
		{Key: 2000, Value: 1},
		{Key: 2010, Value: 2},
		{Key: 2020, Value: 3},
	})}
}

func newRenderer(t *testing.T) *pipeline.SessionRenderer {
	t.Helper()
	r := pipeline.NewSessionRenderer(chart.Default(), staticData(), slog.Default(), newTestMetrics(), 0)
	t.Cleanup(r.Close)
	return r
}

func makeRawEvent(t *testing.T, ev domain.ViewportEvent) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(ev.Session),
		Value: data,
	}
}
