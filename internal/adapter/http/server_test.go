package http_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/climate-story/internal/adapter/http"
	"github.com/couchcryptid/climate-story/internal/adapter/ws"
	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/observability"
	"github.com/couchcryptid/climate-story/internal/scene"
	"github.com/couchcryptid/climate-story/internal/stage"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func globalTemp() dataset.Static {
	return dataset.Static{"globaltemp": domain.NewSeries("globaltemp", []domain.Record{
		{Key: 2000, Value: 1},
		{Key: 2010, Value: 2},
		{Key: 2020, Value: 3},
	})}
}

func newTestServer(readyErr error) (*httpadapter.Server, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	api := httpadapter.NewChartAPI(chart.Default(), globalTemp(), metrics, slog.Default(), 16)
	srv := httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, slog.Default(),
		httpadapter.WithCharts(api),
		httpadapter.WithCORS([]string{"https://story.example"}),
	)
	return srv, metrics
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(fmt.Errorf("not ready yet"))
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListCharts(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(srv, "/api/charts")
	require.Equal(t, http.StatusOK, rec.Code)

	var charts []httpadapter.ChartInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charts))
	ids := make([]string, len(charts))
	for i, c := range charts {
		ids[i] = c.ID
	}
	assert.Equal(t, chart.Default().IDs(), ids)
	assert.Equal(t, []string{"globaltemp"}, charts[0].Sources)
	assert.InDelta(t, 0.3, charts[0].Layout.Threshold, 0)
}

func TestSceneJSON(t *testing.T) {
	srv, metrics := newTestServer(nil)
	rec := get(srv, "/api/charts/globaltemp/scene?width=640&height=320")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var sc scene.Scene
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sc))
	assert.Equal(t, "globaltemp", sc.Chart)
	assert.InDelta(t, 640, sc.Width, 0)
	assert.False(t, sc.Empty())

	get(srv, "/api/charts/globaltemp/scene?width=640&height=320")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SceneCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SceneCache.WithLabelValues("hit")), 0)
}

func TestSceneBelowThresholdIsBlank(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(srv, "/api/charts/globaltemp/scene?ratio=0.1")
	require.Equal(t, http.StatusOK, rec.Code)

	var sc scene.Scene
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sc))
	assert.True(t, sc.Empty())
	assert.InDelta(t, 800, sc.Width, 0)
}

func TestSceneMidAnimation(t *testing.T) {
	srv, _ := newTestServer(nil)

	var start, final scene.Scene
	require.NoError(t, json.Unmarshal(get(srv, "/api/charts/globaltemp/scene?t=0s").Body.Bytes(), &start))
	require.NoError(t, json.Unmarshal(get(srv, "/api/charts/globaltemp/scene").Body.Bytes(), &final))
	assert.Equal(t, final.Count(), start.Count(), "animation changes attributes, not membership")
	assert.NotEqual(t, final, start)
}

func TestSceneSVG(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(srv, "/api/charts/globaltemp/scene.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg "))
}

func TestScenePNG(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(srv, "/api/charts/globaltemp/scene.png?width=300&height=200")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestCursor(t *testing.T) {
	srv, metrics := newTestServer(nil)

	rec := get(srv, "/api/charts/globaltemp/cursor?x=410&y=190")
	require.Equal(t, http.StatusOK, rec.Code)
	var hit httpadapter.CursorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hit))
	require.NotNil(t, hit.Cursor)
	assert.Equal(t, 2010, hit.Cursor.Record.Key)

	rec = get(srv, "/api/charts/globaltemp/cursor?x=5&y=5")
	var miss httpadapter.CursorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &miss))
	assert.Nil(t, miss.Cursor)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CursorLookups.WithLabelValues("globaltemp", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CursorLookups.WithLabelValues("globaltemp", "miss")), 0)
}

func TestChartErrors(t *testing.T) {
	srv, _ := newTestServer(nil)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown chart", "/api/charts/weather/scene", http.StatusNotFound},
		{"bad width", "/api/charts/globaltemp/scene?width=wide", http.StatusBadRequest},
		{"oversized", "/api/charts/globaltemp/scene.png?width=100000", http.StatusBadRequest},
		{"bad ratio", "/api/charts/globaltemp/scene?ratio=1.5", http.StatusBadRequest},
		{"bad elapsed", "/api/charts/globaltemp/scene?t=-1s", http.StatusBadRequest},
		{"bad pointer", "/api/charts/globaltemp/cursor?x=left", http.StatusBadRequest},
		{"data not loaded", "/api/charts/co2/scene", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(srv, tt.target)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCORSAndCompression(t *testing.T) {
	srv, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/charts", nil)
	req.Header.Set("Origin", "https://story.example")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://story.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var charts []httpadapter.ChartInfo
	require.NoError(t, json.NewDecoder(zr).Decode(&charts))
	assert.Len(t, charts, len(chart.Default().IDs()))
}

func TestSessionsThroughMiddleware(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	sessions := ws.NewHandler(chart.Default(), globalTemp(), slog.Default(), metrics, stage.WithAnimation(false))
	srv := httpadapter.NewServer(":0", &mockReadiness{}, slog.Default(), httpadapter.WithSessions(sessions))
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		sessions.Close()
		ts.Close()
	})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/charts/globaltemp"
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Accept-Encoding": {"gzip"}})
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "mount", "width": 800, "height": 400}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "intersect", "ratio": 1}))

	var m ws.Message
	require.NoError(t, conn.ReadJSON(&m))
	require.NotNil(t, m.Frame, m.Error)
	assert.Equal(t, stage.ModeStatic, m.Frame.Mode)
}
