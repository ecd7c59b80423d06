package http

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/climate-story/internal/cache"
	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/observability"
	"github.com/couchcryptid/climate-story/internal/render"
	"github.com/couchcryptid/climate-story/internal/scene"
)

const (
	defaultWidth  = 800
	defaultHeight = 400
	maxSide       = 4096
)

// errBadRequest marks query parameters that could not be used.
var errBadRequest = errors.New("bad request")

// ChartAPI renders charts on request. Rendered plots are cached by chart,
// size and params; datasets are cached by the loader behind it.
type ChartAPI struct {
	registry *chart.Registry
	loader   dataset.Loader
	metrics  *observability.Metrics
	logger   *slog.Logger
	plots    *cache.LRU[plotKey, chart.Plot]
}

type plotKey struct {
	chart         string
	width, height float64
	params        chart.Params
}

// sceneQuery is the parsed query string shared by every route. ratio is the
// visible fraction of the container and elapsed freezes the entrance
// animation at an offset; nil means fully visible and the final scene.
type sceneQuery struct {
	dims    domain.Dimensions
	params  chart.Params
	ratio   *float64
	elapsed *time.Duration
}

// NewChartAPI creates the API. cacheSize bounds the number of cached plots.
func NewChartAPI(reg *chart.Registry, loader dataset.Loader, metrics *observability.Metrics, logger *slog.Logger, cacheSize int) *ChartAPI {
	return &ChartAPI{
		registry: reg,
		loader:   loader,
		metrics:  metrics,
		logger:   logger,
		plots:    cache.New[plotKey, chart.Plot](cacheSize),
	}
}

// Register adds the API routes to mux.
func (a *ChartAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/charts", a.handleList)
	mux.HandleFunc("GET /api/charts/{id}/scene", a.handleScene)
	mux.HandleFunc("GET /api/charts/{id}/scene.svg", a.handleSVG)
	mux.HandleFunc("GET /api/charts/{id}/scene.png", a.handlePNG)
	mux.HandleFunc("GET /api/charts/{id}/cursor", a.handleCursor)
}

// ChartInfo describes one catalogue entry.
type ChartInfo struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Sources []string     `json:"sources"`
	Layout  chart.Layout `json:"layout"`
}

func (a *ChartAPI) handleList(w http.ResponseWriter, _ *http.Request) {
	charts := a.registry.List()
	out := make([]ChartInfo, 0, len(charts))
	for _, c := range charts {
		layout, err := a.registry.Layout(c.ID())
		if err != nil {
			a.fail(w, err)
			return
		}
		info := ChartInfo{ID: c.ID(), Title: c.Title(), Layout: layout}
		for _, src := range c.Sources() {
			info.Sources = append(info.Sources, src.Name)
		}
		out = append(out, info)
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (a *ChartAPI) handleScene(w http.ResponseWriter, r *http.Request) {
	sc, ok := a.scene(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, sc)
}

func (a *ChartAPI) handleSVG(w http.ResponseWriter, r *http.Request) {
	sc, ok := a.scene(w, r)
	if !ok {
		return
	}
	svg := render.NewSVG()
	if err := scene.Commit(svg, sc); err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = svg.WriteTo(w)
}

func (a *ChartAPI) handlePNG(w http.ResponseWriter, r *http.Request) {
	sc, ok := a.scene(w, r)
	if !ok {
		return
	}
	raster := render.NewRaster()
	if err := scene.Commit(raster, sc); err != nil {
		a.fail(w, err)
		return
	}
	// Encode before writing so an encoder failure can still become a 500.
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf); err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

// CursorResponse is the hover state at a pointer position. Cursor is null
// when the pointer is outside the plot or the chart has nothing drawn.
type CursorResponse struct {
	Chart  string        `json:"chart"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Cursor *cursor.State `json:"cursor"`
}

func (a *ChartAPI) handleCursor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		a.fail(w, err)
		return
	}
	x, errX := parseFloat(r.URL.Query(), "x", 0)
	y, errY := parseFloat(r.URL.Query(), "y", 0)
	if err := errors.Join(errX, errY); err != nil {
		a.fail(w, err)
		return
	}
	plot, err := a.plot(r, id, q)
	if err != nil {
		a.fail(w, err)
		return
	}

	resp := CursorResponse{Chart: id, X: x, Y: y}
	result := "miss"
	if plot.Resolver != nil {
		if st := plot.Resolver.Resolve(x, y); st != nil {
			resp.Cursor = st
			result = "hit"
		}
	}
	a.metrics.CursorLookups.WithLabelValues(id, result).Inc()
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

// scene resolves the request to the scene to send, writing the error
// response itself when it cannot.
func (a *ChartAPI) scene(w http.ResponseWriter, r *http.Request) (scene.Scene, bool) {
	id := r.PathValue("id")
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		a.fail(w, err)
		return scene.Scene{}, false
	}
	layout, err := a.registry.Layout(id)
	if err != nil {
		a.fail(w, err)
		return scene.Scene{}, false
	}
	// Below the visibility threshold nothing has been drawn yet.
	if q.ratio != nil && *q.ratio < layout.Threshold {
		return scene.New(id, q.dims, layout.Margin), true
	}
	plot, err := a.plot(r, id, q)
	if err != nil {
		a.fail(w, err)
		return scene.Scene{}, false
	}
	if q.elapsed != nil {
		return plot.Scene.At(*q.elapsed), true
	}
	return plot.Scene, true
}

func (a *ChartAPI) plot(r *http.Request, id string, q sceneQuery) (chart.Plot, error) {
	key := plotKey{chart: id, width: q.dims.Width, height: q.dims.Height, params: q.params}
	if p, ok := a.plots.Get(key); ok {
		a.metrics.SceneCache.WithLabelValues("hit").Inc()
		return p, nil
	}
	a.metrics.SceneCache.WithLabelValues("miss").Inc()

	p, err := a.registry.Snapshot(r.Context(), a.loader, id, q.dims, q.params)
	if err != nil {
		return chart.Plot{}, err
	}
	a.metrics.ScenesRendered.WithLabelValues(id, "static").Inc()
	a.metrics.ScenePrimitives.WithLabelValues(id).Observe(float64(p.Scene.Count()))
	a.plots.Put(key, p)
	return p, nil
}

func (a *ChartAPI) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, chart.ErrUnknownChart):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyDataset), errors.Is(err, domain.ErrNoData), errors.Is(err, fs.ErrNotExist):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		a.logger.Error("chart request failed", "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

func parseQuery(v url.Values) (sceneQuery, error) {
	width, errW := parseFloat(v, "width", defaultWidth)
	height, errH := parseFloat(v, "height", defaultHeight)
	year, errY := parseInt(v, "year")
	if err := errors.Join(errW, errH, errY); err != nil {
		return sceneQuery{}, err
	}
	if width > maxSide || height > maxSide {
		return sceneQuery{}, fmt.Errorf("%w: width and height must be at most %d", errBadRequest, maxSide)
	}
	q := sceneQuery{
		dims:   domain.Dimensions{Width: width, Height: height}.Clamp(),
		params: chart.Params{Year: year},
	}
	if v.Has("ratio") {
		ratio, err := parseFloat(v, "ratio", 1)
		if err != nil {
			return sceneQuery{}, err
		}
		if ratio < 0 || ratio > 1 {
			return sceneQuery{}, fmt.Errorf("%w: ratio must be in [0,1]", errBadRequest)
		}
		q.ratio = &ratio
	}
	if v.Has("t") {
		elapsed, err := time.ParseDuration(v.Get("t"))
		if err != nil || elapsed < 0 {
			return sceneQuery{}, fmt.Errorf("%w: t must be a non-negative duration", errBadRequest)
		}
		q.elapsed = &elapsed
	}
	return q, nil
}

func parseFloat(v url.Values, key string, fallback float64) (float64, error) {
	s := v.Get(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return f, nil
}

func parseInt(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
	}
	return n, nil
}
