// Package chart holds the catalogue of scrollytelling charts.
//
// Every chart is a pure function from loaded data, container dimensions and
// layout to a scene plus a cursor resolver built from the same scales, so the
// hover marker can never drift from what was drawn.
package chart

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// ErrUnknownChart is returned for chart ids that are not registered.
var ErrUnknownChart = errors.New("unknown chart")

// Data maps source name to loaded series.
type Data map[string]domain.Series

// Params are viewer selections that change what a chart shows.
type Params struct {
	// Year selects the snapshot year for per-country charts. Zero means the
	// earliest year in the data.
	Year int `json:"year,omitempty"`
}

// Input is everything a render needs.
type Input struct {
	Data   Data
	Dims   domain.Dimensions
	Layout Layout
	Params Params
}

// Plot is one render result.
type Plot struct {
	Scene    scene.Scene
	Resolver cursor.Resolver
}

// Chart is one entry in the catalogue.
type Chart interface {
	ID() string
	Title() string
	Sources() []dataset.Source
	DefaultLayout() Layout
	// Render returns ErrNoData when a source is missing. Unmeasured or
	// degenerate geometry yields an empty scene and a nil resolver.
	Render(in Input) (Plot, error)
}

// requireSeries returns the named series or ErrNoData.
func requireSeries(d Data, name string) (domain.Series, error) {
	s, ok := d[name]
	if !ok || s.Empty() {
		return domain.Series{}, fmt.Errorf("%s: %w", name, domain.ErrNoData)
	}
	return s, nil
}

// Registry resolves chart ids and carries layout overrides.
type Registry struct {
	mu        sync.RWMutex
	charts    map[string]Chart
	order     []string
	overrides map[string]LayoutOverride
}

// NewRegistry registers charts in display order.
func NewRegistry(charts ...Chart) *Registry {
	r := &Registry{charts: make(map[string]Chart, len(charts)), overrides: map[string]LayoutOverride{}}
	for _, c := range charts {
		if _, dup := r.charts[c.ID()]; !dup {
			r.order = append(r.order, c.ID())
		}
		r.charts[c.ID()] = c
	}
	return r
}

// Default returns the full catalogue in page order.
func Default() *Registry {
	return NewRegistry(
		GlobalTemp{},
		Anomalies{},
		CO2{},
		IceSheet{},
		SeaLevel{},
		Contributions{},
		Cluster{},
	)
}

// Get looks up a chart by id.
func (r *Registry) Get(id string) (Chart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.charts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, id)
	}
	return c, nil
}

// IDs returns chart ids in display order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// List returns charts in display order.
func (r *Registry) List() []Chart {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Chart, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.charts[id])
	}
	return out
}

// Override replaces the layout override for the given charts. Unknown ids are
// rejected so a typo in a layout file is not silently ignored.
func (r *Registry) Override(overrides map[string]LayoutOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range overrides {
		if _, ok := r.charts[id]; !ok {
			return fmt.Errorf("layout override: %w: %q", ErrUnknownChart, id)
		}
	}
	for id, o := range overrides {
		r.overrides[id] = o
	}
	return nil
}

// Layout returns the chart's default layout with any override applied.
func (r *Registry) Layout(id string) (Layout, error) {
	c, err := r.Get(id)
	if err != nil {
		return Layout{}, err
	}
	r.mu.RLock()
	o, ok := r.overrides[id]
	r.mu.RUnlock()
	l := c.DefaultLayout()
	if ok {
		l = o.Apply(l)
	}
	return l, nil
}
