package chart

import (
	"context"

	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
)

// Snapshot loads a chart's sources and renders it once at the given size,
// outside any stage. It backs the one-shot HTTP and CLI renders.
func (r *Registry) Snapshot(ctx context.Context, loader dataset.Loader, id string, dims domain.Dimensions, params Params) (Plot, error) {
	c, err := r.Get(id)
	if err != nil {
		return Plot{}, err
	}
	layout, err := r.Layout(id)
	if err != nil {
		return Plot{}, err
	}
	data, err := dataset.LoadAll(ctx, loader, c.Sources())
	if err != nil {
		return Plot{}, err
	}
	return c.Render(Input{
		Data:   data,
		Dims:   dims,
		Layout: layout,
		Params: params,
	})
}

// Sources returns every source the catalogue reads, once each, in display
// order.
func (r *Registry) Sources() []dataset.Source {
	var out []dataset.Source
	seen := make(map[string]bool)
	for _, c := range r.List() {
		for _, src := range c.Sources() {
			if !seen[src.Name] {
				seen[src.Name] = true
				out = append(out, src)
			}
		}
	}
	return out
}
