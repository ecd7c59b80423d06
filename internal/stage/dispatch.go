package stage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/domain"
)

// Dispatcher maps viewport events for one viewer onto a Stage. Charts are
// addressed by id; any event for a chart that is not mounted mounts it first.
// A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	stage  *Stage
	charts map[string]uuid.UUID
}

// NewDispatcher binds a dispatcher to s.
func NewDispatcher(s *Stage) *Dispatcher {
	return &Dispatcher{stage: s, charts: make(map[string]uuid.UUID)}
}

// Apply forwards ev to the chart instance it addresses. Unmounting a chart
// that is not mounted is a no-op.
func (d *Dispatcher) Apply(ev domain.ViewportEvent) error {
	if ev.Type == domain.EventUnmount {
		id, ok := d.charts[ev.Chart]
		if !ok {
			return nil
		}
		delete(d.charts, ev.Chart)
		return d.stage.Unmount(id)
	}

	id, ok := d.charts[ev.Chart]
	if !ok {
		var err error
		id, err = d.stage.Mount(ev.Chart, nil)
		if err != nil {
			return err
		}
		d.charts[ev.Chart] = id
	}

	switch ev.Type {
	case domain.EventMount:
		if ev.Width > 0 || ev.Height > 0 {
			return d.stage.Resize(id, ev.Dimensions())
		}
		return nil
	case domain.EventResize:
		return d.stage.Resize(id, ev.Dimensions())
	case domain.EventIntersect:
		return d.stage.Intersect(id, ev.Ratio)
	case domain.EventPointerMove:
		return d.stage.PointerMove(id, ev.X, ev.Y)
	case domain.EventPointerLeave:
		return d.stage.PointerLeave(id)
	case domain.EventParams:
		return d.stage.SetParams(id, chart.Params{Year: ev.Year})
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidEvent, ev.Type)
	}
}

// Mounted returns the number of charts currently mounted.
func (d *Dispatcher) Mounted() int { return len(d.charts) }

// Instance returns the instance id of a mounted chart.
func (d *Dispatcher) Instance(chartID string) (uuid.UUID, bool) {
	id, ok := d.charts[chartID]
	return id, ok
}
