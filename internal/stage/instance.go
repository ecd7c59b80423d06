package stage

import (
	"context"

	"github.com/google/uuid"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scene"
	"github.com/couchcryptid/climate-story/internal/viewport"
)

// instance is one mounted chart. All fields are owned by the Run goroutine.
type instance struct {
	id      uuid.UUID
	chart   chart.Chart
	layout  chart.Layout
	params  chart.Params
	surface scene.Surface

	box      *viewport.Box
	observer *viewport.Observer
	gate     *viewport.Gate
	animator *scene.Animator
	tracker  *cursor.Tracker

	data       chart.Data
	loaded     bool
	dims       domain.Dimensions
	cancelLoad context.CancelFunc

	drawn       bool
	stale       bool
	wantAnimate bool
	playGen     uint64
	seq         uint64
	unmounted   bool
}

func (s *Stage) mount(id uuid.UUID, c chart.Chart, layout chart.Layout, surface scene.Surface) {
	inst := &instance{
		id:       id,
		chart:    c,
		layout:   layout,
		surface:  surface,
		box:      viewport.NewBox(),
		gate:     viewport.NewGate(layout.Threshold, layout.ReplayOnReenter),
		animator: scene.NewAnimator(s.clock, s.interval),
		tracker:  cursor.NewTracker(nil),
	}
	inst.observer = viewport.NewObserver(inst.box, s.bus, viewport.WithDebounce(s.debounce, s.clock))
	inst.dims = inst.observer.Mount(func(d domain.Dimensions) {
		s.post(func() { s.resized(inst, d) })
	})
	s.instances[id] = inst
	s.metrics.ActiveInstances.Inc()

	ctx, cancel := context.WithCancel(s.base)
	inst.cancelLoad = cancel
	s.loading++
	go func() {
		data, err := dataset.LoadAll(ctx, s.loader, c.Sources())
		s.post(func() { s.loadDone(inst, data, err) })
	}()
	s.logger.Debug("chart mounted", "chart", c.ID(), "instance", id)
}

func (s *Stage) loadDone(inst *instance, data chart.Data, err error) {
	s.loading--
	if inst.unmounted {
		return
	}
	inst.cancelLoad()
	if err != nil {
		// The chart stays blank; a later remount retries.
		s.logger.Error("dataset load failed", "chart", inst.chart.ID(), "instance", inst.id, "error", err)
		return
	}
	inst.data = data
	inst.loaded = true
	s.invalidate(inst)
}

func (s *Stage) resized(inst *instance, d domain.Dimensions) {
	if inst.unmounted || d == inst.dims {
		return
	}
	inst.dims = d
	s.invalidate(inst)
}

func (s *Stage) intersect(inst *instance, ratio float64) {
	inView, rising := inst.gate.Observe(ratio)
	switch {
	case rising:
		s.metrics.GateRisingEdges.WithLabelValues(inst.chart.ID()).Inc()
		inst.wantAnimate = true
		s.invalidate(inst)
	case inView && (inst.stale || inst.wantAnimate || !inst.drawn):
		// An entrance that fired before the chart could draw is still owed.
		s.invalidate(inst)
	}
}

func (s *Stage) ready(inst *instance) bool {
	return inst.loaded && inst.dims.Measured()
}

// invalidate draws the instance if it can be drawn. A pending rising edge
// animates; anything else is a single redraw. Out of view, a drawn chart is
// only marked stale.
func (s *Stage) invalidate(inst *instance) {
	if !s.ready(inst) {
		return
	}
	if !inst.gate.InView() {
		if inst.drawn {
			inst.stale = true
		}
		return
	}
	if inst.wantAnimate {
		s.draw(inst, ModeAnimate)
		return
	}
	s.draw(inst, ModeRedraw)
}

func (s *Stage) draw(inst *instance, mode Mode) {
	plot, err := inst.chart.Render(chart.Input{
		Data:   inst.data,
		Dims:   inst.dims,
		Layout: inst.layout,
		Params: inst.params,
	})
	if err != nil {
		s.logger.Warn("render failed", "chart", inst.chart.ID(), "instance", inst.id, "error", err)
		return
	}
	inst.stale = false
	inst.wantAnimate = false
	inst.animator.Stop()
	inst.playGen++

	if mode == ModeAnimate && !s.animate {
		mode = ModeStatic
	}
	id := inst.chart.ID()
	s.metrics.ScenesRendered.WithLabelValues(id, string(mode)).Inc()
	s.metrics.ScenePrimitives.WithLabelValues(id).Observe(float64(plot.Scene.Count()))

	prev := inst.tracker.State()
	cur := inst.tracker.SetResolver(plot.Resolver)

	if mode == ModeAnimate {
		gen := inst.playGen
		inst.animator.Play(plot.Scene, func(frame scene.Scene, done bool) {
			s.post(func() {
				if inst.unmounted || gen != inst.playGen {
					return
				}
				s.commit(inst, frame, ModeAnimate, done)
			})
		})
	} else {
		s.commit(inst, plot.Scene, mode, true)
	}

	// Fresh scales move the marker under a pointer that did not move.
	if inst.drawn && (prev != nil || cur != nil) {
		s.emitCursor(inst, cur)
	}
}

func (s *Stage) commit(inst *instance, sc scene.Scene, mode Mode, done bool) {
	if inst.surface != nil {
		if err := scene.Commit(inst.surface, sc); err != nil {
			s.logger.Warn("commit failed", "chart", inst.chart.ID(), "instance", inst.id, "error", err)
		}
	}
	inst.drawn = true
	inst.seq++
	s.emit(Frame{
		InstanceID: inst.id,
		ChartID:    inst.chart.ID(),
		Seq:        inst.seq,
		Mode:       mode,
		Done:       done,
		Scene:      &sc,
	})
}

func (s *Stage) pointerMove(inst *instance, x, y float64) {
	st := inst.tracker.Move(x, y)
	if !inst.drawn {
		return
	}
	result := "miss"
	if st != nil {
		result = "hit"
	}
	s.metrics.CursorLookups.WithLabelValues(inst.chart.ID(), result).Inc()
	s.emitCursor(inst, st)
}

func (s *Stage) pointerLeave(inst *instance) {
	inst.tracker.Leave()
	if inst.drawn {
		s.emitCursor(inst, nil)
	}
}

func (s *Stage) emitCursor(inst *instance, st *cursor.State) {
	inst.seq++
	s.emit(Frame{
		InstanceID: inst.id,
		ChartID:    inst.chart.ID(),
		Seq:        inst.seq,
		Mode:       ModeCursor,
		Done:       true,
		Cursor:     st,
	})
}

// release tears an instance down: no timers, subscriptions or loads survive
// it and its surface is left blank.
func (s *Stage) release(inst *instance) {
	if inst.unmounted {
		return
	}
	inst.unmounted = true
	inst.animator.Stop()
	inst.playGen++
	inst.observer.Close()
	inst.gate.Close()
	inst.box.Detach()
	inst.tracker.Leave()
	inst.cancelLoad()
	if inst.surface != nil {
		inst.surface.Clear()
	}
	s.metrics.ActiveInstances.Dec()
	s.logger.Debug("chart unmounted", "chart", inst.chart.ID(), "instance", inst.id)
}
