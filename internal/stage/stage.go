package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/observability"
	"github.com/couchcryptid/climate-story/internal/scene"
	"github.com/couchcryptid/climate-story/internal/viewport"
)

// ErrClosed is returned once the stage has stopped.
var ErrClosed = errors.New("stage closed")

// Option configures a Stage.
type Option func(*Stage)

// WithClock sets the clock for animations and resize debouncing.
func WithClock(c clockwork.Clock) Option {
	return func(s *Stage) { s.clock = c }
}

// WithDebounce delays re-measurement until resizes settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Stage) { s.debounce = d }
}

// WithFrameInterval sets the step between animation frames.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Stage) { s.interval = d }
}

// WithAnimation toggles entrance animations. When disabled a rising edge
// emits the final scene as one static frame.
func WithAnimation(on bool) Option {
	return func(s *Stage) { s.animate = on }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Stage) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stage) { s.logger = l }
}

// Stage owns the chart instances of one viewer. Every exported method may be
// called from any goroutine; the work itself happens on the goroutine running
// Run, in the order the calls were made.
type Stage struct {
	registry *chart.Registry
	loader   dataset.Loader
	emit     EmitFunc
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	debounce time.Duration
	interval time.Duration
	animate  bool
	bus      *viewport.ResizeBus

	base context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool

	// Owned by the Run goroutine.
	instances map[uuid.UUID]*instance
	loading   int
	waiters   []chan struct{}
}

// New creates a stage. Call Run to start processing events.
func New(reg *chart.Registry, loader dataset.Loader, emit EmitFunc, opts ...Option) *Stage {
	s := &Stage{
		registry:  reg,
		loader:    loader,
		emit:      emit,
		logger:    slog.Default(),
		clock:     clockwork.NewRealClock(),
		interval:  scene.DefaultFrameInterval,
		animate:   true,
		bus:       viewport.NewResizeBus(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		instances: make(map[uuid.UUID]*instance),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		// Unregistered, so stages built without metrics never collide.
		s.metrics = observability.NewMetricsForTesting()
	}
	if s.emit == nil {
		s.emit = func(Frame) {}
	}
	s.base, s.stop = context.WithCancel(context.Background())
	return s
}

// Bus returns the stage's shared resize bus.
func (s *Stage) Bus() *viewport.ResizeBus { return s.bus }

// Run processes events until ctx is cancelled, then unmounts every instance.
func (s *Stage) Run(ctx context.Context) {
	defer s.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.drain()
		}
	}
}

func (s *Stage) drain() {
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()
		if len(batch) == 0 {
			break
		}
		for _, fn := range batch {
			fn()
		}
	}
	if s.loading == 0 {
		for _, w := range s.waiters {
			close(w)
		}
		s.waiters = nil
	}
}

func (s *Stage) shutdown() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
	close(s.done)

	s.stop()
	for id, inst := range s.instances {
		s.release(inst)
		delete(s.instances, id)
	}
	for _, w := range s.waiters {
		close(w)
	}
	s.waiters = nil
}

// post queues fn for the Run goroutine. It reports false once the stage has
// stopped.
func (s *Stage) post(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Sync blocks until every event posted before it and every in-flight
// dataset load has been applied. Animation frames still scheduled on the
// clock are not waited for.
func (s *Stage) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if !s.post(func() { s.waiters = append(s.waiters, done) }) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mount adds a chart instance drawing onto surface, which may be nil when the
// caller only consumes frames. The chart id is checked immediately; dataset
// loading starts once the stage picks the mount up.
func (s *Stage) Mount(chartID string, surface scene.Surface) (uuid.UUID, error) {
	c, err := s.registry.Get(chartID)
	if err != nil {
		return uuid.Nil, err
	}
	layout, err := s.registry.Layout(chartID)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	if !s.post(func() { s.mount(id, c, layout, surface) }) {
		return uuid.Nil, ErrClosed
	}
	return id, nil
}

// Resize reports a new container size for an instance.
func (s *Stage) Resize(id uuid.UUID, d domain.Dimensions) error {
	return s.with(id, func(inst *instance) {
		inst.box.Set(d)
		s.bus.Publish()
		// Without debounce the observers have already re-measured; apply
		// the change now so it lands before any later event.
		for _, other := range s.instances {
			s.resized(other, other.observer.Dimensions())
		}
	})
}

// Intersect reports the visible fraction of an instance's container.
func (s *Stage) Intersect(id uuid.UUID, ratio float64) error {
	return s.with(id, func(inst *instance) { s.intersect(inst, ratio) })
}

// PointerMove reports a pointer position in container pixels.
func (s *Stage) PointerMove(id uuid.UUID, x, y float64) error {
	return s.with(id, func(inst *instance) { s.pointerMove(inst, x, y) })
}

// PointerLeave reports that the pointer left the container.
func (s *Stage) PointerLeave(id uuid.UUID) error {
	return s.with(id, func(inst *instance) { s.pointerLeave(inst) })
}

// SetParams changes the viewer selection of an instance.
func (s *Stage) SetParams(id uuid.UUID, p chart.Params) error {
	return s.with(id, func(inst *instance) {
		inst.params = p
		s.invalidate(inst)
	})
}

// Unmount removes an instance. Nothing is emitted for it afterwards.
func (s *Stage) Unmount(id uuid.UUID) error {
	return s.with(id, func(inst *instance) {
		s.release(inst)
		delete(s.instances, id)
	})
}

// with posts fn for the named instance. Events for unknown ids are logged and
// dropped on the stage goroutine, since a mount may still be queued.
func (s *Stage) with(id uuid.UUID, fn func(*instance)) error {
	ok := s.post(func() {
		inst, found := s.instances[id]
		if !found {
			s.logger.Debug("event for unknown instance", "instance", id)
			return
		}
		fn(inst)
	})
	if !ok {
		return fmt.Errorf("instance %s: %w", id, ErrClosed)
	}
	return nil
}
