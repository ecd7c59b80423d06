package viewport

import (
	"sync"
	"time"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Element is anything with a rendered box. ok is false while the element is
// not attached to the page.
type Element interface {
	Box() (dims domain.Dimensions, ok bool)
}

// Box is a settable Element. Remote clients report their container size into
// one of these.
type Box struct {
	mu       sync.Mutex
	dims     domain.Dimensions
	attached bool
}

// NewBox returns a detached box.
func NewBox() *Box { return &Box{} }

// Set attaches the box with the given size.
func (b *Box) Set(d domain.Dimensions) {
	b.mu.Lock()
	b.dims = d.Clamp()
	b.attached = true
	b.mu.Unlock()
}

// Detach marks the element as gone.
func (b *Box) Detach() {
	b.mu.Lock()
	b.dims = domain.Dimensions{}
	b.attached = false
	b.mu.Unlock()
}

// Box implements Element.
func (b *Box) Box() (domain.Dimensions, bool) {
	if b == nil {
		return domain.Dimensions{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dims, b.attached
}

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithDebounce coalesces resize bursts: the observer re-measures once, d after
// the last resize. The mount-time measurement is never delayed.
func WithDebounce(d time.Duration, clock clockwork.Clock) ObserverOption {
	return func(o *Observer) {
		o.debounce = d
		if clock != nil {
			o.clock = clock
		}
	}
}

// Observer keeps an element's dimensions current and reports changes.
type Observer struct {
	el       Element
	src      ResizeSource
	clock    clockwork.Clock
	debounce time.Duration

	mu       sync.Mutex
	dims     domain.Dimensions
	onChange func(domain.Dimensions)
	cancel   func()
	timer    clockwork.Timer
	mounted  bool
	closed   bool
}

// NewObserver creates an unmounted observer for el.
func NewObserver(el Element, src ResizeSource, opts ...ObserverOption) *Observer {
	o := &Observer{el: el, src: src, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Mount measures the element synchronously, then subscribes to resize events.
// onChange runs after every measurement that changed the dimensions; it may be
// nil. Mount returns the first measurement.
func (o *Observer) Mount(onChange func(domain.Dimensions)) domain.Dimensions {
	o.mu.Lock()
	if o.mounted || o.closed {
		d := o.dims
		o.mu.Unlock()
		return d
	}
	o.mounted = true
	o.onChange = onChange
	o.dims = measure(o.el)
	d := o.dims
	o.mu.Unlock()

	if o.src != nil {
		cancel := o.src.Subscribe(o.resized)
		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			cancel()
			return d
		}
		o.cancel = cancel
		o.mu.Unlock()
	}
	return d
}

// Dimensions returns the last measurement.
func (o *Observer) Dimensions() domain.Dimensions {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dims
}

// Remeasure reads the element now and reports whether its size changed.
func (o *Observer) Remeasure() bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	d := measure(o.el)
	if d == o.dims {
		o.mu.Unlock()
		return false
	}
	o.dims = d
	fn := o.onChange
	o.mu.Unlock()

	if fn != nil {
		fn(d)
	}
	return true
}

func (o *Observer) resized() {
	if o.debounce <= 0 {
		o.Remeasure()
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = o.clock.AfterFunc(o.debounce, func() { o.Remeasure() })
}

// Close unsubscribes from resize events and drops any pending debounced
// measurement. It is safe to call more than once.
func (o *Observer) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	cancel := o.cancel
	o.cancel = nil
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.onChange = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func measure(el Element) domain.Dimensions {
	if el == nil {
		return domain.Dimensions{}
	}
	d, ok := el.Box()
	if !ok {
		return domain.Dimensions{}
	}
	return d.Clamp()
}
