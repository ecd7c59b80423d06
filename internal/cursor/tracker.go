package cursor

import "sync"

// Phase is the tracker's state.
type Phase int

const (
	Idle Phase = iota
	Hovering
)

func (p Phase) String() string {
	if p == Hovering {
		return "hovering"
	}
	return "idle"
}

// Tracker holds one chart's cursor. Move re-resolves on every pointer event;
// Leave returns to idle.
type Tracker struct {
	mu       sync.Mutex
	resolver Resolver
	state    *State
	pointer  *[2]float64
}

// NewTracker starts idle. r may be nil until the chart has scales.
func NewTracker(r Resolver) *Tracker {
	return &Tracker{resolver: r}
}

// SetResolver swaps in a resolver built from fresh scales and re-resolves the
// last pointer position, so the marker never sits on stale geometry.
func (t *Tracker) SetResolver(r Resolver) *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resolver = r
	if t.pointer == nil {
		t.state = nil
		return nil
	}
	t.state = t.resolveLocked(t.pointer[0], t.pointer[1])
	return t.state
}

// Move records a pointer position and returns the resolved cursor, or nil
// when nothing is under it.
func (t *Tracker) Move(px, py float64) *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pointer = &[2]float64{px, py}
	t.state = t.resolveLocked(px, py)
	return t.state
}

// Leave clears the cursor.
func (t *Tracker) Leave() {
	t.mu.Lock()
	t.pointer = nil
	t.state = nil
	t.mu.Unlock()
}

// State returns the current cursor, or nil when idle.
func (t *Tracker) State() *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Phase reports whether a record is under the pointer.
func (t *Tracker) Phase() Phase {
	if t.State() == nil {
		return Idle
	}
	return Hovering
}

func (t *Tracker) resolveLocked(px, py float64) *State {
	if t.resolver == nil {
		return nil
	}
	return t.resolver.Resolve(px, py)
}
