package viewport

import (
	"math"
	"sync"
)

// Gate turns intersection ratios into an in-view flag.
//
// The flag is true while ratio >= Threshold. Observe reports a rising edge
// the first time the flag turns on; with ReplayOnReenter every off-to-on
// transition is a rising edge.
type Gate struct {
	Threshold       float64
	ReplayOnReenter bool

	mu     sync.Mutex
	inView bool
	fired  bool
	closed bool
}

// NewGate clamps threshold into [0,1].
func NewGate(threshold float64, replay bool) *Gate {
	switch {
	case math.IsNaN(threshold) || threshold < 0:
		threshold = 0
	case threshold > 1:
		threshold = 1
	}
	return &Gate{Threshold: threshold, ReplayOnReenter: replay}
}

// Observe feeds one intersection ratio. A NaN ratio means the element does
// not exist and reads as out of view.
func (g *Gate) Observe(ratio float64) (inView, rising bool) {
	if g == nil {
		return false, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false, false
	}

	now := !math.IsNaN(ratio) && ratio > 0 && ratio >= g.Threshold
	if now && !g.inView {
		rising = !g.fired || g.ReplayOnReenter
		g.fired = true
	}
	g.inView = now
	return now, rising
}

// InView returns the current flag.
func (g *Gate) InView() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inView && !g.closed
}

// Fired reports whether the gate has ever produced a rising edge.
func (g *Gate) Fired() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

// Close stops observation. Later calls to Observe report out of view.
func (g *Gate) Close() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.closed = true
	g.inView = false
	g.mu.Unlock()
}
