package scene

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultFrameInterval is the step between animation frames.
const DefaultFrameInterval = 50 * time.Millisecond

// FrameFunc receives each animation frame. done is true exactly once, on the
// final frame, which is the target scene itself.
type FrameFunc func(frame Scene, done bool)

// Animator plays a scene's entrance animation on a clock. One Animator
// belongs to one chart instance; starting a new animation cancels the
// previous one.
//
// Frames are delivered while the animator's lock is held, so a FrameFunc
// must not call back into the Animator. Once Stop returns no further frames
// are delivered.
type Animator struct {
	clock    clockwork.Clock
	interval time.Duration

	mu      sync.Mutex
	gen     uint64
	timer   clockwork.Timer
	running bool
}

// NewAnimator creates an idle animator. A nil clock uses real time; a
// non-positive interval uses DefaultFrameInterval.
func NewAnimator(clock clockwork.Clock, interval time.Duration) *Animator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Animator{clock: clock, interval: interval}
}

// Play delivers the first frame synchronously, then one frame per interval
// until the entrance completes. A scene without transitions is delivered once
// with done set.
func (a *Animator) Play(target Scene, fn FrameFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancelLocked()
	a.gen++
	total := target.Duration()
	if total <= 0 {
		fn(target, true)
		return
	}

	gen := a.gen
	start := a.clock.Now()
	a.running = true
	fn(target.At(0), false)
	a.scheduleLocked(gen, start, total, target, fn)
}

func (a *Animator) scheduleLocked(gen uint64, start time.Time, total time.Duration, target Scene, fn FrameFunc) {
	a.timer = a.clock.AfterFunc(a.interval, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if gen != a.gen || !a.running {
			return
		}
		elapsed := a.clock.Since(start)
		if elapsed >= total {
			a.running = false
			a.timer = nil
			fn(target, true)
			return
		}
		fn(target.At(elapsed), false)
		a.scheduleLocked(gen, start, total, target, fn)
	})
}

// Running reports whether an animation is in progress.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Stop cancels the current animation without delivering its final frame.
func (a *Animator) Stop() {
	a.mu.Lock()
	a.cancelLocked()
	a.gen++
	a.mu.Unlock()
}

func (a *Animator) cancelLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.running = false
}
