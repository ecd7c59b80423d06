package scene

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameLog struct {
	mu     sync.Mutex
	frames []Scene
	done   int
}

func (l *frameLog) record(sc Scene, done bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, sc)
	if done {
		l.done++
	}
}

func (l *frameLog) snapshot() ([]Scene, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Scene(nil), l.frames...), l.done
}

func growingBar() Scene {
	sc := New("bar", domain.Dimensions{Width: 200, Height: 200}, domain.Margin{})
	sc.Add("bars", Rect{X: 0, Y: 0, W: 10, H: 100, Anim: &Transition{Duration: 250 * time.Millisecond, Ease: EaseLinear, Reveal: RevealGrow}})
	return sc
}

func TestAnimator_StepsToTarget(t *testing.T) {
	clock := clockwork.NewFakeClock()
	anim := NewAnimator(clock, 100*time.Millisecond)
	target := growingBar()
	var log frameLog

	anim.Play(target, log.record)
	frames, _ := log.snapshot()
	require.Len(t, frames, 1, "first frame is synchronous")
	assert.True(t, anim.Running())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(100 * time.Millisecond)
		want := i + 2
		require.Eventually(t, func() bool {
			f, _ := log.snapshot()
			return len(f) == want
		}, time.Second, time.Millisecond)
	}

	frames, done := log.snapshot()
	assert.Equal(t, 1, done)
	assert.False(t, anim.Running())
	if diff := cmp.Diff(target, frames[len(frames)-1]); diff != "" {
		t.Errorf("final frame differs from target (-want +got):\n%s", diff)
	}
	mid := frames[1].Layers[0].Items[0].(Rect)
	assert.InDelta(t, 40, mid.H, 1e-9)
}

func TestAnimator_StopCancelsPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	anim := NewAnimator(clock, 100*time.Millisecond)
	var log frameLog

	anim.Play(growingBar(), log.record)
	anim.Stop()
	clock.Advance(time.Second)
	time.Sleep(10 * time.Millisecond)

	frames, done := log.snapshot()
	assert.Len(t, frames, 1)
	assert.Equal(t, 0, done)
	assert.False(t, anim.Running())
}

func TestAnimator_NoTransitions(t *testing.T) {
	anim := NewAnimator(clockwork.NewFakeClock(), 0)
	sc := New("static", domain.Dimensions{Width: 10, Height: 10}, domain.Margin{})
	sc.Add("points", Circle{CX: 1, CY: 1, R: 2})

	var log frameLog
	anim.Play(sc, log.record)
	frames, done := log.snapshot()
	require.Len(t, frames, 1)
	assert.Equal(t, 1, done)
	assert.False(t, anim.Running())
}

func TestAnimator_ReplayCancelsPrevious(t *testing.T) {
	clock := clockwork.NewFakeClock()
	anim := NewAnimator(clock, 100*time.Millisecond)
	var first, second frameLog

	anim.Play(growingBar(), first.record)
	anim.Play(growingBar(), second.record)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(100 * time.Millisecond)
	}
	require.Eventually(t, func() bool {
		_, d := second.snapshot()
		return d == 1
	}, time.Second, time.Millisecond)

	f, d := first.snapshot()
	assert.Len(t, f, 1)
	assert.Equal(t, 0, d)
}
