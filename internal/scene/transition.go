package scene

import (
	"encoding/json"
	"time"
)

// Ease names an easing curve.
type Ease string

const (
	EaseLinear     Ease = "linear"
	EaseCubicOut   Ease = "cubic-out"
	EaseCubicInOut Ease = "cubic-in-out"
)

// Apply maps linear progress t in [0,1] onto the curve.
func (e Ease) Apply(t float64) float64 {
	t = clamp01(t)
	switch e {
	case EaseCubicOut:
		u := 1 - t
		return 1 - u*u*u
	case EaseCubicInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		u := -2*t + 2
		return 1 - u*u*u/2
	default:
		return t
	}
}

// Reveal names how a primitive enters.
type Reveal string

const (
	// RevealGrow scales bars up from their base and circles from zero radius.
	RevealGrow Reveal = "grow"
	// RevealDash draws a stroked path along its length.
	RevealDash Reveal = "dash"
	// RevealClip uncovers a filled path left to right.
	RevealClip Reveal = "clip"
)

// Transition is an entrance animation.
type Transition struct {
	Delay    time.Duration
	Duration time.Duration
	Ease     Ease
	Reveal   Reveal
}

// Stagger builds the per-index entrance used by bar charts: bar i starts
// i*step after the first.
func Stagger(i int, step, duration time.Duration, ease Ease) *Transition {
	return &Transition{Delay: time.Duration(i) * step, Duration: duration, Ease: ease, Reveal: RevealGrow}
}

// End returns the time at which the transition completes.
func (t *Transition) End() time.Duration {
	if t == nil {
		return 0
	}
	return t.Delay + t.Duration
}

// Progress returns the eased completion at elapsed. A nil transition is
// always complete.
func (t *Transition) Progress(elapsed time.Duration) float64 {
	if t == nil || elapsed >= t.End() {
		return 1
	}
	if elapsed <= t.Delay {
		return 0
	}
	if t.Duration <= 0 {
		return 1
	}
	return t.Ease.Apply(float64(elapsed-t.Delay) / float64(t.Duration))
}

type transitionJSON struct {
	DelayMS    int64  `json:"delay_ms"`
	DurationMS int64  `json:"duration_ms"`
	Ease       Ease   `json:"ease,omitempty"`
	Reveal     Reveal `json:"reveal,omitempty"`
}

// MarshalJSON writes durations as milliseconds for browser clients.
func (t Transition) MarshalJSON() ([]byte, error) {
	return json.Marshal(transitionJSON{
		DelayMS:    t.Delay.Milliseconds(),
		DurationMS: t.Duration.Milliseconds(),
		Ease:       t.Ease,
		Reveal:     t.Reveal,
	})
}

func (t *Transition) UnmarshalJSON(data []byte) error {
	var raw transitionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transition{
		Delay:    time.Duration(raw.DelayMS) * time.Millisecond,
		Duration: time.Duration(raw.DurationMS) * time.Millisecond,
		Ease:     raw.Ease,
		Reveal:   raw.Reveal,
	}
	return nil
}

