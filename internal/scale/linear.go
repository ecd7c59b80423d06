package scale

import (
	"math"

	mmscale "github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/stats"
)

// Interval is an ordered pair of pixel coordinates. End may be less than Start
// (a y axis growing upward maps to [height, 0]).
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Span returns End - Start.
func (i Interval) Span() float64 { return i.End - i.Start }

// Domain is the closed data interval a continuous scale accepts.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Linear is a continuous scale.
//
// A degenerate domain (Min == Max, or a non-finite endpoint) maps every value
// to Range.Start and inverts every pixel to Domain.Min.
type Linear struct {
	Domain Domain   `json:"domain"`
	Range  Interval `json:"range"`
}

// NewLinear builds a linear scale from [min,max] onto [start,end].
func NewLinear(min, max, start, end float64) Linear {
	return Linear{Domain: Domain{Min: min, Max: max}, Range: Interval{Start: start, End: end}}
}

// Degenerate reports whether the domain has zero or undefined width.
func (s Linear) Degenerate() bool {
	d := s.Domain.Max - s.Domain.Min
	return d == 0 || math.IsNaN(d) || math.IsInf(d, 0)
}

// Map projects a domain value to pixel space.
func (s Linear) Map(v float64) float64 {
	if s.Degenerate() {
		return s.Range.Start
	}
	t := (v - s.Domain.Min) / (s.Domain.Max - s.Domain.Min)
	return s.Range.Start + t*s.Range.Span()
}

// Invert projects a pixel back to the domain.
func (s Linear) Invert(px float64) float64 {
	span := s.Range.Span()
	if s.Degenerate() || span == 0 {
		return s.Domain.Min
	}
	t := (px - s.Range.Start) / span
	return s.Domain.Min + t*(s.Domain.Max-s.Domain.Min)
}

// Contains reports whether px lies inside the range, inclusive.
func (s Linear) Contains(px float64) bool {
	lo, hi := s.Range.Start, s.Range.End
	if lo > hi {
		lo, hi = hi, lo
	}
	return px >= lo && px <= hi
}

// Ticks returns at most n "nice" tick values inside the domain.
func (s Linear) Ticks(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if s.Degenerate() {
		if math.IsNaN(s.Domain.Min) || math.IsInf(s.Domain.Min, 0) {
			return nil
		}
		return []float64{s.Domain.Min}
	}
	lo, hi := s.Domain.Min, s.Domain.Max
	if lo > hi {
		lo, hi = hi, lo
	}

	ls := mmscale.Linear{Min: lo, Max: hi}
	o := mmscale.TickOptions{Max: n, MinLevel: -1000, MaxLevel: 1000}
	level, ok := o.FindLevel(&ls, 0)
	if !ok {
		return nil
	}
	ticks, _ := ls.TicksAtLevel(level).([]float64)

	out := make([]float64, 0, len(ticks))
	for _, t := range ticks {
		if t >= lo-1e-9 && t <= hi+1e-9 {
			out = append(out, t)
		}
	}
	return out
}

// Extent returns the smallest and largest finite values, ignoring NaN.
func Extent(values []float64) (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	lo, hi = stats.Bounds(finite)
	return lo, hi, true
}
