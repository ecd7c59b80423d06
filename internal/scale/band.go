package scale

import "math"

// Band assigns each category an equal-width slot along a pixel interval.
//
// Inner padding is the fraction of each step left empty between bands; outer
// padding is the gap before the first and after the last band, in units of
// step. NewBand sets both to the same fraction.
type Band struct {
	categories []string
	index      map[string]int
	rng        Interval
	inner      float64
	outer      float64

	step      float64
	bandwidth float64
	start     float64
}

// NewBand builds a banded scale. Padding is clamped to [0, 1).
func NewBand(categories []string, r Interval, padding float64) Band {
	return NewBandOuter(categories, r, padding, padding)
}

// NewBandOuter builds a banded scale with independent inner and outer padding.
func NewBandOuter(categories []string, r Interval, inner, outer float64) Band {
	b := Band{
		categories: append([]string(nil), categories...),
		index:      make(map[string]int, len(categories)),
		rng:        r,
		inner:      clampPadding(inner),
		outer:      math.Max(0, outer),
	}
	for i, c := range b.categories {
		if _, dup := b.index[c]; !dup {
			b.index[c] = i
		}
	}
	b.rescale()
	return b
}

func clampPadding(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p >= 1 {
		return 0.999
	}
	return p
}

func (b *Band) rescale() {
	n := float64(len(b.categories))
	if n == 0 {
		return
	}
	lo, hi := b.rng.Start, b.rng.End
	reverse := hi < lo
	if reverse {
		lo, hi = hi, lo
	}
	b.step = (hi - lo) / math.Max(1, n-b.inner+2*b.outer)
	b.start = lo + b.step*b.outer
	b.bandwidth = b.step * (1 - b.inner)
	if reverse {
		// Walk backwards from the high end so the first category sits at Start.
		b.start = hi - b.step*b.outer - b.bandwidth
		b.step = -b.step
	}
}

// Categories returns the domain in slot order.
func (b Band) Categories() []string { return append([]string(nil), b.categories...) }

// Range returns the pixel interval the bands span.
func (b Band) Range() Interval { return b.rng }

// Contains reports whether px lies inside the range, inclusive.
func (b Band) Contains(px float64) bool {
	lo, hi := b.rng.Start, b.rng.End
	if lo > hi {
		lo, hi = hi, lo
	}
	return px >= lo && px <= hi
}

// Len returns the number of categories.
func (b Band) Len() int { return len(b.categories) }

// Bandwidth returns the width of one band.
func (b Band) Bandwidth() float64 { return b.bandwidth }

// Step returns the distance between the starts of adjacent bands.
func (b Band) Step() float64 { return math.Abs(b.step) }

// Index returns the slot of a category.
func (b Band) Index(category string) (int, bool) {
	i, ok := b.index[category]
	return i, ok
}

// At returns the start of band i.
func (b Band) At(i int) float64 {
	return b.start + float64(i)*b.step
}

// Map returns the start of the category's band.
func (b Band) Map(category string) (float64, bool) {
	i, ok := b.index[category]
	if !ok {
		return 0, false
	}
	return b.At(i), true
}

// Center returns the middle of the category's band.
func (b Band) Center(category string) (float64, bool) {
	x, ok := b.Map(category)
	if !ok {
		return 0, false
	}
	return x + b.bandwidth/2, true
}

// Centers returns the band midpoints in slot order.
func (b Band) Centers() []float64 {
	out := make([]float64, len(b.categories))
	for i := range b.categories {
		out[i] = b.At(i) + b.bandwidth/2
	}
	return out
}

// Thin returns every stride-th category starting with the first. A stride
// below 2 keeps them all.
func (b Band) Thin(stride int) []string {
	return Thin(b.categories, stride)
}

// Thin keeps every stride-th element of items.
func Thin[T any](items []T, stride int) []T {
	if stride < 2 {
		return append([]T(nil), items...)
	}
	out := make([]T, 0, len(items)/stride+1)
	for i := 0; i < len(items); i += stride {
		out = append(out, items[i])
	}
	return out
}
