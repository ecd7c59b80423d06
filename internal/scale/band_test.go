package scale

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func years(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, fmt.Sprint(y))
	}
	return out
}

func TestBand_CoversSpan(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10, 85} {
		for _, p := range []float64{0, 0.1, 0.2, 0.5, 0.9} {
			t.Run(fmt.Sprintf("n=%d p=%g", n, p), func(t *testing.T) {
				r := Interval{Start: 0, End: 720}
				b := NewBand(years(1940, 1940+n-1), r, p)

				widths := float64(n) * b.Bandwidth()
				inner := float64(n-1) * b.Step() * p
				outer := 2 * b.Step() * p
				assert.InDelta(t, r.Span(), widths+inner+outer, 1e-6)

				last := b.At(n-1) + b.Bandwidth()
				assert.InDelta(t, r.End-b.Step()*p, last, 1e-6)
			})
		}
	}
}

func TestBand_NoOuterPaddingFillsRange(t *testing.T) {
	b := NewBandOuter([]string{"a", "b", "c", "d"}, Interval{Start: 10, End: 410}, 0.25, 0)
	sum := 4*b.Bandwidth() + 3*b.Step()*0.25
	assert.InDelta(t, 400, sum, 1e-9)

	x, ok := b.Map("a")
	require.True(t, ok)
	assert.InDelta(t, 10, x, 1e-9)
}

func TestBand_Stable(t *testing.T) {
	cats := years(2000, 2020)
	b1 := NewBand(cats, Interval{Start: 0, End: 500}, 0.2)
	b2 := NewBand(cats, Interval{Start: 0, End: 500}, 0.2)
	for _, c := range cats {
		x1, _ := b1.Map(c)
		x2, _ := b2.Map(c)
		assert.Equal(t, x1, x2)
	}

	_, ok := b1.Map("1999")
	assert.False(t, ok)
}

func TestBand_Centers(t *testing.T) {
	b := NewBand([]string{"a", "b"}, Interval{Start: 0, End: 100}, 0)
	assert.Equal(t, []float64{25, 75}, b.Centers())
	c, ok := b.Center("b")
	require.True(t, ok)
	assert.Equal(t, 75.0, c)
}

func TestBand_Reverse(t *testing.T) {
	b := NewBand([]string{"a", "b"}, Interval{Start: 100, End: 0}, 0)
	assert.Equal(t, []float64{75, 25}, b.Centers())
}

func TestBand_Empty(t *testing.T) {
	b := NewBand(nil, Interval{Start: 0, End: 100}, 0.2)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0.0, b.Bandwidth())
	assert.Empty(t, b.Centers())
}

func TestThin(t *testing.T) {
	cats := years(1940, 2024)
	thinned := Thin(cats, 10)
	assert.Len(t, thinned, 9)
	assert.Equal(t, "1940", thinned[0])
	assert.Equal(t, "2020", thinned[8])
	assert.Equal(t, cats, Thin(cats, 1))
}
