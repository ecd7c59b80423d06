package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(year int, values ...float64) []Record {
	out := make([]Record, len(values))
	for i, v := range values {
		out[i] = Record{Key: year, Label: monthName(i), Value: v}
	}
	return out
}

func monthName(i int) string {
	return [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}[i%12]
}

func TestGroupByKey(t *testing.T) {
	var recs []Record
	recs = append(recs, monthly(1940, -0.2, 0.1, -0.5)...)
	recs = append(recs, monthly(1941, 0.3)...)
	recs = append(recs, monthly(1942, 0.4, 0.8)...)
	s := NewSeries("anomalies", recs)

	groups := GroupByKey(s)
	require.Len(t, groups, 3)

	assert.Equal(t, 1940, groups[0].Key)
	assert.InDelta(t, -0.5, groups[0].Min, 1e-9)
	assert.InDelta(t, 0.1, groups[0].Max, 1e-9)
	assert.InDelta(t, -0.2, groups[0].Mean, 1e-9)
	assert.Equal(t, 3, groups[0].Count)

	assert.InDelta(t, 0.3, groups[1].Mean, 1e-9)
	assert.InDelta(t, 0.6, groups[2].Mean, 1e-9)
}

func TestGroupByKey_Invariants(t *testing.T) {
	recs := []Record{
		{Key: 2001, Value: 3}, {Key: 2000, Value: 1}, {Key: 2000, Value: 2},
		{Key: 2003, Value: -4}, {Key: 2003, Value: 0.25}, {Key: 2003, Value: 9},
		{Key: 2002, Value: 1e-9}, {Key: 2002, Value: 1e-9},
	}
	s := NewSeries("mixed", recs)
	require.True(t, s.Sorted())

	groups := GroupByKey(s)

	keys := make([]int, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
		assert.LessOrEqual(t, g.Min, g.Mean, "key %d", g.Key)
		assert.LessOrEqual(t, g.Mean, g.Max, "key %d", g.Key)
	}
	assert.Equal(t, s.Keys(), keys)
}

func TestGroupByKey_ExcludesNaN(t *testing.T) {
	s := NewSeries("sealevel", []Record{
		{Key: 1990, Value: math.NaN()},
		{Key: 1990, Value: 4},
		{Key: 1991, Value: math.NaN()},
		{Key: 1992, Value: 2},
		{Key: 1992, Value: math.Inf(1)},
	})

	groups := GroupByKey(s)
	require.Len(t, groups, 2, "all-NaN key 1991 is dropped")
	assert.Equal(t, GroupedStat{Key: 1990, Min: 4, Max: 4, Mean: 4, Count: 1}, groups[0])
	assert.Equal(t, GroupedStat{Key: 1992, Min: 2, Max: 2, Mean: 2, Count: 1}, groups[1])
}

func TestGroupByKey_Empty(t *testing.T) {
	assert.Empty(t, GroupByKey(Series{}))
}

func TestStatExtent(t *testing.T) {
	_, _, ok := StatExtent(nil)
	assert.False(t, ok)

	lo, hi, ok := StatExtent([]GroupedStat{{Min: -2, Max: 1}, {Min: -1, Max: 5}})
	require.True(t, ok)
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 5.0, hi)
}

func TestSeries_Unique(t *testing.T) {
	assert.True(t, NewSeries("", []Record{{Key: 1}, {Key: 2}}).Unique())
	assert.False(t, NewSeries("", []Record{{Key: 1}, {Key: 1}}).Unique())
}

func TestDimensions_Inset(t *testing.T) {
	tests := []struct {
		name string
		dims Dimensions
		want Bounds
	}{
		{"unmeasured", Dimensions{}, Bounds{}},
		{"regular", Dimensions{Width: 800, Height: 400}, Bounds{Width: 720, Height: 320}},
		{"smaller than margins", Dimensions{Width: 60, Height: 40}, Bounds{}},
		{"negative", Dimensions{Width: -5, Height: math.NaN()}, Bounds{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dims.Inset(DefaultMargin))
		})
	}
	assert.False(t, Dimensions{}.Measured())
	assert.True(t, Bounds{}.Empty())
}
