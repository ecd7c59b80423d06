package cursor

import (
	"math"
	"testing"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decades = []domain.Record{
	{Key: 2000, Value: 1},
	{Key: 2010, Value: 2},
	{Key: 2020, Value: 3},
}

func TestNearest(t *testing.T) {
	keys := []float64{2000, 2010, 2020}
	tests := []struct {
		name   string
		target float64
		want   int
	}{
		{"nearest key", 2011, 1},
		{"exact", 2020, 2},
		{"before first", 1900, 0},
		{"after last", 2100, 2},
		{"tie prefers earlier", 2015, 1},
		{"tie at first gap", 2005, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Nearest(keys, tt.target))
		})
	}

	assert.Equal(t, -1, Nearest(nil, 2000))
	assert.Equal(t, -1, Nearest(keys, math.NaN()))
}

func TestNearest_TieIsStable(t *testing.T) {
	keys := []float64{2000, 2010, 2020}
	for i := 0; i < 100; i++ {
		require.Equal(t, 1, Nearest(keys, 2015))
	}
}

func TestNearest_DuplicateKeysReturnFirst(t *testing.T) {
	keys := []float64{1, 2, 2, 2, 5}
	assert.Equal(t, 1, Nearest(keys, 2))
	assert.Equal(t, 1, Nearest(keys, 3))
	assert.Equal(t, 4, Nearest(keys, 4.5))
}

func TestNearest_MatchesLinearScan(t *testing.T) {
	keys := []float64{1880, 1881, 1890, 1900, 1950, 1951, 2000, 2023}
	scan := func(x float64) int {
		best, idx := math.Inf(1), -1
		for i, k := range keys {
			if d := math.Abs(k - x); d < best {
				best, idx = d, i
			}
		}
		return idx
	}
	for x := 1870.0; x <= 2030; x += 0.25 {
		assert.Equal(t, scan(x), Nearest(keys, x), "x=%g", x)
	}
}

func TestNearestIndex_Descending(t *testing.T) {
	assert.Equal(t, 0, NearestIndex([]float64{75, 25}, 70))
	assert.Equal(t, 1, NearestIndex([]float64{75, 25}, 10))
	assert.Equal(t, 0, NearestIndex([]float64{75, 25}, 50))
}

func TestLinearResolver(t *testing.T) {
	m := domain.Margin{Top: 10, Left: 20}
	r := Linear{
		X:       scale.NewLinear(2000, 2020, 0, 200),
		Y:       scale.NewLinear(0, 4, 100, 0),
		Margin:  m,
		Records: decades,
	}

	// Pointer at plot x=110 inverts to 2011.
	st := r.Resolve(130, 50)
	require.NotNil(t, st)
	assert.Equal(t, decades[1], *st.Record)
	assert.Equal(t, 1, st.Index)
	assert.InDelta(t, 120, st.PixelX, 1e-9, "snapped to the record, not the pointer")
	assert.InDelta(t, 60, st.PixelY, 1e-9)

	// Exactly halfway between 2010 and 2020.
	st = r.Resolve(170, 50)
	require.NotNil(t, st)
	assert.Equal(t, 2010, st.Record.Key)

	assert.Nil(t, r.Resolve(5, 50), "left of the plot")
	assert.Nil(t, r.Resolve(300, 50), "right of the plot")
	assert.Nil(t, r.Resolve(100, 200), "below the plot")
	assert.Nil(t, Linear{X: r.X, Y: r.Y}.Resolve(100, 50), "no data")
}

func TestBandResolver(t *testing.T) {
	stats := []domain.GroupedStat{
		{Key: 2000, Min: -1, Max: 1, Mean: 0.5, Count: 12},
		{Key: 2001, Min: -2, Max: 2, Mean: -0.5, Count: 12},
	}
	r := Band{
		X:       scale.NewBand([]string{"2000", "2001"}, scale.Interval{Start: 0, End: 100}, 0),
		Y:       scale.NewLinear(-1, 1, 100, 0),
		Margin:  domain.DefaultMargin,
		Records: []domain.Record{{Key: 2000, Value: 0.5}, {Key: 2001, Value: -0.5}},
		Stats:   stats,
	}

	st := r.Resolve(50+80, 30+10)
	require.NotNil(t, st)
	assert.Equal(t, 2001, st.Record.Key)
	assert.InDelta(t, 50+75, st.PixelX, 1e-9)
	assert.InDelta(t, 30+75, st.PixelY, 1e-9)
	require.NotNil(t, st.Stat)
	assert.Equal(t, stats[1], *st.Stat)

	assert.Nil(t, r.Resolve(10, 40))
}

func TestDiscsResolver(t *testing.T) {
	r := Discs{
		Margin: domain.DefaultMargin,
		Discs: []Disc{
			{X: 100, Y: 100, R: 40, Record: domain.Record{Code: "CHN", Value: 2}},
			{X: 110, Y: 100, R: 10, Record: domain.Record{Code: "GBR", Value: 0.5}},
			{X: 200, Y: 100, R: 20, Record: domain.Record{Code: "USA", Value: 3}},
		},
	}

	st := r.Resolve(50+80, 30+100)
	require.NotNil(t, st)
	assert.Equal(t, "CHN", st.Record.Code)
	assert.Equal(t, 0, st.Index)
	assert.InDelta(t, 50+100, st.PixelX, 1e-9)
	assert.InDelta(t, 30+100, st.PixelY, 1e-9)

	st = r.Resolve(50+112, 30+101)
	require.NotNil(t, st)
	assert.Equal(t, "GBR", st.Record.Code, "smallest containing disc wins")

	st = r.Resolve(50+200, 30+120)
	require.NotNil(t, st, "edge counts")
	assert.Equal(t, 2, st.Index)

	assert.Nil(t, r.Resolve(50+150, 30+100), "between discs")
	assert.Nil(t, r.Resolve(0, 0))
	assert.Nil(t, Discs{}.Resolve(100, 100))
}

func TestTracker(t *testing.T) {
	r := Linear{
		X:       scale.NewLinear(2000, 2020, 0, 200),
		Y:       scale.NewLinear(0, 4, 100, 0),
		Records: decades,
	}
	tr := NewTracker(nil)
	assert.Nil(t, tr.Move(10, 10), "no scales yet")
	assert.Equal(t, Idle, tr.Phase())

	tr.SetResolver(r)
	require.NotNil(t, tr.State(), "last pointer is re-resolved against new scales")
	assert.Equal(t, 2000, tr.State().Record.Key)
	assert.Equal(t, Hovering, tr.Phase())

	st := tr.Move(195, 10)
	require.NotNil(t, st)
	assert.Equal(t, 2020, st.Record.Key)

	assert.Nil(t, tr.Move(500, 10))
	assert.Equal(t, Idle, tr.Phase())

	tr.Move(100, 10)
	tr.Leave()
	assert.Nil(t, tr.State())
	assert.Equal(t, "idle", tr.Phase().String())

	// Rescaling after leave stays idle.
	assert.Nil(t, tr.SetResolver(r))
}

func TestStack(t *testing.T) {
	x := scale.NewLinear(2000, 2020, 0, 200)
	y := scale.NewLinear(-10, 0, 100, 0)
	low := Linear{X: x, Y: y, Records: []domain.Record{{Key: 2010, Value: -8, Label: "antarctica"}}}
	high := Linear{X: x, Y: y, Records: []domain.Record{{Key: 2010, Value: -2, Label: "greenland"}}}

	st := Stack{low, high}.Resolve(100, 15)
	require.NotNil(t, st)
	assert.Equal(t, "greenland", st.Record.Label)

	st = Stack{low, high}.Resolve(100, 90)
	require.NotNil(t, st)
	assert.Equal(t, "antarctica", st.Record.Label)

	assert.Nil(t, Stack{low, high}.Resolve(-50, 50))
	assert.Nil(t, Stack{}.Resolve(10, 10))
}
