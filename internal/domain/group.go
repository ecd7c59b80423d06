package domain

import (
	"math"

	"github.com/aclements/go-moremath/stats"
)

// GroupedStat aggregates every valid measurement that shares a key.
type GroupedStat struct {
	Key   int     `json:"key"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// GroupByKey collapses a sorted series into one stat per distinct key.
// NaN and infinite values are excluded; keys with no valid values are dropped.
func GroupByKey(s Series) []GroupedStat {
	out := make([]GroupedStat, 0, len(s.Records))
	var (
		values []float64
		key    int
	)
	flush := func() {
		if len(values) == 0 {
			return
		}
		lo, hi := stats.Bounds(values)
		mean := stats.Mean(values)
		// Float summation can land a hair outside the bounds for
		// near-constant groups.
		mean = math.Min(math.Max(mean, lo), hi)
		out = append(out, GroupedStat{Key: key, Min: lo, Max: hi, Mean: mean, Count: len(values)})
		values = values[:0]
	}

	for i, r := range s.Records {
		if i == 0 || r.Key != key {
			flush()
			key = r.Key
		}
		if r.Valid() {
			values = append(values, r.Value)
		}
	}
	flush()
	return out
}

// MeanSeries projects grouped stats back to one record per key using the mean.
func MeanSeries(name string, groups []GroupedStat) Series {
	recs := make([]Record, len(groups))
	for i, g := range groups {
		recs[i] = Record{Key: g.Key, Value: g.Mean}
	}
	return Series{Name: name, Records: recs}
}

// StatExtent returns the lowest Min and highest Max across groups.
func StatExtent(groups []GroupedStat) (lo, hi float64, ok bool) {
	if len(groups) == 0 {
		return 0, 0, false
	}
	lo, hi = groups[0].Min, groups[0].Max
	for _, g := range groups[1:] {
		lo = math.Min(lo, g.Min)
		hi = math.Max(hi, g.Max)
	}
	return lo, hi, true
}
