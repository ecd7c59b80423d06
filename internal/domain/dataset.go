package domain

import (
	"errors"
	"math"
	"sort"
)

// ErrNoData is returned when an operation requires a loaded dataset.
var ErrNoData = errors.New("no data loaded")

// ErrEmptyDataset is returned by loaders when a source yields zero rows.
var ErrEmptyDataset = errors.New("dataset is empty")

// Record is one row of a climate dataset.
type Record struct {
	Key   int     `json:"key"`             // year
	Label string  `json:"label,omitempty"` // month, country name
	Code  string  `json:"code,omitempty"`  // region code for per-country data
	Value float64 `json:"value"`
}

// Valid reports whether the record carries a usable measurement.
func (r Record) Valid() bool {
	return !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0)
}

// Series is a raw, key-sorted sequence of records. Keys may repeat.
type Series struct {
	Name    string   `json:"name"`
	Records []Record `json:"records"`
}

// NewSeries copies records into a series sorted ascending by key. Records
// sharing a key keep their source order.
func NewSeries(name string, records []Record) Series {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return Series{Name: name, Records: out}
}

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Records) }

// Empty reports whether the series has no rows.
func (s Series) Empty() bool { return len(s.Records) == 0 }

// Sorted reports whether keys are non-decreasing.
func (s Series) Sorted() bool {
	for i := 1; i < len(s.Records); i++ {
		if s.Records[i].Key < s.Records[i-1].Key {
			return false
		}
	}
	return true
}

// Unique reports whether keys are strictly ascending, i.e. the series can be
// plotted directly without grouping.
func (s Series) Unique() bool {
	for i := 1; i < len(s.Records); i++ {
		if s.Records[i].Key <= s.Records[i-1].Key {
			return false
		}
	}
	return true
}

// Filter returns a new series with the records keep accepts.
func (s Series) Filter(keep func(Record) bool) Series {
	out := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return Series{Name: s.Name, Records: out}
}

// Keys returns the distinct keys in ascending order.
func (s Series) Keys() []int {
	keys := make([]int, 0, len(s.Records))
	for i, r := range s.Records {
		if i > 0 && r.Key == s.Records[i-1].Key {
			continue
		}
		keys = append(keys, r.Key)
	}
	return keys
}

// Values returns every measurement, NaN included.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Value
	}
	return out
}
