// Package cursor maps pointer positions back onto chart data.
package cursor

import (
	"math"
	"sort"
)

// Nearest returns the index of the key closest to target in keys, which must
// be sorted ascending. When two keys are equally close the earlier one wins,
// and among equal keys the first occurrence wins. It returns -1 for an empty
// slice or a NaN target.
func Nearest(keys []float64, target float64) int {
	n := len(keys)
	if n == 0 || math.IsNaN(target) {
		return -1
	}
	i := sort.SearchFloat64s(keys, target)
	switch {
	case i == 0:
		return 0
	case i == n:
		return firstOf(keys, n-1)
	case target-keys[i-1] <= keys[i]-target:
		return firstOf(keys, i-1)
	default:
		return i
	}
}

func firstOf(keys []float64, i int) int {
	for i > 0 && keys[i-1] == keys[i] {
		i--
	}
	return i
}

// NearestBy is Nearest over any slice sorted by key.
func NearestBy[T any](items []T, key func(T) float64, target float64) int {
	keys := make([]float64, len(items))
	for i, it := range items {
		keys[i] = key(it)
	}
	return Nearest(keys, target)
}

// NearestIndex returns the band whose centre is closest to px. Centres may
// run in either direction; ties go to the lower index.
func NearestIndex(centers []float64, px float64) int {
	if len(centers) < 2 || centers[0] <= centers[len(centers)-1] {
		return Nearest(centers, px)
	}
	neg := make([]float64, len(centers))
	for i, c := range centers {
		neg[i] = -c
	}
	return Nearest(neg, -px)
}
