// Package scale maps data values to pixel space.
//
// Continuous scales ([Linear]) interpolate a numeric domain onto a pixel
// interval and can be inverted for cursor lookup. Banded scales ([Band]) give
// each category an equal-width slot. Color scales ([Interpolated],
// [Quantize]) are pure functions of the value.
//
// Scales are plain values: rebuild them whenever the dataset or the observed
// dimensions change. Nothing in this package caches pixel mappings.
package scale
