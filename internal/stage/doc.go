// Package stage runs mounted chart instances for one viewer.
//
// A Stage is the equivalent of a browser page: it owns the shared resize bus
// and a single goroutine that applies viewer events in order. Each mounted
// chart pairs a dimension observer and a visibility gate with an asynchronous
// dataset load, and draws only once data, size and visibility all agree.
package stage
