// Package viewport tracks the two browser-side signals a chart depends on:
// the rendered size of its container and whether it has scrolled into view.
//
// Both are modelled as explicit subscriptions. An Observer subscribes to a
// ResizeSource when mounted and must be closed on teardown; a Gate turns a
// stream of intersection ratios into an in-view flag plus a rising edge that
// triggers the animated draw.
package viewport
