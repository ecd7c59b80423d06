// Package scene is the retained description of one chart render pass.
//
// Chart renderers are pure functions that build a Scene from scales and data.
// A Surface consumes it: Commit clears the surface and redraws every
// primitive, so committing the same scene twice leaves the surface in the
// same state. Entrance animations are data on each primitive; an Animator
// steps them on a clock and always finishes on the unanimated scene.
//
// Coordinates are relative to the plot area. Scene.Margin says where the plot
// area sits inside the container.
package scene
