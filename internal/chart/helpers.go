package chart

import (
	"strconv"
	"time"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// Layer names shared by every chart. Layers paint in the order they are
// first added.
const (
	layerMarks   = "marks"
	layerLines   = "lines"
	layerMarkers = "markers"
	layerAxes    = "axes"
	layerLegend  = "legend"
)

// Entrance timings shared across the bar charts.
const (
	barStagger  = 30 * time.Millisecond
	barDuration = 500 * time.Millisecond
	labelFade   = time.Second
)

// bandPadding is the inner and outer padding of every year axis.
const bandPadding = 0.2

// canvas starts the scene and reports the plot bounds. ok is false when the
// container is unmeasured or the margins leave nothing to draw into.
func canvas(id string, in Input) (scene.Scene, domain.Bounds, bool) {
	sc := scene.New(id, in.Dims, in.Layout.Margin)
	b := sc.Bounds()
	return sc, b, in.Dims.Measured() && !b.Empty()
}

// yearLabels formats keys as band categories.
func yearLabels(keys []int) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strconv.Itoa(k)
	}
	return out
}

// statKeys returns the group keys in order.
func statKeys(groups []domain.GroupedStat) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}

// pick returns palette[i] or def when the palette is too short.
func pick(palette []string, i int, def string) string {
	if i < len(palette) && palette[i] != "" {
		return palette[i]
	}
	return def
}

// fade is the entrance used by axis labels.
func fade(delay time.Duration) *scene.Transition {
	return &scene.Transition{Delay: delay, Duration: labelFade, Ease: scene.EaseLinear}
}

// bandAxis is the bottom axis of a band chart, thinned to every stride-th
// category.
func bandAxis(x scale.Band, y, length float64, stride int) scene.Axis {
	return scene.Axis{
		Orient: scene.OrientBottom,
		Y:      y,
		Length: length,
		Ticks:  scene.BandTicks(x, stride, nil),
	}
}
