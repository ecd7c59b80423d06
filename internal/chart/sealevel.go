package chart

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// SeaLevel traces the yearly mean sea level, split into the runs below and
// above zero, with the record low and high marked.
type SeaLevel struct{}

var seaLevelSources = []dataset.Source{{Name: "sealevel", Path: "sealevel.csv", Key: "year", Value: "sealevel"}}

const seaLineDuration = 3 * time.Second

func (SeaLevel) ID() string { return "sealevel" }
func (SeaLevel) Title() string { return "Sea level rise" }
func (SeaLevel) Sources() []dataset.Source { return seaLevelSources }

// DefaultLayout palette: below-zero line, above-zero line, below-zero area,
// above-zero area.
func (SeaLevel) DefaultLayout() Layout {
	return baseLayout("#0077B6", "#F84545", "rgba(120,199,214,0.3)", "rgba(248,69,69,0.3)")
}

func (sl SeaLevel) Render(in Input) (Plot, error) {
	s, err := requireSeries(in.Data, "sealevel")
	if err != nil {
		return Plot{}, err
	}
	sc, b, ok := canvas(sl.ID(), in)
	groups := domain.GroupByKey(s)
	if !ok || len(groups) == 0 {
		return Plot{Scene: sc}, nil
	}

	lo, hi, _ := domain.StatExtent(groups)
	y := scale.NewLinear(lo, hi, b.Height, 0)
	x := scale.NewBand(yearLabels(statKeys(groups)), scale.Interval{Start: 0, End: b.Width}, bandPadding)
	centers := x.Centers()
	zero := math.Min(math.Max(y.Map(0), 0), b.Height)

	var below, above []scene.Point
	for i, g := range groups {
		p := scene.Point{X: centers[i], Y: y.Map(g.Mean)}
		switch {
		case g.Mean < 0:
			below = append(below, p)
		case g.Mean > 0:
			above = append(above, p)
		}
	}

	palette := in.Layout.Palette
	lowColor, highColor := pick(palette, 0, "#0077B6"), pick(palette, 1, "#F84545")
	sc.Add(layerMarks,
		area(below, zero, pick(palette, 2, "rgba(120,199,214,0.3)")),
		area(above, zero, pick(palette, 3, "rgba(248,69,69,0.3)")),
	)
	sc.Add(layerLines,
		scene.Path{
			Vertices:    below,
			Stroke:      lowColor,
			StrokeWidth: 2,
			Curve:       scene.CurveMonotoneX,
			Anim:        &scene.Transition{Duration: seaLineDuration, Ease: scene.EaseCubicInOut, Reveal: scene.RevealDash},
		},
		scene.Path{
			Vertices:    above,
			Stroke:      highColor,
			StrokeWidth: 2,
			Curve:       scene.CurveMonotoneX,
			Anim:        &scene.Transition{Delay: seaLineDuration, Duration: seaLineDuration, Ease: scene.EaseCubicInOut, Reveal: scene.RevealDash},
		},
	)

	minAt, maxAt := extremes(groups)
	sc.Add(layerMarkers,
		scene.Circle{
			CX:    centers[minAt],
			CY:    y.Map(lo),
			R:     5,
			Fill:  lowColor,
			Anim:  &scene.Transition{Duration: seaLineDuration, Ease: scene.EaseCubicInOut, Reveal: scene.RevealGrow},
			Datum: minAt,
		},
		scene.Circle{
			CX:    centers[maxAt],
			CY:    y.Map(hi),
			R:     5,
			Fill:  highColor,
			Anim:  &scene.Transition{Delay: 2 * seaLineDuration, Duration: time.Second, Ease: scene.EaseCubicInOut, Reveal: scene.RevealGrow},
			Datum: maxAt,
		},
		scene.Text{
			X:       x.At(0) + b.Width/6,
			Y:       y.Map(lo),
			Content: fmt.Sprintf("Sea Level: %.2f mm", lo),
			Anchor:  scene.AnchorMiddle,
			Fill:    lowColor,
			Size:    14,
			Anim:    fade(seaLineDuration),
		},
		scene.Text{
			X:       x.At(len(groups)-1) - b.Width/6,
			Y:       y.Map(hi),
			Content: fmt.Sprintf("Sea Level: %.2f mm", hi),
			Anchor:  scene.AnchorMiddle,
			Fill:    highColor,
			Size:    14,
			Anim:    fade(2 * seaLineDuration),
		},
	)
	sc.Add(layerAxes, scene.Axis{
		Orient: scene.OrientTop,
		Y:      zero,
		Length: b.Width,
		Ticks:  scene.BandTicks(x, in.Layout.TickStride, nil),
	})

	return Plot{
		Scene: sc,
		Resolver: cursor.Band{
			X:       x,
			Y:       y,
			Margin:  in.Layout.Margin,
			Records: domain.MeanSeries("sealevel", groups).Records,
			Stats:   groups,
		},
	}, nil
}

// area closes the run of points down to the baseline at y0.
func area(run []scene.Point, y0 float64, fill string) scene.Path {
	if len(run) == 0 {
		return scene.Path{Fill: fill, Closed: true}
	}
	v := make([]scene.Point, 0, len(run)+2)
	v = append(v, run...)
	v = append(v, scene.Point{X: run[len(run)-1].X, Y: y0}, scene.Point{X: run[0].X, Y: y0})
	return scene.Path{Vertices: v, Fill: fill, Closed: true, Curve: scene.CurveLinear}
}

// extremes returns the first groups holding the lowest Min and highest Max.
func extremes(groups []domain.GroupedStat) (minAt, maxAt int) {
	for i, g := range groups {
		if g.Min < groups[minAt].Min {
			minAt = i
		}
		if g.Max > groups[maxAt].Max {
			maxAt = i
		}
	}
	return minAt, maxAt
}
