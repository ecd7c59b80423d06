package chart

import (
	"math"
	"time"

	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// IceSheet draws cumulative Antarctic and Greenland mass loss as rivers
// whose width grows with the size of the loss.
type IceSheet struct{}

// Fixed display domain: years on x, gigatonnes on y.
const (
	iceFirstYear = 2002
	iceLastYear  = 2020
	iceFloor     = -6000
	iceMarked    = -5000
)

// iceMaxWidth is the half-width, in gigatonnes, of the river at the largest
// absolute mean.
const iceMaxWidth = 1000

const iceReveal = 5 * time.Second

var iceSources = []dataset.Source{
	{Name: "antarctica", Path: "antarctica.csv", Key: "year", Value: "change", Label: "country"},
	{Name: "greenland", Path: "greenland.csv", Key: "year", Value: "change", Label: "country"},
}

func (IceSheet) ID() string { return "icesheet" }
func (IceSheet) Title() string { return "Ice sheet mass loss" }
func (IceSheet) Sources() []dataset.Source { return iceSources }

// DefaultLayout palette: one river fill per source, then the marker color.
func (IceSheet) DefaultLayout() Layout {
	l := baseLayout("rgba(59,130,246,0.7)", "rgba(34,211,238,0.7)", "#1D1D1D")
	l.Ticks = 10
	return l
}

func (is IceSheet) Render(in Input) (Plot, error) {
	sheets := make([][]domain.GroupedStat, len(iceSources))
	for i, src := range iceSources {
		s, err := requireSeries(in.Data, src.Name)
		if err != nil {
			return Plot{}, err
		}
		sheets[i] = domain.GroupByKey(s)
	}

	sc, b, ok := canvas(is.ID(), in)
	if !ok {
		return Plot{Scene: sc}, nil
	}

	x := scale.NewLinear(iceFirstYear, iceLastYear, 0, b.Width)
	y := scale.NewLinear(iceFloor, 0, b.Height, 0)

	var widest float64
	for _, groups := range sheets {
		for _, g := range groups {
			widest = math.Max(widest, math.Abs(g.Mean))
		}
	}
	w := scale.NewLinear(0, widest, 0, iceMaxWidth)

	stack := make(cursor.Stack, 0, len(sheets))
	for i, groups := range sheets {
		if len(groups) == 0 {
			continue
		}
		sc.Add(layerMarks, river(groups, x, y, w, pick(in.Layout.Palette, i, "#3b82f6")))
		stack = append(stack, cursor.Linear{
			X:       x,
			Y:       y,
			Margin:  in.Layout.Margin,
			Records: domain.MeanSeries(iceSources[i].Name, groups).Records,
		})
	}

	marker := pick(in.Layout.Palette, len(sheets), "#1D1D1D")
	after := &scene.Transition{Delay: iceReveal, Duration: time.Second, Ease: scene.EaseCubicOut, Reveal: scene.RevealGrow}
	sc.Add(layerMarkers,
		scene.Circle{CX: x.Map(iceFirstYear), CY: y.Map(0), R: 5, Fill: marker, Anim: after},
		scene.Circle{CX: x.Map(iceLastYear), CY: y.Map(iceMarked), R: 5, Fill: marker, Anim: after},
		scene.Text{
			X:       x.Map(iceFirstYear) + 10,
			Y:       y.Map(0) + 20,
			Content: "0 billion tons in 2002",
			Fill:    marker,
			Size:    12,
			Anim:    fade(iceReveal),
		},
		scene.Text{
			X:       x.Map(iceLastYear) - 10,
			Y:       y.Map(iceMarked) - 10,
			Content: "-5000 billion tons in 2020",
			Anchor:  scene.AnchorEnd,
			Fill:    marker,
			Size:    12,
			Anim:    fade(iceReveal),
		},
	)
	sc.Add(layerAxes, scene.Axis{
		Orient: scene.OrientBottom,
		Y:      b.Height,
		Length: b.Width,
		Ticks:  scene.LinearTicks(x, in.Layout.Ticks, scene.FormatYear),
	})

	var res cursor.Resolver
	if len(stack) > 0 {
		res = stack
	}
	return Plot{Scene: sc, Resolver: res}, nil
}

// river outlines mean ± w(|mean|) for each year, top edge left to right and
// bottom edge back.
func river(groups []domain.GroupedStat, x, y, w scale.Linear, fill string) scene.Path {
	v := make([]scene.Point, 0, 2*len(groups))
	for _, g := range groups {
		v = append(v, scene.Point{X: x.Map(float64(g.Key)), Y: y.Map(g.Mean + w.Map(math.Abs(g.Mean)))})
	}
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		v = append(v, scene.Point{X: x.Map(float64(g.Key)), Y: y.Map(g.Mean - w.Map(math.Abs(g.Mean)))})
	}
	return scene.Path{
		Vertices: v,
		Fill:     fill,
		Closed:   true,
		Curve:    scene.CurveLinear,
		Anim:     &scene.Transition{Duration: iceReveal, Ease: scene.EaseLinear, Reveal: scene.RevealClip},
	}
}
