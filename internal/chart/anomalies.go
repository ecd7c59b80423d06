package chart

import (
	"fmt"
	"time"

	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// Anomalies draws one min-to-max bar per year from monthly temperature
// anomalies, colored by the yearly mean on a diverging scale, with the mean
// traced on top.
type Anomalies struct{}

var anomalySources = []dataset.Source{
	{Name: "anomalies", Path: "anomalies.csv", Key: "year", Value: "anomaly", Label: "month"},
}

// anomalyDomain pairs with the three palette stops: cold, neutral, hot.
var anomalyDomain = []float64{-1, 0, 1}

func (Anomalies) ID() string { return "anomalies" }
func (Anomalies) Title() string { return "Temperature anomalies" }
func (Anomalies) Sources() []dataset.Source { return anomalySources }

func (Anomalies) DefaultLayout() Layout {
	return baseLayout("#78C7D6", "#f1faee", "#F84545")
}

func (a Anomalies) Render(in Input) (Plot, error) {
	s, err := requireSeries(in.Data, "anomalies")
	if err != nil {
		return Plot{}, err
	}
	color, err := scale.NewInterpolated(anomalyDomain, in.Layout.Palette)
	if err != nil {
		return Plot{}, fmt.Errorf("anomalies palette: %w", err)
	}

	sc, b, ok := canvas(a.ID(), in)
	groups := domain.GroupByKey(s)
	if !ok || len(groups) == 0 {
		return Plot{Scene: sc}, nil
	}

	lo, _, _ := domain.StatExtent(groups)
	y := scale.NewLinear(lo, 1, b.Height, 0)
	x := scale.NewBand(yearLabels(statKeys(groups)), scale.Interval{Start: 0, End: b.Width}, bandPadding)

	bars := make([]scene.Primitive, len(groups))
	line := make([]scene.Point, len(groups))
	centers := x.Centers()
	for i, g := range groups {
		top, bottom := y.Map(g.Max), y.Map(g.Min)
		bars[i] = scene.Rect{
			X:     x.At(i),
			Y:     top,
			W:     x.Bandwidth(),
			H:     bottom - top,
			Fill:  color.Color(g.Mean),
			Anim:  scene.Stagger(i, barStagger, barDuration, scene.EaseCubicOut),
			Datum: i,
		}
		line[i] = scene.Point{X: centers[i], Y: y.Map(g.Mean)}
	}
	sc.Add(layerMarks, bars...)
	sc.Add(layerLines, scene.Path{
		Vertices:    line,
		Stroke:      "#333333",
		StrokeWidth: 2,
		Curve:       scene.CurveMonotoneX,
		Anim:        &scene.Transition{Duration: 3 * time.Second, Ease: scene.EaseLinear, Reveal: scene.RevealDash},
	})
	sc.Add(layerAxes,
		bandAxis(x, b.Height, b.Width, in.Layout.TickStride),
		scene.Axis{
			Orient: scene.OrientRight,
			X:      b.Width,
			Length: b.Height,
			Ticks:  scene.LinearTicks(y, in.Layout.Ticks, nil),
		},
	)

	return Plot{
		Scene: sc,
		Resolver: cursor.Band{
			X:       x,
			Y:       y,
			Margin:  in.Layout.Margin,
			Records: domain.MeanSeries("anomalies", groups).Records,
			Stats:   groups,
		},
	}, nil
}
