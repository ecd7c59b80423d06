package chart

import (
	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// GlobalTemp is the plain global temperature line. Both axes follow the data
// extent and the cursor resolves by inverting the x scale.
type GlobalTemp struct{}

var globalTempSources = []dataset.Source{{Name: "globaltemp", Path: "globaltemp.csv", Key: "year", Value: "noSmoothing"}}

func (GlobalTemp) ID() string { return "globaltemp" }
func (GlobalTemp) Title() string { return "The global temperature" }
func (GlobalTemp) Sources() []dataset.Source { return globalTempSources }

// DefaultLayout palette: line, then cursor marker.
func (GlobalTemp) DefaultLayout() Layout {
	return baseLayout("#000000", "#ff8c00")
}

func (gt GlobalTemp) Render(in Input) (Plot, error) {
	s, err := requireSeries(in.Data, "globaltemp")
	if err != nil {
		return Plot{}, err
	}
	sc, b, ok := canvas(gt.ID(), in)
	recs := domain.MeanSeries("globaltemp", domain.GroupByKey(s)).Records
	if !ok || len(recs) == 0 {
		return Plot{Scene: sc}, nil
	}

	keys := make([]float64, len(recs))
	values := make([]float64, len(recs))
	for i, r := range recs {
		keys[i], values[i] = float64(r.Key), r.Value
	}
	x0, x1, _ := scale.Extent(keys)
	y0, y1, _ := scale.Extent(values)
	x := scale.NewLinear(x0, x1, 0, b.Width)
	y := scale.NewLinear(y0, y1, b.Height, 0)

	line := make([]scene.Point, len(recs))
	for i, r := range recs {
		line[i] = scene.Point{X: x.Map(float64(r.Key)), Y: y.Map(r.Value)}
	}
	sc.Add(layerLines, scene.Path{
		Vertices:    line,
		Stroke:      pick(in.Layout.Palette, 0, "#000000"),
		StrokeWidth: 2,
		Curve:       scene.CurveLinear,
	})
	sc.Add(layerAxes,
		scene.Axis{
			Orient: scene.OrientBottom,
			Y:      b.Height,
			Length: b.Width,
			Ticks:  scene.LinearTicks(x, in.Layout.Ticks, scene.FormatYear),
			Anim:   fade(0),
		},
		scene.Axis{
			Orient: scene.OrientLeft,
			Length: b.Height,
			Ticks:  scene.LinearTicks(y, in.Layout.Ticks, nil),
			Anim:   fade(0),
		},
	)

	return Plot{
		Scene:    sc,
		Resolver: cursor.Linear{X: x, Y: y, Margin: in.Layout.Margin, Records: recs},
	}, nil
}
