package chart

import (
	"fmt"
	"math"

	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// CO2 draws yearly atmospheric CO2 concentration as bars on a fixed
// 290-430 ppm axis.
type CO2 struct{}

// Fixed display domain in ppm.
const (
	co2Floor   = 290
	co2Ceiling = 430
)

var (
	co2Sources = []dataset.Source{{Name: "co2", Path: "co2.csv", Key: "year", Value: "ppm"}}
	co2Domain  = []float64{200, 300, 400}
)

func (CO2) ID() string { return "co2" }
func (CO2) Title() string { return "Atmospheric CO2" }
func (CO2) Sources() []dataset.Source { return co2Sources }

func (CO2) DefaultLayout() Layout {
	return baseLayout("#FAFAFA", "#787878", "#101010")
}

func (c CO2) Render(in Input) (Plot, error) {
	s, err := requireSeries(in.Data, "co2")
	if err != nil {
		return Plot{}, err
	}
	color, err := scale.NewInterpolated(co2Domain, in.Layout.Palette)
	if err != nil {
		return Plot{}, fmt.Errorf("co2 palette: %w", err)
	}

	sc, b, ok := canvas(c.ID(), in)
	yearly := domain.MeanSeries("co2", domain.GroupByKey(s)).Records
	if !ok || len(yearly) == 0 {
		return Plot{Scene: sc}, nil
	}

	keys := make([]int, len(yearly))
	for i, r := range yearly {
		keys[i] = r.Key
	}
	y := scale.NewLinear(co2Floor, co2Ceiling, b.Height, 0)
	x := scale.NewBand(yearLabels(keys), scale.Interval{Start: 0, End: b.Width}, bandPadding)

	bars := make([]scene.Primitive, len(yearly))
	for i, r := range yearly {
		top := math.Max(0, y.Map(r.Value))
		bars[i] = scene.Rect{
			X:     x.At(i),
			Y:     top,
			W:     x.Bandwidth(),
			H:     math.Max(0, b.Height-top),
			Fill:  color.Color(r.Value),
			Anim:  scene.Stagger(i, barStagger, barDuration, scene.EaseCubicOut),
			Datum: i,
		}
	}
	sc.Add(layerMarks, bars...)
	sc.Add(layerAxes,
		bandAxis(x, b.Height, b.Width, in.Layout.TickStride),
		scene.Axis{Orient: scene.OrientLeft, Length: b.Height, Ticks: scene.LinearTicks(y, in.Layout.Ticks, nil)},
	)

	return Plot{
		Scene:    sc,
		Resolver: cursor.Band{X: x, Y: y, Margin: in.Layout.Margin, Records: yearly},
	}, nil
}
