package chart

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// Contributions ranks countries by their share of observed warming for one
// year, colored by a quantized scale with a legend of its bins.
type Contributions struct{}

// contributionsFrom is the first year the per-country figures are shown for.
const contributionsFrom = 1940

var contributionSources = []dataset.Source{{
	Name:  "contributions",
	Path:  "globaltempcontributions.csv",
	Key:   "year",
	Value: "value",
	Label: "country",
	Code:  "code",
}}

func (Contributions) ID() string { return "contributions" }
func (Contributions) Title() string { return "Contribution to warming" }
func (Contributions) Sources() []dataset.Source { return contributionSources }

func (Contributions) DefaultLayout() Layout {
	return baseLayout("#FFFFFF", "#00FFF6", "#00A0CD", "#4B48FA", "#E988F0", "#FDE080", "#FF8C00")
}

// countries keeps the rows the chart can place: recent enough, with a
// region code and a usable value.
func countries(s domain.Series) domain.Series {
	return s.Filter(func(r domain.Record) bool {
		return r.Key >= contributionsFrom && r.Code != "" && r.Valid()
	})
}

// Years lists the selectable snapshot years.
func (Contributions) Years(d Data) []int {
	s, err := requireSeries(d, "contributions")
	if err != nil {
		return nil
	}
	return countries(s).Keys()
}

func (c Contributions) Render(in Input) (Plot, error) {
	s, err := requireSeries(in.Data, "contributions")
	if err != nil {
		return Plot{}, err
	}
	color, err := scale.NewQuantize(0, 1, in.Layout.Palette)
	if err != nil {
		return Plot{}, fmt.Errorf("contributions palette: %w", err)
	}

	sc, b, ok := canvas(c.ID(), in)
	rows := countries(s)
	year := in.Params.Year
	if year == 0 && !rows.Empty() {
		year = rows.Records[0].Key
	}
	snapshot := rows.Filter(func(r domain.Record) bool { return r.Key == year }).Records
	if !ok || len(snapshot) == 0 {
		return Plot{Scene: sc}, nil
	}
	slices.SortStableFunc(snapshot, func(p, q domain.Record) int {
		if d := cmp.Compare(q.Value, p.Value); d != 0 {
			return d
		}
		return cmp.Compare(p.Code, q.Code)
	})

	codes := make([]string, len(snapshot))
	top := 0.0
	for i, r := range snapshot {
		codes[i] = r.Code
		top = max(top, r.Value)
	}
	x := scale.NewBand(codes, scale.Interval{Start: 0, End: b.Width}, bandPadding)
	y := scale.NewLinear(0, top, b.Height, 0)

	bars := make([]scene.Primitive, len(snapshot))
	for i, r := range snapshot {
		h := b.Height - y.Map(r.Value)
		bars[i] = scene.Rect{
			X:     x.At(i),
			Y:     b.Height - h,
			W:     x.Bandwidth(),
			H:     h,
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
	sc.Add(layerLegend, legend(color, b)...)
	sc.Add(layerLegend, scene.Text{
		X:       b.Width,
		Y:       -10,
		Content: strconv.Itoa(year),
		Anchor:  scene.AnchorEnd,
		Size:    14,
	})

	return Plot{
		Scene:    sc,
		Resolver: cursor.Band{X: x, Y: y, Margin: in.Layout.Margin, Records: snapshot},
	}, nil
}

// legend stacks one swatch and range label per quantize bin in the top right
// of the plot.
func legend(q scale.Quantize, b domain.Bounds) []scene.Primitive {
	const (
		swatchW = 24
		swatchH = 12
		rowH    = 18
	)
	bins := q.Bins()
	out := make([]scene.Primitive, 0, 2*len(bins))
	left := b.Width - 160
	for i, bin := range bins {
		rowY := float64(i) * rowH
		label := fmt.Sprintf("%.2f - %.2f %%", bin.Min, bin.Max)
		if i == len(bins)-1 {
			label = fmt.Sprintf("%.2f - >= %.2f %%", bin.Min, bin.Max)
		}
		out = append(out,
			scene.Rect{X: left, Y: rowY, W: swatchW, H: swatchH, Fill: bin.Color, Datum: i},
			scene.Text{X: left + swatchW + 6, Y: rowY + swatchH - 2, Content: label, Size: 10},
		)
	}
	return out
}
