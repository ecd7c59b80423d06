package scene

import (
	"math"
	"strconv"

	"github.com/couchcryptid/climate-story/internal/scale"
)

// Orient is the side of the plot an axis sits on.
type Orient string

const (
	OrientBottom Orient = "bottom"
	OrientTop    Orient = "top"
	OrientLeft   Orient = "left"
	OrientRight  Orient = "right"
)

// Tick is one labelled position along an axis.
type Tick struct {
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

// Axis is a ruled line with ticks. X and Y place the axis origin in plot
// coordinates; Length runs along the axis.
type Axis struct {
	Orient Orient      `json:"orient"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Length float64     `json:"length"`
	Ticks  []Tick      `json:"ticks"`
	Anim   *Transition `json:"transition,omitempty"`
}

func (a Axis) Kind() Kind { return KindAxis }
func (a Axis) Entrance() *Transition { return a.Anim }

// Vertical reports whether the axis runs along y.
func (o Orient) Vertical() bool { return o == OrientLeft || o == OrientRight }

// outward is the direction ticks point: +1 for bottom and right, -1 for top
// and left.
func (o Orient) outward() float64 {
	if o == OrientTop || o == OrientLeft {
		return -1
	}
	return 1
}

// TickLine returns the tick mark for t, in axis-local coordinates.
func (a Axis) TickLine(t Tick, size float64) (x1, y1, x2, y2 float64) {
	d := size * a.Orient.outward()
	if a.Orient.Vertical() {
		return 0, t.Pos, d, t.Pos
	}
	return t.Pos, 0, t.Pos, d
}

// LabelAt returns where t's label sits and how it is anchored, in axis-local
// coordinates. gap is the distance from the axis line; baseline is the
// vertical offset that centres text of the given size.
func (a Axis) LabelAt(t Tick, gap, size float64) (x, y float64, anchor Anchor) {
	d := gap * a.Orient.outward()
	switch a.Orient {
	case OrientLeft:
		return d, t.Pos + size/3, AnchorEnd
	case OrientRight:
		return d, t.Pos + size/3, AnchorStart
	case OrientTop:
		return t.Pos, d, AnchorMiddle
	default:
		return t.Pos, d + size, AnchorMiddle
	}
}

// At returns the axis unchanged; axes appear with the first frame.
func (a Axis) At(float64) Primitive { return a }

// BandTicks places a tick at the centre of every stride-th band, starting
// with the first. label may be nil.
func BandTicks(b scale.Band, stride int, label func(string) string) []Tick {
	if stride < 1 {
		stride = 1
	}
	cats := b.Categories()
	centers := b.Centers()
	out := make([]Tick, 0, len(cats)/stride+1)
	for i := 0; i < len(cats); i += stride {
		l := cats[i]
		if label != nil {
			l = label(l)
		}
		out = append(out, Tick{Pos: centers[i], Label: l})
	}
	return out
}

// LinearTicks places up to n nice ticks. format may be nil.
func LinearTicks(s scale.Linear, n int, format func(float64) string) []Tick {
	if format == nil {
		format = FormatNumber
	}
	values := s.Ticks(n)
	out := make([]Tick, len(values))
	for i, v := range values {
		out[i] = Tick{Pos: s.Map(v), Label: format(v)}
	}
	return out
}

// FormatNumber prints v rounded to nine decimals, trimming zeros.
func FormatNumber(v float64) string {
	v = math.Round(v*1e9) / 1e9
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatYear prints v as an integer year.
func FormatYear(v float64) string {
	return strconv.Itoa(int(v))
}
