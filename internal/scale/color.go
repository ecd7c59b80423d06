package scale

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrPalette is returned for malformed color palettes.
var ErrPalette = errors.New("invalid palette")

// NoColor is returned for values a color scale cannot place (NaN).
const NoColor = "none"

var (
	hexRe  = regexp.MustCompile(`^#?([0-9a-fA-F]{6})$`)
	rgbaRe = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([0-9.]+)\s*)?\)$`)
)

// ParseHex parses "#rrggbb" into a color.
func ParseHex(hex string) (drawing.Color, error) {
	m := hexRe.FindStringSubmatch(strings.TrimSpace(hex))
	if m == nil {
		return drawing.Color{}, fmt.Errorf("%w: bad color %q", ErrPalette, hex)
	}
	return drawing.ColorFromHex(m[1]), nil
}

// ParseColor accepts every palette color form: "#rrggbb", "rgb(r,g,b)" and
// "rgba(r,g,b,a)" with a in [0,1]. Channels above 255 are clamped.
func ParseColor(s string) (drawing.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "rgb") {
		return ParseHex(s)
	}
	m := rgbaRe.FindStringSubmatch(s)
	if m == nil {
		return drawing.Color{}, fmt.Errorf("%w: bad color %q", ErrPalette, s)
	}
	ch := func(v string) uint8 {
		n, err := strconv.Atoi(v)
		if err != nil || n > 255 {
			return 255
		}
		return uint8(n)
	}
	c := drawing.Color{R: ch(m[1]), G: ch(m[2]), B: ch(m[3]), A: 255}
	if m[4] != "" {
		a, err := strconv.ParseFloat(m[4], 64)
		if err != nil || a > 1 {
			return drawing.Color{}, fmt.Errorf("%w: bad alpha in %q", ErrPalette, s)
		}
		c.A = uint8(a*255 + 0.5)
	}
	return c, nil
}

// Hex formats a color as "#rrggbb", dropping alpha.
func Hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA formats a color as "rgba(r,g,b,a)" at the given opacity.
func RGBA(c drawing.Color, opacity float64) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B,
		strconv.FormatFloat(math.Max(0, math.Min(1, opacity)), 'f', -1, 64))
}

// Interpolated is a piecewise-linear RGB color scale: sequential with two
// stops, diverging with three. Values outside the domain take the nearest end
// color.
type Interpolated struct {
	domain []float64
	stops  []drawing.Color
}

// NewInterpolated pairs ascending domain values with color stops. Output
// colors are opaque "#rrggbb"; stop alpha is ignored.
func NewInterpolated(domain []float64, colors []string) (Interpolated, error) {
	if len(domain) < 2 || len(domain) != len(colors) {
		return Interpolated{}, fmt.Errorf("%w: need matching domain and colors, got %d and %d", ErrPalette, len(domain), len(colors))
	}
	if !sort.Float64sAreSorted(domain) {
		return Interpolated{}, fmt.Errorf("%w: domain must be ascending", ErrPalette)
	}
	stops := make([]drawing.Color, len(colors))
	for i, h := range colors {
		c, err := ParseColor(h)
		if err != nil {
			return Interpolated{}, err
		}
		stops[i] = c
	}
	return Interpolated{domain: append([]float64(nil), domain...), stops: stops}, nil
}

// Color maps a value to a hex color.
func (s Interpolated) Color(v float64) string {
	if math.IsNaN(v) || len(s.stops) == 0 {
		return NoColor
	}
	last := len(s.domain) - 1
	if v <= s.domain[0] {
		return Hex(s.stops[0])
	}
	if v >= s.domain[last] {
		return Hex(s.stops[last])
	}
	i := sort.SearchFloat64s(s.domain, v)
	if s.domain[i] == v {
		return Hex(s.stops[i])
	}
	lo, hi := s.domain[i-1], s.domain[i]
	t := (v - lo) / (hi - lo)
	return Hex(lerp(s.stops[i-1], s.stops[i], t))
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	ch := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), A: 255}
}

// Quantize splits a continuous domain into len(colors) equal-width bins.
type Quantize struct {
	Domain Domain
	colors []string
}

// QuantizeBin is one legend entry.
type QuantizeBin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Color string  `json:"color"`
}

// NewQuantize builds a quantize scale over [min,max].
func NewQuantize(min, max float64, colors []string) (Quantize, error) {
	if len(colors) == 0 {
		return Quantize{}, fmt.Errorf("%w: empty quantize palette", ErrPalette)
	}
	for _, h := range colors {
		if _, err := ParseColor(h); err != nil {
			return Quantize{}, err
		}
	}
	if !(max > min) {
		return Quantize{}, fmt.Errorf("%w: quantize domain [%g,%g] is empty", ErrPalette, min, max)
	}
	return Quantize{Domain: Domain{Min: min, Max: max}, colors: append([]string(nil), colors...)}, nil
}

// Color returns the bin color for v. Values past either end use the end bin.
func (q Quantize) Color(v float64) string {
	if math.IsNaN(v) || len(q.colors) == 0 {
		return NoColor
	}
	n := len(q.colors)
	i := int(math.Floor((v - q.Domain.Min) / (q.Domain.Max - q.Domain.Min) * float64(n)))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return q.colors[i]
}

// Thresholds returns the n-1 inner bin boundaries.
func (q Quantize) Thresholds() []float64 {
	n := len(q.colors)
	out := make([]float64, 0, n)
	for i := 1; i < n; i++ {
		out = append(out, q.Domain.Min+(q.Domain.Max-q.Domain.Min)*float64(i)/float64(n))
	}
	return out
}

// Bins returns one legend entry per color.
func (q Quantize) Bins() []QuantizeBin {
	th := q.Thresholds()
	out := make([]QuantizeBin, len(q.colors))
	for i, c := range q.colors {
		lo, hi := q.Domain.Min, q.Domain.Max
		if i > 0 {
			lo = th[i-1]
		}
		if i < len(th) {
			hi = th[i]
		}
		out[i] = QuantizeBin{Min: lo, Max: hi, Color: c}
	}
	return out
}

// Ordinal hands out palette colors to categories in the order they are first
// seen, cycling once the palette runs out.
type Ordinal struct {
	colors []drawing.Color
	index  map[string]int
}

// NewOrdinal parses a non-empty palette.
func NewOrdinal(colors []string) (*Ordinal, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: empty ordinal palette", ErrPalette)
	}
	o := &Ordinal{colors: make([]drawing.Color, len(colors)), index: make(map[string]int)}
	for i, s := range colors {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		o.colors[i] = c
	}
	return o, nil
}

// Color returns the color for category, assigning the next one if it is new.
func (o *Ordinal) Color(category string) drawing.Color {
	i, ok := o.index[category]
	if !ok {
		i = len(o.index)
		o.index[category] = i
	}
	return o.colors[i%len(o.colors)]
}
