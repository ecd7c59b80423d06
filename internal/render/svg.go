package render

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scene"
)

const (
	tickSize     = 6.0
	defaultFont  = "sans-serif"
	fontSize     = 10.0
	axisColor    = "#000000"
	defaultWidth = 1.5
)

// ErrUnsupported is returned for primitives a surface cannot draw.
var ErrUnsupported = errors.New("unsupported primitive")

// SVG is a Surface that writes a standalone SVG document. Coordinates are
// wrapped in a group translated by the scene margin.
type SVG struct {
	width, height float64
	margin        domain.Margin
	body          strings.Builder
	clips         int
}

// NewSVG returns an empty SVG surface.
func NewSVG() *SVG { return &SVG{} }

func (s *SVG) Clear() {
	s.body.Reset()
	s.clips = 0
}

func (s *SVG) Resize(width, height float64, margin domain.Margin) {
	s.width, s.height, s.margin = width, height, margin
}

func (s *SVG) Draw(p scene.Primitive) error {
	switch v := p.(type) {
	case scene.Rect:
		s.rect(v)
	case scene.Circle:
		s.circle(v)
	case scene.Path:
		s.path(v)
	case scene.Text:
		s.text(v)
	case scene.Axis:
		s.axis(v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, p)
	}
	return nil
}

// WriteTo writes the document.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(s.width), num(s.height), num(s.width), num(s.height))
	b.WriteString("\n")
	fmt.Fprintf(&b, `<g transform="translate(%s)">`, fmtPoint(s.margin.Left, s.margin.Top))
	b.WriteString("\n")
	b.WriteString(s.body.String())
	b.WriteString("</g>\n</svg>\n")
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// String returns the document.
func (s *SVG) String() string {
	var b strings.Builder
	_, _ = s.WriteTo(&b)
	return b.String()
}

func (s *SVG) rect(r scene.Rect) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		num(r.X), num(r.Y), num(r.W), num(r.H), fill(r.Fill))
}

func (s *SVG) circle(c scene.Circle) {
	if c.R <= 0 {
		return
	}
	attrs := fmt.Sprintf(`cx="%s" cy="%s" r="%s" fill="%s"`, num(c.CX), num(c.CY), num(c.R), fill(c.Fill))
	if c.Stroke != "" {
		attrs += fmt.Sprintf(` stroke="%s"`, html.EscapeString(c.Stroke))
	}
	fmt.Fprintf(&s.body, "<circle %s/>\n", attrs)
}

func (s *SVG) path(p scene.Path) {
	d := pathData(p)
	if d == "" {
		return
	}
	attrs := fmt.Sprintf(`d="%s" fill="%s"`, d, fill(p.Fill))
	if p.Stroke != "" {
		w := p.StrokeWidth
		if w <= 0 {
			w = defaultWidth
		}
		attrs += fmt.Sprintf(` stroke="%s" stroke-width="%s"`, html.EscapeString(p.Stroke), num(w))
	}

	if p.Hidden > 0 {
		if p.Anim != nil && p.Anim.Reveal == scene.RevealClip {
			lo, hi := p.Extent()
			id := fmt.Sprintf("reveal-%d", s.clips)
			s.clips++
			visible := (hi.X - lo.X) * (1 - p.Hidden)
			fmt.Fprintf(&s.body, `<clipPath id="%s"><rect x="%s" y="%s" width="%s" height="%s"/></clipPath>`+"\n",
				id, num(lo.X), num(lo.Y), num(visible), num(hi.Y-lo.Y))
			attrs += fmt.Sprintf(` clip-path="url(#%s)"`, id)
		} else {
			attrs += fmt.Sprintf(` pathLength="1" stroke-dasharray="1" stroke-dashoffset="%s"`, num(p.Hidden))
		}
	}
	fmt.Fprintf(&s.body, "<path %s/>\n", attrs)
}

func pathData(p scene.Path) string {
	if len(p.Vertices) == 0 {
		return ""
	}
	var b strings.Builder
	first := p.Vertices[0]
	fmt.Fprintf(&b, "M%s", fmtPoint(first.X, first.Y))
	if p.Curve == scene.CurveMonotoneX && len(p.Vertices) > 2 {
		for _, seg := range scene.MonotoneX(p.Vertices) {
			fmt.Fprintf(&b, "C%s,%s,%s", fmtPoint(seg.C1.X, seg.C1.Y), fmtPoint(seg.C2.X, seg.C2.Y), fmtPoint(seg.To.X, seg.To.Y))
		}
	} else {
		for _, v := range p.Vertices[1:] {
			fmt.Fprintf(&b, "L%s", fmtPoint(v.X, v.Y))
		}
	}
	if p.Closed {
		b.WriteString("Z")
	}
	return b.String()
}

func (s *SVG) text(t scene.Text) {
	if t.Content == "" {
		return
	}
	size := t.Size
	if size <= 0 {
		size = fontSize
	}
	anchor := t.Anchor
	if anchor == "" {
		anchor = scene.AnchorStart
	}
	color := t.Fill
	if color == "" {
		color = axisColor
	}
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" text-anchor="%s" font-family="%s" font-size="%s" fill="%s">%s</text>`+"\n",
		num(t.X), num(t.Y), anchor, defaultFont, num(size), html.EscapeString(color), html.EscapeString(t.Content))
}

func (s *SVG) axis(a scene.Axis) {
	fmt.Fprintf(&s.body, `<g class="axis axis-%s" transform="translate(%s)">`+"\n", a.Orient, fmtPoint(a.X, a.Y))
	x2, y2 := a.Length, 0.0
	if a.Orient.Vertical() {
		x2, y2 = 0, a.Length
	}
	fmt.Fprintf(&s.body, `<line x1="0" y1="0" x2="%s" y2="%s" stroke="%s"/>`+"\n", num(x2), num(y2), axisColor)
	for _, t := range a.Ticks {
		tx1, ty1, tx2, ty2 := a.TickLine(t, tickSize)
		fmt.Fprintf(&s.body, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n", num(tx1), num(ty1), num(tx2), num(ty2), axisColor)
		lx, ly, anchor := a.LabelAt(t, tickSize+3, fontSize)
		s.text(scene.Text{X: lx, Y: ly, Content: t.Label, Anchor: anchor})
	}
	s.body.WriteString("</g>\n")
}

func fill(c string) string {
	if c == "" {
		return "none"
	}
	return html.EscapeString(c)
}
