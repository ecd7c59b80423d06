package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scene"
	"github.com/fogleman/gg"
)

// ErrNotSized is returned when drawing on a raster before Resize.
var ErrNotSized = errors.New("raster surface has no size")

// Raster is a Surface backed by a gg image context.
type Raster struct {
	Background string

	dc     *gg.Context
	margin domain.Margin
}

// NewRaster returns a surface with a white background.
func NewRaster() *Raster { return &Raster{Background: "#ffffff"} }

func (r *Raster) Clear() { r.dc = nil }

// Resize allocates a fresh image. Sides under one pixel are rounded up so
// an unmeasured container still encodes.
func (r *Raster) Resize(width, height float64, margin domain.Margin) {
	w := int(math.Max(1, math.Round(width)))
	h := int(math.Max(1, math.Round(height)))
	r.dc = gg.NewContext(w, h)
	r.margin = margin
	if c, ok := paint(r.Background); ok {
		r.dc.SetColor(c)
		r.dc.Clear()
	}
}

func (r *Raster) Draw(p scene.Primitive) error {
	if r.dc == nil {
		return ErrNotSized
	}
	r.dc.Push()
	defer r.dc.Pop()
	r.dc.Translate(r.margin.Left, r.margin.Top)

	switch v := p.(type) {
	case scene.Rect:
		if c, ok := paint(v.Fill); ok && v.W > 0 && v.H > 0 {
			r.dc.SetColor(c)
			r.dc.DrawRectangle(v.X, v.Y, v.W, v.H)
			r.dc.Fill()
		}
	case scene.Circle:
		if v.R <= 0 {
			break
		}
		r.dc.DrawCircle(v.CX, v.CY, v.R)
		if c, ok := paint(v.Fill); ok {
			r.dc.SetColor(c)
			r.dc.FillPreserve()
		}
		if c, ok := paint(v.Stroke); ok {
			r.dc.SetColor(c)
			r.dc.SetLineWidth(1)
			r.dc.StrokePreserve()
		}
		r.dc.ClearPath()
	case scene.Path:
		r.path(v)
	case scene.Text:
		r.text(v)
	case scene.Axis:
		r.axis(v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, p)
	}
	return nil
}

func (r *Raster) path(p scene.Path) {
	if len(p.Vertices) == 0 {
		return
	}
	clip := p.Hidden > 0 && p.Anim != nil && p.Anim.Reveal == scene.RevealClip
	if clip {
		lo, hi := p.Extent()
		r.dc.DrawRectangle(lo.X, lo.Y, (hi.X-lo.X)*(1-p.Hidden), hi.Y-lo.Y)
		r.dc.Clip()
		defer r.dc.ResetClip()
	}

	if p.Hidden > 0 && !clip {
		pts := scene.Trim(scene.Flatten(p), p.Hidden)
		r.polyline(pts, false)
	} else if p.Curve == scene.CurveMonotoneX && len(p.Vertices) > 2 {
		r.dc.MoveTo(p.Vertices[0].X, p.Vertices[0].Y)
		for _, s := range scene.MonotoneX(p.Vertices) {
			r.dc.CubicTo(s.C1.X, s.C1.Y, s.C2.X, s.C2.Y, s.To.X, s.To.Y)
		}
		if p.Closed {
			r.dc.ClosePath()
		}
	} else {
		r.polyline(p.Vertices, p.Closed)
	}

	if c, ok := paint(p.Fill); ok {
		r.dc.SetColor(c)
		r.dc.FillPreserve()
	}
	if c, ok := paint(p.Stroke); ok {
		w := p.StrokeWidth
		if w <= 0 {
			w = defaultWidth
		}
		r.dc.SetColor(c)
		r.dc.SetLineWidth(w)
		r.dc.StrokePreserve()
	}
	r.dc.ClearPath()
}

func (r *Raster) polyline(pts []scene.Point, closed bool) {
	for i, v := range pts {
		if i == 0 {
			r.dc.MoveTo(v.X, v.Y)
			continue
		}
		r.dc.LineTo(v.X, v.Y)
	}
	if closed {
		r.dc.ClosePath()
	}
}

func (r *Raster) text(t scene.Text) {
	if t.Content == "" {
		return
	}
	c, ok := paint(t.Fill)
	if !ok {
		c, _ = paint(axisColor)
	}
	r.dc.SetColor(c)
	ax := 0.0
	switch t.Anchor {
	case scene.AnchorMiddle:
		ax = 0.5
	case scene.AnchorEnd:
		ax = 1
	}
	r.dc.DrawStringAnchored(t.Content, t.X, t.Y, ax, 0)
}

func (r *Raster) axis(a scene.Axis) {
	c, _ := paint(axisColor)
	r.dc.SetColor(c)
	r.dc.SetLineWidth(1)
	r.dc.Translate(a.X, a.Y)
	if a.Orient.Vertical() {
		r.dc.DrawLine(0, 0, 0, a.Length)
	} else {
		r.dc.DrawLine(0, 0, a.Length, 0)
	}
	for _, t := range a.Ticks {
		r.dc.DrawLine(a.TickLine(t, tickSize))
	}
	r.dc.Stroke()
	for _, t := range a.Ticks {
		x, y, anchor := a.LabelAt(t, tickSize+3, fontSize)
		r.text(scene.Text{X: x, Y: y, Content: t.Label, Anchor: anchor})
	}
}

// EncodePNG writes the current image.
func (r *Raster) EncodePNG(w io.Writer) error {
	if r.dc == nil {
		return ErrNotSized
	}
	if err := r.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
