package scene

import "math"

// Kind names a primitive type on the wire.
type Kind string

const (
	KindRect   Kind = "rect"
	KindPath   Kind = "path"
	KindCircle Kind = "circle"
	KindText   Kind = "text"
	KindAxis   Kind = "axis"
)

// Primitive is one drawable element.
type Primitive interface {
	Kind() Kind
	// Entrance returns the primitive's entrance animation, or nil.
	Entrance() *Transition
	// At returns the primitive as it looks when its entrance is progress of
	// the way done, with progress already eased. At(1) is the primitive itself.
	At(progress float64) Primitive
}

// Point is a vertex in plot coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bar.
type Rect struct {
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	W     float64     `json:"w"`
	H     float64     `json:"h"`
	Fill  string      `json:"fill"`
	Anim  *Transition `json:"transition,omitempty"`
	Datum int         `json:"datum"`
}

func (r Rect) Kind() Kind { return KindRect }
func (r Rect) Entrance() *Transition { return r.Anim }

// At grows the bar upward from its bottom edge.
func (r Rect) At(p float64) Primitive {
	if p >= 1 {
		return r
	}
	p = clamp01(p)
	bottom := r.Y + r.H
	r.H *= p
	r.Y = bottom - r.H
	return r
}

// Curve selects how a path interpolates between vertices.
type Curve string

const (
	CurveLinear    Curve = "linear"
	CurveMonotoneX Curve = "monotone-x"
)

// Path is a polyline or closed area.
type Path struct {
	Vertices    []Point     `json:"vertices"`
	Stroke      string      `json:"stroke,omitempty"`
	StrokeWidth float64     `json:"stroke_width,omitempty"`
	Fill        string      `json:"fill,omitempty"`
	Closed      bool        `json:"closed,omitempty"`
	Curve       Curve       `json:"curve,omitempty"`

	// Hidden is the fraction of the path not yet revealed. Zero means fully
	// drawn; how it is hidden depends on the entrance's Reveal.
	Hidden float64     `json:"hidden,omitempty"`
	Anim   *Transition `json:"transition,omitempty"`
}

func (p Path) Kind() Kind { return KindPath }
func (p Path) Entrance() *Transition { return p.Anim }

func (p Path) At(progress float64) Primitive {
	if progress >= 1 {
		return p
	}
	p.Hidden = 1 - clamp01(progress)
	return p
}

// Circle is a point marker or a packed node. Stroke is optional.
type Circle struct {
	CX     float64     `json:"cx"`
	CY     float64     `json:"cy"`
	R      float64     `json:"r"`
	Fill   string      `json:"fill"`
	Stroke string      `json:"stroke,omitempty"`
	Anim   *Transition `json:"transition,omitempty"`
	Datum  int         `json:"datum"`
}

func (c Circle) Kind() Kind { return KindCircle }
func (c Circle) Entrance() *Transition { return c.Anim }

// At grows the radius from zero.
func (c Circle) At(p float64) Primitive {
	if p >= 1 {
		return c
	}
	c.R *= clamp01(p)
	return c
}

// Anchor is the horizontal alignment of a label.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Text is a label.
type Text struct {
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Content string      `json:"content"`
	Anchor  Anchor      `json:"anchor,omitempty"`
	Fill    string      `json:"fill,omitempty"`
	Size    float64     `json:"size,omitempty"`
	Anim    *Transition `json:"transition,omitempty"`
}

func (t Text) Kind() Kind { return KindText }
func (t Text) Entrance() *Transition { return t.Anim }

// At leaves labels untouched until their entrance ends.
func (t Text) At(p float64) Primitive {
	if p >= 1 {
		return t
	}
	t.Content = ""
	return t
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
