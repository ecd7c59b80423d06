package domain

// Dimensions is the rendered box of a container in pixels. The zero value
// means the container has not been measured yet.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measured reports whether both sides are positive.
func (d Dimensions) Measured() bool {
	return d.Width > 0 && d.Height > 0
}

// Clamp replaces negative or NaN sides with zero.
func (d Dimensions) Clamp() Dimensions {
	if !(d.Width > 0) {
		d.Width = 0
	}
	if !(d.Height > 0) {
		d.Height = 0
	}
	return d
}

// Margin is a fixed four-sided inset.
type Margin struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// DefaultMargin is the inset every chart on the site uses unless configured.
var DefaultMargin = Margin{Top: 30, Right: 30, Bottom: 50, Left: 50}

// Bounds is the drawable rectangle left after subtracting margins.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether nothing can be drawn.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Inset subtracts the margin from the dimensions, never going below zero.
func (d Dimensions) Inset(m Margin) Bounds {
	d = d.Clamp()
	w := d.Width - m.Left - m.Right
	h := d.Height - m.Top - m.Bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Bounds{Width: w, Height: h}
}
