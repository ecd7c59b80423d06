package scene

import "math"

// Segment is one cubic Bézier piece of a curve.
type Segment struct {
	C1 Point `json:"c1"`
	C2 Point `json:"c2"`
	To Point `json:"to"`
}

// MonotoneX returns the cubic segments of a curve through pts that preserves
// monotonicity in y, assuming x is monotonic. Vertices are not moved.
func MonotoneX(pts []Point) []Segment {
	n := len(pts)
	if n < 2 {
		return nil
	}
	if n == 2 {
		s := 0.0
		if h := pts[1].X - pts[0].X; h != 0 {
			s = (pts[1].Y - pts[0].Y) / h
		}
		return []Segment{cubic(pts[0], pts[1], s, s)}
	}

	out := make([]Segment, 0, n-1)
	t1 := slope3(pts[0], pts[1], pts[2])
	out = append(out, cubic(pts[0], pts[1], slope2(pts[0], pts[1], t1), t1))
	for k := 3; k < n; k++ {
		t0 := t1
		t1 = slope3(pts[k-2], pts[k-1], pts[k])
		out = append(out, cubic(pts[k-2], pts[k-1], t0, t1))
	}
	out = append(out, cubic(pts[n-2], pts[n-1], t1, slope2(pts[n-2], pts[n-1], t1)))
	return out
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// slope3 is the tangent at p1 given its neighbours.
func slope3(p0, p1, p2 Point) float64 {
	h0 := p1.X - p0.X
	h1 := p2.X - p1.X
	s0 := (p1.Y - p0.Y) / h0
	s1 := (p2.Y - p1.Y) / h1
	p := (s0*h1 + s1*h0) / (h0 + h1)
	v := (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// slope2 is the one-sided tangent at an end point.
func slope2(p0, p1 Point, t float64) float64 {
	h := p1.X - p0.X
	if h == 0 {
		return t
	}
	return (3*(p1.Y-p0.Y)/h - t) / 2
}

func cubic(p0, p1 Point, t0, t1 float64) Segment {
	dx := (p1.X - p0.X) / 3
	return Segment{
		C1: Point{X: p0.X + dx, Y: p0.Y + dx*t0},
		C2: Point{X: p1.X - dx, Y: p1.Y - dx*t1},
		To: p1,
	}
}

// Flatten approximates the path outline as a polyline.
func Flatten(p Path) []Point {
	if p.Curve != CurveMonotoneX || len(p.Vertices) < 3 {
		return append([]Point(nil), p.Vertices...)
	}
	const steps = 8
	out := []Point{p.Vertices[0]}
	from := p.Vertices[0]
	for _, s := range MonotoneX(p.Vertices) {
		for i := 1; i <= steps; i++ {
			out = append(out, bezierAt(from, s, float64(i)/steps))
		}
		from = s.To
	}
	return out
}

func bezierAt(p0 Point, s Segment, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*s.C1.X + c*s.C2.X + d*s.To.X,
		Y: a*p0.Y + b*s.C1.Y + c*s.C2.Y + d*s.To.Y,
	}
}

// Trim keeps the leading (1-hidden) share of a polyline by length.
func Trim(pts []Point, hidden float64) []Point {
	hidden = clamp01(hidden)
	if hidden == 0 || len(pts) < 2 {
		return pts
	}
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += dist(pts[i-1], pts[i])
	}
	keep := total * (1 - hidden)
	out := []Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		d := dist(pts[i-1], pts[i])
		if d >= keep {
			if d > 0 {
				t := keep / d
				out = append(out, Point{
					X: pts[i-1].X + (pts[i].X-pts[i-1].X)*t,
					Y: pts[i-1].Y + (pts[i].Y-pts[i-1].Y)*t,
				})
			}
			return out
		}
		keep -= d
		out = append(out, pts[i])
	}
	return out
}

func dist(a, b Point) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Extent returns the bounding box of the vertices.
func (p Path) Extent() (min, max Point) {
	if len(p.Vertices) == 0 {
		return Point{}, Point{}
	}
	min, max = p.Vertices[0], p.Vertices[0]
	for _, v := range p.Vertices[1:] {
		min.X, min.Y = math.Min(min.X, v.X), math.Min(min.Y, v.Y)
		max.X, max.Y = math.Max(max.X, v.X), math.Max(max.Y, v.Y)
	}
	return min, max
}
