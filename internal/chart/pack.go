package chart

import (
	"cmp"
	"math"
	"slices"

	"github.com/couchcryptid/climate-story/internal/domain"
)

// disc is a circle being packed.
type disc struct{ x, y, r float64 }

// packNode is one circle of a pack layout. value is the node's own weight
// plus that of every descendant; leaves are sized by it, parents by their
// packed children.
type packNode struct {
	disc
	rec      domain.Record
	value    float64
	depth    int
	children []*packNode
}

// sum fills in value bottom-up.
func (n *packNode) sum() float64 {
	n.value = max(0, n.rec.Value)
	for _, c := range n.children {
		n.value += c.sum()
	}
	return n.value
}

// sortByValue orders every level largest first. Equal values keep their
// insertion order.
func (n *packNode) sortByValue() {
	slices.SortStableFunc(n.children, func(a, b *packNode) int { return cmp.Compare(b.value, a.value) })
	for _, c := range n.children {
		c.sortByValue()
	}
}

// leaves returns the childless nodes in pre-order.
func (n *packNode) leaves() []*packNode {
	if len(n.children) == 0 {
		return []*packNode{n}
	}
	var out []*packNode
	for _, c := range n.children {
		out = append(out, c.leaves()...)
	}
	return out
}

// packLayout places the tree inside a w×h box with padding between
// siblings. Leaves get an area proportional to their value. A first pass
// with half the padding finds the overall radius, which the second pass uses
// to turn padding into layout units.
func packLayout(root *packNode, w, h, padding float64) {
	root.x, root.y = w/2, h/2
	root.sizeLeaves()
	root.packChildren(padding * 0.5)
	if root.r <= 0 {
		return
	}
	side := math.Min(w, h)
	root.packChildren(padding * root.r / side)
	if root.r <= 0 {
		return
	}
	root.translate(nil, side/(2*root.r))
}

func (n *packNode) sizeLeaves() {
	if len(n.children) == 0 {
		n.r = math.Sqrt(n.value)
		return
	}
	for _, c := range n.children {
		c.sizeLeaves()
	}
}

func (n *packNode) packChildren(pad float64) {
	if len(n.children) == 0 {
		return
	}
	discs := make([]*disc, len(n.children))
	for i, c := range n.children {
		c.packChildren(pad)
		c.r += pad
		discs[i] = &c.disc
	}
	e := packSiblings(discs)
	for _, c := range n.children {
		c.r -= pad
	}
	n.r = e + pad
}

// translate scales by k and moves children from parent-relative to absolute
// coordinates.
func (n *packNode) translate(parent *packNode, k float64) {
	n.r *= k
	if parent != nil {
		n.x = parent.x + k*n.x
		n.y = parent.y + k*n.y
	}
	for _, c := range n.children {
		c.translate(n, k)
	}
}

// link is an entry of the front chain, the circular list of circles on the
// outside of the pack so far.
type link struct {
	d          *disc
	next, prev *link
}

// packSiblings lays circles tangent to each other in order, each as close to
// the centroid as the front chain allows, then centres their enclosing
// circle on the origin and returns its radius.
func packSiblings(circles []*disc) float64 {
	n := len(circles)
	if n == 0 {
		return 0
	}
	a := circles[0]
	a.x, a.y = 0, 0
	if n == 1 {
		return a.r
	}
	b := circles[1]
	a.x, b.x, b.y = -b.r, a.r, 0
	if n == 2 {
		return a.r + b.r
	}
	place(b, a, circles[2])

	la, lb, lc := &link{d: a}, &link{d: b}, &link{d: circles[2]}
	la.next, lc.prev = lb, lb
	lb.next, la.prev = lc, lc
	lc.next, lb.prev = la, la

next:
	for i := 3; i < n; i++ {
		c := circles[i]
		place(la.d, lb.d, c)

		// Walk both ways along the chain to the nearest circle c overlaps.
		j, k := lb.next, la.prev
		sj, sk := lb.d.r, la.d.r
		for {
			if sj <= sk {
				if intersects(j.d, c) {
					lb = j
					la.next, lb.prev = lb, la
					i--
					continue next
				}
				sj += j.d.r
				j = j.next
			} else {
				if intersects(k.d, c) {
					la = k
					la.next, lb.prev = lb, la
					i--
					continue next
				}
				sk += k.d.r
				k = k.prev
			}
			if j == k.next {
				break
			}
		}

		lc = &link{d: c, prev: la, next: lb}
		la.next, lb.prev = lc, lc
		lb = lc

		// Continue from the pair closest to the centroid.
		best := score(la)
		for l := lc.next; l != lb; l = l.next {
			if s := score(l); s < best {
				la, best = l, s
			}
		}
		lb = la.next
	}

	chain := []*disc{lb.d}
	for l := lb.next; l != lb; l = l.next {
		chain = append(chain, l.d)
	}
	e := enclose(chain)
	for _, d := range circles {
		d.x -= e.x
		d.y -= e.y
	}
	return e.r
}

// place puts c tangent to both a and b.
func place(b, a, c *disc) {
	dx, dy := b.x-a.x, b.y-a.y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		c.x, c.y = a.x+c.r, a.y
		return
	}
	a2 := (a.r + c.r) * (a.r + c.r)
	b2 := (b.r + c.r) * (b.r + c.r)
	if a2 > b2 {
		x := (d2 + b2 - a2) / (2 * d2)
		y := math.Sqrt(math.Max(0, b2/d2-x*x))
		c.x = b.x - x*dx - y*dy
		c.y = b.y - x*dy + y*dx
		return
	}
	x := (d2 + a2 - b2) / (2 * d2)
	y := math.Sqrt(math.Max(0, a2/d2-x*x))
	c.x = a.x + x*dx - y*dy
	c.y = a.y + x*dy + y*dx
}

func intersects(a, b *disc) bool {
	dr := a.r + b.r - 1e-6
	dx, dy := b.x-a.x, b.y-a.y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

// score is the squared distance from the origin to the weighted midpoint of
// l and its successor.
func score(l *link) float64 {
	a, b := l.d, l.next.d
	ab := a.r + b.r
	if ab == 0 {
		return a.x*a.x + a.y*a.y
	}
	dx := (a.x*b.r + b.x*a.r) / ab
	dy := (a.y*b.r + b.y*a.r) / ab
	return dx*dx + dy*dy
}

// enclose returns the smallest circle containing every circle, grown
// incrementally from a basis of at most three circles.
func enclose(circles []*disc) disc {
	var (
		basis []disc
		e     disc
		have  bool
	)
	for i := 0; i < len(circles); {
		p := *circles[i]
		if have && enclosesWeak(e, p) {
			i++
			continue
		}
		next, ok := extendBasis(basis, p)
		if !ok {
			return cover(e, circles)
		}
		basis = next
		e = encloseBasis(basis)
		have = true
		i = 0
	}
	return e
}

// cover grows e around its centre until it holds every circle. It only runs
// when rounding defeats the exact basis search.
func cover(e disc, circles []*disc) disc {
	for _, c := range circles {
		e.r = math.Max(e.r, math.Hypot(c.x-e.x, c.y-e.y)+c.r)
	}
	return e
}

func extendBasis(basis []disc, p disc) ([]disc, bool) {
	if enclosesWeakAll(p, basis) {
		return []disc{p}, true
	}
	for _, b := range basis {
		if enclosesNot(p, b) && enclosesWeakAll(encloseBasis2(b, p), basis) {
			return []disc{b, p}, true
		}
	}
	for i := 0; i < len(basis)-1; i++ {
		for j := i + 1; j < len(basis); j++ {
			bi, bj := basis[i], basis[j]
			if enclosesNot(encloseBasis2(bi, bj), p) &&
				enclosesNot(encloseBasis2(bi, p), bj) &&
				enclosesNot(encloseBasis2(bj, p), bi) &&
				enclosesWeakAll(encloseBasis3(bi, bj, p), basis) {
				return []disc{bi, bj, p}, true
			}
		}
	}
	return nil, false
}

func enclosesNot(a, b disc) bool {
	dr := a.r - b.r
	dx, dy := b.x-a.x, b.y-a.y
	return dr < 0 || dr*dr < dx*dx+dy*dy
}

func enclosesWeak(a, b disc) bool {
	dr := a.r - b.r + math.Max(math.Max(a.r, b.r), 1)*1e-9
	dx, dy := b.x-a.x, b.y-a.y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func enclosesWeakAll(a disc, basis []disc) bool {
	for _, b := range basis {
		if !enclosesWeak(a, b) {
			return false
		}
	}
	return true
}

func encloseBasis(basis []disc) disc {
	switch len(basis) {
	case 1:
		return basis[0]
	case 2:
		return encloseBasis2(basis[0], basis[1])
	default:
		return encloseBasis3(basis[0], basis[1], basis[2])
	}
}

func encloseBasis2(a, b disc) disc {
	x21, y21, r21 := b.x-a.x, b.y-a.y, b.r-a.r
	l := math.Hypot(x21, y21)
	if l == 0 {
		return disc{x: a.x, y: a.y, r: math.Max(a.r, b.r)}
	}
	return disc{
		x: (a.x + b.x + x21/l*r21) / 2,
		y: (a.y + b.y + y21/l*r21) / 2,
		r: (l + a.r + b.r) / 2,
	}
}

// encloseBasis3 solves for the circle internally tangent to a, b and c.
func encloseBasis3(a, b, c disc) disc {
	a2, a3 := a.x-b.x, a.x-c.x
	b2, b3 := a.y-b.y, a.y-c.y
	c2, c3 := b.r-a.r, c.r-a.r
	d1 := a.x*a.x + a.y*a.y - a.r*a.r
	d2 := d1 - b.x*b.x - b.y*b.y + b.r*b.r
	d3 := d1 - c.x*c.x - c.y*c.y + c.r*c.r
	ab := a3*b2 - a2*b3
	xa := (b2*d3-b3*d2)/(ab*2) - a.x
	xb := (b3*c2 - b2*c3) / ab
	ya := (a3*d2-a2*d3)/(ab*2) - a.y
	yb := (a2*c3 - a3*c2) / ab
	qa := xb*xb + yb*yb - 1
	qb := 2 * (a.r + xa*xb + ya*yb)
	qc := xa*xa + ya*ya - a.r*a.r
	var r float64
	if math.Abs(qa) > 1e-6 {
		r = -(qb + math.Sqrt(qb*qb-4*qa*qc)) / (2 * qa)
	} else {
		r = -qc / qb
	}
	return disc{x: a.x + xa + xb*r, y: a.y + ya + yb*r, r: r}
}
