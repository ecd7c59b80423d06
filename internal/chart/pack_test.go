package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackSiblings(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 12, 40} {
		discs := make([]*disc, n)
		for i := range discs {
			discs[i] = &disc{r: 1 + float64(i*7%11)/2}
		}
		e := packSiblings(discs)
		require.Greater(t, e, 0.0)

		for i, a := range discs {
			assert.LessOrEqual(t, math.Hypot(a.x, a.y)+a.r, e+packEps, "n=%d: circle %d inside the enclosure", n, i)
			for _, b := range discs[i+1:] {
				assert.GreaterOrEqual(t, math.Hypot(a.x-b.x, a.y-b.y), a.r+b.r-packEps, "n=%d: circles overlap", n)
			}
		}
	}
	assert.Zero(t, packSiblings(nil))
}

func TestPackSiblings_PairIsTangent(t *testing.T) {
	a, b := &disc{r: 3}, &disc{r: 1}
	assert.InDelta(t, 4, packSiblings([]*disc{a, b}), 1e-12)
	assert.InDelta(t, 4, b.x-a.x, 1e-12)
}

func TestEnclose(t *testing.T) {
	e := enclose([]*disc{{x: -2, r: 1}, {x: 2, r: 1}, {y: 5, r: 0.5}})
	for _, c := range []disc{{x: -2, r: 1}, {x: 2, r: 1}, {y: 5, r: 0.5}} {
		assert.LessOrEqual(t, math.Hypot(c.x-e.x, c.y-e.y)+c.r, e.r+packEps)
	}
	assert.InDelta(t, 5.5-16.25/9, e.r, 1e-9, "tangent to all three")

	one := enclose([]*disc{{x: 1, y: 2, r: 3}})
	assert.Equal(t, disc{x: 1, y: 2, r: 3}, one)
}

func TestPackLayout_FitsBox(t *testing.T) {
	root := &packNode{children: []*packNode{
		{children: []*packNode{{}, {}, {}}},
		{children: []*packNode{{}}},
		{},
	}}
	for i, l := range root.leaves() {
		l.rec.Value = float64(i + 1)
	}
	root.sum()
	root.sortByValue()
	packLayout(root, 400, 200, 4)

	assert.InDelta(t, 200, root.x, 1e-9)
	assert.InDelta(t, 100, root.y, 1e-9)
	assert.InDelta(t, 100, root.r, 1e-9)
	var walk func(n *packNode)
	walk = func(n *packNode) {
		for _, c := range n.children {
			assert.LessOrEqual(t, math.Hypot(c.x-n.x, c.y-n.y)+c.r, n.r+packEps)
			walk(c)
		}
	}
	walk(root)
}
