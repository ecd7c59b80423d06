package chart

import (
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// Cluster packs the same per-country shares as Contributions into circles.
// Countries above clusterGroup percent become groups and the rest are dealt
// round-robin beneath them.
type Cluster struct{}

const (
	clusterGroup   = 3.0
	clusterPadding = 4

	clusterGroupGrow = 1200 * time.Millisecond
	clusterLeafGrow  = 2000 * time.Millisecond
	clusterLabelFade = 2200 * time.Millisecond

	// Leaves narrower than this carry no code label.
	clusterLabelRadius = 12
)

func (Cluster) ID() string { return "cluster" }
func (Cluster) Title() string { return "Largest contributors" }
func (Cluster) Sources() []dataset.Source { return contributionSources }

func (Cluster) DefaultLayout() Layout {
	return baseLayout("#e0ac2b", "#6689c6", "#a4c969", "#e85252", "#9a6fb0", "#a53253", "#7f7f7f")
}

// Years lists the selectable snapshot years.
func (Cluster) Years(d Data) []int { return Contributions{}.Years(d) }

// clusterTree builds world → groups → countries from one year's rows. With
// no country above the group threshold every country is a group of its own.
func clusterTree(snapshot []domain.Record) *packNode {
	root := &packNode{}
	var small []domain.Record
	for _, r := range snapshot {
		if r.Value > clusterGroup {
			root.children = append(root.children, &packNode{rec: r, depth: 1})
		} else {
			small = append(small, r)
		}
	}
	if len(root.children) == 0 {
		for _, r := range small {
			root.children = append(root.children, &packNode{rec: r, depth: 1})
		}
	} else {
		for i, r := range small {
			g := root.children[i%len(root.children)]
			g.children = append(g.children, &packNode{rec: r, depth: 2})
		}
	}
	root.sum()
	root.sortByValue()
	return root
}

func (c Cluster) Render(in Input) (Plot, error) {
	s, err := requireSeries(in.Data, "contributions")
	if err != nil {
		return Plot{}, err
	}
	color, err := scale.NewOrdinal(in.Layout.Palette)
	if err != nil {
		return Plot{}, fmt.Errorf("cluster palette: %w", err)
	}

	sc, b, ok := canvas(c.ID(), in)
	rows := countries(s)
	year := in.Params.Year
	if year == 0 && !rows.Empty() {
		year = rows.Records[0].Key
	}
	// Square roots of non-positive shares have no area to pack.
	snapshot := rows.Filter(func(r domain.Record) bool { return r.Key == year && r.Value > 0 }).Records
	if !ok || len(snapshot) == 0 {
		return Plot{Scene: sc}, nil
	}

	root := clusterTree(snapshot)
	packLayout(root, b.Width, b.Height, clusterPadding)

	groups := make([]scene.Primitive, 0, len(root.children))
	labels := make([]scene.Primitive, 0, len(root.children))
	for i, g := range root.children {
		col := color.Color(g.rec.Label)
		groups = append(groups, scene.Circle{
			CX:     g.x,
			CY:     g.y,
			R:      g.r,
			Fill:   scale.RGBA(col, 0.1),
			Stroke: scale.RGBA(col, 0.3),
			Anim:   &scene.Transition{Duration: clusterGroupGrow, Ease: scene.EaseCubicOut, Reveal: scene.RevealGrow},
			Datum:  i,
		})
		labels = append(labels, scene.Text{
			X:       g.x,
			Y:       g.y - g.r - 6,
			Content: fmt.Sprintf("%s - %.2f %%", g.rec.Label, g.rec.Value),
			Anchor:  scene.AnchorMiddle,
			Size:    12,
			Anim:    &scene.Transition{Duration: clusterLabelFade, Ease: scene.EaseLinear},
		})
	}

	var (
		leaves []scene.Primitive
		discs  []cursor.Disc
	)
	for _, g := range root.children {
		col := color.Color(g.rec.Label)
		for _, l := range g.leaves() {
			leaves = append(leaves, scene.Circle{
				CX:     l.x,
				CY:     l.y,
				R:      l.r,
				Fill:   scale.RGBA(col, 0.2),
				Stroke: scale.Hex(col),
				Anim:   &scene.Transition{Duration: clusterLeafGrow, Ease: scene.EaseCubicOut, Reveal: scene.RevealGrow},
				Datum:  len(discs),
			})
			if l.r > clusterLabelRadius {
				labels = append(labels, scene.Text{
					X:       l.x,
					Y:       l.y + 4,
					Content: l.rec.Code,
					Anchor:  scene.AnchorMiddle,
					Size:    10,
					Anim:    &scene.Transition{Duration: clusterLabelFade, Ease: scene.EaseLinear},
				})
			}
			discs = append(discs, cursor.Disc{X: l.x, Y: l.y, R: l.r, Record: l.rec})
		}
	}

	sc.Add(layerMarks, groups...)
	sc.Add(layerMarkers, leaves...)
	sc.Add(layerLegend, labels...)
	sc.Add(layerLegend, scene.Text{
		X:       b.Width,
		Y:       -10,
		Content: strconv.Itoa(year),
		Anchor:  scene.AnchorEnd,
		Size:    14,
	})

	return Plot{
		Scene:    sc,
		Resolver: cursor.Discs{Margin: in.Layout.Margin, Discs: discs},
	}, nil
}
