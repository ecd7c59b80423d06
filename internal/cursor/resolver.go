package cursor

import (
	"math"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
)

// State is where the cursor marker sits and what it points at. Pixel
// coordinates are relative to the container, not the plot area.
type State struct {
	PixelX float64             `json:"pixel_x"`
	PixelY float64             `json:"pixel_y"`
	Index  int                 `json:"index"`
	Record *domain.Record      `json:"record"`
	Stat   *domain.GroupedStat `json:"stat,omitempty"`
}

// Resolver turns a pointer position in container pixels into a snapped
// cursor. It returns nil when the pointer is outside the plotted range.
type Resolver interface {
	Resolve(px, py float64) *State
}

// Linear resolves against a continuous x scale by inversion. Records must be
// sorted by key.
type Linear struct {
	X       scale.Linear
	Y       scale.Linear
	Margin  domain.Margin
	Records []domain.Record
}

func (r Linear) Resolve(px, py float64) *State {
	x, y := px-r.Margin.Left, py-r.Margin.Top
	if len(r.Records) == 0 || !r.X.Contains(x) || !r.Y.Contains(y) {
		return nil
	}
	i := NearestBy(r.Records, recordKey, r.X.Invert(x))
	if i < 0 {
		return nil
	}
	rec := r.Records[i]
	return &State{
		PixelX: r.X.Map(float64(rec.Key)) + r.Margin.Left,
		PixelY: r.Y.Map(rec.Value) + r.Margin.Top,
		Index:  i,
		Record: &rec,
	}
}

// Band resolves against a banded x scale by bisecting band centres.
// Records[i] belongs to band i. Stats is optional; when set, Stats[i] is
// attached to the result.
type Band struct {
	X       scale.Band
	Y       scale.Linear
	Margin  domain.Margin
	Records []domain.Record
	Stats   []domain.GroupedStat
}

func (r Band) Resolve(px, py float64) *State {
	x, y := px-r.Margin.Left, py-r.Margin.Top
	if len(r.Records) == 0 || !r.X.Contains(x) || !r.Y.Contains(y) {
		return nil
	}
	centers := r.X.Centers()
	if len(centers) > len(r.Records) {
		centers = centers[:len(r.Records)]
	}
	i := NearestIndex(centers, x)
	if i < 0 {
		return nil
	}
	rec := r.Records[i]
	st := &State{
		PixelX: centers[i] + r.Margin.Left,
		PixelY: r.Y.Map(rec.Value) + r.Margin.Top,
		Index:  i,
		Record: &rec,
	}
	if i < len(r.Stats) {
		stat := r.Stats[i]
		st.Stat = &stat
	}
	return st
}

func recordKey(r domain.Record) float64 { return float64(r.Key) }

// Stack resolves against several series sharing one plot and returns the
// match whose marker is vertically closest to the pointer. Earlier resolvers
// win ties.
type Stack []Resolver

func (s Stack) Resolve(px, py float64) *State {
	var (
		best *State
		gap  = math.Inf(1)
	)
	for _, r := range s {
		st := r.Resolve(px, py)
		if st == nil {
			continue
		}
		if d := math.Abs(st.PixelY - py); d < gap {
			best, gap = st, d
		}
	}
	return best
}

// Disc is a hoverable circle in plot coordinates.
type Disc struct {
	X, Y, R float64
	Record  domain.Record
}

// Discs resolves to the circle under the pointer. Discs should not overlap;
// when they do the smallest one wins.
type Discs struct {
	Margin domain.Margin
	Discs  []Disc
}

func (r Discs) Resolve(px, py float64) *State {
	x, y := px-r.Margin.Left, py-r.Margin.Top
	hit := -1
	for i, d := range r.Discs {
		if math.Hypot(x-d.X, y-d.Y) > d.R {
			continue
		}
		if hit < 0 || d.R < r.Discs[hit].R {
			hit = i
		}
	}
	if hit < 0 {
		return nil
	}
	d := r.Discs[hit]
	rec := d.Record
	return &State{
		PixelX: d.X + r.Margin.Left,
		PixelY: d.Y + r.Margin.Top,
		Index:  hit,
		Record: &rec,
	}
}
