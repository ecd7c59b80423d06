package scene

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/climate-story/internal/domain"
)

// Surface is a drawing target owned by exactly one chart instance.
type Surface interface {
	Clear()
	Draw(p Primitive) error
}

// Sizer is implemented by surfaces that need the container geometry before
// drawing.
type Sizer interface {
	Resize(width, height float64, margin domain.Margin)
}

// Commit clears s and draws every primitive of sc in paint order.
func Commit(s Surface, sc Scene) error {
	s.Clear()
	if sz, ok := s.(Sizer); ok {
		sz.Resize(sc.Width, sc.Height, sc.Margin)
	}
	for _, l := range sc.Layers {
		for i, p := range l.Items {
			if err := s.Draw(p); err != nil {
				return fmt.Errorf("draw %s %d in layer %q: %w", p.Kind(), i, l.Name, err)
			}
		}
	}
	return nil
}

// Recorder is an in-memory Surface that keeps what was drawn.
type Recorder struct {
	mu     sync.Mutex
	items  []Primitive
	clears int
	draws  int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Clear() {
	r.mu.Lock()
	r.items = r.items[:0]
	r.clears++
	r.mu.Unlock()
}

func (r *Recorder) Draw(p Primitive) error {
	r.mu.Lock()
	r.items = append(r.items, p)
	r.draws++
	r.mu.Unlock()
	return nil
}

// Items returns what is currently on the surface.
func (r *Recorder) Items() []Primitive {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Primitive(nil), r.items...)
}

// Len returns the number of primitives on the surface.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Clears returns how many times the surface was cleared.
func (r *Recorder) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

// Draws returns the total number of Draw calls since creation.
func (r *Recorder) Draws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draws
}
