package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/climate-story/internal/domain"
)

// Layer groups primitives drawn in order. Later layers paint over earlier
// ones.
type Layer struct {
	Name  string      `json:"name"`
	Items []Primitive `json:"items"`
}

// Scene is the complete output of one render pass.
type Scene struct {
	Chart  string        `json:"chart"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Margin domain.Margin `json:"margin"`
	Layers []Layer       `json:"layers"`
}

// New starts an empty scene for a container of the given size.
func New(chart string, dims domain.Dimensions, margin domain.Margin) Scene {
	dims = dims.Clamp()
	return Scene{Chart: chart, Width: dims.Width, Height: dims.Height, Margin: margin}
}

// Bounds returns the plot area.
func (s Scene) Bounds() domain.Bounds {
	return domain.Dimensions{Width: s.Width, Height: s.Height}.Inset(s.Margin)
}

// Add appends items to the named layer, creating it at the top if needed.
func (s *Scene) Add(layer string, items ...Primitive) {
	for i := range s.Layers {
		if s.Layers[i].Name == layer {
			s.Layers[i].Items = append(s.Layers[i].Items, items...)
			return
		}
	}
	s.Layers = append(s.Layers, Layer{Name: layer, Items: items})
}

// Layer returns the named layer.
func (s Scene) Layer(name string) (Layer, bool) {
	for _, l := range s.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// Count returns the number of primitives across all layers.
func (s Scene) Count() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Items)
	}
	return n
}

// Empty reports whether the scene draws nothing.
func (s Scene) Empty() bool { return s.Count() == 0 }

// Primitives flattens the scene in paint order.
func (s Scene) Primitives() []Primitive {
	out := make([]Primitive, 0, s.Count())
	for _, l := range s.Layers {
		out = append(out, l.Items...)
	}
	return out
}

// Duration is the time until the last entrance finishes.
func (s Scene) Duration() time.Duration {
	var d time.Duration
	for _, p := range s.Primitives() {
		if end := p.Entrance().End(); end > d {
			d = end
		}
	}
	return d
}

// At returns the scene elapsed into its entrance animation. Once elapsed
// reaches Duration the result equals s.
func (s Scene) At(elapsed time.Duration) Scene {
	out := s
	out.Layers = make([]Layer, len(s.Layers))
	for i, l := range s.Layers {
		items := make([]Primitive, len(l.Items))
		for j, p := range l.Items {
			items[j] = p.At(p.Entrance().Progress(elapsed))
		}
		out.Layers[i] = Layer{Name: l.Name, Items: items}
	}
	return out
}

// MarshalJSON tags each item with its kind.
func (l Layer) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, len(l.Items))
	for i, p := range l.Items {
		body, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", p.Kind(), err)
		}
		var buf bytes.Buffer
		fmt.Fprintf(&buf, `{"kind":%q`, p.Kind())
		if len(body) > 2 {
			buf.WriteByte(',')
			buf.Write(body[1:])
		} else {
			buf.WriteByte('}')
		}
		items[i] = buf.Bytes()
	}
	return json.Marshal(struct {
		Name  string            `json:"name"`
		Items []json.RawMessage `json:"items"`
	}{l.Name, items})
}

// UnmarshalJSON decodes kind-tagged items.
func (l *Layer) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string            `json:"name"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Name = raw.Name
	l.Items = make([]Primitive, 0, len(raw.Items))
	for _, item := range raw.Items {
		var tag struct {
			Kind Kind `json:"kind"`
		}
		if err := json.Unmarshal(item, &tag); err != nil {
			return err
		}
		p, err := decodePrimitive(tag.Kind, item)
		if err != nil {
			return err
		}
		l.Items = append(l.Items, p)
	}
	return nil
}

func decodePrimitive(k Kind, data []byte) (Primitive, error) {
	switch k {
	case KindRect:
		var v Rect
		err := json.Unmarshal(data, &v)
		return v, err
	case KindPath:
		var v Path
		err := json.Unmarshal(data, &v)
		return v, err
	case KindCircle:
		var v Circle
		err := json.Unmarshal(data, &v)
		return v, err
	case KindText:
		var v Text
		err := json.Unmarshal(data, &v)
		return v, err
	case KindAxis:
		var v Axis
		err := json.Unmarshal(data, &v)
		return v, err
	default:
		return nil, fmt.Errorf("unknown primitive kind %q", k)
	}
}
