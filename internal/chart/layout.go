package chart

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/scale"
	"gopkg.in/yaml.v3"
)

// Layout is the configuration surface every chart accepts.
type Layout struct {
	Margin domain.Margin `json:"margin" yaml:"margin"`
	// Threshold is the visible fraction at which the chart draws.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// Palette is the ordered list of color stops.
	Palette []string `json:"palette" yaml:"palette"`
	// TickStride labels every Nth category on band axes.
	TickStride int `json:"tick_stride" yaml:"tick_stride"`
	// Ticks is the target tick count on continuous axes.
	Ticks int `json:"ticks" yaml:"ticks"`
	// ReplayOnReenter re-runs the entrance animation on every scroll-in.
	ReplayOnReenter bool `json:"replay_on_reenter" yaml:"replay_on_reenter"`
}

// baseLayout is what every chart on the site starts from.
func baseLayout(palette ...string) Layout {
	return Layout{
		Margin:     domain.DefaultMargin,
		Threshold:  0.3,
		Palette:    palette,
		TickStride: 10,
		Ticks:      6,
	}
}

// Validate checks ranges.
func (l Layout) Validate() error {
	var errs []error
	if l.Threshold < 0 || l.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %g outside [0,1]", l.Threshold))
	}
	if l.TickStride < 1 {
		errs = append(errs, fmt.Errorf("tick_stride must be at least 1, got %d", l.TickStride))
	}
	if l.Ticks < 0 {
		errs = append(errs, fmt.Errorf("ticks must not be negative, got %d", l.Ticks))
	}
	m := l.Margin
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		errs = append(errs, errors.New("margins must not be negative"))
	}
	for i, c := range l.Palette {
		if _, err := scale.ParseColor(c); err != nil {
			errs = append(errs, fmt.Errorf("palette[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// LayoutOverride is a partial Layout read from a layout file. Nil fields
// keep the chart default.
type LayoutOverride struct {
	Margin          *domain.Margin `yaml:"margin"`
	Threshold       *float64       `yaml:"threshold"`
	Palette         []string       `yaml:"palette"`
	TickStride      *int           `yaml:"tick_stride"`
	Ticks           *int           `yaml:"ticks"`
	ReplayOnReenter *bool          `yaml:"replay_on_reenter"`
}

// Apply layers the override on top of l.
func (o LayoutOverride) Apply(l Layout) Layout {
	if o.Margin != nil {
		l.Margin = *o.Margin
	}
	if o.Threshold != nil {
		l.Threshold = *o.Threshold
	}
	if len(o.Palette) > 0 {
		l.Palette = append([]string(nil), o.Palette...)
	}
	if o.TickStride != nil {
		l.TickStride = *o.TickStride
	}
	if o.Ticks != nil {
		l.Ticks = *o.Ticks
	}
	if o.ReplayOnReenter != nil {
		l.ReplayOnReenter = *o.ReplayOnReenter
	}
	return l
}

// LayoutFile is the YAML document shape:
//
//	charts:
//	  anomalies:
//	    threshold: 0.5
//	    tick_stride: 5
type LayoutFile struct {
	Charts map[string]LayoutOverride `yaml:"charts"`
}

// ParseLayouts decodes a layout document and validates each override against
// the chart's defaults.
func ParseLayouts(data []byte, reg *Registry) (map[string]LayoutOverride, error) {
	var f LayoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse layout file: %w", err)
	}
	for id, o := range f.Charts {
		c, err := reg.Get(id)
		if err != nil {
			return nil, fmt.Errorf("layout file: %w", err)
		}
		if err := o.Apply(c.DefaultLayout()).Validate(); err != nil {
			return nil, fmt.Errorf("layout for %s: %w", id, err)
		}
	}
	return f.Charts, nil
}

// LoadLayouts reads path and installs its overrides into reg. An empty path
// is a no-op.
func LoadLayouts(path string, reg *Registry) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read layout file: %w", err)
	}
	overrides, err := ParseLayouts(data, reg)
	if err != nil {
		return err
	}
	return reg.Override(overrides)
}
