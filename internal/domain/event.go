package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidEvent is returned for viewport events that cannot be applied.
var ErrInvalidEvent = errors.New("invalid viewport event")

// RawEvent is a message read from the event topic, independent of the broker
// client that fetched it.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
	Commit    func(ctx context.Context) error
}

// OutputEvent is a serialized message ready for the frame topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// EventType names what a viewer did.
type EventType string

const (
	EventMount        EventType = "mount"
	EventResize       EventType = "resize"
	EventIntersect    EventType = "intersect"
	EventPointerMove  EventType = "pointermove"
	EventPointerLeave EventType = "pointerleave"
	EventParams       EventType = "params"
	EventUnmount      EventType = "unmount"
)

// ViewportEvent is one viewer interaction with one chart. Session groups the
// charts of a single page, like a browser tab.
type ViewportEvent struct {
	Session string    `json:"session"`
	Chart   string    `json:"chart"`
	Type    EventType `json:"type"`
	Width   float64   `json:"width,omitempty"`
	Height  float64   `json:"height,omitempty"`
	Ratio   float64   `json:"ratio,omitempty"`
	X       float64   `json:"x,omitempty"`
	Y       float64   `json:"y,omitempty"`
	Year    int       `json:"year,omitempty"`
}

// Dimensions returns the reported container size.
func (e ViewportEvent) Dimensions() Dimensions {
	return Dimensions{Width: e.Width, Height: e.Height}.Clamp()
}

// Validate checks the fields the event type needs.
func (e ViewportEvent) Validate() error {
	var errs []error
	if e.Session == "" {
		errs = append(errs, errors.New("session is required"))
	}
	if e.Chart == "" {
		errs = append(errs, errors.New("chart is required"))
	}
	switch e.Type {
	case EventMount, EventResize, EventPointerLeave, EventParams, EventUnmount:
	case EventIntersect:
		if math.IsNaN(e.Ratio) || e.Ratio < 0 || e.Ratio > 1 {
			errs = append(errs, fmt.Errorf("ratio %v outside [0,1]", e.Ratio))
		}
	case EventPointerMove:
		if math.IsNaN(e.X) || math.IsNaN(e.Y) {
			errs = append(errs, errors.New("pointer position is NaN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown type %q", e.Type))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return nil
}

// ParseViewportEvent decodes and validates the JSON payload of a raw event.
func ParseViewportEvent(raw RawEvent) (ViewportEvent, error) {
	var ev ViewportEvent
	if err := json.Unmarshal(raw.Value, &ev); err != nil {
		return ViewportEvent{}, fmt.Errorf("unmarshal viewport event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return ViewportEvent{}, err
	}
	return ev, nil
}
