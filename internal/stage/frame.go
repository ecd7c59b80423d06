package stage

import (
	"github.com/google/uuid"

	"github.com/couchcryptid/climate-story/internal/cursor"
	"github.com/couchcryptid/climate-story/internal/scene"
)

// Mode says why a frame was produced.
type Mode string

const (
	// ModeAnimate frames step an entrance animation after a rising edge.
	ModeAnimate Mode = "animate"
	// ModeRedraw is a single full frame after a resize, load or parameter change.
	ModeRedraw Mode = "redraw"
	// ModeStatic is the entrance frame when animation is disabled.
	ModeStatic Mode = "static"
	// ModeCursor frames carry only the cursor.
	ModeCursor Mode = "cursor"
)

// Frame is one output of a chart instance. Scene is nil for cursor frames;
// Cursor is nil when the pointer is not over a record.
type Frame struct {
	InstanceID uuid.UUID     `json:"instance_id"`
	ChartID    string        `json:"chart"`
	Seq        uint64        `json:"seq"`
	Mode       Mode          `json:"mode"`
	Done       bool          `json:"done"`
	Scene      *scene.Scene  `json:"scene,omitempty"`
	Cursor     *cursor.State `json:"cursor,omitempty"`
}

// EmitFunc receives frames on the stage goroutine. It must not block for
// long and must not wait on the stage.
type EmitFunc func(Frame)
