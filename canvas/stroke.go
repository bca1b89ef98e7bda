// Package canvas holds the drawing-side types shared between the wire
// protocol and the game session: strokes, the paintable surface contract,
// and the batcher that turns raw pointer input into outbound stroke batches.
package canvas

type Tool string

const (
	ToolPencil Tool = "pencil"
	ToolEraser Tool = "eraser"
)

const (
	DefaultColor     = "#000000"
	DefaultLineWidth = 3
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pointer-down-to-pointer-up path. It is immutable
// once completed; a stroke with no points must never be sent or painted.
type Stroke struct {
	Tool      Tool    `json:"tool"`
	Color     string  `json:"color"`
	LineWidth int     `json:"lineWidth"`
	Points    []Point `json:"points"`
	SourceID  string  `json:"sourceId,omitempty"`
}

// Normalized returns a copy with remote-side defaults applied, matching how
// the reference client repaints batches with missing color or width.
func (s Stroke) Normalized() Stroke {
	if s.Color == "" {
		s.Color = DefaultColor
	}
	if s.LineWidth <= 0 {
		s.LineWidth = DefaultLineWidth
	}
	if s.Tool != ToolEraser {
		s.Tool = ToolPencil
	}
	return s
}

// Surface is the external drawing collaborator. Paint renders one stroke,
// Clear resets the raster. Implementations are only ever invoked from the
// stroke-apply path, never concurrently for the same surface.
type Surface interface {
	Paint(stroke Stroke)
	Clear()
}
