// Package placement decides where a content window should open across the
// attached displays.
package placement

import (
	"fmt"

	"github.com/1broseidon/spanwin/internal/display"
)

// Placement is the position, size and display span of a content window.
type Placement struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	SpanCount  int  `json:"spanCount"`
	Fullscreen bool `json:"fullscreen"`
}

// Rect returns the placement rectangle.
func (p Placement) Rect() display.Rect {
	return display.Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

func (p Placement) String() string {
	return fmt.Sprintf("%dx%d+%d+%d span=%d fullscreen=%v", p.Width, p.Height, p.X, p.Y, p.SpanCount, p.Fullscreen)
}

// Default places the window over the usable area of the current display.
func Default(catalog display.Catalog, fullscreen bool) Placement {
	current := catalog.CurrentScreen()
	return Placement{
		X:          current.Left,
		Y:          current.Top,
		Width:      current.AvailWidth,
		Height:     current.AvailHeight,
		SpanCount:  1,
		Fullscreen: fullscreen,
	}
}

// FixedSize is the window size used by the fixed placement path.
type FixedSize struct {
	Width  int
	Height int
}

// DefaultFixedSize covers two 1440x2560 portrait displays side by side.
var DefaultFixedSize = FixedSize{Width: 2880, Height: 2560}

// Fixed places the window immediately to the right of the current display at
// y=0 with a configured size, without consulting the other displays.
func Fixed(catalog display.Catalog, size FixedSize) Placement {
	current := catalog.CurrentScreen()
	return Placement{
		X:         current.Left + current.Width,
		Y:         0,
		Width:     size.Width,
		Height:    size.Height,
		SpanCount: 1,
	}
}
