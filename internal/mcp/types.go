package mcp

import (
	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/placement"
	"github.com/1broseidon/spanwin/internal/platform"
)

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct {
	Groups bool `json:"groups,omitempty" jsonschema:"Also report displays grouped by identical resolution as the planner sees them"`
}

// GroupInfo describes one resolution group.
type GroupInfo struct {
	Resolution string   `json:"resolution"`
	Portrait   bool     `json:"portrait"`
	Labels     []string `json:"labels"`
	Lefts      []int    `json:"lefts"`
}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Screens []display.Descriptor `json:"screens"`
	Current int                  `json:"current"`
	Groups  []GroupInfo          `json:"groups,omitempty"`
}

// ScreenInput is a display descriptor supplied by an MCP client. Only the
// full rectangle is required; the rest is filled like a layout file entry.
type ScreenInput struct {
	Left   int `json:"left" jsonschema:"Left edge in the shared virtual-display space"`
	Top    int `json:"top,omitempty"`
	Width  int `json:"width" jsonschema:"Full width in pixels"`
	Height int `json:"height" jsonschema:"Full height in pixels"`

	AvailLeft   int `json:"availLeft,omitempty"`
	AvailTop    int `json:"availTop,omitempty"`
	AvailWidth  int `json:"availWidth,omitempty" jsonschema:"Usable width excluding panels (default: width)"`
	AvailHeight int `json:"availHeight,omitempty" jsonschema:"Usable height excluding panels (default: height)"`

	ColorDepth       int                  `json:"colorDepth,omitempty"`
	PixelDepth       int                  `json:"pixelDepth,omitempty"`
	Orientation      *display.Orientation `json:"orientation,omitempty"`
	IsPrimary        bool                 `json:"isPrimary,omitempty"`
	IsInternal       bool                 `json:"isInternal,omitempty"`
	DevicePixelRatio float64              `json:"devicePixelRatio,omitempty"`
	Label            string               `json:"label,omitempty"`
}

func (in ScreenInput) descriptor(index int) display.Descriptor {
	d := display.Descriptor{
		AvailLeft:        in.AvailLeft,
		AvailTop:         in.AvailTop,
		AvailWidth:       in.AvailWidth,
		AvailHeight:      in.AvailHeight,
		Left:             in.Left,
		Top:              in.Top,
		Width:            in.Width,
		Height:           in.Height,
		ColorDepth:       in.ColorDepth,
		PixelDepth:       in.PixelDepth,
		IsPrimary:        in.IsPrimary,
		IsInternal:       in.IsInternal,
		DevicePixelRatio: in.DevicePixelRatio,
		Label:            in.Label,
	}
	if in.Orientation != nil {
		d.Orientation = *in.Orientation
	}
	return display.FillDefaults(d, index)
}

func descriptors(in []ScreenInput) []display.Descriptor {
	out := make([]display.Descriptor, len(in))
	for i, s := range in {
		out[i] = s.descriptor(i)
		out[i].IsExtended = len(in) > 1
	}
	return out
}

// PlanPlacementInput is the input for the plan_placement tool.
type PlanPlacementInput struct {
	Screens    []ScreenInput `json:"screens,omitempty" jsonschema:"Explicit display descriptors to plan against. When omitted the host's displays are used."`
	Current    int           `json:"current,omitempty" jsonschema:"Index into screens of the display hosting the caller (only with screens)"`
	Fullscreen *bool         `json:"fullscreen,omitempty" jsonschema:"Request fullscreen (default: configured fullscreen)"`
	Action     string        `json:"action,omitempty" jsonschema:"planned (default) or fixed"`
}

// PlanPlacementOutput is the output for the plan_placement tool.
type PlanPlacementOutput struct {
	Placement placement.Placement `json:"placement"`
	Screens   int                 `json:"screens"`
	Current   string              `json:"current"`
}

// OpenContentWindowInput is the input for the open_content_window tool.
type OpenContentWindowInput struct {
	Command    string `json:"command,omitempty" jsonschema:"Shell-style command line that opens the content window (default: configured content_command)"`
	Fullscreen *bool  `json:"fullscreen,omitempty" jsonschema:"Request fullscreen (default: configured fullscreen)"`
	Action     string `json:"action,omitempty" jsonschema:"planned (default) or fixed"`
}

// OpenContentWindowOutput is the output for the open_content_window tool.
type OpenContentWindowOutput struct {
	Window    platform.WindowID   `json:"window"`
	PID       int                 `json:"pid"`
	MatchedBy string              `json:"matched_by"`
	Placement placement.Placement `json:"placement"`
}
