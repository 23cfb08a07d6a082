package display

import (
	"fmt"
)

// OrientationType names the rotation of a display relative to its natural
// landscape mode.
type OrientationType string

const (
	LandscapePrimary   OrientationType = "landscape-primary"
	LandscapeSecondary OrientationType = "landscape-secondary"
	PortraitPrimary    OrientationType = "portrait-primary"
	PortraitSecondary  OrientationType = "portrait-secondary"
)

// Orientation describes how a display is rotated.
type Orientation struct {
	Angle float64         `json:"angle" yaml:"angle"`
	Type  OrientationType `json:"type" yaml:"type"`
}

// DefaultOrientation is used when the host reports no rotation.
var DefaultOrientation = Orientation{Angle: 0, Type: LandscapePrimary}

// Rect is a rectangle in the shared virtual-display coordinate space.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Descriptor describes one attached display.
//
// Avail* is the usable area (excluding panels and docks); Left/Top/Width/Height
// is the full output rectangle. Width >= AvailWidth and Height >= AvailHeight.
type Descriptor struct {
	AvailLeft   int `json:"availLeft" yaml:"avail_left"`
	AvailTop    int `json:"availTop" yaml:"avail_top"`
	AvailWidth  int `json:"availWidth" yaml:"avail_width"`
	AvailHeight int `json:"availHeight" yaml:"avail_height"`

	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	ColorDepth int `json:"colorDepth" yaml:"color_depth"`
	PixelDepth int `json:"pixelDepth" yaml:"pixel_depth"`

	Orientation Orientation `json:"orientation" yaml:"orientation"`

	IsPrimary  bool `json:"isPrimary" yaml:"is_primary"`
	IsInternal bool `json:"isInternal" yaml:"is_internal"`
	IsExtended bool `json:"isExtended" yaml:"is_extended"`

	DevicePixelRatio float64 `json:"devicePixelRatio" yaml:"device_pixel_ratio"`
	Label            string  `json:"label" yaml:"label"`
}

// Pixels returns the full-resolution pixel count of the display.
func (d Descriptor) Pixels() int {
	return d.Width * d.Height
}

// IsPortrait reports whether the display is taller than it is wide.
// Square displays count as portrait.
func (d Descriptor) IsPortrait() bool {
	return d.Width <= d.Height
}

// Resolution formats the display size as WIDTHxHEIGHT.
func (d Descriptor) Resolution() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Bounds returns the full display rectangle.
func (d Descriptor) Bounds() Rect {
	return Rect{X: d.Left, Y: d.Top, Width: d.Width, Height: d.Height}
}

// Usable returns the work-area rectangle.
func (d Descriptor) Usable() Rect {
	return Rect{X: d.AvailLeft, Y: d.AvailTop, Width: d.AvailWidth, Height: d.AvailHeight}
}

// Catalog is the set of attached displays plus the one believed to host the
// caller.
type Catalog struct {
	Screens []Descriptor `json:"screens"`
	Current int          `json:"current"`
}

// CurrentScreen returns the designated current display.
func (c Catalog) CurrentScreen() Descriptor {
	return c.Screens[c.Current]
}

// Validate checks the catalog invariants.
func (c Catalog) Validate() error {
	if len(c.Screens) == 0 {
		return fmt.Errorf("catalog has no screens")
	}
	if c.Current < 0 || c.Current >= len(c.Screens) {
		return fmt.Errorf("current screen index %d out of range [0,%d)", c.Current, len(c.Screens))
	}
	for i, s := range c.Screens {
		if s.AvailWidth > s.Width || s.AvailHeight > s.Height {
			return fmt.Errorf("screen %d (%s): usable area %dx%d exceeds display size %s",
				i, s.Label, s.AvailWidth, s.AvailHeight, s.Resolution())
		}
	}
	return nil
}
