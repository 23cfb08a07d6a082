//go:build linux

package platform

import (
	"testing"

	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/x11"
)

func TestDescriptorFromMonitor(t *testing.T) {
	m := x11.Monitor{
		ID:       1,
		Name:     "DP-2",
		X:        2560,
		Y:        0,
		Width:    1440,
		Height:   2560,
		MmWidth:  597,
		MmHeight: 336,
		Rotation: x11.Rotate90,
		Primary:  false,
	}
	usable := x11.Rect{X: 2560, Y: 32, Width: 1440, Height: 2528}

	d := descriptorFromMonitor(m, usable, 24, true)

	if d.Left != 2560 || d.Top != 0 || d.Width != 1440 || d.Height != 2560 {
		t.Fatalf("unexpected bounds: %+v", d.Bounds())
	}
	if d.AvailTop != 32 || d.AvailHeight != 2528 {
		t.Fatalf("unexpected usable area: %+v", d.Usable())
	}
	if d.Orientation.Type != display.PortraitPrimary || d.Orientation.Angle != 90 {
		t.Fatalf("unexpected orientation: %+v", d.Orientation)
	}
	if d.Label != "DP-2" || !d.IsExtended || d.IsPrimary || d.ColorDepth != 24 {
		t.Fatalf("unexpected flags: %+v", d)
	}
}

func TestOrientationFromMonitor(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		rotation x11.Rotation
		want     display.OrientationType
	}{
		{"landscape normal", 2560, 1440, x11.Rotate0, display.LandscapePrimary},
		{"landscape inverted", 2560, 1440, x11.Rotate180, display.LandscapeSecondary},
		{"portrait left", 1440, 2560, x11.Rotate90, display.PortraitPrimary},
		{"portrait right", 1440, 2560, x11.Rotate270, display.PortraitSecondary},
		{"native portrait panel", 1200, 1920, x11.Rotate0, display.PortraitPrimary},
		{"square", 2000, 2000, x11.Rotate0, display.LandscapePrimary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orientationFromMonitor(x11.Monitor{Width: tt.width, Height: tt.height, Rotation: tt.rotation})
			if got.Type != tt.want {
				t.Errorf("orientation = %q, want %q", got.Type, tt.want)
			}
		})
	}
}

func TestPixelRatio(t *testing.T) {
	tests := []struct {
		name string
		m    x11.Monitor
		want float64
	}{
		{"unknown size", x11.Monitor{Width: 1920, Height: 1080}, 1.0},
		// 24" 1080p, ~92 DPI.
		{"low dpi", x11.Monitor{Width: 1920, Height: 1080, MmWidth: 531, MmHeight: 299}, 1.0},
		// 27" 4K, ~163 DPI.
		{"hidpi", x11.Monitor{Width: 3840, Height: 2160, MmWidth: 597, MmHeight: 336}, 1.75},
		// 27" QHD turned portrait, ~109 DPI measured against the physical height.
		{"rotated", x11.Monitor{Width: 1440, Height: 2560, MmWidth: 597, MmHeight: 336, Rotation: x11.Rotate90}, 1.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pixelRatio(tt.m); got != tt.want {
				t.Errorf("pixelRatio = %v, want %v", got, tt.want)
			}
		})
	}
}
