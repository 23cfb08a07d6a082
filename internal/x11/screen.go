package x11

import (
	"fmt"

	"github.com/BurntSushi/xgbutil/xinerama"
)

// RootScreen describes the X screen as a single logical display.
type RootScreen struct {
	Width    int
	Height   int
	MmWidth  int
	MmHeight int
	Depth    int
}

// GetRootScreen returns the default X screen geometry and depth.
func (c *Connection) GetRootScreen() RootScreen {
	screen := c.XUtil.Screen()
	return RootScreen{
		Width:    int(screen.WidthInPixels),
		Height:   int(screen.HeightInPixels),
		MmWidth:  int(screen.WidthInMillimeters),
		MmHeight: int(screen.HeightInMillimeters),
		Depth:    int(screen.RootDepth),
	}
}

// GetXineramaMonitors lists physical heads through Xinerama, for servers that
// lack RandR 1.2. Xinerama reports no names, rotation or primary output.
func (c *Connection) GetXineramaMonitors() ([]Monitor, error) {
	heads, err := xinerama.PhysicalHeads(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("xinerama query failed: %w", err)
	}

	monitors := make([]Monitor, 0, len(heads))
	for i, head := range heads {
		monitors = append(monitors, Monitor{
			ID:       i,
			Name:     fmt.Sprintf("Xinerama%d", i),
			X:        head.X(),
			Y:        head.Y(),
			Width:    head.Width(),
			Height:   head.Height(),
			Rotation: Rotate0,
			Primary:  i == 0,
		})
	}
	return monitors, nil
}
