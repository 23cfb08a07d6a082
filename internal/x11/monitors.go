package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xrect"
)

// Rotation mirrors the RandR rotation bits of a CRTC.
type Rotation uint16

const (
	Rotate0   Rotation = randr.RotationRotate0
	Rotate90  Rotation = randr.RotationRotate90
	Rotate180 Rotation = randr.RotationRotate180
	Rotate270 Rotation = randr.RotationRotate270
)

// Degrees returns the rotation angle, ignoring reflection bits.
func (r Rotation) Degrees() int {
	switch {
	case r&Rotate90 != 0:
		return 90
	case r&Rotate180 != 0:
		return 180
	case r&Rotate270 != 0:
		return 270
	default:
		return 0
	}
}

// Monitor represents a physical display
type Monitor struct {
	ID       int
	Name     string
	X        int
	Y        int
	Width    int
	Height   int
	MmWidth  int
	MmHeight int
	Rotation Rotation
	Primary  bool
	Internal bool
}

// Rect returns the monitor geometry.
func (m Monitor) Rect() Rect {
	return Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// Rect is a rectangle in root window coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// internalPrefixes are connector names used for built-in laptop panels.
var internalPrefixes = []string{"eDP", "LVDS", "DSI"}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		mon := Monitor{
			ID:       i,
			Name:     fmt.Sprintf("Monitor%d", i),
			X:        int(crtcInfo.X),
			Y:        int(crtcInfo.Y),
			Width:    int(crtcInfo.Width),
			Height:   int(crtcInfo.Height),
			Rotation: Rotation(crtcInfo.Rotation),
		}

		output := crtcInfo.Outputs[0]
		if outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), output, resources.ConfigTimestamp).Reply(); err == nil {
			mon.Name = string(outputInfo.Name)
			mon.MmWidth = int(outputInfo.MmWidth)
			mon.MmHeight = int(outputInfo.MmHeight)
		}
		for _, out := range crtcInfo.Outputs {
			if primary != 0 && out == primary {
				mon.Primary = true
			}
		}
		mon.Internal = isInternalConnector(mon.Name)

		monitors = append(monitors, mon)
	}

	return monitors, nil
}

func isInternalConnector(name string) bool {
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// ActiveMonitorIndex returns the index of the monitor containing the focused
// window, falling back to the pointer, then the primary output, then 0.
func (c *Connection) ActiveMonitorIndex(monitors []Monitor) int {
	if len(monitors) == 0 {
		return -1
	}

	// Prefer active window when available.
	if activeWin, err := ewmh.ActiveWindowGet(c.XUtil); err == nil && activeWin != 0 {
		if idx := findMonitorForWindow(c, monitors, activeWin); idx >= 0 {
			return idx
		}
	}

	// Fallback to the monitor under the mouse cursor.
	if idx := findMonitorForPointer(c, monitors); idx >= 0 {
		return idx
	}

	for i, mon := range monitors {
		if mon.Primary {
			return i
		}
	}
	return 0
}

// Workarea returns the usable area of a monitor: its geometry minus dock
// struts, or its intersection with _NET_WORKAREA when no dock reserves space.
func (c *Connection) Workarea(monitor Monitor) Rect {
	usable := monitor.Rect()
	if applyDockStruts(c, &usable) {
		return usable
	}

	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return usable
	}

	desktopIndex := 0
	if currentDesktop, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil {
		if int(currentDesktop) >= 0 && int(currentDesktop) < len(workArea) {
			desktopIndex = int(currentDesktop)
		}
	}

	wa := workArea[desktopIndex]
	return intersectWorkarea(usable, Rect{
		X:      int(wa.X),
		Y:      int(wa.Y),
		Width:  int(wa.Width),
		Height: int(wa.Height),
	})
}

// intersectWorkarea clips r to the work area, keeping r when they do not
// overlap.
func intersectWorkarea(r, wa Rect) Rect {
	x1 := max(r.X, wa.X)
	y1 := max(r.Y, wa.Y)
	x2 := min(r.X+r.Width, wa.X+wa.Width)
	y2 := min(r.Y+r.Height, wa.Y+wa.Height)

	if x2 > x1 && y2 > y1 {
		return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	}
	return r
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

func applyDockStruts(c *Connection, monitor *Rect) bool {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return false
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return false
	}

	var struts dockStruts
	for _, windowID := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
		if err != nil {
			continue
		}

		isDock := false
		for _, t := range types {
			if t == "_NET_WM_WINDOW_TYPE_DOCK" {
				isDock = true
				break
			}
		}
		if !isDock {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			updateStrutsForMonitor(*monitor, rootWidth, rootHeight, sp, &struts)
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			updateStrutsForMonitor(*monitor, rootWidth, rootHeight, fullStrut(s, rootWidth, rootHeight), &struts)
		}
	}

	return shrinkByStruts(monitor, struts)
}

func fullStrut(s *ewmh.WmStrut, rootWidth, rootHeight int) *ewmh.WmStrutPartial {
	return &ewmh.WmStrutPartial{
		Left:         s.Left,
		Right:        s.Right,
		Top:          s.Top,
		Bottom:       s.Bottom,
		LeftStartY:   0,
		LeftEndY:     uint(rootHeight - 1),
		RightStartY:  0,
		RightEndY:    uint(rootHeight - 1),
		TopStartX:    0,
		TopEndX:      uint(rootWidth - 1),
		BottomStartX: 0,
		BottomEndX:   uint(rootWidth - 1),
	}
}

func shrinkByStruts(monitor *Rect, struts dockStruts) bool {
	if struts.left == 0 && struts.right == 0 && struts.top == 0 && struts.bottom == 0 {
		return false
	}

	monitor.X += struts.left
	monitor.Y += struts.top
	monitor.Width -= (struts.left + struts.right)
	monitor.Height -= (struts.top + struts.bottom)

	if monitor.Width < 1 {
		monitor.Width = 1
	}
	if monitor.Height < 1 {
		monitor.Height = 1
	}

	return true
}

func updateStrutsForMonitor(monitor Rect, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *dockStruts) {
	monX1 := monitor.X
	monY1 := monitor.Y
	monX2 := monitor.X + monitor.Width
	monY2 := monitor.Y + monitor.Height

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		x1 := int(sp.TopStartX)
		x2 := int(sp.TopEndX) + 1
		y1 := 0
		y2 := int(sp.Top)
		if intersects(monX1, monY1, monX2, monY2, x1, y1, x2, y2) {
			acc.top = max(acc.top, intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2).h)
		}
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		x1 := int(sp.BottomStartX)
		x2 := int(sp.BottomEndX) + 1
		y2 := rootHeight
		y1 := rootHeight - int(sp.Bottom)
		if intersects(monX1, monY1, monX2, monY2, x1, y1, x2, y2) {
			acc.bottom = max(acc.bottom, intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2).h)
		}
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		x1 := 0
		x2 := int(sp.Left)
		y1 := int(sp.LeftStartY)
		y2 := int(sp.LeftEndY) + 1
		if intersects(monX1, monY1, monX2, monY2, x1, y1, x2, y2) {
			acc.left = max(acc.left, intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2).w)
		}
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		x2 := rootWidth
		x1 := rootWidth - int(sp.Right)
		y1 := int(sp.RightStartY)
		y2 := int(sp.RightEndY) + 1
		if intersects(monX1, monY1, monX2, monY2, x1, y1, x2, y2) {
			acc.right = max(acc.right, intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2).w)
		}
	}
}

type intersection struct {
	w int
	h int
}

func intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}

func intersects(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) bool {
	isect := intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2)
	return isect.w > 0 && isect.h > 0
}

// findMonitorForWindow picks the monitor with the largest overlap with the
// window's frame.
func findMonitorForWindow(c *Connection, monitors []Monitor, windowID xproto.Window) int {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return -1
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return -1
	}

	win := xrect.New(int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height))
	heads := make([]xrect.Rect, len(monitors))
	for i, mon := range monitors {
		heads[i] = xrect.New(mon.X, mon.Y, mon.Width, mon.Height)
	}
	return xrect.LargestOverlap(win, heads)
}

func findMonitorForPointer(c *Connection, monitors []Monitor) int {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return -1
	}

	x := int(pointer.RootX)
	y := int(pointer.RootY)

	for i, mon := range monitors {
		if x >= mon.X && x < mon.X+mon.Width && y >= mon.Y && y < mon.Y+mon.Height {
			return i
		}
	}
	return -1
}
