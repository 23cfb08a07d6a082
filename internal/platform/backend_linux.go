//go:build linux

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/x11"
)

// baselineDPI is the X11 resolution treated as a device pixel ratio of 1.
const baselineDPI = 96.0

// LinuxBackend wraps an X11 connection behind display enumeration and window
// operations.
type LinuxBackend struct {
	conn *x11.Connection
	mode ProviderMode
}

var (
	_ WindowSystem       = (*LinuxBackend)(nil)
	_ display.Enumerator = (*LinuxBackend)(nil)
)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, mode ProviderMode) *LinuxBackend {
	if mode == "" {
		mode = ProviderAuto
	}
	return &LinuxBackend{conn: conn, mode: mode}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to displayName
// ($DISPLAY when empty).
func NewLinuxBackendFromDisplay(displayName string, mode ProviderMode) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(displayName)
	if err != nil {
		return nil, err
	}
	return NewLinuxBackend(conn, mode), nil
}

// WithMode returns a backend sharing this connection with another provider
// mode.
func (b *LinuxBackend) WithMode(mode ProviderMode) *LinuxBackend {
	return NewLinuxBackend(b.conn, mode)
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// DisplayProvider returns the catalog provider for the configured mode. The
// synthesized mode skips enumeration entirely.
func (b *LinuxBackend) DisplayProvider(logger *slog.Logger) display.Provider {
	if b.mode == ProviderSynthesized {
		return display.NewProvider(nil, b.ScreenInfo, logger)
	}
	return display.NewProvider(b, b.ScreenInfo, logger)
}

// Enumerate lists every active display through RandR (or Xinerama) and marks
// the one holding the focused window as current.
func (b *LinuxBackend) Enumerate(ctx context.Context) (display.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return display.Catalog{}, err
	}
	conn, err := b.connection()
	if err != nil {
		return display.Catalog{}, err
	}

	monitors, err := b.monitors(conn)
	if err != nil {
		return display.Catalog{}, err
	}
	if len(monitors) == 0 {
		return display.Catalog{}, fmt.Errorf("no monitors found")
	}

	depth := conn.GetRootScreen().Depth
	extended := len(monitors) > 1

	screens := make([]display.Descriptor, 0, len(monitors))
	for _, m := range monitors {
		screens = append(screens, descriptorFromMonitor(m, conn.Workarea(m), depth, extended))
	}

	return display.Catalog{
		Screens: screens,
		Current: conn.ActiveMonitorIndex(monitors),
	}, nil
}

func (b *LinuxBackend) monitors(conn *x11.Connection) ([]x11.Monitor, error) {
	switch b.mode {
	case ProviderXinerama:
		return conn.GetXineramaMonitors()
	case ProviderRandR:
		return conn.GetMonitors()
	}

	monitors, err := conn.GetMonitors()
	if err == nil && len(monitors) > 0 {
		return monitors, nil
	}
	heads, xerr := conn.GetXineramaMonitors()
	if xerr != nil {
		if err != nil {
			return nil, fmt.Errorf("%w; %w", err, xerr)
		}
		return nil, xerr
	}
	return heads, nil
}

// ScreenInfo reports the X screen as a single display. The root window has no
// position of its own, so Left/Top are left absent.
func (b *LinuxBackend) ScreenInfo() display.ScreenInfo {
	conn, err := b.connection()
	if err != nil {
		return display.ScreenInfo{}
	}

	root := conn.GetRootScreen()
	usable := conn.Workarea(x11.Monitor{Width: root.Width, Height: root.Height})
	return display.ScreenInfo{
		AvailLeft:   &usable.X,
		AvailTop:    &usable.Y,
		AvailWidth:  usable.Width,
		AvailHeight: usable.Height,
		Width:       root.Width,
		Height:      root.Height,
		ColorDepth:  root.Depth,
		PixelDepth:  root.Depth,
	}
}

// ListWindows returns normal managed windows.
func (b *LinuxBackend) ListWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, c := range clients {
		windows = append(windows, Window{
			ID:    WindowID(c.ID),
			PID:   c.PID,
			AppID: c.Class,
			Title: c.Title,
		})
	}
	return windows, nil
}

// MoveResize moves and resizes a window to the specified bounds.
func (b *LinuxBackend) MoveResize(windowID WindowID, bounds display.Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	return conn.MoveResizeWindow(
		xproto.Window(windowID),
		bounds.X,
		bounds.Y,
		bounds.Width,
		bounds.Height,
	)
}

// SetFullscreen toggles the EWMH fullscreen state of a window.
func (b *LinuxBackend) SetFullscreen(windowID WindowID, fullscreen bool) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetFullscreen(xproto.Window(windowID), fullscreen)
}

// Activate moves the window to the current desktop and raises it.
func (b *LinuxBackend) Activate(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.BringToCurrentDesktop(xproto.Window(windowID))
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func descriptorFromMonitor(m x11.Monitor, usable x11.Rect, depth int, extended bool) display.Descriptor {
	return display.Descriptor{
		AvailLeft:        usable.X,
		AvailTop:         usable.Y,
		AvailWidth:       usable.Width,
		AvailHeight:      usable.Height,
		Left:             m.X,
		Top:              m.Y,
		Width:            m.Width,
		Height:           m.Height,
		ColorDepth:       depth,
		PixelDepth:       depth,
		Orientation:      orientationFromMonitor(m),
		IsPrimary:        m.Primary,
		IsInternal:       m.Internal,
		IsExtended:       extended,
		DevicePixelRatio: pixelRatio(m),
		Label:            m.Name,
	}
}

func orientationFromMonitor(m x11.Monitor) display.Orientation {
	deg := m.Rotation.Degrees()
	secondary := deg == 180 || deg == 270

	var t display.OrientationType
	switch {
	case m.Width < m.Height && secondary:
		t = display.PortraitSecondary
	case m.Width < m.Height:
		t = display.PortraitPrimary
	case secondary:
		t = display.LandscapeSecondary
	default:
		t = display.LandscapePrimary
	}
	return display.Orientation{Angle: float64(deg), Type: t}
}

// pixelRatio estimates a device pixel ratio from the physical width, rounded
// to quarter steps and never below 1.
func pixelRatio(m x11.Monitor) float64 {
	mm := m.MmWidth
	if deg := m.Rotation.Degrees(); deg == 90 || deg == 270 {
		mm = m.MmHeight
	}
	if mm <= 0 || m.Width <= 0 {
		return 1.0
	}

	dpi := float64(m.Width) * 25.4 / float64(mm)
	ratio := math.Round(dpi/baselineDPI*4) / 4
	if ratio < 1 {
		return 1.0
	}
	return ratio
}
