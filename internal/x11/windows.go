package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stateRemove = 0
	stateAdd    = 1
)

// ClientWindow is a managed top-level window.
type ClientWindow struct {
	ID    xproto.Window
	PID   int
	Class string
	Title string
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// Maximized windows ignore geometry requests on most window managers.
	_ = c.unmaximizeWindow(windowID)

	// Use EWMH MoveResize for better WM compatibility
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// SetFullscreen adds or removes _NET_WM_STATE_FULLSCREEN.
func (c *Connection) SetFullscreen(windowID xproto.Window, fullscreen bool) error {
	action := stateRemove
	if fullscreen {
		action = stateAdd
	}
	if err := ewmh.WmStateReq(c.XUtil, windowID, action, "_NET_WM_STATE_FULLSCREEN"); err != nil {
		return fmt.Errorf("failed to set fullscreen state: %w", err)
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) error {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return err
	}

	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			if err := ewmh.WmStateReq(c.XUtil, windowID, stateRemove, state); err != nil {
				return err
			}
		}
	}
	return nil
}

// ClientWindows lists normal managed windows with their owning PID.
func (c *Connection) ClientWindows() ([]ClientWindow, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	windows := make([]ClientWindow, 0, len(clients))
	for _, windowID := range clients {
		if !c.IsNormalWindow(windowID) {
			continue
		}
		w := ClientWindow{ID: windowID, Title: c.windowTitle(windowID)}
		if pid, err := ewmh.WmPidGet(c.XUtil, windowID); err == nil {
			w.PID = int(pid)
		}
		if class, err := icccm.WmClassGet(c.XUtil, windowID); err == nil {
			w.Class = strings.TrimSpace(class.Class)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func (c *Connection) windowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Reject desktop, dock, splash, etc.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}
