package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// stickyDesktop is the _NET_WM_DESKTOP value for windows shown on all
// desktops.
const stickyDesktop = 0xFFFFFFFF

// sourcePager marks client messages as a direct user action so window
// managers with focus stealing prevention honor them.
const sourcePager = 2

// CurrentDesktop returns the current virtual desktop number (0-indexed).
func (c *Connection) CurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// WindowDesktop returns the desktop a window is on, or -1 for sticky windows.
func (c *Connection) WindowDesktop(windowID xproto.Window) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	if desktop == stickyDesktop {
		return -1, nil
	}
	return int(desktop), nil
}

// SetWindowDesktop asks the window manager to move a window to desktop. The
// message is built by hand; ewmh.WmDesktopReq panics on this xgbutil version.
func (c *Connection) SetWindowDesktop(windowID xproto.Window, desktop int) error {
	return c.sendRootMessage(windowID, "_NET_WM_DESKTOP", uint32(desktop), sourcePager)
}

// ActivateWindow asks the window manager to focus and raise a window.
func (c *Connection) ActivateWindow(windowID xproto.Window) error {
	return c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", sourcePager)
}

// BringToCurrentDesktop moves a freshly placed window onto the current
// desktop when it landed elsewhere, then activates it. Window managers that
// lack desktop support only get the activation request.
func (c *Connection) BringToCurrentDesktop(windowID xproto.Window) error {
	current, err := c.CurrentDesktop()
	if err == nil {
		on, werr := c.WindowDesktop(windowID)
		if werr == nil && on >= 0 && on != current {
			if err := c.SetWindowDesktop(windowID, current); err != nil {
				return err
			}
		}
	}
	return c.ActivateWindow(windowID)
}

func (c *Connection) sendRootMessage(windowID xproto.Window, atom string, data ...uint32) error {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(atom)), atom).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atom, err)
	}

	payload := make([]uint32, 5)
	copy(payload, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   reply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
