package platform

import (
	"github.com/1broseidon/spanwin/internal/display"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Window contains metadata for a top-level window.
type Window struct {
	ID    WindowID
	PID   int
	AppID string
	Title string
}

// WindowSystem abstracts the window operations needed to open a content
// window at a computed placement.
type WindowSystem interface {
	ListWindows() ([]Window, error)
	MoveResize(windowID WindowID, bounds display.Rect) error
	SetFullscreen(windowID WindowID, fullscreen bool) error
	// Activate brings the window to the current desktop and focuses it.
	Activate(windowID WindowID) error
}

// ProviderMode selects how displays are enumerated.
type ProviderMode string

const (
	ProviderAuto        ProviderMode = "auto"
	ProviderRandR       ProviderMode = "randr"
	ProviderXinerama    ProviderMode = "xinerama"
	ProviderSynthesized ProviderMode = "synthesized"
)
