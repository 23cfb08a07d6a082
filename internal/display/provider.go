package display

import (
	"context"
	"log/slog"
)

const (
	// SynthesizedLabel marks a descriptor built from minimal host data.
	SynthesizedLabel = "Default"
	// EmptyLabel marks the all-zero descriptor used when the host exposes nothing.
	EmptyLabel = "polyfill"
)

// Provider returns the display catalog. Implementations never fail; they fall
// back to a synthesized single-display catalog instead.
type Provider interface {
	Catalog(ctx context.Context) Catalog
}

// Enumerator is a host capability that can list every attached display.
type Enumerator interface {
	Enumerate(ctx context.Context) (Catalog, error)
}

// ScreenInfo is whatever the host exposes about "the screen" when it cannot
// enumerate outputs. Nil pointer fields are absent and take defaults.
type ScreenInfo struct {
	AvailLeft   *int
	AvailTop    *int
	AvailWidth  int
	AvailHeight int

	Left   *int
	Top    *int
	Width  int
	Height int

	ColorDepth int
	PixelDepth int

	Orientation      *Orientation
	DevicePixelRatio *float64
}

// ScreenInfoFunc reads ScreenInfo from the host.
type ScreenInfoFunc func() ScreenInfo

// NewProvider selects the provider variant once: Native when the host can
// enumerate its displays, Synthesized otherwise.
func NewProvider(enum Enumerator, screen ScreenInfoFunc, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}

	fallback := &Synthesized{Screen: screen}
	if enum == nil {
		logger.Info("host does not support multi-display enumeration")
		return fallback
	}

	logger.Info("host supports multi-display enumeration")
	return &Native{
		Enumerator: enum,
		Fallback:   fallback,
		Logger:     logger,
	}
}

// Native trusts the host enumeration, including its choice of current display.
type Native struct {
	Enumerator Enumerator
	Fallback   *Synthesized
	Logger     *slog.Logger
}

var _ Provider = (*Native)(nil)

// Catalog returns the host enumeration. A failed or malformed enumeration
// degrades to the synthesized catalog.
func (n *Native) Catalog(ctx context.Context) Catalog {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := n.Enumerator.Enumerate(ctx)
	if err == nil {
		err = catalog.Validate()
	}
	if err != nil {
		logger.Warn("display enumeration failed, using synthesized catalog", "error", err)
		return n.fallback().Catalog(ctx)
	}

	logger.Debug("enumerated displays", "count", len(catalog.Screens), "current", catalog.CurrentScreen().Label)
	return catalog
}

func (n *Native) fallback() *Synthesized {
	if n.Fallback == nil {
		return &Synthesized{}
	}
	return n.Fallback
}

// Synthesized builds a single-display catalog from minimal host data.
type Synthesized struct {
	Screen ScreenInfoFunc
}

var _ Provider = (*Synthesized)(nil)

// Catalog returns a catalog whose only screen is also the current one.
func (s *Synthesized) Catalog(_ context.Context) Catalog {
	var d Descriptor
	if s == nil || s.Screen == nil {
		d = Empty()
	} else {
		d = Synthesize(s.Screen())
	}
	return Catalog{Screens: []Descriptor{d}, Current: 0}
}

// Synthesize converts ScreenInfo into a descriptor, defaulting absent fields.
func Synthesize(info ScreenInfo) Descriptor {
	orientation := DefaultOrientation
	if info.Orientation != nil {
		orientation = *info.Orientation
	}
	ratio := 1.0
	if info.DevicePixelRatio != nil {
		ratio = *info.DevicePixelRatio
	}

	return Descriptor{
		AvailLeft:        intOr(info.AvailLeft, 0),
		AvailTop:         intOr(info.AvailTop, 0),
		AvailWidth:       info.AvailWidth,
		AvailHeight:      info.AvailHeight,
		Left:             intOr(info.Left, 0),
		Top:              intOr(info.Top, 0),
		Width:            info.Width,
		Height:           info.Height,
		ColorDepth:       info.ColorDepth,
		PixelDepth:       info.PixelDepth,
		Orientation:      orientation,
		IsPrimary:        true,
		IsInternal:       true,
		IsExtended:       false,
		DevicePixelRatio: ratio,
		Label:            SynthesizedLabel,
	}
}

// Empty returns the all-zero descriptor used when nothing is known.
func Empty() Descriptor {
	return Descriptor{
		Orientation:      DefaultOrientation,
		IsPrimary:        true,
		IsInternal:       true,
		IsExtended:       false,
		DevicePixelRatio: 1.0,
		Label:            EmptyLabel,
	}
}

// Static serves a fixed catalog, typically loaded from a layout file.
type Static struct {
	Fixed Catalog
}

var _ Provider = (*Static)(nil)

// Catalog returns the fixed catalog.
func (s *Static) Catalog(_ context.Context) Catalog {
	return s.Fixed
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
