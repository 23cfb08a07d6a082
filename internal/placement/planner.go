package placement

import (
	"log/slog"

	"github.com/1broseidon/spanwin/internal/display"
)

// Planner chooses a content window placement. It is stateless; a nil Logger
// disables diagnostics.
type Planner struct {
	Logger *slog.Logger
}

// Plan is Planner.Plan without diagnostics.
func Plan(catalog display.Catalog, fullscreen bool) Placement {
	return (&Planner{}).Plan(catalog, fullscreen)
}

// Plan returns the placement for a new content window. Two arrangements are
// recognized:
//
//  1. Two or more identical landscape displays: the window covers the first
//     one to the right of the current display.
//  2. Two or more identical portrait displays: the window spans the left-most
//     one to the right of the current display and its right-hand neighbor.
//
// Portrait pairs win over landscape targets. Anything else yields the default
// placement on the current display.
func (p *Planner) Plan(catalog display.Catalog, fullscreen bool) Placement {
	def := Default(catalog, fullscreen)
	if len(catalog.Screens) < 2 {
		return def
	}

	groups := groupScreens(catalog.Screens, p.Logger)
	if len(groups) == 0 {
		p.debug("no two displays share a resolution, using default placement", "placement", def.String())
		return def
	}

	var portrait, landscape []Group
	for _, g := range groups {
		if g.Portrait() {
			portrait = append(portrait, g)
		} else {
			landscape = append(landscape, g)
		}
	}
	if len(portrait) > 0 {
		p.debug("found portrait resolutions", "count", len(portrait), "resolutions", groupKeys(portrait))
	}
	if len(landscape) > 0 {
		p.debug("found landscape resolutions", "count", len(landscape), "resolutions", groupKeys(landscape))
	}

	current := catalog.CurrentScreen()

	if target, ok := portraitTarget(portrait, current); ok {
		placed := Placement{
			X:          target.Left,
			Y:          target.Top,
			Width:      target.AvailWidth * 2,
			Height:     target.AvailHeight,
			SpanCount:  2,
			Fullscreen: fullscreen,
		}
		p.info("placing on portrait pair", "label", target.Label, "placement", placed.String())
		return placed
	}

	if target, ok := landscapeTarget(landscape, current); ok {
		placed := Placement{
			X:          target.Left,
			Y:          target.Top,
			Width:      target.AvailWidth,
			Height:     target.AvailHeight,
			SpanCount:  1,
			Fullscreen: fullscreen,
		}
		p.info("placing on landscape display", "label", target.Label, "placement", placed.String())
		return placed
	}

	p.info("falling back to default placement", "placement", def.String())
	return def
}

// portraitTarget finds, per group, the left-most display right of current
// that still has a neighbor further right, and keeps the largest. Ties keep
// the earlier group.
func portraitTarget(groups []Group, current display.Descriptor) (display.Descriptor, bool) {
	var target display.Descriptor
	found := false
	best := 0

	for _, g := range groups {
		last := len(g.Screens) - 1
		for i, s := range g.Screens {
			if s.Left <= current.Left {
				continue
			}
			if last-i >= 1 && s.Pixels() > best {
				target = s
				best = s.Pixels()
				found = true
			}
			break
		}
	}

	return target, found
}

// landscapeTarget finds, per group, the left-most display right of current
// whose pixel count is at least that of the current display and of any
// earlier match. Ties go to the later group.
func landscapeTarget(groups []Group, current display.Descriptor) (display.Descriptor, bool) {
	var target display.Descriptor
	found := false
	best := current.Pixels()

	for _, g := range groups {
		for _, s := range g.Screens {
			if s.Left <= current.Left {
				continue
			}
			if s.Pixels() >= best {
				target = s
				best = s.Pixels()
				found = true
			}
			break
		}
	}

	return target, found
}

func groupKeys(groups []Group) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key()
	}
	return keys
}

func (p *Planner) debug(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Debug(msg, args...)
	}
}

func (p *Planner) info(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Info(msg, args...)
	}
}
