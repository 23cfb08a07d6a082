package placement

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/spanwin/internal/display"
)

// MinPixels is the smallest display (in pixels) that can be a placement
// target. Roughly two megapixels.
const MinPixels = 1_800_000

// Group is a set of displays sharing the exact same resolution, ordered left
// to right.
type Group struct {
	Width   int                  `json:"width"`
	Height  int                  `json:"height"`
	Screens []display.Descriptor `json:"screens"`
}

// Key formats the group resolution as WIDTHxHEIGHT.
func (g Group) Key() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// Portrait reports whether the left-most member is portrait. Square displays
// count as portrait.
func (g Group) Portrait() bool {
	return g.Screens[0].IsPortrait()
}

// Groups partitions the catalog into resolution groups of two or more
// displays. Displays under MinPixels are skipped. Groups are returned in order
// of first appearance in the catalog; members are sorted by Left.
func Groups(catalog display.Catalog) []Group {
	return groupScreens(catalog.Screens, nil)
}

func groupScreens(screens []display.Descriptor, logger *slog.Logger) []Group {
	type key struct{ w, h int }

	index := make(map[key]int)
	var groups []Group
	for _, s := range screens {
		if s.Pixels() < MinPixels {
			if logger != nil {
				logger.Debug("skipping display under 2MP",
					"label", s.Label,
					"resolution", s.Resolution(),
					"pixels", s.Pixels())
			}
			continue
		}

		k := key{s.Width, s.Height}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Width: s.Width, Height: s.Height})
		}
		groups[i].Screens = append(groups[i].Screens, s)
	}

	kept := groups[:0]
	for _, g := range groups {
		if len(g.Screens) < 2 {
			if logger != nil {
				logger.Debug("removing resolution with a single display",
					"label", g.Screens[0].Label,
					"resolution", g.Key())
			}
			continue
		}
		sort.SliceStable(g.Screens, func(i, j int) bool {
			return g.Screens[i].Left < g.Screens[j].Left
		})
		kept = append(kept, g)
	}

	return kept
}
