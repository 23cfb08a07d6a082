package placement

import (
	"bytes"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/spanwin/internal/display"
)

func screen(label string, left, width, height int) display.Descriptor {
	return display.Descriptor{
		AvailLeft:        left,
		AvailWidth:       width,
		AvailHeight:      height,
		Left:             left,
		Width:            width,
		Height:           height,
		ColorDepth:       24,
		PixelDepth:       24,
		Orientation:      display.DefaultOrientation,
		DevicePixelRatio: 1.0,
		Label:            label,
	}
}

func catalogOf(current int, screens ...display.Descriptor) display.Catalog {
	return display.Catalog{Screens: screens, Current: current}
}

func TestPlan_SingleDisplayUsesDefault(t *testing.T) {
	s := screen("eDP-1", 0, 1920, 1080)
	s.AvailHeight = 1050

	got := Plan(catalogOf(0, s), false)
	assert.Equal(t, Placement{X: 0, Y: 0, Width: 1920, Height: 1050, SpanCount: 1}, got)
}

func TestPlan_DefaultPassesFullscreenThrough(t *testing.T) {
	got := Plan(catalogOf(0, screen("eDP-1", 0, 1920, 1080)), true)
	assert.True(t, got.Fullscreen)

	got = Plan(catalogOf(0, screen("a", 0, 1920, 1080), screen("b", 1920, 2560, 1440)), true)
	assert.True(t, got.Fullscreen)
	assert.Equal(t, 1, got.SpanCount)
}

func TestPlan_DefaultUsesFullOriginAndUsableSize(t *testing.T) {
	s := screen("DP-1", 100, 2560, 1600)
	s.Top = 50
	s.AvailLeft = 148
	s.AvailTop = 80
	s.AvailWidth = 2412
	s.AvailHeight = 1570

	got := Plan(catalogOf(0, s), false)
	assert.Equal(t, Placement{X: 100, Y: 50, Width: 2412, Height: 1570, SpanCount: 1}, got)
}

func TestPlan_TwoIdenticalLandscapeDisplays(t *testing.T) {
	catalog := catalogOf(0,
		screen("left", 0, 2560, 1600),
		screen("right", 2560, 2560, 1600),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Placement{X: 2560, Y: 0, Width: 2560, Height: 1600, SpanCount: 1}, got)
}

func TestPlan_LandscapePlusPortraitPair(t *testing.T) {
	catalog := catalogOf(0,
		screen("landscape", 0, 2560, 1600),
		screen("middle", 2560, 1440, 2560),
		screen("rightmost", 4000, 1440, 2560),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Placement{X: 2560, Y: 0, Width: 2880, Height: 2560, SpanCount: 2}, got)
}

func TestPlan_PortraitWidthUsesUsableWidth(t *testing.T) {
	middle := screen("middle", 2560, 1440, 2560)
	middle.AvailWidth = 1400
	middle.AvailHeight = 2520
	middle.Top = 10

	catalog := catalogOf(0,
		screen("landscape", 0, 2560, 1600),
		middle,
		screen("rightmost", 4000, 1440, 2560),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Placement{X: 2560, Y: 10, Width: 2800, Height: 2520, SpanCount: 2}, got)
}

func TestPlan_NoMatchingResolutionsUsesDefault(t *testing.T) {
	catalog := catalogOf(0,
		screen("a", 0, 1920, 1080),
		screen("b", 1920, 2560, 1440),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Default(catalog, false), got)
}

func TestPlan_SquareDisplaysAreTreatedAsPortrait(t *testing.T) {
	catalog := catalogOf(0,
		screen("landscape", 0, 2560, 1600),
		screen("square-1", 2560, 2000, 2000),
		screen("square-2", 4560, 2000, 2000),
	)

	got := Plan(catalog, false)
	assert.Equal(t, 2, got.SpanCount)
	assert.Equal(t, 2560, got.X)
	assert.Equal(t, 4000, got.Width)
}

func TestPlan_SmallDisplaysAreNeverTargets(t *testing.T) {
	// 1600x1000 = 1.6MP, under the threshold.
	catalog := catalogOf(0,
		screen("a", 0, 1600, 1000),
		screen("b", 1600, 1600, 1000),
		screen("c", 3200, 1600, 1000),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Default(catalog, false), got)
	assert.Empty(t, Groups(catalog))
}

func TestPlan_PortraitPreferredOverLandscape(t *testing.T) {
	catalog := catalogOf(0,
		screen("current", 0, 2560, 1440),
		screen("landscape-1", 2560, 2560, 1440),
		screen("landscape-2", 5120, 2560, 1440),
		screen("portrait-1", 7680, 1440, 2560),
		screen("portrait-2", 9120, 1440, 2560),
	)

	got := Plan(catalog, false)
	assert.Equal(t, 2, got.SpanCount)
	assert.Equal(t, 7680, got.X)
}

func TestPlan_PortraitNeedsNeighborToTheRight(t *testing.T) {
	// The only portrait display right of current is the last of its group,
	// so the landscape search runs instead.
	catalog := catalogOf(1,
		screen("portrait-left", -1440, 1440, 2560),
		screen("current", 0, 2560, 1440),
		screen("portrait-right", 2560, 1440, 2560),
		screen("landscape-1", 4000, 2560, 1440),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Placement{X: 4000, Y: 0, Width: 2560, Height: 1440, SpanCount: 1}, got)
}

func TestPlan_PortraitFirstRightOfCurrentIsOnlyCandidate(t *testing.T) {
	// The first portrait display right of current has no right neighbor; the
	// search does not continue to later members of that group.
	catalog := catalogOf(0,
		screen("current", 0, 2560, 1600),
		screen("p1", 2560, 1440, 2560),
		screen("p0", -2880, 1440, 2560),
		screen("p-1", -1440, 1440, 2560),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Default(catalog, false), got)
}

func TestPlan_DisplaysLeftOfCurrentAreIgnored(t *testing.T) {
	catalog := catalogOf(2,
		screen("p1", 0, 1440, 2560),
		screen("p2", 1440, 1440, 2560),
		screen("current", 2880, 2560, 1600),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Default(catalog, false), got)
}

func TestPlan_UnorderedInputIsSortedByLeft(t *testing.T) {
	catalog := catalogOf(0,
		screen("landscape", 0, 2560, 1600),
		screen("rightmost", 4000, 1440, 2560),
		screen("middle", 2560, 1440, 2560),
	)

	got := Plan(catalog, false)
	assert.Equal(t, 2560, got.X)
	assert.Equal(t, 2, got.SpanCount)
}

func TestPlan_LandscapeSmallerThanCurrentIsRejected(t *testing.T) {
	catalog := catalogOf(0,
		screen("4k", 0, 3840, 2160),
		screen("hd-1", 3840, 1920, 1080),
		screen("hd-2", 5760, 1920, 1080),
	)

	got := Plan(catalog, false)
	assert.Equal(t, Default(catalog, false), got)
}

func TestPlan_LandscapeLargerGroupWins(t *testing.T) {
	catalog := catalogOf(0,
		screen("current", 0, 1920, 1080),
		screen("qhd-1", 1920, 2560, 1440),
		screen("hd-1", 4480, 1920, 1080),
		screen("qhd-2", 6400, 2560, 1440),
		screen("4k-1", 8960, 3840, 2160),
		screen("4k-2", 12800, 3840, 2160),
	)

	got := Plan(catalog, false)
	assert.Equal(t, 8960, got.X)
	assert.Equal(t, 3840, got.Width)
}

func TestPlan_PortraitTieKeepsFirstGroup(t *testing.T) {
	// 1920x1920 and 1440x2560 both have 3,686,400 pixels.
	catalog := catalogOf(0,
		screen("current", 0, 2560, 1600),
		screen("tall-1", 6400, 1440, 2560),
		screen("square-1", 2560, 1920, 1920),
		screen("square-2", 4480, 1920, 1920),
		screen("tall-2", 7840, 1440, 2560),
	)

	got := Plan(catalog, false)
	assert.Equal(t, 6400, got.X, "first-seen portrait group should win the tie")
	assert.Equal(t, 2880, got.Width)
}

func TestPlan_LandscapeTiePrefersLaterGroup(t *testing.T) {
	// 2560x1440, 2880x1280 and 3072x1200 all have 3,686,400 pixels.
	catalog := catalogOf(0,
		screen("current", 0, 2560, 1440),
		screen("wide-1", 3000, 2880, 1280),
		screen("wide-2", 5880, 2880, 1280),
		screen("wider-1", 9000, 3072, 1200),
		screen("wider-2", 12072, 3072, 1200),
	)

	got := Plan(catalog, false)
	assert.Equal(t, 9000, got.X, "later landscape group should win the tie")
	assert.Equal(t, 3072, got.Width)
}

func TestPlan_IsIdempotentAndDoesNotMutateInput(t *testing.T) {
	catalog := catalogOf(0,
		screen("landscape", 0, 2560, 1600),
		screen("rightmost", 4000, 1440, 2560),
		screen("middle", 2560, 1440, 2560),
	)
	before := append([]display.Descriptor(nil), catalog.Screens...)

	first := Plan(catalog, true)
	second := Plan(catalog, true)
	assert.Equal(t, first, second)
	assert.Equal(t, before, catalog.Screens)
}

func TestPlan_RandomCatalogProperties(t *testing.T) {
	resolutions := [][2]int{
		{1280, 1024}, {1600, 1000}, {1920, 1080}, {2560, 1440},
		{2560, 1600}, {1440, 2560}, {1080, 1920}, {2000, 2000}, {3840, 2160},
	}
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(5)
		screens := make([]display.Descriptor, n)
		left := 0
		for i := range screens {
			r := resolutions[rng.Intn(len(resolutions))]
			screens[i] = screen("s", left, r[0], r[1])
			left += r[0]
		}
		rng.Shuffle(len(screens), func(i, j int) { screens[i], screens[j] = screens[j], screens[i] })
		catalog := catalogOf(rng.Intn(n), screens...)
		current := catalog.CurrentScreen()

		got := Plan(catalog, false)
		require.Equal(t, got, Plan(catalog, false))

		if got == Default(catalog, false) {
			continue
		}

		var target display.Descriptor
		for _, s := range screens {
			if s.Left == got.X {
				target = s
			}
		}
		require.GreaterOrEqual(t, target.Pixels(), MinPixels, "iteration %d", iter)
		require.Greater(t, target.Left, current.Left, "iteration %d", iter)
		if got.SpanCount == 1 {
			require.GreaterOrEqual(t, target.Pixels(), current.Pixels(), "iteration %d", iter)
			require.False(t, target.IsPortrait(), "iteration %d", iter)
		} else {
			require.Equal(t, 2, got.SpanCount)
			require.True(t, target.IsPortrait(), "iteration %d", iter)
			require.Equal(t, target.AvailWidth*2, got.Width)
		}
	}
}

func TestPlanner_LogsDecision(t *testing.T) {
	var buf bytes.Buffer
	planner := &Planner{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	planner.Plan(catalogOf(0,
		screen("tiny", 0, 1024, 768),
		screen("landscape", 1024, 2560, 1600),
		screen("middle", 3584, 1440, 2560),
		screen("rightmost", 5024, 1440, 2560),
	), false)

	out := buf.String()
	assert.Contains(t, out, "skipping display under 2MP")
	assert.Contains(t, out, "removing resolution with a single display")
	assert.Contains(t, out, "placing on portrait pair")
}

func TestGroups_OrderAndMembership(t *testing.T) {
	catalog := catalogOf(0,
		screen("hd-b", 5000, 1920, 1080),
		screen("tall-a", 1920, 1440, 2560),
		screen("hd-a", 0, 1920, 1080),
		screen("tall-b", 3360, 1440, 2560),
		screen("single", 9000, 3840, 2160),
	)

	groups := Groups(catalog)
	require.Len(t, groups, 2)
	assert.Equal(t, "1920x1080", groups[0].Key())
	assert.Equal(t, "hd-a", groups[0].Screens[0].Label)
	assert.False(t, groups[0].Portrait())
	assert.Equal(t, "1440x2560", groups[1].Key())
	assert.True(t, groups[1].Portrait())
	assert.Equal(t, "tall-a", groups[1].Screens[0].Label)
}

func TestFixed_PlacesRightOfCurrent(t *testing.T) {
	catalog := catalogOf(0,
		screen("landscape", 0, 2560, 1600),
		screen("middle", 2560, 1440, 2560),
	)

	got := Fixed(catalog, DefaultFixedSize)
	assert.Equal(t, Placement{X: 2560, Y: 0, Width: 2880, Height: 2560, SpanCount: 1}, got)
}
