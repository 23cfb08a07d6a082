package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/spanwin/internal/config"
	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/hotkeys"
	"github.com/1broseidon/spanwin/internal/launcher"
	"github.com/1broseidon/spanwin/internal/logging"
	"github.com/1broseidon/spanwin/internal/placement"
)

type fakeOpener struct {
	calls []openCall
	err   error
}

type openCall struct {
	placement placement.Placement
	argv      []string
	deadline  bool
}

func (f *fakeOpener) Open(ctx context.Context, p placement.Placement, argv []string) (launcher.Result, error) {
	_, hasDeadline := ctx.Deadline()
	f.calls = append(f.calls, openCall{placement: p, argv: argv, deadline: hasDeadline})
	if f.err != nil {
		return launcher.Result{}, f.err
	}
	return launcher.Result{Window: 77, PID: 1, MatchedBy: "pid", Placement: p}, nil
}

func screen(left, w, h int) display.Descriptor {
	return display.Descriptor{
		AvailLeft: left, AvailWidth: w, AvailHeight: h - 30,
		Left: left, Width: w, Height: h,
		Label: "S",
	}
}

// Laptop plus two portrait 1440x2560 displays to its right.
func portraitDesk() display.Catalog {
	return display.Catalog{
		Screens: []display.Descriptor{
			screen(0, 2560, 1600),
			screen(2560, 1440, 2560),
			screen(4000, 1440, 2560),
		},
		Current: 0,
	}
}

func staticProvider(c display.Catalog) ProviderFunc {
	return func(*config.Config) (display.Provider, error) {
		return &display.Static{Fixed: c}, nil
	}
}

func newTestService(t *testing.T, cfg *config.Config, opener Opener) *Service {
	t.Helper()
	svc, err := NewService(cfg, staticProvider(portraitDesk()), opener, logging.Discard())
	require.NoError(t, err)
	return svc
}

func TestServiceOpen_PlannedUsesConfiguredCommand(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.ContentCommand = "chromium --app=https://example.com"
	cfg.Fullscreen = true
	opener := &fakeOpener{}
	svc := newTestService(t, cfg, opener)

	res, err := svc.Open(context.Background(), OpenRequest{Action: hotkeys.ActionPlanned})
	require.NoError(t, err)

	require.Len(t, opener.calls, 1)
	call := opener.calls[0]
	assert.Equal(t, []string{"chromium", "--app=https://example.com"}, call.argv)
	assert.True(t, call.deadline)
	assert.Equal(t, placement.Placement{X: 2560, Y: 0, Width: 2880, Height: 2530, SpanCount: 2, Fullscreen: true}, call.placement)
	assert.Equal(t, call.placement, res.Placement)

	status := svc.Status(context.Background())
	assert.Equal(t, 1, status.Opened)
	assert.Equal(t, 3, status.Displays)
	assert.Empty(t, status.LastError)
}

func TestServiceOpen_RequestOverrides(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Fullscreen = true
	opener := &fakeOpener{}
	svc := newTestService(t, cfg, opener)

	off := false
	_, err := svc.Open(context.Background(), OpenRequest{Fullscreen: &off, Command: []string{"mpv", "deck.mp4"}})
	require.NoError(t, err)

	require.Len(t, opener.calls, 1)
	assert.Equal(t, []string{"mpv", "deck.mp4"}, opener.calls[0].argv)
	assert.False(t, opener.calls[0].placement.Fullscreen)
}

func TestServiceOpen_Fixed(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.ContentCommand = "content"
	cfg.FixedSize = config.Size{Width: 1920, Height: 1080}
	opener := &fakeOpener{}
	svc := newTestService(t, cfg, opener)

	_, err := svc.Open(context.Background(), OpenRequest{Action: hotkeys.ActionFixed})
	require.NoError(t, err)
	assert.Equal(t, placement.Placement{X: 2560, Y: 0, Width: 1920, Height: 1080, SpanCount: 1}, opener.calls[0].placement)
}

func TestServiceOpen_ErrorsRecorded(t *testing.T) {
	t.Parallel()

	opener := &fakeOpener{err: launcher.ErrWindowTimeout}
	cfg := config.DefaultConfig()
	cfg.ContentCommand = "content"
	svc := newTestService(t, cfg, opener)

	_, err := svc.Open(context.Background(), OpenRequest{})
	require.ErrorIs(t, err, launcher.ErrWindowTimeout)
	assert.Contains(t, svc.Status(context.Background()).LastError, "timed out")
}

func TestServiceOpen_EmptyCommandReachesOpener(t *testing.T) {
	t.Parallel()

	opener := &fakeOpener{err: launcher.ErrEmptyCommand}
	svc := newTestService(t, config.DefaultConfig(), opener)

	_, err := svc.Open(context.Background(), OpenRequest{})
	require.ErrorIs(t, err, launcher.ErrEmptyCommand)
	require.Len(t, opener.calls, 1)
	assert.Empty(t, opener.calls[0].argv)
}

func TestServiceApply(t *testing.T) {
	t.Parallel()

	calls := 0
	newProvider := func(cfg *config.Config) (display.Provider, error) {
		calls++
		if cfg.LayoutFile == "broken.yaml" {
			return nil, errors.New("boom")
		}
		return &display.Static{Fixed: portraitDesk()}, nil
	}
	svc, err := NewService(config.DefaultConfig(), newProvider, &fakeOpener{}, logging.Discard())
	require.NoError(t, err)

	bad := config.DefaultConfig()
	bad.WindowTimeoutMs = 0
	require.Error(t, svc.Apply(bad))

	broken := config.DefaultConfig()
	broken.LayoutFile = "broken.yaml"
	require.Error(t, svc.Apply(broken))
	assert.Empty(t, svc.Config().LayoutFile, "previous config stays active")

	next := config.DefaultConfig()
	next.ContentCommand = "feh slides.png"
	require.NoError(t, svc.Apply(next))
	assert.Equal(t, "feh slides.png", svc.Config().ContentCommand)
	assert.Equal(t, 3, calls)
}

func TestServiceResolve_SingleDisplayDefault(t *testing.T) {
	t.Parallel()

	single := display.Catalog{Screens: []display.Descriptor{screen(0, 1920, 1080)}}
	svc, err := NewService(config.DefaultConfig(), staticProvider(single), &fakeOpener{}, logging.Discard())
	require.NoError(t, err)

	catalog, p := svc.Resolve(context.Background(), hotkeys.ActionPlanned, nil)
	assert.Len(t, catalog.Screens, 1)
	assert.Equal(t, placement.Placement{X: 0, Y: 0, Width: 1920, Height: 1050, SpanCount: 1}, p)
}
