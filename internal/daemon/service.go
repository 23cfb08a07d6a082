// Package daemon runs the spanwin pipeline: read the display catalog, plan a
// placement and open the content window there. The same Service backs the
// one-shot CLI, the hotkey daemon, IPC requests and the MCP server.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/spanwin/internal/config"
	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/hotkeys"
	"github.com/1broseidon/spanwin/internal/launcher"
	"github.com/1broseidon/spanwin/internal/placement"
)

// Opener is the window-opening primitive.
type Opener interface {
	Open(ctx context.Context, p placement.Placement, argv []string) (launcher.Result, error)
}

// ProviderFunc builds the display catalog provider for a configuration.
type ProviderFunc func(cfg *config.Config) (display.Provider, error)

// OpenRequest selects how a content window is opened. Zero values fall back
// to the configuration.
type OpenRequest struct {
	Action     hotkeys.Action
	Fullscreen *bool
	Command    []string
}

// Status summarizes a running service.
type Status struct {
	Provider      string `json:"provider"`
	LayoutFile    string `json:"layoutFile,omitempty"`
	Displays      int    `json:"displays"`
	Opened        int    `json:"opened"`
	LastError     string `json:"lastError,omitempty"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// Service owns the current configuration and catalog provider.
type Service struct {
	newProvider ProviderFunc
	opener      Opener
	logger      *slog.Logger
	startTime   time.Time

	mu        sync.RWMutex
	cfg       *config.Config
	provider  display.Provider
	opened    int
	lastError string
}

// NewService validates cfg and builds its provider.
func NewService(cfg *config.Config, newProvider ProviderFunc, opener Opener, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		newProvider: newProvider,
		opener:      opener,
		logger:      logger,
		startTime:   time.Now(),
	}
	if err := s.Apply(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply swaps in a new configuration. The old one stays active on error.
func (s *Service) Apply(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	provider, err := s.newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to build display provider: %w", err)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.provider = provider
	s.mu.Unlock()
	return nil
}

// Config returns the active configuration. Callers must not modify it.
func (s *Service) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Catalog returns the current display catalog.
func (s *Service) Catalog(ctx context.Context) display.Catalog {
	s.mu.RLock()
	provider := s.provider
	s.mu.RUnlock()
	return provider.Catalog(ctx)
}

// Resolve computes the placement for action on the current catalog.
func (s *Service) Resolve(ctx context.Context, action hotkeys.Action, fullscreen *bool) (display.Catalog, placement.Placement) {
	cfg := s.Config()
	fs := cfg.Fullscreen
	if fullscreen != nil {
		fs = *fullscreen
	}

	catalog := s.Catalog(ctx)
	if action == hotkeys.ActionFixed {
		size := placement.FixedSize{Width: cfg.FixedSize.Width, Height: cfg.FixedSize.Height}
		return catalog, placement.Fixed(catalog, size)
	}

	planner := &placement.Planner{Logger: s.logger}
	return catalog, planner.Plan(catalog, fs)
}

// Open resolves a placement and opens the content window there.
func (s *Service) Open(ctx context.Context, req OpenRequest) (launcher.Result, error) {
	cfg := s.Config()

	argv := req.Command
	if len(argv) == 0 {
		var err error
		argv, err = launcher.SplitCommand(cfg.ContentCommand)
		if err != nil {
			return launcher.Result{}, s.fail(err)
		}
	}

	_, p := s.Resolve(ctx, req.Action, req.Fullscreen)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.WindowTimeoutMs)*time.Millisecond)
	defer cancel()

	res, err := s.opener.Open(ctx, p, argv)
	if err != nil {
		return launcher.Result{}, s.fail(err)
	}

	s.mu.Lock()
	s.opened++
	s.lastError = ""
	s.mu.Unlock()
	return res, nil
}

// Trigger runs action with the configured command. Errors are logged; it is
// meant for hotkey callbacks.
func (s *Service) Trigger(ctx context.Context, action hotkeys.Action) {
	if _, err := s.Open(ctx, OpenRequest{Action: action}); err != nil {
		s.logger.Error("failed to open content window", "action", action, "error", err)
	}
}

// Status reports counters and the active provider.
func (s *Service) Status(ctx context.Context) Status {
	catalog := s.Catalog(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Provider:      s.cfg.Provider,
		LayoutFile:    s.cfg.LayoutFile,
		Displays:      len(catalog.Screens),
		Opened:        s.opened,
		LastError:     s.lastError,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
}

func (s *Service) fail(err error) error {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	return err
}
