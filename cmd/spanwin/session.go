package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/1broseidon/spanwin/internal/config"
	"github.com/1broseidon/spanwin/internal/daemon"
	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/launcher"
	"github.com/1broseidon/spanwin/internal/logging"
	"github.com/1broseidon/spanwin/internal/platform"
	"github.com/1broseidon/spanwin/internal/x11"
)

var errNoDisplaySource = errors.New("no X connection and no layout_file configured")

// loadConfig reads path, or the default config location when path is empty.
func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return config.LoadFromPath(path)
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return slog.Default()
	}
	return logger
}

// connectX finds the X session (exporting it for child processes) and opens a
// connection in the configured provider mode.
func connectX(cfg *config.Config) (*platform.LinuxBackend, x11.SessionEnv, error) {
	env, err := x11.ResolveSessionEnv(os.Environ(), cfg.Display, cfg.XAuthority)
	if err != nil {
		return nil, x11.SessionEnv{}, err
	}
	if err := env.Apply(); err != nil {
		return nil, x11.SessionEnv{}, err
	}

	backend, err := platform.NewLinuxBackendFromDisplay(env.Display, platform.ProviderMode(cfg.Provider))
	if err != nil {
		return nil, x11.SessionEnv{}, err
	}
	return backend, env, nil
}

// providerFunc builds catalog providers: a static catalog when layout_file is
// set, otherwise the X backend in the configured mode.
func providerFunc(backend *platform.LinuxBackend, logger *slog.Logger) daemon.ProviderFunc {
	return func(cfg *config.Config) (display.Provider, error) {
		if cfg.LayoutFile != "" {
			catalog, err := display.LoadCatalogFile(cfg.LayoutFile)
			if err != nil {
				return nil, err
			}
			return &display.Static{Fixed: catalog}, nil
		}
		if backend == nil {
			return nil, errNoDisplaySource
		}
		return backend.WithMode(platform.ProviderMode(cfg.Provider)).DisplayProvider(logger), nil
	}
}

// session is a Service plus the X connection behind it.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	backend  *platform.LinuxBackend
	launcher *launcher.Launcher
	service  *daemon.Service
}

// openSession builds the pipeline for cfg. The X connection is skipped when a
// layout file supplies the catalog and windows will not be touched; a failed
// connection is tolerated in that case too.
func openSession(cfg *config.Config, logger *slog.Logger, needWindows bool) (*session, error) {
	s := &session{cfg: cfg, logger: logger}

	var env x11.SessionEnv
	if needWindows || cfg.LayoutFile == "" {
		backend, resolved, err := connectX(cfg)
		switch {
		case err == nil:
			s.backend = backend
			env = resolved
		case cfg.LayoutFile != "" && !needWindows:
			logger.Warn("X connection failed, using layout file only", "error", err)
		default:
			return nil, err
		}
	}

	s.launcher = launcher.New(s.backend, logger.With("component", "launcher"))
	s.launcher.Env = env.Environ()

	svc, err := daemon.NewService(cfg, providerFunc(s.backend, logger), s.launcher, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.service = svc
	return s, nil
}

func (s *session) Close() {
	if s.backend != nil {
		s.backend.Disconnect()
	}
}
