package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/1broseidon/spanwin/internal/config"
	"github.com/1broseidon/spanwin/internal/daemon"
	"github.com/1broseidon/spanwin/internal/hotkeys"
	"github.com/1broseidon/spanwin/internal/ipc"
	"github.com/1broseidon/spanwin/internal/runtimepath"
)

func runDaemon(args []string) int {
	fs, path := newFlagSet("daemon", "spanwin daemon [--config PATH]",
		"Run in the foreground: bind the placement hotkeys, serve IPC requests and\n"+
			"reload the config on SIGHUP or when the config or layout file changes.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	configPath := res.Path
	cfg := res.Config
	logger := newLogger(cfg)
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	s, err := openSession(cfg, logger, true)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer s.Close()
	svc := s.service

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Callbacks run on the event loop; opening waits for a window, so it
	// must not block there.
	fire := func(action hotkeys.Action) {
		logger.Debug("hotkey pressed", "action", action)
		go svc.Trigger(ctx, action)
	}

	hk := hotkeys.NewHandler(s.backend.XUtil(), s.backend.RootWindow(), logger)
	defer hk.Close()
	if err := hk.Bind(hotkeys.Bindings(cfg.PlannedHotkey, cfg.FixedHotkey), fire); err != nil {
		log.Fatalf("Failed to register hotkeys: %v", err)
	}
	for _, b := range hk.Bound() {
		logger.Info("hotkey registered", "action", b.Action, "keys", b.Sequence)
	}

	watcher, err := daemon.NewWatcher(0, logger)
	if err != nil {
		log.Fatalf("Failed to create file watcher: %v", err)
	}
	defer watcher.Close()
	if err := watcher.SetFiles(configPath, cfg.LayoutFile); err != nil {
		logger.Warn("failed to watch config files", "error", err)
	}

	var reloadMu sync.Mutex
	reload := func() error {
		reloadMu.Lock()
		defer reloadMu.Unlock()

		res, err := config.LoadFromPath(configPath)
		if err != nil {
			return err
		}
		newCfg := res.Config
		bindings := hotkeys.Bindings(newCfg.PlannedHotkey, newCfg.FixedHotkey)
		if err := hk.Validate(bindings); err != nil {
			return err
		}
		if err := svc.Apply(newCfg); err != nil {
			return err
		}
		if err := hk.Bind(bindings, fire); err != nil {
			return fmt.Errorf("config applied but hotkeys failed: %w", err)
		}
		if err := watcher.SetFiles(configPath, newCfg.LayoutFile); err != nil {
			logger.Warn("failed to watch config files", "error", err)
		}
		logger.Info("config reloaded", "path", configPath, "provider", newCfg.Provider, "layout_file", newCfg.LayoutFile)
		return nil
	}

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		log.Fatalf("Failed to resolve IPC socket path: %v", err)
	}
	ipcServer := ipc.NewServer(socketPath, svc, reload, logger)
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	go watcher.Run(ctx, func() {
		if err := reload(); err != nil {
			logger.Error("config reload failed", "error", err)
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					if err := reload(); err != nil {
						logger.Error("config reload failed", "error", err)
					}
					continue
				}
				// The X event loop only notices a quit request on the next
				// event, so clean up here and exit.
				logger.Info("shutting down spanwin daemon", "signal", sig.String())
				cancel()
				ipcServer.Stop()
				s.Close()
				os.Exit(0)
			}
		}
	}()

	catalog := svc.Catalog(ctx)
	logger.Info("spanwin daemon started", "displays", len(catalog.Screens), "socket", socketPath)

	s.backend.EventLoop()
	return 0
}
