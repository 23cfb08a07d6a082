// Package launcher opens a content window and moves it to a computed
// placement. It spawns the content command, waits for the window manager to
// map a new top-level window, then applies the placement rectangle and the
// fullscreen state.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/1broseidon/spanwin/internal/placement"
	"github.com/1broseidon/spanwin/internal/platform"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 150 * time.Millisecond
)

var (
	ErrEmptyCommand  = errors.New("content command is empty")
	ErrWindowTimeout = errors.New("timed out waiting for content window")
)

// Process is a started content command.
type Process struct {
	PID int
	// Exited is closed once the process has been reaped.
	Exited <-chan struct{}
}

// StartFunc starts argv with the extra environment entries appended.
type StartFunc func(argv []string, env []string) (Process, error)

// Result describes the window that was placed.
type Result struct {
	Window    platform.WindowID   `json:"window"`
	PID       int                 `json:"pid"`
	MatchedBy string              `json:"matchedBy"`
	Placement placement.Placement `json:"placement"`
}

const (
	matchPID = "pid"
	matchAny = "new-window"
)

// Launcher spawns content commands and places their windows.
type Launcher struct {
	Windows      platform.WindowSystem
	Timeout      time.Duration
	PollInterval time.Duration
	// Env is appended to the inherited environment of spawned commands.
	Env    []string
	Logger *slog.Logger

	start StartFunc
}

// New returns a Launcher that spawns real processes.
func New(windows platform.WindowSystem, logger *slog.Logger) *Launcher {
	return &Launcher{
		Windows:      windows,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		Logger:       logger,
		start:        startProcess,
	}
}

// SplitCommand parses a shell-style command line, expanding environment
// variables.
func SplitCommand(line string) ([]string, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	argv, err := parser.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", line, err)
	}
	return argv, nil
}

// Open starts argv, waits for its window and moves it to p.
func (l *Launcher) Open(ctx context.Context, p placement.Placement, argv []string) (Result, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Result{}, ErrEmptyCommand
	}

	before, err := l.Windows.ListWindows()
	if err != nil {
		return Result{}, fmt.Errorf("failed to list windows: %w", err)
	}
	existing := make(map[platform.WindowID]struct{}, len(before))
	for _, w := range before {
		existing[w.ID] = struct{}{}
	}

	start := l.start
	if start == nil {
		start = startProcess
	}
	proc, err := start(argv, l.Env)
	if err != nil {
		return Result{}, fmt.Errorf("failed to start %q: %w", argv[0], err)
	}
	l.logger().Debug("started content command", "argv", argv, "pid", proc.PID)

	win, matchedBy, err := l.waitForWindow(ctx, existing, proc)
	if err != nil {
		return Result{}, err
	}

	if err := l.Windows.MoveResize(win.ID, p.Rect()); err != nil {
		return Result{}, fmt.Errorf("failed to move window %d: %w", win.ID, err)
	}
	if p.Fullscreen {
		if err := l.Windows.SetFullscreen(win.ID, true); err != nil {
			return Result{}, fmt.Errorf("failed to make window %d fullscreen: %w", win.ID, err)
		}
	}
	if err := l.Windows.Activate(win.ID); err != nil {
		l.logger().Warn("failed to activate content window", "window", win.ID, "error", err)
	}

	l.logger().Info("placed content window",
		"window", win.ID,
		"title", win.Title,
		"matched_by", matchedBy,
		"placement", p.String())

	return Result{Window: win.ID, PID: proc.PID, MatchedBy: matchedBy, Placement: p}, nil
}

// waitForWindow polls for a window that did not exist before the spawn. A
// window owned by the child PID wins immediately. Any other new window is
// accepted once the child has exited (launcher-style commands hand off to an
// existing process) or when the deadline passes. A context deadline replaces
// l.Timeout.
func (l *Launcher) waitForWindow(ctx context.Context, existing map[platform.WindowID]struct{}, proc Process) (platform.Window, string, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := l.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
		timeout = time.Until(d).Round(time.Millisecond)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		candidate    platform.Window
		hasCandidate bool
		exited       bool
	)

	for {
		windows, err := l.Windows.ListWindows()
		if err != nil {
			l.logger().Debug("window list failed while waiting", "error", err)
		}
		for _, w := range windows {
			if _, ok := existing[w.ID]; ok {
				continue
			}
			if proc.PID > 0 && w.PID == proc.PID {
				return w, matchPID, nil
			}
			if !hasCandidate {
				candidate = w
				hasCandidate = true
				l.logger().Debug("new window not owned by content command",
					"window", w.ID, "pid", w.PID, "app_id", w.AppID)
			}
		}

		if !exited && proc.Exited != nil {
			select {
			case <-proc.Exited:
				exited = true
			default:
			}
		}
		if hasCandidate && exited {
			return candidate, matchAny, nil
		}

		if time.Now().After(deadline) {
			if hasCandidate {
				return candidate, matchAny, nil
			}
			return platform.Window{}, "", fmt.Errorf("%w after %s", ErrWindowTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			if hasCandidate {
				return candidate, matchAny, nil
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return platform.Window{}, "", fmt.Errorf("%w: %w", ErrWindowTimeout, ctx.Err())
			}
			return platform.Window{}, "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// startProcess starts argv detached from our lifetime and reaps it in the
// background.
func startProcess(argv []string, env []string) (Process, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	if err := cmd.Start(); err != nil {
		return Process{}, err
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	return Process{PID: cmd.Process.Pid, Exited: exited}, nil
}
