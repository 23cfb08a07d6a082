package ipc

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/spanwin/internal/config"
	"github.com/1broseidon/spanwin/internal/daemon"
	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/launcher"
	"github.com/1broseidon/spanwin/internal/logging"
	"github.com/1broseidon/spanwin/internal/placement"
)

type recordingOpener struct {
	argv [][]string
}

func (r *recordingOpener) Open(_ context.Context, p placement.Placement, argv []string) (launcher.Result, error) {
	r.argv = append(r.argv, argv)
	return launcher.Result{Window: 9, PID: 3, MatchedBy: "pid", Placement: p}, nil
}

func landscapeDesk() display.Catalog {
	mk := func(left int) display.Descriptor {
		return display.Descriptor{
			AvailLeft: left, AvailWidth: 1920, AvailHeight: 1050,
			Left: left, Width: 1920, Height: 1080,
		}
	}
	return display.Catalog{Screens: []display.Descriptor{mk(0), mk(1920)}, Current: 0}
}

func startTestServer(t *testing.T, reload func() error) (*Client, *recordingOpener) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.ContentCommand = "content --kiosk"
	opener := &recordingOpener{}
	svc, err := daemon.NewService(cfg, func(*config.Config) (display.Provider, error) {
		return &display.Static{Fixed: landscapeDesk()}, nil
	}, opener, logging.Discard())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	socket := filepath.Join(t.TempDir(), "s.sock")
	srv := NewServer(socket, svc, reload, logging.Discard())
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)

	return NewClient(socket, 2*time.Second), opener
}

func TestServer_StatusAndDisplays(t *testing.T) {
	client, _ := startTestServer(t, nil)

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning || status.Displays != 2 || status.Provider != "auto" {
		t.Fatalf("unexpected status: %+v", status)
	}

	catalog, err := client.GetDisplays()
	if err != nil {
		t.Fatalf("GetDisplays: %v", err)
	}
	if len(catalog.Screens) != 2 || catalog.Screens[1].Left != 1920 {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}
}

func TestServer_PlanAndOpen(t *testing.T) {
	client, opener := startTestServer(t, nil)

	plan, err := client.Plan(PlanPayload{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := placement.Placement{X: 1920, Y: 0, Width: 1920, Height: 1050, SpanCount: 1}
	if plan.Placement != want {
		t.Fatalf("Plan placement = %+v, want %+v", plan.Placement, want)
	}

	fs := true
	res, err := client.Open(PlanPayload{Action: "fixed", Fullscreen: &fs, Command: []string{"mpv", "talk.mkv"}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if res.Window != 9 || res.Placement.X != 1920 || res.Placement.Width != config.DefaultFixedWidth {
		t.Fatalf("unexpected open result: %+v", res)
	}
	if len(opener.argv) != 1 || strings.Join(opener.argv[0], " ") != "mpv talk.mkv" {
		t.Fatalf("unexpected argv: %v", opener.argv)
	}

	if _, err := client.Plan(PlanPayload{Action: "tile"}); err == nil {
		t.Fatalf("expected unknown action to fail")
	}
}

func TestServer_Reload(t *testing.T) {
	calls := 0
	client, _ := startTestServer(t, func() error {
		calls++
		if calls > 1 {
			return errors.New("bad yaml")
		}
		return nil
	})

	if err := client.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	err := client.Reload()
	if err == nil || !strings.Contains(err.Error(), "bad yaml") {
		t.Fatalf("expected reload error to surface, got %v", err)
	}
}

func TestServer_UnknownCommand(t *testing.T) {
	client, _ := startTestServer(t, nil)

	err := client.call("FROB", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestServer_InvalidJSON(t *testing.T) {
	client, _ := startTestServer(t, nil)

	conn, err := net.Dial("unix", client.socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 256)
	n, _ := conn.Read(buf)
	if !strings.Contains(string(buf[:n]), `"status":"ERROR"`) {
		t.Fatalf("expected error response, got %q", buf[:n])
	}
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "missing.sock"), 100*time.Millisecond)
	if err := client.Ping(); err == nil || !strings.Contains(err.Error(), "is the daemon running") {
		t.Fatalf("expected connection error, got %v", err)
	}
}
