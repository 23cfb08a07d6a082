package x11

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestResolveSessionEnv_PrefersProcessEnv(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":99", "/tmp/should-not-be-used" },
		func(string) string { return ":88" },
	)
	defer restore()

	env := []string{"HOME=" + t.TempDir(), "DISPLAY=:7", "XAUTHORITY=/tmp/xauth-existing"}
	got, err := ResolveSessionEnv(env, ":1", "/tmp/cfg")
	if err != nil {
		t.Fatalf("ResolveSessionEnv returned error: %v", err)
	}
	if got.Display != ":7" || got.XAuthority != "/tmp/xauth-existing" {
		t.Fatalf("unexpected env: %+v", got)
	}
}

func TestResolveSessionEnv_UsesConfigAndHomeXAuthority(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	home := t.TempDir()
	xauth := filepath.Join(home, ".Xauthority")
	if err := os.WriteFile(xauth, []byte("cookie"), 0600); err != nil {
		t.Fatalf("write xauthority: %v", err)
	}

	got, err := ResolveSessionEnv([]string{"HOME=" + home}, ":1", "")
	if err != nil {
		t.Fatalf("ResolveSessionEnv returned error: %v", err)
	}
	if got.Display != ":1" || got.XAuthority != xauth {
		t.Fatalf("unexpected env: %+v", got)
	}
}

func TestResolveSessionEnv_UsesDetectedValues(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":5", "/tmp/xauth-detected" },
		func(string) string { return "" },
	)
	defer restore()

	got, err := ResolveSessionEnv([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("ResolveSessionEnv returned error: %v", err)
	}
	if got.Display != ":5" || got.XAuthority != "/tmp/xauth-detected" {
		t.Fatalf("unexpected env: %+v", got)
	}
}

func TestResolveSessionEnv_SocketFallbackAndRuntimeDir(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return ":3" },
	)
	defer restore()

	xdg := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", xdg)

	got, err := ResolveSessionEnv([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("ResolveSessionEnv returned error: %v", err)
	}
	if got.Display != ":3" || got.RuntimeDir != xdg {
		t.Fatalf("unexpected env: %+v", got)
	}

	environ := strings.Join(got.Environ(), " ")
	if !strings.Contains(environ, "DISPLAY=:3") || !strings.Contains(environ, "XDG_RUNTIME_DIR="+xdg) {
		t.Fatalf("Environ() = %q", environ)
	}
}

func TestResolveSessionEnv_ErrorWhenDisplayUnavailable(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	_, err := ResolveSessionEnv([]string{"HOME=" + t.TempDir()}, "", "")
	if err == nil || !strings.Contains(err.Error(), "no X display found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDetectDisplayFromSockets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"X0", "X2", "not-a-display"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if got := detectDisplayFromSockets(dir); got != ":2" {
		t.Fatalf("detectDisplayFromSockets = %q, want %q", got, ":2")
	}
}

func TestParseLoginctlSessions(t *testing.T) {
	out := strings.Join([]string{
		"1 1000 george seat0",
		"2 1001 alice seat0",
		"3 1000 george seat1",
		"",
	}, "\n")
	got := parseLoginctlSessions(out, "1000")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("parseLoginctlSessions = %v, want [1 3]", got)
	}
}

func TestDetectSessionX11Env_ReadsLeaderEnviron(t *testing.T) {
	origRun, origRead := runCommandOutputFn, readFileFn
	defer func() { runCommandOutputFn, readFileFn = origRun, origRead }()

	uid := os.Getuid()
	runCommandOutputFn = func(name string, args ...string) (string, error) {
		switch strings.Join(args, " ") {
		case "list-sessions --no-legend":
			return "c2 " + strconv.Itoa(uid) + " user seat0\n", nil
		case "show-session c2 -p Display --value":
			return ":0\n", nil
		case "show-session c2 -p Leader --value":
			return "4242\n", nil
		}
		return "", errors.New("unexpected loginctl call")
	}
	readFileFn = func(path string) ([]byte, error) {
		if path != "/proc/4242/environ" {
			return nil, os.ErrNotExist
		}
		return []byte("DISPLAY=:1\x00XAUTHORITY=/run/user/1000/gdm/Xauthority\x00"), nil
	}

	d, xauth := detectSessionX11Env()
	if d != ":1" || xauth != "/run/user/1000/gdm/Xauthority" {
		t.Fatalf("detectSessionX11Env = (%q, %q)", d, xauth)
	}
}

func stubDetectFns(
	detectSession func() (string, string),
	detectSocket func(string) string,
) func() {
	origSession := detectSessionX11EnvFn
	origSocket := detectDisplayFromSocketFn
	detectSessionX11EnvFn = detectSession
	detectDisplayFromSocketFn = detectSocket
	return func() {
		detectSessionX11EnvFn = origSession
		detectDisplayFromSocketFn = origSocket
	}
}
