package x11

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/spanwin/internal/runtimepath"
)

var (
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	detectSessionX11EnvFn     = detectSessionX11Env
	detectDisplayFromSocketFn = detectDisplayFromSockets
)

// SessionEnv holds the variables a process needs to reach the X server.
type SessionEnv struct {
	Display    string
	XAuthority string
	RuntimeDir string
}

// Environ renders the non-empty values as KEY=VALUE entries.
func (e SessionEnv) Environ() []string {
	var out []string
	if e.Display != "" {
		out = append(out, "DISPLAY="+e.Display)
	}
	if e.XAuthority != "" {
		out = append(out, "XAUTHORITY="+e.XAuthority)
	}
	if e.RuntimeDir != "" {
		out = append(out, "XDG_RUNTIME_DIR="+e.RuntimeDir)
	}
	return out
}

// Apply exports the values into the current process environment.
func (e SessionEnv) Apply() error {
	for _, kv := range e.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

// ResolveSessionEnv finds DISPLAY and XAUTHORITY for processes started
// outside the graphical session (MCP hosts, systemd units). Values in env win,
// then the configured ones, then the logind session leader's environment,
// then the highest X socket in /tmp/.X11-unix.
func ResolveSessionEnv(env []string, display, xauthority string) (SessionEnv, error) {
	out := SessionEnv{
		Display:    strings.TrimSpace(envLookup(env, "DISPLAY")),
		XAuthority: strings.TrimSpace(envLookup(env, "XAUTHORITY")),
		RuntimeDir: strings.TrimSpace(envLookup(env, "XDG_RUNTIME_DIR")),
	}
	if out.RuntimeDir == "" {
		if rd, err := runtimepath.Dir(); err == nil {
			out.RuntimeDir = strings.TrimSpace(rd)
		}
	}

	if out.Display == "" {
		out.Display = strings.TrimSpace(display)
	}
	if out.XAuthority == "" {
		out.XAuthority = strings.TrimSpace(xauthority)
	}

	if out.Display == "" || out.XAuthority == "" {
		detectedDisplay, detectedXAuthority := detectSessionX11EnvFn()
		if out.Display == "" {
			out.Display = strings.TrimSpace(detectedDisplay)
		}
		if out.XAuthority == "" {
			out.XAuthority = strings.TrimSpace(detectedXAuthority)
		}
	}

	if out.Display == "" {
		out.Display = detectDisplayFromSocketFn("/tmp/.X11-unix")
	}
	if out.Display == "" {
		return out, fmt.Errorf("no X display found; set display in config (e.g. display: \":1\") or export DISPLAY")
	}

	if out.XAuthority == "" {
		home := strings.TrimSpace(envLookup(env, "HOME"))
		if home == "" {
			if detectedHome, err := os.UserHomeDir(); err == nil {
				home = detectedHome
			}
		}
		if home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := os.Stat(candidate); err == nil {
				out.XAuthority = candidate
			}
		}
	}

	return out, nil
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func detectSessionX11Env() (display string, xauthority string) {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, sessionID := range parseLoginctlSessions(out, uid) {
		d := loginctlShowSessionProp(sessionID, "Display")
		if d == "" || strings.EqualFold(d, "n/a") {
			continue
		}

		xauth := ""
		leader := loginctlShowSessionProp(sessionID, "Leader")
		if leader != "" && leader != "0" {
			if envMap, err := readProcEnviron(leader); err == nil {
				if ed := strings.TrimSpace(envMap["DISPLAY"]); ed != "" {
					d = ed
				}
				xauth = strings.TrimSpace(envMap["XAUTHORITY"])
			}
		}
		return d, xauth
	}
	return "", ""
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func loginctlShowSessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		if k, v, ok := strings.Cut(part, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env, nil
}

// detectDisplayFromSockets picks the highest-numbered X socket in dir.
func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}

func envLookup(env []string, key string) string {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix)
		}
	}
	return ""
}
