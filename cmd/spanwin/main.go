package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/spanwin/internal/config"
	"github.com/1broseidon/spanwin/internal/daemon"
	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/hotkeys"
	"github.com/1broseidon/spanwin/internal/ipc"
	"github.com/1broseidon/spanwin/internal/launcher"
	"github.com/1broseidon/spanwin/internal/placement"
	"github.com/1broseidon/spanwin/internal/runtimepath"
)

const ipcTimeout = 5 * time.Second

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "plan":
		os.Exit(runPlan(os.Args[2:]))
	case "open":
		os.Exit(runOpen(os.Args[2:]))
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: spanwin <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  displays            List attached displays")
	fmt.Fprintln(w, "  plan                Show where a content window would open")
	fmt.Fprintln(w, "  open                Open a content window at the planned placement")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  daemon              Start the hotkey daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its config")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Show a config value and where it came from")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'spanwin <command> --help' for command-specific options.")
}

// newFlagSet returns a flag set with the shared --config flag.
func newFlagSet(name, usage, about string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, about)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	path := fs.String("config", "", "Config file path (default: ~/.config/spanwin/config.yaml)")
	return fs, path
}

func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

// optionalBool returns the flag value when it was given on the command line,
// nil otherwise.
func optionalBool(fs *flag.FlagSet, name string, v *bool) *bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	if !set {
		return nil
	}
	return v
}

func actionFor(fixed bool) hotkeys.Action {
	if fixed {
		return hotkeys.ActionFixed
	}
	return hotkeys.ActionPlanned
}

// loadForCommand loads config and applies a --layout override.
func loadForCommand(path, layout string) (*config.Config, error) {
	res, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	cfg := res.Config
	if layout != "" {
		cfg.LayoutFile = layout
	}
	return cfg, nil
}

func runDisplays(args []string) int {
	fs, path := newFlagSet("displays", "spanwin displays [--json] [--groups] [--layout FILE | --daemon]",
		"List attached displays. The current display is marked with '*'.")
	jsonOut := fs.Bool("json", false, "Output JSON (default when stdout is not a terminal)")
	groups := fs.Bool("groups", false, "Show displays grouped by identical resolution")
	layout := fs.String("layout", "", "Read displays from a YAML layout file instead of the X server")
	viaDaemon := fs.Bool("daemon", false, "Ask the running daemon instead of the X server")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "displays takes no arguments")
		fs.Usage()
		return 2
	}

	var catalog display.Catalog
	if *viaDaemon {
		client, err := newIPCClient()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		remote, err := client.GetDisplays()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		catalog = *remote
	} else {
		cfg, err := loadForCommand(*path, *layout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		s, err := openSession(cfg, newLogger(cfg), false)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer s.Close()
		catalog = s.service.Catalog(context.Background())
	}

	var err error
	if wantJSON(*jsonOut) {
		out := map[string]any{"screens": catalog.Screens, "current": catalog.Current}
		if *groups {
			out["groups"] = placement.Groups(catalog)
		}
		err = writeJSON(os.Stdout, out)
	} else if *groups {
		err = writeGroups(os.Stdout, placement.Groups(catalog))
	} else {
		err = writeDisplays(os.Stdout, catalog)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runPlan(args []string) int {
	fs, path := newFlagSet("plan", "spanwin plan [--fixed] [--fullscreen] [--json] [--layout FILE | --daemon]",
		"Show where a content window would open, without opening it.")
	jsonOut := fs.Bool("json", false, "Output JSON (default when stdout is not a terminal)")
	fixed := fs.Bool("fixed", false, "Use the fixed placement path")
	fullscreen := fs.Bool("fullscreen", false, "Request fullscreen (default: config fullscreen)")
	layout := fs.String("layout", "", "Read displays from a YAML layout file instead of the X server")
	viaDaemon := fs.Bool("daemon", false, "Ask the running daemon instead of the X server")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "plan takes no arguments")
		fs.Usage()
		return 2
	}

	action := actionFor(*fixed)
	fullscreenOpt := optionalBool(fs, "fullscreen", fullscreen)

	var (
		catalog display.Catalog
		p       placement.Placement
	)
	if *viaDaemon {
		client, err := newIPCClient()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data, err := client.Plan(ipc.PlanPayload{Action: string(action), Fullscreen: fullscreenOpt})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		catalog, p = data.Catalog, data.Placement
	} else {
		cfg, err := loadForCommand(*path, *layout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		s, err := openSession(cfg, newLogger(cfg), false)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer s.Close()
		catalog, p = s.service.Resolve(context.Background(), action, fullscreenOpt)
	}

	var err error
	if wantJSON(*jsonOut) {
		err = writeJSON(os.Stdout, ipc.PlanData{Catalog: catalog, Placement: p})
	} else {
		err = writePlacement(os.Stdout, catalog, p)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runOpen(args []string) int {
	fs, path := newFlagSet("open", "spanwin open [--fixed] [--fullscreen] [--local] [--json] [-- command...]",
		"Open a content window and move it to the planned placement. Runs through the\n"+
			"daemon when it is up, otherwise in this process. Without a command the\n"+
			"configured content_command is used.")
	jsonOut := fs.Bool("json", false, "Output JSON (default when stdout is not a terminal)")
	fixed := fs.Bool("fixed", false, "Use the fixed placement path")
	fullscreen := fs.Bool("fullscreen", false, "Request fullscreen (default: config fullscreen)")
	local := fs.Bool("local", false, "Do not use the daemon")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config
	action := actionFor(*fixed)
	fullscreenOpt := optionalBool(fs, "fullscreen", fullscreen)
	argv := fs.Args()

	var client *ipc.Client
	if !*local {
		client = daemonClient(cfg)
	}

	var result launcher.Result
	if client != nil {
		opened, err := client.Open(ipc.PlanPayload{Action: string(action), Fullscreen: fullscreenOpt, Command: argv})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		result = *opened
	} else {
		s, err := openSession(cfg, newLogger(cfg), true)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer s.Close()

		result, err = s.service.Open(context.Background(), daemon.OpenRequest{Action: action, Fullscreen: fullscreenOpt, Command: argv})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	if wantJSON(*jsonOut) {
		err = writeJSON(os.Stdout, result)
	} else {
		err = writeOpenResult(os.Stdout, result)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// daemonClient returns a client when a daemon answers, nil otherwise. The
// timeout covers the daemon's own wait for the content window.
func daemonClient(cfg *config.Config) *ipc.Client {
	socket, err := runtimepath.SocketPath()
	if err != nil {
		return nil
	}
	client := ipc.NewClient(socket, time.Duration(cfg.WindowTimeoutMs)*time.Millisecond+ipcTimeout)
	if err := client.Ping(); err != nil {
		return nil
	}
	return client
}

func newIPCClient() (*ipc.Client, error) {
	socket, err := runtimepath.SocketPath()
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(socket, ipcTimeout), nil
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spanwin status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	jsonOut := fs.Bool("json", false, "Output JSON (default when stdout is not a terminal)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := newIPCClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if wantJSON(*jsonOut) {
		if err := writeJSON(os.Stdout, status); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("provider:       %s\n", status.Provider)
	if status.LayoutFile != "" {
		fmt.Printf("layout_file:    %s\n", status.LayoutFile)
	}
	fmt.Printf("displays:       %d\n", status.Displays)
	fmt.Printf("opened:         %d\n", status.Opened)
	if status.LastError != "" {
		fmt.Printf("last_error:     %s\n", status.LastError)
	}
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runReload(args []string) int {
	if len(args) > 0 {
		if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
			fmt.Fprintln(os.Stdout, "Usage: spanwin reload")
			return 0
		}
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		return 2
	}

	client, err := newIPCClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  spanwin config validate [--config PATH]")
	fmt.Fprintln(w, "  spanwin config print [--config PATH] [--defaults]")
	fmt.Fprintln(w, "  spanwin config explain [--config PATH] <yaml.path>")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "validate":
		fs, path := newFlagSet("validate", "spanwin config validate [--config PATH]", "Validate the configuration file.")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, w := range res.Config.Warnings() {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if !res.Exists {
			fmt.Printf("config: ok (no file at %s, using defaults)\n", res.Path)
			return 0
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs, path := newFlagSet("print", "spanwin config print [--config PATH] [--defaults]", "Print the effective configuration.")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs, path := newFlagSet("explain", "spanwin config explain [--config PATH] <yaml.path>", "Show a config value and where it came from.")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		value, source, err := explainValue(res, fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("path: %s\n", fs.Arg(0))
		fmt.Printf("source: %s\n", source)
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

// explainValue looks up a dotted YAML path in the effective config and
// reports whether it came from the file or the defaults.
func explainValue(res *config.LoadResult, path string) (any, string, error) {
	data, err := res.Config.Marshal()
	if err != nil {
		return nil, "", err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, "", err
	}

	var cur any = tree
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("unknown config path %q", path)
		}
		if cur, ok = m[part]; !ok {
			return nil, "", fmt.Errorf("unknown config path %q", path)
		}
	}

	if src, ok := res.Sources[path]; ok {
		return cur, fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column), nil
	}
	return cur, "default", nil
}
