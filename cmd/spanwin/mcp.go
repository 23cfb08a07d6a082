package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/spanwin/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: spanwin mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'spanwin mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs, path := newFlagSet("serve", "spanwin mcp serve [--config PATH]",
		"Start the MCP server on stdio. Designed to be invoked by MCP clients.\n"+
			"DISPLAY and XAUTHORITY are detected from the login session when the\n"+
			"client does not pass them.\n\n"+
			"Example:\n"+
			"  claude mcp add spanwin -- spanwin mcp serve")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := loadConfig(*path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// stdout carries the protocol; logs go to stderr.
	logger := newLogger(res.Config)

	s, err := openSession(res.Config, logger, false)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer s.Close()

	server := mcp.NewServer(s.service, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	return 0
}
