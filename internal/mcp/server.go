package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/spanwin/internal/config"
	"github.com/1broseidon/spanwin/internal/daemon"
	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/hotkeys"
	"github.com/1broseidon/spanwin/internal/launcher"
	"github.com/1broseidon/spanwin/internal/placement"
)

const (
	ServerName    = "spanwin"
	ServerVersion = "0.1.0"
)

// Backend runs the placement pipeline. *daemon.Service implements it.
type Backend interface {
	Config() *config.Config
	Catalog(ctx context.Context) display.Catalog
	Resolve(ctx context.Context, action hotkeys.Action, fullscreen *bool) (display.Catalog, placement.Placement)
	Open(ctx context.Context, req daemon.OpenRequest) (launcher.Result, error)
}

// Server is the MCP server exposing display placement tools.
type Server struct {
	mcpServer *mcpsdk.Server
	backend   Backend
	logger    *slog.Logger
}

// NewServer creates a new MCP server over backend.
func NewServer(backend Backend, logger *slog.Logger) *Server {
	s := &Server{
		backend: backend,
		logger:  logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the attached displays with geometry, usable area, orientation and which one is current. Set groups to see displays grouped by identical resolution, which is what the placement planner works from.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "plan_placement",
		Description: "Compute where a content window would open without opening it. A pair of identical portrait displays right of the current display is spanned; otherwise the first identical landscape display to the right is used; otherwise the current display. Pass screens and current to plan against a hypothetical arrangement.",
	}, s.handlePlanPlacement)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_content_window",
		Description: "Start the content command, wait for its window and move it to the planned placement. Returns the X window id and the placement applied.",
	}, s.handleOpenContentWindow)
}

func (s *Server) handleListDisplays(ctx context.Context, _ *mcpsdk.CallToolRequest, args ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	catalog := s.backend.Catalog(ctx)
	out := ListDisplaysOutput{
		Screens: catalog.Screens,
		Current: catalog.Current,
	}
	if args.Groups {
		out.Groups = groupInfos(placement.Groups(catalog))
	}
	return nil, out, nil
}

func (s *Server) handlePlanPlacement(ctx context.Context, _ *mcpsdk.CallToolRequest, args PlanPlacementInput) (*mcpsdk.CallToolResult, PlanPlacementOutput, error) {
	action, err := hotkeys.ParseAction(args.Action)
	if err != nil {
		return nil, PlanPlacementOutput{}, err
	}

	if len(args.Screens) == 0 {
		catalog, p := s.backend.Resolve(ctx, action, args.Fullscreen)
		return nil, planOutput(catalog, p), nil
	}

	catalog := display.Catalog{Screens: descriptors(args.Screens), Current: args.Current}
	if err := catalog.Validate(); err != nil {
		return nil, PlanPlacementOutput{}, fmt.Errorf("invalid screens: %w", err)
	}

	cfg := s.backend.Config()
	fullscreen := cfg.Fullscreen
	if args.Fullscreen != nil {
		fullscreen = *args.Fullscreen
	}
	var p placement.Placement
	if action == hotkeys.ActionFixed {
		p = placement.Fixed(catalog, placement.FixedSize{Width: cfg.FixedSize.Width, Height: cfg.FixedSize.Height})
	} else {
		p = (&placement.Planner{Logger: s.logger}).Plan(catalog, fullscreen)
	}
	return nil, planOutput(catalog, p), nil
}

func (s *Server) handleOpenContentWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args OpenContentWindowInput) (*mcpsdk.CallToolResult, OpenContentWindowOutput, error) {
	action, err := hotkeys.ParseAction(args.Action)
	if err != nil {
		return nil, OpenContentWindowOutput{}, err
	}

	req := daemon.OpenRequest{Action: action, Fullscreen: args.Fullscreen}
	if args.Command != "" {
		argv, err := launcher.SplitCommand(args.Command)
		if err != nil {
			return nil, OpenContentWindowOutput{}, err
		}
		req.Command = argv
	}

	res, err := s.backend.Open(ctx, req)
	if err != nil {
		return nil, OpenContentWindowOutput{}, err
	}

	s.logger.Info("opened content window via MCP", "window", res.Window, "placement", res.Placement.String())
	return nil, OpenContentWindowOutput{
		Window:    res.Window,
		PID:       res.PID,
		MatchedBy: res.MatchedBy,
		Placement: res.Placement,
	}, nil
}

func planOutput(catalog display.Catalog, p placement.Placement) PlanPlacementOutput {
	return PlanPlacementOutput{
		Placement: p,
		Screens:   len(catalog.Screens),
		Current:   catalog.CurrentScreen().Label,
	}
}

func groupInfos(groups []placement.Group) []GroupInfo {
	out := make([]GroupInfo, 0, len(groups))
	for _, g := range groups {
		info := GroupInfo{
			Resolution: g.Key(),
			Portrait:   g.Portrait(),
		}
		for _, s := range g.Screens {
			info.Labels = append(info.Labels, s.Label)
			info.Lefts = append(info.Lefts, s.Left)
		}
		out = append(out, info)
	}
	return out
}
