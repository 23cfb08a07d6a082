package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/1broseidon/spanwin/internal/daemon"
	"github.com/1broseidon/spanwin/internal/hotkeys"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	service      *daemon.Service
	reload       func() error
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server on socketPath. reload is called for
// RELOAD requests.
func NewServer(socketPath string, service *daemon.Service, reload func() error, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		service:    service,
		reload:     reload,
		logger:     logger,
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket from a previous run.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			done := s.shuttingDown
			s.shutdownMu.Unlock()
			if done {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.writeResponse(conn, s.handleCommand(context.Background(), req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)

	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return ok(StatusData{Status: s.service.Status(ctx), DaemonRunning: true})
	case CommandGetDisplays:
		return ok(s.service.Catalog(ctx))
	case CommandPlan:
		return s.handlePlan(ctx, req.Payload)
	case CommandOpen:
		return s.handleOpen(ctx, req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return ok(nil)
}

func (s *Server) handlePlan(ctx context.Context, payload json.RawMessage) *Response {
	req, err := parsePlanPayload(payload)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	action, err := hotkeys.ParseAction(req.Action)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	catalog, p := s.service.Resolve(ctx, action, req.Fullscreen)
	return ok(PlanData{Catalog: catalog, Placement: p})
}

func (s *Server) handleOpen(ctx context.Context, payload json.RawMessage) *Response {
	req, err := parsePlanPayload(payload)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	action, err := hotkeys.ParseAction(req.Action)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	res, err := s.service.Open(ctx, daemon.OpenRequest{
		Action:     action,
		Fullscreen: req.Fullscreen,
		Command:    req.Command,
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to open content window: %v", err))
	}
	return ok(res)
}

func parsePlanPayload(payload json.RawMessage) (PlanPayload, error) {
	var req PlanPayload
	if len(payload) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, fmt.Errorf("Invalid payload: %v", err)
	}
	return req, nil
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
}
