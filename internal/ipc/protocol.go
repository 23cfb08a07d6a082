package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/spanwin/internal/daemon"
	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/placement"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetDisplays CommandType = "GET_DISPLAYS"
	CommandPlan        CommandType = "PLAN"
	CommandOpen        CommandType = "OPEN"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	daemon.Status
	DaemonRunning bool `json:"daemonRunning"`
}

// PlanPayload is the payload for PLAN and OPEN. Action is "planned" (default)
// or "fixed"; a nil Fullscreen uses the daemon configuration.
type PlanPayload struct {
	Action     string   `json:"action,omitempty"`
	Fullscreen *bool    `json:"fullscreen,omitempty"`
	Command    []string `json:"command,omitempty"`
}

// PlanData is returned by PLAN.
type PlanData struct {
	Catalog   display.Catalog     `json:"catalog"`
	Placement placement.Placement `json:"placement"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
