package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/omaveil/internal/diag"
	"github.com/1broseidon/omaveil/internal/engine"
	"github.com/1broseidon/omaveil/internal/store"
)

const (
	ServerName    = "omaveil"
	ServerVersion = "0.1.0"
)

// Engine is the set of engine operations exposed as tools.
type Engine interface {
	Minimize(ctx context.Context) (store.Window, error)
	Restore(ctx context.Context, address string) (engine.Restored, error)
	RestoreMatch(ctx context.Context, query string) (engine.Restored, error)
	RestoreLast(ctx context.Context) (engine.Restored, error)
	RestoreAll(ctx context.Context) ([]engine.Restored, error)
	List() store.Set
	Status() engine.Status
}

// Server is the MCP server exposing minimize and restore over stdio.
type Server struct {
	mcpServer *mcpsdk.Server
	engine    Engine
	logger    *diag.Logger
}

// NewServer creates a server backed by eng. logger may be nil.
func NewServer(eng Engine, logger *diag.Logger) *Server {
	s := &Server{
		engine: eng,
		logger: logger,
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
		Name:        "minimize",
		Description: "Hide the currently focused Hyprland window in the special minimize workspace and record it. Returns minimized=false with a reason when nothing is focused.",
	}, s.handleMinimize)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore",
		Description: "Restore a minimized window by exact address, or by fuzzy query against its class and title. The window returns to its original workspace when possible, otherwise to the active one.",
	}, s.handleRestore)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_last",
		Description: "Restore the most recently minimized window.",
	}, s.handleRestoreLast)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_all",
		Description: "Restore every minimized window, oldest first. Failures are reported per window and do not stop the batch.",
	}, s.handleRestoreAll)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_minimized",
		Description: "List minimized windows in the order they were minimized.",
	}, s.handleListMinimized)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "status",
		Description: "Summarize the minimized windows (count and tooltip text). Does not contact the window manager.",
	}, s.handleStatus)
}

// logFailure records rejected and internal failures. Benign outcomes are not
// logged.
func (s *Server) logFailure(tool string, err error) {
	if s.logger == nil {
		return
	}
	engine.ReportFailure(s.logger, err, map[string]interface{}{"tool": tool})
}
