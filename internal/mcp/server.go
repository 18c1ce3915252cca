package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macpaste/macpaste/internal/ipc"
)

const (
	ServerName    = "macpaste"
	ServerVersion = "0.1.0"
)

// Panel is the daemon connection the tools forward to. *ipc.Client
// satisfies it.
type Panel interface {
	Show() (bool, error)
	Hide() (bool, error)
	Toggle() (bool, error)
	GetStatus() (*ipc.StatusData, error)
}

// Server is the MCP server exposing panel control to agents.
type Server struct {
	mcpServer *mcpsdk.Server
	panel     Panel
}

// NewServer creates a new MCP server forwarding to panel.
func NewServer(panel Panel) *Server {
	s := &Server{panel: panel}
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
		Name:        "show_panel",
		Description: "Show the clipboard panel along the bottom edge of the primary display and give it keyboard focus. Showing an already visible panel repositions it.",
	}, s.handleShowPanel)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_panel",
		Description: "Hide the clipboard panel without activating another window. Hiding a hidden panel is a no-op.",
	}, s.handleHidePanel)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_panel",
		Description: "Toggle the clipboard panel and return its visibility after the transition.",
	}, s.handleTogglePanel)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "panel_status",
		Description: "Report whether the panel is visible, its geometry in logical points, the app that was frontmost before it was shown, and daemon uptime.",
	}, s.handlePanelStatus)
}
