package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleShowPanel(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, VisibilityOutput, error) {
	visible, err := s.panel.Show()
	if err != nil {
		return nil, VisibilityOutput{}, fmt.Errorf("show panel: %w", err)
	}
	return nil, VisibilityOutput{Visible: visible}, nil
}

func (s *Server) handleHidePanel(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, VisibilityOutput, error) {
	visible, err := s.panel.Hide()
	if err != nil {
		return nil, VisibilityOutput{}, fmt.Errorf("hide panel: %w", err)
	}
	return nil, VisibilityOutput{Visible: visible}, nil
}

func (s *Server) handleTogglePanel(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, VisibilityOutput, error) {
	visible, err := s.panel.Toggle()
	if err != nil {
		return nil, VisibilityOutput{}, fmt.Errorf("toggle panel: %w", err)
	}
	return nil, VisibilityOutput{Visible: visible}, nil
}

func (s *Server) handlePanelStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.panel.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("panel status: %w", err)
	}

	out := StatusOutput{
		Visible:       status.Visible,
		Created:       status.Created,
		FrontmostApp:  status.FrontmostApp,
		UptimeSeconds: status.UptimeSeconds,
	}
	if g := status.Geometry; g != nil {
		out.Geometry = &GeometryOutput{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
	}
	return nil, out, nil
}
