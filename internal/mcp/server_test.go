package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macpaste/macpaste/internal/ipc"
)

type fakePanel struct {
	visible bool
	err     error
}

func (f *fakePanel) Show() (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.visible = true
	return true, nil
}

func (f *fakePanel) Hide() (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.visible = false
	return false, nil
}

func (f *fakePanel) Toggle() (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.visible = !f.visible
	return f.visible, nil
}

func (f *fakePanel) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{
		Visible:       f.visible,
		Created:       true,
		Geometry:      &ipc.GeometryInfo{X: 0, Y: 200, Width: 960, Height: 340},
		FrontmostApp:  "Firefox",
		UptimeSeconds: 42,
	}, nil
}

func connect(t *testing.T, panel Panel) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	s := NewServer(panel)

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	ss, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *mcpsdk.ClientSession, name string, out any) *mcpsdk.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if out != nil && !res.IsError {
		if len(res.Content) == 0 {
			t.Fatalf("%s: no content", name)
		}
		text, ok := res.Content[0].(*mcpsdk.TextContent)
		if !ok {
			t.Fatalf("%s: content is %T", name, res.Content[0])
		}
		if err := json.Unmarshal([]byte(text.Text), out); err != nil {
			t.Fatalf("%s: decode %q: %v", name, text.Text, err)
		}
	}
	return res
}

func TestListTools(t *testing.T) {
	cs := connect(t, &fakePanel{})

	res, err := cs.ListTools(context.Background(), &mcpsdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"show_panel", "hide_panel", "toggle_panel", "panel_status"} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestToggleReturnsPostTransitionState(t *testing.T) {
	panel := &fakePanel{}
	cs := connect(t, panel)

	var out VisibilityOutput
	callTool(t, cs, "toggle_panel", &out)
	if !out.Visible || !panel.visible {
		t.Fatalf("first toggle: out=%v panel=%v", out.Visible, panel.visible)
	}
	callTool(t, cs, "toggle_panel", &out)
	if out.Visible || panel.visible {
		t.Fatalf("second toggle: out=%v panel=%v", out.Visible, panel.visible)
	}
}

func TestShowAndHide(t *testing.T) {
	panel := &fakePanel{}
	cs := connect(t, panel)

	var out VisibilityOutput
	callTool(t, cs, "show_panel", &out)
	if !out.Visible {
		t.Fatalf("show_panel returned hidden")
	}
	callTool(t, cs, "hide_panel", &out)
	if out.Visible {
		t.Fatalf("hide_panel returned visible")
	}
}

func TestPanelStatus(t *testing.T) {
	cs := connect(t, &fakePanel{visible: true})

	var out StatusOutput
	callTool(t, cs, "panel_status", &out)
	if !out.Visible || !out.Created || out.FrontmostApp != "Firefox" || out.UptimeSeconds != 42 {
		t.Fatalf("unexpected status: %+v", out)
	}
	if out.Geometry == nil || out.Geometry.Width != 960 || out.Geometry.Y != 200 {
		t.Fatalf("unexpected geometry: %+v", out.Geometry)
	}
}

func TestDaemonErrorsBecomeToolErrors(t *testing.T) {
	cs := connect(t, &fakePanel{err: errors.New("daemon not running")})

	for _, name := range []string{"show_panel", "hide_panel", "toggle_panel", "panel_status"} {
		res := callTool(t, cs, name, nil)
		if !res.IsError {
			t.Fatalf("%s: expected tool error", name)
		}
		text, ok := res.Content[0].(*mcpsdk.TextContent)
		if !ok || !strings.Contains(text.Text, "daemon not running") {
			t.Fatalf("%s: unexpected content %+v", name, res.Content)
		}
	}
}
