package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// VisibilityOutput is the output for show_panel, hide_panel and toggle_panel.
type VisibilityOutput struct {
	Visible bool `json:"visible" jsonschema:"Panel visibility after the call"`
}

// GeometryOutput is the panel frame in logical points.
type GeometryOutput struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StatusOutput is the output for the panel_status tool.
type StatusOutput struct {
	Visible       bool            `json:"visible"`
	Created       bool            `json:"created"`
	Geometry      *GeometryOutput `json:"geometry,omitempty" jsonschema:"Last applied frame; absent before the first show"`
	FrontmostApp  string          `json:"frontmost_app,omitempty" jsonschema:"Application that was active before the panel was last shown"`
	UptimeSeconds int64           `json:"uptime_seconds"`
}
