package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/macpaste/macpaste/internal/config"
	"github.com/macpaste/macpaste/internal/ipc"
)

const (
	ansiGreen = "\x1b[32m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

func formatStatus(w io.Writer, s *ipc.StatusData, color bool) {
	state := "hidden"
	if s.Visible {
		state = "visible"
	}
	if !s.Created {
		state = "not created"
	}
	if color {
		if s.Visible {
			state = ansiGreen + state + ansiReset
		} else {
			state = ansiDim + state + ansiReset
		}
	}

	fmt.Fprintf(w, "panel:     %s\n", state)
	if g := s.Geometry; g != nil {
		fmt.Fprintf(w, "geometry:  %gx%g at (%g, %g)\n", g.Width, g.Height, g.X, g.Y)
	}
	if s.FrontmostApp != "" {
		fmt.Fprintf(w, "frontmost: %s\n", s.FrontmostApp)
	}
	fmt.Fprintf(w, "uptime:    %s\n", formatUptime(s.UptimeSeconds, time.Now()))
	fmt.Fprintf(w, "pid:       %d\n", s.PID)
	if s.ConfigPath != "" {
		fmt.Fprintf(w, "config:    %s\n", s.ConfigPath)
	}
}

func formatUptime(seconds int64, now time.Time) string {
	if seconds < 1 {
		return "just started"
	}
	started := now.Add(-time.Duration(seconds) * time.Second)
	return strings.TrimSpace(humanize.RelTime(started, now, "", ""))
}

func formatMonitors(w io.Writer, monitors []ipc.MonitorInfo) {
	if len(monitors) == 0 {
		fmt.Fprintln(w, "no displays")
		return
	}
	for _, m := range monitors {
		primary := ""
		if m.Primary {
			primary = "  primary"
		}
		fmt.Fprintf(w, "%d  %-10s %dx%d+%d+%d  scale %g%s\n",
			m.ID, m.Name, m.Width, m.Height, m.X, m.Y, m.ScaleFactor, primary)
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		return "default"
	default:
		return string(src.Kind)
	}
}
