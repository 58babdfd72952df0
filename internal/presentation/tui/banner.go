package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the meshpanel banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                    _                          _ ", "#38bdf8"},
		{"  _ __ ___   ___ ___| |__  _ __   __ _ _ __   ___| |", "#3b82f6"},
		{" | '_ ` _ \\ / _ / __| '_ \\| '_ \\ / _` | '_ \\ / _ \\ |", "#6366f1"},
		{" | | | | | |  __\\__ \\ | | | |_) | (_| | | | |  __/ |", "#8b5cf6"},
		{" |_| |_| |_|\\___|___/_| |_| .__/ \\__,_|_| |_|\\___|_|", "#a855f7"},
		{"                          |_|                        ", "#d946ef"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// LevelStyle colours a simulation log level for terminal output.
func LevelStyle(level string) termenv.Style {
	p := termenv.ColorProfile()
	s := termenv.String(fmt.Sprintf("%-5s", level))
	switch level {
	case "error":
		return s.Foreground(p.Color("#ef4444")).Bold()
	case "warn":
		return s.Foreground(p.Color("#f59e0b"))
	case "info":
		return s.Foreground(p.Color("#22c55e"))
	case "debug", "trace":
		return s.Faint()
	}
	return s
}
