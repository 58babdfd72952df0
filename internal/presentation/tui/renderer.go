package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Rendering falls back to the raw markdown when no terminal renderer is available.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// NodeDetailMarkdown formats the node details side panel.
func NodeDetailMarkdown(d domain.NodeDetail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", orUnknown(d.Label, "Unknown Node"))
	fmt.Fprintf(&sb, "- **Type:** %s\n", orUnknown(string(d.Type), "Unknown Type"))
	fmt.Fprintf(&sb, "- **Sub type:** %s\n", orUnknown(string(d.SubType), "Unknown Sub Type"))

	if d.Type == domain.NodeTypeDrone {
		sb.WriteString("\n## Statistics\n\n")
		fmt.Fprintf(&sb, "| Packet drop rate | Packets sent | Packets dropped |\n")
		fmt.Fprintf(&sb, "|---|---|---|\n")
		fmt.Fprintf(&sb, "| %.2f | %d | %d |\n", d.PacketDropRate, d.PacketsSent, d.PacketsDropped)
	}

	sb.WriteString("\n## Neighbours\n\n")
	if len(d.Neighbours) == 0 {
		sb.WriteString("_none_\n")
	}
	for _, n := range d.Neighbours {
		fmt.Fprintf(&sb, "- `%s` %s (%s)\n", n.ID, orUnknown(n.Label, n.ID), n.Type)
	}
	return sb.String()
}

// LogsText formats log entries one per line with coloured levels.
func LogsText(entries []domain.LogEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s %s\n", LevelStyle(e.Level), e.Message)
	}
	return sb.String()
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
