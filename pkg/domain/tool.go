package domain

import (
	"fmt"
	"strings"
)

// Tool is the top-level interaction mode of the toolbar. Exactly one is active.
type Tool string

const (
	ToolCursor  Tool = "cursor"
	ToolAdd     Tool = "add"
	ToolMessage Tool = "message"
)

// ParseTool accepts a tool name. "plus" is kept as an alias of "add".
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cursor", "move":
		return ToolCursor, nil
	case "add", "plus":
		return ToolAdd, nil
	case "message":
		return ToolMessage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTool, s)
	}
}

// TapTarget distinguishes a tap on a node from a tap on the empty canvas.
type TapTarget string

const (
	TargetBackground TapTarget = "background"
	TargetNode       TapTarget = "node"
)

// TapEvent is a single tap delivered by the graph surface.
type TapEvent struct {
	Target   TapTarget `json:"target"`
	NodeID   string    `json:"node_id,omitempty"`
	NodeType NodeType  `json:"node_type,omitempty"`
	Label    string    `json:"label,omitempty"`
	Position Position  `json:"position"`
}

// BackgroundTap builds a tap on the empty canvas.
func BackgroundTap(pos Position) TapEvent {
	return TapEvent{Target: TargetBackground, Position: pos}
}

// NodeTap builds a tap on an existing node.
func NodeTap(n GraphNode) TapEvent {
	return TapEvent{
		Target:   TargetNode,
		NodeID:   n.ID,
		NodeType: n.Type,
		Label:    n.Label,
		Position: n.Position,
	}
}

// OnNode reports whether the tap hit a node.
func (e TapEvent) OnNode() bool {
	return e.Target == TargetNode && e.NodeID != ""
}
