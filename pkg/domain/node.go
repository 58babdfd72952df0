package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType is the category of a simulation node.
type NodeType string

const (
	NodeTypeDrone  NodeType = "drone"
	NodeTypeClient NodeType = "client"
	NodeTypeServer NodeType = "server"

	// NodeTypeEdge is not a real node category. Selecting it in the toolbar
	// switches the add tool into edge-link mode.
	NodeTypeEdge NodeType = "edge"
)

// ParseNodeType accepts the toolbar spelling of a node type, including "edge".
func ParseNodeType(s string) (NodeType, error) {
	switch t := NodeType(strings.ToLower(strings.TrimSpace(s))); t {
	case NodeTypeDrone, NodeTypeClient, NodeTypeServer, NodeTypeEdge:
		return t, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidNodeType, s)
	}
}

// Placeable reports whether nodes of this type can be created on the surface.
func (t NodeType) Placeable() bool {
	return t == NodeTypeDrone || t == NodeTypeClient || t == NodeTypeServer
}

// Title returns the capitalized type name used in node labels ("Drone").
func (t NodeType) Title() string {
	if t == "" {
		return ""
	}
	r := []rune(string(t))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// SubType is the concrete variant of a node (drone implementation, chat/web client, ...).
type SubType string

const (
	SubTypeChat          SubType = "chat"
	SubTypeWeb           SubType = "web"
	SubTypeCommunication SubType = "communication"
	SubTypeContent       SubType = "content"
)

// Position is a 2-D coordinate on the graph surface.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// GraphNode is a rendered node. ID is the string form of the backend-issued integer.
type GraphNode struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     NodeType `json:"type"`
	SubType  SubType  `json:"subtype,omitempty"`
	Position Position `json:"position"`
	Classes  []string `json:"classes,omitempty"`
}

// HasClass reports whether the node carries the given style class.
func (n GraphNode) HasClass(class string) bool {
	for _, c := range n.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// NodeLabel builds the display label of a backend-created node ("Drone 42").
func NodeLabel(t NodeType, id int) string {
	return fmt.Sprintf("%s %d", t.Title(), id)
}

// Template is a placeable entry of the backend node catalog.
type Template struct {
	Name    string   `json:"name" yaml:"name" mapstructure:"name"`
	Type    NodeType `json:"type" yaml:"type" mapstructure:"type"`
	Image   string   `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
	SubType SubType  `json:"subtype,omitempty" yaml:"subtype,omitempty" mapstructure:"subtype"`
}

// subTypeKeywords maps catalog name words to sub-types for client and server templates.
var subTypeKeywords = map[NodeType]map[string]SubType{
	NodeTypeClient: {
		"chat": SubTypeChat,
		"web":  SubTypeWeb,
	},
	NodeTypeServer: {
		"communication": SubTypeCommunication,
		"text":          SubTypeCommunication,
		"content":       SubTypeContent,
		"media":         SubTypeContent,
	},
}

// ResolveSubType returns the backend sub-type for a template.
// An explicit SubType always wins. Otherwise drones use their implementation name
// lowercased with whitespace removed, and clients/servers match a whole word of the
// name against a fixed keyword table.
func ResolveSubType(t Template) (SubType, error) {
	if t.SubType != "" {
		return t.SubType, nil
	}
	switch t.Type {
	case NodeTypeDrone:
		name := strings.Join(strings.Fields(strings.ToLower(t.Name)), "")
		if name == "" {
			return "", fmt.Errorf("%w: drone template has no name", ErrUnknownSubType)
		}
		return SubType(name), nil
	case NodeTypeClient, NodeTypeServer:
		keywords := subTypeKeywords[t.Type]
		for _, word := range strings.Fields(strings.ToLower(t.Name)) {
			if st, ok := keywords[word]; ok {
				return st, nil
			}
		}
		return "", fmt.Errorf("%w: %s template %q", ErrUnknownSubType, t.Type, t.Name)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidNodeType, t.Type)
	}
}

// CreatedNode is a ledger record of a node placed through the panel.
type CreatedNode struct {
	ID        int      `json:"id"`
	Type      NodeType `json:"type"`
	SubType   SubType  `json:"subtype"`
	Name      string   `json:"name"`
	Position  Position `json:"position"`
	CreatedAt int64    `json:"created_at"`
}
