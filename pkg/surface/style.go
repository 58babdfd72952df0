package surface

import "github.com/aretw0/meshpanel/pkg/domain"

// ClassSelected marks the armed endpoint of a pending gesture.
const ClassSelected = "selected"

// Style is the visual rule applied to a node type.
type Style struct {
	Shape string `json:"shape"`
	Color string `json:"color"`
}

// Styles maps node types to their rendering rule.
var Styles = map[domain.NodeType]Style{
	domain.NodeTypeDrone:  {Shape: "triangle", Color: "#3498db"},
	domain.NodeTypeServer: {Shape: "rectangle", Color: "#e74c3c"},
	domain.NodeTypeClient: {Shape: "ellipse", Color: "#2ecc71"},
}

// DefaultStyle applies to nodes of unknown type.
var DefaultStyle = Style{Shape: "ellipse", Color: "#666666"}

// SelectedBorder is the border colour of highlighted nodes.
const SelectedBorder = "#ff6b35"

// StyleFor returns the rule for a node type.
func StyleFor(t domain.NodeType) Style {
	if s, ok := Styles[t]; ok {
		return s
	}
	return DefaultStyle
}
