package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/surface"
)

// GenerateMermaid produces a Mermaid flowchart of a topology.
// Shapes follow the node type:
// - Drone: {{Hexagon}}
// - Server: [Rectangle]
// - Client: ([Stadium])
// Links are undirected. Nodes carrying the selected class are styled as such.
func GenerateMermaid(topo domain.Topology) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	var selected []string
	for _, node := range topo.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeTypeDrone:
			opener, closer = "{{", "}}"
		case domain.NodeTypeClient:
			opener, closer = "([", "])"
		}

		label := node.Label
		if label == "" {
			label = node.ID
		}
		label = strings.ReplaceAll(label, "\"", "'")
		if node.SubType != "" {
			label = fmt.Sprintf("%s <br/> %s", label, node.SubType)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		if node.HasClass(surface.ClassSelected) {
			selected = append(selected, safeID)
		}
	}

	for _, e := range topo.Edges {
		fmt.Fprintf(&sb, "    %s --- %s\n", sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target))
	}

	if len(topo.Nodes) == 0 {
		return sb.String()
	}

	sb.WriteString("\n    %% Styles\n")
	byType := map[domain.NodeType][]string{}
	for _, node := range topo.Nodes {
		byType[node.Type] = append(byType[node.Type], sanitizeMermaidID(node.ID))
	}
	for _, t := range []domain.NodeType{domain.NodeTypeDrone, domain.NodeTypeServer, domain.NodeTypeClient} {
		ids := byType[t]
		if len(ids) == 0 {
			continue
		}
		style := surface.StyleFor(t)
		fmt.Fprintf(&sb, "    classDef %s fill:%s,stroke:#333,color:#fff;\n", t, style.Color)
		fmt.Fprintf(&sb, "    class %s %s;\n", strings.Join(ids, ","), t)
	}
	if len(selected) > 0 {
		fmt.Fprintf(&sb, "    classDef %s stroke:%s,stroke-width:4px;\n", surface.ClassSelected, surface.SelectedBorder)
		fmt.Fprintf(&sb, "    class %s %s;\n", strings.Join(selected, ","), surface.ClassSelected)
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
	// Mermaid ids cannot start with a digit in class statements.
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "n" + s
	}
	return s
}
