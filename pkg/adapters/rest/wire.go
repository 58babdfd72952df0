package rest

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/aretw0/meshpanel/pkg/domain"
)

// wireID is a node id the backend may encode as a JSON number or string.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

// wireNode accepts both the flat node shape and the graph-element shape
// {"data": {...}, "position": {...}}.
type wireNode struct {
	Data     *wireNodeData    `json:"data"`
	Position *domain.Position `json:"position"`
	wireNodeData
}

type wireNodeData struct {
	ID      wireID          `json:"id"`
	Label   string          `json:"label"`
	Type    domain.NodeType `json:"type"`
	SubType domain.SubType  `json:"subtype"`
}

func (n wireNode) toDomain() domain.GraphNode {
	d := n.wireNodeData
	if n.Data != nil {
		d = *n.Data
	}
	node := domain.GraphNode{
		ID:      string(d.ID),
		Label:   d.Label,
		Type:    d.Type,
		SubType: d.SubType,
	}
	if n.Position != nil {
		node.Position = *n.Position
	}
	if node.Label == "" {
		if id, err := strconv.Atoi(string(d.ID)); err == nil {
			node.Label = domain.NodeLabel(d.Type, id)
		}
	}
	return node
}

type wireEdge struct {
	Data *wireEdgeData `json:"data"`
	wireEdgeData
}

type wireEdgeData struct {
	ID     string      `json:"id"`
	Source wireID `json:"source"`
	Target wireID `json:"target"`
}

func (e wireEdge) toDomain() domain.GraphEdge {
	d := e.wireEdgeData
	if e.Data != nil {
		d = *e.Data
	}
	edge := domain.NewEdge(string(d.Source), string(d.Target))
	if d.ID != "" {
		edge.ID = d.ID
	}
	return edge
}

type wireTopology struct {
	Nodes []wireNode `json:"nodes"`
	Edges []wireEdge `json:"edges"`
}

func (t wireTopology) toDomain() domain.Topology {
	topo := domain.Topology{
		Nodes: make([]domain.GraphNode, 0, len(t.Nodes)),
		Edges: make([]domain.GraphEdge, 0, len(t.Edges)),
	}
	for _, n := range t.Nodes {
		topo.Nodes = append(topo.Nodes, n.toDomain())
	}
	for _, e := range t.Edges {
		topo.Edges = append(topo.Edges, e.toDomain())
	}
	return topo
}

type wireCatalog struct {
	Nodes []domain.Template `json:"nodes"`
}

func (c wireCatalog) templates() []domain.Template {
	if c.Nodes == nil {
		return []domain.Template{}
	}
	return c.Nodes
}
