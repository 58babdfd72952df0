package domain

import "fmt"

// GraphEdge is a rendered link between two nodes. It is undirected for rendering and
// removal, even though it is created with an ordered pair.
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// EdgeID derives the synthetic edge id from the pair it was created with.
func EdgeID(from, to string) string {
	return fmt.Sprintf("edge-%s-%s", from, to)
}

// NewEdge builds an edge with its synthetic id.
func NewEdge(from, to string) GraphEdge {
	return GraphEdge{ID: EdgeID(from, to), Source: from, Target: to}
}

// Connects reports whether the edge joins a and b, in either direction.
func (e GraphEdge) Connects(a, b string) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// Touches reports whether id is one of the edge's endpoints.
func (e GraphEdge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}
