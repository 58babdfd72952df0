package domain

import "math"

// Topology is a full snapshot of the simulation graph.
type Topology struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// CreateNodeResult is the backend answer to a node creation.
type CreateNodeResult struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

// EdgeResult is the backend answer to an edge creation or removal.
type EdgeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Neighbour is a node adjacent to the inspected node.
type Neighbour struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Type  NodeType `json:"type"`
}

// NodeDetail is the backend view of one node.
type NodeDetail struct {
	ID             string      `json:"id,omitempty"`
	Label          string      `json:"label"`
	Type           NodeType    `json:"type"`
	SubType        SubType     `json:"subtype"`
	Neighbours     []Neighbour `json:"neighbours"`
	PacketDropRate float64     `json:"packet_drop_rate"`
	PacketsSent    int         `json:"pkg_sent"`
	PacketsDropped int         `json:"pkg_drop"`
}

// LogEntry is one simulation log line.
type LogEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Configuration is a named topology preset known by the backend.
type Configuration struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active,omitempty"`
}

// ValidatePDR checks a packet drop rate before it is sent to the backend.
func ValidatePDR(pdr float64) error {
	if math.IsNaN(pdr) || pdr < 0 || pdr > 1 {
		return ErrInvalidPDR
	}
	return nil
}
