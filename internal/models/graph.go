package models

// GraphStats summarizes the store's corpus and its edge graph.
type GraphStats struct {
	Domains   int            `json:"domains"`
	Documents int            `json:"documents"`
	Chunks    int            `json:"chunks"`
	Edges     int            `json:"edges"`
	EdgeTypes map[string]int `json:"edge_types"`
}

// Neighbor is one edge incident to a node, as seen from that node.
type Neighbor struct {
	Direction string `json:"direction"` // "outgoing" or "incoming"
	Node      string `json:"node"`
	EdgeType  string `json:"edge_type"`
	Metadata  string `json:"metadata,omitempty"`
}

// TraceStep is one hop in a provenance chain. Parent is empty at the origin.
type TraceStep struct {
	Node     string `json:"node"`
	Parent   string `json:"parent,omitempty"`
	EdgeType string `json:"edge_type"`
}
