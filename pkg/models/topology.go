package models

// Node kinds and states for the topology view
const (
	NodeController = "controller"
	NodeHost       = "host"

	StateUnknown    = "unknown"
	StateLearned    = "learned"
	StateConflicted = "conflicted"
	StateBlocked    = "blocked"
)

// TopologyNode represents one node in the hub-and-spoke network graph
type TopologyNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	State string `json:"state,omitempty"`
}

// TopologyEdge represents a link between the controller and a host
type TopologyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Topology is the graph view consumed by the presentation layer
type Topology struct {
	Nodes []TopologyNode `json:"nodes"`
	Edges []TopologyEdge `json:"edges"`
}
