package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Edge is a directed "depends on" relation: From declares To as a plugin
// dependency.
type Edge struct {
	From string // Dependent package
	To   string // Dependency
}

// DAG is a dependency graph of package names.
//
// Nodes and edges remember their insertion order, and every traversal in
// this package follows it, so results are deterministic for a given
// sequence of insertions.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    []string
	index    map[string]int // nodeID -> insertion position
	edges    []Edge
	outgoing map[string][]string // nodeID -> dependencies
	incoming map[string][]string // nodeID -> dependents
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		index:    make(map[string]int),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node if it is not present yet and reports whether it was
// added. Adding an existing node is a no-op.
func (d *DAG) AddNode(id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidNodeID
	}
	if _, exists := d.index[id]; exists {
		return false, nil
	}
	d.index[id] = len(d.nodes)
	d.nodes = append(d.nodes, id)
	return true, nil
}

// AddEdge adds the edge from→to between two existing nodes and reports
// whether it was added. Returns ErrUnknownSourceNode or
// ErrUnknownTargetNode for missing endpoints. Repeating an edge is a no-op.
//
// AddEdge does not reject cycles; use [DAG.FindCycleFrom] after each
// insertion and [DAG.Validate] once the graph is complete.
func (d *DAG) AddEdge(from, to string) (bool, error) {
	if _, ok := d.index[from]; !ok {
		return false, ErrUnknownSourceNode
	}
	if _, ok := d.index[to]; !ok {
		return false, ErrUnknownTargetNode
	}
	if slices.Contains(d.outgoing[from], to) {
		return false, nil
	}
	d.edges = append(d.edges, Edge{From: from, To: to})
	d.outgoing[from] = append(d.outgoing[from], to)
	d.incoming[to] = append(d.incoming[to], from)
	return true, nil
}

// HasNode reports whether id is in the graph.
func (d *DAG) HasNode(id string) bool {
	_, ok := d.index[id]
	return ok
}

// HasEdge reports whether the edge from→to is in the graph.
func (d *DAG) HasEdge(from, to string) bool {
	return slices.Contains(d.outgoing[from], to)
}

// Nodes returns the node IDs in insertion order.
func (d *DAG) Nodes() []string { return slices.Clone(d.nodes) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the dependencies of id in insertion order.
// The returned slice should not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the dependents of id in insertion order.
// The returned slice should not be modified.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// OutDegree returns the number of dependencies of id.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of dependents of id.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Sources returns nodes nothing depends on, in insertion order. For a
// resolution graph these are the explicitly requested roots.
func (d *DAG) Sources() []string {
	var out []string
	for _, id := range d.nodes {
		if len(d.incoming[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sinks returns nodes without dependencies, in insertion order.
func (d *DAG) Sinks() []string {
	var out []string
	for _, id := range d.nodes {
		if len(d.outgoing[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}
