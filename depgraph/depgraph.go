// Package depgraph implements the dependency graph (component H): a small
// in-house directed multigraph, arena-indexed by uint32 node/edge ids. A
// full graph library is overkill for the operations the modeler actually
// needs (BFS both directions, topological peel, induced subgraph
// extraction) — see DESIGN.md.
package depgraph

import (
	"github.com/nocturnelabs/pisasim/isa"
)

// NodeKind tags what a graph node represents.
type NodeKind int

const (
	KindOperation NodeKind = iota
	KindRegisterAddress
	KindImmediate
)

// NodeID and EdgeID are arena indices, not pointers — stable across graph
// mutation and cheap to copy into scheduling state.
type NodeID uint32
type EdgeID uint32

// Node is one graph vertex: either an OPERATION (carrying the source
// instruction and its index) or a data node (REGISTER_ADDRESS/IMMEDIATE,
// carrying the bound location name).
type Node struct {
	Kind NodeKind

	// Instruction/InstrIndex are populated for KindOperation.
	Instruction isa.Instruction
	InstrIndex  int

	// Location is populated for data nodes.
	Location string

	in  []EdgeID
	out []EdgeID
}

// Edge is a directed arc between two nodes.
type Edge struct {
	From, To NodeID
}

// Graph is the arena: nodes and edges indexed by position, append-only
// during construction.
type Graph struct {
	nodes []Node
	edges []Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddNode appends a node and returns its id.
func (g *Graph) AddNode(n Node) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return id
}

// AddEdge appends a directed edge from -> to and records it on both
// endpoints' adjacency lists.
func (g *Graph) AddEdge(from, to NodeID) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.nodes[from].out = append(g.nodes[from].out, id)
	g.nodes[to].in = append(g.nodes[to].in, id)
	return id
}

// Node returns a copy of the node at id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// NodeCount and EdgeCount report the arena sizes.
func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// InDegree and OutDegree report live adjacency counts.
func (g *Graph) InDegree(id NodeID) int  { return len(g.nodes[id].in) }
func (g *Graph) OutDegree(id NodeID) int { return len(g.nodes[id].out) }

// Predecessors and Successors return the node ids adjacent via in/out edges.
func (g *Graph) Predecessors(id NodeID) []NodeID {
	out := make([]NodeID, len(g.nodes[id].in))
	for i, e := range g.nodes[id].in {
		out[i] = g.edges[e].From
	}
	return out
}

func (g *Graph) Successors(id NodeID) []NodeID {
	out := make([]NodeID, len(g.nodes[id].out))
	for i, e := range g.nodes[id].out {
		out[i] = g.edges[e].To
	}
	return out
}

// Build constructs the dependency graph for a program (§4.H): one
// OPERATION node per instruction; a fresh data node per output (multiple
// writes to the same location produce multiple distinct data nodes); a
// data->op edge from the latest binding for each known input location,
// or a fresh REGISTER_ADDRESS/IMMEDIATE node if the location has never
// been written.
func Build(program []isa.Instruction) *Graph {
	g := New()
	binding := make(map[string]NodeID)

	bindingFor := func(loc string, immediate bool) NodeID {
		if id, ok := binding[loc]; ok {
			return id
		}
		kind := KindRegisterAddress
		if immediate {
			kind = KindImmediate
		}
		id := g.AddNode(Node{Kind: kind, Location: loc})
		binding[loc] = id
		return id
	}

	for i, instr := range program {
		opID := g.AddNode(Node{Kind: KindOperation, Instruction: instr, InstrIndex: i})

		for _, in := range instr.AllInputs() {
			dataID := bindingFor(in.Location, in.Immediate)
			g.AddEdge(dataID, opID)
		}

		for _, out := range instr.AllOutputs() {
			dataID := g.AddNode(Node{Kind: KindRegisterAddress, Location: out.Location})
			g.AddEdge(opID, dataID)
			binding[out.Location] = dataID
		}
	}
	return g
}
