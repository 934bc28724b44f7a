package depgraph

import (
	"sort"

	"github.com/nocturnelabs/pisasim/isa"
)

// InstructionOnly collapses data nodes, reconnecting op->op for every
// op-data-op path in the combined graph.
func (g *Graph) InstructionOnly() *Graph {
	return g.filteredReconnect(func(k NodeKind) bool { return k == KindOperation })
}

// DataOnly collapses operation nodes, reconnecting data->data.
func (g *Graph) DataOnly() *Graph {
	return g.filteredReconnect(func(k NodeKind) bool { return k != KindOperation })
}

// filteredReconnect builds a new graph containing only nodes matching
// keep, with an edge u->v whenever u and v are connected in the original
// graph through a path of dropped nodes.
func (g *Graph) filteredReconnect(keep func(NodeKind) bool) *Graph {
	out := New()
	remap := make(map[NodeID]NodeID)
	for id, n := range g.nodes {
		if keep(n.Kind) {
			remap[NodeID(id)] = out.AddNode(Node{
				Kind:        n.Kind,
				Instruction: n.Instruction,
				InstrIndex:  n.InstrIndex,
				Location:    n.Location,
			})
		}
	}

	var reach func(from NodeID, visited map[NodeID]bool) []NodeID
	reach = func(from NodeID, visited map[NodeID]bool) []NodeID {
		var kept []NodeID
		for _, succ := range g.Successors(from) {
			if visited[succ] {
				continue
			}
			visited[succ] = true
			if keep(g.nodes[succ].Kind) {
				kept = append(kept, succ)
				continue
			}
			kept = append(kept, reach(succ, visited)...)
		}
		return kept
	}

	for id, n := range g.nodes {
		if !keep(n.Kind) {
			continue
		}
		visited := map[NodeID]bool{NodeID(id): true}
		for _, target := range reach(NodeID(id), visited) {
			out.AddEdge(remap[NodeID(id)], remap[target])
		}
	}
	return out
}

// Layer is one set of mutually-independent node ids produced by a
// topological peel.
type Layer struct {
	Nodes []NodeID
}

// GetInputLayers repeatedly extracts the set of nodes with in-degree 0 in
// the remaining graph, emitting each as a layer, until the graph is empty.
// This is the topological peel §4.H describes.
func (g *Graph) GetInputLayers() []Layer {
	remainingIn := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		remainingIn[i] = len(n.in)
	}
	removed := make([]bool, len(g.nodes))

	var layers []Layer
	remaining := len(g.nodes)
	for remaining > 0 {
		var layer Layer
		for i := range g.nodes {
			if !removed[i] && remainingIn[i] == 0 {
				layer.Nodes = append(layer.Nodes, NodeID(i))
			}
		}
		if len(layer.Nodes) == 0 {
			// A cycle would stall the peel; the graph builder never
			// creates one (data bindings only ever point forward in
			// program order), so this is unreachable for any graph Build
			// produces.
			break
		}
		for _, id := range layer.Nodes {
			removed[id] = true
			remaining--
			for _, succ := range g.Successors(id) {
				remainingIn[succ]--
			}
		}
		layers = append(layers, layer)
	}
	return layers
}

// GetNodeDependencyGraph returns the induced subgraph reachable from id by
// BFS, optionally following predecessor edges (traceAncestors), successor
// edges (traceDependents), or both.
func (g *Graph) GetNodeDependencyGraph(id NodeID, traceAncestors, traceDependents bool) *Graph {
	visited := map[NodeID]bool{id: true}
	queue := []NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if traceAncestors {
			for _, p := range g.Predecessors(cur) {
				if !visited[p] {
					visited[p] = true
					queue = append(queue, p)
				}
			}
		}
		if traceDependents {
			for _, s := range g.Successors(cur) {
				if !visited[s] {
					visited[s] = true
					queue = append(queue, s)
				}
			}
		}
	}

	out := New()
	remap := make(map[NodeID]NodeID, len(visited))
	for nid := range visited {
		n := g.nodes[nid]
		remap[nid] = out.AddNode(Node{
			Kind:        n.Kind,
			Instruction: n.Instruction,
			InstrIndex:  n.InstrIndex,
			Location:    n.Location,
		})
	}
	for nid := range visited {
		for _, succ := range g.Successors(nid) {
			if visited[succ] {
				out.AddEdge(remap[nid], remap[succ])
			}
		}
	}
	return out
}

// InstructionLayer is GetInputLayers' instruction-only counterpart,
// exported for the runtime's layered execution path: the instructions
// (not the raw graph nodes) that make up one independent layer, in
// ascending original-program order for determinism.
type InstructionLayer struct {
	Instructions []isa.Instruction
}

// BuildInstructionLayers constructs the dependency graph for program,
// collapses it to the instruction-only view, and returns its topological
// peel as instruction layers: within a layer, instructions have no
// dependency on one another and may run concurrently; layers are strictly
// ordered.
func BuildInstructionLayers(program []isa.Instruction) []InstructionLayer {
	g := Build(program)
	instrOnly := g.InstructionOnly()
	peeled := instrOnly.GetInputLayers()

	layers := make([]InstructionLayer, len(peeled))
	for li, layer := range peeled {
		nodes := make([]Node, len(layer.Nodes))
		for ni, id := range layer.Nodes {
			nodes[ni] = instrOnly.Node(id)
		}
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].InstrIndex < nodes[j].InstrIndex })

		instrs := make([]isa.Instruction, len(nodes))
		for ni, n := range nodes {
			instrs[ni] = n.Instruction
		}
		layers[li] = InstructionLayer{Instructions: instrs}
	}
	return layers
}
