package datastructure

import "math"

// NoPredecessor marks a node without a predecessor in a shortest-path tree
// (the origin itself, or a node not reached by the search).
const NoPredecessor int32 = -1

// ShortestPathTree is the per-search label table of one shortest-path call:
// for every node the minimal cost from the origin (potential) and the
// preceding node on that path. One tree is owned by exactly one search
// invocation, so repeated searches never share state.
type ShortestPathTree struct {
	Origin       int32
	Potentials   []float64 // indexed by nodeID-1, +Inf when unreached
	Predecessors []int32   // indexed by nodeID-1, NoPredecessor when absent
}

func NewShortestPathTree(origin int32, numNodes int) *ShortestPathTree {
	t := &ShortestPathTree{
		Origin:       origin,
		Potentials:   make([]float64, numNodes),
		Predecessors: make([]int32, numNodes),
	}
	for i := 0; i < numNodes; i++ {
		t.Potentials[i] = math.Inf(1)
		t.Predecessors[i] = NoPredecessor
	}
	t.Potentials[origin-1] = 0
	return t
}

// Potential returns the cost to reach nodeID from the origin.
func (t *ShortestPathTree) Potential(nodeID int32) float64 {
	return t.Potentials[nodeID-1]
}

// Predecessor returns the node preceding nodeID on its shortest path, or
// NoPredecessor.
func (t *ShortestPathTree) Predecessor(nodeID int32) int32 {
	return t.Predecessors[nodeID-1]
}

// Reached reports whether the search reached nodeID.
func (t *ShortestPathTree) Reached(nodeID int32) bool {
	return !math.IsInf(t.Potentials[nodeID-1], 1)
}
