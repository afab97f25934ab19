package assignment

import (
	"fmt"

	"traffix/pkg/datastructure"
	"traffix/pkg/network"
)

// Engine runs static traffic assignment (shortest paths, all-or-nothing
// loading, user-equilibrium solve) over one network. The engine is
// single-threaded; it owns the network for the duration of a solve.
type Engine struct {
	net *network.Network
}

func NewEngine(net *network.Network) *Engine {
	return &Engine{net: net}
}

// ShortestPath runs a label-setting (Dijkstra) search from origin over the
// current link costs and returns the potential/predecessor table for every
// node. Nodes with ID below the first-through-node threshold are never
// expanded (they can only be path endpoints); the origin is exempt from that
// restriction. Ties on potential are broken by the lower node ID, so
// identical costs always produce identical trees.
func (e *Engine) ShortestPath(origin int32) (*datastructure.ShortestPathTree, error) {
	if origin < 1 || int(origin) > e.net.NumNodes() || e.net.Node(origin) == nil {
		return nil, fmt.Errorf("%w: origin node %d does not exist", network.ErrConfiguration, origin)
	}

	tree := datastructure.NewShortestPathTree(origin, e.net.NumNodes())
	firstThrough := e.net.FirstThroughNode()

	pq := datastructure.NewMinHeap[int32]()
	pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 0, Item: origin})

	for pq.Size() > 0 {
		current, err := pq.ExtractMin()
		if err != nil {
			return nil, err
		}
		currentID := current.Item
		currentPotential := tree.Potential(currentID)

		for _, link := range e.net.Node(currentID).ForwardStar {
			if link.Cost < 0 {
				return nil, fmt.Errorf("%w: link (%d, %d) has cost %g",
					network.ErrNegativeLinkCost, link.Tail, link.Head, link.Cost)
			}
			head := link.Head
			newPotential := currentPotential + link.Cost
			if newPotential >= tree.Potential(head) {
				continue
			}
			wasReached := tree.Reached(head)
			tree.Potentials[head-1] = newPotential
			tree.Predecessors[head-1] = currentID

			// non-through nodes still get labels (they may be destinations)
			// but are never expanded
			if head != origin && head < firstThrough {
				continue
			}
			node := datastructure.PriorityQueueNode[int32]{Rank: newPotential, Item: head}
			if !wasReached {
				pq.Insert(node)
			} else if pq.Contains(head) {
				if err := pq.DecreaseKey(node); err != nil {
					return nil, err
				}
			}
		}
	}
	return tree, nil
}
