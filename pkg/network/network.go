package network

import (
	"fmt"

	"traffix/pkg/datastructure"
)

// Network is the static transportation network: nodes, directed links with
// BPR cost parameters, and the OD demand matrix. A Network is exclusively
// owned by the caller driving the assignment; it is not safe for concurrent
// use.
type Network struct {
	numZones         int
	numNodes         int
	firstThroughNode int32
	nodes            []*datastructure.Node

	numLinks       int
	links          map[datastructure.LinkKey]*datastructure.Link
	tollFactor     float64
	distanceFactor float64

	totalDemand float64
	odPairs     map[int32]map[int32]*datastructure.ODPair
}

// New creates an empty network with pre-sized node storage. Nodes are created
// lazily as links reference them; nodes with ID <= numZones are zones.
// firstThroughNode is the lowest node ID allowed as an interior transit node
// (TNTP "first thru node"); nodes below it can only be path endpoints.
func New(numZones, numNodes int, firstThroughNode int32, tollFactor, distanceFactor float64) (*Network, error) {
	if numNodes <= 0 {
		return nil, fmt.Errorf("%w: number of nodes must be positive, got %d", ErrConfiguration, numNodes)
	}
	if numZones <= 0 || numZones > numNodes {
		return nil, fmt.Errorf("%w: number of zones %d out of range [1, %d]", ErrConfiguration, numZones, numNodes)
	}
	if firstThroughNode < 1 || int(firstThroughNode) > numNodes+1 {
		return nil, fmt.Errorf("%w: first through node %d out of range", ErrConfiguration, firstThroughNode)
	}
	return &Network{
		numZones:         numZones,
		numNodes:         numNodes,
		firstThroughNode: firstThroughNode,
		nodes:            make([]*datastructure.Node, numNodes),
		links:            make(map[datastructure.LinkKey]*datastructure.Link),
		tollFactor:       tollFactor,
		distanceFactor:   distanceFactor,
		odPairs:          make(map[int32]map[int32]*datastructure.ODPair),
	}, nil
}

// AddLink creates a directed link and wires it into both endpoint stars. The
// link ID reflects creation order (1-based). All parameter validation happens
// here, before the link is inserted, so a failed add never leaves a partially
// mutated network.
func (n *Network) AddLink(tail, head int32, capacity, length, freeFlowTime, alpha, beta,
	speedLimit, toll float64, linkType string) (*datastructure.Link, error) {
	if tail < 1 || int(tail) > n.numNodes || head < 1 || int(head) > n.numNodes {
		return nil, fmt.Errorf("%w: link (%d, %d) references a node outside 1..%d",
			ErrConfiguration, tail, head, n.numNodes)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: link (%d, %d) has non-positive capacity %g",
			ErrConfiguration, tail, head, capacity)
	}
	if length < 0 || freeFlowTime < 0 || alpha < 0 || beta < 0 || speedLimit < 0 || toll < 0 {
		return nil, fmt.Errorf("%w: link (%d, %d) has negative parameters",
			ErrConfiguration, tail, head)
	}
	key := datastructure.NewLinkKey(tail, head)
	if _, ok := n.links[key]; ok {
		return nil, fmt.Errorf("%w: duplicate link (%d, %d)", ErrConfiguration, tail, head)
	}

	link := datastructure.NewLink(tail, head, int32(n.numLinks+1), capacity, length,
		freeFlowTime, alpha, beta, speedLimit, toll, linkType)
	link.CalcCost(n.distanceFactor, n.tollFactor)
	n.links[key] = link
	n.numLinks++

	n.node(tail).ForwardStar = append(n.node(tail).ForwardStar, link)
	n.node(head).ReverseStar = append(n.node(head).ReverseStar, link)
	return link, nil
}

// node returns the node with the given ID, creating it on first reference.
func (n *Network) node(id int32) *datastructure.Node {
	idx := id - 1
	if n.nodes[idx] == nil {
		n.nodes[idx] = datastructure.NewNode(id, int(id) <= n.numZones)
	}
	return n.nodes[idx]
}

// AddODPair records demand from origin to destination. Zero-demand pairs are
// not materialized. Both endpoints must be zones; the (origin, destination)
// key must be unique.
func (n *Network) AddODPair(origin, destination int32, demand float64) error {
	if demand < 0 {
		return fmt.Errorf("%w: OD pair (%d, %d) has negative demand %g",
			ErrConfiguration, origin, destination, demand)
	}
	if origin < 1 || int(origin) > n.numNodes || n.nodes[origin-1] == nil || !n.nodes[origin-1].IsZone {
		return fmt.Errorf("%w: origin node %d is not a zone", ErrConfiguration, origin)
	}
	if destination < 1 || int(destination) > n.numNodes || n.nodes[destination-1] == nil || !n.nodes[destination-1].IsZone {
		return fmt.Errorf("%w: destination node %d is not a zone", ErrConfiguration, destination)
	}
	if demand == 0 {
		return nil
	}
	if _, ok := n.odPairs[origin]; !ok {
		n.odPairs[origin] = make(map[int32]*datastructure.ODPair)
	}
	if _, ok := n.odPairs[origin][destination]; ok {
		return fmt.Errorf("%w: duplicate OD pair (%d, %d)", ErrConfiguration, origin, destination)
	}
	n.odPairs[origin][destination] = datastructure.NewODPair(origin, destination, demand)
	n.totalDemand += demand
	return nil
}

// Validate checks the loaded topology: every node referenced, node and zone
// counts consistent with the metadata the network was created with.
func (n *Network) Validate() error {
	for i, node := range n.nodes {
		if node == nil {
			return fmt.Errorf("%w: node %d is referenced by no link", ErrConfiguration, i+1)
		}
	}
	zones := 0
	for _, node := range n.nodes {
		if node.IsZone {
			zones++
		}
	}
	if zones != n.numZones {
		return fmt.Errorf("%w: found %d zones, metadata says %d", ErrConfiguration, zones, n.numZones)
	}
	return nil
}

// UpdateAllCosts recomputes every link's generalized cost from its current
// flow. Must be called after any flow mutation before costs are used for
// routing.
func (n *Network) UpdateAllCosts() {
	for _, link := range n.links {
		link.CalcCost(n.distanceFactor, n.tollFactor)
	}
}

func (n *Network) NumZones() int { return n.numZones }

func (n *Network) NumNodes() int { return n.numNodes }

func (n *Network) NumLinks() int { return n.numLinks }

func (n *Network) FirstThroughNode() int32 { return n.firstThroughNode }

func (n *Network) TollFactor() float64 { return n.tollFactor }

func (n *Network) DistanceFactor() float64 { return n.distanceFactor }

func (n *Network) TotalDemand() float64 { return n.totalDemand }

// Node returns the node with the given 1-based ID, or nil if no link
// references it.
func (n *Network) Node(id int32) *datastructure.Node {
	if id < 1 || int(id) > n.numNodes {
		return nil
	}
	return n.nodes[id-1]
}

// Link returns the link (tail, head), or nil.
func (n *Network) Link(key datastructure.LinkKey) *datastructure.Link {
	return n.links[key]
}

// Links exposes the link map keyed by (tail, head). Callers must not insert
// or delete entries.
func (n *Network) Links() map[datastructure.LinkKey]*datastructure.Link {
	return n.links
}

// ODPairs exposes the two-level origin -> destination -> OD pair map.
func (n *Network) ODPairs() map[int32]map[int32]*datastructure.ODPair {
	return n.odPairs
}
