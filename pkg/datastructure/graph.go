package datastructure

import "math"

// LinkKey identifies a directed link by its endpoint node IDs.
type LinkKey struct {
	Tail int32
	Head int32
}

func NewLinkKey(tail, head int32) LinkKey {
	return LinkKey{Tail: tail, Head: head}
}

// Node is one intersection/centroid in the network. Node IDs are 1-based and
// contiguous. Zones (trip origins/destinations) have the lowest IDs
// (1..numZones), following the TNTP convention.
type Node struct {
	ID          int32
	IsZone      bool
	ForwardStar []*Link
	ReverseStar []*Link
}

func NewNode(id int32, isZone bool) *Node {
	return &Node{
		ID:          id,
		IsZone:      isZone,
		ForwardStar: make([]*Link, 0),
		ReverseStar: make([]*Link, 0),
	}
}

// Link is a directed edge (tail -> head). Flow is mutated by the equilibrium
// solver; Cost is derived and must only change through CalcCost so it always
// matches the flow it was computed from.
type Link struct {
	Tail         int32
	Head         int32
	ID           int32
	Capacity     float64
	Length       float64
	FreeFlowTime float64
	Alpha        float64
	Beta         float64
	SpeedLimit   float64
	Toll         float64
	LinkType     string

	Flow float64
	Cost float64
}

func NewLink(tail, head, id int32, capacity, length, freeFlowTime, alpha, beta,
	speedLimit, toll float64, linkType string) *Link {
	return &Link{
		Tail:         tail,
		Head:         head,
		ID:           id,
		Capacity:     capacity,
		Length:       length,
		FreeFlowTime: freeFlowTime,
		Alpha:        alpha,
		Beta:         beta,
		SpeedLimit:   speedLimit,
		Toll:         toll,
		LinkType:     linkType,
	}
}

func (l *Link) Key() LinkKey {
	return LinkKey{Tail: l.Tail, Head: l.Head}
}

// CalcCost updates the generalized link cost from the current flow using the
// BPR volume-delay function:
//
//	cost = fft*(1 + alpha*(flow/capacity)^beta) + distanceFactor*length + tollFactor*toll
//
// Monotonically non-decreasing in flow for alpha, beta >= 0.
func (l *Link) CalcCost(distanceFactor, tollFactor float64) {
	travelTime := l.FreeFlowTime * (1 + l.Alpha*math.Pow(l.Flow/l.Capacity, l.Beta))
	l.Cost = travelTime + distanceFactor*l.Length + tollFactor*l.Toll
}

// ODPair is one origin-destination demand entry. Demand never changes after
// load. Path caches the node sequence of the last shortest path used to load
// this pair (origin first).
type ODPair struct {
	Origin      int32
	Destination int32
	Demand      float64
	Path        []int32
}

func NewODPair(origin, destination int32, demand float64) *ODPair {
	return &ODPair{
		Origin:      origin,
		Destination: destination,
		Demand:      demand,
	}
}
