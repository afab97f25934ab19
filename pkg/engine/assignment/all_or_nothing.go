package assignment

import (
	"fmt"

	"traffix/pkg/datastructure"
	"traffix/pkg/network"
	"traffix/pkg/util"
)

// AllOrNothing loads every OD pair's full demand onto its current shortest
// path and returns the resulting flow per link. Stored link flows are not
// touched; the caller decides how to blend the candidate flows in.
//
// One shortest-path search runs per origin; all searches in one pass observe
// the same link costs because nothing recomputes costs in between. A
// destination whose predecessor chain does not reach the origin makes the
// whole pass fail: its demand cannot be served and must never be dropped
// silently.
func (e *Engine) AllOrNothing() (map[datastructure.LinkKey]float64, error) {
	flows := make(map[datastructure.LinkKey]float64, e.net.NumLinks())
	for key := range e.net.Links() {
		flows[key] = 0
	}

	for origin, destinations := range e.net.ODPairs() {
		tree, err := e.ShortestPath(origin)
		if err != nil {
			return nil, err
		}

		for destination, od := range destinations {
			path := []int32{destination}
			current := destination
			for current != origin {
				pred := tree.Predecessor(current)
				if pred == datastructure.NoPredecessor {
					return nil, fmt.Errorf("%w: OD pair (%d, %d) with demand %g",
						network.ErrUnreachableDestination, origin, destination, od.Demand)
				}
				flows[datastructure.NewLinkKey(pred, current)] += od.Demand
				path = append(path, pred)
				current = pred
			}
			od.Path = util.ReverseG(path)
		}
	}
	return flows, nil
}
