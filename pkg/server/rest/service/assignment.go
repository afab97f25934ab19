package service

import (
	"context"
	"errors"
	"sort"

	"traffix/pkg/datastructure"
	"traffix/pkg/engine/assignment"
)

type Engine interface {
	ShortestPath(origin int32) (*datastructure.ShortestPathTree, error)
	AllOrNothing() (map[datastructure.LinkKey]float64, error)
	SolveEquilibrium(opts ...assignment.Option) (assignment.Summary, error)
}

type NetworkData interface {
	NumZones() int
	NumNodes() int
	NumLinks() int
	TotalDemand() float64
	Links() map[datastructure.LinkKey]*datastructure.Link
}

// LinkFlow is one link's assignment result, ordered by link creation order.
type LinkFlow struct {
	Tail int32   `json:"tail"`
	Head int32   `json:"head"`
	Flow float64 `json:"flow"`
	Cost float64 `json:"cost"`
}

func (lf LinkFlow) Key() datastructure.LinkKey {
	return datastructure.NewLinkKey(lf.Tail, lf.Head)
}

type AssignmentService struct {
	engine Engine
	net    NetworkData
}

func NewAssignmentService(engine Engine, net NetworkData) *AssignmentService {
	return &AssignmentService{engine: engine, net: net}
}

func (s *AssignmentService) NetworkStats(ctx context.Context) (numZones, numNodes, numLinks int, totalDemand float64) {
	return s.net.NumZones(), s.net.NumNodes(), s.net.NumLinks(), s.net.TotalDemand()
}

func (s *AssignmentService) ShortestPath(ctx context.Context, origin int32) (*datastructure.ShortestPathTree, error) {
	return s.engine.ShortestPath(origin)
}

// AllOrNothing returns the AON candidate flows without mutating stored link
// flows.
func (s *AssignmentService) AllOrNothing(ctx context.Context) ([]LinkFlow, error) {
	flows, err := s.engine.AllOrNothing()
	if err != nil {
		return nil, err
	}
	result := make([]LinkFlow, 0, len(flows))
	for key, flow := range flows {
		result = append(result, LinkFlow{
			Tail: key.Tail,
			Head: key.Head,
			Flow: flow,
			Cost: s.net.Links()[key].Cost,
		})
	}
	s.sortByLinkID(result)
	return result, nil
}

// SolveEquilibrium runs the user-equilibrium assignment and returns the
// converged (or best-known, on non-convergence) link flows and costs.
func (s *AssignmentService) SolveEquilibrium(ctx context.Context, tolerance float64,
	maxIterations int) (assignment.Summary, []LinkFlow, error) {
	opts := []assignment.Option{}
	if tolerance > 0 {
		opts = append(opts, assignment.WithTolerance(tolerance))
	}
	if maxIterations > 0 {
		opts = append(opts, assignment.WithMaxIterations(maxIterations))
	}

	summary, err := s.engine.SolveEquilibrium(opts...)
	if err != nil {
		var ncErr *assignment.NonConvergenceError
		if errors.As(err, &ncErr) {
			// best-known state is still usable; let the caller decide
			return summary, s.linkFlows(), err
		}
		return summary, nil, err
	}

	return summary, s.linkFlows(), nil
}

func (s *AssignmentService) linkFlows() []LinkFlow {
	result := make([]LinkFlow, 0, len(s.net.Links()))
	for _, link := range s.net.Links() {
		result = append(result, LinkFlow{
			Tail: link.Tail,
			Head: link.Head,
			Flow: link.Flow,
			Cost: link.Cost,
		})
	}
	s.sortByLinkID(result)
	return result
}

func (s *AssignmentService) sortByLinkID(flows []LinkFlow) {
	links := s.net.Links()
	sort.Slice(flows, func(i, j int) bool {
		a := links[datastructure.NewLinkKey(flows[i].Tail, flows[i].Head)]
		b := links[datastructure.NewLinkKey(flows[j].Tail, flows[j].Head)]
		return a.ID < b.ID
	})
}
