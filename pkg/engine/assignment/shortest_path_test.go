package assignment

import (
	"math"
	"testing"

	"traffix/pkg/datastructure"
	"traffix/pkg/network"

	"github.com/stretchr/testify/assert"
)

func singleLinkNetwork(t *testing.T) *network.Network {
	t.Helper()
	net, err := network.New(2, 2, 1, 0, 0)
	assert.Nil(t, err)
	_, err = net.AddLink(1, 2, 100, 0, 10, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	assert.Nil(t, net.Validate())
	return net
}

// diamondNetwork: zones 1 and 2, through nodes 3 and 4, two parallel routes
// 1->3->2 and 1->4->2 with equal free-flow cost but different capacity.
func diamondNetwork(t *testing.T) *network.Network {
	t.Helper()
	net, err := network.New(2, 4, 3, 0, 0)
	assert.Nil(t, err)
	_, err = net.AddLink(1, 3, 100, 0, 10, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	_, err = net.AddLink(3, 2, 100000, 0, 0, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	_, err = net.AddLink(1, 4, 200, 0, 10, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	_, err = net.AddLink(4, 2, 100000, 0, 0, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	assert.Nil(t, net.Validate())
	return net
}

func TestShortestPathSingleLink(t *testing.T) {
	net := singleLinkNetwork(t)
	engine := NewEngine(net)

	tree, err := engine.ShortestPath(1)
	assert.Nil(t, err)

	assert.Equal(t, 0.0, tree.Potential(1))
	assert.Equal(t, 10.0, tree.Potential(2)) // the link's free-flow cost
	assert.Equal(t, int32(1), tree.Predecessor(2))
	assert.Equal(t, datastructure.NoPredecessor, tree.Predecessor(1))
}

func TestShortestPathUnreachableNode(t *testing.T) {
	net, err := network.New(2, 3, 1, 0, 0)
	assert.Nil(t, err)
	_, err = net.AddLink(1, 2, 100, 0, 10, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	_, err = net.AddLink(3, 2, 100, 0, 10, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)

	engine := NewEngine(net)
	tree, err := engine.ShortestPath(1)
	assert.Nil(t, err)

	assert.True(t, math.IsInf(tree.Potential(3), 1))
	assert.Equal(t, datastructure.NoPredecessor, tree.Predecessor(3))
}

func TestShortestPathThroughNodeRestriction(t *testing.T) {
	// 1 -> 3 -> 2 -> 4: node 2 is a centroid (below the first-through-node
	// threshold), so it may terminate a path but never carry one through.
	net, err := network.New(2, 4, 3, 0, 0)
	assert.Nil(t, err)
	_, err = net.AddLink(1, 3, 100, 0, 2, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	_, err = net.AddLink(3, 2, 100, 0, 2, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	_, err = net.AddLink(2, 4, 100, 0, 1, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)

	engine := NewEngine(net)
	tree, err := engine.ShortestPath(1)
	assert.Nil(t, err)

	// node 2 is reachable as an endpoint
	assert.Equal(t, 4.0, tree.Potential(2))
	assert.Equal(t, int32(3), tree.Predecessor(2))
	// node 4 would require transiting centroid 2
	assert.True(t, math.IsInf(tree.Potential(4), 1))
	assert.Equal(t, datastructure.NoPredecessor, tree.Predecessor(4))
}

func TestShortestPathOriginExemptFromRestriction(t *testing.T) {
	// origin 1 is below the threshold but must still be expanded
	net, err := network.New(2, 3, 3, 0, 0)
	assert.Nil(t, err)
	_, err = net.AddLink(1, 3, 100, 0, 2, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	_, err = net.AddLink(3, 2, 100, 0, 2, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)

	engine := NewEngine(net)
	tree, err := engine.ShortestPath(1)
	assert.Nil(t, err)

	assert.Equal(t, 2.0, tree.Potential(3))
	assert.Equal(t, 4.0, tree.Potential(2))
}

func TestShortestPathDeterministic(t *testing.T) {
	net := diamondNetwork(t)
	engine := NewEngine(net)

	first, err := engine.ShortestPath(1)
	assert.Nil(t, err)
	second, err := engine.ShortestPath(1)
	assert.Nil(t, err)

	assert.Equal(t, first.Potentials, second.Potentials)
	assert.Equal(t, first.Predecessors, second.Predecessors)
	// equal-cost routes: the lower-ID through node wins the tie
	assert.Equal(t, int32(3), first.Predecessor(2))
}

func TestShortestPathNegativeCost(t *testing.T) {
	net := singleLinkNetwork(t)
	net.Link(datastructure.NewLinkKey(1, 2)).Cost = -1

	engine := NewEngine(net)
	_, err := engine.ShortestPath(1)
	assert.ErrorIs(t, err, network.ErrNegativeLinkCost)
}

func TestShortestPathInvalidOrigin(t *testing.T) {
	net := singleLinkNetwork(t)
	engine := NewEngine(net)

	_, err := engine.ShortestPath(0)
	assert.ErrorIs(t, err, network.ErrConfiguration)
	_, err = engine.ShortestPath(99)
	assert.ErrorIs(t, err, network.ErrConfiguration)
}
