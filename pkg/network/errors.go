package network

import "errors"

var (
	// ErrConfiguration marks invalid network/demand data: non-positive
	// capacity, negative cost parameters, negative demand, count mismatches.
	// Raised before any computation proceeds.
	ErrConfiguration = errors.New("invalid network configuration")

	// ErrUnreachableDestination marks an OD pair whose destination cannot be
	// reached from its origin, so its demand cannot be served.
	ErrUnreachableDestination = errors.New("destination unreachable from origin")

	// ErrNegativeLinkCost marks a link whose stored cost is negative, which
	// violates the shortest-path contract.
	ErrNegativeLinkCost = errors.New("negative link cost")
)
