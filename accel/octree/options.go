package octree

import (
	"fmt"

	"github.com/achilleasa/octrace/log"
)

const (
	// Nodes with fewer candidate triangles than this value become leaves.
	DefaultLeafSize = 10
)

// AssignPolicy selects how triangles spanning several octants are distributed
// among the child nodes.
type AssignPolicy uint8

const (
	// Assign a triangle to every octant its bbox overlaps. Triangles may be
	// tested more than once per query but every triangle remains reachable
	// from all leaves whose region it overlaps.
	AssignAll AssignPolicy = iota

	// Assign a triangle to the first overlapping octant only. This keeps
	// leaves smaller but rays that only cross the other octants miss the
	// triangle.
	AssignFirst
)

func (p AssignPolicy) String() string {
	switch p {
	case AssignAll:
		return "assign-all"
	case AssignFirst:
		return "assign-first"
	}
	return fmt.Sprintf("AssignPolicy(%d)", uint8(p))
}

// TraversalOrder selects the order in which child nodes are visited.
type TraversalOrder uint8

const (
	// Visit children sorted by the distance at which the ray enters them.
	NearToFar TraversalOrder = iota

	// Visit children in octant index order.
	FixedOrder
)

func (o TraversalOrder) String() string {
	switch o {
	case NearToFar:
		return "near-to-far"
	case FixedOrder:
		return "fixed"
	}
	return fmt.Sprintf("TraversalOrder(%d)", uint8(o))
}

// An Option configures an Octree.
type Option func(*Octree)

// Set the candidate count below which nodes are not split further.
func WithLeafSize(leafSize int) Option {
	return func(o *Octree) {
		if leafSize > 0 {
			o.leafSize = leafSize
		}
	}
}

// Override the depth limit. A value <= 0 selects the limit derived from the
// triangle count.
func WithMaxDepth(maxDepth int) Option {
	return func(o *Octree) {
		o.maxDepth = maxDepth
	}
}

// Set the triangle assignment policy.
func WithPolicy(policy AssignPolicy) Option {
	return func(o *Octree) {
		o.policy = policy
	}
}

// Set the child visitation order.
func WithTraversalOrder(order TraversalOrder) Option {
	return func(o *Octree) {
		o.order = order
	}
}

// Attach an observer that receives traversal events.
func WithObserver(observer Observer) Option {
	return func(o *Octree) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// Use a custom logger for build diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(o *Octree) {
		if logger != nil {
			o.logger = logger
		}
	}
}
