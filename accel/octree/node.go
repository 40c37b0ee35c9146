package octree

import "github.com/achilleasa/octrace/types"

// A tree cell. Leaf nodes hold the candidate triangles for their region;
// internal nodes own exactly eight children, one per octant of bbox.
type node struct {
	bbox      types.BBox
	triangles []uint32
	children  [8]*node
}

// A node is a leaf iff its first child slot is empty. The builder populates
// all child slots at once so the remaining slots are empty as well.
func (n *node) isLeaf() bool {
	return n.children[0] == nil
}
