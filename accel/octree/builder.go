package octree

import (
	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/types"
)

type builder struct {
	mesh accel.Mesh

	// Nodes with fewer candidates than leafSize become leaves.
	leafSize int

	// Nodes at this depth become leaves regardless of their candidate count.
	maxDepth int

	policy AssignPolicy

	// Triangle bboxes are looked up once per split level so we cache them.
	triBBoxes []types.BBox

	stats Stats
}

// Derive the depth limit for a mesh with the given triangle count:
// ceil(log(count) / log(8)) using integer arithmetic.
func depthLimit(triangleCount uint32) int {
	depth := 0
	for capacity := uint64(1); capacity < uint64(triangleCount); capacity *= 8 {
		depth++
	}
	return depth
}

func newBuilder(mesh accel.Mesh, leafSize, maxDepth int, policy AssignPolicy) *builder {
	triCount := mesh.TriangleCount()
	if maxDepth <= 0 {
		maxDepth = depthLimit(triCount)
	}

	b := &builder{
		mesh:      mesh,
		leafSize:  leafSize,
		maxDepth:  maxDepth,
		policy:    policy,
		triBBoxes: make([]types.BBox, triCount),
		stats: Stats{
			Triangles:  int(triCount),
			DepthLimit: maxDepth,
			Policy:     policy,
		},
	}

	// Inverted triangle boxes are rejected by NewBBox.
	for index := range b.triBBoxes {
		triBBox := mesh.TriangleBBox(uint32(index))
		b.triBBoxes[index] = types.NewBBox(triBBox.Min, triBBox.Max)
	}
	return b
}

// Build the tree rooted at the mesh bbox.
func (b *builder) build() *node {
	triangles := make([]uint32, len(b.triBBoxes))
	for index := range triangles {
		triangles[index] = uint32(index)
	}
	return b.partition(b.mesh.BBox(), triangles, 0)
}

// Partition the candidate list of a node with the given bbox and return the
// node. Children are only attached to the returned node after all of them
// have been built.
func (b *builder) partition(bbox types.BBox, triangles []uint32, depth int) *node {
	b.stats.Nodes++
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	n := &node{bbox: bbox}
	if len(triangles) < b.leafSize || depth >= b.maxDepth {
		return b.createLeaf(n, triangles)
	}

	var childBBoxes [8]types.BBox
	var childTriangles [8][]uint32
	for octant := range childBBoxes {
		childBBoxes[octant] = bbox.Octant(octant)
	}

	for _, tri := range triangles {
		triBBox := b.triBBoxes[tri]
		for octant := range childBBoxes {
			if !childBBoxes[octant].Overlaps(triBBox) {
				continue
			}

			childTriangles[octant] = append(childTriangles[octant], tri)
			if b.policy == AssignFirst {
				break
			}
		}
	}

	var children [8]*node
	for octant := range children {
		children[octant] = b.partition(childBBoxes[octant], childTriangles[octant], depth+1)
	}
	n.children = children

	return n
}

// Setup the given node as a leaf containing all candidate triangles.
func (b *builder) createLeaf(n *node, triangles []uint32) *node {
	n.triangles = triangles

	b.stats.Leaves++
	b.stats.TriangleRefs += len(triangles)
	if len(triangles) == 0 {
		b.stats.EmptyLeaves++
	}
	if len(triangles) > b.stats.MaxLeafTriangles {
		b.stats.MaxLeafTriangles = len(triangles)
	}

	return n
}
