package octree

import (
	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/types"
)

// The per-query state. The ray is a private copy whose MaxT is narrowed as
// closer hits are found.
type query struct {
	mesh     accel.Mesh
	observer Observer
	order    TraversalOrder
	shadow   bool

	ray types.Ray
	its accel.Intersection
}

// A child node and the ray parameter at which the ray enters it.
type childEntry struct {
	node  *node
	nearT float32
}

// Intersect ray with the mesh. For regular queries the returned intersection
// describes the closest hit and includes shading information. Shadow queries
// stop at the first hit found and only populate the TriIndex, T, UV and Mesh
// fields.
func (o *Octree) RayIntersect(ray types.Ray, shadow bool) (bool, accel.Intersection) {
	t := o.current.Load()
	q := &query{
		mesh:     t.mesh,
		observer: o.observer,
		order:    o.order,
		shadow:   shadow,
		ray:      ray,
		its:      accel.NewIntersection(ray),
	}

	hit := false
	if _, _, ok := t.root.bbox.IntersectRay(q.ray); ok {
		hit = q.visit(t.root)
	}

	if hit && !shadow {
		q.its.ComputeShading()
	}

	o.observer.QueryDone(hit, shadow)
	return hit, q.its
}

// Visit a node whose bbox is known to be hit by the ray. Returns true if a
// hit was recorded inside the node's subtree.
func (q *query) visit(n *node) bool {
	q.observer.NodeVisited()

	if n.isLeaf() {
		return q.visitLeaf(n)
	}

	if q.order == FixedOrder {
		return q.visitFixedOrder(n)
	}
	return q.visitNearToFar(n)
}

// Test the ray against all candidate triangles of a leaf.
func (q *query) visitLeaf(n *node) bool {
	q.observer.LeafVisited(len(n.triangles))

	found := false
	for _, tri := range n.triangles {
		u, v, t, ok := q.mesh.RayIntersect(tri, &q.ray)
		q.observer.TriangleTested(ok)
		if !ok || !q.its.Improves(t) {
			continue
		}

		// Record the hit before any early return so both query modes
		// observe the same record state.
		q.its.Record(q.mesh, tri, u, v, t)
		q.ray.MaxT = t
		found = true

		if q.shadow {
			return true
		}
	}

	return found
}

func (q *query) visitFixedOrder(n *node) bool {
	found := false
	for _, child := range n.children {
		if _, _, ok := child.bbox.IntersectRay(q.ray); !ok {
			continue
		}

		if q.visit(child) {
			found = true
			if q.shadow {
				return true
			}
		}
	}
	return found
}

func (q *query) visitNearToFar(n *node) bool {
	var entries [8]childEntry
	count := 0

	// Insertion sort by entry distance; there are at most eight children.
	for _, child := range n.children {
		nearT, _, ok := child.bbox.IntersectRay(q.ray)
		if !ok {
			continue
		}

		slot := count
		for slot > 0 && entries[slot-1].nearT > nearT {
			entries[slot] = entries[slot-1]
			slot--
		}
		entries[slot] = childEntry{node: child, nearT: nearT}
		count++
	}

	found := false
	for index := 0; index < count; index++ {
		// Entries are sorted so once a child starts beyond the closest
		// hit all remaining children do too.
		if entries[index].nearT > q.ray.MaxT {
			break
		}

		if q.visit(entries[index].node) {
			found = true
			if q.shadow {
				return true
			}
		}
	}
	return found
}
