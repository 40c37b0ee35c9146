// Package brute provides a linear scan accelerator. It tests every triangle
// of a mesh for each query and serves as the reference when validating other
// accelerators.
package brute

import (
	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/types"
)

// Accelerator intersects rays against all triangles of a mesh.
type Accelerator struct {
	mesh accel.Mesh
}

var _ accel.Accelerator = (*Accelerator)(nil)

// Create a linear scan accelerator for mesh. A nil mesh never reports hits.
func New(mesh accel.Mesh) *Accelerator {
	return &Accelerator{mesh: mesh}
}

// Intersect ray with every triangle and keep the closest hit. Shadow queries
// return as soon as any hit is found.
func (a *Accelerator) RayIntersect(ray types.Ray, shadow bool) (bool, accel.Intersection) {
	its := accel.NewIntersection(ray)
	if a.mesh == nil {
		return false, its
	}

	triCount := a.mesh.TriangleCount()
	if int(triCount) != len(a.mesh.Indices()) {
		return false, its
	}

	for tri := uint32(0); tri < triCount; tri++ {
		u, v, t, ok := a.mesh.RayIntersect(tri, &ray)
		if !ok || !its.Improves(t) {
			continue
		}

		its.Record(a.mesh, tri, u, v, t)
		ray.MaxT = t
		if shadow {
			return true, its
		}
	}

	if !its.Hit() {
		return false, its
	}

	if !shadow {
		its.ComputeShading()
	}
	return true, its
}
