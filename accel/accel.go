// Package accel defines the contract shared by ray intersection accelerators:
// the mesh collaborator they partition, the intersection record they fill in
// and the query interface consumed by tracers.
package accel

import "github.com/achilleasa/octrace/types"

// The Mesh interface describes the triangle geometry consumed by an
// accelerator. Implementations must be safe for concurrent reads once the
// accelerator has been built.
type Mesh interface {
	// Get the number of triangles.
	TriangleCount() uint32

	// Get the bbox enclosing all triangles.
	BBox() types.BBox

	// Get the bbox of a single triangle.
	TriangleBBox(index uint32) types.BBox

	// Intersect a ray with a triangle. On success the returned barycentric
	// coordinates (u, v) weight the 2nd and 3rd triangle vertex and t lies
	// inside [ray.MinT, ray.MaxT].
	RayIntersect(index uint32, ray *types.Ray) (u, v, t float32, ok bool)

	// Per-vertex attributes. Normals and texture coordinates may be empty.
	Positions() []types.Vec3
	VertexNormals() []types.Vec3
	TexCoords() []types.Vec2

	// The triangle to vertex index table.
	Indices() [][3]uint32
}

// The Accelerator interface is implemented by structures that answer
// ray/mesh intersection queries.
type Accelerator interface {
	// Intersect ray with the mesh. When shadow is true the query returns as
	// soon as any hit is found and the shading fields of the returned
	// intersection are not populated.
	RayIntersect(ray types.Ray, shadow bool) (bool, Intersection)
}
