package accel

import (
	"math"

	"github.com/achilleasa/octrace/types"
)

// Triangle index value signaling that no intersection was found.
const NoHit uint32 = math.MaxUint32

// Intersection describes the closest ray/mesh hit found by a query.
type Intersection struct {
	// Index of the intersected triangle or NoHit.
	TriIndex uint32

	// Ray parameter of the closest hit found so far. Queries seed it with
	// the ray's MaxT and only ever decrease it.
	T float32

	// Barycentric coordinates of the hit relative to the 2nd and 3rd vertex.
	UV types.Vec2

	// The intersected mesh.
	Mesh Mesh

	// Shading data; only populated for the accepted hit of non-shadow queries.
	P           types.Vec3
	GeoNormal   types.Vec3
	ShNormal    types.Vec3
	TexCoord    types.Vec2
	HasTexCoord bool
}

// Create an intersection record for a ray that has not hit anything yet.
func NewIntersection(ray types.Ray) Intersection {
	return Intersection{
		TriIndex: NoHit,
		T:        ray.MaxT,
	}
}

// Returns true if the record points to a triangle.
func (its *Intersection) Hit() bool {
	return its.TriIndex != NoHit
}

// Record a candidate hit. The caller must have checked that t improves on
// the current record.
func (its *Intersection) Record(mesh Mesh, triIndex uint32, u, v, t float32) {
	its.Mesh = mesh
	its.TriIndex = triIndex
	its.T = t
	its.UV = types.Vec2{u, v}
}

// Returns true if a hit at t would be strictly closer than the recorded one.
func (its *Intersection) Improves(t float32) bool {
	return !its.Hit() || t < its.T
}

// Populate the position, normals and texture coordinates for the recorded hit
// by interpolating the triangle vertex attributes.
func (its *Intersection) ComputeShading() {
	if !its.Hit() || its.Mesh == nil {
		return
	}

	face := its.Mesh.Indices()[its.TriIndex]
	positions := its.Mesh.Positions()
	p0, p1, p2 := positions[face[0]], positions[face[1]], positions[face[2]]

	w1, w2 := its.UV[0], its.UV[1]
	w0 := 1 - w1 - w2

	its.P = types.BarycentricVec3(w0, w1, w2, p0, p1, p2)
	its.GeoNormal = p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()

	if normals := its.Mesh.VertexNormals(); len(normals) != 0 {
		its.ShNormal = types.BarycentricVec3(w0, w1, w2, normals[face[0]], normals[face[1]], normals[face[2]]).Normalize()
	} else {
		its.ShNormal = its.GeoNormal
	}

	if uvs := its.Mesh.TexCoords(); len(uvs) != 0 {
		its.TexCoord = types.BarycentricVec2(w0, w1, w2, uvs[face[0]], uvs[face[1]], uvs[face[2]])
		its.HasTexCoord = true
	}
}
