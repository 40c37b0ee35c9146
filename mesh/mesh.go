package mesh

import (
	"fmt"

	"github.com/achilleasa/octrace/types"
)

// Determinant threshold below which a ray is considered parallel to a triangle.
const parallelDetEpsilon float32 = 1e-8

// An indexed triangle mesh. Normals and UVs are optional; when present they
// must provide one entry per vertex.
type Mesh struct {
	Name     string
	Vertices []types.Vec3
	Normals  []types.Vec3
	UVs      []types.Vec2
	Faces    [][3]uint32

	bbox      types.BBox
	bboxValid bool
}

// Create a new empty mesh.
func New(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]types.Vec3, 0),
		Faces:    make([][3]uint32, 0),
	}
}

// Create a mesh with one unshared set of vertices per triangle.
func FromTriangles(name string, tris [][3]types.Vec3) *Mesh {
	m := New(name)
	for _, tri := range tris {
		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, tri[0], tri[1], tri[2])
		m.Faces = append(m.Faces, [3]uint32{base, base + 1, base + 2})
	}
	return m
}

// Check that face indices and per-vertex attributes are consistent.
func (m *Mesh) Validate() error {
	vertCount := uint32(len(m.Vertices))
	for faceIndex, face := range m.Faces {
		for _, vIndex := range face {
			if vIndex >= vertCount {
				return fmt.Errorf("mesh %q: face %d references vertex %d; mesh has %d vertices", m.Name, faceIndex, vIndex, vertCount)
			}
		}
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("mesh %q: expected %d normals; got %d", m.Name, len(m.Vertices), len(m.Normals))
	}
	if len(m.UVs) != 0 && len(m.UVs) != len(m.Vertices) {
		return fmt.Errorf("mesh %q: expected %d uv coordinates; got %d", m.Name, len(m.Vertices), len(m.UVs))
	}
	return nil
}

// Mark the cached bbox as stale. Must be called after modifying vertices.
func (m *Mesh) MarkBBoxDirty() {
	m.bboxValid = false
}

// Get the number of triangles.
func (m *Mesh) TriangleCount() uint32 {
	return uint32(len(m.Faces))
}

// Get the bbox enclosing all triangles. The result is cached; this method
// must not be called concurrently with MarkBBoxDirty.
func (m *Mesh) BBox() types.BBox {
	if !m.bboxValid {
		m.bbox = types.EmptyBBox()
		for index := range m.Faces {
			m.bbox = m.bbox.Union(m.TriangleBBox(uint32(index)))
		}
		m.bboxValid = true
	}
	return m.bbox
}

// Get the bbox of a single triangle.
func (m *Mesh) TriangleBBox(index uint32) types.BBox {
	face := m.Faces[index]
	return types.EmptyBBox().
		Expand(m.Vertices[face[0]]).
		Expand(m.Vertices[face[1]]).
		Expand(m.Vertices[face[2]])
}

// Get the centroid of a triangle.
func (m *Mesh) TriangleCenter(index uint32) types.Vec3 {
	face := m.Faces[index]
	return m.Vertices[face[0]].Add(m.Vertices[face[1]]).Add(m.Vertices[face[2]]).Mul(1.0 / 3.0)
}

// Intersect a ray with a triangle using the Möller–Trumbore algorithm.
// On success it returns the barycentric coordinates (u, v) of the hit point
// relative to the 2nd and 3rd triangle vertex and the ray parameter t which
// is guaranteed to lie in [ray.MinT, ray.MaxT].
func (m *Mesh) RayIntersect(index uint32, ray *types.Ray) (u, v, t float32, ok bool) {
	face := m.Faces[index]
	p0, p1, p2 := m.Vertices[face[0]], m.Vertices[face[1]], m.Vertices[face[2]]

	edge1 := p1.Sub(p0)
	edge2 := p2.Sub(p0)

	pvec := ray.Dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if det > -parallelDetEpsilon && det < parallelDetEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	tvec := ray.Origin.Sub(p0)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(edge1)
	v = ray.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = edge2.Dot(qvec) * invDet
	if t < ray.MinT || t > ray.MaxT {
		return 0, 0, 0, false
	}
	return u, v, t, true
}

// Get vertex positions.
func (m *Mesh) Positions() []types.Vec3 {
	return m.Vertices
}

// Get per-vertex normals; empty if the mesh does not define normals.
func (m *Mesh) VertexNormals() []types.Vec3 {
	return m.Normals
}

// Get per-vertex texture coordinates; empty if the mesh does not define any.
func (m *Mesh) TexCoords() []types.Vec2 {
	return m.UVs
}

// Get the triangle to vertex index table.
func (m *Mesh) Indices() [][3]uint32 {
	return m.Faces
}
