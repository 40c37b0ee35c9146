package asset

import (
	"github.com/achilleasa/octrace/mesh"
	"github.com/achilleasa/octrace/types"
)

// The zip entry holding the gob-encoded model of a compiled model archive.
const CompiledDataFile = "mesh.bin"

// Model is a triangle mesh together with an optional viewpoint defined by the
// file it was loaded from.
type Model struct {
	Mesh *mesh.Mesh

	// Nil if the source file does not define a camera.
	Camera *Camera
}

// Camera describes a pinhole viewpoint.
type Camera struct {
	// Vertical field of view in degrees.
	FOV float32

	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
}

// Create a camera with the default field of view looking down the -Z axis.
func NewCamera() *Camera {
	return &Camera{
		FOV:  45,
		Look: types.Vec3{0, 0, -1},
		Up:   types.Vec3{0, 1, 0},
	}
}
