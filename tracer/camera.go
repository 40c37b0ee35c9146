package tracer

import (
	"fmt"
	"math"

	"github.com/achilleasa/octrace/asset"
	"github.com/achilleasa/octrace/types"
)

// Stores the ray directions at the four corners of the camera frustum. Per
// pixel rays are generated by interpolating the corner rays.
type Frustum [4]types.Vec3

func (fr Frustum) String() string {
	return fmt.Sprintf(
		"Frustum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// A pinhole camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	Frustum Frustum
}

// Create a camera from the settings stored with a model.
func NewCamera(settings *asset.Camera) *Camera {
	return &Camera{
		Position: settings.Eye,
		LookAt:   settings.Look,
		Up:       settings.Up,
		FOV:      settings.FOV,
	}
}

// Create a camera looking down the -Z axis at the center of bbox from a
// distance that keeps the whole bbox in view.
func FitCamera(bbox types.BBox, fov float32) *Camera {
	center := bbox.Center()
	radius := bbox.Extents().Len() * 0.5
	if bbox.IsEmpty() {
		center, radius = types.Vec3{}, 1
	} else if radius == 0 {
		radius = 1
	}

	dist := radius / float32(math.Sin(float64(fov)*math.Pi/360.0))
	return &Camera{
		Position: center.Add(types.Vec3{0, 0, dist}),
		LookAt:   center,
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Calculate the frustum corner rays for the given frame aspect ratio.
func (c *Camera) SetupProjection(aspect float32) {
	forward := c.LookAt.Sub(c.Position).Normalize()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward)

	halfH := float32(math.Tan(float64(c.FOV) * math.Pi / 360.0))
	halfW := halfH * aspect

	c.Frustum[0] = forward.Sub(right.Mul(halfW)).Add(up.Mul(halfH))
	c.Frustum[1] = forward.Add(right.Mul(halfW)).Add(up.Mul(halfH))
	c.Frustum[2] = forward.Sub(right.Mul(halfW)).Sub(up.Mul(halfH))
	c.Frustum[3] = forward.Add(right.Mul(halfW)).Sub(up.Mul(halfH))
}

// Generate the primary ray through the center of pixel (x, y) of a frameW x
// frameH frame. Row 0 is the top of the frame.
func (c *Camera) Ray(x, y, frameW, frameH uint32) types.Ray {
	tx := (float32(x) + 0.5) / float32(frameW)
	ty := (float32(y) + 0.5) / float32(frameH)

	top := c.Frustum[0].Add(c.Frustum[1].Sub(c.Frustum[0]).Mul(tx))
	bottom := c.Frustum[2].Add(c.Frustum[3].Sub(c.Frustum[2]).Mul(tx))
	dir := top.Add(bottom.Sub(top).Mul(ty)).Normalize()

	return types.NewRay(c.Position, dir)
}
