package types

import "math"

// The default offset applied to the min ray parameter to avoid
// self-intersections when rays are spawned from a surface.
const RayEpsilon float32 = 1e-4

// A ray with a valid parameter interval [MinT, MaxT].
type Ray struct {
	Origin Vec3
	Dir    Vec3

	MinT float32
	MaxT float32
}

// Create a ray with an unbounded far parameter.
func NewRay(origin, dir Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		MinT:   RayEpsilon,
		MaxT:   float32(math.Inf(1)),
	}
}

// Create a ray segment from origin towards target. The far parameter is
// clamped just before the target so the ray can be used for visibility tests.
func NewSegment(origin, target Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    target.Sub(origin),
		MinT:   RayEpsilon,
		MaxT:   1 - RayEpsilon,
	}
}

// Get the point at parametric distance t.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
