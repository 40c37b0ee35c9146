package tracer

import (
	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/types"
)

// An Integrator computes the color seen along a primary ray.
type Integrator interface {
	Li(acc accel.Accelerator, ray types.Ray) types.Vec3
}

// NormalsIntegrator visualizes the absolute value of the shading normal at
// the closest hit. Rays that miss the mesh are black.
type NormalsIntegrator struct{}

func (NormalsIntegrator) Li(acc accel.Accelerator, ray types.Ray) types.Vec3 {
	hit, its := acc.RayIntersect(ray, false)
	if !hit {
		return types.Vec3{}
	}
	return its.ShNormal.Abs()
}

// ShadowIntegrator shades hits with a diffuse term from a point light and
// tests light visibility with a shadow query.
type ShadowIntegrator struct {
	Light types.Vec3

	// Radiance for hit points that are occluded from the light.
	Ambient float32
}

func (si ShadowIntegrator) Li(acc accel.Accelerator, ray types.Ray) types.Vec3 {
	hit, its := acc.RayIntersect(ray, false)
	if !hit {
		return types.Vec3{}
	}

	ambient := types.Vec3{si.Ambient, si.Ambient, si.Ambient}
	if occluded, _ := acc.RayIntersect(types.NewSegment(its.P, si.Light), true); occluded {
		return ambient
	}

	toLight := si.Light.Sub(its.P).Normalize()
	cos := its.ShNormal.Dot(toLight)
	if cos < 0 {
		cos = -cos
	}
	return ambient.Add(types.Vec3{cos, cos, cos}.Mul(1 - si.Ambient))
}
