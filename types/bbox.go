package types

import (
	"fmt"
	"math"
)

// Rays whose direction component is smaller than this value are considered
// parallel to the slab along that axis.
const parallelEpsilon float32 = 1e-12

// An axis-aligned bounding box.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Create a bounding box from its min and max corners. Passing a min corner
// that exceeds max on any axis is a programming error and causes a panic.
func NewBBox(min, max Vec3) BBox {
	for axis := 0; axis < 3; axis++ {
		if min[axis] > max[axis] {
			panic(fmt.Sprintf("bbox: min %v exceeds max %v along axis %d", min, max, axis))
		}
	}
	return BBox{Min: min, Max: max}
}

// Create an empty box that can be grown with Expand or Union.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Returns true if the box does not enclose any point.
func (b BBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Grow box to include point p.
func (b BBox) Expand(p Vec3) BBox {
	return BBox{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Grow box to include another box.
func (b BBox) Union(other BBox) BBox {
	return BBox{Min: MinVec3(b.Min, other.Min), Max: MaxVec3(b.Max, other.Max)}
}

// Get box center.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get box side lengths.
func (b BBox) Extents() Vec3 {
	return b.Max.Sub(b.Min)
}

// Returns true if p lies inside or on the boundary of the box.
func (b BBox) Contains(p Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Returns true if other lies entirely inside the box.
func (b BBox) ContainsBox(other BBox) bool {
	return b.Contains(other.Min) && b.Contains(other.Max)
}

// Returns true if the two boxes overlap. Boxes that share a face, edge or
// corner are considered overlapping.
func (b BBox) Overlaps(other BBox) bool {
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1] &&
		b.Min[2] <= other.Max[2] && b.Max[2] >= other.Min[2]
}

// Get one of the eight boxes generated by splitting the box around its center.
// Bits 0, 1 and 2 of index select the upper half along the X, Y and Z axis.
func (b BBox) Octant(index int) BBox {
	center := b.Center()
	out := BBox{Min: b.Min, Max: center}
	for axis := 0; axis < 3; axis++ {
		if index&(1<<uint(axis)) != 0 {
			out.Min[axis] = center[axis]
			out.Max[axis] = b.Max[axis]
		}
	}
	return out
}

// Intersect the box with a ray using the slab method. The test only reports
// intersections that fall inside the ray's [MinT, MaxT] interval and returns
// the clipped entry and exit parameters.
func (b BBox) IntersectRay(r Ray) (nearT, farT float32, ok bool) {
	nearT, farT = r.MinT, r.MaxT
	for axis := 0; axis < 3; axis++ {
		origin := r.Origin[axis]
		dir := r.Dir[axis]

		if dir > -parallelEpsilon && dir < parallelEpsilon {
			if origin < b.Min[axis] || origin > b.Max[axis] {
				return 0, 0, false
			}
			continue
		}

		invDir := 1.0 / dir
		t1 := (b.Min[axis] - origin) * invDir
		t2 := (b.Max[axis] - origin) * invDir
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		if t1 > nearT {
			nearT = t1
		}
		if t2 < farT {
			farT = t2
		}
		if nearT > farT {
			return 0, 0, false
		}
	}

	return nearT, farT, true
}
