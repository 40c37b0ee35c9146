package cmd

import (
	"context"
	"math"
	"math/rand"
	"os"
	"os/signal"

	"github.com/achilleasa/octrace/types"
)

// Generate rays that start on a sphere enclosing bbox and point at random
// locations inside it.
func randomRays(bbox types.BBox, count int, seed int64) []types.Ray {
	rng := rand.New(rand.NewSource(seed))
	center := bbox.Center()
	extents := bbox.Extents()
	radius := extents.Len()
	if radius == 0 {
		radius = 1
	}

	rays := make([]types.Ray, count)
	for index := range rays {
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)
		origin := center.Add(types.Vec3{
			float32(math.Sin(phi) * math.Cos(theta)),
			float32(math.Sin(phi) * math.Sin(theta)),
			float32(math.Cos(phi)),
		}.Mul(radius))

		target := types.Vec3{
			bbox.Min[0] + rng.Float32()*extents[0],
			bbox.Min[1] + rng.Float32()*extents[1],
			bbox.Min[2] + rng.Float32()*extents[2],
		}
		rays[index] = types.NewRay(origin, target.Sub(origin).Normalize())
	}
	return rays
}

// Split count items into at most workers contiguous [start, end) ranges.
func splitRange(count, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	ranges := make([][2]int, 0, workers)
	for worker := 0; worker < workers; worker++ {
		ranges = append(ranges, [2]int{count * worker / workers, count * (worker + 1) / workers})
	}
	return ranges
}

// Get a context that is cancelled when the process receives an interrupt.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
