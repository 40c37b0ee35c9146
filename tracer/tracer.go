// Package tracer casts primary rays through an accelerator and shades the
// resulting intersections into frame buffer rows.
package tracer

import (
	"context"
	"time"
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32
}

// Tracer statistics for the last processed block.
type Stats struct {
	// The rendered block height
	BlockH uint32

	// The time for rendering this block
	BlockTime time.Duration
}

// The Tracer interface is implemented by block tracers.
type Tracer interface {
	// Get tracer id.
	Id() string

	// Get the tracer's computation speed estimate compared to a baseline
	// implementation.
	SpeedEstimate() float32

	// Trace the rows of a block. Cancellation is checked between rows.
	Trace(ctx context.Context, req BlockRequest) error

	// Retrieve last block statistics.
	Stats() *Stats
}
