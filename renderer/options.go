package renderer

import "github.com/achilleasa/octrace/tracer"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of tracer goroutines. Values <= 0 select one tracer.
	Workers int

	// The integrator used for shading primary rays. Defaults to
	// tracer.NormalsIntegrator.
	Integrator tracer.Integrator

	// Splits frames between tracers. Defaults to tracer.PerfectScheduler.
	Scheduler tracer.BlockScheduler
}
