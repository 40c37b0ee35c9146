// Package renderer splits frames into row blocks and traces them in
// parallel using a pool of cpu tracers.
package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/log"
	"github.com/achilleasa/octrace/tracer"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Renderer renders frames of a mesh as seen by a camera.
type Renderer struct {
	logger log.Logger

	options   Options
	scheduler tracer.BlockScheduler
	tracers   []tracer.Tracer
	frame     *image.NRGBA

	stats FrameStats
}

// Create a renderer. The camera projection is set up for the frame aspect
// ratio.
func New(acc accel.Accelerator, camera *tracer.Camera, opts Options) (*Renderer, error) {
	switch {
	case acc == nil:
		return nil, ErrNoAccelerator
	case camera == nil:
		return nil, ErrCameraNotDefined
	case opts.FrameW == 0 || opts.FrameH == 0:
		return nil, ErrInvalidFrameSize
	}

	if opts.Integrator == nil {
		opts.Integrator = tracer.NormalsIntegrator{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = tracer.PerfectScheduler()
	}

	// Each tracer needs at least one row.
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if uint32(workers) > opts.FrameH {
		workers = int(opts.FrameH)
	}

	camera.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH))

	r := &Renderer{
		logger:    log.New("renderer"),
		options:   opts,
		scheduler: opts.Scheduler,
		frame:     image.NewNRGBA(image.Rect(0, 0, int(opts.FrameW), int(opts.FrameH))),
	}
	for index := 0; index < workers; index++ {
		r.tracers = append(r.tracers, tracer.NewCPUTracer(fmt.Sprintf("cpu-%d", index), acc, camera, opts.Integrator, r.frame))
	}

	return r, nil
}

// Render a frame. The returned image is reused by subsequent calls.
func (r *Renderer) Render(ctx context.Context) (*image.NRGBA, error) {
	start := time.Now()
	blockAssignment := r.scheduler.Schedule(r.tracers, r.options.FrameH)

	group, groupCtx := errgroup.WithContext(ctx)
	var blockY uint32
	for index, tr := range r.tracers {
		req := tracer.BlockRequest{BlockY: blockY, BlockH: blockAssignment[index]}
		blockY += req.BlockH
		if req.BlockH == 0 {
			continue
		}

		tr := tr
		group.Go(func() error {
			return tr.Trace(groupCtx, req)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "renderer: interrupted while rendering")
	}

	r.updateStats(blockAssignment, time.Since(start))
	r.logger.Debugf("rendered %dx%d frame in %d ms", r.options.FrameW, r.options.FrameH, r.stats.RenderTime.Nanoseconds()/1e6)
	return r.frame, nil
}

func (r *Renderer) updateStats(blockAssignment []uint32, renderTime time.Duration) {
	r.stats.RenderTime = renderTime
	r.stats.Tracers = r.stats.Tracers[:0]
	for index, tr := range r.tracers {
		r.stats.Tracers = append(r.stats.Tracers, TracerStat{
			Id:           tr.Id(),
			BlockH:       blockAssignment[index],
			FramePercent: 100.0 * float32(blockAssignment[index]) / float32(r.options.FrameH),
			RenderTime:   tr.Stats().BlockTime,
		})
	}
}

// Get render statistics for the last frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}
