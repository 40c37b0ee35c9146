package tracer

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/types"
)

// cpuTracer traces blocks on the calling goroutine and writes the results to
// a shared frame. Tracers sharing a frame must be assigned disjoint rows.
type cpuTracer struct {
	id         string
	acc        accel.Accelerator
	camera     *Camera
	integrator Integrator
	frame      *image.NRGBA

	stats Stats
}

// Create a tracer that renders into frame. The camera projection must have
// been set up for the frame aspect ratio.
func NewCPUTracer(id string, acc accel.Accelerator, camera *Camera, integrator Integrator, frame *image.NRGBA) Tracer {
	return &cpuTracer{
		id:         id,
		acc:        acc,
		camera:     camera,
		integrator: integrator,
		frame:      frame,
	}
}

func (tr *cpuTracer) Id() string {
	return tr.id
}

// All cpu tracers run at the baseline speed.
func (tr *cpuTracer) SpeedEstimate() float32 {
	return 1.0
}

func (tr *cpuTracer) Stats() *Stats {
	return &tr.stats
}

func (tr *cpuTracer) Trace(ctx context.Context, req BlockRequest) error {
	start := time.Now()
	bounds := tr.frame.Bounds()
	frameW, frameH := uint32(bounds.Dx()), uint32(bounds.Dy())

	for y := req.BlockY; y < req.BlockY+req.BlockH && y < frameH; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		for x := uint32(0); x < frameW; x++ {
			li := tr.integrator.Li(tr.acc, tr.camera.Ray(x, y, frameW, frameH))
			tr.frame.SetNRGBA(bounds.Min.X+int(x), bounds.Min.Y+int(y), toNRGBA(li))
		}
	}

	tr.stats.BlockH = req.BlockH
	tr.stats.BlockTime = time.Since(start)
	return nil
}

func toNRGBA(c types.Vec3) color.NRGBA {
	return color.NRGBA{
		R: toByte(c[0]),
		G: toByte(c[1]),
		B: toByte(c[2]),
		A: 255,
	}
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
