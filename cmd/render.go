package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/achilleasa/octrace/renderer"
	"github.com/achilleasa/octrace/tracer"
	"github.com/achilleasa/octrace/types"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Render a preview frame of a model.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	model, err := loadModel(ctx)
	if err != nil {
		return err
	}
	tree := buildOctree(ctx, model)

	var cam *tracer.Camera
	if model.Camera != nil {
		cam = tracer.NewCamera(model.Camera)
	} else {
		logger.Info("model does not define a camera; fitting camera to mesh bbox")
		cam = tracer.FitCamera(model.Mesh.BBox(), float32(ctx.Float64("fov")))
	}

	opts := renderer.Options{
		FrameW:  uint32(ctx.Int("width")),
		FrameH:  uint32(ctx.Int("height")),
		Workers: ctx.Int("workers"),
	}

	switch ctx.String("integrator") {
	case "normals":
		opts.Integrator = tracer.NormalsIntegrator{}
	case "shadow":
		light, err := parseVec3Flag(ctx.String("light"))
		if err != nil {
			return err
		}
		if ctx.String("light") == "" {
			light = cam.Position
		}
		opts.Integrator = tracer.ShadowIntegrator{Light: light, Ambient: 0.1}
	default:
		return errors.Errorf("unsupported integrator %q", ctx.String("integrator"))
	}

	r, err := renderer.New(tree, cam, opts)
	if err != nil {
		return err
	}

	runCtx, cancel := interruptContext()
	defer cancel()

	frames := ctx.Int("frames")
	if frames < 1 {
		frames = 1
	}
	logger.Noticef("rendering %d frame(s)", frames)

	// Later frames are balanced using the block times of earlier ones.
	var frameImg image.Image
	for frame := 0; frame < frames; frame++ {
		if frameImg, err = r.Render(runCtx); err != nil {
			return err
		}
		displayFrameStats(r.Stats())
	}

	imgFile := ctx.String("out")
	f, err := os.Create(imgFile)
	if err != nil {
		return errors.Wrap(err, "could not create output file")
	}
	defer f.Close()

	start := time.Now()
	if err = png.Encode(f, frameImg); err != nil {
		return errors.Wrap(err, "error encoding png file")
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)

	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Block height", "% of frame", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", stats.RenderTime.String()})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}

// Parse an "x,y,z" flag value. An empty value yields the zero vector.
func parseVec3Flag(value string) (types.Vec3, error) {
	var v types.Vec3
	if value == "" {
		return v, nil
	}

	if _, err := fmt.Sscanf(value, "%f,%f,%f", &v[0], &v[1], &v[2]); err != nil {
		return v, errors.Wrapf(err, "invalid vector %q; expected x,y,z", value)
	}
	return v, nil
}
