package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/octrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "octrace"
	app.Usage = "build octrees over triangle meshes and trace rays through them"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}

	rayFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "rays",
			Value: 100000,
			Usage: "number of random rays to cast",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: 4,
			Usage: "number of goroutines casting rays",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random seed for ray generation",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile wavefront models into a binary compressed format",
			Description: `
Parse a mesh from a wavefront obj file and write it to a zip archive which can
be supplied as an argument to the remaining commands.`,
			ArgsUsage: "model_file1.obj model_file2.obj ...",
			Action:    cmd.CompileModel,
		},
		{
			Name:      "info",
			Usage:     "display mesh and octree statistics",
			ArgsUsage: "model_file",
			Flags:     cmd.OctreeFlags,
			Action:    cmd.ShowMeshInfo,
		},
		{
			Name:        "render",
			Usage:       "render a preview frame",
			Description: `Render a single frame of the model shading either the surface normals or direct light with shadows.`,
			ArgsUsage:   "model_file",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "number of tracer goroutines",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 1,
					Usage: "number of frames to render; later frames are load-balanced using earlier ones",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 45,
					Usage: "vertical field of view used when the model does not define a camera",
				},
				cli.StringFlag{
					Name:  "integrator",
					Value: "normals",
					Usage: "shading mode (normals, shadow)",
				},
				cli.StringFlag{
					Name:  "light",
					Usage: "point light position as x,y,z for the shadow integrator; defaults to the camera position",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			}, cmd.OctreeFlags...),
			Action: cmd.RenderFrame,
		},
		{
			Name:      "bench",
			Usage:     "measure ray query throughput",
			ArgsUsage: "model_file",
			Flags: append(append([]cli.Flag{
				cli.BoolFlag{
					Name:  "shadow",
					Usage: "cast shadow queries",
				},
				cli.StringFlag{
					Name:  "metrics-addr",
					Usage: "expose prometheus metrics on this address while the benchmark runs",
				},
				cli.DurationFlag{
					Name:  "metrics-linger",
					Usage: "keep the metrics endpoint alive for this long after the benchmark completes",
				},
			}, rayFlags...), cmd.OctreeFlags...),
			Action: cmd.Bench,
		},
		{
			Name:      "verify",
			Usage:     "compare octree results against a linear scan",
			ArgsUsage: "model_file",
			Flags:     append(append([]cli.Flag{}, rayFlags...), cmd.OctreeFlags...),
			Action:    cmd.Verify,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
