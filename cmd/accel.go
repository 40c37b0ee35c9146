package cmd

import (
	"errors"
	"time"

	"github.com/achilleasa/octrace/accel/octree"
	"github.com/achilleasa/octrace/asset"
	"github.com/achilleasa/octrace/asset/reader"
	"github.com/urfave/cli"
)

// Flags shared by commands that build an octree.
var OctreeFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "leaf-size",
		Value: octree.DefaultLeafSize,
		Usage: "split nodes with at least this many triangles",
	},
	cli.IntFlag{
		Name:  "max-depth",
		Value: 0,
		Usage: "override the tree depth limit; 0 derives it from the triangle count",
	},
	cli.BoolFlag{
		Name:  "first-match",
		Usage: "assign triangles to the first overlapping octant only; faster but may miss hits",
	},
	cli.BoolFlag{
		Name:  "fixed-order",
		Usage: "visit child nodes in octant order instead of near-to-far",
	},
}

// Map the octree flags to build options.
func octreeOptions(ctx *cli.Context) []octree.Option {
	opts := []octree.Option{
		octree.WithLeafSize(ctx.Int("leaf-size")),
		octree.WithMaxDepth(ctx.Int("max-depth")),
	}
	if ctx.Bool("first-match") {
		opts = append(opts, octree.WithPolicy(octree.AssignFirst))
	}
	if ctx.Bool("fixed-order") {
		opts = append(opts, octree.WithTraversalOrder(octree.FixedOrder))
	}
	return opts
}

// Load the model passed as the single command argument.
func loadModel(ctx *cli.Context) (*asset.Model, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing model file argument")
	}

	return reader.ReadModel(ctx.Args().First())
}

// Build an octree for model using the command flags and any extra options.
func buildOctree(ctx *cli.Context, model *asset.Model, extra ...octree.Option) *octree.Octree {
	tree := octree.New(append(octreeOptions(ctx), extra...)...)

	start := time.Now()
	tree.Build(model.Mesh)
	logger.Noticef("built octree for %d triangles in %d ms", model.Mesh.TriangleCount(), time.Since(start).Nanoseconds()/1e6)

	return tree
}
