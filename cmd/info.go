package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display model and octree information.
func ShowMeshInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	model, err := loadModel(ctx)
	if err != nil {
		return err
	}

	m := model.Mesh
	bbox := m.BBox()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", m.Name})
	table.Append([]string{"Vertices", fmt.Sprintf("%d", len(m.Vertices))})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", m.TriangleCount())})
	table.Append([]string{"Normals", fmt.Sprintf("%t", len(m.Normals) != 0)})
	table.Append([]string{"Tex coords", fmt.Sprintf("%t", len(m.UVs) != 0)})
	table.Append([]string{"BBox min", fmt.Sprintf("%v", bbox.Min)})
	table.Append([]string{"BBox max", fmt.Sprintf("%v", bbox.Max)})
	table.Append([]string{"Camera", fmt.Sprintf("%t", model.Camera != nil)})
	table.Render()
	logger.Noticef("mesh information:\n%s", buf.String())

	tree := buildOctree(ctx, model)
	logger.Noticef("octree information:\n%s", tree.Stats())

	return nil
}
