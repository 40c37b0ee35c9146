package octree

import (
	"bytes"
	"fmt"
	"time"
	"unsafe"

	"github.com/olekukonko/tablewriter"
)

// Stats summarizes the shape of a built tree.
type Stats struct {
	Triangles int
	Policy    AssignPolicy

	Nodes       int
	Leaves      int
	EmptyLeaves int

	// Deepest node and the configured depth limit.
	MaxDepth   int
	DepthLimit int

	// Sum of leaf candidate list lengths. Under AssignAll this exceeds the
	// triangle count when triangles straddle octant boundaries.
	TriangleRefs     int
	MaxLeafTriangles int

	BuildTime time.Duration
}

// Get the average number of times each triangle is referenced by a leaf.
func (s Stats) Duplication() float32 {
	if s.Triangles == 0 {
		return 0
	}
	return float32(s.TriangleRefs) / float32(s.Triangles)
}

// Estimate the memory used by the tree nodes and candidate lists.
func (s Stats) MemoryBytes() int {
	return s.Nodes*int(unsafe.Sizeof(node{})) + s.TriangleRefs*int(unsafe.Sizeof(uint32(0)))
}

// Build a tabular representation of the tree statistics.
func (s Stats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", s.Triangles)})
	table.Append([]string{"Assign policy", s.Policy.String()})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", s.Nodes)})
	table.Append([]string{"Leaves", fmt.Sprintf("%d (%d empty)", s.Leaves, s.EmptyLeaves)})
	table.Append([]string{"Depth", fmt.Sprintf("%d (limit %d)", s.MaxDepth, s.DepthLimit)})
	table.Append([]string{"Triangle refs", fmt.Sprintf("%d (%.2fx)", s.TriangleRefs, s.Duplication())})
	table.Append([]string{"Max leaf size", fmt.Sprintf("%d", s.MaxLeafTriangles)})
	table.Append([]string{"Build time", s.BuildTime.String()})
	table.SetFooter([]string{"Memory", fmtSize(s.MemoryBytes())})

	table.Render()
	return buf.String()
}

// Format a byte count using the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
