// Package octree implements an axis-aligned octree that accelerates ray
// intersection queries against a triangle mesh.
//
// The tree is built once per mesh with Build and is immutable afterwards.
// Any number of goroutines may call RayIntersect concurrently; a concurrent
// Build swaps in the new tree atomically once it has been fully constructed.
package octree

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/log"
	"github.com/achilleasa/octrace/types"
)

// A built tree together with the mesh it partitions.
type tree struct {
	mesh  accel.Mesh
	root  *node
	stats Stats
}

// Octree is a spatial index over the triangles of a single mesh.
type Octree struct {
	logger log.Logger

	leafSize int
	maxDepth int
	policy   AssignPolicy
	order    TraversalOrder
	observer Observer

	// Serializes builds.
	buildMutex sync.Mutex

	// The current tree. Replaced as a whole by Build.
	current atomic.Pointer[tree]
}

var _ accel.Accelerator = (*Octree)(nil)

// Create a new octree. The tree starts out as a single empty leaf so queries
// against an unbuilt octree always miss.
func New(opts ...Option) *Octree {
	o := &Octree{
		logger:   log.New("octree builder"),
		leafSize: DefaultLeafSize,
		policy:   AssignAll,
		order:    NearToFar,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}

	o.current.Store(emptyTree(nil, o.policy))
	return o
}

func emptyTree(mesh accel.Mesh, policy AssignPolicy) *tree {
	return &tree{
		mesh: mesh,
		root: &node{bbox: types.EmptyBBox()},
		stats: Stats{
			Policy: policy,
			Nodes:  1,
			Leaves: 1,
			// The root is a leaf without candidates.
			EmptyLeaves: 1,
		},
	}
}

// Build the tree for the given mesh, discarding any previously built tree.
// Meshes that report no triangles or inconsistent triangle data produce a
// tree that never reports a hit.
func (o *Octree) Build(mesh accel.Mesh) {
	o.buildMutex.Lock()
	defer o.buildMutex.Unlock()

	start := time.Now()

	if mesh == nil || mesh.TriangleCount() == 0 {
		o.logger.Info("mesh contains no triangles; building empty tree")
		o.current.Store(emptyTree(mesh, o.policy))
		return
	}

	if err := checkMesh(mesh); err != nil {
		o.logger.Warningf("%s; building empty tree", err.Error())
		o.current.Store(emptyTree(mesh, o.policy))
		return
	}

	b := newBuilder(mesh, o.leafSize, o.maxDepth, o.policy)
	root := b.build()
	b.stats.BuildTime = time.Since(start)

	o.current.Store(&tree{
		mesh:  mesh,
		root:  root,
		stats: b.stats,
	})

	o.logger.Debugf(
		"octree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, refs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leaves, b.stats.TriangleRefs,
	)
}

// Check that the triangle data reported by mesh can be safely indexed. The
// bbox is only queried once all face indices are known to be valid.
func checkMesh(mesh accel.Mesh) error {
	triCount, faces := mesh.TriangleCount(), mesh.Indices()
	if int(triCount) != len(faces) {
		return fmt.Errorf("mesh reports %d triangles but %d faces", triCount, len(faces))
	}

	vertCount := len(mesh.Positions())
	for faceIndex, face := range faces {
		for _, vIndex := range face {
			if int(vIndex) >= vertCount {
				return fmt.Errorf("face %d references vertex %d; mesh has %d vertices", faceIndex, vIndex, vertCount)
			}
		}
	}

	if normalCount := len(mesh.VertexNormals()); normalCount != 0 && normalCount != vertCount {
		return fmt.Errorf("mesh has %d vertices but %d normals", vertCount, normalCount)
	}
	if uvCount := len(mesh.TexCoords()); uvCount != 0 && uvCount != vertCount {
		return fmt.Errorf("mesh has %d vertices but %d uv coordinates", vertCount, uvCount)
	}

	if bbox := mesh.BBox(); bbox.IsEmpty() {
		return fmt.Errorf("mesh has %d triangles but an empty bbox", triCount)
	}
	return nil
}

// Get statistics for the current tree.
func (o *Octree) Stats() Stats {
	return o.current.Load().stats
}

// NodeInfo describes a tree node passed to a Walk callback.
type NodeInfo struct {
	BBox  types.BBox
	Depth int
	Leaf  bool

	// A copy of the candidate triangles; empty for internal nodes.
	Triangles []uint32
}

// Visit every node of the current tree in depth-first, octant order.
func (o *Octree) Walk(visitFn func(NodeInfo)) {
	walkNode(o.current.Load().root, 0, visitFn)
}

func walkNode(n *node, depth int, visitFn func(NodeInfo)) {
	info := NodeInfo{
		BBox:  n.bbox,
		Depth: depth,
		Leaf:  n.isLeaf(),
	}
	if info.Leaf {
		info.Triangles = append([]uint32(nil), n.triangles...)
	}
	visitFn(info)

	if info.Leaf {
		return
	}
	for _, child := range n.children {
		walkNode(child, depth+1, visitFn)
	}
}
