package octree

import (
	"math"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/achilleasa/octrace/accel"
	"github.com/achilleasa/octrace/accel/brute"
	"github.com/achilleasa/octrace/mesh"
	"github.com/achilleasa/octrace/types"
)

func TestDepthLimit(t *testing.T) {
	type spec struct {
		triangles uint32
		expLimit  int
	}

	specs := []spec{
		{0, 0},
		{1, 0},
		{2, 1},
		{8, 1},
		{9, 2},
		{64, 2},
		{65, 3},
		{1000, 4},
	}

	for specIndex, s := range specs {
		if got := depthLimit(s.triangles); got != s.expLimit {
			t.Fatalf("[spec %d] expected depth limit for %d triangles to be %d; got %d", specIndex, s.triangles, s.expLimit, got)
		}
	}
}

func TestBuildCoversAllTriangles(t *testing.T) {
	m := randomMesh(500, 1)
	tree := New()
	tree.Build(m)

	seen := make([]bool, m.TriangleCount())
	tree.Walk(func(info NodeInfo) {
		for _, tri := range info.Triangles {
			seen[tri] = true
		}
	})

	for tri, found := range seen {
		if !found {
			t.Fatalf("expected triangle %d to be referenced by at least one leaf", tri)
		}
	}

	stats := tree.Stats()
	if stats.Triangles != 500 {
		t.Fatalf("expected stats to report 500 triangles; got %d", stats.Triangles)
	}
	if stats.TriangleRefs < stats.Triangles {
		t.Fatalf("expected at least %d triangle refs; got %d", stats.Triangles, stats.TriangleRefs)
	}
	if stats.Nodes != 1+8*(stats.Nodes-stats.Leaves) {
		t.Fatalf("expected every internal node to own 8 children; got %d nodes and %d leaves", stats.Nodes, stats.Leaves)
	}
}

func TestLeafInvariant(t *testing.T) {
	m := randomMesh(2000, 2)
	tree := New()
	tree.Build(m)

	limit := tree.Stats().DepthLimit
	tree.Walk(func(info NodeInfo) {
		if info.Depth > limit {
			t.Fatalf("node at depth %d exceeds depth limit %d", info.Depth, limit)
		}
		if !info.Leaf {
			return
		}
		if len(info.Triangles) >= DefaultLeafSize && info.Depth != limit {
			t.Fatalf("leaf at depth %d holds %d triangles; expected fewer than %d or depth %d", info.Depth, len(info.Triangles), DefaultLeafSize, limit)
		}
	})
}

func TestNodeContainment(t *testing.T) {
	m := randomMesh(800, 3)
	tree := New()
	tree.Build(m)

	var check func(n *node)
	check = func(n *node) {
		if n.isLeaf() {
			for _, tri := range n.triangles {
				if !n.bbox.Overlaps(m.TriangleBBox(tri)) {
					t.Fatalf("leaf %v references triangle %d which does not overlap it", n.bbox, tri)
				}
			}
			return
		}

		if len(n.triangles) != 0 {
			t.Fatal("expected internal node to hold no triangles")
		}
		for octant, child := range n.children {
			if child == nil {
				t.Fatalf("internal node is missing child %d", octant)
			}
			if child.bbox != n.bbox.Octant(octant) {
				t.Fatalf("expected child %d bbox to be %v; got %v", octant, n.bbox.Octant(octant), child.bbox)
			}
			check(child)
		}
	}

	check(tree.current.Load().root)
}

func TestClosestHitMatchesLinearScan(t *testing.T) {
	m := randomMesh(1000, 4)
	ref := brute.New(m)
	rays := randomRays(m.BBox(), 2000, 5)

	for _, order := range []TraversalOrder{NearToFar, FixedOrder} {
		tree := New(WithTraversalOrder(order))
		tree.Build(m)

		hits := 0
		for rayIndex, ray := range rays {
			expHit, expIts := ref.RayIntersect(ray, false)
			hit, its := tree.RayIntersect(ray, false)
			if hit != expHit {
				t.Fatalf("[%s] ray %d: expected hit to be %t; got %t", order, rayIndex, expHit, hit)
			}
			if !hit {
				continue
			}
			hits++

			if its.T != expIts.T {
				t.Fatalf("[%s] ray %d: expected closest hit at t = %f; got %f", order, rayIndex, expIts.T, its.T)
			}
			if its.TriIndex == expIts.TriIndex && its.ShNormal != expIts.ShNormal {
				t.Fatalf("[%s] ray %d: expected shading normal %v; got %v", order, rayIndex, expIts.ShNormal, its.ShNormal)
			}
			if its.Mesh == nil {
				t.Fatalf("[%s] ray %d: expected intersection to reference the mesh", order, rayIndex)
			}
		}

		if hits == 0 {
			t.Fatalf("[%s] expected some rays to hit the mesh", order)
		}
	}
}

func TestShadowQueryAgreesWithLinearScan(t *testing.T) {
	m := randomMesh(600, 6)
	ref := brute.New(m)
	tree := New()
	tree.Build(m)

	for rayIndex, ray := range randomRays(m.BBox(), 1000, 7) {
		expHit, _ := ref.RayIntersect(ray, true)
		hit, its := tree.RayIntersect(ray, true)
		if hit != expHit {
			t.Fatalf("ray %d: expected occlusion to be %t; got %t", rayIndex, expHit, hit)
		}
		if hit && its.GeoNormal != (types.Vec3{}) {
			t.Fatalf("ray %d: expected shadow query to skip shading", rayIndex)
		}
	}
}

func TestShadowQueryStopsAtFirstHit(t *testing.T) {
	m := randomMesh(1000, 8)
	obs := &recordingObserver{}
	tree := New(WithObserver(obs))
	tree.Build(m)

	shadowHits := 0
	for _, ray := range randomRays(m.BBox(), 500, 9) {
		obs.reset()
		hit, _ := tree.RayIntersect(ray, true)
		if !hit {
			continue
		}
		shadowHits++

		if obs.eventsAfterHit != 0 {
			t.Fatalf("expected traversal to stop after the first hit; observed %d events", obs.eventsAfterHit)
		}
		if obs.queries != 1 || !obs.lastHit || !obs.lastShadow {
			t.Fatalf("expected a single completed shadow query reporting a hit; got %d queries (hit %t, shadow %t)", obs.queries, obs.lastHit, obs.lastShadow)
		}
	}

	if shadowHits == 0 {
		t.Fatal("expected some shadow rays to be occluded")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	m := randomMesh(700, 10)
	tree := New()

	tree.Build(m)
	expStats := tree.Stats()
	expNodes := collectNodes(tree)

	tree.Build(m)
	stats := tree.Stats()
	nodes := collectNodes(tree)

	expStats.BuildTime, stats.BuildTime = 0, 0
	if stats != expStats {
		t.Fatalf("expected rebuild to produce identical stats:\n%+v\ngot:\n%+v", expStats, stats)
	}
	if !reflect.DeepEqual(nodes, expNodes) {
		t.Fatal("expected rebuild to produce an identical tree")
	}
}

func TestEmptyMesh(t *testing.T) {
	ray := types.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})

	specs := []accel.Mesh{
		nil,
		mesh.New("empty"),
	}

	for specIndex, m := range specs {
		tree := New()
		tree.Build(m)

		if hit, its := tree.RayIntersect(ray, false); hit || its.Hit() {
			t.Fatalf("[spec %d] expected empty tree to never report a hit", specIndex)
		}
		if stats := tree.Stats(); stats.Nodes != 1 || stats.Leaves != 1 {
			t.Fatalf("[spec %d] expected a single leaf; got %d nodes and %d leaves", specIndex, stats.Nodes, stats.Leaves)
		}
	}
}

func TestUnbuiltTreeMisses(t *testing.T) {
	hit, its := New().RayIntersect(types.NewRay(types.Vec3{}, types.Vec3{1, 0, 0}), false)
	if hit || its.TriIndex != accel.NoHit {
		t.Fatal("expected unbuilt tree to report no hit")
	}
}

func TestInconsistentMeshBuildsEmptyTree(t *testing.T) {
	danglingFace := straddleMesh()
	danglingFace.Faces = append(danglingFace.Faces, [3]uint32{0, 1, 99})

	shortNormals := straddleMesh()
	shortNormals.Normals = make([]types.Vec3, 2)

	shortUVs := straddleMesh()
	shortUVs.UVs = make([]types.Vec2, 1)

	specs := []accel.Mesh{
		&faceCountMismatch{Mesh: straddleMesh()},
		danglingFace,
		shortNormals,
		shortUVs,
	}

	for specIndex, m := range specs {
		tree := New()
		func() {
			defer func() {
				if err := recover(); err != nil {
					t.Fatalf("[spec %d] expected Build not to panic; got %v", specIndex, err)
				}
			}()
			tree.Build(m)
		}()

		hit, its := tree.RayIntersect(types.NewRay(types.Vec3{-0.5, -0.5, -10}, types.Vec3{0, 0, 1}), false)
		if hit || its.TriIndex != accel.NoHit {
			t.Fatalf("[spec %d] expected tree for inconsistent mesh to never report a hit", specIndex)
		}
		if stats := tree.Stats(); stats.Nodes != 1 || stats.EmptyLeaves != 1 {
			t.Fatalf("[spec %d] expected a single empty leaf; got %d nodes and %d empty leaves", specIndex, stats.Nodes, stats.EmptyLeaves)
		}
	}
}

func TestInvertedTriangleBBoxPanics(t *testing.T) {
	m := &invertedTriangleBBox{Mesh: randomMesh(40, 11), index: 1}

	defer func() {
		if err := recover(); err == nil {
			t.Fatal("expected Build to panic on an inverted triangle bbox")
		}
	}()
	New().Build(m)
}

func TestEveryTriangleIsReachable(t *testing.T) {
	m := randomMesh(1000, 12)
	tree := New()
	tree.Build(m)

	for index := uint32(0); index < m.TriangleCount(); index++ {
		face := m.Faces[index]
		p0, p1, p2 := m.Vertices[face[0]], m.Vertices[face[1]], m.Vertices[face[2]]
		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		if normal.Len() < 1e-3 {
			continue
		}
		normal = normal.Normalize()

		// Aim at the centroid from one unit above the triangle plane.
		center := m.TriangleCenter(index)
		ray := types.NewRay(center.Add(normal), normal.Mul(-1))
		_, _, expT, ok := m.RayIntersect(index, &ray)
		if !ok {
			t.Fatalf("triangle %d: expected ray to hit its own centroid", index)
		}

		hit, its := tree.RayIntersect(ray, false)
		if !hit {
			t.Fatalf("triangle %d: expected a hit at t = %f", index, expT)
		}

		// Other triangles may occlude the centroid; they must then be nearer.
		if its.TriIndex == index {
			if math.Abs(float64(its.T-expT)) > 1e-5 {
				t.Fatalf("triangle %d: expected hit at t = %f; got %f", index, expT, its.T)
			}
		} else if its.T > expT {
			t.Fatalf("triangle %d: expected occluding triangle %d to be nearer than t = %f; got %f", index, its.TriIndex, expT, its.T)
		}
	}
}

func TestStraddlingTriangle(t *testing.T) {
	m := straddleMesh()

	type spec struct {
		ray  types.Ray
		expT float32
	}

	specs := []spec{
		{types.NewRay(types.Vec3{-0.5, -0.5, -10}, types.Vec3{0, 0, 1}), 10.5},
		{types.NewRay(types.Vec3{0.5, -0.5, -10}, types.Vec3{0, 0, 1}), 10.5},
		{types.NewRay(types.Vec3{0.5, -0.5, 10}, types.Vec3{0, 0, -1}), 9.5},
	}

	tree := New(WithLeafSize(1))
	tree.Build(m)

	leavesWithTri := 0
	tree.Walk(func(info NodeInfo) {
		for _, tri := range info.Triangles {
			if tri == 1 {
				leavesWithTri++
			}
		}
	})
	if leavesWithTri != 4 {
		t.Fatalf("expected straddling triangle to be referenced by 4 leaves; got %d", leavesWithTri)
	}

	for specIndex, s := range specs {
		hit, its := tree.RayIntersect(s.ray, false)
		if !hit || its.TriIndex != 1 {
			t.Fatalf("[spec %d] expected hit on triangle 1; got hit %t, triangle %d", specIndex, hit, its.TriIndex)
		}
		if its.T != s.expT {
			t.Fatalf("[spec %d] expected hit at t = %f; got %f", specIndex, s.expT, its.T)
		}
	}
}

func TestAssignFirstPolicyMissesOtherOctants(t *testing.T) {
	m := straddleMesh()
	tree := New(WithLeafSize(1), WithPolicy(AssignFirst))
	tree.Build(m)

	if stats := tree.Stats(); stats.TriangleRefs != 3 || stats.Policy != AssignFirst {
		t.Fatalf("expected each triangle to be referenced once; got %d refs", stats.TriangleRefs)
	}

	// Octant 4 (lower x, lower y, upper z) is the first one overlapping the
	// straddling triangle.
	hit, _ := tree.RayIntersect(types.NewRay(types.Vec3{-0.5, -0.5, -10}, types.Vec3{0, 0, 1}), false)
	if !hit {
		t.Fatal("expected ray through the assigned octant to hit")
	}

	hit, _ = tree.RayIntersect(types.NewRay(types.Vec3{0.5, -0.5, -10}, types.Vec3{0, 0, 1}), false)
	if hit {
		t.Fatal("expected ray through an unassigned octant to miss")
	}
}

func TestCoincidentTrianglesRespectDepthLimit(t *testing.T) {
	var tris [][3]types.Vec3
	for i := 0; i < 50; i++ {
		tris = append(tris, [3]types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	}
	m := mesh.FromTriangles("coincident", tris)

	type spec struct {
		opts     []Option
		expLimit int
	}

	specs := []spec{
		{nil, 2},
		{[]Option{WithMaxDepth(5)}, 5},
		{[]Option{WithMaxDepth(-1)}, 2},
	}

	for specIndex, s := range specs {
		tree := New(s.opts...)
		tree.Build(m)

		stats := tree.Stats()
		if stats.DepthLimit != s.expLimit {
			t.Fatalf("[spec %d] expected depth limit %d; got %d", specIndex, s.expLimit, stats.DepthLimit)
		}
		if stats.MaxDepth != s.expLimit {
			t.Fatalf("[spec %d] expected tree depth %d; got %d", specIndex, s.expLimit, stats.MaxDepth)
		}
		if stats.MaxLeafTriangles != 50 {
			t.Fatalf("[spec %d] expected a leaf holding all 50 triangles; got %d", specIndex, stats.MaxLeafTriangles)
		}

		hit, _ := tree.RayIntersect(types.NewRay(types.Vec3{0.25, 0.25, 1}, types.Vec3{0, 0, -1}), false)
		if !hit {
			t.Fatalf("[spec %d] expected ray to hit the coincident triangles", specIndex)
		}
	}
}

func TestConcurrentQueries(t *testing.T) {
	m := randomMesh(1000, 11)
	tree := New()
	tree.Build(m)

	rays := randomRays(m.BBox(), 400, 12)
	expT := make([]float32, len(rays))
	for rayIndex, ray := range rays {
		_, its := tree.RayIntersect(ray, false)
		expT[rayIndex] = its.T
	}

	var wg sync.WaitGroup
	errCh := make(chan int, len(rays))
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := range rays {
				rayIndex := (i + offset) % len(rays)
				if _, its := tree.RayIntersect(rays[rayIndex], false); its.T != expT[rayIndex] {
					errCh <- rayIndex
					return
				}
			}
		}(worker * 50)
	}

	// Rebuilding with the same mesh while queries run must not change
	// any answers.
	tree.Build(m)

	wg.Wait()
	close(errCh)
	for rayIndex := range errCh {
		t.Fatalf("ray %d: concurrent query returned a different result", rayIndex)
	}
}

func TestStatsTable(t *testing.T) {
	tree := New()
	tree.Build(randomMesh(100, 13))

	out := tree.Stats().String()
	for _, exp := range []string{"Triangles", "assign-all", "Memory"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected stats table to contain %q; got:\n%s", exp, out)
		}
	}
}

// A mesh whose bbox spans [-4, 4]^3 with a triangle at index 1 straddling
// the x and y split planes in the upper z half.
func straddleMesh() *mesh.Mesh {
	return mesh.FromTriangles("straddle", [][3]types.Vec3{
		{{-4, -4, -4}, {-3, -4, -4}, {-4, -3, -4}},
		{{-2, -1, 0.5}, {2, -1, 0.5}, {0, 1, 0.5}},
		{{4, 4, 4}, {3, 4, 4}, {4, 3, 4}},
	})
}

type faceCountMismatch struct {
	*mesh.Mesh
}

func (m *faceCountMismatch) TriangleCount() uint32 {
	return m.Mesh.TriangleCount() + 1
}

// Reports an inverted bbox for a single triangle.
type invertedTriangleBBox struct {
	*mesh.Mesh
	index uint32
}

func (m *invertedTriangleBBox) TriangleBBox(index uint32) types.BBox {
	bbox := m.Mesh.TriangleBBox(index)
	if index == m.index {
		bbox.Min, bbox.Max = bbox.Max, bbox.Min
	}
	return bbox
}

func randomMesh(triangles int, seed int64) *mesh.Mesh {
	rng := rand.New(rand.NewSource(seed))
	randVec := func(scale float32) types.Vec3 {
		return types.Vec3{
			(rng.Float32()*2 - 1) * scale,
			(rng.Float32()*2 - 1) * scale,
			(rng.Float32()*2 - 1) * scale,
		}
	}

	tris := make([][3]types.Vec3, triangles)
	for index := range tris {
		center := randVec(10)
		tris[index] = [3]types.Vec3{
			center.Add(randVec(1)),
			center.Add(randVec(1)),
			center.Add(randVec(1)),
		}
	}
	return mesh.FromTriangles("random", tris)
}

// Generate rays starting outside bbox and aimed at random points inside it.
func randomRays(bbox types.BBox, count int, seed int64) []types.Ray {
	rng := rand.New(rand.NewSource(seed))
	center := bbox.Center()
	radius := bbox.Extents().Len() * 2

	rays := make([]types.Ray, count)
	for index := range rays {
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)
		origin := center.Add(types.Vec3{
			float32(math.Sin(phi) * math.Cos(theta)),
			float32(math.Sin(phi) * math.Sin(theta)),
			float32(math.Cos(phi)),
		}.Mul(radius))

		extents := bbox.Extents()
		target := types.Vec3{
			bbox.Min[0] + rng.Float32()*extents[0],
			bbox.Min[1] + rng.Float32()*extents[1],
			bbox.Min[2] + rng.Float32()*extents[2],
		}
		rays[index] = types.NewRay(origin, target.Sub(origin).Normalize())
	}
	return rays
}

func collectNodes(tree *Octree) []NodeInfo {
	var nodes []NodeInfo
	tree.Walk(func(info NodeInfo) {
		nodes = append(nodes, info)
	})
	return nodes
}

type recordingObserver struct {
	mu sync.Mutex

	hitSeen        bool
	eventsAfterHit int
	queries        int
	lastHit        bool
	lastShadow     bool
}

func (o *recordingObserver) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hitSeen, o.eventsAfterHit, o.queries = false, 0, 0
}

func (o *recordingObserver) event() {
	if o.hitSeen {
		o.eventsAfterHit++
	}
}

func (o *recordingObserver) NodeVisited() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.event()
}

func (o *recordingObserver) LeafVisited(_ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.event()
}

func (o *recordingObserver) TriangleTested(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.event()
	if hit {
		o.hitSeen = true
	}
}

func (o *recordingObserver) QueryDone(hit, shadow bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries++
	o.lastHit, o.lastShadow = hit, shadow
}
