package metrics

import (
	"testing"

	"github.com/achilleasa/octrace/accel/octree"
	"github.com/achilleasa/octrace/mesh"
	"github.com/achilleasa/octrace/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type countingObserver struct {
	octree.NopObserver
	queries int
}

func (o *countingObserver) QueryDone(_, _ bool) {
	o.queries++
}

func TestObserverCountsQueries(t *testing.T) {
	reg := prometheus.NewRegistry()
	next := &countingObserver{}
	obs := NewObserver(reg, next)

	tree := octree.New(octree.WithObserver(obs))
	tree.Build(mesh.FromTriangles("tri", [][3]types.Vec3{
		{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}},
	}))

	hitRay := types.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	missRay := types.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, -1})

	tree.RayIntersect(hitRay, false)
	tree.RayIntersect(hitRay, true)
	tree.RayIntersect(missRay, false)

	type spec struct {
		hit    string
		shadow string
		exp    float64
	}

	specs := []spec{
		{"true", "false", 1},
		{"true", "true", 1},
		{"false", "false", 1},
		{"false", "true", 0},
	}

	for specIndex, s := range specs {
		if got := testutil.ToFloat64(obs.queries.WithLabelValues(s.hit, s.shadow)); got != s.exp {
			t.Fatalf("[spec %d] expected %v queries for hit=%s, shadow=%s; got %v", specIndex, s.exp, s.hit, s.shadow, got)
		}
	}

	// The miss ray never enters the root so only the two hit queries
	// reach a node.
	if got := testutil.ToFloat64(obs.nodesVisited); got != 2 {
		t.Fatalf("expected 2 visited nodes; got %v", got)
	}
	if got := testutil.ToFloat64(obs.triangleTests.WithLabelValues("true")); got != 2 {
		t.Fatalf("expected 2 successful triangle tests; got %v", got)
	}
	if next.queries != 3 {
		t.Fatalf("expected wrapped observer to receive 3 query events; got %d", next.queries)
	}
}

func TestObserverRegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg, nil)
	obs.TriangleTested(false)
	obs.QueryDone(false, false)

	count, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatal(err)
	}
	// Label-less metrics are exported even before being updated.
	if count != 5 {
		t.Fatalf("expected 5 exported series; got %d", count)
	}
}
