// Package metrics exports octree traversal events as prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/achilleasa/octrace/accel/octree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	hitLabel    = "hit"
	shadowLabel = "shadow"

	namespace = "octree"
)

// Observer is an octree.Observer that updates prometheus metrics and then
// forwards each event to the wrapped observer.
type Observer struct {
	next octree.Observer

	nodesVisited   prometheus.Counter
	leavesVisited  prometheus.Counter
	leafCandidates prometheus.Histogram
	triangleTests  *prometheus.CounterVec
	queries        *prometheus.CounterVec
}

var _ octree.Observer = (*Observer)(nil)

// Create an observer whose metrics are registered with reg. A nil next
// observer is replaced by octree.NopObserver.
func NewObserver(reg prometheus.Registerer, next octree.Observer) *Observer {
	if next == nil {
		next = octree.NopObserver{}
	}

	factory := promauto.With(reg)
	return &Observer{
		next: next,
		nodesVisited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_visited_total",
			Help:      "The number of tree nodes entered by ray queries.",
		}),
		leavesVisited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaves_visited_total",
			Help:      "The number of leaf nodes whose candidates were tested.",
		}),
		leafCandidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leaf_candidates",
			Help:      "The number of candidate triangles in visited leaves.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		triangleTests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triangle_tests_total",
			Help:      "The number of ray/triangle tests.",
		}, []string{
			hitLabel,
		}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "The number of completed ray queries.",
		}, []string{
			hitLabel,
			shadowLabel,
		}),
	}
}

func (o *Observer) NodeVisited() {
	o.nodesVisited.Inc()
	o.next.NodeVisited()
}

func (o *Observer) LeafVisited(candidates int) {
	o.leavesVisited.Inc()
	o.leafCandidates.Observe(float64(candidates))
	o.next.LeafVisited(candidates)
}

func (o *Observer) TriangleTested(hit bool) {
	o.triangleTests.WithLabelValues(strconv.FormatBool(hit)).Inc()
	o.next.TriangleTested(hit)
}

func (o *Observer) QueryDone(hit, shadow bool) {
	o.queries.WithLabelValues(strconv.FormatBool(hit), strconv.FormatBool(shadow)).Inc()
	o.next.QueryDone(hit, shadow)
}
