package octree

// The Observer interface receives traversal events. Implementations are
// invoked from all querying goroutines and must be safe for concurrent use.
type Observer interface {
	// Called whenever traversal enters a node whose bbox the ray hits.
	NodeVisited()

	// Called when traversal reaches a leaf with the given number of candidates.
	LeafVisited(candidates int)

	// Called for each triangle tested against the ray.
	TriangleTested(hit bool)

	// Called once a query completes.
	QueryDone(hit, shadow bool)
}

// An observer that ignores all events.
type NopObserver struct{}

func (NopObserver) NodeVisited() {}
func (NopObserver) LeafVisited(_ int) {}
func (NopObserver) TriangleTested(_ bool) {}
func (NopObserver) QueryDone(_ bool, _ bool) {}
