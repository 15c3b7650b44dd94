package odometry

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// NearestNeighborIndex is the collaborator interface the core requires for
// correspondence search, keeping the k-d-tree data structure itself an
// external collaborator behind a narrow interface. KDTreeIndex below is
// the one concrete implementation shipped with this module.
type NearestNeighborIndex interface {
	// Build indexes the given points. Build replaces any previously
	// indexed set.
	Build(points []Point)
	// KNN returns the indices (into the slice passed to Build) and squared
	// distances of the k nearest neighbors to query, ordered nearest
	// first. len(indices) may be less than k if fewer points are indexed.
	KNN(query Point, k int) (indices []int, sqDist []float64)
}

// KDTreeIndex adapts gonum.org/v1/gonum/spatial/kdtree to NearestNeighborIndex.
type KDTreeIndex struct {
	tree   *kdtree.Tree
	source indexedPoints
}

// Build indexes points, replacing the tree built from any prior call.
// Rebuilding releases the older snapshot: the previous source/tree are
// simply dropped and eligible for garbage collection.
func (idx *KDTreeIndex) Build(points []Point) {
	src := make(indexedPoints, len(points))
	for i, p := range points {
		src[i] = indexedPoint{coords: [3]float64{p.X, p.Y, p.Z}, idx: i}
	}
	idx.source = src
	if len(src) == 0 {
		idx.tree = nil
		return
	}
	idx.tree = kdtree.New(src, false)
}

// KNN returns the k nearest neighbors of query by squared Euclidean
// distance, as indices into the slice last passed to Build.
func (idx *KDTreeIndex) KNN(query Point, k int) ([]int, []float64) {
	if idx.tree == nil || k <= 0 {
		return nil, nil
	}
	q := indexedPoint{coords: [3]float64{query.X, query.Y, query.Z}, idx: -1}

	if k == 1 {
		nearest, dist := idx.tree.Nearest(q)
		if nearest == nil {
			return nil, nil
		}
		return []int{nearest.(indexedPoint).idx}, []float64{dist}
	}

	keeper := kdtree.NewNKeeper(k)
	idx.tree.NearestSet(keeper, q)

	type hit struct {
		i int
		d float64
	}
	hits := make([]hit, 0, len(keeper.Heap))
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		hits = append(hits, hit{i: cd.Comparable.(indexedPoint).idx, d: cd.Dist})
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].d < hits[b].d })

	indices := make([]int, len(hits))
	sqDist := make([]float64, len(hits))
	for i, h := range hits {
		indices[i] = h.i
		sqDist[i] = h.d
	}
	return indices, sqDist
}

// indexedPoint is a kdtree.Comparable carrying the original buffer index
// alongside its coordinates so KNN can report indices into the source
// slice rather than coordinates.
type indexedPoint struct {
	coords [3]float64
	idx    int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.coords[d] - q.coords[d]
}

func (p indexedPoint) Dims() int { return 3 }

func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	dx := p.coords[0] - q.coords[0]
	dy := p.coords[1] - q.coords[1]
	dz := p.coords[2] - q.coords[2]
	return dx*dx + dy*dy + dz*dz
}

// indexedPoints implements kdtree.Interface over a slice of indexedPoint.
type indexedPoints []indexedPoint

func (s indexedPoints) Index(i int) kdtree.Comparable { return s[i] }
func (s indexedPoints) Len() int                      { return len(s) }
func (s indexedPoints) Slice(start, end int) kdtree.Interface {
	return s[start:end]
}

// Pivot partitions the slice by the median value along dimension d and
// returns the resulting pivot index, as required to build a balanced tree.
func (s indexedPoints) Pivot(d kdtree.Dim) int {
	sort.Sort(byDim{indexedPoints: s, dim: d})
	return len(s) / 2
}

type byDim struct {
	indexedPoints
	dim kdtree.Dim
}

func (b byDim) Less(i, j int) bool {
	return b.indexedPoints[i].coords[b.dim] < b.indexedPoints[j].coords[b.dim]
}
func (b byDim) Swap(i, j int) {
	b.indexedPoints[i], b.indexedPoints[j] = b.indexedPoints[j], b.indexedPoints[i]
}
