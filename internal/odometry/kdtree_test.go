package odometry

import "testing"

func TestKDTreeIndexKNNSingle(t *testing.T) {
	idx := &KDTreeIndex{}
	pts := []Point{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 5, Y: 0, Z: 0},
	}
	idx.Build(pts)

	indices, sqDist := idx.KNN(Point{X: 0.9, Y: 0, Z: 0}, 1)
	if len(indices) != 1 || indices[0] != 1 {
		t.Fatalf("KNN(k=1) indices = %v, want [1]", indices)
	}
	if !almostEqual(sqDist[0], 0.01, 1e-9) {
		t.Fatalf("KNN(k=1) sqDist = %v, want 0.01", sqDist[0])
	}
}

func TestKDTreeIndexKNNMultipleOrderedByDistance(t *testing.T) {
	idx := &KDTreeIndex{}
	pts := []Point{
		{X: 0, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 0},
		{X: 4, Y: 0, Z: 0},
		{X: 6, Y: 0, Z: 0},
	}
	idx.Build(pts)

	indices, sqDist := idx.KNN(Point{X: 3, Y: 0, Z: 0}, 2)
	if len(indices) != 2 {
		t.Fatalf("KNN(k=2) returned %d indices, want 2", len(indices))
	}
	if sqDist[0] > sqDist[1] {
		t.Fatalf("KNN results not ordered nearest-first: %v", sqDist)
	}
	if indices[0] != 1 && indices[0] != 2 {
		t.Fatalf("nearest index = %d, want 1 or 2", indices[0])
	}
}

func TestKDTreeIndexEmpty(t *testing.T) {
	idx := &KDTreeIndex{}
	idx.Build(nil)

	indices, sqDist := idx.KNN(Point{}, 1)
	if indices != nil || sqDist != nil {
		t.Fatalf("KNN on empty index = (%v, %v), want (nil, nil)", indices, sqDist)
	}
}

func TestKDTreeIndexRebuildReplacesPriorSnapshot(t *testing.T) {
	idx := &KDTreeIndex{}
	idx.Build([]Point{{X: 0, Y: 0, Z: 0}})
	idx.Build([]Point{{X: 10, Y: 10, Z: 10}})

	indices, _ := idx.KNN(Point{X: 10, Y: 10, Z: 10}, 1)
	if len(indices) != 1 || indices[0] != 0 {
		t.Fatalf("KNN after rebuild = %v, want [0] against the new point set", indices)
	}
}
