package odometry

import (
	"math"
	"testing"
)

func TestCalculatePoseNoPriorSweep(t *testing.T) {
	est := NewEstimator(DefaultConfig())
	if err := est.CalculatePose(); err != ErrNoPriorSweep {
		t.Fatalf("CalculatePose before any finished sweep = %v, want ErrNoPriorSweep", err)
	}
}

func TestCalculatePoseRejectsNonFiniteWithoutMutatingTransform(t *testing.T) {
	est := NewEstimator(DefaultConfig())
	est.haveLastSweep = true
	est.lastEdge = nil
	est.edgeIndex.Build(nil)
	est.edgePoints = []Point{{X: math.NaN(), Y: 0, Z: 0}}
	est.currentScanTime = 1.0
	est.currentSweepStart = 0
	est.scanSize = 10

	before := est.Transform()
	if err := est.CalculatePose(); err != ErrNonFinite {
		t.Fatalf("CalculatePose with a NaN edge point = %v, want ErrNonFinite", err)
	}
	if est.Transform() != before {
		t.Fatalf("transform mutated by a rejected non-finite update: %+v", est.Transform())
	}
}

func TestFinishSweepClearsCurrentBuffersAndPromotesPrior(t *testing.T) {
	est := NewEstimator(DefaultConfig())
	if err := est.AddScan(sawtoothScan(400, 0)); err != nil {
		t.Fatalf("AddScan returned error: %v", err)
	}

	edgeBefore := len(est.edgePoints)
	if edgeBefore == 0 {
		t.Fatalf("expected the first scan to produce at least one edge feature")
	}

	if err := est.FinishSweep(1.0); err != nil {
		t.Fatalf("FinishSweep returned error: %v", err)
	}

	if len(est.edgePoints) != 0 || len(est.surfacePoints) != 0 || len(est.extraPoints) != 0 {
		t.Fatalf("current buffers not cleared after FinishSweep: edge=%d surface=%d extra=%d",
			len(est.edgePoints), len(est.surfacePoints), len(est.extraPoints))
	}
	edge, _, _ := est.LastSweepFeatures()
	if len(edge) != edgeBefore {
		t.Fatalf("lastEdge length = %d, want %d (promoted from the finished sweep)", len(edge), edgeBefore)
	}
}

func TestFinishSweepIdentityTransformLeavesTransformSumUnchanged(t *testing.T) {
	est := NewEstimator(DefaultConfig())
	if err := est.AddScan(sawtoothScan(400, 0)); err != nil {
		t.Fatalf("AddScan returned error: %v", err)
	}
	if err := est.FinishSweep(1.0); err != nil {
		t.Fatalf("first FinishSweep returned error: %v", err)
	}
	if err := est.FinishSweep(2.0); err != nil {
		t.Fatalf("second FinishSweep returned error: %v", err)
	}
	if est.TransformSum() != (Pose6{}) {
		t.Fatalf("transformSum = %+v, want zero after sweeps with an identity transform", est.TransformSum())
	}
}

func offsetScan(scan PointCloud, dx, dy, dz float64) PointCloud {
	pts := make([]Point, len(scan.Points))
	for i, p := range scan.Points {
		pts[i] = Point{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz, T: p.T}
	}
	return PointCloud{Header: scan.Header, Points: pts}
}

func TestEstimatorRecoversKnownTranslationBetweenSweeps(t *testing.T) {
	cfg := DefaultConfig()
	est := NewEstimator(cfg)

	for _, us := range []int64{0, 10000, 20000, 30000} {
		if err := est.AddScan(sawtoothScan(100, us)); err != nil && err != ErrInsufficientCorrespondences {
			t.Fatalf("AddScan (sweep 1) returned error: %v", err)
		}
	}
	if err := est.FinishSweep(0.04); err != nil {
		t.Fatalf("FinishSweep returned error: %v", err)
	}

	for _, us := range []int64{40000, 50000, 60000, 70000} {
		scan := offsetScan(sawtoothScan(100, us), 0.1, 0, 0)
		if err := est.AddScan(scan); err != nil && err != ErrInsufficientCorrespondences {
			t.Fatalf("AddScan (sweep 2) returned error: %v", err)
		}
	}

	tr := est.Transform()
	if !tr.Finite() {
		t.Fatalf("transform went non-finite registering a translated sweep: %+v", tr)
	}
	if diff := math.Abs(tr.Tx - 0.1); diff > 0.01 {
		t.Fatalf("transform.Tx = %v, want within 0.01 of 0.1", tr.Tx)
	}
}

func TestEstimatorConvergesOnRepeatedSweepGeometry(t *testing.T) {
	cfg := DefaultConfig()
	est := NewEstimator(cfg)

	sweep := []int64{0, 10000, 20000, 30000}
	for _, us := range sweep {
		if err := est.AddScan(sawtoothScan(100, us)); err != nil && err != ErrInsufficientCorrespondences {
			t.Fatalf("AddScan (sweep 1) returned error: %v", err)
		}
	}
	if err := est.FinishSweep(0.04); err != nil {
		t.Fatalf("FinishSweep returned error: %v", err)
	}

	for _, us := range []int64{40000, 50000, 60000, 70000} {
		if err := est.AddScan(sawtoothScan(100, us)); err != nil && err != ErrInsufficientCorrespondences {
			t.Fatalf("AddScan (sweep 2) returned error: %v", err)
		}
	}

	tr := est.Transform()
	if !tr.Finite() {
		t.Fatalf("transform went non-finite registering identical sweep geometry: %+v", tr)
	}
	mag := math.Sqrt(tr.Tx*tr.Tx + tr.Ty*tr.Ty + tr.Tz*tr.Tz)
	if mag > 0.05 {
		t.Fatalf("translation magnitude = %v, want small for two identical sweeps", mag)
	}
}
