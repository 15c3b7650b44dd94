package synth

import "testing"

func TestLineSegmentSweepLengthAndStamp(t *testing.T) {
	cloud := LineSegmentSweep(200, 0, 0, 0, 5000)
	if len(cloud.Points) != 200 {
		t.Fatalf("len(Points) = %d, want 200", len(cloud.Points))
	}
	if cloud.Header.StampMicros != 5000 {
		t.Fatalf("StampMicros = %d, want 5000", cloud.Header.StampMicros)
	}
}

func TestLineSegmentSweepAppliesOffset(t *testing.T) {
	base := LineSegmentSweep(50, 0, 0, 0, 0)
	shifted := LineSegmentSweep(50, 0.1, 0, 0, 0)
	for i := range base.Points {
		if got, want := shifted.Points[i].X-base.Points[i].X, 0.1; !almostEqual(got, want) {
			t.Fatalf("point %d X offset = %v, want %v", i, got, want)
		}
	}
}

func TestPlanarPatchSweepHeight(t *testing.T) {
	cloud := PlanarPatchSweep(100, 2.0, 0, 0, 0, 0)
	for i, p := range cloud.Points {
		if p.Y != 2.0 {
			t.Fatalf("point %d Y = %v, want 2.0", i, p.Y)
		}
	}
}

func almostEqual(a, b float64) bool {
	const tol = 1e-9
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
