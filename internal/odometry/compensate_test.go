package odometry

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestShiftToStartIdentityAtSweepStart(t *testing.T) {
	transform := Pose6{Rx: 0.05, Ry: 0.02, Rz: -0.03, Tx: 0.1, Ty: 0.02, Tz: -0.01}
	p := Point{X: 1.5, Y: -0.3, Z: 4.2, T: 0}

	out, err := ShiftToStart(p, transform, 0, 1)
	if err != nil {
		t.Fatalf("ShiftToStart returned error: %v", err)
	}
	if !almostEqual(out.X, p.X, 1e-12) || !almostEqual(out.Y, p.Y, 1e-12) || !almostEqual(out.Z, p.Z, 1e-12) {
		t.Fatalf("ShiftToStart at s=0 = %+v, want unchanged %+v", out, p)
	}
}

func TestShiftToStartFullFractionAppliesInverse(t *testing.T) {
	transform := Pose6{Rz: 0.1, Tx: 0.2}
	p := Point{X: 1, Y: 0, Z: 0, T: 1}

	out, err := ShiftToStart(p, transform, 0, 1)
	if err != nil {
		t.Fatalf("ShiftToStart returned error: %v", err)
	}

	wantX := math.Cos(0.1)*(p.X-0.2) + math.Sin(0.1)*p.Y
	wantY := -math.Sin(0.1)*(p.X-0.2) + math.Cos(0.1)*p.Y
	if !almostEqual(out.X, wantX, 1e-9) || !almostEqual(out.Y, wantY, 1e-9) || !almostEqual(out.Z, p.Z, 1e-9) {
		t.Fatalf("ShiftToStart at s=1 = %+v, want (%v, %v, %v)", out, wantX, wantY, p.Z)
	}
}

func TestShiftToStartRejectsNonFinite(t *testing.T) {
	p := Point{X: math.NaN()}
	if _, err := ShiftToStart(p, Pose6{}, 0, 1); err != ErrNonFinite {
		t.Fatalf("ShiftToStart error = %v, want ErrNonFinite", err)
	}
}

func TestShiftToStartZeroDenomFallsBackToZeroFraction(t *testing.T) {
	transform := Pose6{Rz: 0.3, Tx: 5}
	p := Point{X: 1, Y: 2, Z: 3, T: 10}

	out, err := ShiftToStart(p, transform, 10, 10)
	if err != nil {
		t.Fatalf("ShiftToStart returned error: %v", err)
	}
	if !almostEqual(out.X, p.X, 1e-12) || !almostEqual(out.Y, p.Y, 1e-12) || !almostEqual(out.Z, p.Z, 1e-12) {
		t.Fatalf("ShiftToStart with zero-length denom = %+v, want unchanged %+v", out, p)
	}
}
