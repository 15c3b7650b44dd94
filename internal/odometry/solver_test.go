package odometry

import "testing"

func TestBuildLinearSystemZeroResidualForZeroCoeff(t *testing.T) {
	corrs := []Correspondence{
		{Point: Point{X: 1, Y: 2, Z: 3}, Coeff: [4]float64{0, 0, 0, 0}},
	}
	cfg := DefaultConfig()
	_, B := BuildLinearSystem(corrs, Pose6{}, 1.0, 1.0, cfg)
	if got := B.At(0, 0); got != 0 {
		t.Fatalf("residual for a zero-weight correspondence = %v, want 0", got)
	}
}

func TestBuildLinearSystemDimensions(t *testing.T) {
	corrs := make([]Correspondence, 5)
	for i := range corrs {
		corrs[i] = Correspondence{Point: Point{X: 1, Y: 1, Z: 1}, Coeff: [4]float64{0.1, 0.2, 0.3, 0.05}}
	}
	A, B := BuildLinearSystem(corrs, Pose6{Rx: 0.01, Ry: 0.01, Rz: 0.01, Tx: 0.01, Ty: 0, Tz: 0}, 1.0, 1.0, DefaultConfig())

	r, c := A.Dims()
	if r != 5 || c != 6 {
		t.Fatalf("A.Dims() = (%d, %d), want (5, 6)", r, c)
	}
	br, bc := B.Dims()
	if br != 5 || bc != 1 {
		t.Fatalf("B.Dims() = (%d, %d), want (5, 1)", br, bc)
	}
}

func TestSolveStepRejectsOutOfBoundUpdate(t *testing.T) {
	cfg := DefaultConfig()
	corrs := []Correspondence{
		{Point: Point{X: 1, Y: 0, Z: 0}, Coeff: [4]float64{1, 0, 0, 5}},
		{Point: Point{X: 0, Y: 1, Z: 0}, Coeff: [4]float64{0, 1, 0, 5}},
		{Point: Point{X: 0, Y: 0, Z: 1}, Coeff: [4]float64{0, 0, 1, 5}},
		{Point: Point{X: 1, Y: 1, Z: 0}, Coeff: [4]float64{1, 1, 0, 5}},
		{Point: Point{X: 0, Y: 1, Z: 1}, Coeff: [4]float64{0, 1, 1, 5}},
		{Point: Point{X: 1, Y: 0, Z: 1}, Coeff: [4]float64{1, 0, 1, 5}},
	}
	A, B := BuildLinearSystem(corrs, Pose6{}, 1.0, 1.0, cfg)

	_, _, err := SolveStep(A, B, cfg)
	if err != ErrOutOfBoundUpdate {
		t.Fatalf("SolveStep error = %v, want ErrOutOfBoundUpdate for a large residual set", err)
	}
}

func TestSolveStepConvergesForTinyResidual(t *testing.T) {
	cfg := DefaultConfig()
	corrs := []Correspondence{
		{Point: Point{X: 1, Y: 0, Z: 0}, Coeff: [4]float64{1, 0, 0, 1e-6}},
		{Point: Point{X: 0, Y: 1, Z: 0}, Coeff: [4]float64{0, 1, 0, 1e-6}},
		{Point: Point{X: 0, Y: 0, Z: 1}, Coeff: [4]float64{0, 0, 1, 1e-6}},
		{Point: Point{X: 1, Y: 1, Z: 0}, Coeff: [4]float64{1, 1, 0, 1e-6}},
		{Point: Point{X: 0, Y: 1, Z: 1}, Coeff: [4]float64{0, 1, 1, 1e-6}},
		{Point: Point{X: 1, Y: 0, Z: 1}, Coeff: [4]float64{1, 0, 1, 1e-6}},
	}
	A, B := BuildLinearSystem(corrs, Pose6{}, 1.0, 1.0, cfg)

	update, converged, err := SolveStep(A, B, cfg)
	if err != nil {
		t.Fatalf("SolveStep returned error: %v", err)
	}
	if !converged {
		t.Fatalf("expected convergence for a near-zero residual system, update = %+v", update)
	}
}
