package odometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// BuildLinearSystem assembles the n x 6 Jacobian A and n x 1 residual B for
// one LM iteration from a set of correspondences, following the closed-form
// Z-X-Y intrinsic Euler derivatives of the rigid transform. s is the
// fraction of transform at which the rows are linearized (the Estimator
// passes the fraction of the last sweep's duration elapsed since the
// previous scan); relativeSweepTime scales the residual term.
func BuildLinearSystem(corrs []Correspondence, transform Pose6, s, relativeSweepTime float64, cfg Config) (*mat.Dense, *mat.Dense) {
	n := len(corrs)
	aData := make([]float64, n*6)
	bData := make([]float64, n)

	srx := math.Sin(s * transform.Rx)
	crx := math.Cos(s * transform.Rx)
	sry := math.Sin(s * transform.Ry)
	cry := math.Cos(s * transform.Ry)
	srz := math.Sin(s * transform.Rz)
	crz := math.Cos(s * transform.Rz)
	tx := s * transform.Tx
	ty := s * transform.Ty
	tz := s * transform.Tz

	for i, corr := range corrs {
		x, y, z := corr.Point.X, corr.Point.Y, corr.Point.Z
		cx, cy, cz := corr.Coeff[0], corr.Coeff[1], corr.Coeff[2]
		d2 := corr.Coeff[3]

		arx := (-s*crx*sry*srz*x+s*crx*crz*sry*y+s*srx*sry*z+
			s*tx*crx*sry*srz-s*ty*crx*crz*sry-s*tz*srx*sry)*cx +
			(s*srx*srz*x-s*crz*srx*y+s*crx*z+
				s*ty*crz*srx-s*tz*crx-s*tx*srx*srz)*cy +
			(s*crx*cry*srz*x-s*crx*cry*crz*y-s*cry*srx*z+
				s*tz*cry*srx+s*ty*crx*cry*crz-s*tx*crx*cry*srz)*cz

		ary := ((-s*crz*sry-s*cry*srx*srz)*x+
			(s*cry*crz*srx-s*sry*srz)*y-s*crx*cry*z+
			tx*(s*crz*sry+s*cry*srx*srz)+ty*(s*sry*srz-s*cry*crz*srx)+
			s*tz*crx*cry)*cx +
			((s*cry*crz-s*srx*sry*srz)*x+
				(s*cry*srz+s*crz*srx*sry)*y-s*crx*sry*z+
				s*tz*crx*sry-ty*(s*cry*srz+s*crz*srx*sry)-
				tx*(s*cry*crz-s*srx*sry*srz))*cz

		arz := ((-s*cry*srz-s*crz*srx*sry)*x+(s*cry*crz-s*srx*sry*srz)*y+
			tx*(s*cry*srz+s*crz*srx*sry)-ty*(s*cry*crz-s*srx*sry*srz))*cx +
			(-s*crx*crz*x-s*crx*srz*y+
				s*ty*crx*srz+s*tx*crx*crz)*cy +
			((s*cry*crz*srx-s*sry*srz)*x+(s*crz*sry+s*cry*srx*srz)*y+
				tx*(s*sry*srz-s*cry*crz*srx)-ty*(s*crz*sry+s*cry*srx*srz))*cz

		atx := -s*(cry*crz-srx*sry*srz)*cx + s*crx*srz*cy -
			s*(crz*sry+cry*srx*srz)*cz

		aty := -s*(cry*srz+crz*srx*sry)*cx - s*crx*crz*cy -
			s*(sry*srz-cry*crz*srx)*cz

		atz := s*crx*sry*cx - s*srx*cy - s*crx*cry*cz

		row := aData[i*6 : i*6+6]
		row[0], row[1], row[2] = arx, ary, arz
		row[3], row[4], row[5] = atx, aty, atz
		bData[i] = -cfg.ResidualScale * relativeSweepTime * d2
	}

	return mat.NewDense(n, 6, aData), mat.NewDense(n, 1, bData)
}

// SolveStep solves the normal equations (AtA)x = AtB through a singular
// value decomposition, taking the minimum-norm least-squares solution so
// that a rank-deficient system (for example one whose rotations are
// unobservable) still yields a step, and returns the damped update to
// apply to transform, whether this iteration converged, and an error if
// the step was rejected outright.
//
// A step is rejected with ErrOutOfBoundUpdate (and not applied) if any
// rotational component of x exceeds 0.005 rad or any translational
// component exceeds 0.01 m; otherwise the rotation is damped by
// Config.RotationDampingFactor and the translation applied undamped.
func SolveStep(A, B *mat.Dense, cfg Config) (update Pose6, converged bool, err error) {
	var AtA, AtB mat.Dense
	AtA.Mul(A.T(), A)
	AtB.Mul(A.T(), B)

	var svd mat.SVD
	if !svd.Factorize(&AtA, mat.SVDThin) {
		return Pose6{}, false, errors.New("odometry: SVD of the normal equations did not converge")
	}

	x := mat.NewDense(6, 1, nil)
	if rank := svd.Rank(1e-12); rank > 0 {
		svd.SolveTo(x, &AtB, rank)
	}

	var xs [6]float64
	for i := range xs {
		xs[i] = x.At(i, 0)
		if !isFinite(xs[i]) {
			return Pose6{}, false, ErrNonFinite
		}
	}

	if math.Abs(xs[0]) >= 0.005 || math.Abs(xs[1]) >= 0.005 || math.Abs(xs[2]) >= 0.005 ||
		math.Abs(xs[3]) >= 0.01 || math.Abs(xs[4]) >= 0.01 || math.Abs(xs[5]) >= 0.01 {
		return Pose6{}, false, ErrOutOfBoundUpdate
	}

	update = Pose6{
		Rx: cfg.RotationDampingFactor * xs[0],
		Ry: cfg.RotationDampingFactor * xs[1],
		Rz: cfg.RotationDampingFactor * xs[2],
		Tx: xs[3],
		Ty: xs[4],
		Tz: xs[5],
	}

	deltaR := math.Sqrt(sq(rad2deg(xs[0])) + sq(rad2deg(xs[1])) + sq(rad2deg(xs[2])))
	deltaT := math.Sqrt(sq(100*xs[3]) + sq(100*xs[4]) + sq(100*xs[5]))
	converged = deltaR < cfg.ConvergenceRotDeg && deltaT < cfg.ConvergenceTrans

	return update, converged, nil
}

func sq(v float64) float64 { return v * v }
