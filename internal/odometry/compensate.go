package odometry

import "math"

// ShiftToStart re-expresses a point's coordinates as if it had been
// acquired at the sweep-start instant, given the current motion estimate.
// p.T must carry the point's acquisition time within the current sweep;
// sweepStart and scanTime are the current sweep's start time and the
// current scan's time. All three are seconds on one time base (the
// Estimator measures them from its first scan).
//
// The fractional sweep progress s = (p.T - sweepStart)/(scanTime -
// sweepStart) scales transform before its inverse is applied, decomposed
// Z-X-Y: un-rotate Z, then X, then Y, after subtracting the scaled
// translation.
func ShiftToStart(p Point, transform Pose6, sweepStart, scanTime float64) (Point, error) {
	if !p.Finite() || !transform.Finite() {
		return Point{}, ErrNonFinite
	}

	denom := scanTime - sweepStart
	var s float64
	if denom != 0 {
		s = (p.T - sweepStart) / denom
	}

	rx := s * transform.Rx
	ry := s * transform.Ry
	rz := s * transform.Rz
	tx := s * transform.Tx
	ty := s * transform.Ty
	tz := s * transform.Tz

	x1 := math.Cos(rz)*(p.X-tx) + math.Sin(rz)*(p.Y-ty)
	y1 := -math.Sin(rz)*(p.X-tx) + math.Cos(rz)*(p.Y-ty)
	z1 := p.Z - tz

	x2 := x1
	y2 := math.Cos(rx)*y1 + math.Sin(rx)*z1
	z2 := -math.Sin(rx)*y1 + math.Cos(rx)*z1

	out := Point{
		X: math.Cos(ry)*x2 - math.Sin(ry)*z2,
		Y: y2,
		Z: math.Sin(ry)*x2 + math.Cos(ry)*z2,
		T: p.T,
	}
	if !out.Finite() {
		return Point{}, ErrNonFinite
	}
	return out, nil
}
