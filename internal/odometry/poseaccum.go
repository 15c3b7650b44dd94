package odometry

import "math"

// AccumulateGlobalPose composes a sweep's finalized incremental transform
// into the running global pose, following the reference's Z-X-Y rotation
// composition. cfg.OrientationCalibrationFactor is the
// reference's MAGIC_PARAM, applied to the incremental Y-rotation and
// Z-translation components for parity; it defaults to 1.0 and is a no-op
// at that value. A zero transform returns sum unchanged.
func AccumulateGlobalPose(sum, transform Pose6, cfg Config) (Pose6, error) {
	if transform == (Pose6{}) {
		return sum, nil
	}

	cx, cy, cz := sum.Rx, sum.Ry, sum.Rz
	lx := -transform.Rx
	ly := -transform.Ry * cfg.OrientationCalibrationFactor
	lz := -transform.Rz

	srx := math.Cos(lx)*math.Cos(cx)*math.Sin(ly)*math.Sin(cz) -
		math.Cos(cx)*math.Cos(cz)*math.Sin(lx) -
		math.Cos(lx)*math.Cos(ly)*math.Sin(cx)
	rx := -math.Asin(srx)
	cosRx := math.Cos(rx)

	srycrx := math.Sin(lx)*(math.Cos(cy)*math.Sin(cz)-math.Cos(cz)*math.Sin(cx)*math.Sin(cy)) +
		math.Cos(lx)*math.Sin(ly)*(math.Cos(cy)*math.Cos(cz)+math.Sin(cx)*math.Sin(cy)*math.Sin(cz)) +
		math.Cos(lx)*math.Cos(ly)*math.Cos(cx)*math.Sin(cy)
	crycrx := math.Cos(lx)*math.Cos(ly)*math.Cos(cx)*math.Cos(cy) -
		math.Cos(lx)*math.Sin(ly)*(math.Cos(cz)*math.Sin(cy)-math.Cos(cy)*math.Sin(cx)*math.Sin(cz)) -
		math.Sin(lx)*(math.Sin(cy)*math.Sin(cz)+math.Cos(cy)*math.Cos(cz)*math.Sin(cx))
	ry := math.Atan2(srycrx/cosRx, crycrx/cosRx)

	srzcrx := math.Sin(cx)*(math.Cos(lz)*math.Sin(ly)-math.Cos(ly)*math.Sin(lx)*math.Sin(lz)) +
		math.Cos(cx)*math.Sin(cz)*(math.Cos(ly)*math.Cos(lz)+math.Sin(lx)*math.Sin(ly)*math.Sin(lz)) +
		math.Cos(lx)*math.Cos(cx)*math.Cos(cz)*math.Sin(lz)
	crzcrx := math.Cos(lx)*math.Cos(lz)*math.Cos(cx)*math.Cos(cz) -
		math.Cos(cx)*math.Sin(cz)*(math.Cos(ly)*math.Sin(lz)-math.Cos(lz)*math.Sin(lx)*math.Sin(ly)) -
		math.Sin(cx)*(math.Sin(ly)*math.Sin(lz)+math.Cos(ly)*math.Cos(lz)*math.Sin(lx))
	rz := math.Atan2(srzcrx/cosRx, crzcrx/cosRx)

	x1 := math.Cos(rz)*transform.Tx - math.Sin(rz)*transform.Ty
	y1 := math.Sin(rz)*transform.Tx + math.Cos(rz)*transform.Ty
	z1 := transform.Tz * cfg.OrientationCalibrationFactor

	x2 := x1
	y2 := math.Cos(rx)*y1 - math.Sin(rx)*z1
	z2 := math.Sin(rx)*y1 + math.Cos(rx)*z1

	out := Pose6{
		Rx: rx,
		Ry: ry,
		Rz: rz,
		Tx: sum.Tx - (math.Cos(ry)*x2 + math.Sin(ry)*z2),
		Ty: sum.Ty - y2,
		Tz: sum.Tz - (-math.Sin(ry)*x2 + math.Cos(ry)*z2),
	}
	if !out.Finite() {
		return sum, ErrNonFinite
	}
	return out, nil
}
