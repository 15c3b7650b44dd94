// Package odometry implements scan-to-sweep LiDAR odometry following the
// LOAM (Lidar Odometry and Mapping) feature-based registration approach:
// per-scan edge/surface feature extraction, motion compensation within a
// sweep, correspondence search against the previous sweep, and damped
// Gauss-Newton refinement of the inter-sweep rigid motion.
package odometry

import "math"

// Header carries the origin timestamp and an opaque frame identifier for a
// PointCloud, mirroring a ROS-style message header without depending on a
// messaging layer.
type Header struct {
	StampMicros int64
	FrameID     string
}

// Point is a single 3D LiDAR return. T carries the point's acquisition
// timestamp in seconds, on the same time base as the sweep start times it
// is compared with (the Estimator measures both from its first scan). Unlike the
// LOAM reference, which overloads the point's intensity channel for this,
// T is a dedicated field: the role is structural, not cosmetic.
type Point struct {
	X, Y, Z float64
	T       float64
}

// SqDist returns the squared Euclidean distance between two points.
func (p Point) SqDist(q Point) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return dx*dx + dy*dy + dz*dz
}

// Range returns the point's distance from the sensor origin.
func (p Point) Range() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Finite reports whether all of a point's coordinates are finite.
func (p Point) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Z) && isFinite(p.T)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PointCloud is an ordered sequence of points produced by one scan line.
// Order is significant: for scans coming directly from the sensor, index
// position is a proxy for acquisition time and for scan-line adjacency.
type PointCloud struct {
	Header Header
	Points []Point
}

// Pose6 is a six-degree-of-freedom pose delta: an intrinsic Euler rotation
// triplet (Rx, Ry, Rz) followed by a translation (Tx, Ty, Tz). It is used
// for the per-sweep incremental transform, its predictor, and the
// accumulated global pose.
type Pose6 struct {
	Rx, Ry, Rz float64
	Tx, Ty, Tz float64
}

// Scale multiplies every component of the pose by s, used to take a
// fractional slice of a motion estimate across a partial scan or sweep.
func (p Pose6) Scale(s float64) Pose6 {
	return Pose6{
		Rx: p.Rx * s, Ry: p.Ry * s, Rz: p.Rz * s,
		Tx: p.Tx * s, Ty: p.Ty * s, Tz: p.Tz * s,
	}
}

// Add returns the component-wise sum of two poses.
func (p Pose6) Add(q Pose6) Pose6 {
	return Pose6{
		Rx: p.Rx + q.Rx, Ry: p.Ry + q.Ry, Rz: p.Rz + q.Rz,
		Tx: p.Tx + q.Tx, Ty: p.Ty + q.Ty, Tz: p.Tz + q.Tz,
	}
}

// Finite reports whether every component of the pose is a finite number.
func (p Pose6) Finite() bool {
	return isFinite(p.Rx) && isFinite(p.Ry) && isFinite(p.Rz) &&
		isFinite(p.Tx) && isFinite(p.Ty) && isFinite(p.Tz)
}

// Array returns the pose as the [6]float64 layout used by the linear
// solver: (rx, ry, rz, tx, ty, tz).
func (p Pose6) Array() [6]float64 {
	return [6]float64{p.Rx, p.Ry, p.Rz, p.Tx, p.Ty, p.Tz}
}

// PoseFromArray builds a Pose6 from the solver's [6]float64 layout.
func PoseFromArray(a [6]float64) Pose6 {
	return Pose6{Rx: a[0], Ry: a[1], Rz: a[2], Tx: a[3], Ty: a[4], Tz: a[5]}
}
