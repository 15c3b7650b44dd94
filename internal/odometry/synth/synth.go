// Package synth generates deterministic synthetic point clouds used to
// drive the estimator without a live sensor, as the replay CLI's
// -synthetic mode does.
package synth

import (
	"github.com/banshee-data/lidar-odometry/internal/odometry"
)

// LineSegmentSweep generates n points along a line segment in the X-Z
// plane at 30 m range, with every 17th point raised by 4 cm, offset by
// (dx, dy, dz) and stamped at stampMicros. The raised points give the
// feature extractor enough curvature to select edge features, unlike a
// perfectly straight, uniformly-spaced line (whose c-value is identically
// zero), while every step stays below the extractor's occlusion and
// parallel-ray rejection thresholds.
func LineSegmentSweep(n int, dx, dy, dz float64, stampMicros int64) odometry.PointCloud {
	pts := make([]odometry.Point, n)
	for i := 0; i < n; i++ {
		x := float64(i)*0.05 + dx
		z := 30.0 + dz
		if i%17 == 1 {
			z += 0.04
		}
		pts[i] = odometry.Point{X: x, Y: dy, Z: z}
	}
	return odometry.PointCloud{
		Header: odometry.Header{StampMicros: stampMicros, FrameID: "synth-line"},
		Points: pts,
	}
}

// PlanarPatchSweep generates n points spaced 3 cm apart along X on the
// flat Y=height plane at Z=5, offset by (dx, dy, dz) and stamped at
// stampMicros. Zero curvature along the patch makes most points eligible
// as surface features.
func PlanarPatchSweep(n int, height, dx, dy, dz float64, stampMicros int64) odometry.PointCloud {
	pts := make([]odometry.Point, n)
	for i := 0; i < n; i++ {
		x := float64(i)*0.03 + dx
		y := height + dy
		z := 5.0 + dz
		pts[i] = odometry.Point{X: x, Y: y, Z: z}
	}
	return odometry.PointCloud{
		Header: odometry.Header{StampMicros: stampMicros, FrameID: "synth-plane"},
		Points: pts,
	}
}
