package odometry

import "errors"

// Sentinel errors surfaced by the estimator. Each is checked with
// errors.Is so callers can branch on the failure kind without parsing
// message text.
var (
	// ErrInsufficientCorrespondences is returned when fewer than
	// Config.MinCorrespondences correspondences were found; the solver
	// declines to update the motion estimate for that iteration.
	ErrInsufficientCorrespondences = errors.New("odometry: insufficient correspondences for pose update")

	// ErrOutOfBoundUpdate is returned when a solved step exceeds the
	// per-axis damping bounds; the transform is left unmodified.
	ErrOutOfBoundUpdate = errors.New("odometry: solver update out of bounds")

	// ErrNonFinite is returned when a NaN or Inf value is detected in an
	// input point or an intermediate computation. The current AddScan
	// call is aborted; previously extracted features are retained so the
	// next scan can proceed.
	ErrNonFinite = errors.New("odometry: non-finite value detected")

	// ErrNoPriorSweep is returned by CalculatePose when no sweep has yet
	// completed; it is not a failure, just a no-op signal.
	ErrNoPriorSweep = errors.New("odometry: no prior sweep available")
)
