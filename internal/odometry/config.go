package odometry

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Config holds the tunable options recognized by the estimator: a plain
// struct with a constructor of sane defaults and a Validate method,
// rather than a package of free-floating constants.
type Config struct {
	// MaxSurfaceAngleDeg is the maximum admissible surface incidence angle,
	// used with LaserAngleDeg to derive the parallel-ray rejection
	// coefficient via the law of sines.
	MaxSurfaceAngleDeg float64 `json:"max_surface_angle_deg"`
	// LaserAngleDeg is the laser's angular resolution between scan lines.
	LaserAngleDeg float64 `json:"laser_angle_deg"`
	// MaxIterations bounds the LM driver loop per calculatePose call.
	MaxIterations int `json:"max_iterations"`
	// RotationDampingFactor damps the rotational component of each solver
	// step before it is applied to the transform.
	RotationDampingFactor float64 `json:"rotation_damping_factor"`
	// ConvergenceRotDeg and ConvergenceTrans are the per-iteration
	// convergence thresholds (degrees and centimeters respectively, after
	// the solver step's own internal scaling).
	ConvergenceRotDeg float64 `json:"convergence_rot_deg"`
	ConvergenceTrans  float64 `json:"convergence_trans"`
	// MinCorrespondences is the minimum correspondence count required for
	// the solver to attempt an update.
	MinCorrespondences int `json:"min_correspondences"`
	// CorrespondenceRobustCutoff is the minimum robust weight s for a
	// correspondence to be kept.
	CorrespondenceRobustCutoff float64 `json:"correspondence_robust_cutoff"`
	// EdgeMatchMaxSqDist bounds the squared distance accepted for the
	// initial nearest-neighbor edge match.
	EdgeMatchMaxSqDist float64 `json:"edge_match_max_sq_dist"`
	// ResidualScale scales the residual term B_i = -ResidualScale *
	// relativeSweepTime * d_i.
	ResidualScale float64 `json:"residual_scale"`
	// OrientationCalibrationFactor is an empirical calibration factor for
	// sensor mount orientation, applied to the Y-rotation and Z-translation
	// components during global pose accumulation. 1.0 is a no-op.
	OrientationCalibrationFactor float64 `json:"orientation_calibration_factor"`
	// EnableSurfaceResiduals turns on the point-to-plane surface
	// correspondence residual (LOAM Sec. V-B). Defaults to false, for an
	// edge-only registration loop.
	EnableSurfaceResiduals bool `json:"enable_surface_residuals"`
}

// DefaultConfig returns the estimator's recognized defaults.
func DefaultConfig() Config {
	return Config{
		MaxSurfaceAngleDeg:           20,
		LaserAngleDeg:                0.25,
		MaxIterations:                50,
		RotationDampingFactor:        0.1,
		ConvergenceRotDeg:            0.02,
		ConvergenceTrans:             0.02,
		MinCorrespondences:           10,
		CorrespondenceRobustCutoff:   0.4,
		EdgeMatchMaxSqDist:           1.0,
		ResidualScale:                0.015,
		OrientationCalibrationFactor: 1.0,
		EnableSurfaceResiduals:       false,
	}
}

// Validate reports an error for the first checked field of c that holds an
// unusable value. CorrespondenceRobustCutoff and
// OrientationCalibrationFactor are not checked.
func (c Config) Validate() error {
	if c.MaxSurfaceAngleDeg <= 0 || c.MaxSurfaceAngleDeg >= 90 {
		return fmt.Errorf("odometry: MaxSurfaceAngleDeg must be in (0, 90), got %v", c.MaxSurfaceAngleDeg)
	}
	if c.LaserAngleDeg <= 0 {
		return fmt.Errorf("odometry: LaserAngleDeg must be positive, got %v", c.LaserAngleDeg)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("odometry: MaxIterations must be positive, got %v", c.MaxIterations)
	}
	if c.RotationDampingFactor <= 0 || c.RotationDampingFactor > 1 {
		return fmt.Errorf("odometry: RotationDampingFactor must be in (0, 1], got %v", c.RotationDampingFactor)
	}
	if c.ConvergenceRotDeg <= 0 || c.ConvergenceTrans <= 0 {
		return fmt.Errorf("odometry: convergence thresholds must be positive")
	}
	if c.MinCorrespondences <= 0 {
		return fmt.Errorf("odometry: MinCorrespondences must be positive, got %v", c.MinCorrespondences)
	}
	if c.EdgeMatchMaxSqDist <= 0 {
		return fmt.Errorf("odometry: EdgeMatchMaxSqDist must be positive, got %v", c.EdgeMatchMaxSqDist)
	}
	if c.ResidualScale <= 0 {
		return fmt.Errorf("odometry: ResidualScale must be positive, got %v", c.ResidualScale)
	}
	return nil
}

// overrideConfig mirrors Config with pointer fields so a JSON document can
// specify a subset of options; fields it omits retain DefaultConfig's
// values.
type overrideConfig struct {
	MaxSurfaceAngleDeg           *float64 `json:"max_surface_angle_deg,omitempty"`
	LaserAngleDeg                *float64 `json:"laser_angle_deg,omitempty"`
	MaxIterations                *int     `json:"max_iterations,omitempty"`
	RotationDampingFactor        *float64 `json:"rotation_damping_factor,omitempty"`
	ConvergenceRotDeg            *float64 `json:"convergence_rot_deg,omitempty"`
	ConvergenceTrans             *float64 `json:"convergence_trans,omitempty"`
	MinCorrespondences           *int     `json:"min_correspondences,omitempty"`
	CorrespondenceRobustCutoff   *float64 `json:"correspondence_robust_cutoff,omitempty"`
	EdgeMatchMaxSqDist           *float64 `json:"edge_match_max_sq_dist,omitempty"`
	ResidualScale                *float64 `json:"residual_scale,omitempty"`
	OrientationCalibrationFactor *float64 `json:"orientation_calibration_factor,omitempty"`
	EnableSurfaceResiduals       *bool    `json:"enable_surface_residuals,omitempty"`
}

// LoadConfig reads a JSON document at path and applies it over
// DefaultConfig, so a partial file only needs to name the fields it wants
// to change. The resulting configuration is validated before it is
// returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".json" {
		return Config{}, fmt.Errorf("odometry: config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return Config{}, fmt.Errorf("odometry: read config file: %w", err)
	}

	var ov overrideConfig
	if err := json.Unmarshal(data, &ov); err != nil {
		return Config{}, fmt.Errorf("odometry: parse config JSON: %w", err)
	}
	applyOverride(&cfg, ov)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("odometry: invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyOverride(cfg *Config, ov overrideConfig) {
	if ov.MaxSurfaceAngleDeg != nil {
		cfg.MaxSurfaceAngleDeg = *ov.MaxSurfaceAngleDeg
	}
	if ov.LaserAngleDeg != nil {
		cfg.LaserAngleDeg = *ov.LaserAngleDeg
	}
	if ov.MaxIterations != nil {
		cfg.MaxIterations = *ov.MaxIterations
	}
	if ov.RotationDampingFactor != nil {
		cfg.RotationDampingFactor = *ov.RotationDampingFactor
	}
	if ov.ConvergenceRotDeg != nil {
		cfg.ConvergenceRotDeg = *ov.ConvergenceRotDeg
	}
	if ov.ConvergenceTrans != nil {
		cfg.ConvergenceTrans = *ov.ConvergenceTrans
	}
	if ov.MinCorrespondences != nil {
		cfg.MinCorrespondences = *ov.MinCorrespondences
	}
	if ov.CorrespondenceRobustCutoff != nil {
		cfg.CorrespondenceRobustCutoff = *ov.CorrespondenceRobustCutoff
	}
	if ov.EdgeMatchMaxSqDist != nil {
		cfg.EdgeMatchMaxSqDist = *ov.EdgeMatchMaxSqDist
	}
	if ov.ResidualScale != nil {
		cfg.ResidualScale = *ov.ResidualScale
	}
	if ov.OrientationCalibrationFactor != nil {
		cfg.OrientationCalibrationFactor = *ov.OrientationCalibrationFactor
	}
	if ov.EnableSurfaceResiduals != nil {
		cfg.EnableSurfaceResiduals = *ov.EnableSurfaceResiduals
	}
}

// distanceRelation derives the parallel-ray rejection coefficient
// (sin(laser angle) / sin(max surface angle))^2 via the law of sines.
func (c Config) distanceRelation() float64 {
	sinLaser := math.Sin(deg2rad(c.LaserAngleDeg))
	sinSurface := math.Sin(deg2rad(c.MaxSurfaceAngleDeg))
	return (sinLaser * sinLaser) / (sinSurface * sinSurface)
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }
func rad2deg(r float64) float64 { return r * 180.0 / math.Pi }
