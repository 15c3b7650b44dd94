package odometry

// Estimator drives the scan-to-sweep registration lifecycle: accumulating
// scans into a sweep, extracting features per scan, finding correspondences
// against the previous sweep's features, refining the incremental motion
// with a damped Gauss-Newton solve, and folding the finished sweep's motion
// into a running global pose.
type Estimator struct {
	cfg       Config
	extractor *Extractor

	edgePoints    []Point
	surfacePoints []Point
	extraPoints   []Point

	lastEdge    []Point
	lastSurface []Point
	lastSweep   []Point

	edgeIndex    NearestNeighborIndex
	surfaceIndex NearestNeighborIndex

	transform    Pose6
	transformRec Pose6
	transformSum Pose6

	initialTime       float64
	haveInitialTime   bool
	currentScanTime   float64
	lastScanTime      float64
	currentSweepStart float64
	lastSweepStart    float64
	haveLastSweep     bool
	relativeSweepTime float64
	jacobianScale     float64

	scanSize int
}

// NewEstimator builds an Estimator with fresh k-d-tree indices and the
// given configuration.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{
		cfg:               cfg,
		extractor:         NewExtractor(cfg),
		edgeIndex:         &KDTreeIndex{},
		surfaceIndex:      &KDTreeIndex{},
		currentSweepStart: -1,
		lastSweepStart:    -1,
	}
}

// AddScan extracts features from one ordered scan and, once a prior sweep's
// features are available, folds its correspondences into the current
// sweep's motion estimate via CalculatePose. scan.Header.StampMicros is the
// scan's wall-clock acquisition time; the estimator measures it, in
// seconds, from the timestamp of the first scan it was given.
func (e *Estimator) AddScan(scan PointCloud) error {
	t := float64(scan.Header.StampMicros) / 1e6
	if !e.haveInitialTime {
		e.initialTime = t
		e.haveInitialTime = true
		e.currentSweepStart = 0
	}
	relTime := t - e.initialTime

	if e.scanSize == 0 {
		e.scanSize = len(scan.Points)
	}

	features, err := e.extractor.Extract(scan, relTime)
	if err != nil {
		return err
	}

	e.edgePoints = append(e.edgePoints, features.Edge...)
	e.surfacePoints = append(e.surfacePoints, features.Surface...)
	e.extraPoints = append(e.extraPoints, features.Extra...)

	e.lastScanTime = e.currentScanTime
	e.currentScanTime = relTime

	if e.haveLastSweep {
		lastSweepDuration := e.currentSweepStart - e.lastSweepStart
		s := 0.0
		if lastSweepDuration != 0 {
			s = (e.currentScanTime - e.currentSweepStart) / lastSweepDuration
		}
		e.relativeSweepTime = s

		// Constant-velocity prediction: seed this scan's incremental
		// transform with the fraction of the last sweep's motion elapsed
		// since the previous scan, before refining it below. The same
		// per-scan fraction is also the Jacobian's linearization scale.
		predS := 0.0
		if lastSweepDuration != 0 {
			predS = (e.currentScanTime - e.lastScanTime) / lastSweepDuration
		}
		e.jacobianScale = predS
		e.transform = e.transform.Add(e.transformRec.Scale(predS))
		if !e.transform.Finite() {
			return ErrNonFinite
		}

		if err := e.CalculatePose(); err != nil && err != ErrInsufficientCorrespondences {
			return err
		}
	}

	return nil
}

// CalculatePose runs the damped Gauss-Newton refinement loop against the
// previous sweep's features, up to Config.MaxIterations times or until
// convergence. It returns ErrNoPriorSweep if no sweep has completed yet,
// and ErrInsufficientCorrespondences if a usable set of correspondences
// never materializes.
func (e *Estimator) CalculatePose() error {
	if !e.haveLastSweep {
		return ErrNoPriorSweep
	}

	for iter := 0; iter < e.cfg.MaxIterations; iter++ {
		edgeCorrs, err := FindEdgeCorrespondences(
			e.edgePoints, e.transform, e.currentSweepStart, e.currentScanTime,
			e.lastEdge, e.edgeIndex, e.scanSize, e.cfg)
		if err != nil {
			return err
		}

		corrs := edgeCorrs
		if e.cfg.EnableSurfaceResiduals {
			surfCorrs, err := FindSurfaceCorrespondences(
				e.surfacePoints, e.transform, e.currentSweepStart, e.currentScanTime,
				e.lastSurface, e.surfaceIndex, e.scanSize, e.cfg)
			if err != nil {
				return err
			}
			corrs = append(corrs, surfCorrs...)
		}

		if len(corrs) < e.cfg.MinCorrespondences {
			if iter == 0 {
				return ErrInsufficientCorrespondences
			}
			return nil
		}

		// Correspondence points carry their original, un-shifted
		// coordinates (see FindEdgeCorrespondences), so the Jacobian scales
		// transform by jacobianScale, the same per-scan fraction used for
		// constant-velocity prediction; relativeSweepTime separately scales
		// only the residual term B_i.
		A, B := BuildLinearSystem(corrs, e.transform, e.jacobianScale, e.relativeSweepTime, e.cfg)

		update, converged, err := SolveStep(A, B, e.cfg)
		if err != nil {
			if err == ErrOutOfBoundUpdate {
				return nil
			}
			return err
		}

		e.transform = e.transform.Add(update)
		if !e.transform.Finite() {
			return ErrNonFinite
		}

		if converged {
			return nil
		}
	}

	return nil
}

// FinishSweep closes out the current sweep: it folds the sweep's final
// incremental transform into the running global pose, promotes the current
// feature buffers to become the "previous sweep" buffers the next sweep
// will register against, and resets per-sweep state. timestampSeconds is
// the wall-clock time (seconds) the new sweep begins; it becomes the next
// sweep's start time once measured from the first scan's timestamp.
func (e *Estimator) FinishSweep(timestampSeconds float64) error {
	if e.haveLastSweep {
		accumulated, err := AccumulateGlobalPose(e.transformSum, e.transform, e.cfg)
		if err != nil {
			return err
		}
		e.transformSum = accumulated
	}

	e.lastSweep = append(e.lastSweep[:0:0], e.edgePoints...)
	e.lastSweep = append(e.lastSweep, e.surfacePoints...)
	e.lastSweep = append(e.lastSweep, e.extraPoints...)

	e.lastEdge = append([]Point(nil), e.edgePoints...)
	e.lastSurface = append([]Point(nil), e.surfacePoints...)

	e.edgeIndex.Build(e.lastEdge)
	e.surfaceIndex.Build(e.lastSurface)

	e.edgePoints = nil
	e.surfacePoints = nil
	e.extraPoints = nil

	e.lastSweepStart = e.currentSweepStart
	e.currentSweepStart = timestampSeconds - e.initialTime

	e.transformRec = e.transform
	e.transform = Pose6{}

	e.haveLastSweep = true
	return nil
}

// LastSweepFeatures returns the edge, surface, and combined-scan points
// promoted by the most recently finished sweep.
func (e *Estimator) LastSweepFeatures() (edge, surface, sweep []Point) {
	return e.lastEdge, e.lastSurface, e.lastSweep
}

// Transform returns the current sweep's incremental motion estimate.
func (e *Estimator) Transform() Pose6 { return e.transform }

// TransformSum returns the accumulated global pose.
func (e *Estimator) TransformSum() Pose6 { return e.transformSum }

// PreviousTransform returns the incremental motion recorded by the most
// recently finished sweep, used as a forward prediction seed for the next
// sweep's solve.
func (e *Estimator) PreviousTransform() Pose6 { return e.transformRec }
