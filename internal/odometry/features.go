package odometry

import (
	"math"
	"sort"
)

// ExtractedFeatures holds the points an Extractor routed into each
// feature class for one scan. Points are copies from the input scan with
// T overwritten to the scan's timestamp.
type ExtractedFeatures struct {
	Edge    []Point
	Surface []Point
	Extra   []Point
}

// Extractor classifies points from one ordered scan line into edge,
// surface, and extra features, following LOAM Sec. V-A. It is pure with
// respect to motion state: it only ever reads a scan and returns features,
// never touching sweep buffers or the transform itself.
type Extractor struct {
	cfg     Config
	flagBuf []bool
}

// NewExtractor builds an Extractor for the given configuration.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

type curvatureSample struct {
	c   float64
	idx int
}

// Extract classifies the points of scan, stamping each selected feature's
// T field with currentScanTime. It returns ErrNonFinite without emitting
// any features if scan contains a non-finite coordinate.
func (e *Extractor) Extract(scan PointCloud, currentScanTime float64) (ExtractedFeatures, error) {
	pts := scan.Points
	n := len(pts)
	var out ExtractedFeatures

	for _, p := range pts {
		if !p.Finite() {
			return ExtractedFeatures{}, ErrNonFinite
		}
	}

	if n < 16 {
		return out, nil
	}

	flag := e.flags(n)
	distRel := e.cfg.distanceRelation()

	for i := 5; i < n-6; i++ {
		nextDX := pts[i+1].X - pts[i].X
		nextDY := pts[i+1].Y - pts[i].Y
		nextDZ := pts[i+1].Z - pts[i].Z
		nextSqDist := nextDX*nextDX + nextDY*nextDY + nextDZ*nextDZ

		depth1 := pts[i].Range()

		if nextSqDist > 0.05 {
			depth2 := pts[i+1].Range()
			if depth1 > depth2 {
				dx := pts[i+1].X - pts[i].X*depth2/depth1
				dy := pts[i+1].Y - pts[i].Y*depth2/depth1
				dz := pts[i+1].Z - pts[i].Z*depth2/depth1
				if math.Sqrt(dx*dx+dy*dy+dz*dz)/depth2 < 0.1 {
					for k := i - 5; k <= i; k++ {
						flag[k] = true
					}
				}
			} else {
				dx := pts[i+1].X*depth1/depth2 - pts[i].X
				dy := pts[i+1].Y*depth1/depth2 - pts[i].Y
				dz := pts[i+1].Z*depth1/depth2 - pts[i].Z
				if math.Sqrt(dx*dx+dy*dy+dz*dz)/depth1 < 0.1 {
					for k := i + 1; k <= i+6; k++ {
						flag[k] = true
					}
				}
			}
		}

		prevDX := pts[i].X - pts[i-1].X
		prevDY := pts[i].Y - pts[i-1].Y
		prevDZ := pts[i].Z - pts[i-1].Z
		prevSqDist := prevDX*prevDX + prevDY*prevDY + prevDZ*prevDZ

		if nextSqDist > distRel*depth1 && prevSqDist > distRel*depth1 {
			flag[i] = true
		}
	}

	sectionSize := (n - 10) / 4
	i := 5
	for section := 0; section < 4 && sectionSize > 0; section++ {
		samples := make([]curvatureSample, 0, sectionSize)
		for c := 0; c < sectionSize; c++ {
			samples = append(samples, curvatureSample{c: curvature(pts, i), idx: i})
			i++
		}
		sort.Slice(samples, func(a, b int) bool {
			if samples[a].c != samples[b].c {
				return samples[a].c < samples[b].c
			}
			return samples[a].idx < samples[b].idx
		})

		picked := 0
		for k := len(samples) - 1; k >= 0 && picked < 20; k-- {
			s := samples[k]
			if flag[s.idx] || s.c <= 0.1 {
				continue
			}
			picked++
			p := pts[s.idx]
			p.T = currentScanTime
			if picked <= 2 {
				out.Edge = append(out.Edge, p)
			} else {
				out.Extra = append(out.Extra, p)
			}
			flagNeighbors(pts, flag, s.idx)
		}

		surfacesPicked := 0
		for _, s := range samples {
			if flag[s.idx] || s.c >= 0.1 {
				continue
			}
			p := pts[s.idx]
			p.T = currentScanTime
			surfacesPicked++
			if surfacesPicked <= 4 {
				out.Surface = append(out.Surface, p)
			} else {
				out.Extra = append(out.Extra, p)
			}
			flagNeighbors(pts, flag, s.idx)
		}
	}

	return out, nil
}

// flags returns a reusable flag buffer of length n, cleared for reuse
// rather than the reference's per-scan stack allocation.
func (e *Extractor) flags(n int) []bool {
	if cap(e.flagBuf) < n {
		e.flagBuf = make([]bool, n)
	} else {
		e.flagBuf = e.flagBuf[:n]
		for i := range e.flagBuf {
			e.flagBuf[i] = false
		}
	}
	return e.flagBuf
}

// curvature computes the c-value of point i: the squared magnitude of the
// sum of the ten neighbor-offset vectors, with the central point weighted
// by -10 (LOAM Sec. V-A, eq. 1).
func curvature(pts []Point, i int) float64 {
	var sx, sy, sz float64
	for k := i - 5; k <= i+5; k++ {
		if k == i {
			continue
		}
		sx += pts[k].X
		sy += pts[k].Y
		sz += pts[k].Z
	}
	sx -= 10 * pts[i].X
	sy -= 10 * pts[i].Y
	sz -= 10 * pts[i].Z
	return sx*sx + sy*sy + sz*sz
}

// flagNeighbors marks every index within squared distance 0.2 of pts[idx]
// as no longer eligible for feature selection, so one strong feature
// suppresses the cluster of points immediately around it.
func flagNeighbors(pts []Point, flag []bool, idx int) {
	for k := idx - 5; k <= idx+5; k++ {
		if k < 0 || k >= len(pts) {
			continue
		}
		if pts[k].SqDist(pts[idx]) <= 0.2 {
			flag[k] = true
		}
	}
}
