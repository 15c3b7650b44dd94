package odometry

import "math"

// Correspondence pairs an original (un-compensated) feature point from the
// current sweep with a linearized residual coefficient against a geometric
// entity (line or plane) found in the previous sweep's features.
//
// Coeff holds (s*la, s*lb, s*lc, s*d): the robust-weighted partial
// derivatives of the residual with respect to the point's coordinates,
// followed by the weighted signed distance itself. The LM solver's
// Jacobian-row formulas are identical for edge (point-to-line) and
// surface (point-to-plane) correspondences; only how Coeff is derived
// differs.
type Correspondence struct {
	Point Point
	Coeff [4]float64
}

// FindEdgeCorrespondences locates, for each current-sweep edge point, a
// matching edge pair (j, l) in the previous sweep's edge features: j is
// the nearest neighbor after motion compensation, l is the nearest point
// in an adjacent scan line within a window around j.
func FindEdgeCorrespondences(edges []Point, transform Pose6, sweepStart, scanTime float64, lastEdge []Point, index NearestNeighborIndex, scanSize int, cfg Config) ([]Correspondence, error) {
	var out []Correspondence
	for _, p := range edges {
		shifted, err := ShiftToStart(p, transform, sweepStart, scanTime)
		if err != nil {
			return nil, err
		}

		idxs, sqDist := index.KNN(shifted, 1)
		if len(idxs) == 0 || sqDist[0] > cfg.EdgeMatchMaxSqDist {
			continue
		}
		j := idxs[0]
		timeJ := lastEdge[j].T

		begin := j - 2*scanSize
		if begin < 0 {
			begin = 0
		}
		end := j + 2*scanSize
		if end > len(lastEdge) {
			end = len(lastEdge)
		}

		l := -1
		minSqDist := cfg.EdgeMatchMaxSqDist
		for k := begin; k < end; k++ {
			dt := lastEdge[k].T - timeJ
			adjacent := (dt < -0.005 && dt > -0.07) || (dt > 0.005 && dt < 0.07)
			if !adjacent {
				continue
			}
			d := shifted.SqDist(lastEdge[k])
			if d < minSqDist {
				minSqDist = d
				l = k
			}
		}
		if l < 0 {
			continue
		}

		la, lb, lc, d, ok := pointToLine(shifted, lastEdge[j], lastEdge[l])
		if !ok {
			continue
		}

		sw := 2 * (1 - 8*math.Abs(d))
		if sw <= cfg.CorrespondenceRobustCutoff {
			continue
		}
		out = append(out, Correspondence{
			Point: p,
			Coeff: [4]float64{sw * la, sw * lb, sw * lc, sw * d},
		})
	}
	return out, nil
}

// pointToLine computes the perpendicular distance from p0 to the line
// through p1 and p2, along with the partial derivatives (la, lb, lc) of
// that distance with respect to p0's coordinates. ok is false if the two
// tripod points coincide. A p0 lying exactly on the line yields d = 0
// with zero derivatives, since the gradient direction is undefined there.
func pointToLine(p0, p1, p2 Point) (la, lb, lc, d float64, ok bool) {
	x0, y0, z0 := p0.X, p0.Y, p0.Z
	x1, y1, z1 := p1.X, p1.Y, p1.Z
	x2, y2, z2 := p2.X, p2.Y, p2.Z

	a := (x0-x1)*(y0-y2) - (x0-x2)*(y0-y1)
	b := (x0-x1)*(z0-z2) - (x0-x2)*(z0-z1)
	c := (y0-y1)*(z0-z2) - (y0-y2)*(z0-z1)
	a012 := math.Sqrt(a*a + b*b + c*c)

	l12 := math.Sqrt((x1-x2)*(x1-x2) + (y1-y2)*(y1-y2) + (z1-z2)*(z1-z2))
	if l12 == 0 {
		return 0, 0, 0, 0, false
	}
	if a012 == 0 {
		return 0, 0, 0, 0, true
	}

	la = ((y1-y2)*a + (z1-z2)*b) / a012 / l12
	lb = -((x1-x2)*a - (z1-z2)*c) / a012 / l12
	lc = -((x1-x2)*b + (y1-y2)*c) / a012 / l12
	d = a012 / l12

	if !isFinite(la) || !isFinite(lb) || !isFinite(lc) || !isFinite(d) {
		return 0, 0, 0, 0, false
	}
	return la, lb, lc, d, true
}

// FindSurfaceCorrespondences locates a point-to-plane correspondence for
// each current-sweep surface point against a plane fit through a triplet
// of previous-sweep surface points: the nearest neighbor j, a point l in
// the same scan line as j, and a point m in an adjacent scan line (LOAM
// Sec. V-B). This residual is gated behind Config.EnableSurfaceResiduals
// and defaults to off, matching an edge-only registration loop.
func FindSurfaceCorrespondences(surfaces []Point, transform Pose6, sweepStart, scanTime float64, lastSurface []Point, index NearestNeighborIndex, scanSize int, cfg Config) ([]Correspondence, error) {
	var out []Correspondence
	for _, p := range surfaces {
		shifted, err := ShiftToStart(p, transform, sweepStart, scanTime)
		if err != nil {
			return nil, err
		}

		idxs, sqDist := index.KNN(shifted, 1)
		if len(idxs) == 0 || sqDist[0] > cfg.EdgeMatchMaxSqDist {
			continue
		}
		j := idxs[0]
		timeJ := lastSurface[j].T

		begin := j - 2*scanSize
		if begin < 0 {
			begin = 0
		}
		end := j + 2*scanSize
		if end > len(lastSurface) {
			end = len(lastSurface)
		}

		l, m := -1, -1
		minSameLine, minAdjLine := cfg.EdgeMatchMaxSqDist, cfg.EdgeMatchMaxSqDist
		for k := begin; k < end; k++ {
			if k == j {
				continue
			}
			dt := lastSurface[k].T - timeJ
			d := shifted.SqDist(lastSurface[k])
			switch {
			case math.Abs(dt) < 0.005:
				if d < minSameLine {
					minSameLine, l = d, k
				}
			case math.Abs(dt) > 0.005 && math.Abs(dt) < 0.07:
				if d < minAdjLine {
					minAdjLine, m = d, k
				}
			}
		}
		if l < 0 || m < 0 {
			continue
		}

		pj, pl, pm := lastSurface[j], lastSurface[l], lastSurface[m]
		nx, ny, nz, d0, ok := planeFit(pj, pl, pm)
		if !ok {
			continue
		}

		pd2 := nx*shifted.X + ny*shifted.Y + nz*shifted.Z + d0
		rng := shifted.Range()
		if rng == 0 {
			continue
		}
		weight := 1 - 1.8*math.Abs(pd2)/math.Sqrt(rng)
		if weight <= cfg.CorrespondenceRobustCutoff {
			continue
		}
		out = append(out, Correspondence{
			Point: p,
			Coeff: [4]float64{weight * nx, weight * ny, weight * nz, weight * pd2},
		})
	}
	return out, nil
}

// planeFit returns the unit normal (nx, ny, nz) and offset d0 of the plane
// through p0, p1, p2, such that nx*x+ny*y+nz*z+d0 is the signed distance
// of (x,y,z) from the plane. ok is false for a degenerate (collinear)
// triplet.
func planeFit(p0, p1, p2 Point) (nx, ny, nz, d0 float64, ok bool) {
	ux, uy, uz := p1.X-p0.X, p1.Y-p0.Y, p1.Z-p0.Z
	vx, vy, vz := p2.X-p0.X, p2.Y-p0.Y, p2.Z-p0.Z

	nx = uy*vz - uz*vy
	ny = uz*vx - ux*vz
	nz = ux*vy - uy*vx
	norm := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if norm == 0 {
		return 0, 0, 0, 0, false
	}
	nx, ny, nz = nx/norm, ny/norm, nz/norm
	d0 = -(nx*p0.X + ny*p0.Y + nz*p0.Z)
	if !isFinite(nx) || !isFinite(ny) || !isFinite(nz) || !isFinite(d0) {
		return 0, 0, 0, 0, false
	}
	return nx, ny, nz, d0, true
}
