package motion

import "math"

// QuadraticMath is the reference MotionMath implementation: closed-form
// solutions to p(t) = p0 + v0·dt + 0.5·a·dt² for crossing times, turning
// points, and range exit times. Schedule depends only on the interface
// it declares for these operations; QuadraticMath is one implementation
// of it, not a required dependency.
type QuadraticMath struct{}

// solve returns the real roots dt of p0 + v0·dt + 0.5·a·dt² == target,
// ascending, plus whether the single root (n==1, a != 0 case) is a
// tangent (the motion touches target with zero velocity without
// crossing it).
func (QuadraticMath) solve(v Vector, target float64) (dt1, dt2 float64, n int, tangent bool) {
	c := v.Position - target
	if v.Acceleration == 0 {
		if v.Velocity == 0 {
			return 0, 0, 0, false
		}
		dt := -c / v.Velocity
		return dt, dt, 1, false
	}
	a := v.Acceleration
	disc := v.Velocity*v.Velocity - 2*a*c
	if disc < 0 {
		return 0, 0, 0, false
	}
	if disc == 0 {
		dt := -v.Velocity / a
		return dt, dt, 1, true
	}
	sq := math.Sqrt(disc)
	dt1 = (-v.Velocity - sq) / a
	dt2 = (-v.Velocity + sq) / a
	if dt1 > dt2 {
		dt1, dt2 = dt2, dt1
	}
	return dt1, dt2, 2, false
}

// EarliestCrossing returns the earliest absolute time within [low, high]
// at which v crosses target, and whether that crossing is a tangent
// (touches target at zero velocity without actually crossing it — the
// turning-point case). ok is false if no root falls within the window.
func (m QuadraticMath) EarliestCrossing(v Vector, target, low, high float64) (ts float64, ok bool, tangent bool) {
	dt1, dt2, n, tan := m.solve(v, target)
	if n == 0 {
		return 0, false, false
	}
	candidates := []float64{v.Timestamp + dt1}
	if n == 2 {
		candidates = append(candidates, v.Timestamp+dt2)
	}
	for _, t := range candidates {
		if t >= low && t <= high {
			return t, true, tan && n == 1
		}
	}
	return 0, false, false
}

// PositionInterval returns the closed range of positions v occupies over
// [low, high], accounting for a direction reversal at the turning point
// -v0/a when it falls inside the window.
func (m QuadraticMath) PositionInterval(v Vector, low, high float64) (lo, hi float64) {
	p1 := v.At(low).Position
	p2 := v.At(high).Position
	lo, hi = p1, p2
	if lo > hi {
		lo, hi = hi, lo
	}
	if v.Acceleration != 0 {
		tStar := v.Timestamp - v.Velocity/v.Acceleration
		if tStar >= low && tStar <= high {
			pStar := v.At(tStar).Position
			if pStar < lo {
				lo = pStar
			}
			if pStar > hi {
				hi = pStar
			}
		}
	}
	return lo, hi
}

// RangeIntersect returns the time the point last entered r (v.Timestamp
// if it is already inside r, +Inf if it is currently outside — this
// reference implementation does not project a future re-entry) and the
// earliest future time it leaves r (+Inf if it never does, within the
// reach of a quadratic: unbounded range, zero net motion, or asymptotic
// approach to a bound it never actually reaches).
func (m QuadraticMath) RangeIntersect(v Vector, r Range) (tsEnter, tsLeave float64) {
	if math.IsInf(r.Low, -1) && math.IsInf(r.High, 1) {
		return v.Timestamp, math.Inf(1)
	}
	tsEnter = v.Timestamp
	if !r.Covers(v.Position) {
		tsEnter = math.Inf(1)
	}
	tsLeave = math.Inf(1)
	for _, bound := range []float64{r.Low, r.High} {
		if math.IsInf(bound, 0) {
			continue
		}
		if ts, ok, tangent := m.earliestRootAfter(v, bound, v.Timestamp); ok && !tangent && ts < tsLeave {
			tsLeave = ts
		}
	}
	return tsEnter, tsLeave
}

// earliestRootAfter finds the earliest root strictly after `after`,
// with no upper bound on the search window.
func (m QuadraticMath) earliestRootAfter(v Vector, target, after float64) (ts float64, ok bool, tangent bool) {
	dt1, dt2, n, tan := m.solve(v, target)
	if n == 0 {
		return 0, false, false
	}
	candidates := []float64{v.Timestamp + dt1}
	if n == 2 {
		candidates = append(candidates, v.Timestamp+dt2)
	}
	for _, t := range candidates {
		if t > after {
			return t, true, tan && n == 1
		}
	}
	return 0, false, false
}
