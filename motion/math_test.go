package motion

import "testing"

func TestLinearCrossing(t *testing.T) {
	v := Vector{Position: 0, Velocity: 1, Acceleration: 0, Timestamp: 0}
	m := QuadraticMath{}
	ts, ok, tangent := m.EarliestCrossing(v, 5, 0, 10)
	if !ok || tangent {
		t.Fatalf("expected a crossing, got ok=%v tangent=%v", ok, tangent)
	}
	if ts != 5 {
		t.Fatalf("expected ts=5, got %v", ts)
	}
}

func TestTangentTurningPoint(t *testing.T) {
	// p=0, v=0, a=1: velocity is zero only at t=0, where position is
	// also 0 — touching target 0 without crossing it (S6).
	v := Vector{Position: 0, Velocity: 0, Acceleration: 1, Timestamp: 0}
	m := QuadraticMath{}
	ts, ok, tangent := m.EarliestCrossing(v, 0, 0, 10)
	if !ok {
		t.Fatalf("expected a root at the turning point")
	}
	if !tangent {
		t.Fatalf("expected tangent=true for a zero-velocity touch")
	}
	if ts != 0 {
		t.Fatalf("expected ts=0, got %v", ts)
	}
}

func TestNoRootOutsideReach(t *testing.T) {
	v := Vector{Position: 0, Velocity: 1, Acceleration: -1, Timestamp: 0}
	m := QuadraticMath{}
	// Peak position is 0.5 (at t=1); target 100 is never reached.
	_, ok, _ := m.EarliestCrossing(v, 100, 0, 10)
	if ok {
		t.Fatalf("expected no crossing for an unreachable target")
	}
}

func TestPositionIntervalAccountsForReversal(t *testing.T) {
	v := Vector{Position: 0, Velocity: 2, Acceleration: -1, Timestamp: 0}
	m := QuadraticMath{}
	lo, hi := m.PositionInterval(v, 0, 4)
	// turning point at t=2, position 0 + 2*2 - 0.5*4 = 2 (the max);
	// endpoint positions: p(0)=0, p(4)=0+8-8=0.
	if hi != 2 {
		t.Fatalf("expected max position 2 accounting for the turning point, got %v", hi)
	}
	if lo != 0 {
		t.Fatalf("expected min position 0, got %v", lo)
	}
}

func TestRangeIntersectBounded(t *testing.T) {
	v := Vector{Position: 0, Velocity: 1, Acceleration: 0, Timestamp: 0}
	m := QuadraticMath{}
	tsEnter, tsLeave := m.RangeIntersect(v, Range{Low: -10, High: 10})
	if tsEnter != 0 {
		t.Fatalf("expected already-inside range to report tsEnter=t0, got %v", tsEnter)
	}
	if tsLeave != 10 {
		t.Fatalf("expected tsLeave=10 (crossing High at t=10), got %v", tsLeave)
	}
}
