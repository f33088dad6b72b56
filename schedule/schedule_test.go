package schedule

import (
	"testing"

	"github.com/neevany/timingsrc/bucket"
	"github.com/neevany/timingsrc/cue"
	"github.com/neevany/timingsrc/interval"
	"github.com/neevany/timingsrc/motion"
)

// fakeClock is a manually advanced Clock for deterministic tests.
type fakeClock struct{ now float64 }

func (c *fakeClock) Now() float64 { return c.now }

// fakeAxis stands in for an Axis, filtering a fixed set of cues by
// endpoint membership in the query interval exactly as a real bucket
// would.
type fakeAxis struct{ cues []*cue.Cue }

func (a *fakeAxis) GetCuePointsByInterval(query interval.Interval) []bucket.PointCue {
	var out []bucket.PointCue
	for _, c := range a.cues {
		iv := c.Interval
		if iv == nil {
			continue
		}
		low, high := iv.EndpointLow(), iv.EndpointHigh()
		if query.Inside(low) {
			out = append(out, bucket.PointCue{Point: iv.Low, Cue: c})
		}
		if !iv.Singular() && query.Inside(high) {
			out = append(out, bucket.PointCue{Point: iv.High, Cue: c})
		}
	}
	return out
}

func newTestCue(key string, point float64) *cue.Cue {
	v := interval.Singleton(point)
	return &cue.Cue{Key: key, Interval: &v}
}

// S5: a point moving at constant velocity 1 from p=0 with cues at {5}
// and {10} and lookahead 5 loads the first crossing at t=0 and the
// second only after the window advances past t=5.
func TestScheduleCrossing(t *testing.T) {
	axis := &fakeAxis{cues: []*cue.Cue{newTestCue("a", 5), newTestCue("b", 10)}}
	clock := &fakeClock{now: 0}
	var fired []DueEvent
	s := New(axis, clock, motion.QuadraticMath{}, motion.Unbounded(), WithLookahead(5))
	s.AddCallback(func(due []DueEvent, _ *Schedule) { fired = append(fired, due...) })

	s.SetVector(motion.Vector{Position: 0, Velocity: 1, Acceleration: 0, Timestamp: 0})

	if len(s.queue) != 1 || s.queue[0].Cue.Key != "a" {
		t.Fatalf("expected only cue a queued after first window, got %+v", s.queue)
	}
	if s.queue[0].Timestamp != 5 {
		t.Fatalf("expected ts=5, got %v", s.queue[0].Timestamp)
	}

	// Advance clock past t=5 and re-run the cycle (white-box: test lives
	// in-package, invoking the same unexported path the timer would).
	clock.now = 5.0001
	s.onTimer()

	if len(fired) != 1 || fired[0].Cue.Key != "a" {
		t.Fatalf("expected cue a to have fired by t=5+eps, got %+v", fired)
	}
	if len(s.queue) != 1 || s.queue[0].Cue.Key != "b" || s.queue[0].Timestamp != 10 {
		t.Fatalf("expected cue b queued for t=10 after window advance, got %+v", s.queue)
	}
}

// S6: motion that just touches a cue endpoint with zero velocity
// (turning point) must not fire an event for it.
func TestScheduleTangentSkipped(t *testing.T) {
	axis := &fakeAxis{cues: []*cue.Cue{newTestCue("x", 0)}}
	clock := &fakeClock{now: 0}
	var fired []DueEvent
	s := New(axis, clock, motion.QuadraticMath{}, motion.Unbounded(), WithLookahead(5))
	s.AddCallback(func(due []DueEvent, _ *Schedule) { fired = append(fired, due...) })

	s.SetVector(motion.Vector{Position: 0, Velocity: 0, Acceleration: 1, Timestamp: 0})

	if len(s.queue) != 0 {
		t.Fatalf("expected the tangent touch at the cue to be filtered out, got queue %+v", s.queue)
	}
	if len(fired) != 0 {
		t.Fatalf("expected no events fired for a tangent touch, got %+v", fired)
	}
}

// A stationary vector (zero velocity, zero acceleration) stays idle: no
// window is planned and no timer is armed.
func TestScheduleStationaryVectorStaysIdle(t *testing.T) {
	axis := &fakeAxis{cues: []*cue.Cue{newTestCue("a", 5)}}
	clock := &fakeClock{now: 0}
	s := New(axis, clock, motion.QuadraticMath{}, motion.Unbounded())

	s.SetVector(motion.Vector{Position: 0, Velocity: 0, Acceleration: 0, Timestamp: 0})

	if s.haveWindow {
		t.Fatalf("expected no window to be planned for a stationary vector")
	}
	if s.timerActive {
		t.Fatalf("expected no timer armed for a stationary vector")
	}
}

// RemoveCuesByInterval-style dynamic changes aside, a bounded Range
// stops loading crossings past the point the motion leaves the range.
func TestScheduleRangeBoundsCrossing(t *testing.T) {
	axis := &fakeAxis{cues: []*cue.Cue{newTestCue("a", 5), newTestCue("out", 8)}}
	clock := &fakeClock{now: 0}
	s := New(axis, clock, motion.QuadraticMath{}, motion.Range{Low: -100, High: 6}, WithLookahead(20))

	s.SetVector(motion.Vector{Position: 0, Velocity: 1, Acceleration: 0, Timestamp: 0})

	for _, ev := range s.queue {
		if ev.Cue.Key == "out" {
			t.Fatalf("expected cue beyond the range's exit point to be filtered, got %+v", s.queue)
		}
	}
}

func TestAddDelCallback(t *testing.T) {
	axis := &fakeAxis{}
	clock := &fakeClock{now: 0}
	s := New(axis, clock, motion.QuadraticMath{}, motion.Unbounded())
	calls := 0
	h := s.AddCallback(func(due []DueEvent, _ *Schedule) { calls++ })
	s.emit(nil)
	s.DelCallback(h)
	s.emit(nil)
	if calls != 1 {
		t.Fatalf("expected exactly one call before DelCallback, got %d", calls)
	}
}
