// Package motion provides the reference implementations of the
// collaborators Schedule consumes from the outside world: a Clock, a
// Range, and MotionMath (the closed-form solver for where and when a
// uniformly-accelerated point crosses a cue endpoint). None of these are
// required by schedule's exported API — they satisfy schedule's
// interfaces so the demo binary has a working instance out of the box,
// grounded on stdlib math only (no pack repo ships kinematics, so this
// package is stdlib-only by necessity — see DESIGN.md).
package motion

import (
	"math"
	"time"
)

// Vector is a motion state: position, velocity, acceleration, all
// evaluated as of Timestamp (seconds, same epoch as Clock.Now).
type Vector struct {
	Position     float64
	Velocity     float64
	Acceleration float64
	Timestamp    float64
}

// IsMoving reports whether v has nonzero velocity or acceleration.
func (v Vector) IsMoving() bool {
	return v.Velocity != 0 || v.Acceleration != 0
}

// At evaluates the position, velocity at time t (seconds, same epoch as
// v.Timestamp); t must be ≥ v.Timestamp for the result to be meaningful
// forward-projection (callers may also evaluate t < v.Timestamp, which
// is well-defined algebraically).
func (v Vector) At(t float64) Vector {
	dt := t - v.Timestamp
	return Vector{
		Position:     v.Position + v.Velocity*dt + 0.5*v.Acceleration*dt*dt,
		Velocity:     v.Velocity + v.Acceleration*dt,
		Acceleration: v.Acceleration,
		Timestamp:    t,
	}
}

// Clock is the monotonic time source schedule.Schedule consumes.
type Clock interface {
	Now() float64
}

// SystemClock implements Clock via time.Now, anchored at process start
// so Now() returns small, human-legible seconds rather than a Unix
// timestamp.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock anchored at the current instant (Now()
// returns 0 at construction and increases monotonically thereafter).
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// Range is the allowed position range of a timing object; either bound
// may be infinite.
type Range struct {
	Low  float64
	High float64
}

// Unbounded is the range [-inf, +inf].
func Unbounded() Range {
	return Range{Low: math.Inf(-1), High: math.Inf(1)}
}

// Covers reports whether p lies within the range, inclusive.
func (r Range) Covers(p float64) bool {
	return p >= r.Low && p <= r.High
}
