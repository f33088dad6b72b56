// Package schedule implements Schedule: a rolling look-ahead real-time
// event generator. It holds a motion vector and a reference to an Axis,
// advances a time window, loads the cue endpoints the motion will cross
// within it, and fires callbacks at the exact crossing instants.
// Structured after a timer-driven run-loop shape (stop/reset/re-arm
// around a single armed timer) and an ordered-queue bookkeeping pattern,
// adapted from a min-heap to a sorted slice since a look-ahead window
// holds a small, bounded number of pending events and gets rebuilt
// wholesale on every advance.
package schedule

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/neevany/timingsrc/bucket"
	"github.com/neevany/timingsrc/internal/eventslab"
	"github.com/neevany/timingsrc/interval"
	"github.com/neevany/timingsrc/motion"
)

const defaultLookahead = 5.0

// Clock is the monotonic time source Schedule consumes.
type Clock interface {
	Now() float64
}

// MotionMath is the closed-form solver Schedule consumes to plan
// crossings; motion.QuadraticMath is the reference implementation.
type MotionMath interface {
	PositionInterval(v motion.Vector, low, high float64) (lo, hi float64)
	EarliestCrossing(v motion.Vector, target, low, high float64) (ts float64, ok bool, tangent bool)
	RangeIntersect(v motion.Vector, r motion.Range) (tsEnter, tsLeave float64)
}

// AxisSource is the subset of Axis that Schedule queries. Declaring it
// here (rather than importing *axis.Axis) keeps Schedule decoupled from
// Axis's concrete type; *axis.Axis satisfies it.
type AxisSource interface {
	GetCuePointsByInterval(query interval.Interval) []bucket.PointCue
}

// Schedule is the rolling look-ahead scheduler described in package
// doc. The zero value is not usable; construct with New.
type Schedule struct {
	mu sync.Mutex

	axis  AxisSource
	clock Clock
	math  MotionMath
	rng   motion.Range

	lookahead float64
	vector    motion.Vector

	haveWindow bool
	timeLow    float64
	timeHigh   float64
	posLow     float64
	posHigh    float64

	minimumTsEndpoint float64
	candidates        []DueEvent
	queue             []DueEvent

	timer       *time.Timer
	timerTarget float64
	timerActive bool

	callbacks *eventslab.Slab[ChangeHandler]

	log     zerolog.Logger
	metrics MetricsSink
}

// Option configures a Schedule at construction time.
type Option func(*Schedule)

// WithLookahead overrides the default 5-second look-ahead window.
func WithLookahead(seconds float64) Option {
	return func(s *Schedule) { s.lookahead = seconds }
}

// WithLogger attaches a logger for routine/recovered/raised conditions.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Schedule) { s.log = l }
}

// WithMetrics attaches a MetricsSink. Defaults to a no-op sink.
func WithMetrics(m MetricsSink) Option {
	return func(s *Schedule) { s.metrics = m }
}

// New returns a Schedule bound to axisSrc, clock, and mm, with no
// vector set (idle until SetVector is called).
func New(axisSrc AxisSource, clock Clock, mm MotionMath, rng motion.Range, opts ...Option) *Schedule {
	s := &Schedule{
		axis:      axisSrc,
		clock:     clock,
		math:      mm,
		rng:       rng,
		lookahead: defaultLookahead,
		callbacks: eventslab.New[ChangeHandler](),
		log:       zerolog.Nop(),
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetVector clears any outstanding timer, resets window state, and
// installs v as the current motion. If v is moving (nonzero velocity or
// acceleration) the planning cycle restarts immediately; otherwise the
// schedule goes idle with no armed timer until the next SetVector.
func (s *Schedule) SetVector(v motion.Vector) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.vector = v
	s.haveWindow = false
	s.queue = nil
	s.candidates = nil

	if v.IsMoving() {
		s.runCycleLocked()
	}
}

// Vector returns the current motion vector.
func (s *Schedule) Vector() motion.Vector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vector
}

// QueueDepth returns the number of pending (not yet due) events.
func (s *Schedule) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Schedule) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerActive = false
}

// runCycleLocked executes the full state machine. pop-due runs first,
// against whatever the existing queue already holds, so an event whose
// timestamp coincides exactly with the window's expiry is fired rather
// than silently discarded by advance's queue reset (§4.6: no event is
// ever dropped silently). advance/load/filter/push then replan only if
// the window actually expired, followed by a second pop-due in case a
// freshly loaded event is already due (its timestamp equal to the new
// window's start).
func (s *Schedule) runCycleLocked() {
	s.popDueLocked()
	advanced := s.advanceLocked()
	if advanced {
		s.loadLocked()
		s.filterLocked()
		s.pushLocked()
		s.metrics.ObserveCycle("advance")
		s.log.Debug().Float64("time_low", s.timeLow).Float64("time_high", s.timeHigh).Msg("schedule window advanced")
		s.popDueLocked()
	} else {
		s.metrics.ObserveCycle("reload")
	}
	s.rearmLocked()
	s.metrics.SetQueueDepth(len(s.queue))
}

// advanceLocked creates a fresh time/position window if none exists or
// the current one has expired. Returns whether a new window was made.
func (s *Schedule) advanceLocked() bool {
	now := s.clock.Now()
	if s.haveWindow && now < s.timeHigh {
		return false
	}
	s.timeLow = now
	s.timeHigh = now + s.lookahead
	s.haveWindow = true
	s.minimumTsEndpoint = s.timeLow
	s.posLow, s.posHigh = s.math.PositionInterval(s.vector, s.timeLow, s.timeHigh)
	s.queue = s.queue[:0]
	return true
}

// endpointSide reports which side of c's interval the point p is, by
// value (a singular interval's one point is always its low side).
func endpointSide(iv interval.Interval, p float64) interval.Side {
	if iv.Singular() || iv.Low == p {
		return interval.Low
	}
	return interval.High
}

func directionFor(side interval.Side, velocityAtCrossing float64) Direction {
	movingUp := velocityAtCrossing > 0
	switch side {
	case interval.Low:
		if movingUp {
			return Enter
		}
		return Exit
	default:
		if movingUp {
			return Exit
		}
		return Enter
	}
}

// loadLocked queries the Axis for every cue endpoint inside the current
// position window and computes each one's earliest crossing time within
// the current time window.
func (s *Schedule) loadLocked() {
	query := interval.New(s.posLow, s.posHigh)
	points := s.axis.GetCuePointsByInterval(query)

	s.candidates = s.candidates[:0]
	for _, pc := range points {
		if pc.Cue.Interval == nil {
			continue
		}
		ts, ok, tangent := s.math.EarliestCrossing(s.vector, pc.Point, s.timeLow, s.timeHigh)
		if !ok {
			continue
		}
		if tangent && s.vector.Acceleration != 0 {
			continue // tangent (touch-without-crossing) events never fire, regardless of minimum/range filters
		}
		side := endpointSide(*pc.Cue.Interval, pc.Point)
		velocity := s.vector.At(ts).Velocity
		s.candidates = append(s.candidates, DueEvent{
			Cue:       pc.Cue,
			Endpoint:  pc.Point,
			Side:      side,
			Direction: directionFor(side, velocity),
			Timestamp: ts,
		})
	}
}

// filterLocked drops candidates per spec §4.5 step 3: past the range's
// exit time, before the minimum timestamp, or outside the current
// window (a defensive check — the EarliestCrossing bounds passed in
// loadLocked should already guarantee this).
func (s *Schedule) filterLocked() {
	_, tsLeave := s.math.RangeIntersect(s.vector, s.rng)

	kept := s.candidates[:0]
	for _, ev := range s.candidates {
		if ev.Timestamp >= tsLeave {
			continue
		}
		if ev.Timestamp < s.minimumTsEndpoint {
			continue
		}
		if ev.Timestamp < s.timeLow || ev.Timestamp > s.timeHigh {
			continue
		}
		kept = append(kept, ev)
	}
	s.candidates = kept
}

// pushLocked installs the filtered candidates as the pending queue,
// ordered by endpoint ordering on (timestamp, side, closedness).
func (s *Schedule) pushLocked() {
	s.queue = append(s.queue[:0], s.candidates...)
	sort.Slice(s.queue, func(i, j int) bool {
		return interval.CompareEndpoints(s.queue[i].queueKey(), s.queue[j].queueKey()) < 0
	})
}

// popDueLocked drains and fires every queued event whose timestamp has
// arrived.
func (s *Schedule) popDueLocked() {
	now := s.clock.Now()
	i := 0
	for i < len(s.queue) && s.queue[i].Timestamp <= now {
		i++
	}
	if i == 0 {
		return
	}
	due := make([]DueEvent, i)
	copy(due, s.queue[:i])
	s.queue = s.queue[i:]

	s.metrics.ObserveEventsFired(len(due))
	s.log.Debug().Int("count", len(due)).Msg("schedule events due")
	s.emit(due)
}

// rearmLocked arms a single timer for the earlier of the next queued
// event or the window's expiry. A timer that fires before its target
// (platform jitter) re-arms itself for the remaining delta instead of
// running the cycle early.
func (s *Schedule) rearmLocked() {
	target := s.timeHigh
	if len(s.queue) > 0 && s.queue[0].Timestamp < target {
		target = s.queue[0].Timestamp
	}
	s.armTimerLocked(target)
}

func (s *Schedule) armTimerLocked(target float64) {
	if s.timerActive {
		panic(ErrIllegalState)
	}
	delay := target - s.clock.Now()
	if delay < 0 {
		delay = 0
	}
	s.timerTarget = target
	s.timerActive = true
	s.timer = time.AfterFunc(time.Duration(delay*float64(time.Second)), s.onTimer)
}

func (s *Schedule) onTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timerActive = false
	now := s.clock.Now()
	if now < s.timerTarget {
		s.armTimerLocked(s.timerTarget)
		return
	}
	s.runCycleLocked()
}
