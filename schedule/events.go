package schedule

import (
	"github.com/neevany/timingsrc/cue"
	"github.com/neevany/timingsrc/internal/eventslab"
	"github.com/neevany/timingsrc/interval"
)

// Direction classifies whether a due event is the moving point entering
// or exiting the cue's interval at the crossed endpoint.
type Direction string

const (
	Enter Direction = "enter"
	Exit  Direction = "exit"
)

// DueEvent is one scheduled crossing of a cue endpoint by the moving
// point. Cue is the live *cue.Cue held by Axis — per the core's
// documented hazard (SPEC_FULL.md §5), it is a reference, not a
// snapshot; a later REPLACE is visible through it.
type DueEvent struct {
	Cue       *cue.Cue
	Endpoint  float64
	Side      interval.Side
	Direction Direction
	Timestamp float64
}

// queueKey derives the endpoint used to order the pending queue: the
// crossing timestamp as the value, the crossed side, and that side's
// closedness (inherited from the cue's interval), so two crossings at
// the same instant tie-break consistently with endpoint ordering.
func (e DueEvent) queueKey() interval.Endpoint {
	closed := e.Cue.Interval.LowClosed
	if e.Side == interval.High {
		closed = e.Cue.Interval.HighClosed
	}
	return interval.Endpoint{Value: e.Timestamp, Side: e.Side, Closed: closed}
}

// ChangeHandler is called each time a cycle pops at least one due event
// (a cycle pops twice when it advances the window, so a handler can be
// called twice in one cycle), with every event due as of that pop in
// endpoint order.
type ChangeHandler func(due []DueEvent, s *Schedule)

// CallbackHandle identifies a registered ChangeHandler for DelCallback.
type CallbackHandle = eventslab.Handle

// AddCallback registers handler to be called whenever one or more
// events become due, and returns a handle for DelCallback.
func (s *Schedule) AddCallback(handler ChangeHandler) CallbackHandle {
	return s.callbacks.Add(handler)
}

// DelCallback removes a previously registered handler. Removing an
// unknown handle is a no-op.
func (s *Schedule) DelCallback(h CallbackHandle) {
	s.callbacks.Del(h)
}

func (s *Schedule) emit(due []DueEvent) {
	s.callbacks.Each(func(h ChangeHandler) { h(due, s) })
}
