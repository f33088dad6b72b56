package schedule

import "errors"

// ErrIllegalState guards the "at most one outstanding timer" invariant:
// arming a second timer while one is already pending is a programming
// error (all entry points are internally serialized by Schedule.mu, so
// this should be unreachable in practice). armTimerLocked panics with
// this error rather than logging and continuing, since a double-arm
// means the invariant is already broken and the timer/queue state can
// no longer be trusted.
var ErrIllegalState = errors.New("schedule: illegal state")
