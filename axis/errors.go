package axis

import "errors"

// ErrInvalidArgument is raised by Update when options.Check is set and a
// cue in the batch lacks a key. The batch is aborted before any
// mutation — no partial application.
var ErrInvalidArgument = errors.New("axis: invalid argument")

// ErrInvariantViolation surfaces a CueBucket integrity failure. Always a
// programming error.
var ErrInvariantViolation = errors.New("axis: invariant violation")
