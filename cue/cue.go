// Package cue defines the keyed record Axis indexes and the delta
// vocabulary Axis.Update reports for each one.
package cue

import "github.com/neevany/timingsrc/interval"

// Cue is a keyed record associating an optional Interval with optional
// user data. A Cue with both Interval and Data absent is a tombstone: it
// represents the deletion of the key it names. Axis holds cues by
// pointer so a REPLACE can mutate one in place (see Snapshot) and have
// the change visible through every CueBucket still referencing it.
type Cue struct {
	Key      string
	Interval *interval.Interval
	Data     any
}

// HasInterval reports whether the cue carries an interval.
func (c *Cue) HasInterval() bool { return c.Interval != nil }

// HasData reports whether the cue carries data.
func (c *Cue) HasData() bool { return c.Data != nil }

// IsTombstone reports whether both Interval and Data are absent.
func (c *Cue) IsTombstone() bool { return c.Interval == nil && c.Data == nil }

// Snapshot returns a value copy of *c, safe to hand to a caller as a
// read-only "old" or "new" record even after the live *Cue is later
// mutated in place by a REPLACE.
func (c *Cue) Snapshot() Cue {
	if c == nil {
		return Cue{}
	}
	return *c
}

// DeltaKind classifies how one field (Interval or Data) transitioned
// during an Axis.Update call.
type DeltaKind uint8

const (
	NOOP DeltaKind = iota
	INSERT
	REPLACE
	DELETE
)

func (d DeltaKind) String() string {
	switch d {
	case NOOP:
		return "NOOP"
	case INSERT:
		return "INSERT"
	case REPLACE:
		return "REPLACE"
	case DELETE:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Delta records the independent interval/data transitions computed for
// one cue during a single Axis.Update call.
type Delta struct {
	Interval DeltaKind
	Data     DeltaKind
}

// IsNoop reports whether both components are NOOP.
func (d Delta) IsNoop() bool { return d.Interval == NOOP && d.Data == NOOP }

// Change is the record Axis.Update emits per key in a change batch. New
// and Old are value snapshots, never the live *Cue held by buckets.
type Change struct {
	New   Cue
	Old   Cue
	Delta Delta
}
