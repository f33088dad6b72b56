package axis

import (
	"github.com/neevany/timingsrc/cue"
	"github.com/neevany/timingsrc/internal/eventslab"
)

// BatchMap is the per-key result of a single Update or
// RemoveCuesByInterval call.
type BatchMap map[string]cue.Change

// ChangeHandler is called once per Update/RemoveCuesByInterval batch,
// after every affected bucket has been flushed.
type ChangeHandler func(BatchMap)

// CallbackHandle identifies a registered ChangeHandler for DelCallback.
type CallbackHandle = eventslab.Handle

// AddCallback registers handler to be called on every future change
// batch and returns a handle for DelCallback.
func (a *Axis) AddCallback(handler ChangeHandler) CallbackHandle {
	return a.callbacks.Add(handler)
}

// DelCallback removes a previously registered handler. Removing an
// unknown handle is a no-op.
func (a *Axis) DelCallback(h CallbackHandle) {
	a.callbacks.Del(h)
}

func (a *Axis) emit(batch BatchMap) {
	a.callbacks.Each(func(h ChangeHandler) { h(batch) })
}

// InitialEvent synthesizes a change batch describing every cue
// currently in the Axis, each reported as an INSERT against an absent
// prior state. Late subscribers can call this once after AddCallback to
// learn about pre-existing cues instead of waiting for the next mutation
// — the capability-trait replacement for the reference eventifyInitEventArgs
// hook (see SPEC_FULL.md §9).
func (a *Axis) InitialEvent() BatchMap {
	a.mu.Lock()
	defer a.mu.Unlock()

	batch := make(BatchMap, len(a.cues))
	for key, c := range a.cues {
		snap := c.Snapshot()
		ivDelta := cue.NOOP
		if snap.Interval != nil {
			ivDelta = cue.INSERT
		}
		dataDelta := cue.NOOP
		if snap.Data != nil {
			dataDelta = cue.INSERT
		}
		batch[key] = cue.Change{
			New:   snap,
			Old:   cue.Cue{Key: key},
			Delta: cue.Delta{Interval: ivDelta, Data: dataDelta},
		}
	}
	return batch
}
