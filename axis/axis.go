// Package axis implements Axis: the sharded bucket collection that is
// the authoritative cue store. Clients submit batched cue updates and
// query by interval relation; Axis dispatches per-endpoint add/remove to
// the right length-bounded CueBucket and emits one change event per
// batch. Structured after a register/unregister/broadcast hub shape
// (generalized from channel clients to an add/remove/flush cue
// lifecycle), with a guarded primary map as the authoritative store.
package axis

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/neevany/timingsrc/bucket"
	"github.com/neevany/timingsrc/cue"
	"github.com/neevany/timingsrc/internal/eventslab"
	"github.com/neevany/timingsrc/interval"
)

// bucketCaps are the ascending length caps cues are partitioned by.
// Every cue with a non-empty interval lives in exactly the smallest
// bucket whose cap is ≥ its length.
var bucketCaps = []float64{10, 100, 1_000, 10_000, 100_000, math.Inf(1)}

// Update is one entry of an Update call's input batch. Interval == nil
// means the field was omitted (preserve the cue's current interval, or
// leave it absent for a brand-new cue); HasData == false means Data was
// omitted likewise. An Update with both fields omitted deletes the key.
type Update struct {
	Key      string
	Interval *interval.Interval
	Data     any
	HasData  bool
}

// Options configures a single Update call.
type Options struct {
	// Check enables argument validation (every cue must have a Key).
	// A violation aborts the whole batch before any mutation.
	Check bool
	// Equals compares two Data values for the purpose of classifying a
	// data delta as NOOP vs REPLACE. Defaults to a reflect.DeepEqual-based
	// comparison (falling back from == when the value isn't comparable).
	Equals func(a, b any) bool
}

// Axis is the authoritative cue store: a key→cue map plus a partitioning
// of cued intervals into length-bounded buckets.
type Axis struct {
	mu      sync.Mutex
	cues    map[string]*cue.Cue
	buckets []*bucket.CueBucket

	callbacks *eventslab.Slab[ChangeHandler]

	log     zerolog.Logger
	metrics MetricsSink
}

// Option configures an Axis at construction time.
type Option func(*Axis)

// WithLogger attaches a logger for routine/recovered/raised conditions.
// Defaults to a disabled logger — importing axis never forces log
// configuration on the caller.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Axis) { a.log = l }
}

// WithMetrics attaches a MetricsSink. Defaults to a no-op sink.
func WithMetrics(m MetricsSink) Option {
	return func(a *Axis) { a.metrics = m }
}

// New returns an empty Axis.
func New(opts ...Option) *Axis {
	a := &Axis{
		cues:      make(map[string]*cue.Cue),
		callbacks: eventslab.New[ChangeHandler](),
		log:       zerolog.Nop(),
		metrics:   noopMetrics{},
	}
	for _, cap := range bucketCaps {
		a.buckets = append(a.buckets, bucket.New(cap))
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func bucketIndexForLength(length float64) int {
	for i, cap := range bucketCaps {
		if length <= cap {
			return i
		}
	}
	return len(bucketCaps) - 1
}

func defaultEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Comparable() && bv.Comparable() && av.Type() == bv.Type() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func deltaFor(had, has bool, equal func() bool) cue.DeltaKind {
	switch {
	case !had && !has:
		return cue.NOOP
	case !had && has:
		return cue.INSERT
	case had && !has:
		return cue.DELETE
	default:
		if equal() {
			return cue.NOOP
		}
		return cue.REPLACE
	}
}

// addToBucket stages c's endpoints into the bucket matching its current
// interval's length.
func (a *Axis) addToBucket(c *cue.Cue) {
	iv := c.Interval
	b := a.buckets[bucketIndexForLength(iv.Length())]
	b.Add(iv.Low, c)
	if !iv.Singular() {
		b.Add(iv.High, c)
	}
}

// removeFromBucket stages removal of c's key from the bucket matching
// iv's length — iv must be the interval c was indexed under (its OLD
// interval, captured before any in-place mutation).
func (a *Axis) removeFromBucket(c *cue.Cue, iv *interval.Interval) {
	b := a.buckets[bucketIndexForLength(iv.Length())]
	b.Remove(iv.Low, c.Key)
	if !iv.Singular() {
		b.Remove(iv.High, c.Key)
	}
}

// Update applies a batch of cue updates transactionally: if
// options.Check is set and any entry lacks a Key, the whole batch is
// rejected before any mutation. Side effects, in order: cue-map
// mutation → bucket mutation → one flush per bucket → a single change
// event carrying the returned BatchMap.
func (a *Axis) Update(updates []Update, opts Options) (BatchMap, error) {
	if opts.Check {
		for _, u := range updates {
			if u.Key == "" {
				return nil, fmt.Errorf("%w: cue missing key", ErrInvalidArgument)
			}
		}
	}
	equalsFn := opts.Equals
	if equalsFn == nil {
		equalsFn = defaultEquals
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	batch := make(BatchMap, len(updates))

	for _, u := range updates {
		current := a.cues[u.Key]
		bothOmitted := u.Interval == nil && !u.HasData

		var effInterval *interval.Interval
		if u.Interval != nil {
			effInterval = u.Interval
		} else if current != nil && !bothOmitted {
			effInterval = current.Interval
		}

		var effData any
		if u.HasData {
			effData = u.Data
		} else if current != nil && !bothOmitted {
			effData = current.Data
		}

		hadInterval := current != nil && current.Interval != nil
		hasInterval := effInterval != nil
		hadData := current != nil && current.Data != nil
		hasData := effData != nil

		stepIntervalDelta := deltaFor(hadInterval, hasInterval, func() bool {
			return current.Interval.Equals(*effInterval)
		})
		stepDataDelta := deltaFor(hadData, hasData, func() bool {
			return equalsFn(current.Data, effData)
		})

		firstOld := cue.Cue{Key: u.Key}
		if current != nil {
			firstOld = current.Snapshot()
		}

		if !(stepIntervalDelta == cue.NOOP && stepDataDelta == cue.NOOP) {
			isDelete := !hasInterval && !hasData
			switch {
			case current == nil && !isDelete:
				newObj := &cue.Cue{Key: u.Key, Interval: effInterval, Data: effData}
				a.cues[u.Key] = newObj
				if newObj.Interval != nil {
					a.addToBucket(newObj)
				}
			case current != nil && !isDelete:
				oldInterval := current.Interval
				current.Interval = effInterval
				current.Data = effData
				switch {
				case oldInterval != nil && effInterval == nil:
					a.removeFromBucket(current, oldInterval)
				case oldInterval == nil && effInterval != nil:
					a.addToBucket(current)
				case oldInterval != nil && effInterval != nil && !oldInterval.Equals(*effInterval):
					a.removeFromBucket(current, oldInterval)
					a.addToBucket(current)
				}
			case current != nil && isDelete:
				if current.Interval != nil {
					a.removeFromBucket(current, current.Interval)
				}
				delete(a.cues, u.Key)
			}
		}

		final := a.cues[u.Key]
		newSnap := cue.Cue{Key: u.Key}
		if final != nil {
			newSnap = final.Snapshot()
		}

		entry, exists := batch[u.Key]
		if !exists {
			entry = cue.Change{Old: firstOld}
		}
		entry.New = newSnap
		entry.Delta = cue.Delta{
			Interval: deltaFor(entry.Old.Interval != nil, entry.New.Interval != nil, func() bool {
				return entry.Old.Interval.Equals(*entry.New.Interval)
			}),
			Data: deltaFor(entry.Old.Data != nil, entry.New.Data != nil, func() bool {
				return equalsFn(entry.Old.Data, entry.New.Data)
			}),
		}
		batch[u.Key] = entry
		a.metrics.ObserveUpdate(entry.Delta.Interval.String(), entry.Delta.Data.String())
	}

	for i, b := range a.buckets {
		b.Flush()
		a.metrics.SetBucketSize(fmt.Sprintf("%v", bucketCaps[i]), b.Size())
	}
	a.metrics.SetCueCount(len(a.cues))

	a.log.Debug().Int("keys", len(batch)).Msg("axis update flushed")
	a.emit(batch)
	return batch, nil
}

// execute dispatches a bucket lookup method across every bucket and
// concatenates the results. Each cue lives in exactly one bucket (by
// length), so no cross-bucket deduplication is needed.
func (a *Axis) execute(fn func(*bucket.CueBucket) []*cue.Cue) []*cue.Cue {
	var out []*cue.Cue
	for _, b := range a.buckets {
		out = append(out, fn(b)...)
	}
	return out
}

// Lookup returns every cue whose relation to query is a member of mode.
func (a *Axis) Lookup(query interval.Interval, mode interval.Mode) []cue.Cue {
	a.mu.Lock()
	defer a.mu.Unlock()
	ptrs := a.execute(func(b *bucket.CueBucket) []*cue.Cue { return b.Lookup(query, mode) })
	return snapshots(ptrs)
}

// GetCuesByInterval returns every cue related to query under semantic
// (default OVERLAP).
func (a *Axis) GetCuesByInterval(query interval.Interval, semantic interval.Mode) []cue.Cue {
	if semantic == 0 {
		semantic = interval.OVERLAP
	}
	return a.Lookup(query, semantic)
}

// GetCuePointsByInterval returns (point, cue) pairs for every cue
// endpoint inside query, by endpoint ordering.
func (a *Axis) GetCuePointsByInterval(query interval.Interval) []bucket.PointCue {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []bucket.PointCue
	for _, b := range a.buckets {
		out = append(out, b.LookupPoints(query)...)
	}
	return out
}

// RemoveCuesByInterval removes every cue related to query under semantic
// (default INSIDE) and emits a change batch. Per the reference
// behavior, each entry in the returned batch carries only {old: cue} —
// New is the zero-value Cue{Key}, never a live value — matching the
// reference implementation's asymmetric payload for this call.
func (a *Axis) RemoveCuesByInterval(query interval.Interval, semantic interval.Mode) BatchMap {
	if semantic == 0 {
		semantic = interval.INSIDE
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	batch := make(BatchMap)
	for _, b := range a.buckets {
		for _, c := range b.LookupRemove(query, semantic) {
			delete(a.cues, c.Key)
			ivDelta := cue.NOOP
			if c.Interval != nil {
				ivDelta = cue.DELETE
			}
			dataDelta := cue.NOOP
			if c.Data != nil {
				dataDelta = cue.DELETE
			}
			batch[c.Key] = cue.Change{
				Old:   c.Snapshot(),
				New:   cue.Cue{Key: c.Key},
				Delta: cue.Delta{Interval: ivDelta, Data: dataDelta},
			}
		}
	}
	a.metrics.SetCueCount(len(a.cues))
	a.log.Debug().Int("keys", len(batch)).Msg("axis removeCuesByInterval")
	a.emit(batch)
	return batch
}

// Clear removes every cue and resets every bucket.
func (a *Axis) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cues = make(map[string]*cue.Cue)
	for _, b := range a.buckets {
		b.Clear()
	}
}

// Has reports whether key names a current cue.
func (a *Axis) Has(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.cues[key]
	return ok
}

// Get returns a snapshot of the cue named key.
func (a *Axis) Get(key string) (cue.Cue, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.cues[key]
	if !ok {
		return cue.Cue{}, false
	}
	return c.Snapshot(), true
}

// Keys returns every current cue key, sorted for deterministic
// iteration.
func (a *Axis) Keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.cues))
	for k := range a.cues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Cues returns a snapshot of every current cue.
func (a *Axis) Cues() []cue.Cue {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]cue.Cue, 0, len(a.cues))
	for _, c := range a.cues {
		out = append(out, c.Snapshot())
	}
	return out
}

// Size returns the number of current cues.
func (a *Axis) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.cues)
}

// CheckIntegrity validates every bucket's invariants and that
// Axis.Size() equals the number of distinct keys found across all
// buckets restricted to cues with an interval (testable property #1).
func (a *Axis) CheckIntegrity() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	withInterval := 0
	for _, c := range a.cues {
		if c.Interval != nil {
			withInterval++
		}
	}
	seen := make(map[string]bool)
	for i, b := range a.buckets {
		if _, err := b.CheckIntegrity(); err != nil {
			return fmt.Errorf("%w: bucket[%d]: %v", ErrInvariantViolation, i, err)
		}
		for _, c := range b.Lookup(interval.NewOpen(math.Inf(-1), math.Inf(1), true, true), interval.OVERLAP) {
			seen[c.Key] = true
		}
	}
	if len(seen) != withInterval {
		return fmt.Errorf("%w: axis has %d cues with intervals but buckets report %d distinct keys", ErrInvariantViolation, withInterval, len(seen))
	}
	return nil
}

func snapshots(ptrs []*cue.Cue) []cue.Cue {
	out := make([]cue.Cue, len(ptrs))
	for i, p := range ptrs {
		out[i] = p.Snapshot()
	}
	return out
}
