// Package bucket implements CueBucket: a length-bounded partition of
// cues, keyed by point, that Axis shards cues into so covers-queries
// only ever scan buckets whose maximum possible length can contain the
// query. Structured after generic, mutex-guarded staged containers with
// parallel slice+map bookkeeping, adapted from a cache's get/set/evict
// lifecycle to a buffered add/remove/flush one.
package bucket

import (
	"errors"
	"fmt"
	"sort"

	"github.com/neevany/timingsrc/cue"
	"github.com/neevany/timingsrc/endpointindex"
	"github.com/neevany/timingsrc/interval"
)

// ErrInvariantViolation indicates a bucket integrity check failed. This
// is always a programming error, never a user input problem.
var ErrInvariantViolation = errors.New("bucket: invariant violation")

// PointCue pairs a point with the cue referencing it, as returned by
// LookupPoints.
type PointCue struct {
	Point float64
	Cue   *cue.Cue
}

// CueBucket holds every cue whose interval length falls at or below Cap.
type CueBucket struct {
	cap    float64
	points map[float64][]*cue.Cue
	index  *endpointindex.EndpointIndex

	created map[float64]bool // points absent from `points` before this batch
	dirty   map[float64]bool // points a remove() touched this batch
}

// New returns an empty bucket with the given length cap.
func New(cap float64) *CueBucket {
	return &CueBucket{
		cap:     cap,
		points:  make(map[float64][]*cue.Cue),
		index:   endpointindex.New(),
		created: make(map[float64]bool),
		dirty:   make(map[float64]bool),
	}
}

// Cap returns the bucket's maximum cue length.
func (b *CueBucket) Cap() float64 { return b.cap }

// Size returns the number of distinct points with at least one cue,
// after accounting for this batch's staged (not yet flushed) state.
func (b *CueBucket) Size() int {
	n := 0
	for _, list := range b.points {
		if len(list) > 0 {
			n++
		}
	}
	return n
}

func indexOfKey(list []*cue.Cue, key string) int {
	for i, c := range list {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// Add stages c as referencing point. A no-op if point already lists a
// cue with the same key.
func (b *CueBucket) Add(point float64, c *cue.Cue) {
	list, exists := b.points[point]
	if !exists {
		b.created[point] = true
	}
	if indexOfKey(list, c.Key) >= 0 {
		return
	}
	b.points[point] = append(list, c)
}

// Remove stages the removal of the cue keyed key from point. Returns
// true if the point's cue list became empty as a result. A no-op
// (returns false) if point has no such key.
func (b *CueBucket) Remove(point float64, key string) bool {
	list, exists := b.points[point]
	if !exists {
		return false
	}
	i := indexOfKey(list, key)
	if i < 0 {
		return false
	}
	list = append(list[:i], list[i+1:]...)
	b.points[point] = list
	b.dirty[point] = true
	return len(list) == 0
}

// Flush reconciles staged add/remove calls into the point map (dropping
// entries that ended up empty) and issues exactly one
// EndpointIndex.Update call.
func (b *CueBucket) Flush() {
	if len(b.created) == 0 && len(b.dirty) == 0 {
		return
	}
	touched := make(map[float64]bool, len(b.created)+len(b.dirty))
	for p := range b.created {
		touched[p] = true
	}
	for p := range b.dirty {
		touched[p] = true
	}

	var toInsert, toRemove []float64
	for p := range touched {
		wasPresent := !b.created[p]
		nowEmpty := len(b.points[p]) == 0
		switch {
		case wasPresent && nowEmpty:
			toRemove = append(toRemove, p)
			delete(b.points, p)
		case !wasPresent && !nowEmpty:
			toInsert = append(toInsert, p)
		case !wasPresent && nowEmpty:
			delete(b.points, p)
		}
	}

	b.index.Update(toRemove, toInsert)
	b.created = make(map[float64]bool)
	b.dirty = make(map[float64]bool)
}

func endpointAt(c *cue.Cue, point float64) interval.Endpoint {
	iv := c.Interval
	if iv.Singular() || iv.Low == point {
		return iv.EndpointLow()
	}
	return iv.EndpointHigh()
}

// lookupNonCovers implements the OVERLAP_LEFT|COVERED|EQUALS|OVERLAP_RIGHT
// subset of Lookup.
func (b *CueBucket) lookupNonCovers(query interval.Interval, mode interval.Mode, seen map[string]bool, out *[]*cue.Cue) {
	for _, p := range b.index.Lookup(query.Low, query.High) {
		for _, c := range b.points[p] {
			if seen[c.Key] {
				continue
			}
			rel := c.Interval.Compare(query)
			if mode.Has(rel) {
				seen[c.Key] = true
				*out = append(*out, c)
			}
		}
	}
}

// lookupCovers implements the COVERS subset of Lookup: only cues whose
// length exceeds the query's can cover it, and every cue in this bucket
// has length ≤ Cap, so queries longer than Cap can never be covered by
// anything here.
func (b *CueBucket) lookupCovers(query interval.Interval, seen map[string]bool, out *[]*cue.Cue) {
	if query.Length() > b.cap {
		return
	}
	for _, p := range b.index.Lookup(query.High-b.cap, query.Low) {
		for _, c := range b.points[p] {
			if seen[c.Key] || c.Interval.Low != p {
				continue
			}
			if c.Interval.Compare(query) == interval.COVERS {
				seen[c.Key] = true
				*out = append(*out, c)
			}
		}
	}
}

// lookupEquals is the fast path for mode == {EQUALS}: only point
// query.Low can hold an equal cue.
func (b *CueBucket) lookupEquals(query interval.Interval) []*cue.Cue {
	var out []*cue.Cue
	for _, c := range b.points[query.Low] {
		if c.Interval.Equals(query) {
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns every cue in the bucket whose relation to query is a
// member of mode, deduplicated by key.
func (b *CueBucket) Lookup(query interval.Interval, mode interval.Mode) []*cue.Cue {
	if mode == interval.Mode(interval.EQUALS) {
		return b.lookupEquals(query)
	}
	var out []*cue.Cue
	seen := make(map[string]bool)
	nonCovers := mode & interval.Mode(interval.OVERLAP_LEFT|interval.COVERED|interval.EQUALS|interval.OVERLAP_RIGHT)
	if nonCovers != 0 {
		b.lookupNonCovers(query, nonCovers, seen, &out)
	}
	if mode.Has(interval.COVERS) {
		b.lookupCovers(query, seen, &out)
	}
	return out
}

// LookupPoints returns (point, cue) pairs where point is an endpoint of
// cue and that specific endpoint lies inside query, by endpoint
// ordering.
func (b *CueBucket) LookupPoints(query interval.Interval) []PointCue {
	var out []PointCue
	for _, p := range b.index.Lookup(query.Low, query.High) {
		for _, c := range b.points[p] {
			ep := endpointAt(c, p)
			if query.Inside(ep) {
				out = append(out, PointCue{Point: p, Cue: c})
			}
		}
	}
	return out
}

// Semantic name constants, mirroring the interval.Mode values they
// alias, given their own names per spec §4.3.
const (
	SemanticInside  = interval.INSIDE
	SemanticPartial = interval.PARTIAL
	SemanticOverlap = interval.OVERLAP
)

// LookupRemove runs Lookup(query, semantic) and removes every matched
// cue from the bucket immediately (not staged — callers needing
// change-batch semantics use Add/Remove/Flush instead), batching point
// deletions into a single EndpointIndex.RemoveInSlice call.
func (b *CueBucket) LookupRemove(query interval.Interval, semantic interval.Mode) []*cue.Cue {
	matched := b.Lookup(query, semantic)
	if len(matched) == 0 {
		return nil
	}
	var removedPoints []float64
	for _, c := range matched {
		low := c.Interval.Low
		if b.removeImmediate(low, c.Key) {
			removedPoints = append(removedPoints, low)
		}
		if !c.Interval.Singular() {
			high := c.Interval.High
			if b.removeImmediate(high, c.Key) {
				removedPoints = append(removedPoints, high)
			}
		}
	}
	if len(removedPoints) > 0 {
		sort.Float64s(removedPoints)
		b.index.RemoveInSlice(removedPoints)
	}
	return matched
}

// removeImmediate removes key from point's list right away and reports
// whether the point became empty (and was dropped from the map).
func (b *CueBucket) removeImmediate(point float64, key string) bool {
	list, exists := b.points[point]
	if !exists {
		return false
	}
	i := indexOfKey(list, key)
	if i < 0 {
		return false
	}
	list = append(list[:i], list[i+1:]...)
	if len(list) == 0 {
		delete(b.points, point)
		return true
	}
	b.points[point] = list
	return false
}

// Clear resets the bucket to empty.
func (b *CueBucket) Clear() {
	b.points = make(map[float64][]*cue.Cue)
	b.index = endpointindex.New()
	b.created = make(map[float64]bool)
	b.dirty = make(map[float64]bool)
}

// Integrity diagnostics, reported by (a) the per-point cue lists are all
// non-empty and their key set matches the EndpointIndex's point set, and
// (b) every indexed point's cues reference that point as an endpoint.
type Integrity struct {
	PointCount    int
	IndexedPoints int
	Keys          int
}

// CheckIntegrity validates invariants (a) and (b) of §3/§4.3, returning
// ErrInvariantViolation wrapped with detail if violated.
func (b *CueBucket) CheckIntegrity() (Integrity, error) {
	seen := make(map[string]bool)
	for p, list := range b.points {
		if len(list) == 0 {
			return Integrity{}, fmt.Errorf("%w: empty cue list retained at point %v", ErrInvariantViolation, p)
		}
		if !b.index.Has(p) {
			return Integrity{}, fmt.Errorf("%w: point %v has cues but is not indexed", ErrInvariantViolation, p)
		}
		for _, c := range list {
			ep := endpointAt(c, p)
			if ep.Value != p {
				return Integrity{}, fmt.Errorf("%w: cue %q stored at point %v is not its own endpoint", ErrInvariantViolation, c.Key, p)
			}
			seen[c.Key] = true
		}
	}
	for _, p := range b.index.Values() {
		if _, ok := b.points[p]; !ok {
			return Integrity{}, fmt.Errorf("%w: indexed point %v has no cue list", ErrInvariantViolation, p)
		}
	}
	return Integrity{PointCount: len(b.points), IndexedPoints: b.index.Len(), Keys: len(seen)}, nil
}
