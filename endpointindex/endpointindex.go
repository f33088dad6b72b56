// Package endpointindex implements the sorted multiset of numeric points
// a CueBucket uses to locate cue endpoints within a query range. The
// lookup strategy is a binary-search endpoint scan adapted from int32
// genomic-coordinate indexing to float64 timeline positions, and the
// bulk Update follows a mutex-guarded-slice merge shape.
package endpointindex

import "sort"

// EndpointIndex is a sorted multiset of float64 points. Duplicate points
// are allowed (two cues may share an endpoint value); lookups return all
// points within a range, not deduplicated.
type EndpointIndex struct {
	points []float64
}

// New returns an empty index.
func New() *EndpointIndex {
	return &EndpointIndex{}
}

// Len returns the number of points currently indexed (counting
// duplicates).
func (idx *EndpointIndex) Len() int { return len(idx.points) }

// Values returns the sorted points. The caller must not mutate the
// returned slice.
func (idx *EndpointIndex) Values() []float64 { return idx.points }

// Has reports whether point is present.
func (idx *EndpointIndex) Has(point float64) bool {
	i := sort.SearchFloat64s(idx.points, point)
	return i < len(idx.points) && idx.points[i] == point
}

// lowerBound returns the index of the first point ≥ x.
func (idx *EndpointIndex) lowerBound(x float64) int {
	return sort.SearchFloat64s(idx.points, x)
}

// upperBound returns the index of the first point > x.
func (idx *EndpointIndex) upperBound(x float64) int {
	return sort.Search(len(idx.points), func(i int) bool { return idx.points[i] > x })
}

// Lookup returns every indexed point within [low, high] (closed), in
// ascending order. Runs in O(log n + k).
func (idx *EndpointIndex) Lookup(low, high float64) []float64 {
	lo := idx.lowerBound(low)
	hi := idx.upperBound(high)
	if lo >= hi {
		return nil
	}
	out := make([]float64, hi-lo)
	copy(out, idx.points[lo:hi])
	return out
}

// Update performs one bulk removal-then-insertion. toRemove and toInsert
// must each be free of duplicates (the caller, CueBucket, is responsible
// for deduplicating); passing duplicates is undefined behavior. Runs by
// re-merging a sorted copy of toInsert against the existing slice after
// stripping toRemove, so it costs O((n + |insert|) log n) dominated by
// the two sorts, rather than one O(log n) search per element.
func (idx *EndpointIndex) Update(toRemove, toInsert []float64) {
	if len(toRemove) > 0 {
		idx.removeSorted(sortedCopy(toRemove))
	}
	if len(toInsert) == 0 {
		return
	}
	ins := sortedCopy(toInsert)
	merged := make([]float64, 0, len(idx.points)+len(ins))
	i, j := 0, 0
	for i < len(idx.points) && j < len(ins) {
		if idx.points[i] <= ins[j] {
			merged = append(merged, idx.points[i])
			i++
		} else {
			merged = append(merged, ins[j])
			j++
		}
	}
	merged = append(merged, idx.points[i:]...)
	merged = append(merged, ins[j:]...)
	idx.points = merged
}

// RemoveInSlice removes each point in sorted (already ascending,
// deduplication the caller's responsibility) from the index, exploiting
// the fact that both slices are sorted to do a single linear merge
// instead of one search per removal.
func (idx *EndpointIndex) RemoveInSlice(sorted []float64) {
	if len(sorted) == 0 {
		return
	}
	idx.removeSorted(sorted)
}

// removeSorted drops one occurrence of each value in toRemove (sorted
// ascending) from idx.points via a single linear merge.
func (idx *EndpointIndex) removeSorted(toRemove []float64) {
	if len(idx.points) == 0 {
		return
	}
	out := idx.points[:0:0]
	j := 0
	for _, p := range idx.points {
		if j < len(toRemove) && p == toRemove[j] {
			j++
			continue
		}
		out = append(out, p)
	}
	idx.points = out
}

func sortedCopy(vs []float64) []float64 {
	out := make([]float64, len(vs))
	copy(out, vs)
	sort.Float64s(out)
	return out
}
