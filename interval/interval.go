// Package interval implements the closed/open interval value type that
// Axis and Schedule index cues by: endpoint ordering, length, and the
// reduced Allen-relation classifier used for bucket and axis lookups.
package interval

import "fmt"

// Side identifies which bound of an Interval an Endpoint refers to.
type Side uint8

const (
	Low Side = iota
	High
)

// Relation is the result of classifying one Interval against a query
// Interval. It is a reduced working set of the thirteen Allen relations.
type Relation uint8

const (
	EQUALS Relation = 1 << iota
	OVERLAP_LEFT
	OVERLAP_RIGHT
	COVERED
	COVERS
	OUTSIDE_LEFT
	OUTSIDE_RIGHT
)

// Mode is a set of Relations, used as the lookup filter argument.
type Mode uint8

// Has reports whether r is a member of m.
func (m Mode) Has(r Relation) bool { return m&Mode(r) != 0 }

// Named semantics, per spec: INSIDE ⊂ PARTIAL ⊂ OVERLAP.
const (
	INSIDE  = Mode(COVERED | EQUALS)
	PARTIAL = INSIDE | Mode(OVERLAP_LEFT|OVERLAP_RIGHT)
	OVERLAP = PARTIAL | Mode(COVERS)
)

func (r Relation) String() string {
	switch r {
	case EQUALS:
		return "EQUALS"
	case OVERLAP_LEFT:
		return "OVERLAP_LEFT"
	case OVERLAP_RIGHT:
		return "OVERLAP_RIGHT"
	case COVERED:
		return "COVERED"
	case COVERS:
		return "COVERS"
	case OUTSIDE_LEFT:
		return "OUTSIDE_LEFT"
	case OUTSIDE_RIGHT:
		return "OUTSIDE_RIGHT"
	default:
		return fmt.Sprintf("Relation(%d)", uint8(r))
	}
}

// Endpoint is a (value, side, closedness) triple with a total order:
// smaller value first; at equal value, a closed-low endpoint precedes an
// open endpoint (either side) which precedes a closed-high endpoint. This
// is the ordering used to sort mixed endpoints from different cues (the
// Schedule's pending queue, CueBucket.LookupPoints), not the interval
// overlap test, which has its own closed/open boundary logic below.
type Endpoint struct {
	Value  float64
	Side   Side
	Closed bool
}

// rank places closed-low first, closed-high last, and ties the two open
// kinds in between, per the ordering rule above.
func (e Endpoint) rank() int {
	switch {
	case e.Side == Low && e.Closed:
		return 0
	case e.Side == High && e.Closed:
		return 2
	default:
		return 1
	}
}

// CompareEndpoints orders two endpoints per the total order described above.
// Returns <0 if a sorts before b, 0 if tied, >0 if a sorts after b.
func CompareEndpoints(a, b Endpoint) int {
	if a.Value != b.Value {
		if a.Value < b.Value {
			return -1
		}
		return 1
	}
	return a.rank() - b.rank()
}

// Interval is a closed/open interval over the reals: [Low, High] with
// independent closedness on each side. Low must be ≤ High; if Low == High
// the interval is Singular and both sides must be closed.
type Interval struct {
	Low        float64
	High       float64
	LowClosed  bool
	HighClosed bool
}

// New constructs a closed interval [low, high].
func New(low, high float64) Interval {
	return Interval{Low: low, High: high, LowClosed: true, HighClosed: true}
}

// NewOpen constructs an interval with explicit closedness on each side.
func NewOpen(low, high float64, lowClosed, highClosed bool) Interval {
	return Interval{Low: low, High: high, LowClosed: lowClosed, HighClosed: highClosed}
}

// Singleton constructs the singular interval {v}: a closed interval with
// Low == High == v.
func Singleton(v float64) Interval {
	return Interval{Low: v, High: v, LowClosed: true, HighClosed: true}
}

// Length returns High - Low. Always ≥ 0 for a valid Interval.
func (iv Interval) Length() float64 { return iv.High - iv.Low }

// Singular reports whether Low == High.
func (iv Interval) Singular() bool { return iv.Low == iv.High }

// EndpointLow returns this interval's low endpoint.
func (iv Interval) EndpointLow() Endpoint {
	return Endpoint{Value: iv.Low, Side: Low, Closed: iv.LowClosed}
}

// EndpointHigh returns this interval's high endpoint.
func (iv Interval) EndpointHigh() Endpoint {
	return Endpoint{Value: iv.High, Side: High, Closed: iv.HighClosed}
}

// Covers reports whether value is a member of this interval, honoring
// closedness at the boundaries.
func (iv Interval) Covers(value float64) bool {
	if value < iv.Low || value > iv.High {
		return false
	}
	if value == iv.Low && !iv.LowClosed {
		return false
	}
	if value == iv.High && !iv.HighClosed {
		return false
	}
	return true
}

// Inside reports whether ep falls within this interval's endpoint range,
// by endpoint ordering (CompareEndpoints), rather than real-number
// membership. Used by bucket lookups that scan cue endpoints against a
// query range.
func (iv Interval) Inside(ep Endpoint) bool {
	return CompareEndpoints(iv.EndpointLow(), ep) <= 0 && CompareEndpoints(ep, iv.EndpointHigh()) <= 0
}

// Equals reports whether iv and other have identical bounds and
// closedness on both sides.
func (iv Interval) Equals(other Interval) bool {
	return iv.Low == other.Low && iv.High == other.High &&
		iv.LowClosed == other.LowClosed && iv.HighClosed == other.HighClosed
}

// cmpLowLow orders two low endpoints: smaller value first; at equal
// value, closed (starts at v, inclusive) sorts before open (starts just
// after v).
func cmpLowLow(aVal float64, aClosed bool, bVal float64, bClosed bool) int {
	if aVal != bVal {
		if aVal < bVal {
			return -1
		}
		return 1
	}
	if aClosed == bClosed {
		return 0
	}
	if aClosed {
		return -1
	}
	return 1
}

// cmpHighHigh orders two high endpoints: smaller value first; at equal
// value, open (ends just before v) sorts before closed (ends at v,
// inclusive).
func cmpHighHigh(aVal float64, aClosed bool, bVal float64, bClosed bool) int {
	if aVal != bVal {
		if aVal < bVal {
			return -1
		}
		return 1
	}
	if aClosed == bClosed {
		return 0
	}
	if aClosed {
		return 1
	}
	return -1
}

// lowLEHigh reports whether a low endpoint does not entirely exceed a
// high endpoint, i.e. whether the two boundaries leave room for overlap
// on this side. Two boundaries meeting exactly at the same value overlap
// only if both sides are closed there.
func lowLEHigh(lowVal float64, lowClosed bool, highVal float64, highClosed bool) bool {
	if lowVal != highVal {
		return lowVal < highVal
	}
	return lowClosed && highClosed
}

// Compare classifies iv against the query interval, from iv's
// perspective. It is total: every pair of valid Intervals yields exactly
// one Relation, and Compare returns EQUALS iff Equals would.
func (iv Interval) Compare(query Interval) Relation {
	if iv.Equals(query) {
		return EQUALS
	}

	overlaps := lowLEHigh(iv.Low, iv.LowClosed, query.High, query.HighClosed) &&
		lowLEHigh(query.Low, query.LowClosed, iv.High, iv.HighClosed)
	if !overlaps {
		if cmpLowLow(iv.Low, iv.LowClosed, query.Low, query.LowClosed) < 0 {
			return OUTSIDE_LEFT
		}
		return OUTSIDE_RIGHT
	}

	startCmp := cmpLowLow(iv.Low, iv.LowClosed, query.Low, query.LowClosed)
	endCmp := cmpHighHigh(iv.High, iv.HighClosed, query.High, query.HighClosed)

	switch {
	case startCmp <= 0 && endCmp >= 0:
		return COVERS
	case startCmp >= 0 && endCmp <= 0:
		return COVERED
	case startCmp < 0:
		return OVERLAP_LEFT
	default:
		return OVERLAP_RIGHT
	}
}

func (iv Interval) String() string {
	lb, hb := "[", "]"
	if !iv.LowClosed {
		lb = "("
	}
	if !iv.HighClosed {
		hb = ")"
	}
	return fmt.Sprintf("%s%v,%v%s", lb, iv.Low, iv.High, hb)
}
