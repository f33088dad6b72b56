package interval

import "testing"

func TestTouchingOverlap(t *testing.T) {
	a := New(1, 2)               // [1,2]
	b := New(2, 3)                // [2,3]
	if got := a.Compare(b); got != OVERLAP_LEFT {
		t.Fatalf("[1,2] vs [2,3]: got %v, want OVERLAP_LEFT", got)
	}

	aOpenHigh := NewOpen(1, 2, true, false) // [1,2)
	if got := aOpenHigh.Compare(b); got != OUTSIDE_LEFT {
		t.Fatalf("[1,2) vs [2,3]: got %v, want OUTSIDE_LEFT", got)
	}
}

func TestEquals(t *testing.T) {
	a := New(1, 2)
	b := New(1, 2)
	if a.Compare(b) != EQUALS {
		t.Fatal("expected EQUALS")
	}
	if !a.Equals(b) {
		t.Fatal("expected Equals true")
	}
	c := NewOpen(1, 2, true, false)
	if a.Equals(c) {
		t.Fatal("closedness differs, should not be equal")
	}
}

func TestCoversAndCovered(t *testing.T) {
	outer := New(0, 500)
	inner := New(100, 101)
	if got := outer.Compare(inner); got != COVERS {
		t.Fatalf("outer vs inner: got %v, want COVERS", got)
	}
	if got := inner.Compare(outer); got != COVERED {
		t.Fatalf("inner vs outer: got %v, want COVERED", got)
	}
}

func TestOutside(t *testing.T) {
	a := New(0, 1)
	b := New(5, 6)
	if got := a.Compare(b); got != OUTSIDE_LEFT {
		t.Fatalf("got %v, want OUTSIDE_LEFT", got)
	}
	if got := b.Compare(a); got != OUTSIDE_RIGHT {
		t.Fatalf("got %v, want OUTSIDE_RIGHT", got)
	}
}

func TestSingular(t *testing.T) {
	s := Singleton(5)
	if !s.Singular() {
		t.Fatal("expected singular")
	}
	if s.Length() != 0 {
		t.Fatal("expected zero length")
	}
}

func TestEndpointOrdering(t *testing.T) {
	closedLow := Endpoint{Value: 5, Side: Low, Closed: true}
	openLow := Endpoint{Value: 5, Side: Low, Closed: false}
	openHigh := Endpoint{Value: 5, Side: High, Closed: false}
	closedHigh := Endpoint{Value: 5, Side: High, Closed: true}

	if CompareEndpoints(closedLow, openLow) >= 0 {
		t.Fatal("closed-low must precede open-low")
	}
	if CompareEndpoints(openLow, closedHigh) >= 0 {
		t.Fatal("open must precede closed-high")
	}
	if CompareEndpoints(openHigh, openLow) != 0 {
		t.Fatal("the two open kinds must tie at equal value")
	}
}

func TestModeSemantics(t *testing.T) {
	if !INSIDE.Has(EQUALS) || !INSIDE.Has(COVERED) || INSIDE.Has(COVERS) {
		t.Fatal("INSIDE must be {COVERED, EQUALS} exactly")
	}
	if !PARTIAL.Has(OVERLAP_LEFT) || !PARTIAL.Has(OVERLAP_RIGHT) || PARTIAL.Has(COVERS) {
		t.Fatal("PARTIAL must add OVERLAP_LEFT/RIGHT but not COVERS")
	}
	if !OVERLAP.Has(COVERS) {
		t.Fatal("OVERLAP must include COVERS")
	}
}
