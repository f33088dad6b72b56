package bucket

import (
	"testing"

	"github.com/neevany/timingsrc/cue"
	"github.com/neevany/timingsrc/interval"
)

func addAndFlush(b *CueBucket, c *cue.Cue) {
	iv := *c.Interval
	b.Add(iv.Low, c)
	if !iv.Singular() {
		b.Add(iv.High, c)
	}
	b.Flush()
}

func TestInsertAndQuery(t *testing.T) {
	b := New(10)
	iv := interval.New(3, 4)
	addAndFlush(b, &cue.Cue{Key: "a", Interval: &iv, Data: "x"})

	q := interval.New(3.5, 3.6)
	got := b.Lookup(q, interval.OVERLAP)
	if len(got) != 1 || got[0].Key != "a" {
		t.Fatalf("expected [a], got %v", got)
	}

	q2 := interval.New(5, 6)
	if got := b.Lookup(q2, interval.OVERLAP); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}

	if _, err := b.CheckIntegrity(); err != nil {
		t.Fatalf("integrity check failed: %v", err)
	}
}

func TestCoversQuery(t *testing.T) {
	b := New(1000)
	iv := interval.New(0, 500)
	addAndFlush(b, &cue.Cue{Key: "c", Interval: &iv})

	q := interval.New(100, 101)
	if got := b.Lookup(q, interval.Mode(interval.COVERS)); len(got) != 1 || got[0].Key != "c" {
		t.Fatalf("expected [c] via COVERS, got %v", got)
	}
	nonCovers := interval.Mode(interval.OVERLAP_LEFT | interval.COVERED | interval.EQUALS | interval.OVERLAP_RIGHT)
	if got := b.Lookup(q, nonCovers); len(got) != 0 {
		t.Fatalf("expected no non-covers matches, got %v", got)
	}
}

func TestRemoveMakesPointEmpty(t *testing.T) {
	b := New(10)
	iv := interval.New(1, 2)
	addAndFlush(b, &cue.Cue{Key: "d", Interval: &iv})

	emptied := b.Remove(1, "d")
	if !emptied {
		t.Fatal("expected point to be reported empty before flush reconciles")
	}
	b.Remove(2, "d")
	b.Flush()

	if b.Size() != 0 {
		t.Fatalf("expected bucket empty after removing only cue, got size %d", b.Size())
	}
	if _, err := b.CheckIntegrity(); err != nil {
		t.Fatalf("integrity check failed: %v", err)
	}
}

func TestLookupRemove(t *testing.T) {
	b := New(10)
	iv := interval.New(1, 2)
	addAndFlush(b, &cue.Cue{Key: "e", Interval: &iv})

	removed := b.LookupRemove(interval.New(1, 2), interval.INSIDE)
	if len(removed) != 1 || removed[0].Key != "e" {
		t.Fatalf("expected to remove [e], got %v", removed)
	}
	if b.Size() != 0 {
		t.Fatalf("expected empty bucket after lookup-remove, got size %d", b.Size())
	}
}

func TestLookupPointsInsideQuery(t *testing.T) {
	b := New(10)
	iv := interval.New(1, 9)
	addAndFlush(b, &cue.Cue{Key: "f", Interval: &iv})

	pts := b.LookupPoints(interval.New(0, 2))
	if len(pts) != 1 || pts[0].Point != 1 {
		t.Fatalf("expected only the low endpoint inside [0,2], got %v", pts)
	}
}
