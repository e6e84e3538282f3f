package sat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWatchIndex_AttachDetachBin(t *testing.T) {
	w := &WatchIndex{}
	for i := 0; i < 4; i++ {
		w.Grow()
	}

	a, b := PositiveLiteral(0), NegativeLiteral(1)
	w.AttachBin(a, b, false)

	if got := len(w.List(a)); got != 1 {
		t.Fatalf("List(a): got %d watchers, want 1", got)
	}
	if got := len(w.List(b)); got != 1 {
		t.Fatalf("List(b): got %d watchers, want 1", got)
	}
	if !w.List(a)[0].IsBin() || w.List(a)[0].Other() != b {
		t.Errorf("List(a)[0]: got %+v, want Bin watcher over %s", w.List(a)[0], b)
	}

	w.DetachBin(a, b)
	if got := len(w.List(a)); got != 0 {
		t.Errorf("List(a) after DetachBin: got %d, want 0", got)
	}
	if got := len(w.List(b)); got != 0 {
		t.Errorf("List(b) after DetachBin: got %d, want 0", got)
	}
}

func TestWatchIndex_AttachDetachTri(t *testing.T) {
	w := &WatchIndex{}
	for i := 0; i < 6; i++ {
		w.Grow()
	}

	a, b, c := PositiveLiteral(0), PositiveLiteral(1), NegativeLiteral(2)
	w.AttachTri(a, b, c, true)

	for _, lit := range []Literal{a, b, c} {
		if got := len(w.List(lit)); got != 1 {
			t.Fatalf("List(%s): got %d watchers, want 1", lit, got)
		}
		if !w.List(lit)[0].IsTri() || !w.List(lit)[0].Redundant() {
			t.Errorf("List(%s)[0]: got %+v, want a redundant Tri watcher", lit, w.List(lit)[0])
		}
	}

	w.DetachTri(a, b, c)
	for _, lit := range []Literal{a, b, c} {
		if got := len(w.List(lit)); got != 0 {
			t.Errorf("List(%s) after DetachTri: got %d, want 0", lit, got)
		}
	}
}

func TestWatchIndex_AttachDetachLong(t *testing.T) {
	w := &WatchIndex{}
	for i := 0; i < 6; i++ {
		w.Grow()
	}
	arena := smallArena()

	lits := []Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)}
	ref, _ := arena.Alloc(lits, false, 0, 0)

	w.AttachLong(ref, lits)

	// AttachLong watches the first two literals directly: a list keyed by a
	// literal is scanned when that literal is falsified.
	if got := len(w.List(lits[0])); got != 1 {
		t.Fatalf("List(lits[0]): got %d watchers, want 1", got)
	}
	if got := len(w.List(lits[1])); got != 1 {
		t.Fatalf("List(lits[1]): got %d watchers, want 1", got)
	}
	if got := len(w.List(lits[2])); got != 0 {
		t.Errorf("List(lits[2]): got %d watchers, want 0 (not a watched slot)", got)
	}

	w.DetachLong(ref, lits)
	if got := len(w.List(lits[0])); got != 0 {
		t.Errorf("List(lits[0]) after DetachLong: got %d, want 0", got)
	}
	if got := len(w.List(lits[1])); got != 0 {
		t.Errorf("List(lits[1]) after DetachLong: got %d, want 0", got)
	}
}

func TestWatchIndex_RewriteRefs(t *testing.T) {
	w := &WatchIndex{}
	for i := 0; i < 4; i++ {
		w.Grow()
	}
	lits := []Literal{PositiveLiteral(0), PositiveLiteral(1)}
	oldRef := ClauseRef(42)
	w.AttachLong(oldRef, lits)

	newRef := ClauseRef(99)
	w.RewriteRefs(func(old ClauseRef) ClauseRef {
		if old == oldRef {
			return newRef
		}
		return old
	})

	for _, lit := range lits {
		if got := w.List(lit)[0].Ref(); got != newRef {
			t.Errorf("List(%s)[0].Ref(): got %d, want %d", lit, got, newRef)
		}
	}
}

func TestWatchIndex_ScanCompactsInPlace(t *testing.T) {
	w := &WatchIndex{}
	for i := 0; i < 4; i++ {
		w.Grow()
	}

	lit := PositiveLiteral(0)
	w.Append(lit, BinWatcher(PositiveLiteral(1), false))
	w.Append(lit, BinWatcher(PositiveLiteral(2), false))
	w.Append(lit, BinWatcher(PositiveLiteral(3), false))

	scan := w.beginScan(lit)
	for !scan.done() {
		watcher := scan.next()
		if watcher.Other() == PositiveLiteral(2) {
			continue // drop this one
		}
		scan.keep(watcher)
	}
	scan.finish(w, lit)

	want := []Watcher{BinWatcher(PositiveLiteral(1), false), BinWatcher(PositiveLiteral(3), false)}
	if diff := cmp.Diff(want, w.List(lit), cmp.AllowUnexported(Watcher{})); diff != "" {
		t.Errorf("scan compaction: mismatch (-want +got):\n%s", diff)
	}
}
