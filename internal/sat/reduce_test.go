package sat

import "testing"

func refSet(refs []ClauseRef) map[ClauseRef]bool {
	m := make(map[ClauseRef]bool, len(refs))
	for _, r := range refs {
		m[r] = true
	}
	return m
}

func allocScored(t *testing.T, arena *Arena, glue uint32, activity float32) ClauseRef {
	t.Helper()
	ref, err := arena.Alloc([]Literal{PositiveLiteral(0), PositiveLiteral(1)}, true, glue, 0)
	if err != nil {
		t.Fatalf("Alloc(): %v", err)
	}
	arena.Get(ref).SetActivity(activity)
	return ref
}

func TestReduceDB_KeepsProtectedGlue(t *testing.T) {
	arena := smallArena()
	opts := DefaultReduceOptions // GlueProtected: true, GlueProtectedLimit: 2

	protected := allocScored(t, arena, 2, 0)   // glue <= limit, always kept
	reducible := allocScored(t, arena, 10, 0)  // high glue, no activity: prime deletion target

	kept, deleted := ReduceDB(arena, []ClauseRef{protected, reducible}, opts, func(ClauseRef) bool { return false })

	if !refSet(kept)[protected] {
		t.Errorf("kept: %v, want to include the glue-protected clause %d", kept, protected)
	}
	if !refSet(deleted)[reducible] {
		t.Errorf("deleted: %v, want to include the unprotected clause %d", deleted, reducible)
	}
}

func TestReduceDB_KeepsLockedRegardlessOfScore(t *testing.T) {
	arena := smallArena()
	opts := ReduceOptions{GlueProtected: false}

	locked := allocScored(t, arena, 99, 0) // worst possible score, but locked
	other := allocScored(t, arena, 1, 100) // best possible score

	isLocked := func(ref ClauseRef) bool { return ref == locked }
	kept, deleted := ReduceDB(arena, []ClauseRef{locked, other}, opts, isLocked)

	if !refSet(kept)[locked] {
		t.Errorf("kept: %v, want to include the locked clause %d", kept, locked)
	}
	if refSet(deleted)[locked] {
		t.Errorf("deleted: %v, want to exclude the locked clause %d", deleted, locked)
	}
}

func TestReduceDB_ProtectionIsOneShot(t *testing.T) {
	arena := smallArena()
	opts := ReduceOptions{GlueProtected: false}

	ref := allocScored(t, arena, 99, 0)
	arena.Get(ref).SetProtected(true)

	notLocked := func(ClauseRef) bool { return false }

	kept1, deleted1 := ReduceDB(arena, []ClauseRef{ref}, opts, notLocked)
	if !refSet(kept1)[ref] || len(deleted1) != 0 {
		t.Fatalf("first ReduceDB: kept=%v deleted=%v, want the protected clause kept", kept1, deleted1)
	}
	if arena.Get(ref).Protected() {
		t.Errorf("Protected() after first ReduceDB: got true, want false (one-shot)")
	}

	// Second pass: protection already consumed, and nothing else competes
	// for the other half of the split, so the clause is now reducible.
	_, deleted2 := ReduceDB(arena, []ClauseRef{ref}, opts, notLocked)
	if !refSet(deleted2)[ref] {
		t.Errorf("second ReduceDB: deleted=%v, want the clause deleted now that protection is spent", deleted2)
	}
}

func TestReduceDB_SortsGlueAscendingThenActivityDescending_DeletesWorseHalf(t *testing.T) {
	arena := smallArena()
	opts := ReduceOptions{GlueProtected: false}

	// Four clauses, all unlocked, deliberately out of sorted order:
	// (glue, activity) — lower glue is better; within equal glue, higher
	// activity is better.
	best := allocScored(t, arena, 1, 10)    // best: lowest glue
	second := allocScored(t, arena, 3, 10)   // tied glue with third, higher activity wins
	third := allocScored(t, arena, 3, 1)
	worst := allocScored(t, arena, 9, 0)     // worst: highest glue

	learnts := []ClauseRef{worst, third, best, second} // shuffled input order
	notLocked := func(ClauseRef) bool { return false }

	kept, deleted := ReduceDB(arena, learnts, opts, notLocked)

	wantKept := refSet([]ClauseRef{best, second})
	wantDeleted := refSet([]ClauseRef{third, worst})

	if len(kept) != 2 || !wantKept[kept[0]] || !wantKept[kept[1]] {
		t.Errorf("kept: got %v, want the two best-scored clauses %v", kept, []ClauseRef{best, second})
	}
	gotDeleted := refSet(deleted)
	for ref := range wantDeleted {
		if !gotDeleted[ref] {
			t.Errorf("deleted: got %v, want to include %d (worse half)", deleted, ref)
		}
	}
}

func TestNextMaxLearnt_GrowsByConfiguredFactor(t *testing.T) {
	opts := ReduceOptions{MaxLearntGrowth: 1.1}

	if got := NextMaxLearnt(2000, opts); got != 2200 {
		t.Errorf("NextMaxLearnt(2000): got %d, want 2200", got)
	}
}

func TestNextMaxLearnt_AlwaysGrowsByAtLeastOne(t *testing.T) {
	opts := ReduceOptions{MaxLearntGrowth: 1.0}

	if got := NextMaxLearnt(10, opts); got != 11 {
		t.Errorf("NextMaxLearnt(10) with no-op growth factor: got %d, want 11 (must still make progress)", got)
	}
}
