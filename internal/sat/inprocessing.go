package sat

// This file implements the Core↔Inprocessing boundary (spec.md §6): a
// narrow set of hooks that let an external pass (bounded variable
// elimination, subsumption, vivification — all out of core scope) observe
// and rewrite the clause database between search epochs, without the core
// knowing anything about what runs on the other side of the boundary.

// DetachAll removes every clause (original and learnt, every size) from
// the watch index, leaving the arena and clause-ownership lists untouched.
// An inprocessing pass calls this before it starts rewriting clauses in
// place so that stale watchers never observe a half-rewritten clause;
// ReattachAll rebuilds the index once the pass is done.
func (s *Solver) DetachAll() {
	for _, b := range s.bins {
		s.watch.DetachBin(b.a, b.b)
	}
	for _, t := range s.tris {
		s.watch.DetachTri(t.a, t.b, t.c)
	}
	for _, ref := range s.longOriginal {
		s.watch.DetachLong(ref, s.arena.Get(ref).Literals())
	}
	for _, ref := range s.longLearnt {
		s.watch.DetachLong(ref, s.arena.Get(ref).Literals())
	}
}

// ReattachAll rebuilds the watch index from the current clause-ownership
// lists, the inverse of DetachAll. Clauses an inprocessing pass rewrote in
// place (via ArenaIter) or dropped (via FreeClause) are picked up as they
// now stand.
func (s *Solver) ReattachAll() {
	for _, b := range s.bins {
		s.watch.AttachBin(b.a, b.b, false)
	}
	for _, t := range s.tris {
		s.watch.AttachTri(t.a, t.b, t.c, false)
	}
	for _, ref := range s.longOriginal {
		s.watch.AttachLong(ref, s.arena.Get(ref).Literals())
	}
	for _, ref := range s.longLearnt {
		s.watch.AttachLong(ref, s.arena.Get(ref).Literals())
	}
}

// ArenaIter calls visit once for every live long clause in arena storage
// (original and learnt), in an unspecified order. visit may rewrite the
// clause's literals in place (Clause.SetLit/Swap) but must not change its
// length; the caller is responsible for Detach/ReattachAll around the
// iteration.
func (s *Solver) ArenaIter(visit func(ref ClauseRef, cl Clause)) {
	for _, ref := range s.longOriginal {
		visit(ref, s.arena.Get(ref))
	}
	for _, ref := range s.longLearnt {
		visit(ref, s.arena.Get(ref))
	}
}

// ForEachOriginal calls visit once per clause still live in the solver,
// passing its literals, letting an inprocessing pass build its own
// occurrence lists without reaching into solver internals. Long clauses
// are the original ones only, but binary and ternary clauses are visited
// whether original or learnt (learnt and injected ones share the same
// lists).
func (s *Solver) ForEachOriginal(visit func(lits []Literal)) {
	for _, b := range s.bins {
		visit([]Literal{b.a, b.b})
	}
	for _, t := range s.tris {
		visit([]Literal{t.a, t.b, t.c})
	}
	for _, ref := range s.longOriginal {
		visit(s.arena.Get(ref).Literals())
	}
}

// ForEachLearnt is ForEachOriginal's counterpart over the learnt database.
// It visits learnt long clauses only; learnt binary and ternary clauses are
// not visited here (ForEachOriginal reports them).
func (s *Solver) ForEachLearnt(visit func(lits []Literal)) {
	for _, ref := range s.longLearnt {
		visit(s.arena.Get(ref).Literals())
	}
}

// RootLevelUnits returns every literal currently forced at decision level
// 0, the set an inprocessing pass treats as ground truth (spec.md §6).
func (s *Solver) RootLevelUnits() []Literal {
	var units []Literal
	for i := 0; i < s.trail.Len(); i++ {
		l := s.trail.At(i)
		if s.trail.Level(l.VarID()) != 0 {
			break
		}
		units = append(units, l)
	}
	return units
}

// FreeClause marks ref's arena storage as reclaimable and drops it from
// whichever ownership list (original or learnt) currently holds it. Used
// by an inprocessing pass that has proven a clause subsumed or otherwise
// redundant. The caller must have called DetachAll first.
func (s *Solver) FreeClause(ref ClauseRef) {
	s.arena.Free(ref)
	s.longOriginal = removeRef(s.longOriginal, ref)
	s.longLearnt = removeRef(s.longLearnt, ref)
}

func removeRef(refs []ClauseRef, target ClauseRef) []ClauseRef {
	j := 0
	for _, r := range refs {
		if r == target {
			continue
		}
		refs[j] = r
		j++
	}
	return refs[:j]
}
