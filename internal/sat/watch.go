package sat

// watcherKind tags the three shapes a Watcher can take (spec.md §3).
type watcherKind uint8

const (
	watchBin watcherKind = iota
	watchTri
	watchLong
)

// Watcher is one entry in a literal's watch list. Exactly one of the
// payloads is meaningful, selected by kind:
//
//   - Bin:  other is the binary clause's other literal.
//   - Tri:  other, other2 are the ternary clause's other two literals.
//   - Long: ref is the clause reference, blocker is a cached literal of the
//     clause used to short-circuit satisfaction checks without touching the
//     arena (spec.md §9: required for performance, not optional).
type Watcher struct {
	kind      watcherKind
	other     Literal
	other2    Literal
	redundant bool
	ref       ClauseRef
}

// BinWatcher returns a Bin-shaped watcher.
func BinWatcher(other Literal, redundant bool) Watcher {
	return Watcher{kind: watchBin, other: other, redundant: redundant}
}

// TriWatcher returns a Tri-shaped watcher.
func TriWatcher(a, b Literal, redundant bool) Watcher {
	return Watcher{kind: watchTri, other: a, other2: b, redundant: redundant}
}

// LongWatcher returns a Long-shaped watcher.
func LongWatcher(ref ClauseRef, blocker Literal) Watcher {
	return Watcher{kind: watchLong, ref: ref, other: blocker}
}

func (w Watcher) IsBin() bool  { return w.kind == watchBin }
func (w Watcher) IsTri() bool  { return w.kind == watchTri }
func (w Watcher) IsLong() bool { return w.kind == watchLong }

func (w Watcher) Other() Literal    { return w.other }
func (w Watcher) Other2() Literal   { return w.other2 }
func (w Watcher) Redundant() bool   { return w.redundant }
func (w Watcher) Ref() ClauseRef    { return w.ref }
func (w Watcher) Blocker() Literal  { return w.other }
func (w Watcher) WithBlocker(l Literal) Watcher {
	w.other = l
	return w
}

// WatchIndex holds the per-literal watch lists. Size is 2*numVars. The
// propagator manipulates lists with a two-pointer in-place scan: appending
// to a *different* literal's list during a scan is safe (lists are
// disjoint); appending to the list currently being scanned is forbidden
// (spec.md §4.2, §9).
type WatchIndex struct {
	lists [][]Watcher
}

// Grow appends two fresh (empty) lists, one per polarity of a new variable.
func (w *WatchIndex) Grow() {
	w.lists = append(w.lists, nil, nil)
}

// List returns the watch list for lit. The returned slice aliases internal
// storage; callers performing a scan should use beginScan instead so that
// in-place compaction is done correctly.
func (w *WatchIndex) List(lit Literal) []Watcher {
	return w.lists[lit]
}

// Append adds watcher to lit's list. Safe to call for any literal other
// than the one currently being scanned by beginScan.
func (w *WatchIndex) Append(lit Literal, watcher Watcher) {
	w.lists[lit] = append(w.lists[lit], watcher)
}

// AttachLong registers a long clause's two watched slots (lits[0], lits[1]).
// A watch list keyed by literal K is scanned exactly when K is falsified
// (spec.md §4.2), so the watcher goes under the literal itself, not its
// negation — the same convention AttachBin/AttachTri use.
func (w *WatchIndex) AttachLong(ref ClauseRef, lits []Literal) {
	w.Append(lits[0], LongWatcher(ref, lits[1]))
	w.Append(lits[1], LongWatcher(ref, lits[0]))
}

// DetachLong removes the two watchers installed by AttachLong.
func (w *WatchIndex) DetachLong(ref ClauseRef, lits []Literal) {
	w.detach(lits[0], func(watcher Watcher) bool {
		return watcher.IsLong() && watcher.ref == ref
	})
	w.detach(lits[1], func(watcher Watcher) bool {
		return watcher.IsLong() && watcher.ref == ref
	})
}

// AttachBin registers clause {a, b} in both members' watch lists.
func (w *WatchIndex) AttachBin(a, b Literal, redundant bool) {
	w.Append(a, BinWatcher(b, redundant))
	w.Append(b, BinWatcher(a, redundant))
}

// DetachBin removes the watchers installed by AttachBin.
func (w *WatchIndex) DetachBin(a, b Literal) {
	w.detach(a, func(watcher Watcher) bool { return watcher.IsBin() && watcher.other == b })
	w.detach(b, func(watcher Watcher) bool { return watcher.IsBin() && watcher.other == a })
}

// AttachTri registers clause {a, b, c} in all three members' watch lists.
func (w *WatchIndex) AttachTri(a, b, c Literal, redundant bool) {
	w.Append(a, TriWatcher(b, c, redundant))
	w.Append(b, TriWatcher(a, c, redundant))
	w.Append(c, TriWatcher(a, b, redundant))
}

// DetachTri removes the watchers installed by AttachTri.
func (w *WatchIndex) DetachTri(a, b, c Literal) {
	has := func(x, y Literal) func(Watcher) bool {
		return func(watcher Watcher) bool {
			return watcher.IsTri() && ((watcher.other == x && watcher.other2 == y) || (watcher.other == y && watcher.other2 == x))
		}
	}
	w.detach(a, has(b, c))
	w.detach(b, has(a, c))
	w.detach(c, has(a, b))
}

func (w *WatchIndex) detach(lit Literal, match func(Watcher) bool) {
	list := w.lists[lit]
	j := 0
	for i := range list {
		if match(list[i]) {
			continue
		}
		list[j] = list[i]
		j++
	}
	w.lists[lit] = list[:j]
}

// RewriteRefs is called by Arena.Consolidate's rewriter: every Long
// watcher's ref is remapped in place.
func (w *WatchIndex) RewriteRefs(mapRef func(ClauseRef) ClauseRef) {
	for lit := range w.lists {
		list := w.lists[lit]
		for i := range list {
			if list[i].IsLong() {
				list[i].ref = mapRef(list[i].ref)
			}
		}
	}
}

// FreeUnused clears and shrinks every watch list for a literal satisfying
// pred (e.g. the variable has been eliminated by an inprocessing pass).
func (w *WatchIndex) FreeUnused(pred func(lit Literal) bool) {
	for lit := range w.lists {
		if pred(Literal(lit)) {
			w.lists[lit] = nil
		}
	}
}

// scanState drives the two-pointer compaction scan over a single literal's
// watch list during propagation. Appends to *other* lists during the scan
// are safe; Keep/overwrite operate only on this list.
type scanState struct {
	list  []Watcher
	read  int
	write int
}

func (w *WatchIndex) beginScan(lit Literal) *scanState {
	return &scanState{list: w.lists[lit]}
}

func (s *scanState) done() bool { return s.read >= len(s.list) }

func (s *scanState) next() Watcher {
	watcher := s.list[s.read]
	s.read++
	return watcher
}

// keep re-emits the most recently read watcher (or an updated copy of it)
// into the write position.
func (s *scanState) keep(watcher Watcher) {
	s.list[s.write] = watcher
	s.write++
}

// finish truncates the list to the number of kept watchers and, if the scan
// stopped early (conflict), copies through the remaining unread entries
// untouched.
func (s *scanState) finish(w *WatchIndex, lit Literal) {
	for s.read < len(s.list) {
		s.list[s.write] = s.list[s.read]
		s.write++
		s.read++
	}
	w.lists[lit] = s.list[:s.write]
}
