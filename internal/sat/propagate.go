package sat

// ConflictSource identifies which clause shape produced a conflict so that
// Analyze can extract its literals uniformly (spec.md §4.5.2).
type ConflictSource struct {
	kind watcherKind
	p    Literal // the literal whose falsification triggered the conflict
	a, b Literal // Binary: a is the other literal. Ternary: a, b.
	ref  ClauseRef
}

// Propagator runs watched-literal BCP over a Trail/WatchIndex/Arena triple,
// draining a FIFO queue head into the trail (spec.md §4.4).
type Propagator struct {
	trail  *Trail
	watch  *WatchIndex
	arena  *Arena
	qhead  int
}

// NewPropagator wires a Propagator to the given components.
func NewPropagator(trail *Trail, watch *WatchIndex, arena *Arena) *Propagator {
	return &Propagator{trail: trail, watch: watch, arena: arena}
}

// QHead returns the index into the trail up to which literals have already
// been propagated.
func (p *Propagator) QHead() int { return p.qhead }

// ResetQHead rewinds the propagation queue to the given trail index, used
// after CancelUntil truncates the trail below the previous qhead.
func (p *Propagator) ResetQHead(n int) {
	if n < p.qhead {
		p.qhead = n
	}
}

// Propagate drains trail[qhead:] in FIFO order. It returns either a
// no-conflict sentinel (fixed point reached) or the first conflicting
// clause encountered (spec.md §4.4: propagate stops immediately on
// conflict). On conflict qhead jumps to the end of the trail, so literals
// not yet processed are dropped from the queue rather than kept pending.
func (p *Propagator) Propagate() (ConflictSource, bool) {
	for p.qhead < p.trail.Len() {
		lit := p.trail.At(p.qhead)
		p.qhead++

		notLit := lit.Opposite()
		scan := p.watch.beginScan(notLit)

		for !scan.done() {
			w := scan.next()

			switch w.kind {
			case watchBin:
				switch p.trail.Value(w.other) {
				case True:
					scan.keep(w)
				case False:
					scan.keep(w)
					scan.finish(p.watch, notLit)
					p.propQueueClearOnConflict()
					return ConflictSource{kind: watchBin, p: notLit, a: w.other}, true
				default:
					p.enqueue(w.other, binaryReason(notLit))
					scan.keep(w)
				}

			case watchTri:
				a, b := w.other, w.other2
				va, vb := p.trail.Value(a), p.trail.Value(b)
				switch {
				case va == True || vb == True:
					scan.keep(w)
				case va == False && vb == False:
					scan.keep(w)
					scan.finish(p.watch, notLit)
					p.propQueueClearOnConflict()
					return ConflictSource{kind: watchTri, p: notLit, a: a, b: b}, true
				case va == Unknown && vb == False:
					p.enqueue(a, ternaryReason(notLit, b))
					scan.keep(w)
				case va == False && vb == Unknown:
					p.enqueue(b, ternaryReason(notLit, a))
					scan.keep(w)
				default: // both unassigned
					scan.keep(w)
				}

			case watchLong:
				if p.trail.Value(w.Blocker()) == True {
					scan.keep(w)
					continue
				}

				cl := p.arena.Get(w.ref)
				if cl.Lit(0) == notLit {
					cl.Swap(0, 1)
				}

				first := cl.Lit(0)
				if p.trail.Value(first) == True {
					scan.keep(w.WithBlocker(first))
					continue
				}

				moved := false
				for k := 2; k < cl.Len(); k++ {
					if p.trail.Value(cl.Lit(k)) != False {
						cl.Swap(1, k)
						newWatch := cl.Lit(1)
						p.watch.Append(newWatch, LongWatcher(w.ref, first))
						moved = true
						break
					}
				}
				if moved {
					continue // do not keep w in this (old) list
				}

				scan.keep(w.WithBlocker(first))
				if p.trail.Value(first) == False {
					scan.finish(p.watch, notLit)
					p.propQueueClearOnConflict()
					return ConflictSource{kind: watchLong, p: notLit, ref: w.ref}, true
				}
				p.enqueue(first, longReason(w.ref))
			}
		}

		scan.finish(p.watch, notLit)
	}

	return ConflictSource{}, false
}

func (p *Propagator) propQueueClearOnConflict() {
	p.qhead = p.trail.Len()
}

func (p *Propagator) enqueue(l Literal, reason Reason) {
	p.trail.Enqueue(l, reason)
}
