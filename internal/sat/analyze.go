package sat

// Analyzer implements 1-UIP conflict analysis with recursive
// self-subsumption minimization (spec.md §4.5.2) using an explicit stack,
// never Go's call stack, per spec.md §9 ("Analyze without recursion").
type Analyzer struct {
	trail *Trail
	arena *Arena
	seen  *ResetSet

	// glueSeen is keyed by decision level, not variable id, and sized
	// NumVars()+1 (a decision level can legitimately reach NumVars() when
	// every variable is its own decision with no propagation). It must
	// never be aliased with seen, which is keyed by variable id and sized
	// only NumVars().
	glueSeen *ResetSet

	bumpVar    func(Var)
	bumpClause func(ClauseRef)

	learnt  []Literal // reused scratch buffer
	stack   []Literal // explicit minimization DFS stack
	scratch []Literal
}

// NewAnalyzer wires an Analyzer to the given components. bumpVar is called
// once per distinct variable encountered during analysis, to drive the
// decision heuristic's activity bump (spec.md §4.5.1). bumpClause is called
// whenever a redundant long clause is resolved against, driving clause
// activity for database reduction (spec.md §4.5.3), matching the teacher's
// ExplainAssign/ExplainFailure clause-activity bump.
func NewAnalyzer(trail *Trail, arena *Arena, seen, glueSeen *ResetSet, bumpVar func(Var), bumpClause func(ClauseRef)) *Analyzer {
	return &Analyzer{trail: trail, arena: arena, seen: seen, glueSeen: glueSeen, bumpVar: bumpVar, bumpClause: bumpClause}
}

// explainConflict returns the literals of the clause that conflicted, all
// False under the current assignment.
func (an *Analyzer) explainConflict(c ConflictSource) []Literal {
	an.scratch = an.scratch[:0]
	switch c.kind {
	case watchBin:
		an.scratch = append(an.scratch, c.p, c.a)
	case watchTri:
		an.scratch = append(an.scratch, c.p, c.a, c.b)
	case watchLong:
		cl := an.arena.Get(c.ref)
		if cl.Redundant() && an.bumpClause != nil {
			an.bumpClause(c.ref)
		}
		an.scratch = append(an.scratch, cl.Literals()...)
	}
	return an.scratch
}

// explainReason returns the literals of l's reason clause other than l
// itself (i.e. the literals False at the time l was implied).
func (an *Analyzer) explainReason(r Reason) []Literal {
	an.scratch = an.scratch[:0]
	switch r.kind {
	case reasonBinary:
		an.scratch = append(an.scratch, r.a)
	case reasonTernary:
		an.scratch = append(an.scratch, r.a, r.b)
	case reasonLong:
		cl := an.arena.Get(r.ref)
		if cl.Redundant() && an.bumpClause != nil {
			an.bumpClause(r.ref)
		}
		for i := 1; i < cl.Len(); i++ {
			an.scratch = append(an.scratch, cl.Lit(i))
		}
	}
	return an.scratch
}

// Result is the output of Analyze: a learnt clause and the level to
// backjump to.
type Result struct {
	Learnt          []Literal
	BackjumpLevel   int
	Glue            int
}

// Analyze walks the implication graph backward from conflict to the first
// unique implication point, producing a learnt clause whose first literal
// is the asserting (1-UIP) literal (spec.md §4.5.2).
func (an *Analyzer) Analyze(conflict ConflictSource) Result {
	an.seen.Clear()
	an.learnt = append(an.learnt[:0], 0) // placeholder for the FUIP

	pathC := 0
	curLevel := an.trail.DecisionLevel()
	backtrackLevel := 0

	reasonLits := an.explainConflict(conflict)
	// Copy out of the shared scratch buffer since the inner loop below
	// reuses an.scratch via explainReason.
	firstReason := append([]Literal(nil), reasonLits...)

	nextIndex := an.trail.Len() - 1
	var p Literal
	first := true

	for {
		var lits []Literal
		if first {
			lits = firstReason
			first = false
		} else {
			lits = an.explainReason(an.trail.ReasonOf(p.VarID()))
		}

		for _, q := range lits {
			v := q.VarID()
			if an.seen.Contains(int(v)) {
				continue
			}
			an.seen.Add(int(v))
			if an.bumpVar != nil {
				an.bumpVar(v)
			}
			if an.trail.Level(v) == curLevel {
				pathC++
				continue
			}
			an.learnt = append(an.learnt, q)
			if lvl := an.trail.Level(v); lvl > backtrackLevel {
				backtrackLevel = lvl
			}
		}

		for {
			p = an.trail.At(nextIndex)
			nextIndex--
			if an.seen.Contains(int(p.VarID())) {
				break
			}
		}

		pathC--
		if pathC <= 0 {
			break
		}
	}

	an.learnt[0] = p.Opposite()

	an.minimize()

	// Recompute the backjump level and the asserting literal's watch
	// position after minimization may have dropped literals.
	if len(an.learnt) == 1 {
		backtrackLevel = 0
	} else {
		backtrackLevel = 0
		maxAt := 1
		for i := 1; i < len(an.learnt); i++ {
			if lvl := an.trail.Level(an.learnt[i].VarID()); lvl > backtrackLevel {
				backtrackLevel = lvl
				maxAt = i
			}
		}
		an.learnt[1], an.learnt[maxAt] = an.learnt[maxAt], an.learnt[1]
	}

	glue := an.glueOf(an.learnt)

	out := make([]Literal, len(an.learnt))
	copy(out, an.learnt)

	return Result{Learnt: out, BackjumpLevel: backtrackLevel, Glue: glue}
}

// minimize drops every literal in learnt[1:] whose assignment is
// "redundant": implied transitively by literals already in the learnt
// clause (spec.md §4.5.2 step 3).
func (an *Analyzer) minimize() {
	k := 1
	for i := 1; i < len(an.learnt); i++ {
		lit := an.learnt[i]
		reason := an.trail.ReasonOf(lit.VarID())
		if reason.IsDecision() || !an.isRedundant(lit) {
			an.learnt[k] = lit
			k++
		}
	}
	an.learnt = an.learnt[:k]
}

// isRedundant performs the explicit-stack DFS: lit is redundant iff every
// literal in its reason clause (other than lit itself) is already seen or
// is itself transitively redundant. Variables marked during a search that
// fails are unmarked again, so they never count as covered later.
func (an *Analyzer) isRedundant(lit Literal) bool {
	an.stack = an.stack[:0]
	an.stack = append(an.stack, lit)

	var marked []Var
	fail := func() bool {
		for _, v := range marked {
			an.seen.addedAt[v] = an.seen.addedTimestamp - 1
		}
		return false
	}

	for len(an.stack) > 0 {
		cur := an.stack[len(an.stack)-1]
		an.stack = an.stack[:len(an.stack)-1]

		reason := an.trail.ReasonOf(cur.VarID())
		if reason.IsDecision() {
			return fail()
		}
		for _, q := range an.explainReason(reason) {
			v := q.VarID()
			if an.seen.Contains(int(v)) {
				continue
			}
			r := an.trail.ReasonOf(v)
			if r.IsDecision() {
				return fail()
			}
			an.seen.Add(int(v))
			marked = append(marked, v)
			an.stack = append(an.stack, q)
		}
	}
	return true
}

// glueOf counts the number of distinct decision levels among lits (the
// clause's LBD/glue, spec.md's Glossary).
func (an *Analyzer) glueOf(lits []Literal) int {
	an.glueSeen.Clear()
	count := 0
	for _, l := range lits {
		lvl := an.trail.Level(l.VarID())
		if !an.glueSeen.Contains(lvl) {
			an.glueSeen.Add(lvl)
			count++
		}
	}
	return count
}
