package sat

// reasonKind tags why a trail entry's variable was assigned (spec.md §3).
type reasonKind uint8

const (
	reasonDecision reasonKind = iota
	reasonBinary
	reasonTernary
	reasonLong
)

// Reason records why a variable was assigned, so conflict analysis can walk
// back through the implication graph without special-casing clause shapes.
type Reason struct {
	kind reasonKind
	a, b Literal    // Binary: a is the other (false) literal. Ternary: a, b.
	ref  ClauseRef  // Long: slot 0 of the clause equals the implied literal.
}

func decisionReason() Reason                { return Reason{kind: reasonDecision} }
func binaryReason(other Literal) Reason      { return Reason{kind: reasonBinary, a: other} }
func ternaryReason(a, b Literal) Reason      { return Reason{kind: reasonTernary, a: a, b: b} }
func longReason(ref ClauseRef) Reason        { return Reason{kind: reasonLong, ref: ref} }

func (r Reason) IsDecision() bool { return r.kind == reasonDecision }

// Trail holds the partial assignment as an ordered sequence of literals,
// partitioned into decision levels (spec.md §4.3).
type Trail struct {
	values []LBool // indexed by literal; redundant across lit/opposite(lit)
	level  []int32 // indexed by Var
	reason []Reason
	phase  []LBool // last value a variable held, for phase saving

	trail    []Literal
	trailLim []int32
}

// Grow expands every per-variable/per-literal table for one new variable.
func (t *Trail) Grow(defaultPhase LBool) {
	t.values = append(t.values, Unknown, Unknown)
	t.level = append(t.level, -1)
	t.reason = append(t.reason, Reason{})
	t.phase = append(t.phase, defaultPhase)
}

// NumVars returns the number of declared variables.
func (t *Trail) NumVars() int { return len(t.level) }

// DecisionLevel returns the current decision level (trail_lim.size()).
func (t *Trail) DecisionLevel() int { return len(t.trailLim) }

// Value returns the current value of a literal.
func (t *Trail) Value(l Literal) LBool { return t.values[l] }

// VarValue returns the current value of a variable (as its positive
// literal's value).
func (t *Trail) VarValue(v Var) LBool { return t.values[PositiveLiteral(v)] }

// Level returns the decision level at which v was assigned, or -1 if
// unassigned.
func (t *Trail) Level(v Var) int { return int(t.level[v]) }

// ReasonOf returns the reason v was assigned.
func (t *Trail) ReasonOf(v Var) Reason { return t.reason[v] }

// Phase returns the last value saved for v (the defaultPhase passed to Grow
// if v was never unassigned by CancelUntil).
func (t *Trail) Phase(v Var) LBool { return t.phase[v] }

// rewriteReasonRefs is called by Arena.Consolidate's rewriter: every
// reasonLong entry's ref is remapped in place so stale ClauseRefs never
// survive a compaction.
func (t *Trail) rewriteReasonRefs(mapRef func(ClauseRef) ClauseRef) {
	for i := range t.reason {
		if t.reason[i].kind == reasonLong {
			t.reason[i].ref = mapRef(t.reason[i].ref)
		}
	}
}

// Len returns the number of currently assigned literals.
func (t *Trail) Len() int { return len(t.trail) }

// At returns the i-th trail entry in assignment order.
func (t *Trail) At(i int) Literal { return t.trail[i] }

// Enqueue assigns l to True with the given reason. Precondition: Value(l)
// == Unknown. Enqueue does not check it and reports nothing: callers check
// Value first, and Enqueue trusts the precondition like the rest of
// spec.md §4.3's contract.
func (t *Trail) Enqueue(l Literal, reason Reason) {
	v := l.VarID()
	t.values[l] = True
	t.values[l.Opposite()] = False
	t.level[v] = int32(t.DecisionLevel())
	t.reason[v] = reason
	t.trail = append(t.trail, l)
}

// NewDecisionLevel opens a new decision level.
func (t *Trail) NewDecisionLevel() {
	t.trailLim = append(t.trailLim, int32(len(t.trail)))
}

// CancelUntil undoes every trail entry assigned at a level strictly greater
// than level: value and reason are cleared, and the variable's last value
// is saved as its phase (spec.md §4.3, §4.5.1).
func (t *Trail) CancelUntil(level int, onUndo func(v Var)) {
	for t.DecisionLevel() > level {
		start := int(t.trailLim[len(t.trailLim)-1])
		for i := len(t.trail) - 1; i >= start; i-- {
			l := t.trail[i]
			v := l.VarID()
			t.phase[v] = t.values[PositiveLiteral(v)]
			t.values[l] = Unknown
			t.values[l.Opposite()] = Unknown
			t.reason[v] = Reason{}
			t.level[v] = -1
			if onUndo != nil {
				onUndo(v)
			}
		}
		t.trail = t.trail[:start]
		t.trailLim = t.trailLim[:len(t.trailLim)-1]
	}
}
