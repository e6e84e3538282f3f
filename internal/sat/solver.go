package sat

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

// Options configures a Solver (spec.md §4.5.4, §9; ambient knobs per
// SPEC_FULL.md §10).
type Options struct {
	ClauseDecay   float64
	VariableDecay float64
	RandomVarFreq float64
	PhaseSaving   bool
	DefaultPhase  LBool
	RandomSeed    int64

	Arena   ArenaOptions
	Restart RestartOptions
	Reduce  ReduceOptions

	// XORCutThreshold bounds how wide an XOR constraint may be before
	// AddXORClause starts cutting it with auxiliary variables (spec.md §6).
	XORCutThreshold int

	MaxConflicts int64
	Timeout      time.Duration
}

// DefaultOptions mirrors the teacher's published constants, extended with
// the restart/reduce/arena defaults supplemented from CryptoMiniSat.
var DefaultOptions = Options{
	ClauseDecay:     0.999,
	VariableDecay:   0.95,
	RandomVarFreq:   0.02,
	PhaseSaving:     true,
	DefaultPhase:    False,
	RandomSeed:      1,
	Arena:           DefaultArenaOptions,
	Restart:         DefaultRestartOptions,
	Reduce:          DefaultReduceOptions,
	XORCutThreshold: 6,
	MaxConflicts:    -1,
	Timeout:         -1,
}

// binRecord/triRecord track original and learnt small clauses so Simplify
// and inprocessing iteration can walk them without rescanning watch lists
// (spec.md §6's ForEachOriginal/ForEachLearnt).
type binRecord struct{ a, b Literal }
type triRecord struct{ a, b, c Literal }

// Solver is the CDCL search engine (spec.md §4.5.4) wiring ARENA, WATCH,
// TRAIL, PROP, the 1-UIP analyzer, the activity-ordered decision heap and
// the restart/reduce policies into a single top-level search loop.
type Solver struct {
	opts Options

	trail Trail
	watch WatchIndex
	arena *Arena
	prop  *Propagator
	an    *Analyzer
	order *ActivityOrder
	rp    *RestartPolicy

	seen     *ResetSet
	glueSeen *ResetSet // keyed by decision level (spec.md's Glossary glue/LBD), not variable id

	clauseInc   float64
	clauseDecay float64

	bins         []binRecord
	tris         []triRecord
	longOriginal []ClauseRef
	longLearnt   []ClauseRef

	maxLearnt int

	unsat bool

	// Assumptions (spec.md §6): assumptions[0:assumeIdx) are already
	// decided; assumeIdx names the next one to try during pick.
	assumptions       []Literal
	assumeIdx         int
	failedAssumptions []Literal

	abort *atomic.Bool

	onNewLearntBinary func(a, b Literal)

	// Search statistics.
	TotalConflicts  int64
	TotalRestarts   int64
	TotalIterations int64
	startTime       time.Time

	Models [][]bool
}

// NewDefaultSolver returns a Solver configured with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions)
}

// NewSolver wires every component per opts (spec.md §4.5.4).
func NewSolver(opts Options) *Solver {
	s := &Solver{
		opts:        opts,
		clauseInc:   1,
		clauseDecay: opts.ClauseDecay,
		seen:        &ResetSet{},
		glueSeen:    &ResetSet{addedAt: make([]uint16, 1)}, // one slot for decision level 0
		maxLearnt:   opts.Reduce.InitialMaxLearnt,
		rp:          NewRestartPolicy(opts.Restart),
	}
	s.arena = NewArena(opts.Arena)
	s.prop = NewPropagator(&s.trail, &s.watch, s.arena)
	s.order = NewActivityOrder(opts.VariableDecay, opts.RandomVarFreq, opts.PhaseSaving, opts.DefaultPhase, rand.New(rand.NewSource(opts.RandomSeed)))
	s.an = NewAnalyzer(&s.trail, s.arena, s.seen, s.glueSeen, s.order.Bump, s.bumpClauseActivity)
	return s
}

// SetAbortFlag installs a cooperative cancellation flag: Solve checks it at
// every outer-loop boundary and returns StopAbortRequested as soon as it
// observes true (spec.md §7, §9 — no internal goroutines).
func (s *Solver) SetAbortFlag(flag *atomic.Bool) { s.abort = flag }

// OnNewLearntBinary registers a callback fired whenever search learns a new
// binary clause, the boundary spec.md §6 names for the multi-thread
// clause-sharing policy (out of core scope; the hook is the contract).
func (s *Solver) OnNewLearntBinary(cb func(a, b Literal)) { s.onNewLearntBinary = cb }

func (s *Solver) decisionLevel() int { return s.trail.DecisionLevel() }

// NumVariables returns the number of declared variables.
func (s *Solver) NumVariables() int { return s.trail.NumVars() }

// NumAssigns returns the number of currently assigned literals.
func (s *Solver) NumAssigns() int { return s.trail.Len() }

// NumLearnts returns the number of retained long learnt clauses.
func (s *Solver) NumLearnts() int { return len(s.longLearnt) }

// VarValue returns a variable's current assignment.
func (s *Solver) VarValue(v Var) LBool { return s.trail.VarValue(v) }

// AddVariable declares one fresh variable and grows every per-variable
// table; it returns the new variable's ID.
func (s *Solver) AddVariable() Var {
	v := Var(s.trail.NumVars())
	s.trail.Grow(s.opts.DefaultPhase)
	s.watch.Grow()
	s.seen.Expand()
	s.glueSeen.Expand() // one more reachable decision level per declared variable
	s.order.NewVar()
	return v
}

// NewVar is an alias for AddVariable satisfying xorHost.
func (s *Solver) NewVar() Var { return s.AddVariable() }

// AddClause adds an original (non-redundant) clause at decision level 0,
// applying the same dedupe/tautology/false-literal preprocessing as the
// teacher's NewClause before dispatching on final size (spec.md §4.1: sizes
// 0/1/2/3/>=4 each have a distinct storage shape).
func (s *Solver) AddClause(lits []Literal) error {
	if s.decisionLevel() != 0 {
		return ErrNotRootLevel
	}
	for _, l := range lits {
		if l.VarID() < 0 || int(l.VarID()) >= s.trail.NumVars() {
			return ErrInvalidInput
		}
	}

	clean, tautology := s.preprocess(lits)
	if tautology || s.unsat {
		return nil
	}

	switch len(clean) {
	case 0:
		s.unsat = true
	case 1:
		switch s.trail.Value(clean[0]) {
		case False:
			s.unsat = true
		case Unknown:
			s.trail.Enqueue(clean[0], decisionReason())
		}
	case 2:
		s.bins = append(s.bins, binRecord{clean[0], clean[1]})
		s.watch.AttachBin(clean[0], clean[1], false)
	case 3:
		s.tris = append(s.tris, triRecord{clean[0], clean[1], clean[2]})
		s.watch.AttachTri(clean[0], clean[1], clean[2], false)
	default:
		ref, err := s.arena.Alloc(clean, false, 0, 0)
		if err != nil {
			s.unsat = true
			return err
		}
		s.longOriginal = append(s.longOriginal, ref)
		s.watch.AttachLong(ref, clean)
	}

	return nil
}

// preprocess drops duplicate literals, detects tautologies (l and !l both
// present), and drops literals already False at level 0, mirroring the
// teacher's NewClause.
func (s *Solver) preprocess(lits []Literal) (clean []Literal, tautology bool) {
	s.seen.Clear()
	out := make([]Literal, 0, len(lits))
	for _, l := range lits {
		if s.trail.Value(l) == True {
			return nil, true
		}
		if s.trail.Value(l) == False {
			continue
		}
		v := int(l.VarID())
		if s.seen.Contains(v) {
			dup := false
			for _, o := range out {
				if o == l {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			return nil, true // l and !l both present: tautology
		}
		s.seen.Add(v)
		out = append(out, l)
	}
	return out, false
}

// AddXORClause adds a parity constraint, Tseitin-cutting it above
// opts.XORCutThreshold literals (spec.md §6).
func (s *Solver) AddXORClause(lits []Literal, rhs bool) error {
	return AddXORClause(s, lits, rhs, s.opts.XORCutThreshold)
}

// InjectLearntUnit adds a unit clause learnt externally (e.g. by an
// inprocessing pass), valid only at decision level 0 (spec.md §6).
func (s *Solver) InjectLearntUnit(lit Literal) error {
	if s.decisionLevel() != 0 {
		return ErrNotRootLevel
	}
	switch s.trail.Value(lit) {
	case False:
		s.unsat = true
	case Unknown:
		s.trail.Enqueue(lit, decisionReason())
	}
	return nil
}

// InjectLearntBinary adds a binary clause learnt externally, valid only at
// decision level 0 (spec.md §6).
func (s *Solver) InjectLearntBinary(a, b Literal) error {
	if s.decisionLevel() != 0 {
		return ErrNotRootLevel
	}
	s.bins = append(s.bins, binRecord{a, b})
	s.watch.AttachBin(a, b, true)
	return nil
}

func (s *Solver) bumpClauseActivity(ref ClauseRef) {
	cl := s.arena.Get(ref)
	cl.SetActivity(cl.Activity() + float32(s.clauseInc))
	cl.BumpUses()
	// Resolving against this clause during analysis makes it "used since the
	// last reduction" (spec.md §4.5.3's protected-clause carve-out), exempting
	// it from the next reduceDB pass exactly once.
	cl.SetProtected(true)
	if cl.Activity() > 1e30 {
		for _, r := range s.longLearnt {
			c := s.arena.Get(r)
			c.SetActivity(c.Activity() * 1e-30)
		}
		s.clauseInc *= 1e-30
	}
}

func (s *Solver) decayClauseActivity() { s.clauseInc /= s.clauseDecay }

// recordLearnt stores a freshly derived clause (spec.md §4.5.2's output)
// and enqueues its asserting literal. Size-2 learnt clauses fire
// OnNewLearntBinary, the clause-sharing boundary named in spec.md §6. A
// non-nil error means arena allocation failed (ErrArenaExhausted); the
// caller must surface this as StopArenaExhausted, never as s.unsat, since
// exhaustion says nothing about satisfiability (spec.md §7, P10).
func (s *Solver) recordLearnt(lits []Literal, glue int) error {
	switch len(lits) {
	case 1:
		s.trail.Enqueue(lits[0], decisionReason())
	case 2:
		s.bins = append(s.bins, binRecord{lits[0], lits[1]})
		s.watch.AttachBin(lits[0], lits[1], true)
		s.trail.Enqueue(lits[0], binaryReason(lits[1]))
		if s.onNewLearntBinary != nil {
			s.onNewLearntBinary(lits[0], lits[1])
		}
	case 3:
		s.tris = append(s.tris, triRecord{lits[0], lits[1], lits[2]})
		s.watch.AttachTri(lits[0], lits[1], lits[2], true)
		s.trail.Enqueue(lits[0], ternaryReason(lits[1], lits[2]))
	default:
		ref, err := s.arena.Alloc(lits, true, uint32(glue), uint64(s.TotalConflicts))
		if err != nil {
			return err
		}
		s.longLearnt = append(s.longLearnt, ref)
		s.watch.AttachLong(ref, lits)
		s.trail.Enqueue(lits[0], longReason(ref))
	}
	return nil
}

func (s *Solver) cancelUntil(level int) {
	s.trail.CancelUntil(level, func(v Var) {
		s.order.Reinsert(v, s.trail.Phase(v))
	})
	s.prop.ResetQHead(s.trail.Len())
	// Backjumping may undo assumption decisions; the next pick walks the
	// assumption list again from the start.
	s.assumeIdx = 0
}

// pickDecisionOrAssumption implements spec.md §6's assumption-solving
// integration: try the next undecided assumption first, falling back to
// the activity-ordered heap once every assumption has been consumed.
//
// ok is false both when search has run out of assumptions *and* undecided
// variables (the formula is satisfied) and when an assumption conflicts
// with the current trail (failure; the caller checks s.failedAssumptions,
// which is non-nil only in the latter case).
func (s *Solver) pickDecisionOrAssumption() (Literal, bool) {
	for s.assumeIdx < len(s.assumptions) {
		a := s.assumptions[s.assumeIdx]
		s.assumeIdx++
		switch s.trail.Value(a) {
		case True:
			continue // already forced, nothing to decide
		case False:
			// Non-minimal but valid failure witness (spec.md P11): every
			// assumption already decided, plus the one that just failed.
			s.failedAssumptions = append([]Literal(nil), s.assumptions[:s.assumeIdx]...)
			return 0, false
		default:
			return a, true
		}
	}

	_, lit, ok := s.order.Pick(s.trail.VarValue)
	if !ok {
		return 0, false
	}
	return lit, true
}

// Solve searches for a satisfying assignment under the given assumptions
// (spec.md §6, §4.5.4), restarting the search loop until SAT, UNSAT, or a
// stop condition fires. It returns Unknown when a stop condition (abort
// flag, conflict budget, timeout) cut the search short.
func (s *Solver) Solve(assumptions []Literal) (LBool, error) {
	s.assumptions = assumptions
	s.assumeIdx = 0
	s.failedAssumptions = nil
	s.startTime = time.Now()

	if s.unsat {
		return False, nil
	}

	for {
		status, stop, err := s.search()
		if err != nil {
			return Unknown, err
		}
		if status != Unknown || stop != StopNone {
			s.cancelUntil(0)
			return status, nil
		}
	}
}

// search runs one restart epoch: propagate to a fixed point, analyze and
// learn on conflict, otherwise simplify/reduce/consolidate and decide
// (spec.md §4.5.4's per-iteration loop).
func (s *Solver) search() (LBool, StopReason, error) {
	for {
		if s.abort != nil && s.abort.Load() {
			return Unknown, StopAbortRequested, nil
		}
		if s.opts.MaxConflicts >= 0 && s.TotalConflicts >= s.opts.MaxConflicts {
			return Unknown, StopConflictLimit, nil
		}
		if s.opts.Timeout >= 0 && time.Since(s.startTime) >= s.opts.Timeout {
			return Unknown, StopTimeout, nil
		}

		s.TotalIterations++

		conflict, hasConflict := s.prop.Propagate()
		if hasConflict {
			s.TotalConflicts++

			if s.decisionLevel() == 0 {
				s.unsat = true
				return False, StopNone, nil
			}

			result := s.an.Analyze(conflict)
			s.rp.RecordConflict(result.Glue, s.trail.Len())
			s.cancelUntil(result.BackjumpLevel)
			if err := s.recordLearnt(result.Learnt, result.Glue); err != nil {
				return Unknown, StopArenaExhausted, err
			}

			s.decayClauseActivity()
			s.order.Decay()

			continue
		}

		// Fixed point reached, no conflict pending.

		if s.decisionLevel() == 0 {
			if !s.simplify() {
				return False, StopNone, nil
			}
			if s.arena.ShouldConsolidate() {
				s.consolidate()
			}
		}

		if len(s.longLearnt) > s.maxLearnt {
			s.reduceDB()
		}

		// Note: completion is detected below via pickDecisionOrAssumption
		// returning !ok, not by trail.Len() == NumVariables() here — a fully
		// assigned trail does not yet mean SAT when assumptions remain
		// unconsumed: a later assumption literal may have been forced to the
		// opposite value by propagation, which must surface as
		// ConflictUnderAssumptions (spec.md §7, P11), not as a false SAT.

		if s.rp.ShouldForce() && !s.rp.ShouldBlock(s.trail.Len()) {
			s.TotalRestarts++
			s.cancelUntil(0)
			return Unknown, StopNone, nil
		}

		lit, ok := s.pickDecisionOrAssumption()
		if !ok {
			if s.failedAssumptions != nil {
				return False, StopNone, nil
			}
			s.saveModel()
			return True, StopNone, nil
		}
		s.trail.NewDecisionLevel()
		s.trail.Enqueue(lit, decisionReason())
	}
}

// Model returns the most recently found satisfying assignment, or nil if
// none has been found.
func (s *Solver) Model() []bool {
	if len(s.Models) == 0 {
		return nil
	}
	return s.Models[len(s.Models)-1]
}

// FailedAssumptions returns the (non-minimal) subset of the assumptions
// passed to the last Solve call that witnesses unsatisfiability under them.
// Valid only when the last Solve returned False (spec.md P11).
func (s *Solver) FailedAssumptions() []Literal { return s.failedAssumptions }

func (s *Solver) saveModel() {
	model := make([]bool, s.NumVariables())
	for i := range model {
		lb := s.trail.VarValue(Var(i))
		if lb == Unknown {
			panic("sat: saveModel called with an incomplete assignment")
		}
		model[i] = lb == True
	}
	s.Models = append(s.Models, model)
}

// simplify drops satisfied clauses from every clause list at decision-level
// 0 quiescence (spec.md §4.5.4, mirroring the teacher's Simplify).
func (s *Solver) simplify() bool {
	if s.decisionLevel() != 0 {
		panic("sat: simplify called at non-root decision level")
	}

	if _, hasConflict := s.prop.Propagate(); hasConflict || s.unsat {
		s.unsat = true
		return false
	}

	j := 0
	for _, b := range s.bins {
		if s.trail.Value(b.a) == True || s.trail.Value(b.b) == True {
			s.watch.DetachBin(b.a, b.b)
			continue
		}
		s.bins[j] = b
		j++
	}
	s.bins = s.bins[:j]

	j = 0
	for _, t := range s.tris {
		if s.trail.Value(t.a) == True || s.trail.Value(t.b) == True || s.trail.Value(t.c) == True {
			s.watch.DetachTri(t.a, t.b, t.c)
			continue
		}
		s.tris[j] = t
		j++
	}
	s.tris = s.tris[:j]

	s.longOriginal = s.simplifyLong(s.longOriginal)
	s.longLearnt = s.simplifyLong(s.longLearnt)

	return true
}

func (s *Solver) simplifyLong(refs []ClauseRef) []ClauseRef {
	j := 0
	for _, ref := range refs {
		cl := s.arena.Get(ref)
		satisfied := false
		for i := 0; i < cl.Len(); i++ {
			if s.trail.Value(cl.Lit(i)) == True {
				satisfied = true
				break
			}
		}
		if satisfied {
			s.watch.DetachLong(ref, cl.Literals())
			s.arena.Free(ref)
			continue
		}
		refs[j] = ref
		j++
	}
	return refs[:j]
}

// reduceDB halves the non-protected learnt-clause pool (spec.md §4.5.3).
func (s *Solver) reduceDB() {
	isLocked := func(ref ClauseRef) bool {
		for v := 0; v < s.NumVariables(); v++ {
			r := s.trail.ReasonOf(Var(v))
			if r.kind == reasonLong && r.ref == ref && s.trail.VarValue(Var(v)) != Unknown {
				return true
			}
		}
		return false
	}

	kept, deleted := ReduceDB(s.arena, s.longLearnt, s.opts.Reduce, isLocked)
	for _, ref := range deleted {
		cl := s.arena.Get(ref)
		s.watch.DetachLong(ref, cl.Literals())
		s.arena.Free(ref)
	}
	s.longLearnt = kept
	s.maxLearnt = NextMaxLearnt(s.maxLearnt, s.opts.Reduce)
}

// consolidate compacts the arena and rewrites every outstanding ClauseRef
// held in watch lists, trail reasons, and the solver's own clause lists
// (spec.md §4.1 steps 1-4).
func (s *Solver) consolidate() {
	s.arena.Consolidate(func(mapRef func(ClauseRef) ClauseRef) {
		s.watch.RewriteRefs(mapRef)
		s.trail.rewriteReasonRefs(mapRef)
		for i, r := range s.longOriginal {
			s.longOriginal[i] = mapRef(r)
		}
		for i, r := range s.longLearnt {
			s.longLearnt[i] = mapRef(r)
		}
	})
}

func (s *Solver) String() string {
	return fmt.Sprintf("sat.Solver{vars: %d, bins: %d, tris: %d, long: %d, learnt: %d}",
		s.NumVariables(), len(s.bins), len(s.tris), len(s.longOriginal), len(s.longLearnt))
}
