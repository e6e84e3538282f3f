package sat

import (
	"math/rand"

	"github.com/rhartert/yagh"
)

// ActivityOrder maintains the activity-ordered max-heap of undecided
// variables used by the decision heuristic (spec.md §4.5.1). Variables are
// lazily removed from the heap (tombstoned) when assigned and re-activated
// on backjump (spec.md §9).
type ActivityOrder struct {
	heap *yagh.IntMap[float64] // keyed by -activity so Pop yields the max

	activities []float64
	varInc     float64
	varDecay   float64

	phases      []LBool
	phaseSaving bool
	defaultPhase LBool

	randomVarFreq float64
	rng           *rand.Rand
}

// NewActivityOrder returns an empty heap configured per opts.
func NewActivityOrder(varDecay, randomVarFreq float64, phaseSaving bool, defaultPhase LBool, rng *rand.Rand) *ActivityOrder {
	return &ActivityOrder{
		heap:          yagh.New[float64](0),
		varInc:        1,
		varDecay:      varDecay,
		phaseSaving:   phaseSaving,
		defaultPhase:  defaultPhase,
		randomVarFreq: randomVarFreq,
		rng:           rng,
	}
}

// NewVar registers one more variable at activity 0, immediately eligible
// for selection.
func (o *ActivityOrder) NewVar() {
	v := len(o.activities)
	o.activities = append(o.activities, 0)
	o.phases = append(o.phases, o.defaultPhase)
	o.heap.GrowBy(1)
	o.heap.Put(v, 0)
}

// Reinsert reactivates v, called on backjump when v becomes unassigned
// again. val is the value v held before being undone, used for phase
// saving.
func (o *ActivityOrder) Reinsert(v Var, val LBool) {
	if o.phaseSaving && val != Unknown {
		o.phases[v] = val
	}
	o.heap.Put(int(v), -o.activities[v])
}

// Bump increases v's activity, rescaling every activity (and varInc) if the
// threshold is exceeded so that relative order is preserved exactly
// (spec.md §4.5.1, §9).
func (o *ActivityOrder) Bump(v Var) {
	o.activities[v] += o.varInc
	if o.heap.Contains(int(v)) {
		o.heap.Put(int(v), -o.activities[v])
	}
	if o.activities[v] > 1e100 {
		o.rescale()
	}
}

func (o *ActivityOrder) rescale() {
	o.varInc *= 1e-100
	for v := range o.activities {
		o.activities[v] *= 1e-100
		if o.heap.Contains(v) {
			o.heap.Put(v, -o.activities[v])
		}
	}
}

// Decay increases varInc so that future Bump calls count for relatively
// more than past ones (spec.md §4.5.1).
func (o *ActivityOrder) Decay() {
	o.varInc /= o.varDecay
	if o.varInc > 1e100 {
		o.rescale()
	}
}

// Pick selects the next undecided variable and the literal (phase) to
// assign it to, honoring random_var_freq and phase saving (spec.md §4.5.1).
// valueOf is used to skip heap entries that are stale (already assigned by
// propagation without having been popped yet). A variable is considered
// removed from the heap the moment it is Pop'd; Reinsert is the only way it
// returns, which is the lazy-deletion scheme spec.md §9 calls for.
func (o *ActivityOrder) Pick(valueOf func(Var) LBool) (Var, Literal, bool) {
	if o.randomVarFreq > 0 && o.rng.Float64() < o.randomVarFreq {
		if v, ok := o.randomUndecided(valueOf); ok {
			return v, o.litFor(v), true
		}
	}

	for {
		item, ok := o.heap.Pop()
		if !ok {
			return 0, 0, false
		}
		v := Var(item.Elem)
		if valueOf(v) != Unknown {
			continue // stale tombstone entry
		}
		return v, o.litFor(v), true
	}
}

func (o *ActivityOrder) litFor(v Var) Literal {
	switch o.phases[v] {
	case True:
		return PositiveLiteral(v)
	case False:
		return NegativeLiteral(v)
	default:
		if o.defaultPhase == True {
			return PositiveLiteral(v)
		}
		return NegativeLiteral(v)
	}
}

// randomUndecided scans for a uniformly random currently-undecided
// variable. It is O(n), matching the teacher's and CryptoMiniSat's own
// occasional-random-pick cost (spec.md notes this path is a tuning knob,
// not a hot path).
func (o *ActivityOrder) randomUndecided(valueOf func(Var) LBool) (Var, bool) {
	var undecided []Var
	for v := range o.activities {
		if valueOf(Var(v)) == Unknown {
			undecided = append(undecided, Var(v))
		}
	}
	if len(undecided) == 0 {
		return 0, false
	}
	return undecided[o.rng.Intn(len(undecided))], true
}
