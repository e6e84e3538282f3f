package sat

import "sort"

// LearntEntry tracks one retained learnt clause for database-reduction
// bookkeeping, alongside the ClauseRef that owns its arena storage.
type LearntEntry struct {
	Ref ClauseRef
}

// ReduceOptions configures the learnt-clause database bound (spec.md
// §4.5.3).
type ReduceOptions struct {
	// InitialMaxLearnt seeds the retained-learnt-clause target.
	InitialMaxLearnt int
	// MaxLearntGrowth multiplies the bound after each reduction.
	MaxLearntGrowth float64
	// GlueProtected retains every clause with glue <= GlueProtectedLimit
	// permanently, never exposing it to reduction. Per spec.md §9's Open
	// Question the default is to retain (true).
	GlueProtected      bool
	GlueProtectedLimit uint32
}

// DefaultReduceOptions mirrors CryptoMiniSat's reduceDB defaults.
var DefaultReduceOptions = ReduceOptions{
	InitialMaxLearnt:   2000,
	MaxLearntGrowth:    1.1,
	GlueProtected:      true,
	GlueProtectedLimit: 2,
}

// ReduceDB implements spec.md §4.5.3's database-maintenance policy: the
// caller supplies the current learnt list; ReduceDB partitions it into
// protected and reducible clauses, sorts the reducible half by (glue
// ascending, then activity descending), and returns the clauses to keep.
// isLocked reports whether a clause is currently some variable's reason
// (locked clauses can never be deleted, spec.md's Clause.locked).
func ReduceDB(arena *Arena, learnts []ClauseRef, opts ReduceOptions, isLocked func(ClauseRef) bool) (kept []ClauseRef, deleted []ClauseRef) {
	type scored struct {
		ref      ClauseRef
		glue     uint32
		activity float32
	}

	var protectedSet []ClauseRef
	var rest []scored

	for _, ref := range learnts {
		cl := arena.Get(ref)
		if isLocked(ref) {
			protectedSet = append(protectedSet, ref)
			continue
		}
		if opts.GlueProtected && cl.Glue() <= opts.GlueProtectedLimit {
			protectedSet = append(protectedSet, ref)
			continue
		}
		if cl.Protected() {
			protectedSet = append(protectedSet, ref)
			cl.SetProtected(false) // protection from "used since last reduction" is one-shot
			continue
		}
		rest = append(rest, scored{ref: ref, glue: cl.Glue(), activity: cl.Activity()})
	}

	sort.Slice(rest, func(i, j int) bool {
		if rest[i].glue != rest[j].glue {
			return rest[i].glue < rest[j].glue
		}
		return rest[i].activity > rest[j].activity
	})

	// rest is sorted best-first (low glue, then high activity); the worse
	// half — the tail — is what gets deleted.
	half := len(rest) / 2
	kept = append(kept, protectedSet...)
	for i, s := range rest {
		if i < half {
			kept = append(kept, s.ref)
		} else {
			deleted = append(deleted, s.ref)
		}
	}

	return kept, deleted
}

// NextMaxLearnt grows the retained-learnt target after a reduction pass.
func NextMaxLearnt(current int, opts ReduceOptions) int {
	grown := float64(current) * opts.MaxLearntGrowth
	if grown < float64(current)+1 {
		grown = float64(current) + 1
	}
	return int(grown)
}
