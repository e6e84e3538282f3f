package sat

import "math"

// ClauseRef is an opaque reference to a long clause (size >= 4) stored in
// the Arena. It packs a segment index into the high bits and a word offset
// within that segment into the low bits. A ClauseRef returned by Alloc stays
// valid until the clause is Freed or until Consolidate returns, at which
// point every outstanding ref must have been rewritten via the Consolidate
// rewriter callback.
type ClauseRef uint32

const (
	// segBits bounds the number of live segments; offBits bounds the number
	// of words addressable within one segment. A clause must fit in a single
	// segment (spec.md ARENA §4.1).
	segBits   = 8
	offBits   = 32 - segBits
	maxSegs   = 1 << segBits
	maxOffset = 1 << offBits
)

func makeRef(seg, off uint32) ClauseRef {
	return ClauseRef(seg<<offBits | (off & (maxOffset - 1)))
}

func (r ClauseRef) segment() uint32 { return uint32(r) >> offBits }
func (r ClauseRef) offset() uint32  { return uint32(r) & (maxOffset - 1) }

// clauseHeaderWords is the number of uint32 words preceding a clause's
// literals in arena storage:
//
//	w0: length
//	w1: flags (bit0=redundant, bit1=freed, bit2=protected)
//	w2: glue
//	w3: activity (float32 bits)
//	w4: introducedAtConflict
//	w5: uses
const clauseHeaderWords = 6

const (
	flagRedundant uint32 = 1 << 0
	flagFreed     uint32 = 1 << 1
	flagProtected uint32 = 1 << 2
)

// segment is one contiguous backing store for clauses.
type segment struct {
	words      []uint32
	allocWords int // next free word offset (append-only bump pointer)
	liveWords  int // words belonging to non-freed clauses
}

// ArenaOptions configures the segmented allocator's growth and consolidation
// policy. These are pure performance knobs (spec.md §9's Open Question);
// there is no semantically "correct" value, only a tuned default.
type ArenaOptions struct {
	// MinSegmentWords is the size of the first segment and the floor for
	// every later segment.
	MinSegmentWords int
	// MaxSegmentWords bounds how large a single segment may grow.
	MaxSegmentWords int
	// GrowthMultiplier scales the previous segment's size when allocating a
	// new one (CryptoMiniSat's ALLOC_GROW_MULT).
	GrowthMultiplier int
	// HighUtilization is the live/allocated words ratio below which
	// ShouldConsolidate reports a compaction as worthwhile.
	HighUtilization float64
	// CompactionSlack over-allocates destination segments during
	// Consolidate so that a burst of new clauses doesn't immediately force
	// another consolidation.
	CompactionSlack float64
}

// DefaultArenaOptions mirrors CryptoMiniSat's ClauseAllocator.cpp constants
// (MIN_LIST_SIZE, ALLOC_GROW_MULT) scaled to words-of-Literal. MaxSegmentWords
// is kept below maxOffset (1<<24): the ClauseRef encoding can't address a
// larger segment, so a value at or above it would make growSegment reject
// growth long before the nominal maxSegs capacity is reached.
var DefaultArenaOptions = ArenaOptions{
	MinSegmentWords:  1 << 16,
	MaxSegmentWords:  1 << 23,
	GrowthMultiplier: 4,
	HighUtilization:  0.5,
	CompactionSlack:  1.2,
}

// ErrArenaExhausted is returned by Alloc when growing would require more
// segments than the ClauseRef encoding can address. It is fatal: the solver
// cannot continue (spec.md §7).
type ErrArenaExhausted struct{}

func (ErrArenaExhausted) Error() string {
	return "sat: arena exhausted (segment limit reached)"
}

// Arena owns storage for every long clause (size >= 4) in the solver.
type Arena struct {
	opts     ArenaOptions
	segments []*segment
}

// NewArena returns an empty Arena configured with opts. MaxSegmentWords is
// clamped below maxOffset regardless of what opts specifies: the ClauseRef
// encoding can never address a larger segment, so a caller-supplied value at
// or above it would otherwise make growSegment reject growth long before
// maxSegs is reached.
func NewArena(opts ArenaOptions) *Arena {
	if opts.MaxSegmentWords >= maxOffset {
		opts.MaxSegmentWords = maxOffset - 1
	}
	return &Arena{opts: opts}
}

func wordsFor(nLits int) int {
	return clauseHeaderWords + nLits
}

// Alloc stores lits as a new clause and returns its ClauseRef. redundant
// marks a learnt clause; glue and introducedAtConflict seed the clause's
// database-reduction statistics (spec.md Clause data model, §3).
func (a *Arena) Alloc(lits []Literal, redundant bool, glue uint32, introducedAtConflict uint64) (ClauseRef, error) {
	need := wordsFor(len(lits))

	if len(a.segments) == 0 {
		if err := a.growSegment(need); err != nil {
			return 0, err
		}
	}

	seg := a.segments[len(a.segments)-1]
	if cap(seg.words)-seg.allocWords < need {
		if err := a.growSegment(need); err != nil {
			return 0, err
		}
		seg = a.segments[len(a.segments)-1]
	}

	off := seg.allocWords
	ref := makeRef(uint32(len(a.segments)-1), uint32(off))

	seg.words = growWords(seg.words, off+need)
	seg.words[off+0] = uint32(len(lits))
	var flags uint32
	if redundant {
		flags |= flagRedundant
	}
	seg.words[off+1] = flags
	seg.words[off+2] = glue
	seg.words[off+3] = 0 // activity
	seg.words[off+4] = uint32(introducedAtConflict)
	seg.words[off+5] = 0 // uses
	for i, l := range lits {
		seg.words[off+clauseHeaderWords+i] = uint32(int32(l))
	}

	seg.allocWords = off + need
	seg.liveWords += need

	return ref, nil
}

func growWords(s []uint32, n int) []uint32 {
	if len(s) >= n {
		return s
	}
	if cap(s) >= n {
		return s[:n]
	}
	grown := make([]uint32, n)
	copy(grown, s)
	return grown
}

func (a *Arena) growSegment(minWords int) error {
	if len(a.segments) >= maxSegs {
		return ErrArenaExhausted{}
	}

	size := a.opts.MinSegmentWords
	if len(a.segments) > 0 {
		last := a.segments[len(a.segments)-1]
		size = last.allocWords * a.opts.GrowthMultiplier
	}
	if size < a.opts.MinSegmentWords {
		size = a.opts.MinSegmentWords
	}
	if size > a.opts.MaxSegmentWords {
		size = a.opts.MaxSegmentWords
	}
	if size < minWords {
		size = minWords
	}
	if size >= maxOffset {
		return ErrArenaExhausted{}
	}

	a.segments = append(a.segments, &segment{words: make([]uint32, 0, size)})
	a.segments[len(a.segments)-1].words = a.segments[len(a.segments)-1].words[:0]
	return nil
}

// Clause is a live, mutable view over an arena-stored clause. It is only
// valid until the next Free of the same ref or the next Consolidate.
type Clause struct {
	seg *segment
	off uint32
}

// Get decodes ref into a Clause view in constant time. The result is
// undefined if ref is stale (freed, or predates a Consolidate).
func (a *Arena) Get(ref ClauseRef) Clause {
	return Clause{seg: a.segments[ref.segment()], off: ref.offset()}
}

// Len returns the clause's literal count.
func (c Clause) Len() int {
	return int(c.seg.words[c.off])
}

// Lit returns the i-th literal.
func (c Clause) Lit(i int) Literal {
	return Literal(int32(c.seg.words[c.off+clauseHeaderWords+uint32(i)]))
}

// SetLit overwrites the i-th literal (used by Propagate's watch-swap and by
// inprocessing rewrites).
func (c Clause) SetLit(i int, l Literal) {
	c.seg.words[c.off+clauseHeaderWords+uint32(i)] = uint32(int32(l))
}

// Swap exchanges literals i and j.
func (c Clause) Swap(i, j int) {
	li, lj := c.Lit(i), c.Lit(j)
	c.SetLit(i, lj)
	c.SetLit(j, li)
}

// Literals returns the clause's literals as a freshly allocated slice
// (used by analyze/explain and by inprocessing iteration, never on the hot
// propagation path).
func (c Clause) Literals() []Literal {
	out := make([]Literal, c.Len())
	for i := range out {
		out[i] = c.Lit(i)
	}
	return out
}

// Redundant reports whether the clause is learnt rather than original.
func (c Clause) Redundant() bool {
	return c.seg.words[c.off+1]&flagRedundant != 0
}

func (c Clause) freed() bool {
	return c.seg.words[c.off+1]&flagFreed != 0
}

// Protected reports whether the clause is exempt from the next reduceDB
// pass because conflict analysis used it since the last reduction
// (spec.md §4.5.3). Glue-based retention is decided by ReduceOptions, not
// by this flag.
func (c Clause) Protected() bool {
	return c.seg.words[c.off+1]&flagProtected != 0
}

// SetProtected sets or clears the protected flag.
func (c Clause) SetProtected(v bool) {
	if v {
		c.seg.words[c.off+1] |= flagProtected
	} else {
		c.seg.words[c.off+1] &^= flagProtected
	}
}

// Glue returns the clause's literal block distance at creation time.
func (c Clause) Glue() uint32 { return c.seg.words[c.off+2] }

// SetGlue overwrites the glue (used when a clause is re-derived with a
// smaller LBD than it was originally learnt with).
func (c Clause) SetGlue(g uint32) { c.seg.words[c.off+2] = g }

// Activity returns the clause's activity score.
func (c Clause) Activity() float32 {
	return float32frombits(c.seg.words[c.off+3])
}

// SetActivity overwrites the clause's activity score.
func (c Clause) SetActivity(v float32) {
	c.seg.words[c.off+3] = float32bits(v)
}

// IntroducedAtConflict returns the conflict count at which the clause was
// learnt. ReduceDB does not consult it.
func (c Clause) IntroducedAtConflict() uint32 { return c.seg.words[c.off+4] }

// Uses returns how many times conflict analysis has resolved against the
// clause. ReduceDB does not reset it.
func (c Clause) Uses() uint32 { return c.seg.words[c.off+5] }

// BumpUses increments the use counter (called by the solver's clause
// activity bump whenever analysis resolves against the clause).
func (c Clause) BumpUses() { c.seg.words[c.off+5]++ }

// ResetUses zeroes the use counter.
func (c Clause) ResetUses() { c.seg.words[c.off+5] = 0 }

func float32bits(f float32) uint32 {
	return math.Float32bits(f)
}

func float32frombits(b uint32) float32 {
	return math.Float32frombits(b)
}

// Free marks ref's clause as freed. The mark is sticky; the backing words
// are only reclaimed by the next Consolidate (spec.md §4.1).
func (a *Arena) Free(ref ClauseRef) {
	c := a.Get(ref)
	if c.freed() {
		return
	}
	c.seg.words[c.off+1] |= flagFreed
	c.seg.liveWords -= wordsFor(c.Len())
}

// LiveRatio returns the overall live/allocated words ratio across every
// segment, used to decide whether Consolidate is worthwhile.
func (a *Arena) LiveRatio() float64 {
	var live, alloc int
	for _, s := range a.segments {
		live += s.liveWords
		alloc += s.allocWords
	}
	if alloc == 0 {
		return 1
	}
	return float64(live) / float64(alloc)
}

// NearSegmentLimit reports whether the arena is close enough to the
// ClauseRef encoding's segment-count ceiling that a consolidation pass
// should be forced regardless of live ratio.
func (a *Arena) NearSegmentLimit() bool {
	return len(a.segments) >= maxSegs-1
}

// ShouldConsolidate applies spec.md §4.1's trigger: either utilization has
// dropped below the configured threshold, or segment-count pressure is
// near the encoding's hard limit.
func (a *Arena) ShouldConsolidate() bool {
	return a.LiveRatio() < a.opts.HighUtilization || a.NearSegmentLimit()
}

// RefRewriter rewrites an outstanding ClauseRef under a Consolidate pass.
type RefRewriter func(map_ func(old ClauseRef) ClauseRef)

// Consolidate performs a compacting copy of every non-freed clause into a
// fresh set of segments, then calls rewriter with a map() closure so every
// outstanding ClauseRef (in watch lists and reasons) can be rewritten in
// place. See spec.md §4.1 steps 1-4.
func (a *Arena) Consolidate(rewriter RefRewriter) {
	liveWords := 0
	for _, s := range a.segments {
		liveWords += s.liveWords
	}

	// Destination segments are sized to fit all live clauses plus slack, but
	// arenaBuilder.ensureRoom still splits across multiple segments whenever
	// the planned size would exceed MaxSegmentWords.
	planned := int(float64(liveWords)*a.opts.CompactionSlack) + a.opts.MinSegmentWords
	dst := &arenaBuilder{opts: a.opts, capHint: planned}

	forward := map[ClauseRef]ClauseRef{}

	for si, s := range a.segments {
		off := 0
		for off < s.allocWords {
			seg := s
			flags := seg.words[off+1]
			n := int(seg.words[off+0])
			total := wordsFor(n)
			if flags&flagFreed == 0 {
				newRef := dst.copyClause(seg.words[off : off+total])
				forward[makeRef(uint32(si), uint32(off))] = newRef
			}
			off += total
		}
	}

	a.segments = dst.finish()

	rewriter(func(old ClauseRef) ClauseRef {
		if nr, ok := forward[old]; ok {
			return nr
		}
		return old
	})
}

// arenaBuilder accumulates compacted clauses into new segments, each capped
// at MaxSegmentWords, while copying in source order.
type arenaBuilder struct {
	opts    ArenaOptions
	capHint int
	segs    []*segment
}

func (b *arenaBuilder) ensureRoom(need int) *segment {
	if len(b.segs) == 0 {
		b.segs = append(b.segs, b.newSegment())
	}
	cur := b.segs[len(b.segs)-1]
	if cap(cur.words)-cur.allocWords < need {
		b.segs = append(b.segs, b.newSegment())
		cur = b.segs[len(b.segs)-1]
	}
	return cur
}

func (b *arenaBuilder) newSegment() *segment {
	size := b.capHint
	if size > b.opts.MaxSegmentWords {
		size = b.opts.MaxSegmentWords
	}
	if size < b.opts.MinSegmentWords {
		size = b.opts.MinSegmentWords
	}
	return &segment{words: make([]uint32, 0, size)}
}

func (b *arenaBuilder) copyClause(words []uint32) ClauseRef {
	cur := b.ensureRoom(len(words))
	off := cur.allocWords
	cur.words = growWords(cur.words, off+len(words))
	copy(cur.words[off:off+len(words)], words)
	cur.allocWords = off + len(words)
	cur.liveWords += len(words)
	return makeRef(uint32(len(b.segs)-1), uint32(off))
}

func (b *arenaBuilder) finish() []*segment {
	return b.segs
}
