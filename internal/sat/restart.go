package sat

// EMA is an exponential moving average accumulator, kept from the teacher's
// sat/avg.go verbatim (spec.md §9 calls for exactly this dual-decay
// accumulator shape, used three times by RestartPolicy below).
type EMA struct {
	decay float64
	value float64
	init  bool
}

// NewEMA returns an EMA with the given decay in (0, 1).
func NewEMA(decay float64) EMA {
	return EMA{decay: decay}
}

// Add folds x into the running average.
func (ema *EMA) Add(x float64) {
	if !ema.init {
		ema.init = true
		ema.value = x
		return
	}
	ema.value = ema.decay*ema.value + x*(1-ema.decay)
}

// Val returns the current average.
func (ema *EMA) Val() float64 {
	return ema.value
}

// RestartPolicy implements the Glucose-style blocking/forcing restart
// scheme over short/long glue EMAs (spec.md §4.5.3, §9): force a restart
// when K times the short-window average glue exceeds the long-window
// average; optionally block a restart when the trail is unusually long
// relative to its own long-window average (a sign the search is close to a
// model).
type RestartPolicy struct {
	shortGlue EMA
	longGlue  EMA

	shortTrail EMA

	k             float64
	minConflicts  int64
	conflictCount int64

	blockEnabled bool
	blockBeta    float64
}

// RestartOptions configures RestartPolicy.
type RestartOptions struct {
	ShortWindowDecay float64 // e.g. matches an ~50-conflict window
	LongWindowDecay  float64 // e.g. matches an ~5000-conflict window
	K                float64 // forcing multiplier: short*K > long triggers
	MinConflicts     int64   // conflicts to accumulate before restarts are considered
	BlockEnabled     bool
	BlockBeta        float64 // blocking multiplier on the long trail-length EMA
}

// DefaultRestartOptions mirrors Glucose's published constants.
var DefaultRestartOptions = RestartOptions{
	ShortWindowDecay: 1 - 1.0/50,
	LongWindowDecay:  1 - 1.0/5000,
	K:                0.8,
	MinConflicts:     50,
	BlockEnabled:     true,
	BlockBeta:        1.4,
}

// NewRestartPolicy returns a RestartPolicy configured per opts.
func NewRestartPolicy(opts RestartOptions) *RestartPolicy {
	return &RestartPolicy{
		shortGlue:    NewEMA(opts.ShortWindowDecay),
		longGlue:     NewEMA(opts.LongWindowDecay),
		shortTrail:   NewEMA(opts.LongWindowDecay),
		k:            opts.K,
		minConflicts: opts.MinConflicts,
		blockEnabled: opts.BlockEnabled,
		blockBeta:    opts.BlockBeta,
	}
}

// RecordConflict folds one conflict's glue and the trail length at the time
// of conflict into the moving averages.
func (r *RestartPolicy) RecordConflict(glue int, trailLen int) {
	r.conflictCount++
	r.shortGlue.Add(float64(glue))
	r.longGlue.Add(float64(glue))
	r.shortTrail.Add(float64(trailLen))
}

// ShouldBlock reports whether a restart that would otherwise fire should be
// suppressed because the current trail is unusually long.
func (r *RestartPolicy) ShouldBlock(trailLen int) bool {
	if !r.blockEnabled || r.conflictCount < r.minConflicts {
		return false
	}
	return float64(trailLen) > r.blockBeta*r.shortTrail.Val()
}

// ShouldForce reports whether the short-window glue average has spiked
// enough above the long-window average to force a restart.
func (r *RestartPolicy) ShouldForce() bool {
	if r.conflictCount < r.minConflicts {
		return false
	}
	return r.shortGlue.Val()*r.k > r.longGlue.Val()
}
