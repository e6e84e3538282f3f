package sat

import "testing"

func TestEMA_TracksWeightedAverage(t *testing.T) {
	ema := NewEMA(0.5)

	ema.Add(10)
	if got := ema.Val(); got != 10 {
		t.Fatalf("Val() after first Add: got %v, want 10 (first sample seeds the average)", got)
	}

	ema.Add(20)
	if got := ema.Val(); got != 15 {
		t.Errorf("Val() after second Add: got %v, want 15", got)
	}

	ema.Add(30)
	if got := ema.Val(); got != 22.5 {
		t.Errorf("Val() after third Add: got %v, want 22.5", got)
	}
}

func TestRestartPolicy_BelowMinConflictsNeverFiresOrBlocks(t *testing.T) {
	r := NewRestartPolicy(RestartOptions{
		ShortWindowDecay: 0.1,
		LongWindowDecay:  0.99,
		K:                0.8,
		MinConflicts:     3,
		BlockEnabled:     true,
		BlockBeta:        1.4,
	})

	r.RecordConflict(100, 1) // huge glue spike, but conflictCount stays below MinConflicts

	if r.ShouldForce() {
		t.Errorf("ShouldForce(): got true, want false (below MinConflicts)")
	}
	if r.ShouldBlock(1_000_000) {
		t.Errorf("ShouldBlock(): got true, want false (below MinConflicts)")
	}
}

func TestRestartPolicy_ForcesOnGlueSpike(t *testing.T) {
	r := NewRestartPolicy(RestartOptions{
		ShortWindowDecay: 0.1,  // short window reacts fast
		LongWindowDecay:  0.99, // long window barely moves
		K:                0.8,
		MinConflicts:     3,
		BlockEnabled:     false,
		BlockBeta:        1.4,
	})

	for i := 0; i < 5; i++ {
		r.RecordConflict(2, 10) // settle both averages near a low glue
	}
	if r.ShouldForce() {
		t.Fatalf("ShouldForce() with a flat glue history: got true, want false")
	}

	r.RecordConflict(50, 10) // one sharp glue spike

	if !r.ShouldForce() {
		t.Errorf("ShouldForce() after a glue spike: got false, want true (short average should jump well above the long average)")
	}
}

func TestRestartPolicy_BlocksOnLongTrail(t *testing.T) {
	r := NewRestartPolicy(RestartOptions{
		ShortWindowDecay: 0.5,
		LongWindowDecay:  0.5,
		K:                0.8,
		MinConflicts:     2,
		BlockEnabled:     true,
		BlockBeta:        1.4,
	})

	for i := 0; i < 5; i++ {
		r.RecordConflict(2, 100) // settle the trail-length average near 100
	}

	if r.ShouldBlock(120) {
		t.Errorf("ShouldBlock(120): got true, want false (120 < 1.4*100)")
	}
	if !r.ShouldBlock(500) {
		t.Errorf("ShouldBlock(500): got false, want true (500 > 1.4*100)")
	}
}

func TestRestartPolicy_BlockDisabledNeverBlocks(t *testing.T) {
	r := NewRestartPolicy(RestartOptions{
		ShortWindowDecay: 0.5,
		LongWindowDecay:  0.5,
		K:                0.8,
		MinConflicts:     1,
		BlockEnabled:     false,
		BlockBeta:        1.0,
	})

	r.RecordConflict(2, 10)
	if r.ShouldBlock(1_000_000) {
		t.Errorf("ShouldBlock(): got true, want false (BlockEnabled is false)")
	}
}
