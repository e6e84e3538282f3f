package sat

import (
	"math/rand"
	"testing"
)

func TestActivityOrder_PicksHighestActivityFirst(t *testing.T) {
	o := NewActivityOrder(0.95, 0, true, False, rand.New(rand.NewSource(1)))
	for i := 0; i < 3; i++ {
		o.NewVar()
	}

	o.Bump(2)
	o.Bump(2)
	o.Bump(0)

	values := map[Var]LBool{}
	valueOf := func(v Var) LBool { return values[v] }

	v, _, ok := o.Pick(valueOf)
	if !ok {
		t.Fatalf("Pick(): got ok=false, want true")
	}
	if v != 2 {
		t.Errorf("Pick(): got var %d, want 2 (highest bumped activity)", v)
	}
}

func TestActivityOrder_SkipsAssignedVars(t *testing.T) {
	o := NewActivityOrder(0.95, 0, true, False, rand.New(rand.NewSource(1)))
	for i := 0; i < 2; i++ {
		o.NewVar()
	}
	o.Bump(0) // var 0 ends up on top of the heap

	values := map[Var]LBool{0: True}
	valueOf := func(v Var) LBool { return values[v] }

	v, _, ok := o.Pick(valueOf)
	if !ok {
		t.Fatalf("Pick(): got ok=false, want true")
	}
	if v != 1 {
		t.Errorf("Pick(): got var %d, want 1 (var 0 is a stale tombstone)", v)
	}
}

func TestActivityOrder_PhaseSaving(t *testing.T) {
	o := NewActivityOrder(0.95, 0, true, False, rand.New(rand.NewSource(1)))
	o.NewVar()

	o.Reinsert(0, True) // var 0 last held True before being undone

	values := map[Var]LBool{}
	valueOf := func(v Var) LBool { return values[v] }
	_, lit, ok := o.Pick(valueOf)
	if !ok {
		t.Fatalf("Pick(): got ok=false, want true")
	}
	if !lit.IsPositive() {
		t.Errorf("Pick(): got %s, want the positive phase (saved)", lit)
	}
}

func TestActivityOrder_DefaultPhaseWhenUnsaved(t *testing.T) {
	o := NewActivityOrder(0.95, 0, true, False, rand.New(rand.NewSource(1)))
	o.NewVar()

	values := map[Var]LBool{}
	valueOf := func(v Var) LBool { return values[v] }
	_, lit, ok := o.Pick(valueOf)
	if !ok {
		t.Fatalf("Pick(): got ok=false, want true")
	}
	if lit.IsPositive() {
		t.Errorf("Pick(): got %s, want the negative default phase", lit)
	}
}

func TestActivityOrder_EmptyReturnsNotOK(t *testing.T) {
	o := NewActivityOrder(0.95, 0, true, False, rand.New(rand.NewSource(1)))
	o.NewVar()

	values := map[Var]LBool{0: True}
	valueOf := func(v Var) LBool { return values[v] }

	if _, _, ok := o.Pick(valueOf); ok {
		t.Errorf("Pick() with every variable assigned: got ok=true, want false")
	}
}
