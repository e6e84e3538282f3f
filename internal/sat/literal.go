package sat

import "fmt"

// Var is a boolean variable identified by its index in [0, n).
type Var int32

// Literal represents a variable together with a polarity. It is encoded as
// 2*var+sign so that Opposite is a single XOR and literals can index
// directly into per-literal tables (values, watch lists).
type Literal int32

// PositiveLiteral returns the positive literal of variable v.
func PositiveLiteral(v Var) Literal {
	return Literal(v * 2)
}

// NegativeLiteral returns the negative literal of variable v.
func NegativeLiteral(v Var) Literal {
	return Literal(v*2 + 1)
}

// VarID returns the ID of the literal's variable.
func (l Literal) VarID() Var {
	return Var(l / 2)
}

// IsPositive returns true if and only if the literal represents the value of
// its variable (i.e. is not its negation).
func (l Literal) IsPositive() bool {
	return l&1 == 0
}

// Opposite returns the negation of the literal.
func (l Literal) Opposite() Literal {
	return l ^ 1
}

func (l Literal) String() string {
	if l.IsPositive() {
		return fmt.Sprintf("%d", l.VarID())
	}
	return fmt.Sprintf("!%d", l.VarID())
}
