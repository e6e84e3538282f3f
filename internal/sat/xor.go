package sat

import "fmt"

// ErrEmptyXOR is returned by AddXORClause when an empty literal list is
// given together with rhs=true (the empty parity sums to false, so this is
// immediately unsatisfiable).
var ErrEmptyXOR = fmt.Errorf("sat: empty XOR clause with rhs=true is unsatisfiable")

// xorHost is the minimal surface AddXORClause needs from the solver: the
// ability to mint a fresh auxiliary variable and to add a plain CNF clause
// (spec.md §6's add_xor_clause, realized by Tseitin-cutting).
type xorHost interface {
	NewVar() Var
	AddClause(lits []Literal) error
}

// AddXORClause adds the parity constraint lits[0] XOR lits[1] XOR ... = rhs
// to host, Tseitin-cutting it into plain CNF clauses once it is wider than
// cutThreshold literals, introducing fresh auxiliary variables for each cut
// (spec.md §6).
func AddXORClause(host xorHost, lits []Literal, rhs bool, cutThreshold int) error {
	if len(lits) == 0 {
		if rhs {
			return ErrEmptyXOR
		}
		return nil
	}
	if cutThreshold < 3 {
		cutThreshold = 3
	}

	if len(lits) <= cutThreshold {
		return emitXOR(host, lits, rhs)
	}

	chunkSize := cutThreshold - 2 // carry + chunk + aux must fit in cutThreshold
	if chunkSize < 1 {
		chunkSize = 1
	}

	carry := lits[0]
	rest := lits[1:]

	for len(rest) > chunkSize {
		chunk := rest[:chunkSize]
		rest = rest[chunkSize:]

		aux := PositiveLiteral(host.NewVar())

		group := make([]Literal, 0, len(chunk)+2)
		group = append(group, carry)
		group = append(group, chunk...)
		group = append(group, aux)

		// aux represents the running XOR of everything processed so far:
		// carry XOR chunk XOR aux = false  <=>  aux = carry XOR chunk.
		if err := emitXOR(host, group, false); err != nil {
			return err
		}
		carry = aux
	}

	final := make([]Literal, 0, len(rest)+1)
	final = append(final, carry)
	final = append(final, rest...)
	return emitXOR(host, final, rhs)
}

// emitXOR directly encodes a (small, <= cutThreshold-wide) XOR constraint as
// the classic 2^(k-1) blocking clauses: for every negation pattern whose
// popcount has the parity of !rhs, add a clause negating exactly the
// literals named by that pattern.
func emitXOR(host xorHost, lits []Literal, rhs bool) error {
	k := len(lits)
	if k == 1 {
		if rhs {
			return host.AddClause([]Literal{lits[0]})
		}
		return host.AddClause([]Literal{lits[0].Opposite()})
	}

	want := 0
	if !rhs {
		want = 1
	}

	clause := make([]Literal, k)
	for mask := 0; mask < 1<<uint(k); mask++ {
		if popcount(mask)&1 != want {
			continue
		}
		for i := 0; i < k; i++ {
			if mask&(1<<uint(i)) != 0 {
				clause[i] = lits[i].Opposite()
			} else {
				clause[i] = lits[i]
			}
		}
		cl := make([]Literal, k)
		copy(cl, clause)
		if err := host.AddClause(cl); err != nil {
			return err
		}
	}
	return nil
}

func popcount(x int) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}
