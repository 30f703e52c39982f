// Package symmetry owns the irrep table and direct-product table of the
// abelian double group in use, as specified in spec.md §2.1 / §4.1. It
// exposes irrep multiplication, inverse, the totally-symmetric irrep, and
// the "does the direct product contain the totally-symmetric irrep"
// predicate that every diagram-construction loop in package dpd calls to
// prune symmetry-forbidden blocks.
package symmetry

import (
	"fmt"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
)

// Irrep is a 0-based index into a Group's irrep table.
type Irrep int

// Group is the direct-product table of an abelian point/double group.
// Non-abelian groups are a hard error at construction time, per spec.md
// §4.1 ("The current core requires abelian groups only").
type Group struct {
	names []string
	// mul[a][b] is the product irrep of a and b.
	mul [][]Irrep
	// inv[a] is the inverse of a; for abelian real groups inv[a] == a,
	// but double groups (Kramers pairs) need not be self-inverse.
	inv []Irrep
	// totSym is the totally symmetric irrep, by convention irrep 0.
	totSym Irrep
}

// New builds a Group from an explicit n×n multiplication table and an
// inverse table. names[i] is the printable name of irrep i. totSym names
// the totally symmetric irrep (conventionally 0).
func New(names []string, mul [][]Irrep, inv []Irrep, totSym Irrep) (*Group, error) {
	n := len(names)
	if len(mul) != n {
		return nil, ferr.NewConfig("symmetry.New", fmt.Sprintf("multiplication table has %d rows, want %d", len(mul), n))
	}
	for i, row := range mul {
		if len(row) != n {
			return nil, ferr.NewConfig("symmetry.New", fmt.Sprintf("multiplication table row %d has %d entries, want %d", i, len(row), n))
		}
	}
	if len(inv) != n {
		return nil, ferr.NewConfig("symmetry.New", fmt.Sprintf("inverse table has %d entries, want %d", len(inv), n))
	}
	if int(totSym) < 0 || int(totSym) >= n {
		return nil, ferr.NewConfig("symmetry.New", "totally symmetric irrep out of range")
	}
	// validate group closure, commutativity, and that tot-sym is a genuine
	// identity
	for i := 0; i < n; i++ {
		if mul[i][int(totSym)] != Irrep(i) || mul[int(totSym)][i] != Irrep(i) {
			return nil, ferr.NewConfig("symmetry.New", "totally symmetric irrep is not an identity of the supplied table")
		}
		for j := 0; j < n; j++ {
			p := mul[i][j]
			if int(p) < 0 || int(p) >= n {
				return nil, ferr.NewConfig("symmetry.New", "multiplication table entry out of range")
			}
			if mul[j][i] != p {
				return nil, ferr.NewConfig("symmetry.New", "multiplication table is not commutative: non-abelian groups are not supported")
			}
		}
	}
	return &Group{names: append([]string(nil), names...), mul: mul, inv: inv, totSym: totSym}, nil
}

// NewAbelian builds a Group for a purely abelian point group where every
// irrep is its own inverse and the multiplication table is supplied
// directly (the common case: D2h and its real subgroups).
func NewAbelian(names []string, mul [][]Irrep, totSym Irrep) (*Group, error) {
	inv := make([]Irrep, len(names))
	for i := range inv {
		inv[i] = Irrep(i)
	}
	return New(names, mul, inv, totSym)
}

// NumIrreps returns the order of the group.
func (g *Group) NumIrreps() int { return len(g.names) }

// TotallySymmetricIrrep returns the identity irrep.
func (g *Group) TotallySymmetricIrrep() Irrep { return g.totSym }

// IrrepName returns the printable name of irrep i.
func (g *Group) IrrepName(i Irrep) string {
	if int(i) < 0 || int(i) >= len(g.names) {
		panic("symmetry: irrep index out of range")
	}
	return g.names[i]
}

// IrrepIndex returns the irrep whose name is name, or an error if there is
// no such irrep.
func (g *Group) IrrepIndex(name string) (Irrep, error) {
	for i, n := range g.names {
		if n == name {
			return Irrep(i), nil
		}
	}
	return 0, ferr.NewConfig("symmetry.IrrepIndex", name)
}

// Mul returns the direct product of irreps a and b.
func (g *Group) Mul(a, b Irrep) Irrep {
	return g.mul[a][b]
}

// Inverse returns the inverse of irrep a.
func (g *Group) Inverse(a Irrep) Irrep {
	return g.inv[a]
}

// ContainsTotSym reports whether the direct product of the given irreps
// contains the totally symmetric irrep. Dispatched by rank for the common
// cases of spec.md §4.1 (r=2,4,6); falls back to a running fold for any
// other rank.
func (g *Group) ContainsTotSym(irreps ...Irrep) bool {
	switch len(irreps) {
	case 0:
		return true
	case 1:
		return irreps[0] == g.totSym
	case 2:
		return g.mul[irreps[0]][irreps[1]] == g.totSym
	case 4:
		p := g.mul[irreps[0]][irreps[1]]
		p = g.mul[p][irreps[2]]
		return g.mul[p][irreps[3]] == g.totSym
	case 6:
		p := g.mul[irreps[0]][irreps[1]]
		p = g.mul[p][irreps[2]]
		p = g.mul[p][irreps[3]]
		p = g.mul[p][irreps[4]]
		return g.mul[p][irreps[5]] == g.totSym
	default:
		p := irreps[0]
		for _, ir := range irreps[1:] {
			p = g.mul[p][ir]
		}
		return p == g.totSym
	}
}

// Product returns the direct product irrep of the given list, without
// testing it against the totally symmetric irrep.
func (g *Group) Product(irreps ...Irrep) Irrep {
	if len(irreps) == 0 {
		return g.totSym
	}
	p := irreps[0]
	for _, ir := range irreps[1:] {
		p = g.mul[p][ir]
	}
	return p
}
