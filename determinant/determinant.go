// Package determinant implements spec.md §3.4/§4.4: Slater determinants as
// fixed-width records of active spinor indices, and the enumeration of the
// model space for a Fock-space sector (h,p), partitioned by irrep.
package determinant

import (
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

// Determinant is a fixed-width record: active hole indices first, then
// active particle indices (spec.md §3.4), plus the irrep computed as the
// product of particle irreps times the inverse of hole irreps.
type Determinant struct {
	Holes     []int
	Particles []int
	Irrep     symmetry.Irrep
	// Vacuum marks the distinguished vacuum determinant included in
	// sector (1,1) when the "mixed" option is enabled (spec.md §4.4).
	Vacuum bool
}

// Content returns the determinant's identifying tuple (holes then
// particles), used by Equal/comparator/Overlap.
func (d Determinant) Content() []int {
	out := make([]int, 0, len(d.Holes)+len(d.Particles))
	out = append(out, d.Holes...)
	out = append(out, d.Particles...)
	return out
}

// Equal reports whether d and other have identical content tuples.
func (d Determinant) Equal(other Determinant) bool {
	a, b := d.Content(), other.Content()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Overlap returns 1 if a and b have equal content tuples, 0 otherwise
// (spec.md §4.4).
func Overlap(a, b Determinant) float64 {
	if a.Equal(b) {
		return 1
	}
	return 0
}

// Less implements the comparator of spec.md §4.4: orders by irrep id
// first, then lexicographically by content tuple.
func Less(a, b Determinant) bool {
	if a.Irrep != b.Irrep {
		return a.Irrep < b.Irrep
	}
	ca, cb := a.Content(), b.Content()
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if ca[i] != cb[i] {
			return ca[i] < cb[i]
		}
	}
	return len(ca) < len(cb)
}

// ModelSpace is the per-irrep partition of the determinants of one Fock-
// space sector (spec.md §4.4 "per-irrep counts and per-irrep arrays").
type ModelSpace struct {
	SectorH, SectorP int
	ByIrrep          map[symmetry.Irrep][]Determinant
}

// Count returns the number of determinants of irrep g.
func (m *ModelSpace) Count(g symmetry.Irrep) int { return len(m.ByIrrep[g]) }

// Irreps returns the irreps that host at least one determinant, sorted
// ascending.
func (m *ModelSpace) Irreps() []symmetry.Irrep {
	out := make([]symmetry.Irrep, 0, len(m.ByIrrep))
	for g := range m.ByIrrep {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Build enumerates the model-space determinants of sector (sectorH,
// sectorP) per spec.md §4.4: holes strictly increasing from the active-
// hole list, particles strictly increasing from the active-particle
// list, irrep computed as product(inverse(irrep(hole))) *
// product(irrep(particle)). When mixed is true and the sector is exactly
// (1,1), the vacuum determinant is additionally included in its own
// (totally symmetric) irrep.
func Build(sym *symmetry.Group, reg *spinor.Registry, sectorH, sectorP int, mixed bool) (*ModelSpace, error) {
	if sectorH < 0 || sectorP < 0 {
		return nil, ferr.NewConfig("determinant.Build", "sector indices must be non-negative")
	}
	_, activeHoles := reg.ActiveSpace(1, 0)
	_, activeParts := reg.ActiveSpace(0, 1)

	ms := &ModelSpace{SectorH: sectorH, SectorP: sectorP, ByIrrep: map[symmetry.Irrep][]Determinant{}}

	holeCombos := combinations(activeHoles, sectorH)
	partCombos := combinations(activeParts, sectorP)
	for _, h := range holeCombos {
		for _, p := range partCombos {
			irrep := determinantIrrep(sym, reg, h, p)
			d := Determinant{Holes: h, Particles: p, Irrep: irrep}
			ms.ByIrrep[irrep] = append(ms.ByIrrep[irrep], d)
		}
	}

	if mixed && sectorH == 1 && sectorP == 1 {
		g := sym.TotallySymmetricIrrep()
		ms.ByIrrep[g] = append(ms.ByIrrep[g], Determinant{Vacuum: true, Irrep: g})
	}

	for g := range ms.ByIrrep {
		sort.Slice(ms.ByIrrep[g], func(i, j int) bool { return Less(ms.ByIrrep[g][i], ms.ByIrrep[g][j]) })
	}
	return ms, nil
}

// determinantIrrep computes product(inverse(irrep(hole_i))) *
// product(irrep(part_j)), per spec.md §4.4.
func determinantIrrep(sym *symmetry.Group, reg *spinor.Registry, holes, parts []int) symmetry.Irrep {
	g := sym.TotallySymmetricIrrep()
	for _, h := range holes {
		g = sym.Mul(g, sym.Inverse(reg.Spinor(h).Irrep))
	}
	for _, p := range parts {
		g = sym.Mul(g, reg.Spinor(p).Irrep)
	}
	return g
}

// combinations returns every strictly-increasing k-combination of the
// (already sorted ascending) indices slice, built from combin.Combinations
// over the position set [0,len(indices)) and mapped back through indices.
func combinations(indices []int, k int) [][]int {
	if k == 0 {
		return [][]int{{}}
	}
	if k > len(indices) {
		return nil
	}
	positions := combin.Combinations(len(indices), k)
	out := make([][]int, len(positions))
	for i, pos := range positions {
		combo := make([]int, k)
		for j, p := range pos {
			combo[j] = indices[p]
		}
		out[i] = combo
	}
	return out
}
