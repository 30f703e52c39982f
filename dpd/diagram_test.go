package dpd_test

import (
	"math"
	"testing"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/dpd"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

// c1Group returns the trivial (no symmetry) group: every product is
// totally symmetric. Keeps the block-construction tests focused on the
// dpd invariants rather than on irrep bookkeeping.
func c1Group(t *testing.T) *symmetry.Group {
	t.Helper()
	g, err := symmetry.NewAbelian([]string{"A"}, [][]symmetry.Irrep{{0}}, 0)
	if err != nil {
		t.Fatalf("c1Group: %v", err)
	}
	return g
}

// fourSpinorRegistry builds a 2-hole/2-particle registry with tile_size=1
// (one spinor per block), real-valued arithmetic, no active restriction.
func fourSpinorRegistry(t *testing.T) *spinor.Registry {
	t.Helper()
	irreps := []symmetry.Irrep{0, 0, 0, 0}
	energies := []float64{-1.0, -0.8, 0.3, 0.5}
	occ := []int{1, 1, 0, 0}
	reg, err := spinor.New(irreps, energies, occ, 0)
	if err != nil {
		t.Fatalf("spinor.New: %v", err)
	}
	if err := reg.Tile(1, true); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	return reg
}

func newContext(t *testing.T, reg *spinor.Registry) *dpd.Context {
	t.Helper()
	cfg := config.Default()
	cfg.Arithmetic = config.Real
	return dpd.NewContext(c1Group(t), reg, cfg)
}

// TestTransposeRankTwo checks the plain-array-transpose path of Reorder:
// swapping a hole dimension with a particle dimension in a rank-2"hp"
// diagram carries no fermionic sign.
func TestTransposeRankTwo(t *testing.T) {
	reg := fourSpinorRegistry(t)
	ctx := newContext(t, reg)

	d, err := ctx.Tmplt("t1", "hp", "00", []int{0, 1}, false)
	if err != nil {
		t.Fatalf("Tmplt: %v", err)
	}
	ctx.Push(d)

	hBlock, _ := reg.Locate(0) // hole spinor 0
	pBlock, _ := reg.Locate(2) // particle spinor 2
	idx := dpd.ElementIndex{Block: []int{hBlock, pBlock}, Offset: []int{0, 0}}
	if err := d.Set(idx, complex(2.5, 0)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := ctx.Reorder(d, []int{1, 0}, "t1_t")
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	got, err := out.Get(dpd.ElementIndex{Block: []int{pBlock, hBlock}, Offset: []int{0, 0}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if real(got) != 2.5 {
		t.Fatalf("transposed element = %v, want 2.5 (no sign flip across h/p)", got)
	}
}

// TestSymmetryPruning checks that a block whose natural-order irrep
// product is not totally symmetric never materialises, per spec.md §3.3's
// "Totality" invariant: Get on such a tuple returns 0, not an error.
func TestSymmetryPruning(t *testing.T) {
	// Two irreps, B non-trivial; spinor 0 (hole) is irrep A, spinor 2
	// (particle) is irrep B: the "hp" product A x B is not totally
	// symmetric under a Z2 table, so no block should be built for it.
	names := []string{"A", "B"}
	mul := [][]symmetry.Irrep{{0, 1}, {1, 0}}
	grp, err := symmetry.NewAbelian(names, mul, 0)
	if err != nil {
		t.Fatalf("NewAbelian: %v", err)
	}
	irreps := []symmetry.Irrep{0, 0, 1, 1}
	energies := []float64{-1.0, -0.8, 0.3, 0.5}
	occ := []int{1, 1, 0, 0}
	reg, err := spinor.New(irreps, energies, occ, 0)
	if err != nil {
		t.Fatalf("spinor.New: %v", err)
	}
	if err := reg.Tile(1, true); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	cfg := config.Default()
	cfg.Arithmetic = config.Real
	ctx := dpd.NewContext(grp, reg, cfg)

	d, err := ctx.Tmplt("v", "hp", "00", []int{0, 1}, false)
	if err != nil {
		t.Fatalf("Tmplt: %v", err)
	}
	hBlock, _ := reg.Locate(0) // irrep A
	pBlock, _ := reg.Locate(2) // irrep B
	val, err := d.Get(dpd.ElementIndex{Block: []int{hBlock, pBlock}, Offset: []int{0, 0}})
	if err != nil {
		t.Fatalf("Get on a symmetry-forbidden tuple must not error: %v", err)
	}
	if val != 0 {
		t.Fatalf("symmetry-forbidden element = %v, want 0", val)
	}
}

// TestNonUniqueRestoration exercises spec.md §8 scenario 3: writing through
// the unique representative of a (p,q,r,s) block with p<q<r<s and reading
// back the transposed (q,p,r,s) tuple must reproduce the value with a sign
// flip, since swapping p and q is an odd permutation within the
// same-(qparts,valence) hole group.
func TestNonUniqueRestoration(t *testing.T) {
	irreps := []symmetry.Irrep{0, 0, 0, 0, 0, 0}
	energies := []float64{-1.0, -0.9, -0.8, -0.7, 0.3, 0.5}
	occ := []int{1, 1, 1, 1, 0, 0}
	reg, err := spinor.New(irreps, energies, occ, 0)
	if err != nil {
		t.Fatalf("spinor.New: %v", err)
	}
	if err := reg.Tile(1, true); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	ctx := newContext(t, reg)

	d, err := ctx.Tmplt("w", "hhpp", "0000", []int{0, 1, 2, 3}, true)
	if err != nil {
		t.Fatalf("Tmplt: %v", err)
	}

	pB, _ := reg.Locate(0)
	qB, _ := reg.Locate(1)
	rB, _ := reg.Locate(4)
	sB, _ := reg.Locate(5)

	unique := dpd.ElementIndex{Block: []int{pB, qB, rB, sB}, Offset: []int{0, 0, 0, 0}}
	if err := d.Set(unique, complex(3.0, 0)); err != nil {
		t.Fatalf("Set unique: %v", err)
	}

	swapped := dpd.ElementIndex{Block: []int{qB, pB, rB, sB}, Offset: []int{0, 0, 0, 0}}
	got, err := d.Get(swapped)
	if err != nil {
		t.Fatalf("Get swapped: %v", err)
	}
	if real(got) != -3.0 {
		t.Fatalf("swapped element = %v, want -3 (sign flip on transposition)", got)
	}
}

// TestDivepsNoShift checks the bare Moller-Plesset denominator path
// (shift.type = none) against a hand-computed value.
func TestDivepsNoShift(t *testing.T) {
	reg := fourSpinorRegistry(t)
	ctx := newContext(t, reg)

	d, err := ctx.Tmplt("d2", "hhpp", "0000", []int{0, 1, 2, 3}, true)
	if err != nil {
		t.Fatalf("Tmplt: %v", err)
	}
	hB0, _ := reg.Locate(0)
	hB1, _ := reg.Locate(1)
	pB0, _ := reg.Locate(2)
	pB1, _ := reg.Locate(3)
	idx := dpd.ElementIndex{Block: []int{hB0, hB1, pB0, pB1}, Offset: []int{0, 0, 0, 0}}
	if err := d.Set(idx, complex(1.0, 0)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := ctx.Diveps(d, 0, config.ShiftNone, 0, nil); err != nil {
		t.Fatalf("Diveps: %v", err)
	}
	got, err := d.Get(idx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := 1.0 / ((-1.0 + -0.8) - (0.3 + 0.5))
	if math.Abs(real(got)-want) > 1e-12 {
		t.Fatalf("divided element = %v, want %v", real(got), want)
	}
}

// TestUpdateAndScalarProduct covers the simple axpy/inner-product
// primitives of spec.md §4.3.5.
func TestUpdateAndScalarProduct(t *testing.T) {
	reg := fourSpinorRegistry(t)
	ctx := newContext(t, reg)

	a, err := ctx.Tmplt("a", "hp", "00", []int{0, 1}, false)
	if err != nil {
		t.Fatalf("Tmplt a: %v", err)
	}
	b, err := ctx.Tmplt("b", "hp", "00", []int{0, 1}, false)
	if err != nil {
		t.Fatalf("Tmplt b: %v", err)
	}
	hB, _ := reg.Locate(0)
	pB, _ := reg.Locate(2)
	idx := dpd.ElementIndex{Block: []int{hB, pB}, Offset: []int{0, 0}}
	if err := a.Set(idx, complex(2.0, 0)); err != nil {
		t.Fatalf("Set a: %v", err)
	}
	if err := b.Set(idx, complex(3.0, 0)); err != nil {
		t.Fatalf("Set b: %v", err)
	}

	if err := ctx.Update(a, complex(2, 0), b); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := a.Get(idx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if real(got) != 8.0 {
		t.Fatalf("a after update = %v, want 8", got)
	}

	sp, err := dpd.ScalarProduct(false, false, a, b)
	if err != nil {
		t.Fatalf("ScalarProduct: %v", err)
	}
	if real(sp) != 24.0 {
		t.Fatalf("scalar product = %v, want 24", sp)
	}
}

// TestMultSingleContraction checks the one-index contraction
// sum_k A(h,k) B(k,p) against a hand-computed value, exercising the
// collapse-to-GEMM path for a rank-2 x rank-2 -> rank-2 product.
func TestMultSingleContraction(t *testing.T) {
	reg := fourSpinorRegistry(t)
	ctx := newContext(t, reg)

	a, err := ctx.Tmplt("amp_a", "hh", "00", []int{0, 1}, false)
	if err != nil {
		t.Fatalf("Tmplt a: %v", err)
	}
	b, err := ctx.Tmplt("amp_b", "hp", "00", []int{0, 1}, false)
	if err != nil {
		t.Fatalf("Tmplt b: %v", err)
	}
	c, err := ctx.Tmplt("amp_c", "hp", "00", []int{0, 1}, false)
	if err != nil {
		t.Fatalf("Tmplt c: %v", err)
	}

	h0, _ := reg.Locate(0)
	h1, _ := reg.Locate(1)
	p0, _ := reg.Locate(2)

	if err := a.Set(dpd.ElementIndex{Block: []int{h0, h1}, Offset: []int{0, 0}}, complex(2, 0)); err != nil {
		t.Fatalf("Set a: %v", err)
	}
	if err := b.Set(dpd.ElementIndex{Block: []int{h1, p0}, Offset: []int{0, 0}}, complex(5, 0)); err != nil {
		t.Fatalf("Set b: %v", err)
	}

	if err := ctx.Mult(a, b, c, 1); err != nil {
		t.Fatalf("Mult: %v", err)
	}
	got, err := c.Get(dpd.ElementIndex{Block: []int{h0, p0}, Offset: []int{0, 0}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if real(got) != 10.0 {
		t.Fatalf("contracted element = %v, want 10", got)
	}
}
