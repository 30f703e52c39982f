package determinant_test

import (
	"testing"

	"github.com/aoleynichenko/EXP-T-sub003/determinant"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

func c1(t *testing.T) *symmetry.Group {
	t.Helper()
	g, err := symmetry.NewAbelian([]string{"A"}, [][]symmetry.Irrep{{0}}, 0)
	if err != nil {
		t.Fatalf("NewAbelian: %v", err)
	}
	return g
}

func registryTwoActiveEach(t *testing.T) *spinor.Registry {
	t.Helper()
	irreps := []symmetry.Irrep{0, 0, 0, 0}
	energies := []float64{-1, -0.9, 0.2, 0.3}
	occ := []int{1, 1, 0, 0}
	reg, err := spinor.New(irreps, energies, occ, 0)
	if err != nil {
		t.Fatalf("spinor.New: %v", err)
	}
	if err := reg.SetActive([]int{0, 1, 2, 3}); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	return reg
}

func TestBuildOnePOneHSector(t *testing.T) {
	reg := registryTwoActiveEach(t)
	ms, err := determinant.Build(c1(t), reg, 1, 1, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	total := 0
	for _, g := range ms.Irreps() {
		total += ms.Count(g)
	}
	if total != 4 { // 2 holes x 2 particles
		t.Fatalf("got %d determinants, want 4", total)
	}
}

func TestBuildMixedVacuum(t *testing.T) {
	reg := registryTwoActiveEach(t)
	sym := c1(t)
	ms, err := determinant.Build(sym, reg, 1, 1, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	found := false
	for _, d := range ms.ByIrrep[sym.TotallySymmetricIrrep()] {
		if d.Vacuum {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a vacuum determinant in the totally symmetric irrep")
	}
}

func TestOverlapAndComparator(t *testing.T) {
	a := determinant.Determinant{Holes: []int{0}, Particles: []int{2}, Irrep: 0}
	b := determinant.Determinant{Holes: []int{0}, Particles: []int{2}, Irrep: 0}
	c := determinant.Determinant{Holes: []int{1}, Particles: []int{2}, Irrep: 0}
	if determinant.Overlap(a, b) != 1 {
		t.Fatalf("identical determinants must overlap")
	}
	if determinant.Overlap(a, c) != 0 {
		t.Fatalf("distinct determinants must not overlap")
	}
	if !determinant.Less(a, c) {
		t.Fatalf("expected a < c by content tuple")
	}
}

func TestCombinationsAreStrictlyIncreasing(t *testing.T) {
	reg := registryTwoActiveEach(t)
	ms, err := determinant.Build(c1(t), reg, 2, 0, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	total := 0
	for _, g := range ms.Irreps() {
		for _, d := range ms.ByIrrep[g] {
			if len(d.Holes) != 2 || d.Holes[0] >= d.Holes[1] {
				t.Fatalf("hole indices not strictly increasing: %v", d.Holes)
			}
			total++
		}
	}
	if total != 1 { // C(2,2) = 1
		t.Fatalf("got %d determinants, want 1", total)
	}
}
