package heff_test

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/determinant"
	"github.com/aoleynichenko/EXP-T-sub003/dpd"
	"github.com/aoleynichenko/EXP-T-sub003/heff"
	"github.com/aoleynichenko/EXP-T-sub003/intham"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

func c1Group(t *testing.T) *symmetry.Group {
	t.Helper()
	g, err := symmetry.NewAbelian([]string{"A"}, [][]symmetry.Irrep{{0}}, 0)
	require.NoError(t, err)
	return g
}

// fourSpinorRegistry builds a 2-hole/2-particle registry, tile size 1, no
// active restriction.
func fourSpinorRegistry(t *testing.T) *spinor.Registry {
	t.Helper()
	irreps := []symmetry.Irrep{0, 0, 0, 0}
	energies := []float64{-1.0, -0.8, 0.3, 0.5}
	occ := []int{1, 1, 0, 0}
	reg, err := spinor.New(irreps, energies, occ, 0)
	require.NoError(t, err)
	require.NoError(t, reg.SetActive([]int{0, 1, 2, 3}))
	require.NoError(t, reg.Tile(1, true))
	return reg
}

func newContext(t *testing.T, reg *spinor.Registry) *dpd.Context {
	t.Helper()
	cfg := config.Default()
	cfg.Arithmetic = config.Complex
	return dpd.NewContext(c1Group(t), reg, cfg)
}

// TestBuildHamiltonianDiagonalAndOffDiagonal checks that BuildHamiltonian
// seeds the diagonal from orbital energies and picks up off-diagonal
// elements through the bound "pp" operator diagram via slater's 0101 rule.
func TestBuildHamiltonianDiagonalAndOffDiagonal(t *testing.T) {
	reg := fourSpinorRegistry(t)
	ctx := newContext(t, reg)

	h1, err := ctx.Tmplt("h1", "pp", "00", []int{0, 1}, false)
	require.NoError(t, err)
	ctx.Push(h1)

	require.NoError(t, h1.Set(dpd.NewElementIndex(reg, []int{2, 2}), complex(0.1, 0)))
	require.NoError(t, h1.Set(dpd.NewElementIndex(reg, []int{3, 3}), complex(0.2, 0)))
	require.NoError(t, h1.Set(dpd.NewElementIndex(reg, []int{2, 3}), complex(0.05, 0)))
	require.NoError(t, h1.Set(dpd.NewElementIndex(reg, []int{3, 2}), complex(0.05, 0)))

	dets := []determinant.Determinant{
		{Particles: []int{2}},
		{Particles: []int{3}},
	}
	hm, err := heff.BuildHamiltonian(reg, dets, []heff.Operator{{Diagram: h1, NPart: 1}})
	require.NoError(t, err)

	// zero-order energy is the bare particle orbital energy plus the bound
	// diagonal correction.
	assert.InDelta(t, 0.3+0.1, real(hm.At(0, 0)), 1e-12)
	assert.InDelta(t, 0.5+0.2, real(hm.At(1, 1)), 1e-12)
	assert.InDelta(t, 0.05, real(hm.At(0, 1)), 1e-12)
	assert.InDelta(t, 0.05, real(hm.At(1, 0)), 1e-12)
}

// TestBuildHamiltonianEmptyDeterminantList exercises the config-error path.
func TestBuildHamiltonianEmptyDeterminantList(t *testing.T) {
	reg := fourSpinorRegistry(t)
	_, err := heff.BuildHamiltonian(reg, nil, nil)
	assert.Error(t, err)
}

// biorthonormalityResidual measures max|left^H * right - I| for a small
// matrix, used by the eigendecomposition tests below.
func biorthonormalityResidual(left, right *mat.CDense) float64 {
	n, k := right.Dims()
	var maxResid float64
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			var dot complex128
			for r := 0; r < n; r++ {
				dot += cmplx.Conj(left.At(r, i)) * right.At(r, j)
			}
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			if d := cmplx.Abs(dot - want); d > maxResid {
				maxResid = d
			}
		}
	}
	return maxResid
}

// computeHeffForDiagonal exercises heff.Compute on a hand-built model
// space, reaching the package's internal eigensolver through its public
// API.
func computeHeffForDiagonal(t *testing.T, sym *symmetry.Group, reg *spinor.Registry, dets []determinant.Determinant, cfg config.Config) map[symmetry.Irrep]*heff.Block {
	t.Helper()
	ms := &determinant.ModelSpace{ByIrrep: map[symmetry.Irrep][]determinant.Determinant{}}
	for _, d := range dets {
		ms.ByIrrep[d.Irrep] = append(ms.ByIrrep[d.Irrep], d)
	}
	blocks, err := heff.Compute(sym, reg, ms, nil, cfg)
	require.NoError(t, err)
	return blocks
}

// TestComputeDiagonalMatrixEigenvaluesAndBiorthonormality checks that a
// purely diagonal H_gamma (no off-diagonal operator bound) recovers its
// own zero-order energies as eigenvalues, sorted ascending, with
// biorthonormal left/right eigenvectors.
func TestComputeDiagonalMatrixEigenvaluesAndBiorthonormality(t *testing.T) {
	reg := fourSpinorRegistry(t)
	sym := c1Group(t)

	dets := []determinant.Determinant{
		{Particles: []int{3}, Irrep: 0},
		{Particles: []int{2}, Irrep: 0},
	}
	cfg := config.Default()
	blocks := computeHeffForDiagonal(t, sym, reg, dets, cfg)

	b, ok := blocks[0]
	require.True(t, ok, "expected a block for irrep 0")
	require.Len(t, b.Eigen.Values, 2)
	assert.InDelta(t, 0.3, real(b.Eigen.Values[0]), 1e-9)
	assert.InDelta(t, 0.5, real(b.Eigen.Values[1]), 1e-9)
	assert.LessOrEqual(t, biorthonormalityResidual(b.Eigen.Left, b.Eigen.Right), 1e-8)
}

// TestComputeHermitiseProducesOrthonormalVectors checks that
// HermitiseVectors triggers Löwdin orthonormalisation: right^H*right = I.
func TestComputeHermitiseProducesOrthonormalVectors(t *testing.T) {
	reg := fourSpinorRegistry(t)
	sym := c1Group(t)
	dets := []determinant.Determinant{
		{Particles: []int{2}, Irrep: 0},
		{Particles: []int{3}, Irrep: 0},
	}
	cfg := config.Default()
	cfg.HermitiseVectors = true
	blocks := computeHeffForDiagonal(t, sym, reg, dets, cfg)
	b := blocks[0]
	assert.LessOrEqual(t, biorthonormalityResidual(b.Eigen.Right, b.Eigen.Right), 1e-8)
}

// TestSelectRootsAppliesEnergyCutoff checks selectRoots via Compute: with a
// tight cutoff, only the lowest root of a two-root block should survive.
func TestSelectRootsAppliesEnergyCutoff(t *testing.T) {
	reg := fourSpinorRegistry(t)
	sym := c1Group(t)
	dets := []determinant.Determinant{
		{Particles: []int{2}, Irrep: 0},
		{Particles: []int{3}, Irrep: 0},
	}
	cfg := config.Default()
	cfg.RootsEnergyCutoff = 0.05 // gap between 0.3 and 0.5 is 0.2, excludes the second root
	blocks := computeHeffForDiagonal(t, sym, reg, dets, cfg)
	assert.Equal(t, 1, blocks[0].NRoots)
}

// TestSelectRootsHonoursConfiguredCount checks that an explicit per-irrep
// root count caps NRoots even when the cutoff would allow more.
func TestSelectRootsHonoursConfiguredCount(t *testing.T) {
	reg := fourSpinorRegistry(t)
	sym := c1Group(t)
	dets := []determinant.Determinant{
		{Particles: []int{2}, Irrep: 0},
		{Particles: []int{3}, Irrep: 0},
	}
	cfg := config.Default()
	cfg.NRootsPerIrrep = map[string]int{sym.IrrepName(0): 1}
	blocks := computeHeffForDiagonal(t, sym, reg, dets, cfg)
	assert.Equal(t, 1, blocks[0].NRoots)
}

// TestBuildEnergyTableGroupsDegeneratesAndSorts checks that BuildEnergyTable
// sorts ascending and groups near-degenerate eigenvalues into a single
// level, with the absolute/relative energy columns computed correctly.
func TestBuildEnergyTableGroupsDegeneratesAndSorts(t *testing.T) {
	reg := fourSpinorRegistry(t)
	sym := c1Group(t)
	dets := []determinant.Determinant{
		{Particles: []int{2}, Irrep: 0},
		{Particles: []int{3}, Irrep: 0},
	}
	cfg := config.Default()
	blocks := computeHeffForDiagonal(t, sym, reg, dets, cfg)
	blocks[0].NRoots = 2

	refEnergy := -10.0
	levels := heff.BuildEnergyTable(sym, blocks, refEnergy, 1e-6, nil)
	require.Len(t, levels, 2, "no accidental degeneracy")
	assert.Equal(t, 1, levels[0].Degeneracy)
	assert.Equal(t, 1, levels[1].Degeneracy)
	assert.InDelta(t, 0, levels[0].RelEnergy, 1e-9)
	assert.InDelta(t, refEnergy+0.3, levels[0].AbsEnergy, 1e-9)
	assert.InDelta(t, 0.2, levels[1].RelEnergy, 1e-9)

	out := heff.FormatEnergyTable(sym, levels, 1e-6)
	assert.NotEmpty(t, out)
}

// TestIntHamMainSpaceWeightThroughEnergyTable checks that BuildEnergyTable
// reports a 100% main-space weight for a block built entirely from main
// determinants.
func TestIntHamMainSpaceWeightThroughEnergyTable(t *testing.T) {
	reg := fourSpinorRegistry(t)
	sym := c1Group(t)
	subs := []config.IHIMMSSubspace{{EMin: -10, EMax: 10}}
	part, err := intham.BuildPartition(reg, subs)
	require.NoError(t, err)
	classifier := intham.NewClassifier(part, nil, 10, 0, false)

	dets := []determinant.Determinant{{Particles: []int{2}, Irrep: 0}}
	cfg := config.Default()
	blocks := computeHeffForDiagonal(t, sym, reg, dets, cfg)
	blocks[0].NRoots = 1

	levels := heff.BuildEnergyTable(sym, blocks, 0, 1e-6, map[symmetry.Irrep]*intham.Classifier{0: classifier})
	require.Len(t, levels, 1)
	assert.True(t, levels[0].HasIntHam)
	assert.InDelta(t, 100, levels[0].PercentMain, 1e-9)
}

// TestRenormalizeSector11IdentityOmegaLeavesEigenvaluesUnchanged checks
// that with zero T1/S1 amplitudes (so Omega is the identity), the
// renormalised block's eigenvalues are exactly {0, zero-order energy of
// the 1h1p determinant} — the vacuum energy and the unrenormalised root.
func TestRenormalizeSector11IdentityOmegaLeavesEigenvaluesUnchanged(t *testing.T) {
	reg := fourSpinorRegistry(t)
	sym := c1Group(t)
	ctx := newContext(t, reg)

	t1, err := ctx.Tmplt("t1", "hp", "00", []int{0, 1}, false)
	require.NoError(t, err)
	ctx.Push(t1)
	s1, err := ctx.Tmplt("s1", "ph", "00", []int{0, 1}, false)
	require.NoError(t, err)
	ctx.Push(s1)
	// leave t1/s1 at their zero-initialised values: Omega is the identity.

	dets := []determinant.Determinant{{Holes: []int{0}, Particles: []int{2}, Irrep: 0}}
	cfg := config.Default()
	blocks := computeHeffForDiagonal(t, sym, reg, dets, cfg)
	vacuumBlock := blocks[0]

	ext, err := heff.RenormalizeSector11(sym, reg, vacuumBlock, t1, s1, false)
	require.NoError(t, err)
	require.Len(t, ext.Dets, 2)
	assert.True(t, ext.Dets[0].Vacuum)
	require.Len(t, ext.Eigen.Values, 2)
	assert.InDelta(t, 0, real(ext.Eigen.Values[0]), 1e-9, "lowest eigenvalue should be the vacuum energy")
	want := 0.3 - (-1.0) // zero-order energy of the single 1h1p determinant
	assert.InDelta(t, want, real(ext.Eigen.Values[1]), 1e-9)
}

// TestRenormalizeSector11RejectsWrongIrrep checks the invariant guard when
// the supplied block is not the vacuum's own irrep.
func TestRenormalizeSector11RejectsWrongIrrep(t *testing.T) {
	reg := fourSpinorRegistry(t)
	sym := c1Group(t)
	ctx := newContext(t, reg)
	t1, err := ctx.Tmplt("t1", "hp", "00", []int{0, 1}, false)
	require.NoError(t, err)
	ctx.Push(t1)
	s1, err := ctx.Tmplt("s1", "ph", "00", []int{0, 1}, false)
	require.NoError(t, err)
	ctx.Push(s1)

	b := &heff.Block{Irrep: symmetry.Irrep(99)}
	_, err = heff.RenormalizeSector11(sym, reg, b, t1, s1, false)
	assert.Error(t, err)
}
