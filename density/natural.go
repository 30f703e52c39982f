package density

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/linalg"
)

// NaturalSpinors is the result of diagonalizing a same-state model-space
// density matrix, per construct_quasi_natural_orbitals in natorb.c.
type NaturalSpinors struct {
	ActiveSpinors []int
	Occ           []float64  // occupation numbers, ordered per cmpNatorbOccupations
	Vectors       *mat.CDense // n x n; Vectors.At(i,j) = coefficient of active spinor j in natural spinor i
	Config        []float64  // effective configuration, one weight per active spinor
}

// cmpNatorbOccupations orders occupation numbers per cmp_natorb_occupations
// in natorb.c: negative occupations first (ascending, -1 -> 0), then
// positive occupations (descending, +1 -> 0).
func cmpNatorbOccupations(occ1, occ2 float64) int {
	if occ1*occ2 < 0 {
		return sgn(occ1 - occ2)
	}
	return sgn(math.Abs(occ2) - math.Abs(occ1))
}

func sgn(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// ComputeNaturalSpinors diagonalizes dm (a same-state density matrix, so
// Hermitian up to numerical noise) and reorders the eigenpairs per
// cmpNatorbOccupations, then computes the effective configuration of
// natural_spinor_configuration.
func ComputeNaturalSpinors(dm *mat.CDense, activeSpinors []int) (*NaturalSpinors, error) {
	n := len(activeSpinors)
	eig, err := linalg.DiagonalizeGeneral(dm)
	if err != nil {
		return nil, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return cmpNatorbOccupations(real(eig.Values[order[i]]), real(eig.Values[order[j]])) < 0
	})

	occ := make([]float64, n)
	vectors := mat.NewCDense(n, n, nil)
	for outIdx, srcIdx := range order {
		occ[outIdx] = real(eig.Values[srcIdx])
		for j := 0; j < n; j++ {
			// NO index is the row, active-spinor index is the column,
			// per natorb_right[n_active*i+j] in natorb.c.
			vectors.Set(outIdx, j, eig.Right.At(j, srcIdx))
		}
	}

	config := make([]float64, n)
	for j := 0; j < n; j++ {
		var weight float64
		for i := 0; i < n; i++ {
			c := vectors.At(i, j)
			weight += occ[i] * cmplx.Abs(c) * cmplx.Abs(c)
		}
		config[j] = weight
	}

	return &NaturalSpinors{
		ActiveSpinors: activeSpinors,
		Occ:           occ,
		Vectors:       vectors,
		Config:        config,
	}, nil
}

// NaturalTransitionSpinors is the SVD-derived result for a genuine
// transition (gamma1 != gamma2 or i1 != i2), per spec.md §4.8: "for
// transitions ... SVD of D yields natural-transition spinors".
type NaturalTransitionSpinors struct {
	ActiveSpinors []int
	Lambda        []float64   // singular values, descending
	Weights       []float64   // lambda^2, the reported transition weights
	Left          *mat.CDense // n x n, left singular vectors as columns
	Right         *mat.CDense // n x n, right singular vectors as columns
}

// isReal reports whether every entry of m has a negligible imaginary
// part, within tol.
func isReal(m *mat.CDense, tol float64) bool {
	n, k := m.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			if math.Abs(imag(m.At(i, j))) > tol {
				return false
			}
		}
	}
	return true
}

// ComputeNaturalTransitionSpinors takes the SVD of the transition density
// matrix dm. Real-arithmetic runs (spec.md's config.Arithmetic == Real)
// produce a real dm, in which case gonum's mat.SVD is used directly on
// its real part (the faster, LAPACK-gesdd-backed path); otherwise the
// general complex case is handled via linalg.ComplexSVD, since gonum's
// mat.SVD has no complex counterpart.
func ComputeNaturalTransitionSpinors(dm *mat.CDense, activeSpinors []int) (*NaturalTransitionSpinors, error) {
	n := len(activeSpinors)

	var sigma []float64
	left := mat.NewCDense(n, n, nil)
	right := mat.NewCDense(n, n, nil)

	if isReal(dm, 1e-13) {
		re := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				re.Set(i, j, real(dm.At(i, j)))
			}
		}
		svd := mat.SVD{U: mat.SVDFull, V: mat.SVDFull}
		if ok := svd.Factorize(re); !ok {
			return nil, ferr.NewNumeric("density.ComputeNaturalTransitionSpinors", "real SVD did not converge")
		}
		sigma = svd.Values(nil)
		var u, v mat.Dense
		svd.UTo(&u)
		svd.VTo(&v)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				left.Set(i, j, complex(u.At(i, j), 0))
				right.Set(i, j, complex(v.At(i, j), 0))
			}
		}
	} else {
		s, u, v, err := linalg.ComplexSVD(dm)
		if err != nil {
			return nil, err
		}
		sigma, left, right = s, u, v
	}

	weights := make([]float64, n)
	for i, s := range sigma {
		weights[i] = s * s
	}

	return &NaturalTransitionSpinors{
		ActiveSpinors: activeSpinors,
		Lambda:        sigma,
		Weights:       weights,
		Left:          left,
		Right:         right,
	}, nil
}
