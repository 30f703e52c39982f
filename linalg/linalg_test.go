package linalg_test

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aoleynichenko/EXP-T-sub003/linalg"
)

func TestDiagonalizeGeneralDiagonalMatrix(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{2, 0, 0, 5})
	eig, err := linalg.DiagonalizeGeneral(a)
	require.NoError(t, err)
	require.Len(t, eig.Values, 2)
	// ascending by real part
	assert.InDelta(t, 2, real(eig.Values[0]), 1e-9)
	assert.InDelta(t, 5, real(eig.Values[1]), 1e-9)
}

func TestDiagonalizeGeneralBiorthonormality(t *testing.T) {
	// a non-symmetric, non-Hermitian 2x2 matrix
	a := mat.NewCDense(2, 2, []complex128{2, 1, 0, 3})
	eig, err := linalg.DiagonalizeGeneral(a)
	require.NoError(t, err)

	n, _ := eig.Right.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var dot complex128
			for k := 0; k < n; k++ {
				dot += cmplx.Conj(eig.Left.At(k, i)) * eig.Right.At(k, j)
			}
			want := complex128(0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, real(want), real(dot), 1e-8, "left^H*right[%d,%d]", i, j)
			assert.InDelta(t, imag(want), imag(dot), 1e-8, "left^H*right[%d,%d]", i, j)
		}
	}
}

func TestDiagonalizeGeneralReproducesEigenrelation(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{4, 1, 2, 3})
	eig, err := linalg.DiagonalizeGeneral(a)
	require.NoError(t, err)

	n, _ := a.Dims()
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			var av complex128
			for j := 0; j < n; j++ {
				av += a.At(i, j) * eig.Right.At(j, k)
			}
			want := eig.Values[k] * eig.Right.At(i, k)
			assert.InDelta(t, real(want), real(av), 1e-8)
			assert.InDelta(t, imag(want), imag(av), 1e-8)
		}
	}
}

func TestLowdinOrthonormalizeProducesUnitaryColumns(t *testing.T) {
	right := mat.NewCDense(2, 2, []complex128{1, 1, 0, 2})
	ortho, err := linalg.LowdinOrthonormalize(right)
	require.NoError(t, err)

	n, k := ortho.Dims()
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			var dot complex128
			for r := 0; r < n; r++ {
				dot += cmplx.Conj(ortho.At(r, i)) * ortho.At(r, j)
			}
			want := complex128(0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, real(want), real(dot), 1e-8)
			assert.InDelta(t, imag(want), imag(dot), 1e-8)
		}
	}
}

func TestInverseRoundTrip(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{2, 1, 0, 3})
	inv, err := linalg.Inverse(a)
	require.NoError(t, err)

	var prod mat.CDense
	prod.Mul(a, inv)
	n, _ := prod.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := complex128(0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, real(want), real(prod.At(i, j)), 1e-8)
			assert.InDelta(t, imag(want), imag(prod.At(i, j)), 1e-8)
		}
	}
}

func TestInverseRejectsSingularMatrix(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{1, 1, 1, 1})
	_, err := linalg.Inverse(a)
	assert.Error(t, err)
}

func TestComplexSVDDiagonalMatrix(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{3, 0, 0, 1})
	sigma, u, v, err := linalg.ComplexSVD(a)
	require.NoError(t, err)
	require.Len(t, sigma, 2)
	assert.InDelta(t, 3, sigma[0], 1e-9)
	assert.InDelta(t, 1, sigma[1], 1e-9)

	// A*v_k == sigma_k*u_k for every singular triple
	n, _ := a.Dims()
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			var av complex128
			for j := 0; j < n; j++ {
				av += a.At(i, j) * v.At(j, k)
			}
			want := complex(sigma[k], 0) * u.At(i, k)
			assert.InDelta(t, real(want), real(av), 1e-8)
			assert.InDelta(t, imag(want), imag(av), 1e-8)
		}
	}
}

func TestComplexSVDThreeByThree(t *testing.T) {
	a := mat.NewCDense(3, 3, []complex128{1, 0, 0, 0, 2, 0, 0, 0, 3})
	sigma, _, _, err := linalg.ComplexSVD(a)
	require.NoError(t, err)
	assert.InDelta(t, 3, sigma[0], 1e-9)
	assert.InDelta(t, 2, sigma[1], 1e-9)
	assert.InDelta(t, 1, sigma[2], 1e-9)
}
