// Package linalg provides the general (non-Hermitian) complex eigendecomposition
// and a few derived operations (matrix inverse, Löwdin orthonormalisation) that
// heff and density both need, bridged onto gonum's real-only mat.Eigen.
package linalg

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
)

// Eigenpairs holds the biorthonormal left/right eigendecomposition of a
// general complex matrix, sorted ascending by the real part of the
// eigenvalue, per spec.md §4.7.2d and the `left† · right = I` invariant
// of §8.
type Eigenpairs struct {
	Values []complex128
	Right  *mat.CDense // n x n, right eigenvectors as columns
	Left   *mat.CDense // n x n, left eigenvectors as columns
}

// DiagonalizeGeneral computes the eigenvalues and biorthonormal left/right
// eigenvectors of the general (non-Hermitian) complex matrix a.
//
// gonum's mat package exposes no general complex eigensolver (mat.Eigen
// wraps lapack64.Geev, which only accepts real matrices). The bridge used
// here is the standard real embedding of an n x n complex matrix a as the
// 2n x 2n real matrix M = [[Re(a), -Im(a)], [Im(a), Re(a)]]: M is similar,
// over C, to the block-diagonal matrix diag(a, conj(a)), so its spectrum
// is the union of a's eigenvalues and their conjugates. For an eigenvector
// u of a with Au=lambda*u, the pair (x,y)=(u,-i*u) is a genuine eigenvector
// of M (viewed as acting on C^2n) for the same eigenvalue lambda; the
// complementary "conj(a)-type" solutions have (x,y)=(v,+i*v) instead. The
// two families are told apart by checking whether the bottom half of a
// VectorsTo column equals -i or +i times its top half, and a's own
// eigenvectors are recovered by keeping the bottom-half-equals-minus-i-top
// half of the 2n candidates.
//
// Left eigenvectors are obtained the same way from a's conjugate transpose:
// if w solves a^H w = conj(lambda)*w then w^H a = lambda*w^H, i.e. w is
// directly a left eigenvector of a for eigenvalue lambda.
func DiagonalizeGeneral(a *mat.CDense) (*Eigenpairs, error) {
	n, _ := a.Dims()
	if n == 0 {
		return &Eigenpairs{}, nil
	}

	rightVals, rightVecs, err := embeddedRightEigen(a)
	if err != nil {
		return nil, err
	}

	ah := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			ah.Set(i, j, cmplx.Conj(a.At(j, i)))
		}
	}
	leftVals, leftVecs, err := embeddedRightEigen(ah)
	if err != nil {
		return nil, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return real(rightVals[order[i]]) < real(rightVals[order[j]]) })

	vals := make([]complex128, n)
	right := mat.NewCDense(n, n, nil)
	left := mat.NewCDense(n, n, nil)
	usedLeft := make([]bool, n)
	for outIdx, ri := range order {
		lam := rightVals[ri]
		best, bestDist := -1, math.Inf(1)
		for lj := 0; lj < n; lj++ {
			if usedLeft[lj] {
				continue
			}
			d := cmplx.Abs(leftVals[lj] - cmplx.Conj(lam))
			if d < bestDist {
				bestDist, best = d, lj
			}
		}
		usedLeft[best] = true
		vals[outIdx] = lam

		var dot complex128
		for i := 0; i < n; i++ {
			dot += cmplx.Conj(leftVecs.At(i, best)) * rightVecs.At(i, ri)
		}
		if cmplx.Abs(dot) < 1e-12 {
			return nil, ferr.NewNumeric("linalg.DiagonalizeGeneral", "near-singular left/right eigenvector overlap")
		}
		scale := 1 / cmplx.Conj(dot)
		for i := 0; i < n; i++ {
			right.Set(i, outIdx, rightVecs.At(i, ri))
			left.Set(i, outIdx, scale*leftVecs.At(i, best))
		}
	}
	return &Eigenpairs{Values: vals, Right: right, Left: left}, nil
}

// embeddedRightEigen returns the right eigenvalues/eigenvectors of the
// complex matrix a via the real-embedding construction described on
// DiagonalizeGeneral.
func embeddedRightEigen(a *mat.CDense) ([]complex128, *mat.CDense, error) {
	n, _ := a.Dims()
	m := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			m.Set(i, j, real(v))
			m.Set(i, n+j, -imag(v))
			m.Set(n+i, j, imag(v))
			m.Set(n+i, n+j, real(v))
		}
	}
	var eig mat.Eigen
	if ok := eig.Factorize(m, false, true); !ok {
		return nil, nil, ferr.NewNumeric("linalg.embeddedRightEigen", "real-embedding eigenvalue decomposition did not converge")
	}
	allVals := eig.Values(nil)
	allVecs := eig.VectorsTo(nil)

	type candidate struct {
		idx      int
		residual float64
	}
	cands := make([]candidate, 2*n)
	for k := 0; k < 2*n; k++ {
		var resid float64
		for i := 0; i < n; i++ {
			top := allVecs.At(i, k)
			bot := allVecs.At(n+i, k)
			diff := bot + complex(0, 1)*top // zero iff bottom == -i*top (the a-type family)
			resid += real(diff)*real(diff) + imag(diff)*imag(diff)
		}
		cands[k] = candidate{idx: k, residual: resid}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].residual < cands[j].residual })

	vals := make([]complex128, n)
	vecs := mat.NewCDense(n, n, nil)
	for outIdx := 0; outIdx < n; outIdx++ {
		k := cands[outIdx].idx
		vals[outIdx] = allVals[k]
		var norm float64
		for i := 0; i < n; i++ {
			top := allVecs.At(i, k)
			norm += real(top)*real(top) + imag(top)*imag(top)
		}
		norm = math.Sqrt(norm)
		if norm < 1e-13 {
			return nil, nil, ferr.NewNumeric("linalg.embeddedRightEigen", "degenerate eigenvector recovery failed")
		}
		for i := 0; i < n; i++ {
			vecs.Set(i, outIdx, allVecs.At(i, k)/complex(norm, 0))
		}
	}
	return vals, vecs, nil
}

// LowdinOrthonormalize replaces right's columns with their Löwdin
// (symmetric) orthonormalisation S^{-1/2}·right, where S = right^H·right,
// per spec.md §4.7.2e ("hermitisation").
func LowdinOrthonormalize(right *mat.CDense) (*mat.CDense, error) {
	n, k := right.Dims()
	s := mat.NewCDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			var v complex128
			for r := 0; r < n; r++ {
				v += cmplx.Conj(right.At(r, i)) * right.At(r, j)
			}
			s.Set(i, j, v)
		}
	}
	// S is Hermitian positive-definite; diagonalize via the same general
	// solver (S is normal, so left == right up to the overlap scaling,
	// and S^{-1/2} = V * diag(1/sqrt(w)) * V^{-1}).
	eig, err := DiagonalizeGeneral(s)
	if err != nil {
		return nil, ferr.NewNumeric("linalg.LowdinOrthonormalize", err.Error())
	}
	invSqrt := mat.NewCDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			var v complex128
			for p := 0; p < k; p++ {
				wReal := real(eig.Values[p])
				if wReal <= 0 {
					return nil, ferr.NewNumeric("linalg.LowdinOrthonormalize", "non-positive overlap eigenvalue")
				}
				vr := eig.Right.At(i, p)
				vl := eig.Left.At(j, p)
				v += vr * complex(1/math.Sqrt(wReal), 0) * cmplx.Conj(vl)
			}
			invSqrt.Set(i, j, v)
		}
	}
	out := mat.NewCDense(n, k, nil)
	out.Mul(right, invSqrt)
	return out, nil
}

// ComplexSVD computes the singular value decomposition of the square
// complex matrix a (non-square input is rejected with a ConfigError;
// every caller here passes a square density matrix) via the Hermitian
// eigenproblem
// of a^H*a: if a^H*a*v = sigma^2*v with v of unit norm, then sigma =
// ||a*v|| and u = a*v/sigma is a's corresponding left singular vector,
// since v is already an eigenvector of a^H*a with ||a*v|| = sigma*||v||.
// Singular values are returned in descending order. gonum's mat.SVD
// accepts only real matrices (lapack64.Gesdd has no complex counterpart
// exposed through mat), so complex callers route through this instead;
// real-valued inputs should prefer mat.SVD directly.
func ComplexSVD(a *mat.CDense) ([]float64, *mat.CDense, *mat.CDense, error) {
	n, m := a.Dims()
	if n != m {
		return nil, nil, nil, ferr.NewConfig("linalg.ComplexSVD", "only square matrices are supported")
	}
	aha := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var v complex128
			for k := 0; k < n; k++ {
				v += cmplx.Conj(a.At(k, i)) * a.At(k, j)
			}
			aha.Set(i, j, v)
		}
	}
	eig, err := DiagonalizeGeneral(aha)
	if err != nil {
		return nil, nil, nil, err
	}

	sigma := make([]float64, n)
	u := mat.NewCDense(n, n, nil)
	v := mat.NewCDense(n, n, nil)
	for k := 0; k < n; k++ {
		src := n - 1 - k // descending
		lam := real(eig.Values[src])
		if lam < 0 {
			lam = 0
		}
		s := math.Sqrt(lam)
		sigma[k] = s
		for i := 0; i < n; i++ {
			v.Set(i, k, eig.Right.At(i, src))
		}
		if s < 1e-13 {
			continue
		}
		for i := 0; i < n; i++ {
			var av complex128
			for j := 0; j < n; j++ {
				av += a.At(i, j) * eig.Right.At(j, src)
			}
			u.Set(i, k, av/complex(s, 0))
		}
	}
	return sigma, u, v, nil
}

// Inverse computes a^-1 via its own biorthonormal eigendecomposition:
// a = R*diag(vals)*L^H with L^H*R = I implies a^-1 = R*diag(1/vals)*L^H.
func Inverse(a *mat.CDense) (*mat.CDense, error) {
	n, _ := a.Dims()
	eig, err := DiagonalizeGeneral(a)
	if err != nil {
		return nil, err
	}
	out := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var v complex128
			for k := 0; k < n; k++ {
				lam := eig.Values[k]
				if lam == 0 {
					return nil, ferr.NewNumeric("linalg.Inverse", "singular matrix")
				}
				v += eig.Right.At(i, k) * (1 / lam) * cmplx.Conj(eig.Left.At(j, k))
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}
