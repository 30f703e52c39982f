package heff

import (
	"gonum.org/v1/gonum/mat"

	"github.com/aoleynichenko/EXP-T-sub003/determinant"
	"github.com/aoleynichenko/EXP-T-sub003/dpd"
	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/linalg"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

// ExtendedBlock is the renormalised 0h0p+1h1p block produced by
// RenormalizeSector11, per spec.md §4.7.4.
type ExtendedBlock struct {
	Dets  []determinant.Determinant // vacuum first, then the 1h1p dets of vacuumIrrep
	Heff  *mat.CDense // the dim+1 x dim+1 renormalised block
	Omega *mat.CDense // the P*Omega*P matrix used to renormalise
	Eigen *linalg.Eigenpairs
}

// omega0h0p1h1p builds P*Omega*P over the basis {vacuum} union dets (all of
// irrep vacuumIrrep), per omega_0h0p_0h1p in renorm_omega.c: Omega[0,0]=1,
// Omega[0,k]=S1[a_k,i_k] (de-excitation amplitude), Omega[k,0]=T1[i_k,a_k]
// (excitation amplitude), Omega[k,l]=delta(i_k,i_l)*delta(a_k,a_l) +
// T1[i_k,a_k]*S1[a_l,i_l].
func omega0h0p1h1p(reg *spinor.Registry, dets []determinant.Determinant, t1, s1 *dpd.Diagram) (*mat.CDense, error) {
	dim := len(dets)
	n := dim + 1
	omega := mat.NewCDense(n, n, nil)
	omega.Set(0, 0, 1)

	t1Get := getterFor(reg, t1)
	s1Get := getterFor(reg, s1)

	for k, d := range dets {
		i, a := d.Holes[0], d.Particles[0]
		v, err := s1Get([]int{a, i})
		if err != nil {
			return nil, err
		}
		omega.Set(0, k+1, v)

		v, err = t1Get([]int{i, a})
		if err != nil {
			return nil, err
		}
		omega.Set(k+1, 0, v)
	}

	for k, dk := range dets {
		ik, ak := dk.Holes[0], dk.Particles[0]
		tka, err := t1Get([]int{ik, ak})
		if err != nil {
			return nil, err
		}
		for l, dl := range dets {
			il, al := dl.Holes[0], dl.Particles[0]
			delta := complex(0, 0)
			if ik == il && ak == al {
				delta = 1
			}
			sla, err := s1Get([]int{al, il})
			if err != nil {
				return nil, err
			}
			omega.Set(k+1, l+1, delta+tka*sla)
		}
	}
	return omega, nil
}

// RenormalizeSector11 implements restore_intermediate_normalization /
// renormalize_wave_operator_0h0p_0h1p of renorm_omega.c: it builds the
// extended (dim+1)x(dim+1) block-diagonal matrix holding the vacuum energy
// (0) and the plain (unmixed) 1h1p Heff block of the vacuum's irrep,
// transforms it by the P*Omega*P matrix built from the t1/s1 cluster-
// operator diagrams so that P*Omega*P = P on the extended model space, and
// diagonalizes the result, per spec.md §4.7.4. vacuumBlock is the pure
// (no vacuum row/column) H_gamma block of the vacuum irrep returned by
// Compute.
func RenormalizeSector11(sym *symmetry.Group, reg *spinor.Registry, vacuumBlock *Block, t1, s1 *dpd.Diagram, hermitise bool) (*ExtendedBlock, error) {
	vacIrrep := sym.TotallySymmetricIrrep()
	if vacuumBlock.Irrep != vacIrrep {
		return nil, ferr.NewInvariant("heff.RenormalizeSector11", "vacuum irrep block", "block's irrep does not match the totally symmetric irrep")
	}
	dets := vacuumBlock.Dets
	for _, d := range dets {
		if d.Vacuum {
			return nil, ferr.NewInvariant("heff.RenormalizeSector11", "vacuum determinant", "vacuumBlock must hold only the pure 1h1p determinants, not the mixed vacuum entry")
		}
	}

	dim := len(dets)
	n := dim + 1
	extended := mat.NewCDense(n, n, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			extended.Set(i+1, j+1, vacuumBlock.H.At(i, j))
		}
	}

	omega, err := omega0h0p1h1p(reg, dets, t1, s1)
	if err != nil {
		return nil, err
	}
	omegaInv, err := linalg.Inverse(omega)
	if err != nil {
		return nil, err
	}

	buf := mat.NewCDense(n, n, nil)
	buf.Mul(extended, omegaInv)
	heffPrime := mat.NewCDense(n, n, nil)
	heffPrime.Mul(omega, buf)

	eig, err := linalg.DiagonalizeGeneral(heffPrime)
	if err != nil {
		return nil, err
	}
	if hermitise {
		right, err := linalg.LowdinOrthonormalize(eig.Right)
		if err != nil {
			return nil, err
		}
		eig.Right = right
		eig.Left = right
	}

	full := make([]determinant.Determinant, 0, n)
	full = append(full, determinant.Determinant{Vacuum: true, Irrep: vacIrrep})
	full = append(full, dets...)

	return &ExtendedBlock{Dets: full, Heff: heffPrime, Omega: omega, Eigen: eig}, nil
}
