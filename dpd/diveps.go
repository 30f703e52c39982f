package dpd

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/ferr"
)

// Denominator computes the bare Moller-Plesset denominator
// sum(eps(holes)) - sum(eps(particles)) for one (i..,a..) index tuple.
func Denominator(holeEps, partEps []float64) float64 {
	d := 0.0
	for _, e := range holeEps {
		d += e
	}
	for _, e := range partEps {
		d -= e
	}
	return d
}

// ShiftFunc computes the dynamic shift S of spec.md §4.3.6 for a bare
// denominator value, given the shift type, scale sigma, and attenuation
// power n. It returns the complex addend to combine with the bare
// denominator: denom' = denom + S for the real-valued shift types, or
// denom' = denom + i*Im(S) for the imaginary type.
func ShiftFunc(typ config.ShiftType, denom float64, sigma float64, n int, levelValue float64) complex128 {
	switch typ {
	case config.ShiftNone, "":
		return 0
	case config.ShiftReal:
		return complex(levelValue, 0)
	case config.ShiftRealImag:
		return complex(realImagShift(denom, sigma, n), 0)
	case config.ShiftImag:
		return complex(0, realImagShift(denom, sigma, n))
	case config.ShiftTaylor:
		return complex(taylorShift(denom, sigma, n), 0)
	default:
		return 0
	}
}

// realImagShift computes sigma * (denom / sqrt(denom^2+sigma^2))^(2n), the
// saturating shift shared by the "realimag" and "imag" schemes.
func realImagShift(denom, sigma float64, n int) float64 {
	if sigma == 0 {
		return 0
	}
	ratio := denom / math.Sqrt(denom*denom+sigma*sigma)
	return sigma * math.Pow(ratio, float64(2*n))
}

// taylorShift approximates realImagShift via the truncated binomial series
// of (1+t)^-n around t=0, t=(sigma/denom)^2, keeping n+1 terms — a cheaper,
// branch-free surrogate used when denom is safely away from zero.
func taylorShift(denom, sigma float64, n int) float64 {
	if sigma == 0 || denom == 0 {
		return 0
	}
	t := (sigma * sigma) / (denom * denom)
	sum := 0.0
	coeff := 1.0
	tk := 1.0
	for k := 0; k <= n; k++ {
		sum += coeff * tk
		coeff *= -float64(n+k) / float64(k+1)
		tk *= t
	}
	return sigma * sum
}

// Diveps implements spec.md §4.3.6: for an even-rank diagram d whose first
// half of dimensions are hole-like and second half particle-like, divides
// every element by the Moller-Plesset denominator plus a dynamic shift.
// levelValues indexes by excitation level (rank/2 - 1) for the "real"
// shift scheme, per spec.md §6.3 "shift.level_values[1..rank_max]".
func (c *Context) Diveps(d *Diagram, sigma float64, typ config.ShiftType, power int, levelValues []float64) error {
	if d.Rank%2 != 0 {
		return ferr.NewConfig("dpd.Diveps", "rank must be even")
	}
	m := d.Rank / 2
	for i := 0; i < m; i++ {
		if d.QParts[i] != 'h' {
			return ferr.NewConfig("dpd.Diveps", "first half of dimensions must be hole-like")
		}
	}
	for i := m; i < d.Rank; i++ {
		if d.QParts[i] != 'p' {
			return ferr.NewConfig("dpd.Diveps", "second half of dimensions must be particle-like")
		}
	}
	level := m - 1
	var levelValue float64
	if level >= 0 && level < len(levelValues) {
		levelValue = levelValues[level]
	}

	err := c.Sched.ForEachBlock(context.Background(), len(d.Blocks), func(bi int) error {
		blk := d.Blocks[bi]
		if !blk.Unique || !blk.resident {
			return nil
		}
		holeIdx := make([][]int, m)
		partIdx := make([][]int, m)
		for i := 0; i < m; i++ {
			holeIdx[i] = c.Spinors.BlockIndicesFiltered(blk.SpinorBlocks[i], true, d.Valence[i] == 1)
		}
		for i := 0; i < m; i++ {
			partIdx[i] = c.Spinors.BlockIndicesFiltered(blk.SpinorBlocks[m+i], false, d.Valence[m+i] == 1)
		}

		n := blk.NumElements()
		for lin := 0; lin < n; lin++ {
			idx := multiIndex(blk.Shape, lin)
			holeEps := make([]float64, m)
			partEps := make([]float64, m)
			for i := 0; i < m; i++ {
				holeEps[i] = c.Spinors.Eps(holeIdx[i][idx[i]])
			}
			for i := 0; i < m; i++ {
				partEps[i] = c.Spinors.Eps(partIdx[i][idx[m+i]])
			}
			denom := Denominator(holeEps, partEps)
			shift := ShiftFunc(typ, denom, sigma, power, levelValue)
			full := complex(denom, 0) + shift
			if cmplx.Abs(full) == 0 {
				continue
			}
			if blk.Cplx != nil {
				blk.Cplx[lin] /= full
			} else {
				blk.Real[lin] /= real(full)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restoreNonUnique(d)
}
