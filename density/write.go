package density

import (
	"fmt"
	"io"
	"math"

	"github.com/aoleynichenko/EXP-T-sub003/spinor"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

const writeZeroThreshold = 1e-16

// WriteNaturalSpinors writes ns to w in the format of write_NO in
// natorb.c: a `dim` header, a `spinor info:` block (one line per active
// spinor: 1-based global index, energy, irrep name), an `NSPINORS` count
// of natural spinors at or above occThresh, then one `occ`+coefficient
// block per surviving natural spinor (all active-spinor coefficients are
// written, unthresholded, matching the file format — only stdout
// printing thresholds individual coefficients in the original).
func WriteNaturalSpinors(w io.Writer, sym *symmetry.Group, reg *spinor.Registry, ns *NaturalSpinors, occThresh float64) error {
	n := len(ns.ActiveSpinors)
	if _, err := fmt.Fprintf(w, "dim %d\n", n); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "spinor info:\n"); err != nil {
		return err
	}
	for _, g := range ns.ActiveSpinors {
		sp := reg.Spinor(g)
		if _, err := fmt.Fprintf(w, "%4d%20.12f%10s\n", g+1, sp.Energy, sym.IrrepName(sp.Irrep)); err != nil {
			return err
		}
	}

	nKept := 0
	for _, occ := range ns.Occ {
		if math.Abs(occ) >= occThresh {
			nKept++
		}
	}
	if _, err := fmt.Fprintf(w, "NSPINORS %d\n", nKept); err != nil {
		return err
	}

	for i, occ := range ns.Occ {
		if math.Abs(occ) < occThresh {
			continue
		}
		if _, err := fmt.Fprintf(w, "occ %.6f\n", occ); err != nil {
			return err
		}
		for j, g := range ns.ActiveSpinors {
			c := ns.Vectors.At(i, j)
			re, im := real(c), imag(c)
			if math.Abs(re) < writeZeroThreshold {
				re = 0
			}
			if math.Abs(im) < writeZeroThreshold {
				im = 0
			}
			if _, err := fmt.Fprintf(w, "%4d  %24.12e%24.12e\n", g+1, re, im); err != nil {
				return err
			}
		}
	}
	return nil
}
