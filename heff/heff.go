// Package heff implements spec.md §4.7: construction and diagonalization
// of the effective Hamiltonian over a Fock-space-sector model space, root
// selection, sector-(1,1) wave-operator renormalisation, and the merged
// energy table. Grounded on
// _examples/original_source/src/rcc/heff/{heff.c,eigenvalues.c,renorm_omega.c}.
package heff

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/determinant"
	"github.com/aoleynichenko/EXP-T-sub003/dpd"
	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/intham"
	"github.com/aoleynichenko/EXP-T-sub003/linalg"
	"github.com/aoleynichenko/EXP-T-sub003/slater"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

// AU_TO_EV and AU_TO_CM are the CODATA conversion factors the original
// core takes from codata.h.
const (
	auToEV = 27.211386245988
	auToCM = 219474.6313632
)

// Operator is one effective-interaction diagram contributing to H_gamma,
// bound to its particle rank for slater.Setup (spec.md §4.7.2b).
type Operator struct {
	Diagram *dpd.Diagram
	NPart   int
}

func sectorOf(d determinant.Determinant) (h, p int) {
	if d.Vacuum {
		return 0, 0
	}
	return len(d.Holes), len(d.Particles)
}

func getterFor(reg *spinor.Registry, diagram *dpd.Diagram) slater.Getter {
	return func(idx []int) (complex128, error) {
		return diagram.Get(dpd.NewElementIndex(reg, idx))
	}
}

// zeroOrderEnergy computes H_gamma[i,i]'s diagonal seed, per spec.md
// §4.7.2a: sum of particle orbital energies minus sum of hole orbital
// energies; zero for the vacuum determinant.
func zeroOrderEnergy(reg *spinor.Registry, d determinant.Determinant) float64 {
	var e float64
	for _, p := range d.Particles {
		e += reg.Eps(p)
	}
	for _, h := range d.Holes {
		e -= reg.Eps(h)
	}
	return e
}

// BuildHamiltonian assembles H_gamma for one irrep's determinant list,
// per spec.md §4.7.2a/b.
func BuildHamiltonian(reg *spinor.Registry, dets []determinant.Determinant, ops []Operator) (*mat.CDense, error) {
	n := len(dets)
	if n == 0 {
		return nil, ferr.NewConfig("heff.BuildHamiltonian", "empty determinant list")
	}
	h := mat.NewCDense(n, n, nil)
	for i, d := range dets {
		h.Set(i, i, complex(zeroOrderEnergy(reg, d), 0))
	}

	for _, op := range ops {
		get := getterFor(reg, op.Diagram)
		evalCache := map[[5]int]*slater.Evaluator{}
		for i, bra := range dets {
			braH, braP := sectorOf(bra)
			for j, ket := range dets {
				ketH, ketP := sectorOf(ket)
				key := [5]int{braH, braP, ketH, ketP, op.NPart}
				ev, ok := evalCache[key]
				if !ok {
					var err error
					ev, err = slater.Setup(get, braH, braP, ketH, ketP, op.NPart)
					if err != nil {
						return nil, err
					}
					evalCache[key] = ev
				}
				v, err := ev.Evaluate(bra.Content(), ket.Content())
				if err != nil {
					return nil, err
				}
				h.Set(i, j, h.At(i, j)+v)
			}
		}
	}
	return h, nil
}

// Block is the per-irrep result of §4.7.2: the assembled matrix, its
// diagonalization, and the determinants it spans, in the same order as
// H's rows/columns.
type Block struct {
	Irrep  symmetry.Irrep
	Dets   []determinant.Determinant
	H      *mat.CDense
	Eigen  *linalg.Eigenpairs
	NRoots int
}

// Compute builds and diagonalizes H_gamma for every irrep hosting at least
// one determinant of ms, per spec.md §4.7.2. When cfg.HermitiseVectors is
// set, the right eigenvectors are Löwdin-orthonormalised and left := right
// (spec.md §4.7.2e).
func Compute(sym *symmetry.Group, reg *spinor.Registry, ms *determinant.ModelSpace, ops []Operator, cfg config.Config) (map[symmetry.Irrep]*Block, error) {
	blocks := map[symmetry.Irrep]*Block{}
	for _, g := range ms.Irreps() {
		dets := ms.ByIrrep[g]
		h, err := BuildHamiltonian(reg, dets, ops)
		if err != nil {
			return nil, err
		}
		eig, err := linalg.DiagonalizeGeneral(h)
		if err != nil {
			return nil, err
		}
		if cfg.HermitiseVectors {
			right, err := linalg.LowdinOrthonormalize(eig.Right)
			if err != nil {
				return nil, err
			}
			eig.Right = right
			eig.Left = right
		}
		blocks[g] = &Block{Irrep: g, Dets: dets, H: h, Eigen: eig}
	}
	selectRoots(sym, cfg, blocks)
	return blocks, nil
}

// selectRoots implements get_nroots of eigenvalues.c: nroots per irrep is
// min(nroots_config, roots_under_cutoff), where roots_under_cutoff counts
// eigenvalues within cfg.RootsEnergyCutoff of the lowest eigenvalue across
// all irreps (spec.md §4.7.3).
func selectRoots(sym *symmetry.Group, cfg config.Config, blocks map[symmetry.Irrep]*Block) {
	lowest := math.Inf(1)
	for _, b := range blocks {
		if len(b.Eigen.Values) == 0 {
			continue
		}
		if e := real(b.Eigen.Values[0]); e < lowest {
			lowest = e
		}
	}
	for g, b := range blocks {
		dim := len(b.Eigen.Values)
		nConfig := dim
		if n, ok := cfg.NRootsPerIrrep[sym.IrrepName(g)]; ok {
			nConfig = n
		}
		nCutoff := dim
		if cfg.RootsEnergyCutoff > 0 {
			nCutoff = 0
			for _, lam := range b.Eigen.Values {
				if real(lam)-lowest <= cfg.RootsEnergyCutoff {
					nCutoff++
				}
			}
		}
		n := nConfig
		if nCutoff < n {
			n = nCutoff
		}
		if n > dim {
			n = dim
		}
		b.NRoots = n
	}
}

// Level is one (possibly merged, degenerate) energy level of the printed
// table, per spec.md §4.7.6 / eigenvalues.c's print_eigenvalues_table.
type Level struct {
	Number       int
	Eigenvalue   complex128
	AbsEnergy    float64
	RelEnergy    float64
	RelEnergyEV  float64
	RelEnergyCM  float64
	Degeneracy   int
	Symmetries   map[symmetry.Irrep]int
	PercentMain  float64
	HasIntHam    bool
}

type levelEntry struct {
	eigval      complex128
	irrep       symmetry.Irrep
	percentMain float64
}

// BuildEnergyTable merges the per-irrep eigenvalues of blocks into one
// ascending, degeneracy-grouped table, per spec.md §4.7.6. referenceEnergy
// is added to each level's eigenvalue to form its absolute energy. classifiers, when non-nil, supplies the IH-IMMS main-weight
// percentage per irrep (nil entries are treated as intham-inactive for
// that irrep).
func BuildEnergyTable(sym *symmetry.Group, blocks map[symmetry.Irrep]*Block, referenceEnergy, degenThresh float64, classifiers map[symmetry.Irrep]*intham.Classifier) []Level {
	var entries []levelEntry
	intHamActive := false
	for gi := 0; gi < sym.NumIrreps(); gi++ {
		g := symmetry.Irrep(gi)
		b, ok := blocks[g]
		if !ok {
			continue
		}
		for i := 0; i < b.NRoots; i++ {
			pct := 0.0
			if c, ok := classifiers[g]; ok && c != nil {
				intHamActive = true
				pct = mainSpaceWeight(c, b, i) * 100
			}
			entries = append(entries, levelEntry{eigval: b.Eigen.Values[i], irrep: g, percentMain: pct})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return real(entries[i].eigval) < real(entries[j].eigval) })

	if len(entries) == 0 {
		return nil
	}
	e0 := real(entries[0].eigval)

	var levels []Level
	level := 1
	for i := 0; i < len(entries); {
		j := i
		for j < len(entries) && math.Abs(real(entries[j].eigval)-real(entries[i].eigval)) <= degenThresh {
			j++
		}
		syms := map[symmetry.Irrep]int{}
		for k := i; k < j; k++ {
			syms[entries[k].irrep]++
		}
		rel := real(entries[i].eigval) - e0
		levels = append(levels, Level{
			Number:      level,
			Eigenvalue:  entries[i].eigval,
			AbsEnergy:   referenceEnergy + real(entries[i].eigval),
			RelEnergy:   rel,
			RelEnergyEV: rel * auToEV,
			RelEnergyCM: rel * auToCM,
			Degeneracy:  j - i,
			Symmetries:  syms,
			PercentMain: entries[i].percentMain,
			HasIntHam:   intHamActive,
		})
		level++
		i = j
	}
	return levels
}

// mainSpaceWeight computes the fraction of the i-th right eigenvector's
// squared weight carried by "main" model-space determinants, per
// get_fraction_of_main_space_determinants in the original source.
func mainSpaceWeight(c *intham.Classifier, b *Block, root int) float64 {
	var mainW, total float64
	for k, d := range b.Dets {
		w := real(b.Eigen.Right.At(k, root)) * real(b.Eigen.Right.At(k, root))
		w += imagSquared(b.Eigen.Right.At(k, root))
		total += w
		if c.IsMain(d, zeroOrderEnergyOf(b, k)) {
			mainW += w
		}
	}
	if total == 0 {
		return 0
	}
	return mainW / total
}

func imagSquared(v complex128) float64 { return imag(v) * imag(v) }

func zeroOrderEnergyOf(b *Block, k int) float64 {
	return real(b.H.At(k, k))
}

// FormatEnergyTable renders levels in the tabular layout of
// eigenvalues.c's print_eigenvalues_table.
func FormatEnergyTable(sym *symmetry.Group, levels []Level, degenThresh float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Heff eigenvalues:\n(degeneracy threshold = %.1e a.u.)\n\n", degenThresh)
	intham := len(levels) > 0 && levels[0].HasIntHam
	if intham {
		sb.WriteString(" Level  Re(eigenvalue)  Im(eigv)               Abs energy  Rel eigenvalue    Rel eigv, eV  Rel eigv, cm-1  % main  deg  symmetry\n")
	} else {
		sb.WriteString(" Level  Re(eigenvalue)  Im(eigv)               Abs energy  Rel eigenvalue    Rel eigv, eV  Rel eigv, cm-1  deg  symmetry\n")
	}
	for _, lvl := range levels {
		fmt.Fprintf(&sb, "@%5d%16.10f%10.2e%25.17f%16.10f%16.10f%16.6f  ",
			lvl.Number, real(lvl.Eigenvalue), imag(lvl.Eigenvalue), lvl.AbsEnergy, lvl.RelEnergy, lvl.RelEnergyEV, lvl.RelEnergyCM)
		if intham {
			fmt.Fprintf(&sb, "%6.1f  ", lvl.PercentMain)
		}
		fmt.Fprintf(&sb, "%2d  ", lvl.Degeneracy)
		for gi := 0; gi < sym.NumIrreps(); gi++ {
			g := symmetry.Irrep(gi)
			n, ok := lvl.Symmetries[g]
			if !ok || n == 0 {
				continue
			}
			fmt.Fprintf(&sb, " %s", sym.IrrepName(g))
			if n > 1 {
				fmt.Fprintf(&sb, "(%d)", n)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
