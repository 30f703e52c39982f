// Package intham implements the Intermediate Hamiltonian method of
// spec.md §4.6 (IH-IMMS): partitioning active spinors into energy or
// count-based subspaces, classifying model determinants as "main" or
// "intermediate" against a frontier energy, and computing the per-element
// dynamic shift fed into dpd.Diveps.
package intham

import (
	"sort"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/determinant"
	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
)

// Partition assigns every active spinor to a subspace index, built either
// from explicit energy windows or from spinor counts (spec.md §4.6
// "Setup input"): in the count form subspace boundaries are inferred by
// sorting active spinors by energy.
type Partition struct {
	subspaceOf map[int]int
	nSubspaces int
}

// BuildPartition constructs a Partition over reg's active spinors from
// cfg.Subspaces, per spec.md §4.6.
func BuildPartition(reg *spinor.Registry, subspaces []config.IHIMMSSubspace) (*Partition, error) {
	if len(subspaces) == 0 {
		return nil, ferr.NewConfig("intham.BuildPartition", "at least one subspace is required")
	}
	var active []int
	for i := 0; i < reg.NumSpinors(); i++ {
		if reg.IsActive(i) {
			active = append(active, i)
		}
	}

	byCount := subspaces[0].Count > 0
	p := &Partition{subspaceOf: map[int]int{}, nSubspaces: len(subspaces)}

	if byCount {
		sort.Slice(active, func(i, j int) bool { return reg.Eps(active[i]) < reg.Eps(active[j]) })
		pos := 0
		for s, sub := range subspaces {
			n := sub.Count
			if pos+n > len(active) {
				n = len(active) - pos
			}
			for _, idx := range active[pos : pos+n] {
				p.subspaceOf[idx] = s
			}
			pos += n
		}
		return p, nil
	}

	for _, idx := range active {
		e := reg.Eps(idx)
		for s, sub := range subspaces {
			if e >= sub.EMin && e <= sub.EMax {
				p.subspaceOf[idx] = s
				break
			}
		}
	}
	return p, nil
}

// Signature returns the occupation-count-per-subspace vector of a
// determinant's hole+particle content (spec.md §4.6 "occupation
// signature").
func (p *Partition) Signature(d determinant.Determinant) []int {
	sig := make([]int, p.nSubspaces)
	for _, idx := range d.Content() {
		if s, ok := p.subspaceOf[idx]; ok {
			sig[s]++
		}
	}
	return sig
}

// Classifier decides main-vs-intermediate status and computes shifts for
// one target Fock-space sector, per spec.md §4.6.
type Classifier struct {
	partition      *Partition
	mainSignatures [][]int
	frontier       float64
	scale          float64
	useBox         bool
}

// NewClassifier builds a Classifier for sector (h,p). frontier is either
// the configured value or, when cfg.FrontierAuto is set, the caller must
// pass the upper energy bound of any main determinant in this sector plus
// a small epsilon, per spec.md §4.6; AutoFrontier computes that value.
func NewClassifier(p *Partition, mainSignatures [][]int, frontier, scale float64, useBox bool) *Classifier {
	return &Classifier{partition: p, mainSignatures: mainSignatures, frontier: frontier, scale: scale, useBox: useBox}
}

// AutoFrontier returns the upper energy bound of any determinant in dets
// whose signature matches one of mainSignatures, plus eps — the "auto"
// frontier rule of spec.md §4.6.
func AutoFrontier(p *Partition, dets []determinant.Determinant, energy func(determinant.Determinant) float64, mainSignatures [][]int, eps float64) float64 {
	var maxE float64
	found := false
	for _, d := range dets {
		sig := p.Signature(d)
		if !signatureMatches(sig, mainSignatures) {
			continue
		}
		e := energy(d)
		if !found || e > maxE {
			maxE = e
			found = true
		}
	}
	if !found {
		return eps
	}
	return maxE + eps
}

func signatureMatches(sig []int, mains [][]int) bool {
	for _, m := range mains {
		if len(m) != len(sig) {
			continue
		}
		match := true
		for i := range sig {
			if sig[i] != m[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// IsMain implements the classification rule of spec.md §4.6: a determinant
// is main iff its zero-order energy is at or below the frontier, or its
// occupation signature matches a listed main signature.
func (c *Classifier) IsMain(d determinant.Determinant, zeroOrderEnergy float64) bool {
	if zeroOrderEnergy <= c.frontier {
		return true
	}
	return signatureMatches(c.partition.Signature(d), c.mainSignatures)
}

// Shift computes the per-determinant shift of spec.md §4.6: 0 for main
// determinants, scale*(frontier-E(d)) for non-main determinants with
// E(d) > frontier, 0 otherwise.
func (c *Classifier) Shift(d determinant.Determinant, zeroOrderEnergy float64) float64 {
	if c.IsMain(d, zeroOrderEnergy) {
		return 0
	}
	if zeroOrderEnergy > c.frontier {
		return c.scale * (c.frontier - zeroOrderEnergy)
	}
	return 0
}

// PerSpinorShift spreads a determinant-level shift over its spinor
// indices evenly: used by the box/line formula to attribute a shift
// contribution to each index of a dpd amplitude element, per spec.md
// §4.6 "sum of per-index spinor shifts (box formula) or only over valence
// indices (line formula)".
func (c *Classifier) PerSpinorShift(d determinant.Determinant, zeroOrderEnergy float64) map[int]float64 {
	total := c.Shift(d, zeroOrderEnergy)
	content := d.Content()
	if total == 0 || len(content) == 0 {
		return nil
	}
	per := total / float64(len(content))
	out := make(map[int]float64, len(content))
	for _, idx := range content {
		out[idx] += per
	}
	return out
}

// ElementShift combines per-index spinor shifts for one amplitude
// element's index tuple into the scalar addend spec.md §4.3.6's diveps
// adds to the bare denominator, per the box (sum over all indices) or
// line (sum over valence indices only) formula of spec.md §4.6, selected
// by c.useBox.
func (c *Classifier) ElementShift(perIndex map[int]float64, allIndices, valenceIndices []int) float64 {
	indices := valenceIndices
	if c.useBox {
		indices = allIndices
	}
	var sum float64
	seen := map[int]bool{}
	for _, idx := range indices {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		sum += perIndex[idx]
	}
	return sum
}
