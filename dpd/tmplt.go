package dpd

import (
	"strings"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

// groupKey identifies a family of dimensions that are permutationally
// interchangeable: same quasiparticle type and same valence restriction.
type groupKey struct {
	q byte
	v int
}

// canonicalPermutation computes, for a spinor-block tuple ids under
// signature (qparts,valence), the permutation π of positions such that
// applying π sorts each (qparts,valence) group's block ids ascending,
// along with its parity. π[i] is the source position feeding canonical
// position i: canonical[i] = ids[π[i]].
func canonicalPermutation(qparts []byte, valence []int, ids []int) (perm []int, parity float64) {
	r := len(ids)
	groups := map[groupKey][]int{} // key -> positions, in original order
	var order []groupKey
	for i := 0; i < r; i++ {
		k := groupKey{qparts[i], valence[i]}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	perm = make([]int, r)
	for _, k := range order {
		positions := groups[k]
		// argsort positions by ids[pos] ascending, stable.
		sorted := append([]int(nil), positions...)
		// simple insertion sort: groups are small (tensor rank <= ~8)
		for i := 1; i < len(sorted); i++ {
			j := i
			for j > 0 && ids[sorted[j-1]] > ids[sorted[j]] {
				sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
				j--
			}
		}
		for k2, pos := range positions {
			perm[pos] = sorted[k2]
		}
	}
	return perm, permParity(perm)
}

func countInactiveParticles(qparts []byte, valence []int) int {
	n := 0
	for i, q := range qparts {
		if q == 'p' && valence[i] == 0 {
			n++
		}
	}
	return n
}

// storageClassFor implements the heuristic of spec.md §4.3.1. It is
// explicitly flagged there (and in spec.md §9) as policy rather than
// specification — a series of hard-coded name/signature checks preserved
// verbatim from the original engine.
func (c *Context) storageClassFor(name string, qparts []byte, valence []int) Storage {
	rank := len(qparts)
	level := c.Cfg.DiskUsageLevel
	switch {
	case rank >= 6:
		if level >= 1 {
			return OnDisk
		}
	case rank == 4 && (strings.Contains(name, "pppp") || strings.Contains(name, "ppppr")):
		if level >= 2 {
			return OnDisk
		}
	case rank == 4 && countInactiveParticles(qparts, valence) >= 3:
		if level >= 3 {
			return OnDisk
		}
	}
	return InMemory
}

// Tmplt allocates an empty, zero-filled diagram of the given rank,
// quasiparticle/valence signature, per spec.md §4.3.1. order is a 0-based
// permutation of 0..rank-1 (the "natural order" is the identity
// permutation); onlyUnique requests that only permutationally unique
// blocks materialise storage. A name beginning with '$' forces
// onlyUnique, matching the original engine's naming convention.
func (c *Context) Tmplt(name, qparts, valence string, order []int, onlyUnique bool) (*Diagram, error) {
	rank, qarr, varr, err := validateSignature("dpd.Tmplt", qparts, valence, order)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(name, "$") {
		onlyUnique = true
	}

	d := &Diagram{
		ID:         nextDiagramID(),
		Name:       name,
		Rank:       rank,
		QParts:     qarr,
		Valence:    varr,
		Order:      append([]int(nil), order...),
		OnlyUnique: onlyUnique,
		Arithmetic: c.Cfg.Arithmetic,
		index:      map[string]int{},
	}

	nb := c.Spinors.NumBlocks()
	if nb == 0 {
		return nil, ferr.NewConfig("dpd.Tmplt", "spinor registry has not been tiled")
	}

	ids := make([]int, rank)
	var walk func(pos int) error
	walk = func(pos int) error {
		if pos == rank {
			return c.tmpltConsiderTuple(d, append([]int(nil), ids...))
		}
		for b := 0; b < nb; b++ {
			ids[pos] = b
			if err := walk(pos + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0); err != nil {
		return nil, err
	}
	return d, nil
}

// tmpltConsiderTuple applies the three validity tests of spec.md §3.3 to
// one candidate spinor-block tuple (in current dimension order) and, if it
// passes, materialises a Block (allocating a data buffer only for unique
// blocks, or for every block when the diagram is not restricted to unique
// storage).
func (c *Context) tmpltConsiderTuple(d *Diagram, ids []int) error {
	shape := make([]int, d.Rank)
	for i, bid := range ids {
		wantHole := d.QParts[i] == 'h'
		filtered := c.Spinors.BlockIndicesFiltered(bid, wantHole, d.Valence[i] == 1)
		shape[i] = len(filtered)
		if shape[i] == 0 {
			return nil // empty sub-block: symmetry-zero by construction
		}
	}

	// Irreps in natural order: natBlockID[k] is the spinor-block id feeding
	// natural dimension k. Order[i] says current dimension i holds natural
	// dimension Order[i], so natBlockID[Order[i]] = ids[i].
	natBlockID := make([]int, d.Rank)
	for i, bid := range ids {
		natBlockID[d.Order[i]] = bid
	}
	natIrreps := make([]symmetry.Irrep, d.Rank)
	for k, bid := range natBlockID {
		natIrreps[k] = c.Spinors.BlockAt(bid).Irrep
	}
	if !c.Sym.ContainsTotSym(natIrreps...) {
		return nil
	}

	perm, sign := canonicalPermutation(d.QParts, d.Valence, ids)
	isUnique := isIdentityPerm(perm) || !d.OnlyUnique

	key := tupleKey(ids)
	if _, exists := d.index[key]; exists {
		return nil
	}

	blk := &Block{
		ID:           len(d.Blocks),
		SpinorBlocks: append([]int(nil), ids...),
		Shape:        append([]int(nil), shape...),
		Storage:      c.storageClassFor(d.Name, d.QParts, d.Valence),
		Unique:       isUnique,
	}
	if !isUnique {
		blk.PermToUnique = perm
		blk.Sign = sign
	} else {
		blk.Sign = 1
	}

	if isUnique || !d.OnlyUnique {
		blk.Real, blk.Cplx = newBlockBuffer(d.Arithmetic, blk.NumElements())
		blk.resident = true
	}

	d.Blocks = append(d.Blocks, blk)
	d.index[key] = blk.ID
	return nil
}

func isIdentityPerm(p []int) bool {
	for i, v := range p {
		if i != v {
			return false
		}
	}
	return true
}
