package dpd

import (
	"fmt"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
)

// locate resolves the containing block for the spinor-block ids implied by
// idx (idx holds spinor-block ids, one per dimension — callers working
// with individual spinor indices first map them through
// spinor.Registry.Locate). It returns the block itself, or nil when the
// tuple is absent; resolving a non-unique block to its unique sibling is
// left to uniqueOf.
func (d *Diagram) locate(blockIDs []int) (*Block, error) {
	blk, ok := d.blockByTuple(blockIDs)
	if !ok {
		return nil, nil // symmetry-forbidden or absent tuple: caller treats as zero
	}
	return blk, nil
}

// uniqueOf returns the block that actually owns the data for blk: blk
// itself if it is unique, or its unique sibling otherwise.
func (d *Diagram) uniqueOf(blk *Block) (*Block, error) {
	if blk.Unique {
		return blk, nil
	}
	uniqueIDs := make([]int, d.Rank)
	for i, p := range blk.PermToUnique {
		uniqueIDs[i] = blk.SpinorBlocks[p]
	}
	u, ok := d.blockByTuple(uniqueIDs)
	if !ok || u == nil {
		return nil, ferr.NewInvariant("dpd.uniqueOf", d.Name, fmt.Sprintf("missing unique representative for block %d", blk.ID))
	}
	return u, nil
}

// Get resolves element idx (a per-dimension pair of (spinor-block id,
// local offset), see ElementIndex) to a scalar value, per spec.md §4.3.2.
// If the containing block is symmetry-forbidden (absent from the
// diagram), Get returns 0, matching the "Totality" invariant of spec.md
// §3.3.
func (d *Diagram) Get(idx ElementIndex) (complex128, error) {
	blockIDs := idx.blockIDs()
	blk, err := d.locate(blockIDs)
	if err != nil {
		return 0, err
	}
	if blk == nil {
		return 0, nil
	}
	unique := blk
	sign := 1.0
	localIdx := idx.offsets()
	if !blk.Unique {
		u, err := d.uniqueOf(blk)
		if err != nil {
			return 0, err
		}
		unique = u
		sign = blk.Sign
		perm := blk.PermToUnique
		mapped := make([]int, d.Rank)
		for i, p := range perm {
			mapped[i] = localIdx[p]
		}
		localIdx = mapped
	}
	if !unique.resident {
		return 0, ferr.NewIO("dpd.Get", fmt.Errorf("block %d of %q is not resident", unique.ID, d.Name))
	}
	lin := linearIndex(unique.Shape, localIdx)
	if unique.Cplx != nil {
		return unique.Cplx[lin] * complex(sign, 0), nil
	}
	return complex(unique.Real[lin]*sign, 0), nil
}

// Set writes value into element idx, per spec.md §4.3.2. Set returns an
// error (rather than the original's undefined behaviour) when idx resolves
// to a non-unique block: callers must write through the unique
// representative, exactly as spec.md §4.3.2 requires of callers.
func (d *Diagram) Set(idx ElementIndex, value complex128) error {
	blockIDs := idx.blockIDs()
	blk, err := d.locate(blockIDs)
	if err != nil {
		return err
	}
	if blk == nil {
		return ferr.NewInvariant("dpd.Set", d.Name, "element is in a symmetry-forbidden block")
	}
	if !blk.Unique {
		return ferr.NewInvariant("dpd.Set", d.Name, "cannot write through a non-unique block; write via its unique representative")
	}
	if !blk.resident {
		return ferr.NewIO("dpd.Set", fmt.Errorf("block %d of %q is not resident", blk.ID, d.Name))
	}
	lin := linearIndex(blk.Shape, idx.offsets())
	if blk.Cplx != nil {
		blk.Cplx[lin] = value
	} else {
		blk.Real[lin] = real(value)
	}
	return nil
}

// ElementIndex is a per-dimension (spinor-block id, local offset) pair
// describing one element of a diagram.
type ElementIndex struct {
	Block  []int
	Offset []int
}

func (e ElementIndex) blockIDs() []int { return e.Block }
func (e ElementIndex) offsets() []int  { return e.Offset }

// NewElementIndex builds an ElementIndex from global spinor indices,
// resolving each through reg.
func NewElementIndex(reg *spinor.Registry, globalIdx []int) ElementIndex {
	ei := ElementIndex{Block: make([]int, len(globalIdx)), Offset: make([]int, len(globalIdx))}
	for i, g := range globalIdx {
		b, o := reg.Locate(g)
		ei.Block[i] = b
		ei.Offset[i] = o
	}
	return ei
}
