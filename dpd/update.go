package dpd

import (
	"context"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
)

// Update implements spec.md §4.3.5: C <- C + alpha*D, over all resident
// blocks (unique blocks only when both diagrams are restricted to unique
// storage). The per-block loop is the fork-join parallel region of
// spec.md §5: each worker owns distinct, non-overlapping C blocks, so no
// synchronisation is needed beyond the closing barrier.
func (c *Context) Update(C *Diagram, alpha complex128, D *Diagram) error {
	if C.Rank != D.Rank {
		return ferr.NewInvariant("dpd.Update", C.Name, "rank mismatch with "+D.Name)
	}
	onlyUnique := C.OnlyUnique && D.OnlyUnique
	err := c.Sched.ForEachBlock(context.Background(), len(C.Blocks), func(i int) error {
		cb := C.Blocks[i]
		if onlyUnique && !cb.Unique {
			return nil
		}
		if !cb.resident {
			return nil
		}
		db, ok := D.blockByTuple(cb.SpinorBlocks)
		if !ok || db == nil {
			return nil
		}
		n := cb.NumElements()
		for lin := 0; lin < n; lin++ {
			idx := multiIndex(cb.Shape, lin)
			val, err := D.Get(ElementIndex{Block: cb.SpinorBlocks, Offset: idx})
			if err != nil {
				return err
			}
			val *= alpha
			if cb.Cplx != nil {
				cb.Cplx[lin] += val
			} else {
				cb.Real[lin] += real(val)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restoreNonUnique(C)
}

// Copy implements spec.md §4.3.5: copies src's blocks into dst, which must
// already exist with the same signature (e.g. from Tmplt).
func (c *Context) Copy(dst, src *Diagram) error {
	if dst.Rank != src.Rank {
		return ferr.NewInvariant("dpd.Copy", dst.Name, "rank mismatch with "+src.Name)
	}
	for _, db := range dst.Blocks {
		if !db.resident {
			continue
		}
		sb, ok := src.blockByTuple(db.SpinorBlocks)
		if !ok || sb == nil {
			Clear1(db)
			continue
		}
		n := db.NumElements()
		for lin := 0; lin < n; lin++ {
			idx := multiIndex(db.Shape, lin)
			val, err := src.Get(ElementIndex{Block: db.SpinorBlocks, Offset: idx})
			if err != nil {
				return err
			}
			if db.Cplx != nil {
				db.Cplx[lin] = val
			} else {
				db.Real[lin] = real(val)
			}
		}
	}
	return nil
}

// Clear zeroes every resident block of d (spec.md §4.3.5).
func Clear(d *Diagram) {
	for _, b := range d.Blocks {
		Clear1(b)
	}
}

// Clear1 zeroes a single block's buffer.
func Clear1(b *Block) {
	if !b.resident {
		return
	}
	for i := range b.Real {
		b.Real[i] = 0
	}
	for i := range b.Cplx {
		b.Cplx[i] = 0
	}
}

// ScalarProduct implements spec.md §4.3.5: returns sum(A_i*B_i) over
// every element of the two diagrams, which must share a signature; blocks
// of A that B lacks contribute zero. conjA/conjB select whether each
// operand is conjugated before multiplying.
func ScalarProduct(conjA, conjB bool, A, B *Diagram) (complex128, error) {
	if A.Rank != B.Rank {
		return 0, ferr.NewInvariant("dpd.ScalarProduct", A.Name, "rank mismatch with "+B.Name)
	}
	var sum complex128
	for _, ab := range A.Blocks {
		bb, ok := B.blockByTuple(ab.SpinorBlocks)
		if !ok || bb == nil {
			continue
		}
		n := ab.NumElements()
		for lin := 0; lin < n; lin++ {
			idx := multiIndex(ab.Shape, lin)
			va, err := A.Get(ElementIndex{Block: ab.SpinorBlocks, Offset: idx})
			if err != nil {
				return 0, err
			}
			vb, err := B.Get(ElementIndex{Block: ab.SpinorBlocks, Offset: idx})
			if err != nil {
				return 0, err
			}
			if conjA {
				va = complex(real(va), -imag(va))
			}
			if conjB {
				vb = complex(real(vb), -imag(vb))
			}
			sum += va * vb
		}
	}
	return sum, nil
}

// Perm applies an (anti)symmetrisation permutation operator to d in place:
// spec spells it as `perm(D, spec)`; here spec is one or more rank-r
// permutations applied with a +1 weight each and accumulated, so callers
// build symmetrisers as Perm(d, id, swap) and antisymmetrisers as
// Perm(d, id, -swap) via signs.
func (c *Context) Perm(d *Diagram, perms []PermTerm) error {
	orig, err := c.Copy2(d)
	if err != nil {
		return err
	}
	Clear(d)
	for _, term := range perms {
		reordered, err := c.Reorder(orig, term.Perm, orig.Name+"$permtmp")
		if err != nil {
			return err
		}
		if err := c.Update(d, complex(term.Sign, 0), reordered); err != nil {
			return err
		}
		c.Remove(reordered.Name)
	}
	c.Remove(orig.Name)
	return nil
}

// PermTerm is one term of a symmetrisation/antisymmetrisation operator:
// apply Perm, then weight by Sign.
type PermTerm struct {
	Perm []int
	Sign float64
}

// Copy2 duplicates d under a scratch name and registers it in the stack;
// used internally by Perm, which needs an untouched copy of d's original
// content while it accumulates into d in place.
func (c *Context) Copy2(d *Diagram) (*Diagram, error) {
	dup, err := c.Tmplt(d.Name+"$copy", string(d.QParts), valenceToString(d.Valence), d.Order, d.OnlyUnique)
	if err != nil {
		return nil, err
	}
	if err := c.Copy(dup, d); err != nil {
		return nil, err
	}
	c.Push(dup)
	return dup, nil
}
