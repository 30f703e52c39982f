package dpd

import "github.com/aoleynichenko/EXP-T-sub003/ferr"

func multiIndex(shape []int, lin int) []int {
	r := len(shape)
	idx := make([]int, r)
	for i := r - 1; i >= 0; i-- {
		idx[i] = lin % shape[i]
		lin /= shape[i]
	}
	return idx
}

func valenceToString(v []int) string {
	b := make([]byte, len(v))
	for i, x := range v {
		b[i] = byte('0' + x)
	}
	return string(b)
}

// Reorder implements spec.md §4.3.3: transposes diagram d's dimensions
// according to the rank-r permutation perm (perm[i] is the OLD dimension
// number feeding NEW dimension i, matching the qparts'[i]=qparts[perm[i]]
// convention spec.md gives for the output signature). The result is
// registered in the context's stack under newName and fully materialised:
// every resident block (unique, and non-unique when the diagram is not
// restricted to unique storage) is filled.
//
// A sign is applied wherever perm interchanges two dimensions that belong
// to the same (quasiparticle, valence) class — the fermionic antisymmetry
// of spec.md §3.3 — and no sign is applied when perm only relabels
// dimensions of different classes (e.g. swapping a hole index with a
// particle index in a rank-2 "hp" diagram is a plain array transpose).
func (c *Context) Reorder(d *Diagram, perm []int, newName string) (*Diagram, error) {
	if len(perm) != d.Rank {
		return nil, ferr.NewConfig("dpd.Reorder", "permutation length must equal diagram rank")
	}
	seen := make([]bool, d.Rank)
	for _, p := range perm {
		if p < 0 || p >= d.Rank || seen[p] {
			return nil, ferr.NewConfig("dpd.Reorder", "perm must be a permutation of 0..rank-1")
		}
		seen[p] = true
	}

	newQParts := permApplyByte(d.QParts, perm)
	newValence := permApply(d.Valence, perm)
	newOrder := permApply(d.Order, perm)

	out, err := c.Tmplt(newName, string(newQParts), valenceToString(newValence), newOrder, d.OnlyUnique)
	if err != nil {
		return nil, err
	}

	_, sign := canonicalPermutation(newQParts, newValence, perm)
	invPerm := invertPerm(perm)

	for _, nb := range out.Blocks {
		if !nb.resident {
			continue
		}
		oldIDs := permApply(nb.SpinorBlocks, invPerm)
		n := nb.NumElements()
		for lin := 0; lin < n; lin++ {
			y := multiIndex(nb.Shape, lin)
			x := permApply(y, invPerm)
			val, err := d.Get(ElementIndex{Block: oldIDs, Offset: x})
			if err != nil {
				return nil, err
			}
			val *= complex(sign, 0)
			if nb.Cplx != nil {
				nb.Cplx[lin] = val
			} else {
				nb.Real[lin] = real(val)
			}
		}
	}

	c.Push(out)
	return out, nil
}
