package dpd

import (
	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"gonum.org/v1/gonum/mat"
)

func product(xs []int) int {
	p := 1
	for _, x := range xs {
		p *= x
	}
	return p
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// gatherDense reads the block's data through the accessor (so non-unique
// blocks restore correctly) into a dense (rows x cols) complex matrix, rows
// spanning the first splitAt dimensions and cols spanning the rest.
func (d *Diagram) gatherDense(blk *Block, splitAt int) *mat.CDense {
	rows := product(blk.Shape[:splitAt])
	cols := product(blk.Shape[splitAt:])
	data := make([]complex128, rows*cols)
	n := blk.NumElements()
	for lin := 0; lin < n; lin++ {
		idx := multiIndex(blk.Shape, lin)
		r := linearIndex(blk.Shape[:splitAt], idx[:splitAt])
		cc := linearIndex(blk.Shape[splitAt:], idx[splitAt:])
		val, err := d.Get(ElementIndex{Block: blk.SpinorBlocks, Offset: idx})
		if err != nil {
			val = 0
		}
		data[r*cols+cc] = val
	}
	return mat.NewCDense(rows, cols, data)
}

// Mult implements spec.md §4.3.4: contracts the trailing n dimensions of A
// against the leading n dimensions of B, writing into the pre-existing
// diagram C (allocated by a preceding Tmplt call with the signature
// induced by A and B). Matching (A-free, B-free) block pairs are combined
// via a dense GEMM (gonum mat.CDense.Mul) over each shared contraction
// block-tuple, per the "collapse to GEMM" guidance of spec.md §4.3.4.
func (c *Context) Mult(a, b, C *Diagram, n int) error {
	if n < 1 || n > a.Rank || n > b.Rank {
		return ferr.NewConfig("dpd.Mult", "contraction count out of range")
	}
	rFreeA := a.Rank - n
	rFreeB := b.Rank - n
	if C.Rank != rFreeA+rFreeB {
		return ferr.NewInvariant("dpd.Mult", C.Name, "result diagram rank does not match induced signature")
	}

	for _, ablk := range a.Blocks {
		freeA := ablk.SpinorBlocks[:rFreeA]
		kA := ablk.SpinorBlocks[rFreeA:]
		matA := a.gatherDense(ablk, rFreeA)
		rowsA, _ := matA.Dims()

		for _, bblk := range b.Blocks {
			kB := bblk.SpinorBlocks[:n]
			freeB := bblk.SpinorBlocks[n:]
			if !intSliceEqual(kA, kB) {
				continue
			}
			matB := b.gatherDense(bblk, n)
			_, colsB := matB.Dims()

			cTuple := append(append([]int(nil), freeA...), freeB...)
			cblk, ok := C.blockByTuple(cTuple)
			if !ok || cblk == nil || !cblk.resident {
				continue
			}

			prod := mat.NewCDense(rowsA, colsB, nil)
			prod.Mul(matA, matB)

			n2 := cblk.NumElements()
			for lin := 0; lin < n2; lin++ {
				idx := multiIndex(cblk.Shape, lin)
				r := linearIndex(cblk.Shape[:rFreeA], idx[:rFreeA])
				cc := linearIndex(cblk.Shape[rFreeA:], idx[rFreeA:])
				val := prod.At(r, cc)
				if cblk.Cplx != nil {
					cblk.Cplx[lin] += val
				} else {
					cblk.Real[lin] += real(val)
				}
			}
		}
	}

	return restoreNonUnique(C)
}

// restoreNonUnique fills every resident non-unique block of d from its
// unique sibling (spec.md §4.3.4 "restore_block", used after mult
// populates the unique blocks of a result diagram).
func restoreNonUnique(d *Diagram) error {
	for _, blk := range d.Blocks {
		if blk.Unique || !blk.resident {
			continue
		}
		unique, err := d.uniqueOf(blk)
		if err != nil {
			return err
		}
		n := blk.NumElements()
		for lin := 0; lin < n; lin++ {
			y := multiIndex(blk.Shape, lin)
			mapped := make([]int, d.Rank)
			for i, p := range blk.PermToUnique {
				mapped[i] = y[p]
			}
			uLin := linearIndex(unique.Shape, mapped)
			if blk.Cplx != nil {
				if unique.Cplx != nil {
					blk.Cplx[lin] = unique.Cplx[uLin] * complex(blk.Sign, 0)
				} else {
					blk.Cplx[lin] = complex(unique.Real[uLin]*blk.Sign, 0)
				}
			} else {
				if unique.Real != nil {
					blk.Real[lin] = unique.Real[uLin] * blk.Sign
				}
			}
		}
	}
	return nil
}
