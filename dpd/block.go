package dpd

import "github.com/aoleynichenko/EXP-T-sub003/config"

// Storage is the in-memory-vs-on-disk policy tag of spec.md §3.3/§4.3.1.
type Storage int

const (
	InMemory Storage = iota
	OnDisk
)

func (s Storage) String() string {
	if s == OnDisk {
		return "on-disk"
	}
	return "in-memory"
}

// Block is one symmetry-allowed sub-tensor of a Diagram: the unit of
// storage, I/O, and parallelism (spec.md §3.3, GLOSSARY).
//
// Arithmetic mode is tagged at the block level (spec.md §9 "Tagged
// variants"): exactly one of Real/Cplx is populated, selected by the
// owning Diagram's Arithmetic field, and every primitive dispatches on it
// with a small switch rather than runtime polymorphism.
type Block struct {
	ID int

	// SpinorBlocks is the r-tuple of spinor-block (tile) ids this block is
	// indexed by, in the diagram's current (possibly reordered) dimension
	// order.
	SpinorBlocks []int

	// Shape holds, for each dimension, the number of spinor indices of the
	// appropriate quasiparticle/valence class within the corresponding
	// spinor block.
	Shape []int

	Storage Storage

	// Unique reports whether this block owns its data: in a diagram
	// restricted to unique storage, whether it is the permutationally
	// unique representative of its orbit; otherwise every block is unique.
	Unique bool

	// PermToUnique and Sign relate a non-unique block to its unique
	// sibling: Data == Sign * transpose(unique.Data, PermToUnique). Nil
	// and +1 for unique blocks.
	PermToUnique []int
	Sign         float64

	Real []float64
	Cplx []complex128

	// diskPath is not assigned anywhere in this package: an OnDisk block
	// keeps its buffer in memory exactly like an InMemory one, and no
	// per-block file is written or reloaded. resident reports whether the
	// buffer is allocated.
	diskPath string
	resident bool
}

// NumElements returns the product of Shape.
func (b *Block) NumElements() int {
	n := 1
	for _, s := range b.Shape {
		n *= s
	}
	return n
}

func newBlockBuffer(arith config.Arithmetic, n int) (real []float64, cplx []complex128) {
	if arith == config.Real {
		return make([]float64, n), nil
	}
	return nil, make([]complex128, n)
}

// strides returns the row-major strides for Shape, used by the compound
// <-> linear index mapping in accessor.go and reorder.go.
func strides(shape []int) []int {
	r := len(shape)
	s := make([]int, r)
	acc := 1
	for i := r - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

func linearIndex(shape, idx []int) int {
	s := strides(shape)
	lin := 0
	for i, x := range idx {
		lin += x * s[i]
	}
	return lin
}
