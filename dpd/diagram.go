// Package dpd implements the Direct-Product Decomposition tensor engine of
// spec.md §3.3/§4.3: symmetry-decomposed, permutation-restricted sparse
// tensors over spinor indices ("diagrams"), stored as a collection of
// blocks, plus the primitive algebra (tmplt, reorder, mult, update,
// diveps, copy/clear, I/O).
package dpd

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/engine"
	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/spinor"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

// diagramsCount is the process-wide diagram counter used to assign unique
// IDs, mirroring the original engine's diagrams_count.
var diagramsCount int64

func nextDiagramID() int64 {
	return atomic.AddInt64(&diagramsCount, 1)
}

// Context bundles the read-only, setup-once state every dpd primitive
// needs: the symmetry table, the spinor registry, the arithmetic mode and
// disk-usage policy, and the diagram stack. Per spec.md §9 ("Global state
// to reshape"), this replaces the original code's process-wide mutable
// globals; one Context is constructed at startup and passed by reference
// to every primitive. There are no package-level singletons.
type Context struct {
	Sym      *symmetry.Group
	Spinors  *spinor.Registry
	Cfg      config.Config
	Sched    *engine.Scheduler

	stackMu sync.Mutex
	stack   map[string]*Diagram
}

// NewContext builds a Context from its setup-once components.
func NewContext(sym *symmetry.Group, spinors *spinor.Registry, cfg config.Config) *Context {
	return &Context{Sym: sym, Spinors: spinors, Cfg: cfg, Sched: engine.New(cfg), stack: map[string]*Diagram{}}
}

// Push registers d in the diagram stack under d.Name, replacing any
// previous diagram of the same name. Per spec.md §5, stack mutation is
// serialised and never performed inside a parallel region.
func (c *Context) Push(d *Diagram) {
	c.stackMu.Lock()
	defer c.stackMu.Unlock()
	c.stack[d.Name] = d
}

// Get looks up a diagram by name.
func (c *Context) Get(name string) (*Diagram, error) {
	c.stackMu.Lock()
	defer c.stackMu.Unlock()
	d, ok := c.stack[name]
	if !ok {
		return nil, ferr.NewConfig("dpd.Get", fmt.Sprintf("no diagram named %q", name))
	}
	return d, nil
}

// Remove deletes the diagram named name from the stack, releasing its
// blocks (memory and disk-resident).
func (c *Context) Remove(name string) {
	c.stackMu.Lock()
	d, ok := c.stack[name]
	delete(c.stack, name)
	c.stackMu.Unlock()
	if ok {
		d.release()
	}
}

// Diagram is a symmetry-decomposed tensor over spinor indices, per
// spec.md §3.3.
type Diagram struct {
	ID         int64
	Name       string
	Rank       int
	QParts     []byte // 'h' or 'p' per dimension, in CURRENT order
	Valence    []int  // 0/1 per dimension, in CURRENT order
	Order      []int  // 0-based permutation: dim i's natural position is Order[i]
	OnlyUnique bool
	Arithmetic config.Arithmetic

	Blocks []*Block
	// index maps a linearised current-order spinor-block tuple to a
	// position in Blocks (spec.md §3.3 "inverted index").
	index map[string]int
}

func tupleKey(ids []int) string {
	// Linearised key; ids are small non-negative ints so a simple
	// separator-joined string is a perfectly good, allocation-light key.
	buf := make([]byte, 0, len(ids)*5)
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendInt(buf, id)
	}
	return string(buf)
}

func appendInt(buf []byte, v int) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	neg := v < 0
	if neg {
		v = -v
	}
	start := len(buf)
	for v > 0 {
		buf = append(buf, byte('0'+v%10))
		v /= 10
	}
	if neg {
		buf = append(buf, '-')
	}
	// reverse the digits just appended
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// blockByTuple returns the block whose current-order spinor-block tuple is
// ids, or (nil, false).
func (d *Diagram) blockByTuple(ids []int) (*Block, bool) {
	i, ok := d.index[tupleKey(ids)]
	if !ok {
		return nil, false
	}
	return d.Blocks[i], true
}

// release frees every block's buffer (and on-disk file, conceptually: the
// caller's blockio layer owns actual file deletion policy).
func (d *Diagram) release() {
	for _, b := range d.Blocks {
		b.Real = nil
		b.Cplx = nil
	}
	d.Blocks = nil
	d.index = nil
}

// validateSignature checks the qparts/valence/order argument triple
// against the rules of spec.md §4.3.1: equal length, even, alphabet, and
// order a permutation of 0..r-1.
func validateSignature(op string, qparts string, valence string, order []int) (rank int, qarr []byte, varr []int, err error) {
	rank = len(qparts)
	if rank != len(valence) || rank != len(order) {
		return 0, nil, nil, ferr.NewConfig(op, "qparts/valence/order must have equal length")
	}
	if rank == 0 || rank%2 != 0 {
		return 0, nil, nil, ferr.NewConfig(op, "rank must be even and positive (2,4,6,...)")
	}
	qarr = make([]byte, rank)
	for i := 0; i < rank; i++ {
		c := qparts[i]
		if c != 'h' && c != 'p' {
			return 0, nil, nil, ferr.NewConfig(op, fmt.Sprintf("wrong quasiparticle symbol %q (allowed: h,p)", string(c)))
		}
		qarr[i] = c
	}
	varr = make([]int, rank)
	for i := 0; i < rank; i++ {
		c := valence[i]
		if c != '0' && c != '1' {
			return 0, nil, nil, ferr.NewConfig(op, fmt.Sprintf("wrong valence flag %q (allowed: 0,1)", string(c)))
		}
		varr[i] = int(c - '0')
	}
	seen := make([]bool, rank)
	for _, p := range order {
		if p < 0 || p >= rank || seen[p] {
			return 0, nil, nil, ferr.NewConfig(op, "order must be a permutation of 0..rank-1")
		}
		seen[p] = true
	}
	return rank, qarr, varr, nil
}

// invertPerm returns the inverse of permutation p.
func invertPerm(p []int) []int {
	inv := make([]int, len(p))
	for i, v := range p {
		inv[v] = i
	}
	return inv
}

// permApply returns a slice where out[i] = in[perm[i]].
func permApply(in []int, perm []int) []int {
	out := make([]int, len(in))
	for i, p := range perm {
		out[i] = in[p]
	}
	return out
}

// permApplyByte is the []byte analogue of permApply.
func permApplyByte(in []byte, perm []int) []byte {
	out := make([]byte, len(in))
	for i, p := range perm {
		out[i] = in[p]
	}
	return out
}

// permParity returns +1 for an even permutation, -1 for an odd one,
// computed by counting transpositions via cycle decomposition.
func permParity(perm []int) float64 {
	n := len(perm)
	visited := make([]bool, n)
	sign := 1.0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		cycleLen := 0
		j := i
		for !visited[j] {
			visited[j] = true
			j = perm[j]
			cycleLen++
		}
		if cycleLen%2 == 0 {
			sign = -sign
		}
	}
	return sign
}
