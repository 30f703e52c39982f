// Package spinor owns the ordered list of one-particle functions (spinors)
// and partitions them into tiled spinor blocks, per spec.md §3.1-3.2 and
// §4.2. The registry is immutable after Tile is called; every higher layer
// (dpd, determinant, slater, heff, intham, density) only ever reads it.
package spinor

import (
	"sort"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
	"github.com/aoleynichenko/EXP-T-sub003/symmetry"
)

// Spinor is one one-particle function, per spec.md §3.1. The field set is
// immutable once a Registry has been built.
type Spinor struct {
	Index   int            // global 0-based index
	Irrep   symmetry.Irrep // irrep id
	Occ     int            // 0 or 1: occupation in the reference
	Active  bool           // is this spinor in the model/active space
	Triples bool           // is this spinor in the "triples space"
	Energy  float64        // scalar orbital energy epsilon

	blockID int // assigned by Tile; -1 until then
	offset  int // local offset within its block
}

// Block is a tile: a contiguous run of spinors sharing an irrep, of length
// at most the configured tile size (spec.md §3.2).
type Block struct {
	ID      int
	Irrep   symmetry.Irrep
	Indices []int // global spinor indices, in registry order
}

// Size returns the number of spinors in the block.
func (b Block) Size() int { return len(b.Indices) }

// Registry is the process's ordered spinor list plus its tiling, held by
// pointer in dpd.Context and passed by reference to every
// primitive, per the "no singletons" design note (spec.md §9).
type Registry struct {
	spinors []Spinor
	blocks  []Block
	// loc maps global spinor index -> (block id, local offset).
	loc []struct{ block, offset int }

	vacuumIrrep symmetry.Irrep
}

// New constructs a Registry from parallel arrays, per spec.md §4.2. irreps,
// energies and occ must have equal, positive length. occ entries must be 0
// or 1.
func New(irreps []symmetry.Irrep, energies []float64, occ []int, vacuumIrrep symmetry.Irrep) (*Registry, error) {
	n := len(irreps)
	if n == 0 {
		return nil, ferr.NewConfig("spinor.New", "empty spinor list")
	}
	if len(energies) != n || len(occ) != n {
		return nil, ferr.NewConfig("spinor.New", "irrep/energy/occupation arrays must have equal length")
	}
	spinors := make([]Spinor, n)
	for i := 0; i < n; i++ {
		if occ[i] != 0 && occ[i] != 1 {
			return nil, ferr.NewConfig("spinor.New", "occupation must be 0 or 1")
		}
		spinors[i] = Spinor{
			Index:   i,
			Irrep:   irreps[i],
			Occ:     occ[i],
			Energy:  energies[i],
			blockID: -1,
			offset:  -1,
		}
	}
	return &Registry{spinors: spinors, vacuumIrrep: vacuumIrrep}, nil
}

// SetActive marks the spinors named by indices as active (part of the
// model space); SetTriples marks the spinors named by indices as eligible
// for the triples subspace. Both are configuration-time operations: per
// spec.md §4.2 they are "set once from external configuration and then
// never mutated" — callers must invoke them before Tile.
func (r *Registry) SetActive(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= len(r.spinors) {
			return ferr.NewConfig("spinor.SetActive", i)
		}
		r.spinors[i].Active = true
	}
	return nil
}

func (r *Registry) SetTriples(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= len(r.spinors) {
			return ferr.NewConfig("spinor.SetTriples", i)
		}
		r.spinors[i].Triples = true
	}
	return nil
}

// NumSpinors returns the number of one-particle functions.
func (r *Registry) NumSpinors() int { return len(r.spinors) }

// Spinor returns spinor i by value.
func (r *Registry) Spinor(i int) Spinor { return r.spinors[i] }

// IsHole reports whether spinor i is occupied in the reference.
func (r *Registry) IsHole(i int) bool { return r.spinors[i].Occ == 1 }

// IsParticle reports whether spinor i is unoccupied in the reference.
func (r *Registry) IsParticle(i int) bool { return r.spinors[i].Occ == 0 }

// IsActive reports whether spinor i belongs to the model/active space.
func (r *Registry) IsActive(i int) bool { return r.spinors[i].Active }

// IsActHole reports whether spinor i is both a hole and active.
func (r *Registry) IsActHole(i int) bool { return r.IsHole(i) && r.IsActive(i) }

// IsActParticle reports whether spinor i is both a particle and active.
func (r *Registry) IsActParticle(i int) bool { return r.IsParticle(i) && r.IsActive(i) }

// Eps returns the orbital energy of spinor i.
func (r *Registry) Eps(i int) float64 { return r.spinors[i].Energy }

// NumElectrons returns sum(occ).
func (r *Registry) NumElectrons() int {
	n := 0
	for _, s := range r.spinors {
		n += s.Occ
	}
	return n
}

// VacuumIrrep returns the totally symmetric irrep of the reference
// determinant.
func (r *Registry) VacuumIrrep() symmetry.Irrep { return r.vacuumIrrep }

// ActiveSpace returns the active holes when sectorH>0, else the active
// particles when sectorP>0 (spec.md §4.2). When both are zero, it returns
// an empty slice.
func (r *Registry) ActiveSpace(sectorH, sectorP int) (int, []int) {
	var out []int
	if sectorH > 0 {
		for _, s := range r.spinors {
			if s.Occ == 1 && s.Active {
				out = append(out, s.Index)
			}
		}
	} else if sectorP > 0 {
		for _, s := range r.spinors {
			if s.Occ == 0 && s.Active {
				out = append(out, s.Index)
			}
		}
	}
	return len(out), out
}

// Tile partitions the spinors into blocks of size at most tileSize,
// sharing an irrep, and — when splitByOccupation is true — also sharing
// occupation class (hole vs particle), per spec.md §3.2/§4.2. Tile does
// not reject repeated calls: a later call replaces the previous tiling,
// so the "immutable after setup" contract of the engine construction
// sequence holds by convention only.
func (r *Registry) Tile(tileSize int, splitByOccupation bool) error {
	if tileSize <= 0 {
		return ferr.NewConfig("spinor.Tile", "tile_size must be positive")
	}
	type key struct {
		irrep symmetry.Irrep
		occ   int // -1 when not split by occupation
	}
	groups := map[key][]int{}
	var order []key
	for _, s := range r.spinors {
		occ := -1
		if splitByOccupation {
			occ = s.Occ
		}
		k := key{s.Irrep, occ}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], s.Index)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].irrep != order[j].irrep {
			return order[i].irrep < order[j].irrep
		}
		return order[i].occ < order[j].occ
	})

	blocks := make([]Block, 0, len(r.spinors)/tileSize+1)
	loc := make([]struct{ block, offset int }, len(r.spinors))
	for _, k := range order {
		idxs := groups[k]
		for start := 0; start < len(idxs); start += tileSize {
			end := start + tileSize
			if end > len(idxs) {
				end = len(idxs)
			}
			bid := len(blocks)
			chunk := append([]int(nil), idxs[start:end]...)
			blocks = append(blocks, Block{ID: bid, Irrep: k.irrep, Indices: chunk})
			for off, gi := range chunk {
				loc[gi] = struct{ block, offset int }{bid, off}
				r.spinors[gi].blockID = bid
				r.spinors[gi].offset = off
			}
		}
	}
	r.blocks = blocks
	r.loc = loc
	return nil
}

// NumBlocks returns the number of tiles produced by Tile.
func (r *Registry) NumBlocks() int { return len(r.blocks) }

// BlockAt returns tile b.
func (r *Registry) BlockAt(b int) Block { return r.blocks[b] }

// Locate returns the (block id, local offset) of global spinor index i.
func (r *Registry) Locate(i int) (block, offset int) {
	l := r.loc[i]
	return l.block, l.offset
}

// SymBlockZero is the quick pruning test of spec.md §4.2: it reports
// whether the tuple of spinor blocks named by blockIDs, interpreted under
// the quasiparticle signature qparts and valence signature valence, is
// certain to be empty because one of its constituent sub-blocks (after
// restricting to holes/particles and, when valence[i]=1, to active
// spinors) has no members.
func (r *Registry) SymBlockZero(qparts []byte, valence []int, blockIDs []int) bool {
	for i, bid := range blockIDs {
		blk := r.blocks[bid]
		count := 0
		for _, gi := range blk.Indices {
			s := r.spinors[gi]
			wantHole := qparts[i] == 'h'
			isHole := s.Occ == 1
			if wantHole != isHole {
				continue
			}
			if valence[i] == 1 && !s.Active {
				continue
			}
			count++
		}
		if count == 0 {
			return true
		}
	}
	return false
}

// BlockIndicesFiltered returns the subset of block bid's spinor indices
// consistent with the quasiparticle flag wantHole and, when activeOnly is
// true, restricted to active spinors. This is the enumeration primitive
// package dpd uses to materialise block shapes during Tmplt.
func (r *Registry) BlockIndicesFiltered(bid int, wantHole bool, activeOnly bool) []int {
	blk := r.blocks[bid]
	out := make([]int, 0, len(blk.Indices))
	for _, gi := range blk.Indices {
		s := r.spinors[gi]
		isHole := s.Occ == 1
		if isHole != wantHole {
			continue
		}
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, gi)
	}
	return out
}
