package dpd

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/dpd/blockio"
	"github.com/aoleynichenko/EXP-T-sub003/ferr"
)

// DiagramMagic is the on-disk magic word of spec.md §6.2.
const DiagramMagic uint32 = 0x6f6c6579

func writeString(w io.Writer, s string) error {
	b := []byte(s)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// Write emits d to w per spec.md §4.3.7/§6.2: magic; diagram id and name;
// rank; only_unique; the arithmetic flag; the three signature arrays; the
// block count; then every block's metadata and buffer. The inverted index
// is not written: ReadDiagram rebuilds it from the block tuples. Buffers
// are compressed at block granularity when compress is true.
func (d *Diagram) Write(w io.Writer, compress bool) error {
	if err := binary.Write(w, binary.LittleEndian, DiagramMagic); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	if err := binary.Write(w, binary.LittleEndian, d.ID); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	if err := writeString(w, d.Name); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	if err := binary.Write(w, binary.LittleEndian, int32(d.Rank)); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	var onlyUnique byte
	if d.OnlyUnique {
		onlyUnique = 1
	}
	if err := binary.Write(w, binary.LittleEndian, onlyUnique); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	var arith byte
	if d.Arithmetic == config.Complex {
		arith = 1
	}
	if err := binary.Write(w, binary.LittleEndian, arith); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	if err := writeString(w, string(d.QParts)); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	if err := writeString(w, valenceToString(d.Valence)); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	for _, o := range d.Order {
		if err := binary.Write(w, binary.LittleEndian, int32(o)); err != nil {
			return ferr.NewIO("dpd.Diagram.Write", err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(d.Blocks))); err != nil {
		return ferr.NewIO("dpd.Diagram.Write", err)
	}
	for _, blk := range d.Blocks {
		if err := writeBlock(w, d, blk, compress); err != nil {
			return err
		}
	}
	return nil
}

func writeBlock(w io.Writer, d *Diagram, blk *Block, compress bool) error {
	for _, id := range blk.SpinorBlocks {
		if err := binary.Write(w, binary.LittleEndian, int32(id)); err != nil {
			return ferr.NewIO("dpd.writeBlock", err)
		}
	}
	for _, s := range blk.Shape {
		if err := binary.Write(w, binary.LittleEndian, int32(s)); err != nil {
			return ferr.NewIO("dpd.writeBlock", err)
		}
	}
	var flags byte
	if blk.Unique {
		flags |= 1
	}
	if blk.Storage == OnDisk {
		flags |= 2
	}
	if blk.resident {
		flags |= 4
	}
	if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
		return ferr.NewIO("dpd.writeBlock", err)
	}
	if err := binary.Write(w, binary.LittleEndian, blk.Sign); err != nil {
		return ferr.NewIO("dpd.writeBlock", err)
	}
	if !blk.Unique {
		for _, p := range blk.PermToUnique {
			if err := binary.Write(w, binary.LittleEndian, int32(p)); err != nil {
				return ferr.NewIO("dpd.writeBlock", err)
			}
		}
	}
	if !blk.resident {
		return nil
	}
	raw := blockBytes(d.Arithmetic, blk)
	return blockio.WriteChunk(w, raw, compress)
}

func blockBytes(arith config.Arithmetic, blk *Block) []byte {
	if arith == config.Real {
		buf := make([]byte, 8*len(blk.Real))
		for i, v := range blk.Real {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		return buf
	}
	buf := make([]byte, 16*len(blk.Cplx))
	for i, v := range blk.Cplx {
		binary.LittleEndian.PutUint64(buf[i*16:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(buf[i*16+8:], math.Float64bits(imag(v)))
	}
	return buf
}

func blockFromBytes(arith config.Arithmetic, raw []byte, n int) (real_ []float64, cplx []complex128) {
	if arith == config.Real {
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return out, nil
	}
	out := make([]complex128, n)
	for i := range out {
		re := math.Float64frombits(binary.LittleEndian.Uint64(raw[i*16:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(raw[i*16+8:]))
		out[i] = complex(re, im)
	}
	return nil, out
}

// ReadDiagram reverses Write, verifying the magic word.
func ReadDiagram(r io.Reader, compress bool) (*Diagram, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	if magic != DiagramMagic {
		return nil, ferr.NewIO("dpd.ReadDiagram", errMagicMismatch)
	}
	d := &Diagram{index: map[string]int{}}
	if err := binary.Read(r, binary.LittleEndian, &d.ID); err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	name, err := readString(r)
	if err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	d.Name = name
	var rank int32
	if err := binary.Read(r, binary.LittleEndian, &rank); err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	d.Rank = int(rank)
	var onlyUnique, arith byte
	if err := binary.Read(r, binary.LittleEndian, &onlyUnique); err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	d.OnlyUnique = onlyUnique != 0
	if err := binary.Read(r, binary.LittleEndian, &arith); err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	if arith != 0 {
		d.Arithmetic = config.Complex
	} else {
		d.Arithmetic = config.Real
	}
	qparts, err := readString(r)
	if err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	d.QParts = []byte(qparts)
	valenceStr, err := readString(r)
	if err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	d.Valence = make([]int, len(valenceStr))
	for i, c := range valenceStr {
		d.Valence[i] = int(c - '0')
	}
	d.Order = make([]int, d.Rank)
	for i := range d.Order {
		var o int32
		if err := binary.Read(r, binary.LittleEndian, &o); err != nil {
			return nil, ferr.NewIO("dpd.ReadDiagram", err)
		}
		d.Order[i] = int(o)
	}
	var nblocks int32
	if err := binary.Read(r, binary.LittleEndian, &nblocks); err != nil {
		return nil, ferr.NewIO("dpd.ReadDiagram", err)
	}
	for i := 0; i < int(nblocks); i++ {
		blk, err := readBlock(r, d, compress)
		if err != nil {
			return nil, err
		}
		blk.ID = i
		d.Blocks = append(d.Blocks, blk)
		d.index[tupleKey(blk.SpinorBlocks)] = i
	}
	return d, nil
}

func readBlock(r io.Reader, d *Diagram, compress bool) (*Block, error) {
	ids := make([]int, d.Rank)
	for i := range ids {
		var v int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, ferr.NewIO("dpd.readBlock", err)
		}
		ids[i] = int(v)
	}
	shape := make([]int, d.Rank)
	for i := range shape {
		var v int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, ferr.NewIO("dpd.readBlock", err)
		}
		shape[i] = int(v)
	}
	var flags byte
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return nil, ferr.NewIO("dpd.readBlock", err)
	}
	blk := &Block{SpinorBlocks: ids, Shape: shape, Unique: flags&1 != 0}
	if flags&2 != 0 {
		blk.Storage = OnDisk
	}
	wasResident := flags&4 != 0
	if err := binary.Read(r, binary.LittleEndian, &blk.Sign); err != nil {
		return nil, ferr.NewIO("dpd.readBlock", err)
	}
	if !blk.Unique {
		blk.PermToUnique = make([]int, d.Rank)
		for i := range blk.PermToUnique {
			var v int32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, ferr.NewIO("dpd.readBlock", err)
			}
			blk.PermToUnique[i] = int(v)
		}
	}
	if !wasResident {
		return blk, nil
	}
	n := blk.NumElements()
	raw, err := blockio.ReadChunk(r, compress, n*rawElementSize(d.Arithmetic))
	if err != nil {
		return nil, err
	}
	blk.Real, blk.Cplx = blockFromBytes(d.Arithmetic, raw, n)
	blk.resident = true
	return blk, nil
}

func rawElementSize(arith config.Arithmetic) int {
	if arith == config.Real {
		return 8
	}
	return 16
}

var errMagicMismatch = errors.New("dpd: magic word mismatch")
