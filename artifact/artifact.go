// Package artifact implements the external-interface boundary of spec.md
// §6: plain data carriers plus readers/writers for the upstream integral
// files and downstream artefacts that the core exchanges with the SCF
// program and between runs. No SCF or integral-transformation logic
// lives here, per the Non-goals — only the wire formats.
package artifact

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
)

// HIntMatrix is the one-electron ("HINT") matrix of spec.md §6.1: a
// square nspinors x nspinors complex matrix read from a stream of raw
// doubles (real and imaginary parts interleaved, row-major).
type HIntMatrix struct {
	N    int
	Data []complex128 // row-major, N*N
}

// At returns H[i][j].
func (m *HIntMatrix) At(i, j int) complex128 { return m.Data[i*m.N+j] }

// ReadHIntMatrix reads an nspinors x nspinors matrix of raw doubles,
// real(0,0), imag(0,0), real(0,1), imag(0,1), ... per spec.md §6.1.
func ReadHIntMatrix(r io.Reader, n int) (*HIntMatrix, error) {
	buf := make([]byte, 16*n*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ferr.NewIO("artifact.ReadHIntMatrix", err)
	}
	m := &HIntMatrix{N: n, Data: make([]complex128, n*n)}
	for i := range m.Data {
		re := math.Float64frombits(binary.LittleEndian.Uint64(buf[i*16:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(buf[i*16+8:]))
		m.Data[i] = complex(re, im)
	}
	return m, nil
}

// WriteHIntMatrix writes m back out in the same raw-double layout
// ReadHIntMatrix expects.
func WriteHIntMatrix(w io.Writer, m *HIntMatrix) error {
	buf := make([]byte, 16*len(m.Data))
	for i, v := range m.Data {
		binary.LittleEndian.PutUint64(buf[i*16:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(buf[i*16+8:], math.Float64bits(imag(v)))
	}
	if _, err := w.Write(buf); err != nil {
		return ferr.NewIO("artifact.WriteHIntMatrix", err)
	}
	return nil
}

// VIntEntry is one nonzero two-electron integral, indexed by the four
// 0-based spinor indices of spec.md §6.1.
type VIntEntry struct {
	Indices [4]int
	Value   complex128
}

// VIntRecord is one record of a "VINT-i-j-k-l" file: a run of entries
// sharing the same spinor-block quadruple, terminated by an empty
// (count=0) record, per spec.md §6.1:
// [int32 count][int16 indices[4*count]][(double|complex double) values[count]].
type VIntRecord struct {
	Entries []VIntEntry
}

// ReadVIntRecords reads every record of a VINT file until the
// terminating count=0 record. complexValues selects whether each value
// is one double (real arithmetic) or two (complex arithmetic).
func ReadVIntRecords(r io.Reader, complexValues bool) ([]VIntRecord, error) {
	var records []VIntRecord
	for {
		var count int32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, ferr.NewIO("artifact.ReadVIntRecords", err)
		}
		if count == 0 {
			return records, nil
		}
		idxBuf := make([]int16, 4*count)
		if err := binary.Read(r, binary.LittleEndian, &idxBuf); err != nil {
			return nil, ferr.NewIO("artifact.ReadVIntRecords", err)
		}
		rec := VIntRecord{Entries: make([]VIntEntry, count)}
		for i := 0; i < int(count); i++ {
			for k := 0; k < 4; k++ {
				rec.Entries[i].Indices[k] = int(idxBuf[4*i+k])
			}
		}
		for i := 0; i < int(count); i++ {
			var re, im float64
			if err := binary.Read(r, binary.LittleEndian, &re); err != nil {
				return nil, ferr.NewIO("artifact.ReadVIntRecords", err)
			}
			if complexValues {
				if err := binary.Read(r, binary.LittleEndian, &im); err != nil {
					return nil, ferr.NewIO("artifact.ReadVIntRecords", err)
				}
			}
			rec.Entries[i].Value = complex(re, im)
		}
		records = append(records, rec)
	}
}

// WriteVIntRecords writes records followed by the terminating count=0
// record, in the layout ReadVIntRecords expects.
func WriteVIntRecords(w io.Writer, records []VIntRecord, complexValues bool) error {
	for _, rec := range records {
		count := int32(len(rec.Entries))
		if err := binary.Write(w, binary.LittleEndian, count); err != nil {
			return ferr.NewIO("artifact.WriteVIntRecords", err)
		}
		for _, e := range rec.Entries {
			for k := 0; k < 4; k++ {
				if err := binary.Write(w, binary.LittleEndian, int16(e.Indices[k])); err != nil {
					return ferr.NewIO("artifact.WriteVIntRecords", err)
				}
			}
		}
		for _, e := range rec.Entries {
			if err := binary.Write(w, binary.LittleEndian, real(e.Value)); err != nil {
				return ferr.NewIO("artifact.WriteVIntRecords", err)
			}
			if complexValues {
				if err := binary.Write(w, binary.LittleEndian, imag(e.Value)); err != nil {
					return ferr.NewIO("artifact.WriteVIntRecords", err)
				}
			}
		}
	}
	return binary.Write(w, binary.LittleEndian, int32(0))
}

// PropertyEntry is one sparse property-integral value, 1-based on the
// wire per spec.md §6.1 ("in 1-based indices, transposed on read").
type PropertyEntry struct {
	I, J  int
	Value complex128
}

// ReadPropertyEntries parses the MDPROP-style sparse text format: one
// "i j re [im]" triple/quad per line, 1-based, converted to 0-based and
// transposed (i,j) -> (j,i) on read, per spec.md §6.1.
func ReadPropertyEntries(r io.Reader) ([]PropertyEntry, error) {
	sc := bufio.NewScanner(r)
	var out []PropertyEntry
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, ferr.NewIO("artifact.ReadPropertyEntries", fmt.Errorf("malformed property line %q", line))
		}
		i, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, ferr.NewIO("artifact.ReadPropertyEntries", err)
		}
		j, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, ferr.NewIO("artifact.ReadPropertyEntries", err)
		}
		re, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, ferr.NewIO("artifact.ReadPropertyEntries", err)
		}
		var im float64
		if len(fields) >= 4 {
			im, err = strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, ferr.NewIO("artifact.ReadPropertyEntries", err)
			}
		}
		out = append(out, PropertyEntry{I: j - 1, J: i - 1, Value: complex(re, im)})
	}
	if err := sc.Err(); err != nil {
		return nil, ferr.NewIO("artifact.ReadPropertyEntries", err)
	}
	return out, nil
}

// MVDet is the fixed-width determinant record serialised inside an
// MVCOEF file, mirroring slater_det_t (_examples/original_source/src/rcc/heff/slater_det.h):
// a fixed-width index array plus an irrep tag.
type MVDet struct {
	Indices []int
	Irrep   int16
}

// MVCOEFBlock is one per-irrep block of an MVCOEF file, per spec.md §6.2:
// {rep_name_len, rep_name, dim, nroots, dets[dim], eigvalues[nroots],
// right[dim x nroots], left[dim x nroots]}.
type MVCOEFBlock struct {
	RepName    string
	Dim        int
	NRoots     int
	Dets       []MVDet
	EigVals    []complex128
	Right, Left []complex128 // dim*nroots, column-major (root-major outer index)
}

// MVCOEFFile is a full MVCOEF<h><p> (or MVCOEF0011) file: a sequence of
// per-irrep blocks terminated by {len=4, "EOF", ground_eigenvalue}, per
// spec.md §6.2. The fixed determinant record width (sector h+p, or h+p+1
// for sectors that may include the vacuum determinant) is not stored in
// the struct; it is passed as detWidth to WriteMVCOEFFile/ReadMVCOEFFile.
type MVCOEFFile struct {
	Blocks         []MVCOEFBlock
	GroundEigval   float64
}

func writeLenPrefixedString(w io.Writer, s string) error {
	b := append([]byte(s), 0)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readLenPrefixedString(r io.Reader) (string, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

// WriteMVCOEFFile serialises f in the unformatted layout of spec.md §6.2,
// grounded on mvcoef_write_vectors_unformatted/mvcoef_close
// (_examples/original_source/src/rcc/heff/mvcoef.c).
func WriteMVCOEFFile(w io.Writer, f *MVCOEFFile, detWidth int) error {
	for _, b := range f.Blocks {
		if err := writeLenPrefixedString(w, b.RepName); err != nil {
			return ferr.NewIO("artifact.WriteMVCOEFFile", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(b.Dim)); err != nil {
			return ferr.NewIO("artifact.WriteMVCOEFFile", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(b.NRoots)); err != nil {
			return ferr.NewIO("artifact.WriteMVCOEFFile", err)
		}
		for _, d := range b.Dets {
			idx := make([]int32, detWidth)
			for i, v := range d.Indices {
				if i < detWidth {
					idx[i] = int32(v)
				}
			}
			if err := binary.Write(w, binary.LittleEndian, idx); err != nil {
				return ferr.NewIO("artifact.WriteMVCOEFFile", err)
			}
			if err := binary.Write(w, binary.LittleEndian, d.Irrep); err != nil {
				return ferr.NewIO("artifact.WriteMVCOEFFile", err)
			}
		}
		if err := writeComplexSlice(w, b.EigVals); err != nil {
			return ferr.NewIO("artifact.WriteMVCOEFFile", err)
		}
		if err := writeComplexSlice(w, b.Right); err != nil {
			return ferr.NewIO("artifact.WriteMVCOEFFile", err)
		}
		if err := writeComplexSlice(w, b.Left); err != nil {
			return ferr.NewIO("artifact.WriteMVCOEFFile", err)
		}
	}
	if err := writeLenPrefixedString(w, "EOF"); err != nil {
		return ferr.NewIO("artifact.WriteMVCOEFFile", err)
	}
	return binary.Write(w, binary.LittleEndian, f.GroundEigval)
}

// ReadMVCOEFFile parses an MVCOEF file, per
// mvcoef_read_vectors_unformatted.
func ReadMVCOEFFile(r io.Reader, detWidth int) (*MVCOEFFile, error) {
	f := &MVCOEFFile{}
	for {
		name, err := readLenPrefixedString(r)
		if err != nil {
			return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err)
		}
		if name == "EOF" {
			break
		}
		var dim, nroots uint64
		if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
			return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &nroots); err != nil {
			return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err)
		}
		b := MVCOEFBlock{RepName: name, Dim: int(dim), NRoots: int(nroots)}
		b.Dets = make([]MVDet, dim)
		for i := range b.Dets {
			idx := make([]int32, detWidth)
			if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
				return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err)
			}
			var irrep int16
			if err := binary.Read(r, binary.LittleEndian, &irrep); err != nil {
				return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err)
			}
			ints := make([]int, detWidth)
			for k, v := range idx {
				ints[k] = int(v)
			}
			b.Dets[i] = MVDet{Indices: ints, Irrep: irrep}
		}
		var err2 error
		b.EigVals, err2 = readComplexSlice(r, int(nroots))
		if err2 != nil {
			return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err2)
		}
		b.Right, err2 = readComplexSlice(r, int(dim)*int(nroots))
		if err2 != nil {
			return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err2)
		}
		b.Left, err2 = readComplexSlice(r, int(dim)*int(nroots))
		if err2 != nil {
			return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err2)
		}
		f.Blocks = append(f.Blocks, b)
	}
	if err := binary.Read(r, binary.LittleEndian, &f.GroundEigval); err != nil {
		return nil, ferr.NewIO("artifact.ReadMVCOEFFile", err)
	}
	return f, nil
}

func writeComplexSlice(w io.Writer, vs []complex128) error {
	for _, v := range vs {
		if err := binary.Write(w, binary.LittleEndian, real(v)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, imag(v)); err != nil {
			return err
		}
	}
	return nil
}

func readComplexSlice(r io.Reader, n int) ([]complex128, error) {
	out := make([]complex128, n)
	for i := range out {
		var re, im float64
		if err := binary.Read(r, binary.LittleEndian, &re); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &im); err != nil {
			return nil, err
		}
		out[i] = complex(re, im)
	}
	return out, nil
}

// DiagramFile is the peeked header of a <name>.dg file of spec.md §6.2:
// enough metadata to list on-disk diagrams without materialising their
// block buffers.
type DiagramFile struct {
	ID   int64
	Name string
	Rank int
}

// PeekDiagramFile reads just the magic/id/name/rank header of a .dg
// stream, grounded on the same layout dpd.ReadDiagram consumes
// (dpd/io.go), without touching block metadata or buffers.
func PeekDiagramFile(r io.Reader) (*DiagramFile, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, ferr.NewIO("artifact.PeekDiagramFile", err)
	}
	const diagramMagic = 0x6f6c6579
	if magic != diagramMagic {
		return nil, ferr.NewIO("artifact.PeekDiagramFile", fmt.Errorf("magic word mismatch"))
	}
	var id int64
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return nil, ferr.NewIO("artifact.PeekDiagramFile", err)
	}
	var nameLen uint32
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return nil, ferr.NewIO("artifact.PeekDiagramFile", err)
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, ferr.NewIO("artifact.PeekDiagramFile", err)
	}
	name := string(nameBuf)
	var rank int32
	if err := binary.Read(r, binary.LittleEndian, &rank); err != nil {
		return nil, ferr.NewIO("artifact.PeekDiagramFile", err)
	}
	return &DiagramFile{ID: id, Name: name, Rank: int(rank)}, nil
}
