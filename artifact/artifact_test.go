package artifact_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aoleynichenko/EXP-T-sub003/artifact"
)

func TestHIntMatrixRoundTrip(t *testing.T) {
	m := &artifact.HIntMatrix{N: 2, Data: []complex128{1, 2i, 3 + 1i, -4}}
	var buf bytes.Buffer
	if err := artifact.WriteHIntMatrix(&buf, m); err != nil {
		t.Fatalf("WriteHIntMatrix: %v", err)
	}
	got, err := artifact.ReadHIntMatrix(&buf, 2)
	if err != nil {
		t.Fatalf("ReadHIntMatrix: %v", err)
	}
	if got.At(1, 0) != 3+1i {
		t.Fatalf("got %v, want 3+1i", got.At(1, 0))
	}
}

func TestVIntRecordsRoundTrip(t *testing.T) {
	records := []artifact.VIntRecord{
		{Entries: []artifact.VIntEntry{
			{Indices: [4]int{1, 2, 3, 4}, Value: complex(1.5, 0.5)},
			{Indices: [4]int{5, 6, 7, 8}, Value: complex(-2, 0)},
		}},
	}
	var buf bytes.Buffer
	if err := artifact.WriteVIntRecords(&buf, records, true); err != nil {
		t.Fatalf("WriteVIntRecords: %v", err)
	}
	got, err := artifact.ReadVIntRecords(&buf, true)
	if err != nil {
		t.Fatalf("ReadVIntRecords: %v", err)
	}
	if len(got) != 1 || len(got[0].Entries) != 2 {
		t.Fatalf("got %+v, want 1 record with 2 entries", got)
	}
	if got[0].Entries[0].Value != complex(1.5, 0.5) {
		t.Fatalf("got %v, want 1.5+0.5i", got[0].Entries[0].Value)
	}
	if got[0].Entries[1].Indices != [4]int{5, 6, 7, 8} {
		t.Fatalf("got indices %v", got[0].Entries[1].Indices)
	}
}

func TestReadPropertyEntriesTransposesOneBased(t *testing.T) {
	src := "1 2 0.5 0.25\n3 4 -1.0\n"
	entries, err := artifact.ReadPropertyEntries(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadPropertyEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// (i=1,j=2) 1-based transposed -> (I=1,J=0) 0-based.
	if entries[0].I != 1 || entries[0].J != 0 {
		t.Fatalf("got (I,J)=(%d,%d), want (1,0)", entries[0].I, entries[0].J)
	}
	if entries[0].Value != complex(0.5, 0.25) {
		t.Fatalf("got value %v", entries[0].Value)
	}
}

func TestMVCOEFFileRoundTrip(t *testing.T) {
	f := &artifact.MVCOEFFile{
		Blocks: []artifact.MVCOEFBlock{
			{
				RepName: "A1",
				Dim:     2,
				NRoots:  1,
				Dets: []artifact.MVDet{
					{Indices: []int{0, 2}, Irrep: 0},
					{Indices: []int{1, 3}, Irrep: 0},
				},
				EigVals: []complex128{-0.5},
				Right:   []complex128{1, 0},
				Left:    []complex128{1, 0},
			},
		},
		GroundEigval: -0.5,
	}
	var buf bytes.Buffer
	if err := artifact.WriteMVCOEFFile(&buf, f, 2); err != nil {
		t.Fatalf("WriteMVCOEFFile: %v", err)
	}
	got, err := artifact.ReadMVCOEFFile(&buf, 2)
	if err != nil {
		t.Fatalf("ReadMVCOEFFile: %v", err)
	}
	if len(got.Blocks) != 1 || got.Blocks[0].RepName != "A1" {
		t.Fatalf("got %+v", got)
	}
	if got.Blocks[0].EigVals[0] != complex(-0.5, 0) {
		t.Fatalf("got eigval %v, want -0.5", got.Blocks[0].EigVals[0])
	}
	if got.GroundEigval != -0.5 {
		t.Fatalf("got ground eigenvalue %v, want -0.5", got.GroundEigval)
	}
}

func TestPeekDiagramFileReadsHeader(t *testing.T) {
	// Build a minimal header in the same layout dpd.Diagram.Write emits
	// (magic, int64 id, uint32-len-prefixed name, int32 rank, ...).
	var buf bytes.Buffer
	buf.Write([]byte{0x79, 0x65, 0x6c, 0x6f}) // magic, little-endian 0x6f6c6579
	buf.Write([]byte{7, 0, 0, 0, 0, 0, 0, 0})  // id = 7 (int64 LE)
	name := []byte("T2")
	buf.Write([]byte{byte(len(name)), 0, 0, 0}) // uint32 name length
	buf.Write(name)
	buf.Write([]byte{4, 0, 0, 0}) // rank = 4 (int32 LE)

	df, err := artifact.PeekDiagramFile(&buf)
	if err != nil {
		t.Fatalf("PeekDiagramFile: %v", err)
	}
	if df.ID != 7 || df.Name != "T2" || df.Rank != 4 {
		t.Fatalf("got %+v, want {7 T2 4}", df)
	}
}
