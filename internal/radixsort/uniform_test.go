package radixsort

import (
	"encoding/binary"
	"testing"
)

func TestGeneralInfoMarshalBinaryLayout(t *testing.T) {
	sizes := ComputeSizes(512)
	info := NewGeneralInfo(512, sizes)

	buf, err := info.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(buf) != GeneralInfoSize {
		t.Fatalf("len(buf) = %d, want %d", len(buf), GeneralInfoSize)
	}

	if got := binary.LittleEndian.Uint32(buf[0:4]); got != 0 {
		t.Fatalf("histogram_size = %d, want 0", got)
	}
	if got := binary.LittleEndian.Uint32(buf[4:8]); got != 512 {
		t.Fatalf("keys_size = %d, want 512", got)
	}
	if got := binary.LittleEndian.Uint32(buf[8:12]); got != uint32(sizes.CountRuHisto) {
		t.Fatalf("padded_size = %d, want %d", got, sizes.CountRuHisto)
	}
	if got := binary.LittleEndian.Uint32(buf[12:16]); got != 4 {
		t.Fatalf("passes = %d, want 4", got)
	}
	if got := binary.LittleEndian.Uint32(buf[16:20]); got != 0 {
		t.Fatalf("even_pass = %d, want 0", got)
	}
	if got := binary.LittleEndian.Uint32(buf[20:24]); got != 1 {
		t.Fatalf("odd_pass = %d, want 1", got)
	}
}

func TestGeneralInfoHistogramSizeAlwaysZero(t *testing.T) {
	info := NewGeneralInfo(3841, ComputeSizes(3841))
	if info.HistogramSize != 0 {
		t.Fatalf("HistogramSize = %d, want 0", info.HistogramSize)
	}
}
