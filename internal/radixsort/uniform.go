package radixsort

import "encoding/binary"

// GeneralInfoSize is the exact byte size of the GeneralInfo uniform
// record: six little-endian uint32 fields, naturally aligned, no padding.
const GeneralInfoSize = 24

// GeneralInfo is the per-sort uniform record shared with the kernel
// source. Field order and width are load-bearing: the shader reads this
// layout byte-for-byte. It is a fixed-layout Go struct marshaled by
// explicit byte-order writes rather than reinterpreting a raw pointer,
// so there is no unchecked aliasing between host and device memory.
type GeneralInfo struct {
	// HistogramSize is unused by the core and must always be zero.
	HistogramSize uint32
	KeysSize      uint32
	PaddedSize    uint32
	Passes        uint32
	EvenPass      uint32
	OddPass       uint32
}

// NewGeneralInfo builds the uniform record for a sort of keysize keys
// padded to sizes.CountRuHisto.
//
// EvenPass starts at 0 and OddPass at 1: the scatter kernels atomically
// fetch-add 2 to their respective counter on every dispatch to claim the
// next digit number (0, then 2 for scatter_even; 1, then 3 for
// scatter_odd), so the host never rewrites these fields between the four
// scatter dispatches.
func NewGeneralInfo(keysize int, sizes Sizes) GeneralInfo {
	return GeneralInfo{
		HistogramSize: 0,
		KeysSize:      uint32(keysize),
		PaddedSize:    uint32(sizes.CountRuHisto),
		Passes:        Passes,
		EvenPass:      0,
		OddPass:       1,
	}
}

// MarshalBinary encodes the uniform record as 24 bytes, little-endian,
// in declaration order, ready for upload to binding 0.
func (g GeneralInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, GeneralInfoSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.HistogramSize)
	binary.LittleEndian.PutUint32(buf[4:8], g.KeysSize)
	binary.LittleEndian.PutUint32(buf[8:12], g.PaddedSize)
	binary.LittleEndian.PutUint32(buf[12:16], g.Passes)
	binary.LittleEndian.PutUint32(buf[16:20], g.EvenPass)
	binary.LittleEndian.PutUint32(buf[20:24], g.OddPass)
	return buf, nil
}
