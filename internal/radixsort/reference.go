package radixsort

import "math"

// ReferenceSort is a pure-Go, four-pass 8-bit LSD radix sort over the
// bit patterns of non-negative float32 keys, with a parallel uint32
// payload carried alongside each key. It implements the exact algorithm
// the GPU kernels in shader.go perform (same digit width, same pass
// count, same key/value coherence contract) and serves two purposes:
//
//   - a test oracle for the sortedness/permutation/key-value-coherence
//     properties that does not require a GPU;
//   - the CPU path a caller can fall back to when internal/sortcl
//     reports no usable device.
//
// Keys must be non-negative (no IEEE-754 total-ordering bias is
// applied), stability is not part of its contract (the GPU kernels do
// not preserve the order of equal keys), and it never touches values beyond
// the first n entries of each slice.
func ReferenceSort(keys []float32, values []uint32) {
	n := len(keys)
	if n != len(values) {
		panic("radixsort: ReferenceSort requires equal-length keys and values")
	}
	if n < 2 {
		return
	}

	bits := make([]uint32, n)
	for i, k := range keys {
		bits[i] = math.Float32bits(k)
	}

	bitsTmp := make([]uint32, n)
	valsTmp := make([]uint32, n)

	src, dst := bits, bitsTmp
	vsrc, vdst := values, valsTmp

	var histo [RadixSize]int
	for pass := 0; pass < Passes; pass++ {
		for i := range histo {
			histo[i] = 0
		}
		shift := uint(pass * RadixLog2)
		for i := 0; i < n; i++ {
			digit := (src[i] >> shift) & (RadixSize - 1)
			histo[digit]++
		}

		sum := 0
		for i := 0; i < RadixSize; i++ {
			c := histo[i]
			histo[i] = sum
			sum += c
		}

		for i := 0; i < n; i++ {
			digit := (src[i] >> shift) & (RadixSize - 1)
			pos := histo[digit]
			histo[digit]++
			dst[pos] = src[i]
			vdst[pos] = vsrc[i]
		}

		src, dst = dst, src
		vsrc, vdst = vdst, vsrc
	}

	// Passes is even, so src/vsrc now alias the original bits/values
	// backing arrays; copy the final bit patterns back as floats.
	for i := 0; i < n; i++ {
		keys[i] = math.Float32frombits(src[i])
		values[i] = vsrc[i]
	}
}
