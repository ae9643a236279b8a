// Package radixsort implements the host-side, device-agnostic parts of a
// four-pass, 8-bit-radix LSD sorter for key/value pairs of 32-bit floats
// and 32-bit payloads: size calculation, buffer layout, shader
// specialization, the uniform record, and subgroup-width self-calibration.
//
// The actual compute dispatch lives in internal/sortcl, which is built
// against a real OpenCL device under the "gpu" build tag. Everything in
// this package is plain Go so it can be exercised without a GPU present.
package radixsort

// Radix shape. DO NOT CHANGE independently of the shader: the scatter
// kernel assumes histogram and scatter block rows are equal.
const (
	RadixLog2  = 8
	RadixSize  = 1 << RadixLog2 // 256
	KeyvalSize = 32 / RadixLog2 // 4 passes for a 32-bit key

	HistogramBlockRows = 15
	ScatterBlockRows   = HistogramBlockRows

	HistogramWorkgroupSize = 256
	PrefixWorkgroupSize    = 128
	ScatterWorkgroupSize   = 256

	// Passes is hard-coded: four 8-bit digit passes cover a 32-bit key.
	// Four is even, so the final result always lands back in keyval buffer A.
	Passes = 4
)

// SubgroupWidthCandidates is the calibration ladder probed by Calibrate,
// in ascending order. The self-calibrator starts at index 2 (width 32)
// and climbs or descends from there; see Calibrate.
var SubgroupWidthCandidates = []int{1, 16, 32, 64, 128}

// startCandidateIndex is where the Init state begins probing.
const startCandidateIndex = 2

// HistogramBytes is the byte size of a single 256-entry uint32 histogram.
const HistogramBytes = RadixSize * 4
