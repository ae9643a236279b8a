package radixsort

// Sizes holds the padded block counts derived from a key count. It is
// a pure function of keysize and the fixed radix shape constants above:
// every workgroup must see a full block, so counts are rounded up to
// the next multiple of the relevant block size.
type Sizes struct {
	ScatterBlockKVs  int // keyvals a single scatter workgroup consumes
	ScatterBlocksRU  int // scatter workgroups needed, rounded up
	CountRuScatter   int // keysize rounded up to a whole number of scatter blocks
	HistoBlockKVs    int // keyvals a single histogram workgroup consumes
	HistoBlocksRU    int // histogram workgroups needed, rounded up
	CountRuHisto     int // count_ru_scatter rounded up to a whole number of histogram blocks
}

// ComputeSizes derives every padded size from keysize. It is total for
// any keysize >= 1.
//
// histo_block_kvs always equals scatter_block_kvs under the invariant
// HistogramBlockRows == ScatterBlockRows, so CountRuHisto == CountRuScatter
// in practice; the extra rounding step is kept (rather than collapsed)
// because it is the documented external padding contract and a future
// change to either block-row constant must not silently break it.
func ComputeSizes(keysize int) Sizes {
	if keysize < 1 {
		keysize = 1
	}

	scatterBlockKVs := HistogramWorkgroupSize * ScatterBlockRows
	scatterBlocksRU := ceilDiv(keysize, scatterBlockKVs)
	countRuScatter := scatterBlocksRU * scatterBlockKVs

	histoBlockKVs := HistogramWorkgroupSize * HistogramBlockRows
	histoBlocksRU := ceilDiv(countRuScatter, histoBlockKVs)
	countRuHisto := histoBlocksRU * histoBlockKVs

	return Sizes{
		ScatterBlockKVs: scatterBlockKVs,
		ScatterBlocksRU: scatterBlocksRU,
		CountRuScatter:  countRuScatter,
		HistoBlockKVs:   histoBlockKVs,
		HistoBlocksRU:   histoBlocksRU,
		CountRuHisto:    countRuHisto,
	}
}

// InternalBufferBytes returns the size, in bytes, of the scratch buffer
// that must back binding 1: four histograms plus one decoupled-lookback
// partition record per scatter block per pass.
func (s Sizes) InternalBufferBytes() int {
	return (KeyvalSize + s.ScatterBlocksRU - 1) * HistogramBytes
}

// KeyvalBufferBytes returns the size, in bytes, each of the two ping-pong
// keyval buffers must be allocated with.
func (s Sizes) KeyvalBufferBytes() int {
	return s.CountRuHisto * 4
}

// ZeroDispatchCount returns the number of zero_histograms workgroups to
// dispatch for a given keysize: it must clear the
// histograms, every partition record, and the keyval padding tail.
func (s Sizes) ZeroDispatchCount(keysize int) int {
	m := (KeyvalSize+s.ScatterBlocksRU-1)*RadixSize + maxInt(0, s.CountRuHisto-keysize)
	return ceilDiv(m, HistogramWorkgroupSize)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
