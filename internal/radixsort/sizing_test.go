package radixsort

import "testing"

func TestComputeSizesPadsToFullBlocks(t *testing.T) {
	cases := []struct {
		keysize  int
		wantRuSc int
	}{
		{1, 3840},
		{2, 3840},
		{15, 3840},
		{256, 3840},
		{512, 3840},
		{3840, 3840},
		{3841, 7680},
		{1_000_003, 1_002_240}, // ceil(1000003/3840) * 3840
	}

	for _, c := range cases {
		s := ComputeSizes(c.keysize)

		if s.CountRuScatter%s.ScatterBlockKVs != 0 {
			t.Fatalf("keysize=%d: count_ru_scatter %d is not a multiple of scatter_block_kvs %d", c.keysize, s.CountRuScatter, s.ScatterBlockKVs)
		}
		if s.CountRuScatter != c.wantRuSc {
			t.Fatalf("keysize=%d: count_ru_scatter = %d, want %d", c.keysize, s.CountRuScatter, c.wantRuSc)
		}
		if s.CountRuHisto < s.CountRuScatter {
			t.Fatalf("keysize=%d: count_ru_histo %d < count_ru_scatter %d", c.keysize, s.CountRuHisto, s.CountRuScatter)
		}
		if s.CountRuHisto < c.keysize {
			t.Fatalf("keysize=%d: count_ru_histo %d < keysize", c.keysize, s.CountRuHisto)
		}
	}
}

func TestComputeSizesCollapsedInvariant(t *testing.T) {
	// Under HistogramBlockRows == ScatterBlockRows, histo_block_kvs always
	// equals scatter_block_kvs, so the extra rounding level is vestigial
	// and count_ru_histo == count_ru_scatter always (spec Open Questions).
	for _, n := range []int{1, 15, 3839, 3840, 3841, 999_999} {
		s := ComputeSizes(n)
		if s.HistoBlockKVs != s.ScatterBlockKVs {
			t.Fatalf("n=%d: histo_block_kvs %d != scatter_block_kvs %d", n, s.HistoBlockKVs, s.ScatterBlockKVs)
		}
		if s.CountRuHisto != s.CountRuScatter {
			t.Fatalf("n=%d: count_ru_histo %d != count_ru_scatter %d", n, s.CountRuHisto, s.CountRuScatter)
		}
	}
}

func TestKeyvalBufferBytesMatchesPaddedSize(t *testing.T) {
	s := ComputeSizes(512)
	if got, want := s.KeyvalBufferBytes(), s.CountRuHisto*4; got != want {
		t.Fatalf("KeyvalBufferBytes() = %d, want %d", got, want)
	}
}

func TestInternalBufferBytesLayout(t *testing.T) {
	s := ComputeSizes(3841)
	want := (KeyvalSize + s.ScatterBlocksRU - 1) * HistogramBytes
	if got := s.InternalBufferBytes(); got != want {
		t.Fatalf("InternalBufferBytes() = %d, want %d", got, want)
	}
}

func TestZeroDispatchCoversPaddingTail(t *testing.T) {
	s := ComputeSizes(3841)
	n := 3841
	dispatch := s.ZeroDispatchCount(n)
	covered := dispatch * HistogramWorkgroupSize
	scratchDwords := (KeyvalSize + s.ScatterBlocksRU - 1) * RadixSize
	padTail := s.CountRuHisto - n
	if covered < scratchDwords+padTail {
		t.Fatalf("zero dispatch covers %d threads, need at least %d", covered, scratchDwords+padTail)
	}
}

func TestComputeSizesTotalForSmallN(t *testing.T) {
	for n := 1; n <= 16; n++ {
		s := ComputeSizes(n)
		if s.CountRuHisto <= 0 {
			t.Fatalf("n=%d: non-positive CountRuHisto", n)
		}
	}
}
