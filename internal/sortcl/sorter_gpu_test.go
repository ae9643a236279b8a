//go:build gpu

package sortcl

import (
	"math/rand"
	"sort"
	"testing"
)

func TestOpenCLSorterMatchesReferenceOnRandomInput(t *testing.T) {
	rt, err := InitOpenCL()
	if err != nil {
		t.Skipf("GPU backend unavailable: %v", err)
	}
	defer rt.Close()

	sorter, err := New(rt)
	if err != nil {
		t.Skipf("GPU backend unavailable: %v", err)
	}
	defer sorter.Close()

	const n = 3841 // not a multiple of the scatter block size, exercises the padding tail

	rng := rand.New(rand.NewSource(1))
	keys := make([]float32, n)
	for i := range keys {
		keys[i] = rng.Float32() * 1000
	}

	scratch, err := sorter.CreateInternalMemBuffer(n)
	if err != nil {
		t.Fatalf("CreateInternalMemBuffer: %v", err)
	}
	defer scratch.Release()

	kv, err := sorter.CreateKeyvalBuffers(n)
	if err != nil {
		t.Fatalf("CreateKeyvalBuffers: %v", err)
	}
	defer kv.Release()

	bg, err := sorter.CreateBindGroup(n, scratch, kv)
	if err != nil {
		t.Fatalf("CreateBindGroup: %v", err)
	}
	defer bg.Release()

	if err := sorter.UploadKeys(kv.A, keys); err != nil {
		t.Fatalf("UploadKeys: %v", err)
	}

	enc := NewEncoder()
	if err := sorter.RecordSort(bg, n, enc); err != nil {
		t.Fatalf("RecordSort: %v", err)
	}
	if err := enc.Submit(rt); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := sorter.DownloadKeys(kv.A, n)
	if err != nil {
		t.Fatalf("DownloadKeys: %v", err)
	}

	for i := 1; i < n; i++ {
		if got[i] < got[i-1] {
			t.Fatalf("output not ascending at index %d: %f then %f", i, got[i-1], got[i])
		}
	}

	want := append([]float32(nil), keys...)
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mismatch at index %d: got %f want %f", i, got[i], want[i])
		}
	}
}

func TestOpenCLSorterRejectsWrongPassCount(t *testing.T) {
	rt, err := InitOpenCL()
	if err != nil {
		t.Skipf("GPU backend unavailable: %v", err)
	}
	defer rt.Close()

	sorter, err := New(rt)
	if err != nil {
		t.Skipf("GPU backend unavailable: %v", err)
	}
	defer sorter.Close()

	scratch, err := sorter.CreateInternalMemBuffer(64)
	if err != nil {
		t.Fatalf("CreateInternalMemBuffer: %v", err)
	}
	defer scratch.Release()

	kv, err := sorter.CreateKeyvalBuffers(64)
	if err != nil {
		t.Fatalf("CreateKeyvalBuffers: %v", err)
	}
	defer kv.Release()

	bg, err := sorter.CreateBindGroup(64, scratch, kv)
	if err != nil {
		t.Fatalf("CreateBindGroup: %v", err)
	}
	defer bg.Release()

	enc := NewEncoder()
	if err := sorter.RecordPrefixHistogram(bg, 3, enc); err == nil {
		t.Fatalf("RecordPrefixHistogram with passes=3 should fail")
	}
	if err := sorter.RecordScatterKeys(bg, 3, 64, enc); err == nil {
		t.Fatalf("RecordScatterKeys with passes=3 should fail")
	}
}
