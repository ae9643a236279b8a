package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/cwbudde/gpuradixsort/internal/radixsort"
	"github.com/cwbudde/gpuradixsort/internal/sortcl"
	"github.com/spf13/cobra"
)

var (
	benchKeyCount  int
	benchSeed      int64
	benchVerify    bool
	benchCPUProf   string
	benchMemProf   string
)

var sortbenchCmd = &cobra.Command{
	Use:   "sortbench",
	Short: "Sort a generated array of random float32 keys on the GPU and report throughput",
	RunE:  runSortbench,
}

func init() {
	sortbenchCmd.Flags().IntVar(&benchKeyCount, "keys", 1_000_000, "Number of keys to sort")
	sortbenchCmd.Flags().Int64Var(&benchSeed, "seed", 42, "Random seed for key generation")
	sortbenchCmd.Flags().BoolVar(&benchVerify, "verify", true, "Verify the result is sorted against a CPU reference")
	sortbenchCmd.Flags().StringVar(&benchCPUProf, "cpuprofile", "", "Write CPU profile to file")
	sortbenchCmd.Flags().StringVar(&benchMemProf, "memprofile", "", "Write memory profile to file")

	rootCmd.AddCommand(sortbenchCmd)
}

func runSortbench(cmd *cobra.Command, args []string) error {
	if benchCPUProf != "" {
		f, err := os.Create(benchCPUProf)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		slog.Info("CPU profiling enabled", "output", benchCPUProf)
	}

	slog.Info("Starting sortbench", "keys", benchKeyCount, "seed", benchSeed)

	keys := generateBenchKeys(benchKeyCount, benchSeed)

	rt, err := sortcl.InitOpenCL()
	if err != nil {
		return fmt.Errorf("failed to initialize OpenCL: %w", err)
	}
	defer rt.Close()

	sorter, err := sortcl.New(rt)
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}
	defer sorter.Close()

	sizes := radixsort.ComputeSizes(len(keys))
	slog.Info("buffer sizing",
		"keys", len(keys),
		"padded_size", sizes.CountRuHisto,
		"scatter_blocks", sizes.ScatterBlocksRU,
	)

	scratch, err := sorter.CreateInternalMemBuffer(len(keys))
	if err != nil {
		return fmt.Errorf("failed to allocate scratch buffer: %w", err)
	}
	defer scratch.Release()

	kv, err := sorter.CreateKeyvalBuffers(len(keys))
	if err != nil {
		return fmt.Errorf("failed to allocate keyval buffers: %w", err)
	}
	defer kv.Release()

	bg, err := sorter.CreateBindGroup(len(keys), scratch, kv)
	if err != nil {
		return fmt.Errorf("failed to create bind group: %w", err)
	}
	defer bg.Release()

	if err := sorter.UploadKeys(kv.A, keys); err != nil {
		return fmt.Errorf("failed to upload keys: %w", err)
	}

	enc := sortcl.NewEncoder()
	if err := sorter.RecordSort(bg, len(keys), enc); err != nil {
		return fmt.Errorf("failed to record sort: %w", err)
	}

	start := time.Now()
	if err := enc.Submit(rt); err != nil {
		return fmt.Errorf("failed to submit sort: %w", err)
	}
	elapsed := time.Since(start)

	sorted, err := sorter.DownloadKeys(kv.A, len(keys))
	if err != nil {
		return fmt.Errorf("failed to download keys: %w", err)
	}

	kps := float64(len(keys)) / elapsed.Seconds()

	if benchVerify {
		reference := make([]float32, len(keys))
		copy(reference, keys)
		sort.Slice(reference, func(i, j int) bool { return reference[i] < reference[j] })

		for i := range reference {
			if sorted[i] != reference[i] {
				return fmt.Errorf("mismatch at index %d: got %f, want %f", i, sorted[i], reference[i])
			}
		}
	}

	slog.Info("sortbench complete",
		"keys", len(keys),
		"subgroup_width", sorter.SubgroupWidth(),
		"elapsed", elapsed,
		"keys_per_second", fmt.Sprintf("%.0f", kps),
	)
	fmt.Printf("Sorted %d keys in %s (%.0f keys/sec), subgroup width %d\n",
		len(keys), elapsed, kps, sorter.SubgroupWidth())

	if benchMemProf != "" {
		f, err := os.Create(benchMemProf)
		if err != nil {
			return fmt.Errorf("failed to create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
		slog.Info("Memory profile written", "output", benchMemProf)
	}

	return nil
}

// generateBenchKeys produces deterministic non-negative float32 keys for a
// given seed, matching the key distribution the job-service worker uses.
func generateBenchKeys(n int, seed int64) []float32 {
	r := rand.New(rand.NewSource(seed))
	keys := make([]float32, n)
	for i := range keys {
		keys[i] = r.Float32() * 1e6
	}
	return keys
}
