package radixsort

import (
	"fmt"
	"strings"
)

// kernelSource is the raw OpenCL C kernel module exporting the five
// entry points of the sort pipeline. It references a handful of symbols
// that are not legal top-level OpenCL declarations by themselves
// (SUBGROUP_SIZE, the three workgroup sizes, the radix shape, and the
// three sweep offsets) -- BuildSource prefixes this text with #define
// directives for all of them before a program is compiled from it. This
// string-concatenation approach to shader-constant injection is kept
// deliberately simple, provided the injected names are enumerated in
// one place and checked against what the shader declares.
const kernelSource = `
// Histogram/partition-record layout within the scratch buffer (binding 1):
//   [0, 4*RADIX_SIZE)                         four 256-entry histograms
//   [4*RADIX_SIZE, (KEYVAL_SIZE+blocks-1)*H)  decoupled-lookback partitions
//
// STATUS_INVALID/AGGREGATE/PREFIX encode the classic single-pass scan
// lookback protocol: a scatter block publishes its local digit counts as
// soon as it has them (AGGREGATE), then upgrades to PREFIX once it knows
// its true global base, so later blocks never have to wait on a global
// barrier to find their offset.
#define STATUS_INVALID   0u
#define STATUS_AGGREGATE 1u
#define STATUS_PREFIX    2u

typedef struct {
    uint histogram_size;
    uint keys_size;
    uint padded_size;
    uint passes;
    uint even_pass;
    uint odd_pass;
} GeneralInfo_t;

__kernel void zero_histograms(
    __global uint *scratch,
    __global float *keyval_a,
    __global GeneralInfo_t *info)
{
    uint gid = get_global_id(0);
    uint scratch_dwords = (KEYVAL_SIZE + SCATTER_BLOCKS_RU - 1u) * RADIX_SIZE;
    if (gid < scratch_dwords) {
        scratch[gid] = 0u;
    }
    uint pad_start = info->keys_size;
    uint pad_idx = pad_start + (gid - scratch_dwords);
    if (gid >= scratch_dwords && pad_idx < info->padded_size) {
        keyval_a[pad_idx] = FLT_MAX_KEY;
    }
}

__kernel void calculate_histogram(
    __global const float *keyval_a,
    __global uint *scratch,
    __global GeneralInfo_t *info)
{
    __local uint local_histo[PASSES][RADIX_SIZE];
    for (uint p = 0u; p < PASSES; ++p) {
        for (uint b = get_local_id(0); b < RADIX_SIZE; b += HISTOGRAM_WG_SIZE) {
            local_histo[p][b] = 0u;
        }
    }
    barrier(CLK_LOCAL_MEM_FENCE);

    uint block = get_group_id(0);
    uint base = block * HISTOGRAM_BLOCK_KVS + get_local_id(0) * HISTOGRAM_BLOCK_ROWS;
    for (uint row = 0u; row < HISTOGRAM_BLOCK_ROWS; ++row) {
        uint idx = base + row;
        if (idx < info->keys_size) {
            uint bits = as_uint(keyval_a[idx]);
            for (uint p = 0u; p < PASSES; ++p) {
                uint digit = (bits >> (p * RADIX_LOG2)) & (RADIX_SIZE - 1u);
                atomic_inc(&local_histo[p][digit]);
            }
        }
    }
    barrier(CLK_LOCAL_MEM_FENCE);

    for (uint p = 0u; p < PASSES; ++p) {
        for (uint b = get_local_id(0); b < RADIX_SIZE; b += HISTOGRAM_WG_SIZE) {
            uint count = local_histo[p][b];
            if (count != 0u) {
                atomic_add(&scratch[p * RADIX_SIZE + b], count);
            }
        }
    }
}

__kernel void prefix_histogram(
    __global uint *scratch,
    __global GeneralInfo_t *info)
{
    uint pass = get_group_id(0);
    __local uint vals[RADIX_SIZE];
    uint lid = get_local_id(0);
    for (uint b = lid; b < RADIX_SIZE; b += PREFIX_WG_SIZE) {
        vals[b] = scratch[pass * RADIX_SIZE + b];
    }
    barrier(CLK_LOCAL_MEM_FENCE);

    if (lid == 0u) {
        uint running = 0u;
        for (uint b = 0u; b < RADIX_SIZE; ++b) {
            uint v = vals[b];
            vals[b] = running;
            running += v;
        }
    }
    barrier(CLK_LOCAL_MEM_FENCE);

    for (uint b = lid; b < RADIX_SIZE; b += PREFIX_WG_SIZE) {
        scratch[pass * RADIX_SIZE + b] = vals[b];
    }
}

// scatter_pass moves keyvals from src to dst for one 8-bit digit of
// pass, using the block's published partition record to find its
// global write offset without a device-wide barrier (decoupled lookback).
inline void scatter_pass(
    uint pass,
    __global const float *src,
    __global float *dst,
    __global uint *scratch,
    __global GeneralInfo_t *info)
{
    uint block = get_group_id(0);
    __local uint local_histo[RADIX_SIZE];
    __local uint local_base[RADIX_SIZE];
    uint lid = get_local_id(0);

    for (uint b = lid; b < RADIX_SIZE; b += SCATTER_WG_SIZE) {
        local_histo[b] = 0u;
    }
    barrier(CLK_LOCAL_MEM_FENCE);

    uint base = block * SCATTER_BLOCK_KVS + lid * SCATTER_BLOCK_ROWS;
    uint digits[SCATTER_BLOCK_ROWS];
    for (uint row = 0u; row < SCATTER_BLOCK_ROWS; ++row) {
        uint idx = base + row;
        if (idx < info->padded_size) {
            uint bits = as_uint(src[idx]);
            uint digit = (bits >> (pass * RADIX_LOG2)) & (RADIX_SIZE - 1u);
            digits[row] = digit;
            atomic_inc(&local_histo[digit]);
        } else {
            digits[row] = RADIX_SIZE;
        }
    }
    barrier(CLK_LOCAL_MEM_FENCE);

    __global uint *partitions = scratch + PASSES * RADIX_SIZE + block * RADIX_SIZE;
    for (uint b = lid; b < RADIX_SIZE; b += SCATTER_WG_SIZE) {
        partitions[b] = (local_histo[b] << 2) | STATUS_AGGREGATE;
    }
    mem_fence(CLK_GLOBAL_MEM_FENCE);

    for (uint b = lid; b < RADIX_SIZE; b += SCATTER_WG_SIZE) {
        uint exclusive = 0u;
        if (block > 0u) {
            uint look = block;
            while (look > 0u) {
                look -= 1u;
                __global uint *prev = scratch + PASSES * RADIX_SIZE + look * RADIX_SIZE + b;
                uint entry;
                do {
                    entry = *prev;
                } while ((entry & 3u) == STATUS_INVALID);
                exclusive += entry >> 2;
                if ((entry & 3u) == STATUS_PREFIX) {
                    break;
                }
            }
        }
        uint digit_base = scratch[pass * RADIX_SIZE + b];
        local_base[b] = digit_base + exclusive;
        partitions[b] = ((exclusive + local_histo[b]) << 2) | STATUS_PREFIX;
    }
    barrier(CLK_LOCAL_MEM_FENCE);

    for (uint row = 0u; row < SCATTER_BLOCK_ROWS; ++row) {
        uint idx = base + row;
        if (idx < info->padded_size) {
            uint digit = digits[row];
            uint offset = atomic_inc(&local_base[digit]);
            dst[offset] = src[idx];
        }
    }
}

// even_pass/odd_pass are not rewritten by the host between dispatches
// (spec: "pass counters maintained by the shader"). Workgroup 0's first
// thread atomically claims the next digit number by fetch-adding 2 to
// the relevant counter, then broadcasts it through local memory: two
// scatter_even dispatches claim digit passes 0 and 2 in turn, two
// scatter_odd dispatches claim 1 and 3, starting from the uniform's
// initial even_pass=0/odd_pass=1.
inline uint claim_pass(__global uint *counter)
{
    __local uint shared_pass;
    if (get_local_id(0) == 0u) {
        shared_pass = atomic_add(counter, 2u);
    }
    barrier(CLK_LOCAL_MEM_FENCE);
    return shared_pass;
}

__kernel void scatter_even(
    __global const float *keyval_a,
    __global float *keyval_b,
    __global uint *scratch,
    __global GeneralInfo_t *info)
{
    uint pass = claim_pass((__global uint *)&info->even_pass);
    scatter_pass(pass, keyval_a, keyval_b, scratch, info);
}

__kernel void scatter_odd(
    __global const float *keyval_b,
    __global float *keyval_a,
    __global uint *scratch,
    __global GeneralInfo_t *info)
{
    uint pass = claim_pass((__global uint *)&info->odd_pass);
    scatter_pass(pass, keyval_b, keyval_a, scratch, info);
}
`

// injectedSymbols lists every #define the host must prepend before the
// kernel source is a legal compile unit, enumerated once here so
// BuildSource and ValidateSource can never drift apart.
var injectedSymbols = []string{
	"SUBGROUP_SIZE",
	"HISTOGRAM_WG_SIZE",
	"PREFIX_WG_SIZE",
	"SCATTER_WG_SIZE",
	"RADIX_LOG2",
	"RADIX_SIZE",
	"KEYVAL_SIZE",
	"HISTOGRAM_BLOCK_ROWS",
	"SCATTER_BLOCK_ROWS",
	"HISTOGRAM_BLOCK_KVS",
	"SCATTER_BLOCK_KVS",
	"SCATTER_BLOCKS_RU",
	"MEM_DWORDS",
	"MEM_SWEEP_0_OFFSET",
	"MEM_SWEEP_1_OFFSET",
	"MEM_SWEEP_2_OFFSET",
	"PASSES",
	"FLT_MAX_KEY",
}

// SweepOffsets holds the three scratch-memory sweep offsets derived from
// the chosen subgroup width.
type SweepOffsets struct {
	Sweep0 int
	Sweep1 int
	Sweep2 int
	Dwords int
}

// ComputeSweepOffsets derives rs_mem_sweep_{0,1,2}_offset and
// rs_mem_dwords from the subgroup width: rs_mem_dwords =
// rs_radix_size + rs_scatter_block_rows * scatter_wg_size (the
// scatter-phase footprint always dominates the histogram-phase
// footprint under these constants).
func ComputeSweepOffsets(subgroupWidth int) SweepOffsets {
	sweep0 := RadixSize / subgroupWidth
	sweep1 := sweep0 / subgroupWidth

	return SweepOffsets{
		Sweep0: 0,
		Sweep1: sweep0,
		Sweep2: sweep0 + sweep1,
		Dwords: RadixSize + ScatterBlockRows*ScatterWorkgroupSize,
	}
}

// BuildSource specializes kernelSource for a chosen subgroup width and
// key count: it prefixes typed #define constants, including the three
// workgroup sizes. The kernel text carries no {..._wg_size}
// placeholders, so no textual substitution is performed.
func BuildSource(subgroupWidth int, sizes Sizes) string {
	sweep := ComputeSweepOffsets(subgroupWidth)

	var b strings.Builder
	fmt.Fprintf(&b, "#define SUBGROUP_SIZE %du\n", subgroupWidth)
	fmt.Fprintf(&b, "#define HISTOGRAM_WG_SIZE %du\n", HistogramWorkgroupSize)
	fmt.Fprintf(&b, "#define PREFIX_WG_SIZE %du\n", PrefixWorkgroupSize)
	fmt.Fprintf(&b, "#define SCATTER_WG_SIZE %du\n", ScatterWorkgroupSize)
	fmt.Fprintf(&b, "#define RADIX_LOG2 %du\n", RadixLog2)
	fmt.Fprintf(&b, "#define RADIX_SIZE %du\n", RadixSize)
	fmt.Fprintf(&b, "#define KEYVAL_SIZE %du\n", KeyvalSize)
	fmt.Fprintf(&b, "#define HISTOGRAM_BLOCK_ROWS %du\n", HistogramBlockRows)
	fmt.Fprintf(&b, "#define SCATTER_BLOCK_ROWS %du\n", ScatterBlockRows)
	fmt.Fprintf(&b, "#define HISTOGRAM_BLOCK_KVS %du\n", sizes.HistoBlockKVs)
	fmt.Fprintf(&b, "#define SCATTER_BLOCK_KVS %du\n", sizes.ScatterBlockKVs)
	fmt.Fprintf(&b, "#define SCATTER_BLOCKS_RU %du\n", sizes.ScatterBlocksRU)
	fmt.Fprintf(&b, "#define MEM_DWORDS %du\n", sweep.Dwords)
	fmt.Fprintf(&b, "#define MEM_SWEEP_0_OFFSET %du\n", sweep.Sweep0)
	fmt.Fprintf(&b, "#define MEM_SWEEP_1_OFFSET %du\n", sweep.Sweep1)
	fmt.Fprintf(&b, "#define MEM_SWEEP_2_OFFSET %du\n", sweep.Sweep2)
	fmt.Fprintf(&b, "#define PASSES %du\n", Passes)
	// Sentinel maximum key: positive infinity's bit pattern sorts to the
	// high end of an ascending float comparison without special-casing NaN.
	b.WriteString("#define FLT_MAX_KEY INFINITY\n")
	b.WriteString(kernelSource)

	return b.String()
}

// ValidateSource asserts that every name in injectedSymbols appears as a
// #define in a specialized source string, catching the case where the
// kernel text was edited to reference a new constant that BuildSource
// never learned to inject.
func ValidateSource(source string) error {
	for _, name := range injectedSymbols {
		if !strings.Contains(source, "#define "+name+" ") {
			return fmt.Errorf("radixsort: shader source missing injected symbol %q", name)
		}
	}
	return nil
}
