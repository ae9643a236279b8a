//go:build gpu

package sortcl

/*
#cgo LDFLAGS: -lOpenCL
#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS
#include <CL/cl.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/cwbudde/gpuradixsort/internal/radixsort"
)

const kernelEntryCount = 5

const (
	kernelZero = iota
	kernelHistogram
	kernelPrefix
	kernelScatterEven
	kernelScatterOdd
)

var kernelNames = [kernelEntryCount]string{
	kernelZero:         "zero_histograms",
	kernelHistogram:    "calculate_histogram",
	kernelPrefix:       "prefix_histogram",
	kernelScatterEven:  "scatter_even",
	kernelScatterOdd:   "scatter_odd",
}

// Sorter owns the compiled pipelines and chosen subgroup width for one
// device ("Sorter" entity). It is immutable after
// construction and safe to share for read-only dispatch across threads
// so long as callers serialize recording against any one encoder
//.
type Sorter struct {
	rt            *Runtime
	program       C.cl_program
	kernels       [kernelEntryCount]C.cl_kernel
	subgroupWidth int
}

// New builds a Sorter against rt, self-calibrating the subgroup width
//. It logs the chosen width on success.
func New(rt *Runtime) (*Sorter, error) {
	width, err := radixsort.Calibrate(func(w int) bool {
		s, buildErr := newWithSubgroupWidth(rt, w)
		if buildErr != nil {
			return false
		}
		defer s.release()
		return s.correctnessProbe()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", radixsort.ErrDeviceProbeFailed, err)
	}

	s, err := newWithSubgroupWidth(rt, width)
	if err != nil {
		return nil, err
	}

	slog.Info("radixsort: calibrated OpenCL sorter",
		"subgroup_width", width,
		"device", rt.Device.Name,
		"vendor", rt.Device.Vendor,
	)

	return s, nil
}

func newWithSubgroupWidth(rt *Runtime, width int) (*Sorter, error) {
	// The probe sort always runs at N=512; build the shader source
	// specialized for that size, since scatter_blocks_ru is baked into
	// SCATTER_BLOCKS_RU at compile time.
	sizes := radixsort.ComputeSizes(512)
	source := radixsort.BuildSource(width, sizes)
	if err := radixsort.ValidateSource(source); err != nil {
		return nil, err
	}

	cSource := C.CString(source)
	defer C.free(unsafe.Pointer(cSource))

	var status C.cl_int
	program := C.clCreateProgramWithSource(rt.context, 1, &cSource, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateProgramWithSource", status)
	}

	status = C.clBuildProgram(program, 1, &rt.deviceID, nil, nil, nil)
	if status != C.CL_SUCCESS {
		dumpBuildLog(program, rt.deviceID)
		C.clReleaseProgram(program)
		return nil, statusError("clBuildProgram", status)
	}

	s := &Sorter{rt: rt, program: program, subgroupWidth: width}

	for i, name := range kernelNames {
		cName := C.CString(name)
		kernel := C.clCreateKernel(program, cName, &status)
		C.free(unsafe.Pointer(cName))
		if status != C.CL_SUCCESS {
			s.release()
			return nil, statusError(fmt.Sprintf("clCreateKernel(%s)", name), status)
		}
		s.kernels[i] = kernel
	}

	return s, nil
}

func dumpBuildLog(program C.cl_program, device C.cl_device_id) {
	var logSize C.size_t
	if status := C.clGetProgramBuildInfo(program, device, C.CL_PROGRAM_BUILD_LOG, 0, nil, &logSize); status != C.CL_SUCCESS || logSize == 0 {
		return
	}
	buf := make([]byte, int(logSize))
	if status := C.clGetProgramBuildInfo(program, device, C.CL_PROGRAM_BUILD_LOG, logSize, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return
	}
	slog.Error("radixsort: OpenCL build log", "log", string(buf))
}

func (s *Sorter) release() {
	for i, k := range s.kernels {
		if k != nil {
			C.clReleaseKernel(k)
			s.kernels[i] = nil
		}
	}
	if s.program != nil {
		C.clReleaseProgram(s.program)
		s.program = nil
	}
}

// SubgroupWidth returns the calibrated width this Sorter was built with.
func (s *Sorter) SubgroupWidth() int { return s.subgroupWidth }

// KeyvalBuffers is the ping-pong pair described in the sort protocol.
type KeyvalBuffers struct {
	A, B  C.cl_mem
	sizes radixsort.Sizes
}

// CreateKeyvalBuffers allocates the two storage+copy buffers sized for
// keysize keys.
func (s *Sorter) CreateKeyvalBuffers(keysize int) (*KeyvalBuffers, error) {
	sizes := radixsort.ComputeSizes(keysize)
	bytes := C.size_t(sizes.KeyvalBufferBytes())

	var status C.cl_int
	a := C.clCreateBuffer(s.rt.context, C.CL_MEM_READ_WRITE, bytes, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateBuffer(keyval A)", status)
	}
	b := C.clCreateBuffer(s.rt.context, C.CL_MEM_READ_WRITE, bytes, nil, &status)
	if status != C.CL_SUCCESS {
		C.clReleaseMemObject(a)
		return nil, statusError("clCreateBuffer(keyval B)", status)
	}

	return &KeyvalBuffers{A: a, B: b, sizes: sizes}, nil
}

// Release frees the underlying OpenCL buffers. Ownership is the
// caller's.
func (kv *KeyvalBuffers) Release() {
	if kv.A != nil {
		C.clReleaseMemObject(kv.A)
		kv.A = nil
	}
	if kv.B != nil {
		C.clReleaseMemObject(kv.B)
		kv.B = nil
	}
}

// InternalScratch is the opaque histogram/partition buffer.
type InternalScratch struct {
	mem C.cl_mem
}

// CreateInternalMemBuffer allocates the scratch buffer sized for
// keysize keys.
func (s *Sorter) CreateInternalMemBuffer(keysize int) (*InternalScratch, error) {
	sizes := radixsort.ComputeSizes(keysize)
	bytes := C.size_t(sizes.InternalBufferBytes())

	var status C.cl_int
	mem := C.clCreateBuffer(s.rt.context, C.CL_MEM_READ_WRITE, bytes, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateBuffer(internal scratch)", status)
	}
	return &InternalScratch{mem: mem}, nil
}

// Release frees the scratch buffer.
func (is *InternalScratch) Release() {
	if is.mem != nil {
		C.clReleaseMemObject(is.mem)
		is.mem = nil
	}
}

// BindGroup binds the uniform, scratch and keyval resources to fixed
// slots; OpenCL has no descriptor-set object of its own, so this simply
// remembers the
// cl_mem handles and rewrites them onto each kernel's args when a pass
// is recorded.
type BindGroup struct {
	uniform C.cl_mem
	scratch *InternalScratch
	kv      *KeyvalBuffers
	keysize int
	sizes   radixsort.Sizes
}

// CreateBindGroup validates buffer sizing and uploads the GeneralInfo
// uniform.
func (s *Sorter) CreateBindGroup(keysize int, scratch *InternalScratch, kv *KeyvalBuffers) (*BindGroup, error) {
	sizes := radixsort.ComputeSizes(keysize)
	want := C.size_t(sizes.KeyvalBufferBytes())
	if clBufferSize(kv.A) != want || clBufferSize(kv.B) != want {
		return nil, fmt.Errorf("%w: keyval buffers are not padded correctly for keysize %d; create them with Sorter.CreateKeyvalBuffers", radixsort.ErrConfiguration, keysize)
	}

	info := radixsort.NewGeneralInfo(keysize, sizes)
	payload, _ := info.MarshalBinary()

	var status C.cl_int
	uniform := C.clCreateBuffer(s.rt.context, C.CL_MEM_READ_WRITE, C.size_t(len(payload)), nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateBuffer(uniform)", status)
	}
	status = C.clEnqueueWriteBuffer(s.rt.queue, uniform, C.CL_TRUE, 0, C.size_t(len(payload)), unsafe.Pointer(&payload[0]), 0, nil, nil)
	if status != C.CL_SUCCESS {
		C.clReleaseMemObject(uniform)
		return nil, statusError("clEnqueueWriteBuffer(uniform)", status)
	}

	return &BindGroup{uniform: uniform, scratch: scratch, kv: kv, keysize: keysize, sizes: sizes}, nil
}

// Release frees the uniform buffer owned by the bind group. Scratch and
// keyval buffers are owned by the caller and are not touched.
func (bg *BindGroup) Release() {
	if bg.uniform != nil {
		C.clReleaseMemObject(bg.uniform)
		bg.uniform = nil
	}
}

func clBufferSize(mem C.cl_mem) C.size_t {
	var size C.size_t
	C.clGetMemObjectInfo(mem, C.CL_MEM_SIZE, C.size_t(unsafe.Sizeof(size)), unsafe.Pointer(&size), nil)
	return size
}

// Encoder buffers a sequence of dispatches without submitting them,
// mirroring a command-encoder model: recording is non-blocking and
// only Submit touches the device queue.
type Encoder struct {
	ops []func(queue C.cl_command_queue) error
}

// NewEncoder returns an empty encoder ready to record a sort.
func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) append(op func(queue C.cl_command_queue) error) {
	e.ops = append(e.ops, op)
}

// Submit runs every recorded dispatch in order on rt's queue and blocks
// until the device is idle.
func (e *Encoder) Submit(rt *Runtime) error {
	for _, op := range e.ops {
		if err := op(rt.queue); err != nil {
			return err
		}
	}
	if status := C.clFinish(rt.queue); status != C.CL_SUCCESS {
		return statusError("clFinish", status)
	}
	return nil
}

func dispatch1D(queue C.cl_command_queue, kernel C.cl_kernel, globalSize int, label string) error {
	global := C.size_t(globalSize)
	status := C.clEnqueueNDRangeKernel(queue, kernel, 1, nil, &global, nil, 0, nil, nil)
	if status != C.CL_SUCCESS {
		return statusError("clEnqueueNDRangeKernel("+label+")", status)
	}
	return nil
}

func setArg(kernel C.cl_kernel, index C.cl_uint, mem C.cl_mem) error {
	status := C.clSetKernelArg(kernel, index, C.size_t(unsafe.Sizeof(mem)), unsafe.Pointer(&mem))
	if status != C.CL_SUCCESS {
		return statusError(fmt.Sprintf("clSetKernelArg(%d)", index), status)
	}
	return nil
}

// RecordCalculateHistogram appends zero_histograms followed by
// calculate_histogram, grouping the two under one host-facing call.
func (s *Sorter) RecordCalculateHistogram(bg *BindGroup, keysize int, enc *Encoder) error {
	sizes := bg.sizes

	zero := s.kernels[kernelZero]
	if err := setArg(zero, 0, bg.scratch.mem); err != nil {
		return err
	}
	if err := setArg(zero, 1, bg.kv.A); err != nil {
		return err
	}
	if err := setArg(zero, 2, bg.uniform); err != nil {
		return err
	}
	zeroDispatch := sizes.ZeroDispatchCount(keysize)
	enc.append(func(q C.cl_command_queue) error {
		return dispatch1D(q, zero, zeroDispatch*radixsort.HistogramWorkgroupSize, "zero_histograms")
	})

	histo := s.kernels[kernelHistogram]
	if err := setArg(histo, 0, bg.kv.A); err != nil {
		return err
	}
	if err := setArg(histo, 1, bg.scratch.mem); err != nil {
		return err
	}
	if err := setArg(histo, 2, bg.uniform); err != nil {
		return err
	}
	enc.append(func(q C.cl_command_queue) error {
		return dispatch1D(q, histo, sizes.HistoBlocksRU*radixsort.HistogramWorkgroupSize, "calculate_histogram")
	})

	return nil
}

// RecordPrefixHistogram appends the prefix-scan dispatch.
// passes must be 4: the amount of digit passes is hard-coded in the shader.
func (s *Sorter) RecordPrefixHistogram(bg *BindGroup, passes int, enc *Encoder) error {
	if passes != radixsort.Passes {
		return fmt.Errorf("%w: passes must be %d, got %d", radixsort.ErrConfiguration, radixsort.Passes, passes)
	}

	prefix := s.kernels[kernelPrefix]
	if err := setArg(prefix, 0, bg.scratch.mem); err != nil {
		return err
	}
	if err := setArg(prefix, 1, bg.uniform); err != nil {
		return err
	}
	enc.append(func(q C.cl_command_queue) error {
		return dispatch1D(q, prefix, passes*radixsort.PrefixWorkgroupSize, "prefix_histogram")
	})
	return nil
}

// RecordScatterKeys appends the four scatter dispatches, alternating
// scatter_even/scatter_odd. passes must be 4.
func (s *Sorter) RecordScatterKeys(bg *BindGroup, passes int, keysize int, enc *Encoder) error {
	if passes != radixsort.Passes {
		return fmt.Errorf("%w: passes must be %d, got %d", radixsort.ErrConfiguration, radixsort.Passes, passes)
	}

	evenK := s.kernels[kernelScatterEven]
	oddK := s.kernels[kernelScatterOdd]

	bind := func(k C.cl_kernel, src, dst C.cl_mem) error {
		if err := setArg(k, 0, src); err != nil {
			return err
		}
		if err := setArg(k, 1, dst); err != nil {
			return err
		}
		if err := setArg(k, 2, bg.scratch.mem); err != nil {
			return err
		}
		return setArg(k, 3, bg.uniform)
	}

	if err := bind(evenK, bg.kv.A, bg.kv.B); err != nil {
		return err
	}
	if err := bind(oddK, bg.kv.B, bg.kv.A); err != nil {
		return err
	}

	globalSize := bg.sizes.ScatterBlocksRU * radixsort.ScatterWorkgroupSize
	order := []struct {
		kernel C.cl_kernel
		label  string
	}{
		{evenK, "scatter_even"},
		{oddK, "scatter_odd"},
		{evenK, "scatter_even"},
		{oddK, "scatter_odd"},
	}
	for _, step := range order {
		k, label := step.kernel, step.label
		enc.append(func(q C.cl_command_queue) error {
			return dispatch1D(q, k, globalSize, label)
		})
	}
	return nil
}

// RecordSort appends a full sort: calculate_histogram (incl. zero),
// prefix_histogram, then the four scatter dispatches.
func (s *Sorter) RecordSort(bg *BindGroup, keysize int, enc *Encoder) error {
	if err := s.RecordCalculateHistogram(bg, keysize, enc); err != nil {
		return err
	}
	if err := s.RecordPrefixHistogram(bg, radixsort.Passes, enc); err != nil {
		return err
	}
	return s.RecordScatterKeys(bg, radixsort.Passes, keysize, enc)
}

// UploadKeys writes keys into buf, the start of a sort. The core binds
// one float32 stream per keyval buffer; payload/value buffers are an
// extension this package does not implement.
func (s *Sorter) UploadKeys(buf C.cl_mem, keys []float32) error {
	if len(keys) == 0 {
		return nil
	}
	bytes := C.size_t(len(keys) * 4)
	status := C.clEnqueueWriteBuffer(s.rt.queue, buf, C.CL_TRUE, 0, bytes, unsafe.Pointer(&keys[0]), 0, nil, nil)
	if status != C.CL_SUCCESS {
		return statusError("clEnqueueWriteBuffer(keys)", status)
	}
	return nil
}

// DownloadKeys reads n float32s back from buf.
func (s *Sorter) DownloadKeys(buf C.cl_mem, n int) ([]float32, error) {
	out := make([]float32, n)
	if n == 0 {
		return out, nil
	}
	bytes := C.size_t(n * 4)
	status := C.clEnqueueReadBuffer(s.rt.queue, buf, C.CL_TRUE, 0, bytes, unsafe.Pointer(&out[0]), 0, nil, nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clEnqueueReadBuffer(keys)", status)
	}
	return out, nil
}

// correctnessProbe sorts a known reverse-ordered permutation of 512
// keys and checks the result is ascending.
func (s *Sorter) correctnessProbe() bool {
	const n = 512

	scratch, err := s.CreateInternalMemBuffer(n)
	if err != nil {
		return false
	}
	defer scratch.Release()

	kv, err := s.CreateKeyvalBuffers(n)
	if err != nil {
		return false
	}
	defer kv.Release()

	bg, err := s.CreateBindGroup(n, scratch, kv)
	if err != nil {
		return false
	}
	defer bg.Release()

	input := make([]float32, n)
	for i := range input {
		input[i] = float32(n - 1 - i)
	}
	if err := s.UploadKeys(kv.A, input); err != nil {
		return false
	}

	enc := NewEncoder()
	if err := s.RecordSort(bg, n, enc); err != nil {
		return false
	}
	if err := enc.Submit(s.rt); err != nil {
		return false
	}

	out, err := s.DownloadKeys(kv.A, n)
	if err != nil {
		return false
	}
	for i := 0; i < n; i++ {
		if out[i] != float32(i) {
			return false
		}
	}
	return true
}

// Close releases the Sorter's pipelines and program.
func (s *Sorter) Close() {
	if s == nil {
		return
	}
	s.release()
}
