//go:build gpu

package sortcl

/*
#cgo LDFLAGS: -lOpenCL
#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS
#include <CL/cl.h>

static cl_command_queue sortcl_create_queue(cl_context ctx, cl_device_id device, cl_int *status) {
#if CL_TARGET_OPENCL_VERSION >= 200
	const cl_queue_properties props[] = {0};
	return clCreateCommandQueueWithProperties(ctx, device, props, status);
#else
	return clCreateCommandQueue(ctx, device, 0, status);
#endif
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// Runtime owns the OpenCL context, device and command queue a Sorter is
// built against.
type Runtime struct {
	deviceID C.cl_device_id
	context  C.cl_context
	queue    C.cl_command_queue
	Platform PlatformInfo
	Device   DeviceInfo
}

// ErrNoDevices indicates that no usable OpenCL devices were found.
var ErrNoDevices = errors.New("no OpenCL devices found")

// devicePreference ranks device classes for automatic selection: lower
// is more preferred. A GPU is what the sort core is built for; a CPU
// device still runs the same kernels through an OpenCL CPU driver;
// anything else (accelerator, default) is a last resort.
func devicePreference(t DeviceType) int {
	switch t {
	case DeviceTypeGPU:
		return 0
	case DeviceTypeCPU:
		return 1
	default:
		return 2
	}
}

// pickDevice scans every enumerated platform once and returns the
// highest-preference device found, breaking ties in favor of whichever
// platform/device was enumerated first.
func pickDevice(records []platformRecord) (platformRecord, deviceRecord, bool) {
	var bestPlatform platformRecord
	var bestDevice deviceRecord
	bestRank := -1

	for _, platform := range records {
		for _, device := range platform.devices {
			rank := devicePreference(device.info.Type)
			if bestRank == -1 || rank < bestRank {
				bestPlatform = platform
				bestDevice = device
				bestRank = rank
			}
		}
	}

	return bestPlatform, bestDevice, bestRank != -1
}

// InitOpenCL enumerates every platform, picks the most suitable device
// per devicePreference, and creates a context and command queue for it.
func InitOpenCL() (*Runtime, error) {
	records, err := enumeratePlatformRecords()
	if err != nil {
		return nil, err
	}

	platform, device, ok := pickDevice(records)
	if !ok {
		return nil, ErrNoDevices
	}

	var status C.cl_int

	context := C.clCreateContext(nil, 1, &device.id, nil, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateContext", status)
	}

	queue := C.sortcl_create_queue(context, device.id, &status)
	if status != C.CL_SUCCESS {
		C.clReleaseContext(context)
		return nil, statusError("clCreateCommandQueue", status)
	}

	return &Runtime{
		deviceID: device.id,
		context:  context,
		queue:    queue,
		Platform: platform.info,
		Device:   device.info,
	}, nil
}

// Close releases OpenCL resources.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	if r.queue != nil {
		C.clReleaseCommandQueue(r.queue)
		r.queue = nil
	}
	if r.context != nil {
		C.clReleaseContext(r.context)
		r.context = nil
	}
}

// EnumeratePlatforms returns discovered platforms with their devices,
// for the `devices` CLI command.
func EnumeratePlatforms() ([]PlatformInfo, error) {
	records, err := enumeratePlatformRecords()
	if err != nil {
		return nil, err
	}

	out := make([]PlatformInfo, len(records))
	for i, platform := range records {
		devices := make([]DeviceInfo, len(platform.devices))
		for j, device := range platform.devices {
			devices[j] = device.info
		}
		info := platform.info
		info.Devices = devices
		out[i] = info
	}
	return out, nil
}

type platformRecord struct {
	id      C.cl_platform_id
	info    PlatformInfo
	devices []deviceRecord
}

type deviceRecord struct {
	id   C.cl_device_id
	info DeviceInfo
}

func enumeratePlatformRecords() ([]platformRecord, error) {
	var count C.cl_uint
	status := C.clGetPlatformIDs(0, nil, &count)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(count)", status)
	}
	if count == 0 {
		return nil, nil
	}

	platformIDs := make([]C.cl_platform_id, int(count))
	status = C.clGetPlatformIDs(count, &platformIDs[0], nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(list)", status)
	}

	records := make([]platformRecord, 0, int(count))
	for _, pid := range platformIDs {
		rec, err := buildPlatformRecord(pid)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func buildPlatformRecord(pid C.cl_platform_id) (platformRecord, error) {
	name, err := getPlatformString(pid, C.CL_PLATFORM_NAME)
	if err != nil {
		return platformRecord{}, err
	}
	vendor, err := getPlatformString(pid, C.CL_PLATFORM_VENDOR)
	if err != nil {
		return platformRecord{}, err
	}
	version, err := getPlatformString(pid, C.CL_PLATFORM_VERSION)
	if err != nil {
		return platformRecord{}, err
	}

	rec := platformRecord{
		id: pid,
		info: PlatformInfo{
			Name:    name,
			Vendor:  vendor,
			Version: version,
		},
	}

	devices, err := enumerateDevices(pid)
	if err != nil {
		if errors.Is(err, ErrNoDevices) {
			return rec, nil
		}
		return platformRecord{}, err
	}

	rec.devices = devices
	rec.info.Devices = make([]DeviceInfo, len(devices))
	for i, device := range devices {
		rec.info.Devices[i] = device.info
	}

	return rec, nil
}

func enumerateDevices(platform C.cl_platform_id) ([]deviceRecord, error) {
	var count C.cl_uint
	status := C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_ALL, 0, nil, &count)
	if status == C.CL_DEVICE_NOT_FOUND {
		return nil, ErrNoDevices
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(count)", status)
	}
	if count == 0 {
		return nil, ErrNoDevices
	}

	deviceIDs := make([]C.cl_device_id, int(count))
	status = C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_ALL, count, &deviceIDs[0], nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(list)", status)
	}

	devices := make([]deviceRecord, 0, int(count))
	for _, id := range deviceIDs {
		info, err := buildDeviceInfo(id)
		if err != nil {
			return nil, err
		}
		devices = append(devices, deviceRecord{id: id, info: info})
	}

	return devices, nil
}

func buildDeviceInfo(id C.cl_device_id) (DeviceInfo, error) {
	name, err := getDeviceString(id, C.CL_DEVICE_NAME)
	if err != nil {
		return DeviceInfo{}, err
	}
	vendor, err := getDeviceString(id, C.CL_DEVICE_VENDOR)
	if err != nil {
		return DeviceInfo{}, err
	}
	version, err := getDeviceString(id, C.CL_DEVICE_VERSION)
	if err != nil {
		return DeviceInfo{}, err
	}

	var rawType C.cl_device_type
	status := C.clGetDeviceInfo(id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(rawType)), unsafe.Pointer(&rawType), nil)
	if status != C.CL_SUCCESS {
		return DeviceInfo{}, statusError("clGetDeviceInfo(type)", status)
	}

	var computeUnits C.cl_uint
	status = C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(computeUnits)), unsafe.Pointer(&computeUnits), nil)
	if status != C.CL_SUCCESS {
		return DeviceInfo{}, statusError("clGetDeviceInfo(computeUnits)", status)
	}

	return DeviceInfo{
		Name:            name,
		Vendor:          vendor,
		Version:         version,
		Type:            mapDeviceType(rawType),
		MaxComputeUnits: uint32(computeUnits),
	}, nil
}

func getPlatformString(id C.cl_platform_id, param C.cl_platform_info) (string, error) {
	var size C.size_t
	status := C.clGetPlatformInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, int(size))
	status = C.clGetPlatformInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(value)", status)
	}

	return trimNull(buf), nil
}

func getDeviceString(id C.cl_device_id, param C.cl_device_info) (string, error) {
	var size C.size_t
	status := C.clGetDeviceInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, int(size))
	status = C.clGetDeviceInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(value)", status)
	}

	return trimNull(buf), nil
}

func trimNull(buf []byte) string {
	if len(buf) == 0 {
		return ""
	}
	if buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}

func mapDeviceType(dt C.cl_device_type) DeviceType {
	switch {
	case dt&C.CL_DEVICE_TYPE_GPU != 0:
		return DeviceTypeGPU
	case dt&C.CL_DEVICE_TYPE_CPU != 0:
		return DeviceTypeCPU
	case dt&C.CL_DEVICE_TYPE_ACCELERATOR != 0:
		return DeviceTypeAccelerator
	case dt&C.CL_DEVICE_TYPE_DEFAULT != 0:
		return DeviceTypeDefault
	default:
		return DeviceTypeUnknown
	}
}

// clErrorNames maps the OpenCL 1.2 status codes into their symbolic
// names, built on the Go side rather than as a cgo-embedded C switch:
// the mapping is pure data and every caller already crosses into Go to
// format it.
var clErrorNames = map[C.cl_int]string{
	C.CL_SUCCESS:                         "CL_SUCCESS",
	C.CL_DEVICE_NOT_FOUND:                "CL_DEVICE_NOT_FOUND",
	C.CL_DEVICE_NOT_AVAILABLE:            "CL_DEVICE_NOT_AVAILABLE",
	C.CL_COMPILER_NOT_AVAILABLE:          "CL_COMPILER_NOT_AVAILABLE",
	C.CL_MEM_OBJECT_ALLOCATION_FAILURE:   "CL_MEM_OBJECT_ALLOCATION_FAILURE",
	C.CL_OUT_OF_RESOURCES:                "CL_OUT_OF_RESOURCES",
	C.CL_OUT_OF_HOST_MEMORY:              "CL_OUT_OF_HOST_MEMORY",
	C.CL_PROFILING_INFO_NOT_AVAILABLE:    "CL_PROFILING_INFO_NOT_AVAILABLE",
	C.CL_MEM_COPY_OVERLAP:                "CL_MEM_COPY_OVERLAP",
	C.CL_IMAGE_FORMAT_MISMATCH:           "CL_IMAGE_FORMAT_MISMATCH",
	C.CL_IMAGE_FORMAT_NOT_SUPPORTED:      "CL_IMAGE_FORMAT_NOT_SUPPORTED",
	C.CL_BUILD_PROGRAM_FAILURE:           "CL_BUILD_PROGRAM_FAILURE",
	C.CL_MAP_FAILURE:                     "CL_MAP_FAILURE",
	C.CL_INVALID_VALUE:                   "CL_INVALID_VALUE",
	C.CL_INVALID_DEVICE_TYPE:             "CL_INVALID_DEVICE_TYPE",
	C.CL_INVALID_PLATFORM:                "CL_INVALID_PLATFORM",
	C.CL_INVALID_DEVICE:                  "CL_INVALID_DEVICE",
	C.CL_INVALID_CONTEXT:                 "CL_INVALID_CONTEXT",
	C.CL_INVALID_QUEUE_PROPERTIES:        "CL_INVALID_QUEUE_PROPERTIES",
	C.CL_INVALID_COMMAND_QUEUE:           "CL_INVALID_COMMAND_QUEUE",
	C.CL_INVALID_HOST_PTR:                "CL_INVALID_HOST_PTR",
	C.CL_INVALID_MEM_OBJECT:              "CL_INVALID_MEM_OBJECT",
	C.CL_INVALID_IMAGE_FORMAT_DESCRIPTOR: "CL_INVALID_IMAGE_FORMAT_DESCRIPTOR",
	C.CL_INVALID_IMAGE_SIZE:              "CL_INVALID_IMAGE_SIZE",
	C.CL_INVALID_SAMPLER:                 "CL_INVALID_SAMPLER",
	C.CL_INVALID_BINARY:                  "CL_INVALID_BINARY",
	C.CL_INVALID_BUILD_OPTIONS:           "CL_INVALID_BUILD_OPTIONS",
	C.CL_INVALID_PROGRAM:                 "CL_INVALID_PROGRAM",
	C.CL_INVALID_PROGRAM_EXECUTABLE:      "CL_INVALID_PROGRAM_EXECUTABLE",
	C.CL_INVALID_KERNEL_NAME:             "CL_INVALID_KERNEL_NAME",
	C.CL_INVALID_KERNEL_DEFINITION:       "CL_INVALID_KERNEL_DEFINITION",
	C.CL_INVALID_KERNEL:                  "CL_INVALID_KERNEL",
	C.CL_INVALID_ARG_INDEX:               "CL_INVALID_ARG_INDEX",
	C.CL_INVALID_ARG_VALUE:               "CL_INVALID_ARG_VALUE",
	C.CL_INVALID_ARG_SIZE:                "CL_INVALID_ARG_SIZE",
	C.CL_INVALID_KERNEL_ARGS:             "CL_INVALID_KERNEL_ARGS",
	C.CL_INVALID_WORK_DIMENSION:          "CL_INVALID_WORK_DIMENSION",
	C.CL_INVALID_WORK_GROUP_SIZE:         "CL_INVALID_WORK_GROUP_SIZE",
	C.CL_INVALID_WORK_ITEM_SIZE:          "CL_INVALID_WORK_ITEM_SIZE",
	C.CL_INVALID_GLOBAL_OFFSET:           "CL_INVALID_GLOBAL_OFFSET",
	C.CL_INVALID_EVENT_WAIT_LIST:         "CL_INVALID_EVENT_WAIT_LIST",
	C.CL_INVALID_EVENT:                   "CL_INVALID_EVENT",
	C.CL_INVALID_OPERATION:               "CL_INVALID_OPERATION",
	C.CL_INVALID_GL_OBJECT:               "CL_INVALID_GL_OBJECT",
	C.CL_INVALID_BUFFER_SIZE:             "CL_INVALID_BUFFER_SIZE",
	C.CL_INVALID_MIP_LEVEL:               "CL_INVALID_MIP_LEVEL",
}

func clErrorString(status C.cl_int) string {
	if name, ok := clErrorNames[status]; ok {
		return name
	}
	return "CL_UNKNOWN_ERROR"
}

func statusError(prefix string, status C.cl_int) error {
	return fmt.Errorf("%s: %s (%d)", prefix, clErrorString(status), int(status))
}
