package radixsort

import "errors"

// ErrConfiguration marks a programmer error: a caller mis-sized or
// mis-sequenced something the API contract requires them to get right
// (mismatched keyval buffer sizes, a pass count other than 4 at scatter
// time). These are not recoverable and are expected to terminate the
// calling process with a precise message.
var ErrConfiguration = errors.New("radixsort: configuration error")

// ErrDeviceProbeFailed is returned by Calibrate when its walk leaves the
// candidate ladder at either end, which includes the case where no
// candidate subgroup width produced a correct sort. The device is
// unusable for this sorter.
var ErrDeviceProbeFailed = errors.New("radixsort: no subgroup width produced a correct sort")
