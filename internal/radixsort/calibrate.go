package radixsort

import "fmt"

// calibrationState is the explicit, tagged state of the self-calibrator:
// Init decides a direction from the first probe, then the walk climbs
// (Increasing) or descends (Decreasing) until the probe result flips.
type calibrationState int

const (
	stateInit calibrationState = iota
	stateIncreasing
	stateDecreasing
)

// Probe reports whether the sorter built with the given subgroup width
// sorts a known permutation correctly.
type Probe func(subgroupWidth int) bool

// Calibrate walks SubgroupWidthCandidates with the three-state machine:
// starting at index 2 (width 32), it probes once to decide a direction,
// then climbs (Increasing) or descends (Decreasing) until the probe
// result flips, and returns the last width that passed.
//
// Correctness as a function of subgroup width is assumed to be an
// interval around the true hardware width; this monotone walk finds an
// edge of that interval without testing every candidate.
func Calibrate(probe Probe) (int, error) {
	return calibrateLadder(SubgroupWidthCandidates, startCandidateIndex, probe)
}

// calibrateLadder is Calibrate's candidate-list-taking core, split out so
// tests can exercise the state machine against a synthetic ladder without
// depending on the real candidate list or a real probe.
func calibrateLadder(sizes []int, start int, probe Probe) (int, error) {
	i := start
	state := stateInit
	// lastGood tracks the most recent passing width so Increasing can roll
	// back to it the instant the probe fails.
	lastGood := -1

	for {
		if i < 0 || i >= len(sizes) {
			return 0, fmt.Errorf("%w: candidate index %d out of range [0,%d)", ErrDeviceProbeFailed, i, len(sizes))
		}

		width := sizes[i]
		passed := probe(width)
		if passed {
			lastGood = width
		}

		switch state {
		case stateInit:
			if passed {
				state = stateIncreasing
				i++
			} else {
				state = stateDecreasing
				i--
			}

		case stateIncreasing:
			if passed {
				i++
				continue
			}
			return lastGood, nil

		case stateDecreasing:
			if passed {
				return width, nil
			}
			i--
		}
	}
}
