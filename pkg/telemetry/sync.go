package telemetry

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInsufficientData is returned when either channel of a
	// synchronization pair has fewer than three samples.
	ErrInsufficientData = errors.New("insufficient data for synchronization")

	// ErrNonOverlapping is returned when the time ranges of a
	// synchronization pair do not intersect.
	ErrNonOverlapping = errors.New("channel time ranges do not overlap")
)

// Synchronize re-expresses the subject channel's values on the reference
// channel's timestamp grid, producing exactly one value per reference
// timestamp.
//
// Two channels configured at the same nominal rate rarely share exact
// timestamps, so for each reference timestamp the bracketing subject samples
// are located and a real sample within half a reference period is adopted
// as-is. Only when both neighbors fall outside that window is the value
// linearly interpolated. Reference timestamps before the first subject
// sample hold the first value; timestamps past the last subject sample hold
// the last.
//
// Both timestamp series must be strictly ascending; this is guaranteed by
// the decoder and not re-validated here. The pass keeps a monotonic cursor
// into the subject series, so the join is O(n+m).
func Synchronize(subject, reference Channel) (Channel, error) {
	if subject.Len() < 3 || reference.Len() < 3 {
		return Channel{}, fmt.Errorf("synchronize %q onto %q: %w",
			subject.Name, reference.Name, ErrInsufficientData)
	}

	subTS, subValues := subject.Data.Timestamps, subject.Data.Values
	refTS := reference.Data.Timestamps

	if subTS[0] > refTS[len(refTS)-1] || subTS[len(subTS)-1] < refTS[0] {
		return Channel{}, fmt.Errorf("synchronize %q onto %q: %w",
			subject.Name, reference.Name, ErrNonOverlapping)
	}

	threshold := 0.5 / reference.Frequency()

	values := make([]float64, 0, len(refTS))
	idx := 0

	for _, refTime := range refTS {
		// first subject position strictly after the reference timestamp
		pos := idx
		for pos < len(subTS) && subTS[pos] <= refTime {
			pos++
		}

		switch {
		case pos == len(subTS): // subject exhausted, hold the tail
			values = append(values, subValues[len(subValues)-1])
		case pos == 0: // reference starts before the subject, hold the head
			values = append(values, subValues[0])
		default:
			idx = pos - 1
			left, right := subTS[idx], subTS[idx+1]
			switch {
			case math.Abs(refTime-left) <= threshold:
				values = append(values, subValues[idx])
			case math.Abs(refTime-right) <= threshold:
				values = append(values, subValues[idx+1])
			default:
				slope := (subValues[idx+1] - subValues[idx]) / (right - left)
				values = append(values, subValues[idx]+slope*(refTime-left))
			}
		}
	}

	timestamps := make([]float64, len(refTS))
	copy(timestamps, refTS)

	return Channel{
		Name: subject.Name,
		Unit: subject.Unit,
		Data: ChannelData{Timestamps: timestamps, Values: values},
	}, nil
}
