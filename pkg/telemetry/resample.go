package telemetry

import "math"

// Resample converts a raw channel onto a fixed-rate grid covering
// [start, start+duration) using a zero-order hold.
//
// The logger's measurement subsystem writes into a buffer at its own cadence
// while the recording subsystem samples that buffer at the nominal rate, so
// a grid slot with no fresh reading repeats the last written value rather
// than interpolating or zero-filling. A raw reading is adopted by a grid
// slot when it lies within half a sample period of it.
//
// Resample never fails. A channel with no discoverable rate yields an empty
// sample array.
func Resample(ch Channel, start, duration float64) FixedRateChannel {
	out := FixedRateChannel{
		Name:      ch.Name,
		Unit:      ch.Unit,
		Frequency: ch.Frequency(),
	}
	if out.Frequency == 0 {
		return out
	}

	advance := 1 / out.Frequency
	threshold := 0.5 * advance

	count := int(math.Ceil(duration * out.Frequency))
	if count <= 0 {
		return out
	}

	timestamps, values := ch.Data.Timestamps, ch.Data.Values
	samples := make([]float32, 0, count)
	cursor := 0
	current := 0.0

	for t := start; len(samples) < count; t += advance {
		for cursor < len(timestamps) && math.Abs(timestamps[cursor]-t) <= threshold {
			current = values[cursor]
			cursor++
		}
		samples = append(samples, float32(current))
	}

	out.Samples = samples
	return out
}
