// Package telemetry implements the time-series normalization core for
// xrk/drk data-logger recordings: sampling-rate estimation, fixed-rate
// resampling and pairwise channel synchronization.
//
// Loggers record each channel at its own cadence, so raw channels arrive as
// irregularly spaced (timestamp, value) pairs. Everything in this package is
// pure computation over in-memory slices and is safe to run in parallel
// across independent channels.
package telemetry

import "math"

// NominalFrequencies lists the sampling rates a logger can be configured at,
// in Hz, ascending. Raw rate estimates are always snapped to this set.
var NominalFrequencies = []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000}

// ChannelData holds the raw samples of one channel as two parallel slices.
// Timestamps are seconds from the start of the recording, strictly
// increasing.
type ChannelData struct {
	Timestamps []float64
	Values     []float64
}

// Len returns the number of samples. It panics if the timestamp and value
// counts have diverged, since that indicates corruption upstream.
func (d ChannelData) Len() int {
	if len(d.Timestamps) != len(d.Values) {
		panic("telemetry: timestamp and value counts diverge")
	}
	return len(d.Timestamps)
}

// IsEmpty reports whether the channel holds no samples.
func (d ChannelData) IsEmpty() bool {
	return d.Len() == 0
}

// Channel is a raw, unsynchronized channel as read from a logger file.
// Its frequency is not stored; it is recomputed on demand from the data.
type Channel struct {
	Name string
	Unit string
	Data ChannelData
}

// Len returns the number of samples in the channel.
func (c Channel) Len() int {
	return c.Data.Len()
}

// Frequency returns the channel's estimated recording frequency in Hz.
func (c Channel) Frequency() float64 {
	return EstimateFrequency(c.Data.Timestamps)
}

// FixedRateChannel is a channel resampled onto a fixed-rate grid. The
// timestamp of sample i is implicit: start + i/Frequency. Samples are stored
// as float32; generated values do not warrant the raw data's 64-bit width.
type FixedRateChannel struct {
	Name      string
	Unit      string
	Frequency float64
	Samples   []float32
}

// Len returns the number of grid samples.
func (c FixedRateChannel) Len() int {
	return len(c.Samples)
}

// EstimateFrequency derives a channel's recording frequency from its
// timestamps and snaps it to the nearest nominal frequency. Real loggers
// jitter around their configured rate, so only nominal rates are meaningful
// downstream.
//
// The raw rate is taken from the gap between the first and third timestamps;
// two sample intervals damp single-sample jitter. Degenerate input (fewer
// than three samples, or a timestamp sum too small to be real data) yields 0.
func EstimateFrequency(timestamps []float64) float64 {
	if len(timestamps) < 3 {
		return 0
	}

	var sum float64
	for _, ts := range timestamps {
		sum += ts
	}
	if sum < 0.1 {
		return 0
	}

	// normalize on milliseconds over two time steps
	raw := math.Round(1000 / ((timestamps[2] - timestamps[0]) * 500))

	// snap to the nearest nominal frequency; on ties the lower rate wins
	best := NominalFrequencies[0]
	bestDiff := math.Abs(raw - best)
	for _, frequency := range NominalFrequencies[1:] {
		if diff := math.Abs(raw - frequency); diff < bestDiff {
			best, bestDiff = frequency, diff
		}
	}
	return best
}
