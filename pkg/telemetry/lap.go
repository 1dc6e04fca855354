package telemetry

import "math"

// gpsSpeedChannel is the logger's vehicle speed channel, used for lap
// distance integration.
const gpsSpeedChannel = "GPS Speed"

// LapInfo identifies one lap within a run: its 0-based index, its start
// offset into the recording and its duration, both in seconds.
type LapInfo struct {
	Index    int
	Start    float64
	Duration float64
}

// Lap groups the channels recorded during one lap. Channel names are unique
// within a lap.
type Lap struct {
	Info     LapInfo
	Channels []Channel
}

// Channel returns the named channel. Channel sets are tens of entries at
// most, so lookup is a linear scan.
func (l *Lap) Channel(name string) (Channel, bool) {
	for _, ch := range l.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// ChannelNames returns the names of all channels in recording order.
func (l *Lap) ChannelNames() []string {
	names := make([]string, 0, len(l.Channels))
	for _, ch := range l.Channels {
		names = append(names, ch.Name)
	}
	return names
}

// MaxFrequency returns the highest estimated frequency across the lap's
// channels, or 0 for an empty channel set.
func (l *Lap) MaxFrequency() float64 {
	max := 0.0
	for _, ch := range l.Channels {
		if f := ch.Frequency(); f > max {
			max = f
		}
	}
	return max
}

// Distance integrates the GPS speed channel over the lap using the
// trapezoidal rule and returns the covered distance rounded to millimeters.
// The stride subsamples high-rate speed channels down to roughly 10 Hz.
// Laps without a GPS speed channel yield 0.
func (l *Lap) Distance() float64 {
	speed, ok := l.Channel(gpsSpeedChannel)
	if !ok {
		return 0
	}

	stride := int(speed.Frequency()) / 10
	if stride < 1 {
		stride = 1
	}

	timestamps, values := speed.Data.Timestamps, speed.Data.Values

	var dist float64
	for i := stride; i < speed.Len(); i += stride {
		dist += 0.5 * (values[i] + values[i-stride]) * (timestamps[i] - timestamps[i-stride])
	}
	return math.Round(dist*1000) / 1000
}
