// Package session assembles complete runs from decoder handles: per-lap
// channel sets plus the recording's session metadata.
package session

import (
	"fmt"
	"time"

	"github.com/trackside-labs/stint/pkg/decoder"
	"github.com/trackside-labs/stint/pkg/telemetry"
)

// Run holds everything recorded in one logger file, grouped per lap.
type Run struct {
	Championship string
	Track        string
	VenueType    string
	Vehicle      string
	Racer        string
	Recorded     time.Time
	ChannelNames []string
	Laps         []telemetry.Lap
}

// LapCount returns the number of laps in the run.
func (r *Run) LapCount() int {
	return len(r.Laps)
}

// ChannelCount returns the number of channels recorded per lap.
func (r *Run) ChannelCount() int {
	return len(r.ChannelNames)
}

// Load opens the file at path through the registry, assembles the full run
// and releases the handle again.
func Load(reg *decoder.Registry, path string) (*Run, error) {
	h, err := reg.Load(path)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	return LoadFromHandle(h)
}

// LoadFromHandle assembles a run from an already open handle. The handle
// stays live; the caller keeps ownership.
func LoadFromHandle(h *decoder.Handle) (*Run, error) {
	run := &Run{}

	var err error
	if run.Championship, err = h.ChampionshipName(); err != nil {
		return nil, fmt.Errorf("%s: championship: %w", h.Path(), err)
	}
	if run.Track, err = h.TrackName(); err != nil {
		return nil, fmt.Errorf("%s: track: %w", h.Path(), err)
	}
	if run.VenueType, err = h.VenueTypeName(); err != nil {
		return nil, fmt.Errorf("%s: venue type: %w", h.Path(), err)
	}
	if run.Vehicle, err = h.VehicleName(); err != nil {
		return nil, fmt.Errorf("%s: vehicle: %w", h.Path(), err)
	}
	if run.Racer, err = h.RacerName(); err != nil {
		return nil, fmt.Errorf("%s: racer: %w", h.Path(), err)
	}
	if run.Recorded, err = h.DateTime(); err != nil {
		return nil, fmt.Errorf("%s: datetime: %w", h.Path(), err)
	}

	channelCount, err := h.ChannelCount()
	if err != nil {
		return nil, fmt.Errorf("%s: channel count: %w", h.Path(), err)
	}

	names := make([]string, 0, channelCount)
	units := make([]string, 0, channelCount)
	for idx := 0; idx < channelCount; idx++ {
		name, err := h.ChannelName(idx)
		if err != nil {
			return nil, fmt.Errorf("%s: channel %d name: %w", h.Path(), idx, err)
		}
		unit, err := h.ChannelUnit(idx)
		if err != nil {
			return nil, fmt.Errorf("%s: channel %d unit: %w", h.Path(), idx, err)
		}
		names = append(names, name)
		units = append(units, unit)
	}
	run.ChannelNames = names

	lapCount, err := h.LapCount()
	if err != nil {
		return nil, fmt.Errorf("%s: lap count: %w", h.Path(), err)
	}

	run.Laps = make([]telemetry.Lap, 0, lapCount)
	for lapIdx := 0; lapIdx < lapCount; lapIdx++ {
		lap, err := loadLap(h, lapIdx, names, units)
		if err != nil {
			return nil, err
		}
		run.Laps = append(run.Laps, lap)
	}

	return run, nil
}

// loadLap fetches the bounds and every channel of one lap.
func loadLap(h *decoder.Handle, lapIdx int, names, units []string) (telemetry.Lap, error) {
	start, duration, err := h.LapBounds(lapIdx)
	if err != nil {
		return telemetry.Lap{}, fmt.Errorf("%s: lap %d bounds: %w", h.Path(), lapIdx, err)
	}

	lap := telemetry.Lap{
		Info:     telemetry.LapInfo{Index: lapIdx, Start: start, Duration: duration},
		Channels: make([]telemetry.Channel, 0, len(names)),
	}

	for idx, name := range names {
		timestamps, values, err := h.LapRawSamples(lapIdx, idx)
		if err != nil {
			return telemetry.Lap{}, fmt.Errorf("%s: lap %d channel %q: %w",
				h.Path(), lapIdx, name, err)
		}
		lap.Channels = append(lap.Channels, telemetry.Channel{
			Name: name,
			Unit: units[idx],
			Data: telemetry.ChannelData{Timestamps: timestamps, Values: values},
		})
	}

	return lap, nil
}

// NormalizeLap resamples every channel of a lap onto its fixed-rate grid
// over the lap's time window.
func NormalizeLap(lap *telemetry.Lap) []telemetry.FixedRateChannel {
	fixed := make([]telemetry.FixedRateChannel, 0, len(lap.Channels))
	for _, ch := range lap.Channels {
		fixed = append(fixed, telemetry.Resample(ch, lap.Info.Start, lap.Info.Duration))
	}
	return fixed
}
