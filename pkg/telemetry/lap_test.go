package telemetry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testLap() *Lap {
	speed := make([]float64, 101) // 10s of constant 15 m/s at 10 Hz
	for i := range speed {
		speed[i] = 15
	}

	return &Lap{
		Info: LapInfo{Index: 1, Start: 249.509, Duration: 133.749},
		Channels: []Channel{
			channelAt("fEngRpm", 100, 249.509, make([]float64, 5)),
			channelAt("tWater", 2, 249.509, make([]float64, 5)),
			channelAt("GPS Speed", 10, 249.509, speed),
		},
	}
}

func TestLapChannelLookup(t *testing.T) {
	lap := testLap()

	ch, ok := lap.Channel("tWater")
	if !ok {
		t.Fatal("tWater not found")
	}
	if ch.Name != "tWater" {
		t.Errorf("Name = %q, want tWater", ch.Name)
	}

	if _, ok := lap.Channel("bSteering"); ok {
		t.Error("lookup of absent channel succeeded")
	}
}

func TestLapChannelNames(t *testing.T) {
	lap := testLap()
	want := []string{"fEngRpm", "tWater", "GPS Speed"}
	if diff := cmp.Diff(want, lap.ChannelNames()); diff != "" {
		t.Errorf("ChannelNames mismatch (-want +got):\n%s", diff)
	}
}

func TestLapMaxFrequency(t *testing.T) {
	lap := testLap()
	if got := lap.MaxFrequency(); got != 100 {
		t.Errorf("MaxFrequency = %v, want 100", got)
	}

	empty := &Lap{Info: LapInfo{Index: 0}}
	if got := empty.MaxFrequency(); got != 0 {
		t.Errorf("empty lap MaxFrequency = %v, want 0", got)
	}
}

func TestLapDistance(t *testing.T) {
	// 10s at a constant 15 m/s integrates to exactly 150m regardless of
	// stride.
	lap := testLap()
	if got := lap.Distance(); got != 150 {
		t.Errorf("Distance = %v, want 150", got)
	}

	noGPS := &Lap{Channels: []Channel{channelAt("fEngRpm", 100, 0, make([]float64, 5))}}
	if got := noGPS.Distance(); got != 0 {
		t.Errorf("Distance without GPS Speed = %v, want 0", got)
	}
}
