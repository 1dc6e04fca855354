package telemetry

import (
	"math"
	"testing"
)

func TestResampleLengthLaw(t *testing.T) {
	cases := []struct {
		name      string
		frequency float64
		duration  float64
	}{
		{"10Hz whole", 10, 5.0},
		{"10Hz fractional", 10, 5.03},
		{"100Hz short", 100, 0.47},
		{"1Hz long", 1, 133.749},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			count := int(tc.duration*tc.frequency) + 10
			ch := Channel{
				Name: "rThrottle",
				Unit: "%",
				Data: ChannelData{
					Timestamps: gridTimestamps(1.0, tc.frequency, count),
					Values:     make([]float64, count),
				},
			}

			fixed := Resample(ch, 1.0, tc.duration)
			want := int(math.Ceil(tc.duration * ch.Frequency()))
			if fixed.Len() != want {
				t.Errorf("Len = %d, want %d", fixed.Len(), want)
			}
			if fixed.Frequency != tc.frequency {
				t.Errorf("Frequency = %v, want %v", fixed.Frequency, tc.frequency)
			}
		})
	}
}

func TestResampleHoldsLastValue(t *testing.T) {
	// 10 Hz channel with a two-sample gap: the grid repeats the value held
	// before the gap instead of interpolating or zeroing.
	ch := Channel{
		Name: "tWater",
		Unit: "C",
		Data: ChannelData{
			Timestamps: []float64{10.0, 10.1, 10.2, 10.5, 10.6},
			Values:     []float64{80, 81, 82, 85, 86},
		},
	}

	fixed := Resample(ch, 10.0, 0.7)
	want := []float32{80, 81, 82, 82, 82, 85, 86}
	if len(fixed.Samples) != len(want) {
		t.Fatalf("Len = %d, want %d", len(fixed.Samples), len(want))
	}
	for i, v := range want {
		if fixed.Samples[i] != v {
			t.Errorf("sample %d = %v, want %v", i, fixed.Samples[i], v)
		}
	}
}

func TestResampleLeadingGapIsZero(t *testing.T) {
	// A single raw sample mid-window: slots before it read 0, slots from it
	// onward hold its value.
	frequency := 10.0
	raw := Channel{
		Name: "pBrakeF",
		Unit: "bar",
		Data: ChannelData{
			// three samples so the rate is discoverable; only the first lies
			// inside the resampling window
			Timestamps: []float64{5.5, 5.6, 5.7},
			Values:     []float64{42, 43, 44},
		},
	}
	if raw.Frequency() != frequency {
		t.Fatalf("Frequency = %v, want %v", raw.Frequency(), frequency)
	}

	fixed := Resample(raw, 5.0, 0.6)
	if fixed.Len() != 6 {
		t.Fatalf("Len = %d, want 6", fixed.Len())
	}
	for i := 0; i < 5; i++ {
		if fixed.Samples[i] != 0 {
			t.Errorf("sample %d before first reading = %v, want 0", i, fixed.Samples[i])
		}
	}
	if fixed.Samples[5] != 42 {
		t.Errorf("sample 5 = %v, want 42", fixed.Samples[5])
	}
}

func TestResampleNoDiscoverableRate(t *testing.T) {
	ch := Channel{
		Name: "posGear",
		Data: ChannelData{Timestamps: []float64{1.0, 1.1}, Values: []float64{3, 4}},
	}

	fixed := Resample(ch, 0, 10)
	if fixed.Frequency != 0 {
		t.Errorf("Frequency = %v, want 0", fixed.Frequency)
	}
	if fixed.Len() != 0 {
		t.Errorf("Len = %d, want 0", fixed.Len())
	}
	if fixed.Name != "posGear" {
		t.Errorf("Name = %q, want posGear", fixed.Name)
	}
}

func TestResampleZeroDuration(t *testing.T) {
	ch := Channel{
		Name: "aLat",
		Unit: "g",
		Data: ChannelData{
			Timestamps: gridTimestamps(1.0, 50, 20),
			Values:     make([]float64, 20),
		},
	}

	if got := Resample(ch, 1.0, 0).Len(); got != 0 {
		t.Errorf("Len = %d, want 0", got)
	}
}

func BenchmarkResample(b *testing.B) {
	count := 60 * 100
	ch := Channel{
		Name: "fEngRpm",
		Unit: "rpm",
		Data: ChannelData{
			Timestamps: gridTimestamps(0, 100, count),
			Values:     make([]float64, count),
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Resample(ch, 0, 60)
	}
}
