package decoder

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// MockLap is one lap of a mock file, as start offset and duration in
// seconds.
type MockLap struct {
	Start    float64
	Duration float64
}

// MockChannel is one channel of a mock file, with absolute run-offset
// timestamps.
type MockChannel struct {
	Name       string
	Unit       string
	Timestamps []float64
	Values     []float64
}

// MockFile is the content served by a MockDecoder for one path.
type MockFile struct {
	Vehicle      string
	Track        string
	Racer        string
	Championship string
	VenueType    string
	Recorded     time.Time
	Laps         []MockLap
	Channels     []MockChannel
}

// MockDecoder is an in-memory Decoder for tests and synthetic ingest. It
// follows the real library's open convention and counts open/close calls so
// tests can assert the registry's reference-counting behavior.
//
// OpenResults can script the outcome of Open per path (0 for a parse
// failure, a negative value for an open error); unscripted paths open
// normally when a file is registered for them.
type MockDecoder struct {
	mu          sync.Mutex
	files       map[string]*MockFile
	sessions    map[int]*MockFile
	nextIdx     int
	OpenResults map[string]int

	OpenCalls  int
	CloseCalls int
}

// NewMockDecoder creates an empty mock decoder.
func NewMockDecoder() *MockDecoder {
	return &MockDecoder{
		files:       make(map[string]*MockFile),
		sessions:    make(map[int]*MockFile),
		nextIdx:     1,
		OpenResults: make(map[string]int),
	}
}

// AddFile registers file content for a path.
func (m *MockDecoder) AddFile(path string, file *MockFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = file
}

// Open implements Decoder.
func (m *MockDecoder) Open(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OpenCalls++

	if result, ok := m.OpenResults[path]; ok {
		return result
	}

	file, ok := m.files[path]
	if !ok {
		return -1
	}

	idx := m.nextIdx
	m.nextIdx++
	m.sessions[idx] = file
	return idx
}

// Close implements Decoder.
func (m *MockDecoder) Close(idx int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CloseCalls++
	delete(m.sessions, idx)
}

func (m *MockDecoder) session(idx int) (*MockFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.sessions[idx]
	if !ok {
		return nil, fmt.Errorf("no open session %d", idx)
	}
	return file, nil
}

// LapCount implements Decoder.
func (m *MockDecoder) LapCount(idx int) (int, error) {
	file, err := m.session(idx)
	if err != nil {
		return 0, err
	}
	return len(file.Laps), nil
}

// LapBounds implements Decoder.
func (m *MockDecoder) LapBounds(idx, lap int) (float64, float64, error) {
	file, err := m.session(idx)
	if err != nil {
		return 0, 0, err
	}
	if lap < 0 || lap >= len(file.Laps) {
		return 0, 0, fmt.Errorf("lap %d out of range", lap)
	}
	return file.Laps[lap].Start, file.Laps[lap].Duration, nil
}

// ChannelCount implements Decoder.
func (m *MockDecoder) ChannelCount(idx int) (int, error) {
	file, err := m.session(idx)
	if err != nil {
		return 0, err
	}
	return len(file.Channels), nil
}

func (m *MockDecoder) channel(idx, channel int) (*MockChannel, error) {
	file, err := m.session(idx)
	if err != nil {
		return nil, err
	}
	if channel < 0 || channel >= len(file.Channels) {
		return nil, fmt.Errorf("channel %d out of range", channel)
	}
	return &file.Channels[channel], nil
}

// ChannelName implements Decoder.
func (m *MockDecoder) ChannelName(idx, channel int) (string, error) {
	ch, err := m.channel(idx, channel)
	if err != nil {
		return "", err
	}
	return ch.Name, nil
}

// ChannelUnit implements Decoder.
func (m *MockDecoder) ChannelUnit(idx, channel int) (string, error) {
	ch, err := m.channel(idx, channel)
	if err != nil {
		return "", err
	}
	return ch.Unit, nil
}

// RawSamples implements Decoder.
func (m *MockDecoder) RawSamples(idx, channel int) ([]float64, []float64, error) {
	ch, err := m.channel(idx, channel)
	if err != nil {
		return nil, nil, err
	}

	timestamps := make([]float64, len(ch.Timestamps))
	copy(timestamps, ch.Timestamps)
	values := make([]float64, len(ch.Values))
	copy(values, ch.Values)
	return timestamps, values, nil
}

// LapRawSamples implements Decoder. Samples are windowed to
// [start, start+duration) while keeping their run-offset timestamps, which
// is how the real library slices laps.
func (m *MockDecoder) LapRawSamples(idx, lap, channel int) ([]float64, []float64, error) {
	file, err := m.session(idx)
	if err != nil {
		return nil, nil, err
	}
	if lap < 0 || lap >= len(file.Laps) {
		return nil, nil, fmt.Errorf("lap %d out of range", lap)
	}
	ch, err := m.channel(idx, channel)
	if err != nil {
		return nil, nil, err
	}

	from := file.Laps[lap].Start
	to := from + file.Laps[lap].Duration

	var timestamps, values []float64
	for i, ts := range ch.Timestamps {
		if ts >= from && ts < to {
			timestamps = append(timestamps, ts)
			values = append(values, ch.Values[i])
		}
	}
	return timestamps, values, nil
}

// VehicleName implements Decoder.
func (m *MockDecoder) VehicleName(idx int) (string, error) {
	file, err := m.session(idx)
	if err != nil {
		return "", err
	}
	return file.Vehicle, nil
}

// TrackName implements Decoder.
func (m *MockDecoder) TrackName(idx int) (string, error) {
	file, err := m.session(idx)
	if err != nil {
		return "", err
	}
	return file.Track, nil
}

// RacerName implements Decoder.
func (m *MockDecoder) RacerName(idx int) (string, error) {
	file, err := m.session(idx)
	if err != nil {
		return "", err
	}
	return file.Racer, nil
}

// ChampionshipName implements Decoder.
func (m *MockDecoder) ChampionshipName(idx int) (string, error) {
	file, err := m.session(idx)
	if err != nil {
		return "", err
	}
	return file.Championship, nil
}

// VenueTypeName implements Decoder.
func (m *MockDecoder) VenueTypeName(idx int) (string, error) {
	file, err := m.session(idx)
	if err != nil {
		return "", err
	}
	return file.VenueType, nil
}

// DateTime implements Decoder.
func (m *MockDecoder) DateTime(idx int) (time.Time, error) {
	file, err := m.session(idx)
	if err != nil {
		return time.Time{}, err
	}
	return file.Recorded, nil
}

// SineChannel generates a channel sampled at the given rate over
// [0, duration), oscillating around base with the given amplitude. Useful
// as synthetic logger data.
func SineChannel(name, unit string, frequency, duration, base, amplitude float64) MockChannel {
	count := int(duration * frequency)
	ch := MockChannel{
		Name:       name,
		Unit:       unit,
		Timestamps: make([]float64, count),
		Values:     make([]float64, count),
	}
	for i := 0; i < count; i++ {
		t := float64(i) / frequency
		ch.Timestamps[i] = t
		ch.Values[i] = base + amplitude*math.Sin(2*math.Pi*t/duration)
	}
	return ch
}
