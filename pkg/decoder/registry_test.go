package decoder

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRunFile creates an empty file with the given name in a temp dir and
// returns both the raw path and its canonical form (the mock decoder is
// keyed by the latter).
func writeRunFile(t *testing.T, name string) (string, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0644))

	canonical, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return path, canonical
}

func TestRegistryRefCounting(t *testing.T) {
	path, canonical := writeRunFile(t, "quali.xrk")

	mock := NewMockDecoder()
	mock.AddFile(canonical, &MockFile{Vehicle: "AU-RS3-R5-S-S"})
	reg := NewRegistry(mock)

	first, err := reg.Load(path)
	require.NoError(t, err)
	second, err := reg.Load(path)
	require.NoError(t, err)

	// two loads share one decoder session
	assert.Equal(t, 1, mock.OpenCalls)
	assert.Equal(t, 1, reg.OpenCount())

	first.Release()
	assert.Equal(t, 0, mock.CloseCalls, "close before last release")

	second.Release()
	assert.Equal(t, 1, mock.CloseCalls)
	assert.Equal(t, 0, reg.OpenCount())

	// a fresh load after full release opens again
	third, err := reg.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.OpenCalls)
	third.Release()
}

func TestRegistryConcurrentLoads(t *testing.T) {
	path, canonical := writeRunFile(t, "race.drk")

	mock := NewMockDecoder()
	mock.AddFile(canonical, &MockFile{})
	reg := NewRegistry(mock)

	const workers = 16
	handles := make([]*Handle, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := reg.Load(path)
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := h.VehicleName(); err != nil {
				t.Error(err)
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, mock.OpenCalls, "concurrent loads must share one open")

	for _, h := range handles {
		require.NotNil(t, h)
		h.Release()
	}
	assert.Equal(t, 1, mock.CloseCalls)
}

func TestRegistryValidatesInput(t *testing.T) {
	mock := NewMockDecoder()
	reg := NewRegistry(mock)

	t.Run("missing file", func(t *testing.T) {
		_, err := reg.Load(filepath.Join(t.TempDir(), "absent.xrk"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("wrong extension", func(t *testing.T) {
		path, _ := writeRunFile(t, "export.csv")
		_, err := reg.Load(path)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("extension is case-sensitive", func(t *testing.T) {
		path, _ := writeRunFile(t, "quali.XRK")
		_, err := reg.Load(path)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "run.xrk")
		require.NoError(t, os.Mkdir(dir, 0755))
		_, err := reg.Load(dir)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	// validation failures never reach the decoder
	assert.Equal(t, 0, mock.OpenCalls)
}

func TestRegistryDecoderFailures(t *testing.T) {
	mock := NewMockDecoder()
	reg := NewRegistry(mock)

	garbled, garbledCanonical := writeRunFile(t, "garbled.xrk")
	mock.OpenResults[garbledCanonical] = 0

	_, err := reg.Load(garbled)
	assert.ErrorIs(t, err, ErrUnparseable)

	broken, brokenCanonical := writeRunFile(t, "broken.drk")
	mock.OpenResults[brokenCanonical] = -3

	_, err = reg.Load(broken)
	assert.ErrorIs(t, err, ErrOpenFailed)

	// failed opens leave nothing behind to release
	assert.Equal(t, 0, reg.OpenCount())
}

func TestRegistryDoubleReleasePanics(t *testing.T) {
	path, canonical := writeRunFile(t, "quali.xrk")

	mock := NewMockDecoder()
	mock.AddFile(canonical, &MockFile{})
	reg := NewRegistry(mock)

	h, err := reg.Load(path)
	require.NoError(t, err)
	h.Release()

	assert.Panics(t, func() { h.Release() })
}

func TestRegistryUseAfterReleasePanics(t *testing.T) {
	path, canonical := writeRunFile(t, "quali.xrk")

	mock := NewMockDecoder()
	mock.AddFile(canonical, &MockFile{})
	reg := NewRegistry(mock)

	h, err := reg.Load(path)
	require.NoError(t, err)
	h.Release()

	assert.Panics(t, func() { h.LapCount() })
}

func TestHandleProxiesDecoderData(t *testing.T) {
	path, canonical := writeRunFile(t, "quali.xrk")

	mock := NewMockDecoder()
	mock.AddFile(canonical, &MockFile{
		Vehicle: "HY-i30N-C4-X-S",
		Track:   "ARA_1-0-0",
		Laps:    []MockLap{{Start: 0, Duration: 90}, {Start: 90, Duration: 88.5}},
		Channels: []MockChannel{
			{
				Name:       "fEngRpm",
				Unit:       "rpm",
				Timestamps: []float64{0, 50, 100, 150},
				Values:     []float64{4000, 5000, 6000, 7000},
			},
		},
	})
	reg := NewRegistry(mock)

	h, err := reg.Load(path)
	require.NoError(t, err)
	defer h.Release()

	laps, err := h.LapCount()
	require.NoError(t, err)
	assert.Equal(t, 2, laps)

	start, duration, err := h.LapBounds(1)
	require.NoError(t, err)
	assert.Equal(t, 90.0, start)
	assert.Equal(t, 88.5, duration)

	name, err := h.ChannelName(0)
	require.NoError(t, err)
	assert.Equal(t, "fEngRpm", name)

	// lap windowing keeps run-offset timestamps
	timestamps, values, err := h.LapRawSamples(1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 150}, timestamps)
	assert.Equal(t, []float64{6000, 7000}, values)
}
