package decoder

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// acceptedExtensions are the two supported container formats. The
// comparison is case-sensitive; the decoder library does not recognize
// upper-cased variants.
var acceptedExtensions = []string{".xrk", ".drk"}

// Registry is a process-wide, reference-counted cache of decoder sessions,
// keyed by canonical absolute path. It prevents duplicate opens of the same
// file and premature closes while any handle is still live, and it owns the
// single lock under which every decoder call runs.
//
// The registry is constructed explicitly and injected rather than held in a
// package global, so tests can substitute a scripted decoder.
type Registry struct {
	mu      sync.Mutex
	dec     Decoder
	entries map[string]*entry
}

type entry struct {
	idx  int
	refs int
}

// NewRegistry creates a registry around the given decoder.
func NewRegistry(dec Decoder) *Registry {
	return &Registry{
		dec:     dec,
		entries: make(map[string]*entry),
	}
}

// Load opens the file at path, or joins an existing session if the same
// file is already open. The returned handle must be released exactly once.
//
// The path is validated before the decoder is involved: it must exist, be a
// regular file and carry a .xrk or .drk extension. The open decision and the
// decoder call happen under one critical section, so two concurrent loads of
// the same path can never both reach the decoder's open.
func (r *Registry) Load(path string) (*Handle, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[canonical]; ok {
		e.refs++
		return &Handle{reg: r, path: canonical, idx: e.idx}, nil
	}

	idx := r.dec.Open(canonical)
	switch {
	case idx > 0:
	case idx == 0:
		return nil, fmt.Errorf("open %q: %w", path, ErrUnparseable)
	default:
		return nil, fmt.Errorf("open %q: decoder returned %d: %w", path, idx, ErrOpenFailed)
	}

	r.entries[canonical] = &entry{idx: idx, refs: 1}
	return &Handle{reg: r, path: canonical, idx: idx}, nil
}

// OpenCount returns the number of distinct files currently open.
func (r *Registry) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// canonicalize validates the path and resolves it to a canonical absolute
// form suitable as a registry key.
func canonicalize(path string) (string, error) {
	ext := filepath.Ext(path)
	ok := false
	for _, accepted := range acceptedExtensions {
		if ext == accepted {
			ok = true
			break
		}
	}
	if !ok {
		return "", fmt.Errorf("%q: extension %q not accepted: %w", path, ext, ErrInvalidInput)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%q: %v: %w", path, err, ErrInvalidInput)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%q: %v: %w", path, err, ErrInvalidInput)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return "", fmt.Errorf("%q: %v: %w", path, err, ErrInvalidInput)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%q: not a regular file: %w", path, ErrInvalidInput)
	}

	return canonical, nil
}

// Handle is one live reference to an open decoder session. Every data call
// runs under the registry lock, because the decoder's non-reentrancy spans
// all sessions. The lock is taken per call, not across batches, so handles
// to different files do not serialize each other's surrounding work more
// than the decoder itself demands.
//
// Using or releasing a handle after Release is a programming error and
// panics.
type Handle struct {
	reg      *Registry
	path     string
	idx      int
	released bool
}

// Path returns the canonical path of the underlying file.
func (h *Handle) Path() string {
	return h.path
}

// Release drops this reference. The last reference closes the decoder
// session. Releasing twice panics: an underflowing reference count means the
// caller's bookkeeping is already broken and clamping would only hide it.
func (h *Handle) Release() {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()

	if h.released {
		panic("decoder: handle released twice")
	}
	h.released = true

	e, ok := h.reg.entries[h.path]
	if !ok || e.refs == 0 {
		panic("decoder: registry reference count underflow")
	}

	e.refs--
	if e.refs == 0 {
		h.reg.dec.Close(e.idx)
		delete(h.reg.entries, h.path)
	}
}

// lock acquires the registry lock and verifies the handle is still live.
// The returned function releases the lock.
func (h *Handle) lock() func() {
	h.reg.mu.Lock()
	if h.released {
		h.reg.mu.Unlock()
		panic("decoder: use of released handle")
	}
	return h.reg.mu.Unlock
}

// LapCount returns the number of laps in the file.
func (h *Handle) LapCount() (int, error) {
	defer h.lock()()
	return h.reg.dec.LapCount(h.idx)
}

// LapBounds returns a lap's start offset into the recording and its
// duration, both in seconds.
func (h *Handle) LapBounds(lap int) (start, duration float64, err error) {
	defer h.lock()()
	return h.reg.dec.LapBounds(h.idx, lap)
}

// ChannelCount returns the number of channels in the file.
func (h *Handle) ChannelCount() (int, error) {
	defer h.lock()()
	return h.reg.dec.ChannelCount(h.idx)
}

// ChannelName returns the name of the channel at the given index.
func (h *Handle) ChannelName(channel int) (string, error) {
	defer h.lock()()
	return h.reg.dec.ChannelName(h.idx, channel)
}

// ChannelUnit returns the unit of the channel at the given index.
func (h *Handle) ChannelUnit(channel int) (string, error) {
	defer h.lock()()
	return h.reg.dec.ChannelUnit(h.idx, channel)
}

// RawSamples returns a channel's samples across the whole run.
func (h *Handle) RawSamples(channel int) (timestamps, values []float64, err error) {
	defer h.lock()()
	return h.reg.dec.RawSamples(h.idx, channel)
}

// LapRawSamples returns a channel's samples within one lap.
func (h *Handle) LapRawSamples(lap, channel int) (timestamps, values []float64, err error) {
	defer h.lock()()
	return h.reg.dec.LapRawSamples(h.idx, lap, channel)
}

// VehicleName returns the session's vehicle identifier.
func (h *Handle) VehicleName() (string, error) {
	defer h.lock()()
	return h.reg.dec.VehicleName(h.idx)
}

// TrackName returns the session's track identifier.
func (h *Handle) TrackName() (string, error) {
	defer h.lock()()
	return h.reg.dec.TrackName(h.idx)
}

// RacerName returns the session's racer identifier.
func (h *Handle) RacerName() (string, error) {
	defer h.lock()()
	return h.reg.dec.RacerName(h.idx)
}

// ChampionshipName returns the session's championship identifier.
func (h *Handle) ChampionshipName() (string, error) {
	defer h.lock()()
	return h.reg.dec.ChampionshipName(h.idx)
}

// VenueTypeName returns the session's venue type.
func (h *Handle) VenueTypeName() (string, error) {
	defer h.lock()()
	return h.reg.dec.VenueTypeName(h.idx)
}

// DateTime returns when the session was recorded.
func (h *Handle) DateTime() (time.Time, error) {
	defer h.lock()()
	return h.reg.dec.DateTime(h.idx)
}
