// Package decoder defines the boundary to the proprietary xrk/drk decoder
// library and the process-wide registry that serializes access to it.
//
// The decoder library keeps global, non-reentrant state shared across all of
// its open files, so no two calls into it may run concurrently -- not even
// on different handles. All access therefore goes through a Registry, which
// also reference-counts opens so that loading the same file twice reuses one
// decoder session.
package decoder

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInput marks a path that does not exist, is not a regular
	// file, or does not carry an accepted extension. Detected before any
	// decoder call.
	ErrInvalidInput = errors.New("invalid input file")

	// ErrUnparseable marks a file the decoder opened but could not parse.
	ErrUnparseable = errors.New("file is open but cannot be parsed")

	// ErrOpenFailed marks a file the decoder failed to open outright.
	ErrOpenFailed = errors.New("decoder failed to open file")
)

// Decoder is the call surface of the external xrk/drk decoder library.
//
// Open follows the library's return convention: a positive value is the
// session index of the opened file, zero means the file was opened but
// cannot be parsed, and a negative value means the open failed. All other
// calls take that session index. Implementations are not required to be
// safe for concurrent use; the Registry serializes every call.
type Decoder interface {
	Open(path string) int
	Close(idx int)

	LapCount(idx int) (int, error)
	LapBounds(idx, lap int) (start, duration float64, err error)

	ChannelCount(idx int) (int, error)
	ChannelName(idx, channel int) (string, error)
	ChannelUnit(idx, channel int) (string, error)

	// RawSamples fetches a channel's samples across the whole run;
	// LapRawSamples restricts them to one lap. Timestamps are seconds from
	// the start of the recording in both cases.
	RawSamples(idx, channel int) (timestamps, values []float64, err error)
	LapRawSamples(idx, lap, channel int) (timestamps, values []float64, err error)

	VehicleName(idx int) (string, error)
	TrackName(idx int) (string, error)
	RacerName(idx int) (string, error)
	ChampionshipName(idx int) (string, error)
	VenueTypeName(idx int) (string, error)
	DateTime(idx int) (time.Time, error)
}
