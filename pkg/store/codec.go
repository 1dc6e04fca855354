// Package store archives normalized telemetry channels in a local BadgerDB
// instance and exports per-lap summaries for downstream analysis.
package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

// Codec compresses fixed-rate sample arrays for archival. Samples are XOR
// encoded against their predecessor's bit pattern before zstd: neighboring
// telemetry readings rarely differ in more than a few mantissa bits, so the
// XOR stream is mostly zeros and compresses well.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec creates a codec with the given compression level (1 fastest to 4
// best).
func NewCodec(level int) (*Codec, error) {
	encLevel := zstd.SpeedDefault
	switch level {
	case 1:
		encLevel = zstd.SpeedFastest
	case 2:
		encLevel = zstd.SpeedDefault
	case 3:
		encLevel = zstd.SpeedBetterCompression
	case 4:
		encLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Codec{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// CompressSamples compresses a fixed-rate sample array.
func (c *Codec) CompressSamples(samples []float32) ([]byte, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	buf := new(bytes.Buffer)

	// first sample as-is, then XOR against the previous bit pattern
	prevBits := math.Float32bits(samples[0])
	if err := binary.Write(buf, binary.LittleEndian, prevBits); err != nil {
		return nil, err
	}

	for _, sample := range samples[1:] {
		currentBits := math.Float32bits(sample)
		if err := binary.Write(buf, binary.LittleEndian, currentBits^prevBits); err != nil {
			return nil, err
		}
		prevBits = currentBits
	}

	return c.encoder.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len())), nil
}

// DecompressSamples reverses CompressSamples. The sample count travels in
// the payload envelope, not in the compressed stream.
func (c *Codec) DecompressSamples(data []byte, count int) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decompressed, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	buf := bytes.NewReader(decompressed)
	samples := make([]float32, count)

	var prevBits uint32
	if err := binary.Read(buf, binary.LittleEndian, &prevBits); err != nil {
		return nil, err
	}
	samples[0] = math.Float32frombits(prevBits)

	for i := 1; i < count; i++ {
		var xorBits uint32
		if err := binary.Read(buf, binary.LittleEndian, &xorBits); err != nil {
			return nil, err
		}
		prevBits ^= xorBits
		samples[i] = math.Float32frombits(prevBits)
	}

	return samples, nil
}

// Close releases the codec's zstd resources.
func (c *Codec) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}
