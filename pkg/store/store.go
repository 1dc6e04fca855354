package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/trackside-labs/stint/pkg/telemetry"
)

// Config holds store configuration.
type Config struct {
	Path             string
	CompressionLevel int
}

// DefaultConfig returns default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:             "./data",
		CompressionLevel: 3,
	}
}

// Store is a BadgerDB-backed archive of normalized channels, keyed by run,
// lap and channel name. A catalog of archived runs is kept in memory and
// rebuilt from the key space on open.
type Store struct {
	cfg     *Config
	db      *badger.DB
	codec   *Codec
	catalog *Catalog
	mu      sync.RWMutex
}

// channelPayload is the stored envelope around one channel's samples.
type channelPayload struct {
	Unit       string  `json:"unit"`
	Frequency  float64 `json:"frequency"`
	Count      int     `json:"count"`
	Compressed []byte  `json:"compressed"`
}

// Open opens (or creates) a store at cfg.Path.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "badger"))
	opts.Logger = nil // disable BadgerDB logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	codec, err := NewCodec(cfg.CompressionLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	s := &Store{
		cfg:     cfg,
		db:      db,
		codec:   codec,
		catalog: NewCatalog(),
	}

	if err := s.rebuildCatalog(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to rebuild catalog: %w", err)
	}

	return s, nil
}

// ArchiveLap stores every channel of one normalized lap.
func (s *Store) ArchiveLap(runID string, lap int, channels []telemetry.FixedRateChannel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range channels {
		if err := s.writeChannel(runID, lap, ch); err != nil {
			return fmt.Errorf("failed to archive %s lap %d channel %q: %w",
				runID, lap, ch.Name, err)
		}
		s.catalog.Add(runID, lap, ch.Name)
	}

	return nil
}

// writeChannel writes one channel payload (caller holds the lock).
func (s *Store) writeChannel(runID string, lap int, ch telemetry.FixedRateChannel) error {
	compressed, err := s.codec.CompressSamples(ch.Samples)
	if err != nil {
		return fmt.Errorf("failed to compress samples: %w", err)
	}

	payload := &channelPayload{
		Unit:       ch.Unit,
		Frequency:  ch.Frequency,
		Count:      ch.Len(),
		Compressed: compressed,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	key := channelKey(runID, lap, ch.Name)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, payloadBytes)
	})
}

// Channel reads one archived channel back.
func (s *Store) Channel(runID string, lap int, name string) (telemetry.FixedRateChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := channelKey(runID, lap, name)

	var payloadBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			payloadBytes = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return telemetry.FixedRateChannel{}, fmt.Errorf("failed to read %s lap %d channel %q: %w",
			runID, lap, name, err)
	}

	var payload channelPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return telemetry.FixedRateChannel{}, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	samples, err := s.codec.DecompressSamples(payload.Compressed, payload.Count)
	if err != nil {
		return telemetry.FixedRateChannel{}, fmt.Errorf("failed to decompress samples: %w", err)
	}

	return telemetry.FixedRateChannel{
		Name:      name,
		Unit:      payload.Unit,
		Frequency: payload.Frequency,
		Samples:   samples,
	}, nil
}

// Runs lists archived run IDs.
func (s *Store) Runs() []string {
	return s.catalog.Runs()
}

// Laps lists the archived lap indices of a run.
func (s *Store) Laps(runID string) []int {
	return s.catalog.Laps(runID)
}

// ChannelNames lists the archived channel names of one lap.
func (s *Store) ChannelNames(runID string, lap int) []string {
	return s.catalog.Channels(runID, lap)
}

// Close closes the store.
func (s *Store) Close() error {
	if s.codec != nil {
		s.codec.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebuildCatalog scans the key space and repopulates the in-memory catalog.
func (s *Store) rebuildCatalog() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			runID, lap, name, err := parseChannelKey(it.Item().Key())
			if err != nil {
				return err
			}
			s.catalog.Add(runID, lap, name)
		}
		return nil
	})
}

const keyPrefix = "run/"

// channelKey builds the storage key for one channel. Run IDs and channel
// names may not contain '/'; lap indices are zero-padded so keys sort in
// lap order.
func channelKey(runID string, lap int, name string) []byte {
	return []byte(fmt.Sprintf("%s%s/%06d/%s", keyPrefix, runID, lap, name))
}

// parseChannelKey reverses channelKey.
func parseChannelKey(key []byte) (runID string, lap int, name string, err error) {
	parts := strings.SplitN(strings.TrimPrefix(string(key), keyPrefix), "/", 3)
	if len(parts) != 3 {
		return "", 0, "", fmt.Errorf("malformed channel key %q", key)
	}

	lap, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, "", fmt.Errorf("malformed lap index in key %q: %w", key, err)
	}

	return parts[0], lap, parts[2], nil
}
