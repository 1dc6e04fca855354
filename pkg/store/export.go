package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/trackside-labs/stint/pkg/session"
)

// LapSummary is the per-lap record exported for downstream analysis.
type LapSummary struct {
	RunID        string    `json:"run_id"`
	Lap          int       `json:"lap"`
	Start        float64   `json:"start"`
	Duration     float64   `json:"duration"`
	Distance     float64   `json:"distance"`
	ChannelCount int       `json:"channel_count"`
	MaxFrequency float64   `json:"max_frequency"`
	Vehicle      string    `json:"vehicle"`
	Track        string    `json:"track"`
	Racer        string    `json:"racer"`
	Recorded     time.Time `json:"recorded"`
}

// SummarizeLap builds the exportable summary of one lap of a run.
func SummarizeLap(run *session.Run, lapIdx int) LapSummary {
	lap := run.Laps[lapIdx]
	return LapSummary{
		RunID:        runIDFor(run),
		Lap:          lap.Info.Index,
		Start:        lap.Info.Start,
		Duration:     lap.Info.Duration,
		Distance:     lap.Distance(),
		ChannelCount: len(lap.Channels),
		MaxFrequency: lap.MaxFrequency(),
		Vehicle:      run.Vehicle,
		Track:        run.Track,
		Racer:        run.Racer,
		Recorded:     run.Recorded,
	}
}

// runIDFor derives a stable run identifier from session metadata.
func runIDFor(run *session.Run) string {
	return fmt.Sprintf("%s_%s_%s_%s", run.Vehicle, run.Track, run.Racer,
		run.Recorded.Format("20060102-150405"))
}

// Exporter appends lap summaries to a JSONL file, one record per line.
type Exporter struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// NewExporter creates (or appends to) a summary export file under dataPath.
func NewExporter(dataPath string) (*Exporter, error) {
	exportPath := filepath.Join(dataPath, "export")
	if err := os.MkdirAll(exportPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	filename := filepath.Join(exportPath, "laps.jsonl")
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}

	return &Exporter{
		path:   filename,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Append writes one summary record.
func (e *Exporter) Append(summary LapSummary) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if _, err := e.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if err := e.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// Flush flushes buffered summaries to disk.
func (e *Exporter) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := e.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync export: %w", err)
	}
	return nil
}

// Close flushes and closes the export file.
func (e *Exporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writer.Flush(); err != nil {
		return err
	}
	if err := e.file.Sync(); err != nil {
		return err
	}
	return e.file.Close()
}

// ReplayExport reads back every summary in an export file and hands each to
// the handler in write order.
func ReplayExport(dataPath string, handler func(LapSummary) error) error {
	filename := filepath.Join(dataPath, "export", "laps.jsonl")

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // nothing exported yet
		}
		return fmt.Errorf("failed to open export file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var summary LapSummary
		if err := json.Unmarshal(scanner.Bytes(), &summary); err != nil {
			return fmt.Errorf("failed to unmarshal summary: %w", err)
		}
		if err := handler(summary); err != nil {
			return fmt.Errorf("failed to replay summary: %w", err)
		}
	}

	return scanner.Err()
}

// ArchiveRun normalizes and archives every lap of a run and, when an
// exporter is given, appends its summaries.
func (s *Store) ArchiveRun(run *session.Run, exporter *Exporter) (string, error) {
	runID := runIDFor(run)

	for i := range run.Laps {
		fixed := session.NormalizeLap(&run.Laps[i])
		if err := s.ArchiveLap(runID, run.Laps[i].Info.Index, fixed); err != nil {
			return "", err
		}
		if exporter != nil {
			if err := exporter.Append(SummarizeLap(run, i)); err != nil {
				return "", fmt.Errorf("failed to export lap %d summary: %w", i, err)
			}
		}
	}

	return runID, nil
}
