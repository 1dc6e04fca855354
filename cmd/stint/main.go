package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/trackside-labs/stint/internal/config"
	"github.com/trackside-labs/stint/pkg/api"
	"github.com/trackside-labs/stint/pkg/decoder"
	"github.com/trackside-labs/stint/pkg/session"
	"github.com/trackside-labs/stint/pkg/store"
)

const (
	version = "0.1.0"
)

func main() {
	demo := flag.Bool("demo", false, "ingest a synthetic demo run before serving")
	flag.Parse()

	fmt.Printf("stint v%s\n", version)
	fmt.Println("Vehicle telemetry normalization and archive")
	fmt.Println()

	// Load configuration
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Listen Address: %s", cfg.Server.ListenAddr)
	log.Printf("  Store Path: %s", cfg.Store.Path)
	log.Printf("  Compression Level: %d", cfg.Store.CompressionLevel)

	// Open archive
	log.Println("Opening archive...")
	s, err := store.Open(cfg.ToStoreConfig())
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer s.Close()

	log.Printf("Archive open, %d run(s) cataloged", len(s.Runs()))

	var exporter *store.Exporter
	if cfg.Store.ExportSummaries {
		exporter, err = store.NewExporter(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to open summary export: %v", err)
		}
		defer exporter.Close()
	}

	if *demo {
		if err := ingestDemoRun(cfg, s, exporter); err != nil {
			log.Fatalf("Demo ingest failed: %v", err)
		}
	}

	// Create API server
	log.Println("Starting API server...")
	server := api.NewServer(cfg.Server.ListenAddr, s)

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on %s", cfg.Server.ListenAddr)
		if err := server.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if exporter != nil {
		if err := exporter.Flush(); err != nil {
			log.Printf("Export flush error: %v", err)
		}
	}

	log.Println("Server stopped successfully")
}

// ingestDemoRun loads a synthetic two-lap run through the full pipeline:
// registry, session assembly, grid normalization, archive and export.
func ingestDemoRun(cfg *config.Config, s *store.Store, exporter *store.Exporter) error {
	path := filepath.Join(cfg.Store.Path, "demo.xrk")
	if err := os.WriteFile(path, []byte("demo"), 0644); err != nil {
		return fmt.Errorf("failed to create demo file: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fmt.Errorf("failed to canonicalize demo file: %w", err)
	}

	mock := decoder.NewMockDecoder()
	mock.AddFile(canonical, &decoder.MockFile{
		Vehicle:      "AU-RS3-R5-S-S",
		Track:        "ARA_1-0-0",
		Racer:        "017",
		Championship: "WT-20",
		VenueType:    "Q3",
		Recorded:     time.Now().UTC().Truncate(time.Second),
		Laps: []decoder.MockLap{
			{Start: 0, Duration: 92.3},
			{Start: 92.3, Duration: 90.7},
		},
		Channels: []decoder.MockChannel{
			decoder.SineChannel("fEngRpm", "rpm", 100, 183, 5000, 1500),
			decoder.SineChannel("tWater", "C", 2, 183, 85, 5),
			decoder.SineChannel("GPS Speed", "m/s", 10, 183, 40, 12),
		},
	})

	run, err := session.Load(decoder.NewRegistry(mock), path)
	if err != nil {
		return fmt.Errorf("failed to load demo run: %w", err)
	}

	runID, err := s.ArchiveRun(run, exporter)
	if err != nil {
		return fmt.Errorf("failed to archive demo run: %w", err)
	}

	log.Printf("Demo run %s archived: %d lap(s), %d channel(s)",
		runID, run.LapCount(), run.ChannelCount())
	return nil
}
