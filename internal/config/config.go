package config

import (
	"fmt"
	"os"
	"time"

	"github.com/trackside-labs/stint/pkg/store"
)

// Config holds the application configuration
type Config struct {
	Server ServerConfig `json:"server"`
	Store  StoreConfig  `json:"store"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	ListenAddr string        `json:"listen_addr"`
	Timeout    time.Duration `json:"timeout"`
}

// StoreConfig holds archive configuration
type StoreConfig struct {
	Path             string `json:"path"`
	CompressionLevel int    `json:"compression_level"`
	ExportSummaries  bool   `json:"export_summaries"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ":9154"),
			Timeout:    30 * time.Second,
		},
		Store: StoreConfig{
			Path:             getEnv("STORE_PATH", "./data"),
			CompressionLevel: getEnvInt("COMPRESSION_LEVEL", 3),
			ExportSummaries:  getEnvBool("EXPORT_SUMMARIES", true),
		},
	}
}

// ToStoreConfig converts to store.Config
func (c *Config) ToStoreConfig() *store.Config {
	return &store.Config{
		Path:             c.Store.Path,
		CompressionLevel: c.Store.CompressionLevel,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	if c.Store.CompressionLevel < 1 || c.Store.CompressionLevel > 4 {
		return fmt.Errorf("compression level must be between 1 and 4")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
