package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DataDir is where the CSV tables live.
	DataDir string

	// HotspotTopN is the default row count for hotspot reads.
	HotspotTopN int
	// ScoringVariant selects the severity formula: "windowed" or "baseline".
	ScoringVariant string
	// DuplicatePolicy selects what happens to flagged duplicates: "flag"
	// stores them, "reject" refuses them with a conflict.
	DuplicatePolicy string

	// Kafka change-event publishing (optional).
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaEventsTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	topN, err := parseInt("HOTSPOT_TOP_N", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir: envOrDefault("DATA_DIR", "data"),

		HotspotTopN:     topN,
		ScoringVariant:  envOrDefault("SCORING_VARIANT", "windowed"),
		DuplicatePolicy: envOrDefault("DUPLICATE_POLICY", "flag"),

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "noise-change-events"),
	}

	switch cfg.ScoringVariant {
	case "windowed", "baseline":
	default:
		return nil, fmt.Errorf("invalid SCORING_VARIANT %q (want windowed or baseline)", cfg.ScoringVariant)
	}
	switch cfg.DuplicatePolicy {
	case "flag", "reject":
	default:
		return nil, fmt.Errorf("invalid DUPLICATE_POLICY %q (want flag or reject)", cfg.DuplicatePolicy)
	}
	if cfg.HotspotTopN <= 0 {
		return nil, errors.New("HOTSPOT_TOP_N must be positive")
	}
	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_EVENTS_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
