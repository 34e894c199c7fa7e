package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream services.
	CrimeAPIURL        string
	PostcodesAPIURL    string
	PredictionAPIURL   string
	UpstreamTimeout    time.Duration
	PostcodesCacheSize int // 0 disables the postcode cache

	// Digest publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaDigestTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("UPSTREAM_TIMEOUT", "10s"))
	if err != nil || upstreamTimeout <= 0 {
		return nil, errors.New("invalid UPSTREAM_TIMEOUT")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CrimeAPIURL:        trimURL(sharedcfg.EnvOrDefault("CRIME_API_URL", "https://pok7e31yel.execute-api.eu-west-2.amazonaws.com/prod")),
		PostcodesAPIURL:    trimURL(sharedcfg.EnvOrDefault("POSTCODES_API_URL", "https://api.postcodes.io")),
		PredictionAPIURL:   trimURL(sharedcfg.EnvOrDefault("PREDICTION_API_URL", "http://127.0.0.1:5000")),
		UpstreamTimeout:    upstreamTimeout,
		PostcodesCacheSize: cacheSize,

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaDigestTopic: sharedcfg.EnvOrDefault("KAFKA_DIGEST_TOPIC", "crime-digests"),
	}

	for name, raw := range map[string]string{
		"CRIME_API_URL":      cfg.CrimeAPIURL,
		"POSTCODES_API_URL":  cfg.PostcodesAPIURL,
		"PREDICTION_API_URL": cfg.PredictionAPIURL,
	} {
		if err := validateURL(raw); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaDigestTopic == "" {
			return nil, errors.New("KAFKA_DIGEST_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("POSTCODES_CACHE_SIZE")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid POSTCODES_CACHE_SIZE: must be a non-negative integer")
	}
	return n, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// trimURL drops trailing slashes so paths can be appended directly.
func trimURL(s string) string {
	return strings.TrimRight(s, "/")
}
