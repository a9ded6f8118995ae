package outbox

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Subject names of the outbox streams.
const (
	SubjectSend = "catalyst.mail.send"
	SubjectDLQ  = "catalyst.mail.dlq"
)

// Config holds outbox configuration
type Config struct {
	// NATS connection settings
	URL      string
	Name     string
	User     string
	Password string

	// JetStream settings
	StreamName     string
	StreamMaxAge   time.Duration
	StreamReplicas int
	DLQStreamName  string
	DLQMaxAge      time.Duration

	// Consumer settings
	ConsumerName string
	MaxDeliver   int
	AckWait      time.Duration

	// Processing settings
	BatchSize    int
	BatchTimeout time.Duration
}

// DefaultConfig returns a configuration for a local NATS server.
func DefaultConfig() *Config {
	return &Config{
		URL:            "nats://localhost:4222",
		Name:           "catalyst-outbox",
		StreamName:     "CATALYST_MAIL",
		StreamMaxAge:   24 * time.Hour,
		StreamReplicas: 1,
		DLQStreamName:  "CATALYST_MAIL_DLQ",
		DLQMaxAge:      7 * 24 * time.Hour,
		ConsumerName:   "catalyst-mailer",
		MaxDeliver:     5,
		AckWait:        30 * time.Second,
		BatchSize:      10,
		BatchTimeout:   time.Second,
	}
}

// NewConfigFromEnv creates a new Config from environment variables
func NewConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	cfg.URL = getEnvOrDefault("NATS_URL", cfg.URL)
	cfg.Name = getEnvOrDefault("NATS_NAME", cfg.Name)
	cfg.User = os.Getenv("NATS_USER")
	cfg.Password = os.Getenv("NATS_PASSWORD")
	cfg.StreamName = getEnvOrDefault("OUTBOX_STREAM_NAME", cfg.StreamName)
	cfg.DLQStreamName = getEnvOrDefault("OUTBOX_DLQ_STREAM_NAME", cfg.DLQStreamName)
	cfg.ConsumerName = getEnvOrDefault("OUTBOX_CONSUMER_NAME", cfg.ConsumerName)

	var err error
	if cfg.StreamReplicas, err = strconv.Atoi(getEnvOrDefault("OUTBOX_STREAM_REPLICAS", "1")); err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_STREAM_REPLICAS: %w", err)
	}
	if cfg.MaxDeliver, err = strconv.Atoi(getEnvOrDefault("OUTBOX_MAX_DELIVER", "5")); err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_MAX_DELIVER: %w", err)
	}
	if cfg.BatchSize, err = strconv.Atoi(getEnvOrDefault("OUTBOX_BATCH_SIZE", "10")); err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_BATCH_SIZE: %w", err)
	}
	if cfg.AckWait, err = time.ParseDuration(getEnvOrDefault("OUTBOX_ACK_WAIT", "30s")); err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_ACK_WAIT: %w", err)
	}
	if cfg.BatchTimeout, err = time.ParseDuration(getEnvOrDefault("OUTBOX_BATCH_TIMEOUT", "1s")); err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_BATCH_TIMEOUT: %w", err)
	}

	if cfg.MaxDeliver < 1 {
		return nil, fmt.Errorf("OUTBOX_MAX_DELIVER must be at least 1, got %d", cfg.MaxDeliver)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("OUTBOX_BATCH_SIZE must be at least 1, got %d", cfg.BatchSize)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
