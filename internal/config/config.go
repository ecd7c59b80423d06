package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Dataset sources. DataBaseURL wins over DataDir when set.
	DataDir             string
	DataBaseURL         string
	DatasetLoadAttempts uint
	DatasetLoadTimeout  time.Duration

	// Chart engine.
	LayoutFile     string
	ResizeDebounce time.Duration
	FrameInterval  time.Duration
	SceneCacheSize int

	// Kafka event pipeline, off unless KAFKA_ENABLED=true.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaEventTopic string
	KafkaFrameTopic string
	KafkaGroupID    string
	// SessionIdleTTL stops Kafka viewer sessions that go quiet. Zero disables.
	SessionIdleTTL  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	loadTimeout, err := parseDuration("DATASET_LOAD_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	debounce, err := parseDuration("RESIZE_DEBOUNCE", "0s", true)
	if err != nil {
		return nil, err
	}
	frameInterval, err := parseDuration("ANIMATION_FRAME_INTERVAL", "50ms", false)
	if err != nil {
		return nil, err
	}
	idleTTL, err := parseDuration("SESSION_IDLE_TTL", "10m", true)
	if err != nil {
		return nil, err
	}
	attempts, err := parseInt("DATASET_LOAD_ATTEMPTS", 3, 1, 10)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("SCENE_CACHE_SIZE", 256, 1, 100000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ORIGINS", "*")),

		DataDir:             sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		DataBaseURL:         os.Getenv("DATA_BASE_URL"),
		DatasetLoadAttempts: uint(attempts),
		DatasetLoadTimeout:  loadTimeout,

		LayoutFile:     os.Getenv("LAYOUT_FILE"),
		ResizeDebounce: debounce,
		FrameInterval:  frameInterval,
		SceneCacheSize: cacheSize,

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventTopic: sharedcfg.EnvOrDefault("KAFKA_EVENT_TOPIC", "viewport-events"),
		KafkaFrameTopic: sharedcfg.EnvOrDefault("KAFKA_FRAME_TOPIC", "chart-frames"),
		KafkaGroupID:    sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "climate-story"),
		SessionIdleTTL:  idleTTL,

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaEventTopic == "" {
			return nil, errors.New("KAFKA_EVENT_TOPIC is required")
		}
		if cfg.KafkaFrameTopic == "" {
			return nil, errors.New("KAFKA_FRAME_TOPIC is required")
		}
	}

	return cfg, nil
}

// parseDuration reads a duration; zero is accepted only when allowZero is set.
func parseDuration(key, fallback string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be %d-%d", key, lo, hi)
	}
	return n, nil
}
