package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model artifacts.
	ModelPath             string
	ScalerXPath           string
	ScalerYPath           string
	FeatureImportancePath string
	PredictionCacheSize   int

	// Kafka publishing of predictions and optional observation stream.
	KafkaEnabled          bool
	KafkaBrokers          []string
	KafkaPredictionTopic  string
	KafkaObservationTopic string
	KafkaGroupID          string
	KafkaWriteTimeout     time.Duration
	BatchSize             int
	BatchFlushInterval    time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	writeTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("KAFKA_WRITE_TIMEOUT", "5s"))
	if err != nil || writeTimeout <= 0 {
		return nil, errors.New("invalid KAFKA_WRITE_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
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

		ModelPath:             sharedcfg.EnvOrDefault("MODEL_PATH", "artifacts/rf_me48_model.json"),
		ScalerXPath:           sharedcfg.EnvOrDefault("SCALER_X_PATH", "artifacts/scaler_X_me48.json"),
		ScalerYPath:           sharedcfg.EnvOrDefault("SCALER_Y_PATH", "artifacts/scaler_y_me48.json"),
		FeatureImportancePath: os.Getenv("FEATURE_IMPORTANCE_PATH"),
		PredictionCacheSize:   cacheSize,

		KafkaEnabled:          os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:          sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPredictionTopic:  sharedcfg.EnvOrDefault("KAFKA_PREDICTION_TOPIC", "rainfall-predictions"),
		KafkaObservationTopic: os.Getenv("KAFKA_OBSERVATION_TOPIC"),
		KafkaGroupID:          sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "rain-hindcast"),
		KafkaWriteTimeout:     writeTimeout,
		BatchSize:             batchSize,
		BatchFlushInterval:    flushInterval,
	}

	if cfg.ModelPath == "" || cfg.ScalerXPath == "" || cfg.ScalerYPath == "" {
		return nil, errors.New("MODEL_PATH, SCALER_X_PATH and SCALER_Y_PATH are required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaPredictionTopic == "" {
			return nil, errors.New("KAFKA_PREDICTION_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if cfg.KafkaObservationTopic != "" && !cfg.KafkaEnabled {
		return nil, errors.New("KAFKA_OBSERVATION_TOPIC is set but KAFKA_ENABLED is not true")
	}

	return cfg, nil
}

// StreamEnabled reports whether observations should be consumed from Kafka.
func (c *Config) StreamEnabled() bool {
	return c.KafkaEnabled && c.KafkaObservationTopic != ""
}

func parseCacheSize() (int, error) {
	s := os.Getenv("PREDICTION_CACHE_SIZE")
	if s == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid PREDICTION_CACHE_SIZE %q", s)
	}
	return n, nil
}
